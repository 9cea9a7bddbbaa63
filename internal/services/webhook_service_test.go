package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"taxibackend/internal/domain/models"
	"taxibackend/internal/payments"
)

type recordingNotifier struct {
	emails []string
	metas  []map[string]string
	err    error
}

func (n *recordingNotifier) BookingConfirmed(ctx context.Context, email string, meta map[string]string) error {
	n.emails = append(n.emails, email)
	n.metas = append(n.metas, meta)
	return n.err
}

func syncGo(f func()) { f() }

func webhookFixture() (*memStore, models.Booking, models.Payment) {
	store := newMemStore()
	u := store.addUser("rider@example.com", "passenger")
	b := store.addBooking(u.ID, models.StatusPending)
	p := store.addPayment(b.ID, models.PaymentPending, nil)
	return store, b, p
}

func completedEvent(bookingID string) payments.Event {
	return payments.Event{
		ID:              "evt_1",
		Type:            payments.EventCheckoutCompleted,
		SessionID:       "cs_test_1",
		CustomerEmail:   "rider@example.com",
		PaymentIntentID: "pi_1",
		Metadata:        map[string]string{"booking_id": bookingID, "name": "Ana", "fare": "42.50"},
	}
}

func TestWebhookCheckoutCompletedConfirmsAndNotifies(t *testing.T) {
	store, b, p := webhookFixture()
	n := &recordingNotifier{}
	svc := WebhookService{Store: store, Notifier: n, Go: syncGo}

	res := svc.Handle(context.Background(), completedEvent(itoa(b.ID)))
	if res.Status != WebhookSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	if got := store.st.bookings[b.ID].Status; got != models.StatusConfirmed {
		t.Fatalf("expected booking confirmed, got %s", got)
	}
	paid := store.st.payments[p.ID]
	if paid.Status != models.PaymentPaid || paid.TransactionID == nil || *paid.TransactionID != "pi_1" {
		t.Fatalf("expected paid payment with pi_1, got %+v", paid)
	}
	if len(n.emails) != 1 || n.emails[0] != "rider@example.com" {
		t.Fatalf("expected one notification, got %v", n.emails)
	}
	if n.metas[0]["name"] != "Ana" {
		t.Fatalf("expected metadata snapshot to reach notifier, got %v", n.metas[0])
	}
}

func TestWebhookCheckoutCompletedIsIdempotent(t *testing.T) {
	store, b, _ := webhookFixture()
	n := &recordingNotifier{}
	svc := WebhookService{Store: store, Notifier: n, Go: syncGo}
	ev := completedEvent(itoa(b.ID))

	if res := svc.Handle(context.Background(), ev); res.Status != WebhookSuccess {
		t.Fatalf("first delivery: expected success, got %+v", res)
	}
	if res := svc.Handle(context.Background(), ev); res.Status != WebhookAlreadyProcessed {
		t.Fatalf("second delivery: expected already_processed, got %+v", res)
	}
	if len(n.emails) != 1 {
		t.Fatalf("expected a single notification, got %d", len(n.emails))
	}
}

func TestWebhookCheckoutCompletedUnknownBooking(t *testing.T) {
	store, b, p := webhookFixture()
	svc := WebhookService{Store: store, Go: syncGo}

	res := svc.Handle(context.Background(), completedEvent("9999"))
	if res.Status != WebhookBookingNotFound {
		t.Fatalf("expected booking_not_found, got %+v", res)
	}
	if store.st.bookings[b.ID].Status != models.StatusPending || store.st.payments[p.ID].Status != models.PaymentPending {
		t.Fatalf("expected no mutation")
	}
}

func TestWebhookCheckoutCompletedMissingData(t *testing.T) {
	cases := map[string]func(*payments.Event){
		"no email":          func(ev *payments.Event) { ev.CustomerEmail = "" },
		"no metadata":       func(ev *payments.Event) { ev.Metadata = nil },
		"bad booking id":    func(ev *payments.Event) { ev.Metadata["booking_id"] = "abc" },
		"no payment intent": func(ev *payments.Event) { ev.PaymentIntentID = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			store, b, _ := webhookFixture()
			n := &recordingNotifier{}
			svc := WebhookService{Store: store, Notifier: n, Go: syncGo}
			ev := completedEvent(itoa(b.ID))
			mutate(&ev)

			res := svc.Handle(context.Background(), ev)
			if res.Status != WebhookMissingRequiredData {
				t.Fatalf("expected missing_required_data, got %+v", res)
			}
			if store.st.bookings[b.ID].Status != models.StatusPending {
				t.Fatalf("expected booking untouched")
			}
			if len(n.emails) != 0 {
				t.Fatalf("expected no notification")
			}
		})
	}
}

func TestWebhookCheckoutExpired(t *testing.T) {
	store, b, p := webhookFixture()
	svc := WebhookService{Store: store}

	res := svc.Handle(context.Background(), payments.Event{
		Type:     payments.EventCheckoutExpired,
		Metadata: map[string]string{"booking_id": itoa(b.ID)},
	})
	if res.Status != WebhookSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	if store.st.bookings[b.ID].Status != models.StatusExpired {
		t.Fatalf("expected booking expired, got %s", store.st.bookings[b.ID].Status)
	}
	if store.st.payments[p.ID].Status != models.PaymentExpired {
		t.Fatalf("expected payment expired, got %s", store.st.payments[p.ID].Status)
	}
}

func TestWebhookCheckoutExpiredWithoutBookingID(t *testing.T) {
	store, _, _ := webhookFixture()
	svc := WebhookService{Store: store}

	res := svc.Handle(context.Background(), payments.Event{Type: payments.EventCheckoutExpired})
	if res.Status != WebhookMissingBookingID {
		t.Fatalf("expected missing_booking_id, got %+v", res)
	}
}

func TestWebhookPaymentIntentFailed(t *testing.T) {
	store := newMemStore()
	u := store.addUser("rider@example.com", "passenger")
	b := store.addBooking(u.ID, models.StatusPending)
	tx := "pi_2"
	p := store.addPayment(b.ID, models.PaymentPending, &tx)
	svc := WebhookService{Store: store}

	res := svc.Handle(context.Background(), payments.Event{Type: payments.EventPaymentIntentFailed, PaymentIntentID: "pi_2"})
	if res.Status != WebhookSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	if store.st.bookings[b.ID].Status != models.StatusPaymentFailed {
		t.Fatalf("expected payment_failed booking, got %s", store.st.bookings[b.ID].Status)
	}
	if store.st.payments[p.ID].Status != models.PaymentFailed {
		t.Fatalf("expected failed payment, got %s", store.st.payments[p.ID].Status)
	}

	res = svc.Handle(context.Background(), payments.Event{Type: payments.EventPaymentIntentFailed, PaymentIntentID: "pi_unknown"})
	if res.Status != WebhookBookingNotFound {
		t.Fatalf("expected booking_not_found, got %+v", res)
	}
}

func TestWebhookInvoiceAndUnhandledEvents(t *testing.T) {
	svc := WebhookService{Store: newMemStore()}

	if res := svc.Handle(context.Background(), payments.Event{Type: payments.EventInvoicePaymentFailed, InvoiceID: "in_1"}); res.Status != WebhookLogged {
		t.Fatalf("expected logged, got %+v", res)
	}
	if res := svc.Handle(context.Background(), payments.Event{Type: "customer.created"}); res.Status != WebhookUnhandledEvent {
		t.Fatalf("expected unhandled_event, got %+v", res)
	}
}

func TestWebhookRepositoryErrorRollsBack(t *testing.T) {
	store, b, p := webhookFixture()
	store.fail["Payments.UpdateStatus"] = errors.New("connection reset")
	n := &recordingNotifier{}
	svc := WebhookService{Store: store, Notifier: n, Go: syncGo}

	res := svc.Handle(context.Background(), completedEvent(itoa(b.ID)))
	if res.Status != WebhookProcessingError || res.Error == "" {
		t.Fatalf("expected processing_error with message, got %+v", res)
	}
	if store.st.bookings[b.ID].Status != models.StatusPending {
		t.Fatalf("expected booking rollback, got %s", store.st.bookings[b.ID].Status)
	}
	if store.st.payments[p.ID].Status != models.PaymentPending {
		t.Fatalf("expected payment rollback")
	}
	if len(n.emails) != 0 {
		t.Fatalf("expected no notification after rollback")
	}
}

func TestWebhookPanicIsProcessingError(t *testing.T) {
	store, b, _ := webhookFixture()
	store.panicOn = "Payments.UpdateStatus"
	svc := WebhookService{Store: store, Go: syncGo}

	res := svc.Handle(context.Background(), completedEvent(itoa(b.ID)))
	if res.Status != WebhookProcessingError {
		t.Fatalf("expected processing_error, got %+v", res)
	}
	if store.st.bookings[b.ID].Status != models.StatusPending {
		t.Fatalf("expected booking rollback after panic")
	}
}

func TestWebhookNotifierFailureStillSucceeds(t *testing.T) {
	store, b, _ := webhookFixture()
	n := &recordingNotifier{err: errors.New("smtp down")}
	svc := WebhookService{Store: store, Notifier: n, Go: syncGo}

	res := svc.Handle(context.Background(), completedEvent(itoa(b.ID)))
	if res.Status != WebhookSuccess {
		t.Fatalf("expected success despite notifier error, got %+v", res)
	}
	if store.st.bookings[b.ID].Status != models.StatusConfirmed {
		t.Fatalf("expected booking confirmed")
	}
}

func TestWebhookSecondIntentForPaidBookingKeepsFirst(t *testing.T) {
	store, b, p := webhookFixture()
	n := &recordingNotifier{}
	svc := WebhookService{Store: store, Notifier: n, Go: syncGo}
	ctx := context.Background()

	if res := svc.Handle(ctx, completedEvent(itoa(b.ID))); res.Status != WebhookSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	second := completedEvent(itoa(b.ID))
	second.ID = "evt_2"
	second.PaymentIntentID = "pi_2"
	if res := svc.Handle(ctx, second); res.Status != WebhookAlreadyProcessed {
		t.Fatalf("expected already_processed, got %+v", res)
	}
	if res := svc.Handle(ctx, completedEvent(itoa(b.ID))); res.Status != WebhookAlreadyProcessed {
		t.Fatalf("expected replay to be already_processed, got %+v", res)
	}

	got := store.st.payments[p.ID]
	if got.TransactionID == nil || *got.TransactionID != "pi_1" {
		t.Fatalf("expected transaction id to stay pi_1, got %+v", got.TransactionID)
	}
	if len(n.emails) != 1 {
		t.Fatalf("expected one notification, got %d", len(n.emails))
	}
}

func TestWebhookCompletedForPaymentBoundToOtherIntent(t *testing.T) {
	store := newMemStore()
	u := store.addUser("rider@example.com", "passenger")
	b := store.addBooking(u.ID, models.StatusPending)
	held := "pi_0"
	p := store.addPayment(b.ID, models.PaymentPending, &held)
	n := &recordingNotifier{}
	svc := WebhookService{Store: store, Notifier: n, Go: syncGo}

	res := svc.Handle(context.Background(), completedEvent(itoa(b.ID)))
	if res.Status != WebhookProcessingError {
		t.Fatalf("expected processing_error, got %+v", res)
	}
	if got := store.st.payments[p.ID]; got.Status != models.PaymentPending || *got.TransactionID != "pi_0" {
		t.Fatalf("expected payment untouched, got %+v", got)
	}
	if store.st.bookings[b.ID].Status != models.StatusPending {
		t.Fatalf("expected booking still pending")
	}
	if len(n.emails) != 0 {
		t.Fatalf("expected no notification, got %d", len(n.emails))
	}
}

func TestWebhookCompletedWithoutPaymentRowIsIdempotent(t *testing.T) {
	store := newMemStore()
	u := store.addUser("rider@example.com", "passenger")
	b := store.addBooking(u.ID, models.StatusPending)
	n := &recordingNotifier{}
	svc := WebhookService{Store: store, Notifier: n, Go: syncGo}
	ctx := context.Background()

	if res := svc.Handle(ctx, completedEvent(itoa(b.ID))); res.Status != WebhookSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	if res := svc.Handle(ctx, completedEvent(itoa(b.ID))); res.Status != WebhookAlreadyProcessed {
		t.Fatalf("expected already_processed on redelivery, got %+v", res)
	}
	if len(n.emails) != 1 {
		t.Fatalf("expected one notification, got %d", len(n.emails))
	}
}

func TestWebhookInflightTracksBackgroundNotification(t *testing.T) {
	store, b, _ := webhookFixture()
	n := &recordingNotifier{}
	var inflight sync.WaitGroup
	svc := WebhookService{Store: store, Notifier: n, Inflight: &inflight}

	if res := svc.Handle(context.Background(), completedEvent(itoa(b.ID))); res.Status != WebhookSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	inflight.Wait()
	if len(n.emails) != 1 {
		t.Fatalf("expected notification finished before Wait returned, got %d", len(n.emails))
	}
}
