package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"taxibackend/internal/domain"
	"taxibackend/internal/domain/models"
	"taxibackend/internal/notify"
	"taxibackend/internal/payments"
	"taxibackend/internal/repositories"
	"taxibackend/internal/utils"
)

// Webhook result statuses. Every authenticated event is acknowledged with one
// of these so the gateway does not redeliver.
const (
	WebhookSuccess             = "success"
	WebhookAlreadyProcessed    = "already_processed"
	WebhookBookingNotFound     = "booking_not_found"
	WebhookMissingRequiredData = "missing_required_data"
	WebhookMissingBookingID    = "missing_booking_id"
	WebhookLogged              = "logged"
	WebhookUnhandledEvent      = "unhandled_event"
	WebhookProcessingError     = "processing_error"
)

const notifyTimeout = 30 * time.Second

type WebhookResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// WebhookService reconciles gateway events with booking and payment state.
// Each event runs in one transaction; the rows it changes are locked before
// the idempotency re-check.
type WebhookService struct {
	Store    repositories.Store
	Notifier notify.Notifier
	// Go runs the post-commit notification; defaults to a new goroutine.
	Go func(func())
	// Inflight, when set, counts notifications still running.
	Inflight *sync.WaitGroup
}

// Handle never returns an error: failures roll back and are reported as
// processing_error.
func (s WebhookService) Handle(ctx context.Context, ev payments.Event) (res WebhookResult) {
	defer func() {
		if p := recover(); p != nil {
			utils.LogEventCtx(ctx, "WEBHOOK", "panic", fmt.Sprintf("event=%s id=%s panic=%v", ev.Type, ev.ID, p))
			res = WebhookResult{Status: WebhookProcessingError, Error: fmt.Sprint(p)}
		}
	}()

	utils.LogEventCtx(ctx, "WEBHOOK", "received", fmt.Sprintf("event=%s id=%s", ev.Type, ev.ID))

	var (
		status string
		err    error
	)
	switch ev.Type {
	case payments.EventCheckoutCompleted:
		status, err = s.checkoutCompleted(ctx, ev)
	case payments.EventCheckoutExpired:
		status, err = s.checkoutExpired(ctx, ev)
	case payments.EventPaymentIntentFailed:
		status, err = s.paymentIntentFailed(ctx, ev)
	case payments.EventInvoicePaymentFailed:
		utils.LogEventCtx(ctx, "WEBHOOK", "invoice_failed", fmt.Sprintf("invoice=%s customer=%s", ev.InvoiceID, ev.CustomerEmail))
		status = WebhookLogged
	default:
		utils.LogEventCtx(ctx, "WEBHOOK", "unhandled", "event="+ev.Type)
		status = WebhookUnhandledEvent
	}

	if err != nil {
		utils.LogEventCtx(ctx, "WEBHOOK", "processing_error", fmt.Sprintf("event=%s id=%s err=%v", ev.Type, ev.ID, err))
		return WebhookResult{Status: WebhookProcessingError, Error: err.Error()}
	}
	utils.LogEventCtx(ctx, "WEBHOOK", "processed", fmt.Sprintf("event=%s id=%s status=%s", ev.Type, ev.ID, status))
	return WebhookResult{Status: status}
}

func parseBookingID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// errOutcome carries a non-error result out of a transaction closure.
type errOutcome struct{ status string }

func (e errOutcome) Error() string { return e.status }

// outcome turns a closure result into a status. Outcomes are raised before
// any write, so the rollback they cause is a no-op.
func outcome(err error) (string, error) {
	var o errOutcome
	if errors.As(err, &o) {
		return o.status, nil
	}
	if err != nil {
		return "", err
	}
	return WebhookSuccess, nil
}

func (s WebhookService) checkoutCompleted(ctx context.Context, ev payments.Event) (string, error) {
	bookingID, ok := parseBookingID(ev.Metadata["booking_id"])
	if len(ev.Metadata) == 0 || strings.TrimSpace(ev.CustomerEmail) == "" || !ok || ev.PaymentIntentID == "" {
		utils.LogEventCtx(ctx, "WEBHOOK", "checkout_completed",
			fmt.Sprintf("missing data session=%s metadata=%t email=%t booking_id=%t payment_intent=%t",
				ev.SessionID, len(ev.Metadata) > 0, ev.CustomerEmail != "", ok, ev.PaymentIntentID != ""))
		return WebhookMissingRequiredData, nil
	}
	txID := ev.PaymentIntentID

	status, err := outcome(s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		existing, err := r.Payments.GetByTransactionID(ctx, txID)
		switch {
		case err == nil && existing.Status == models.PaymentPaid:
			return errOutcome{WebhookAlreadyProcessed}
		case err != nil && !domain.IsNotFound(err):
			return err
		}

		b, err := r.Bookings.LockByID(ctx, bookingID)
		if err != nil {
			if domain.IsNotFound(err) {
				return errOutcome{WebhookBookingNotFound}
			}
			return err
		}

		p, err := r.Payments.LockByBookingID(ctx, bookingID)
		hasPayment := err == nil
		if err != nil && !domain.IsNotFound(err) {
			return err
		}
		switch {
		case hasPayment && p.Status == models.PaymentPaid:
			return errOutcome{WebhookAlreadyProcessed}
		case hasPayment && p.TransactionID != nil && *p.TransactionID != txID:
			return domain.ConflictError{Resource: "payment", Msg: "payment already bound to transaction " + *p.TransactionID}
		case !hasPayment && b.Status == models.StatusConfirmed:
			return errOutcome{WebhookAlreadyProcessed}
		}

		logTransition(ctx, b, models.StatusConfirmed)
		if err := r.Bookings.UpdateStatus(ctx, bookingID, models.StatusConfirmed); err != nil {
			return err
		}
		if hasPayment {
			if err := r.Payments.UpdateStatus(ctx, p.ID, models.PaymentPaid, &txID); err != nil {
				return err
			}
		}
		return nil
	}))
	if err != nil || status != WebhookSuccess {
		if status == WebhookAlreadyProcessed {
			utils.LogEventCtx(ctx, "WEBHOOK", "checkout_completed", "already processed session="+ev.SessionID)
		}
		return status, err
	}

	utils.LogEventCtx(ctx, "WEBHOOK", "checkout_completed",
		fmt.Sprintf("booking_id=%d confirmed and paid session=%s", bookingID, ev.SessionID))
	s.notifyConfirmed(ctx, bookingID, ev.CustomerEmail, ev.Metadata)
	return WebhookSuccess, nil
}

func (s WebhookService) notifyConfirmed(ctx context.Context, bookingID int64, email string, meta map[string]string) {
	if s.Notifier == nil {
		return
	}
	run := s.Go
	if run == nil {
		run = func(f func()) { go f() }
	}
	requestID := utils.RequestIDFrom(ctx)
	if s.Inflight != nil {
		s.Inflight.Add(1)
	}
	run(func() {
		if s.Inflight != nil {
			defer s.Inflight.Done()
		}
		nctx, cancel := context.WithTimeout(utils.WithRequestID(context.Background(), requestID), notifyTimeout)
		defer cancel()
		if err := s.Notifier.BookingConfirmed(nctx, email, meta); err != nil {
			utils.LogEvent(requestID, "WEBHOOK", "notify_failed", fmt.Sprintf("booking_id=%d err=%v", bookingID, err))
		}
	})
}

func (s WebhookService) checkoutExpired(ctx context.Context, ev payments.Event) (string, error) {
	bookingID, ok := parseBookingID(ev.Metadata["booking_id"])
	if !ok {
		utils.LogEventCtx(ctx, "WEBHOOK", "checkout_expired", "no booking_id in session="+ev.SessionID)
		return WebhookMissingBookingID, nil
	}

	status, err := outcome(s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		b, err := r.Bookings.LockByID(ctx, bookingID)
		if err != nil {
			if domain.IsNotFound(err) {
				return errOutcome{WebhookBookingNotFound}
			}
			return err
		}
		return setBookingAndPayment(ctx, r, b, models.StatusExpired, models.PaymentExpired)
	}))
	if err == nil && status == WebhookSuccess {
		utils.LogEventCtx(ctx, "WEBHOOK", "checkout_expired", fmt.Sprintf("booking_id=%d marked expired", bookingID))
	}
	return status, err
}

func (s WebhookService) paymentIntentFailed(ctx context.Context, ev payments.Event) (string, error) {
	if ev.PaymentIntentID == "" {
		return WebhookBookingNotFound, nil
	}

	var bookingID int64
	status, err := outcome(s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		found, err := r.Bookings.GetByTransactionID(ctx, ev.PaymentIntentID)
		if err != nil {
			if domain.IsNotFound(err) {
				return errOutcome{WebhookBookingNotFound}
			}
			return err
		}
		b, err := r.Bookings.LockByID(ctx, found.ID)
		if err != nil {
			return err
		}
		bookingID = b.ID
		return setBookingAndPayment(ctx, r, b, models.StatusPaymentFailed, models.PaymentFailed)
	}))
	if err == nil && status == WebhookSuccess {
		utils.LogEventCtx(ctx, "WEBHOOK", "payment_failed", fmt.Sprintf("booking_id=%d marked payment_failed", bookingID))
	} else if status == WebhookBookingNotFound {
		utils.LogEventCtx(ctx, "WEBHOOK", "payment_failed", "no booking for payment_intent="+ev.PaymentIntentID)
	}
	return status, err
}

// setBookingAndPayment moves the booking and, when present, its payment.
func setBookingAndPayment(ctx context.Context, r repositories.Repos, b models.Booking, bs models.BookingStatus, ps models.PaymentStatus) error {
	p, err := r.Payments.LockByBookingID(ctx, b.ID)
	if err != nil && !domain.IsNotFound(err) {
		return err
	}
	hasPayment := err == nil

	logTransition(ctx, b, bs)
	if err := r.Bookings.UpdateStatus(ctx, b.ID, bs); err != nil {
		return err
	}
	if hasPayment {
		return r.Payments.UpdateStatus(ctx, p.ID, ps, nil)
	}
	return nil
}
