package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestMailerRendersConfirmation(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	m := &Mailer{
		Host:        "smtp.example.com",
		Port:        587,
		From:        "bookings@example.com",
		ProjectName: "Taxi Booking",
		Send: func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
			gotAddr, gotTo, gotMsg = addr, to, string(msg)
			return nil
		},
	}

	err := m.BookingConfirmed(context.Background(), "ana@example.com", map[string]string{
		"booking_id":  "5",
		"name":        "Ana",
		"pickup":      "Sol",
		"destination": "Barajas <T4>",
		"date":        "2025-01-15",
		"time":        "23:00",
		"fare":        "17.50",
	})
	if err != nil {
		t.Fatalf("send error: %v", err)
	}
	if gotAddr != "smtp.example.com:587" || len(gotTo) != 1 || gotTo[0] != "ana@example.com" {
		t.Fatalf("unexpected envelope %s %v", gotAddr, gotTo)
	}
	for _, want := range []string{
		"Subject: Taxi Booking - Booking Confirmed",
		"#5",
		"15 January 2025",
		"17.50",
		"Barajas &lt;T4&gt;",
	} {
		if !strings.Contains(gotMsg, want) {
			t.Fatalf("message missing %q", want)
		}
	}
	if !strings.Contains(gotMsg, "<td>Vehicle</td><td>Not specified</td>") {
		t.Fatalf("missing metadata should fall back to placeholder")
	}
}

func TestMailerWithoutHostFails(t *testing.T) {
	m := &Mailer{Send: func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatalf("send should not be called")
		return nil
	}}
	if err := m.BookingConfirmed(context.Background(), "a@b.c", nil); err == nil {
		t.Fatalf("expected error without smtp host")
	}
}

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) BookingConfirmed(context.Context, string, map[string]string) error {
	r.calls++
	return r.err
}

func TestFanoutCallsEveryNotifier(t *testing.T) {
	boom := errors.New("smtp down")
	first := &recordingNotifier{err: boom}
	second := &recordingNotifier{}

	err := Fanout{first, second}.BookingConfirmed(context.Background(), "a@b.c", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("expected both notifiers called, got %d and %d", first.calls, second.calls)
	}
}

func TestKafkaPublisherSendsBookingEvent(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, nil)
	producer.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "booking-events" {
			return fmt.Errorf("unexpected topic %s", msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "5" {
			return fmt.Errorf("unexpected key %s", key)
		}
		raw, _ := msg.Value.Encode()
		var ev bookingEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return err
		}
		if ev.Event != eventBookingConfirmed || ev.Email != "ana@example.com" {
			return fmt.Errorf("unexpected event %+v", ev)
		}
		return nil
	})

	pub := NewKafkaPublisherWithProducer(producer, "booking-events")
	if err := pub.BookingConfirmed(context.Background(), "ana@example.com", map[string]string{"booking_id": "5"}); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("close error: %v", err)
	}
}

func TestKafkaPublisherRejectsSendAfterClose(t *testing.T) {
	pub := NewKafkaPublisherWithProducer(mocks.NewAsyncProducer(t, nil), "booking-events")
	if err := pub.Close(); err != nil {
		t.Fatalf("close error: %v", err)
	}
	err := pub.BookingConfirmed(context.Background(), "ana@example.com", map[string]string{"booking_id": "5"})
	if !errors.Is(err, ErrPublisherClosed) {
		t.Fatalf("expected closed publisher error, got %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("second close error: %v", err)
	}
}
