package notify

import (
	"context"
	"errors"
)

// Notifier is told about a booking once its payment has been confirmed.
// meta is the checkout metadata snapshot (booking_id, name, pickup, fare...).
type Notifier interface {
	BookingConfirmed(ctx context.Context, email string, meta map[string]string) error
}

// Fanout delivers to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) BookingConfirmed(ctx context.Context, email string, meta map[string]string) error {
	var errs []error
	for _, n := range f {
		if err := n.BookingConfirmed(ctx, email, meta); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop is used when no delivery channel is configured.
type Noop struct{}

func (Noop) BookingConfirmed(context.Context, string, map[string]string) error { return nil }
