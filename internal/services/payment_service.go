package services

import (
	"context"
	"fmt"
	"strings"

	"taxibackend/internal/domain"
	"taxibackend/internal/domain/models"
	"taxibackend/internal/repositories"
	"taxibackend/internal/utils"
)

// PaymentService tracks the payment record that belongs to each booking.
type PaymentService struct {
	Store repositories.Store
}

func (s PaymentService) Create(ctx context.Context, bookingID int64, amount float64, method models.PaymentMethod) (models.Payment, error) {
	if !method.Valid() {
		return models.Payment{}, domain.ValidationError{Field: "method", Msg: "must be card or cash"}
	}
	if amount < 0 {
		return models.Payment{}, domain.ValidationError{Field: "amount", Msg: "must not be negative"}
	}
	p := models.Payment{BookingID: bookingID, Method: method, Status: models.PaymentPending, Amount: utils.RoundMoney(amount)}
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		if _, err := r.Bookings.GetByID(ctx, bookingID); err != nil {
			return err
		}
		return r.Payments.Create(ctx, &p)
	})
	if err != nil {
		return models.Payment{}, err
	}
	utils.LogEventCtx(ctx, "PAYMENT", "create", fmt.Sprintf("payment_id=%d booking_id=%d", p.ID, bookingID))
	return p, nil
}

func (s PaymentService) UpdateStatus(ctx context.Context, id int64, status models.PaymentStatus) (models.Payment, error) {
	if !status.Valid() {
		return models.Payment{}, domain.ValidationError{Field: "status", Msg: "unknown payment status"}
	}
	var out models.Payment
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		if err := r.Payments.UpdateStatus(ctx, id, status, nil); err != nil {
			return err
		}
		p, err := r.Payments.GetByID(ctx, id)
		out = p
		return err
	})
	if err != nil {
		return models.Payment{}, err
	}
	utils.LogEventCtx(ctx, "PAYMENT", "update_status", fmt.Sprintf("payment_id=%d status=%s", id, status))
	return out, nil
}

// AttachTransaction records the gateway transaction id on a payment. A
// transaction id already held by another payment, or a different id already
// stored on this one, is a conflict.
func (s PaymentService) AttachTransaction(ctx context.Context, id int64, transactionID string) (models.Payment, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return models.Payment{}, domain.ValidationError{Field: "transaction_id", Msg: "required"}
	}
	var out models.Payment
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		p, err := r.Payments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.TransactionID != nil && *p.TransactionID != transactionID {
			return domain.ConflictError{Resource: "payment", Msg: "transaction id already set"}
		}
		if err := r.Payments.UpdateStatus(ctx, id, p.Status, &transactionID); err != nil {
			return err
		}
		p.TransactionID = &transactionID
		out = p
		return nil
	})
	if err != nil {
		return models.Payment{}, err
	}
	return out, nil
}

// GetByBooking returns the payment of a booking the caller may see.
func (s PaymentService) GetByBooking(ctx context.Context, rc domain.RequestContext, bookingID int64) (models.Payment, error) {
	repos := s.Store.Repos()
	b, err := repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return models.Payment{}, err
	}
	if !rc.IsAdmin() && b.UserID != rc.UserID {
		return models.Payment{}, domain.ForbiddenError{Msg: "not authorized"}
	}
	return repos.Payments.GetByBookingID(ctx, bookingID)
}

func (s PaymentService) GetByTransactionID(ctx context.Context, transactionID string) (models.Payment, error) {
	return s.Store.Repos().Payments.GetByTransactionID(ctx, transactionID)
}
