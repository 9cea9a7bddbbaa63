package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "taxibackend/internal/db"
	"taxibackend/internal/domain"
	"taxibackend/internal/domain/models"
)

const paymentColumns = `id, booking_id, method, status, amount, transaction_id, created_at, updated_at`

type PaymentRepository struct {
	DB intdb.DBTX
}

func scanPayment(row rowScanner) (models.Payment, error) {
	var (
		p      models.Payment
		method string
		status string
		txID   sql.NullString
	)
	if err := row.Scan(&p.ID, &p.BookingID, &method, &status, &p.Amount, &txID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return models.Payment{}, err
	}
	p.Method = models.PaymentMethod(method)
	p.Status = models.PaymentStatus(status)
	p.TransactionID = stringPtr(txID)
	return p, nil
}

func (r PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	ts := now()
	p.CreatedAt, p.UpdatedAt = ts, ts
	if p.Status == "" {
		p.Status = models.PaymentPending
	}
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO payments (booking_id, method, status, amount, transaction_id, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?)`,
		p.BookingID, string(p.Method), string(p.Status), p.Amount, nullable(p.TransactionID), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		switch {
		case intdb.IsDuplicateKey(err):
			return domain.ConflictError{Resource: "payment", Msg: "booking already has a payment", Err: err}
		case intdb.IsForeignKeyViolation(err):
			return domain.NotFoundError{Resource: "booking", Err: err}
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert payment id: %w", err)
	}
	p.ID = id
	return nil
}

func (r PaymentRepository) getOne(ctx context.Context, query string, args ...any) (models.Payment, error) {
	p, err := scanPayment(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Payment{}, domain.NotFoundError{Resource: "payment", Err: err}
		}
		return models.Payment{}, fmt.Errorf("select payment: %w", err)
	}
	return p, nil
}

func (r PaymentRepository) GetByID(ctx context.Context, id int64) (models.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ? LIMIT 1`, id)
}

func (r PaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) (models.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = ? LIMIT 1`, bookingID)
}

func (r PaymentRepository) LockByBookingID(ctx context.Context, bookingID int64) (models.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = ? LIMIT 1 FOR UPDATE`, bookingID)
}

func (r PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (models.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE transaction_id = ? LIMIT 1`, transactionID)
}

func (r PaymentRepository) UpdateStatus(ctx context.Context, id int64, status models.PaymentStatus, transactionID *string) error {
	var (
		res sql.Result
		err error
	)
	if transactionID != nil {
		var holder int64
		err = r.DB.QueryRowContext(ctx,
			`SELECT id FROM payments WHERE transaction_id = ? AND id <> ? LIMIT 1`, *transactionID, id).Scan(&holder)
		switch {
		case err == nil:
			return domain.ConflictError{Resource: "payment", Msg: "transaction id already recorded"}
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("check transaction id: %w", err)
		}
		res, err = r.DB.ExecContext(ctx,
			`UPDATE payments SET status = ?, transaction_id = ?, updated_at = ?
			WHERE id = ? AND (transaction_id IS NULL OR transaction_id = ?)`,
			string(status), *transactionID, now(), id, *transactionID)
	} else {
		res, err = r.DB.ExecContext(ctx,
			`UPDATE payments SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), now(), id)
	}
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "payment", Msg: "transaction id already recorded", Err: err}
		}
		return fmt.Errorf("update payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if transactionID != nil {
			return r.missingOrReassigned(ctx, id)
		}
		return domain.NotFoundError{Resource: "payment"}
	}
	return nil
}

// missingOrReassigned explains a guarded update that matched no row: the
// payment is gone, or it already holds a different transaction id.
func (r PaymentRepository) missingOrReassigned(ctx context.Context, id int64) error {
	var held sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT transaction_id FROM payments WHERE id = ? LIMIT 1`, id).Scan(&held)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.NotFoundError{Resource: "payment"}
	case err != nil:
		return fmt.Errorf("check payment: %w", err)
	}
	return domain.ConflictError{Resource: "payment", Msg: "transaction id already set"}
}

func (r PaymentRepository) DeleteByBookingID(ctx context.Context, bookingID int64) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM payments WHERE booking_id = ?`, bookingID); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}
