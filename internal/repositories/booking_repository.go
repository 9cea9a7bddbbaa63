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

const bookingColumns = `b.id, b.user_id, b.driver_id, b.pickup_location, b.dropoff_location,
	b.scheduled_time, b.vehicle_category, b.fare, b.passenger_count, b.status,
	b.distance_km, b.duration_minutes, b.cancellation_reason, b.rating,
	b.created_at, b.updated_at`

const bookingFullColumns = bookingColumns + `,
	u.email, u.full_name, d.license_number, p.status, p.method`

const bookingFullFrom = `FROM bookings b
	JOIN users u ON u.id = b.user_id
	LEFT JOIN drivers d ON d.id = b.driver_id
	LEFT JOIN payments p ON p.booking_id = b.id`

type BookingRepository struct {
	DB intdb.DBTX
}

func scanBooking(row rowScanner, extra ...any) (models.Booking, error) {
	var (
		b          models.Booking
		driverID   sql.NullInt64
		fare       sql.NullFloat64
		distance   sql.NullFloat64
		duration   sql.NullInt64
		cancelNote sql.NullString
		rating     sql.NullInt64
		category   string
		status     string
	)
	dest := []any{
		&b.ID, &b.UserID, &driverID, &b.PickupLocation, &b.DropoffLocation,
		&b.ScheduledTime, &category, &fare, &b.PassengerCount, &status,
		&distance, &duration, &cancelNote, &rating,
		&b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return models.Booking{}, err
	}
	b.DriverID = int64Ptr(driverID)
	b.Fare = floatPtr(fare)
	b.DistanceKM = floatPtr(distance)
	b.DurationMinutes = intPtr(duration)
	b.CancellationReason = stringPtr(cancelNote)
	b.Rating = intPtr(rating)
	b.VehicleCategory = models.VehicleCategory(category)
	b.Status = models.BookingStatus(status)
	return b, nil
}

func scanBookingFull(row rowScanner) (models.BookingFull, error) {
	var (
		full          models.BookingFull
		fullName      sql.NullString
		license       sql.NullString
		paymentStatus sql.NullString
		paymentMethod sql.NullString
	)
	b, err := scanBooking(row, &full.UserEmail, &fullName, &license, &paymentStatus, &paymentMethod)
	if err != nil {
		return models.BookingFull{}, err
	}
	full.Booking = b
	full.UserFullName = stringPtr(fullName)
	full.DriverLicenseNumber = stringPtr(license)
	if paymentStatus.Valid {
		s := models.PaymentStatus(paymentStatus.String)
		full.PaymentStatus = &s
	}
	if paymentMethod.Valid {
		m := models.PaymentMethod(paymentMethod.String)
		full.PaymentMethod = &m
	}
	return full, nil
}

func (r BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	ts := now()
	b.CreatedAt, b.UpdatedAt = ts, ts
	if b.Status == "" {
		b.Status = models.StatusPending
	}
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO bookings (user_id, driver_id, pickup_location, dropoff_location,
			scheduled_time, vehicle_category, fare, passenger_count, status,
			distance_km, duration_minutes, cancellation_reason, rating,
			created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.UserID, nullable(b.DriverID), b.PickupLocation, b.DropoffLocation,
		b.ScheduledTime.UTC(), string(b.VehicleCategory), nullable(b.Fare), b.PassengerCount, string(b.Status),
		nullable(b.DistanceKM), nullable(b.DurationMinutes), nullable(b.CancellationReason), nullable(b.Rating),
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if intdb.IsForeignKeyViolation(err) {
			return domain.NotFoundError{Resource: "passenger or driver", Err: err}
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert booking id: %w", err)
	}
	b.ID = id
	return nil
}

func (r BookingRepository) getOne(ctx context.Context, query string, args ...any) (models.Booking, error) {
	b, err := scanBooking(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
		}
		return models.Booking{}, fmt.Errorf("select booking: %w", err)
	}
	return b, nil
}

func (r BookingRepository) GetByID(ctx context.Context, id int64) (models.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ? LIMIT 1`, id)
}

func (r BookingRepository) LockByID(ctx context.Context, id int64) (models.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ? LIMIT 1 FOR UPDATE`, id)
}

func (r BookingRepository) GetByTransactionID(ctx context.Context, transactionID string) (models.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+`
		FROM bookings b JOIN payments p ON p.booking_id = b.id
		WHERE p.transaction_id = ? LIMIT 1`, transactionID)
}

func (r BookingRepository) GetFullByID(ctx context.Context, id int64) (models.BookingFull, error) {
	full, err := scanBookingFull(r.DB.QueryRowContext(ctx,
		`SELECT `+bookingFullColumns+` `+bookingFullFrom+` WHERE b.id = ? LIMIT 1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BookingFull{}, domain.NotFoundError{Resource: "booking", Err: err}
		}
		return models.BookingFull{}, fmt.Errorf("select booking: %w", err)
	}
	return full, nil
}

func (r BookingRepository) count(ctx context.Context) (int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return total, nil
}

func (r BookingRepository) List(ctx context.Context, skip, limit int) ([]models.Booking, int, error) {
	total, err := r.count(ctx)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings b ORDER BY b.id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	return out, total, nil
}

func (r BookingRepository) listFull(ctx context.Context, query string, args ...any) ([]models.BookingFull, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := []models.BookingFull{}
	for rows.Next() {
		full, err := scanBookingFull(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, full)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

func (r BookingRepository) ListFull(ctx context.Context, skip, limit int) ([]models.BookingFull, int, error) {
	total, err := r.count(ctx)
	if err != nil {
		return nil, 0, err
	}
	out, err := r.listFull(ctx,
		`SELECT `+bookingFullColumns+` `+bookingFullFrom+` ORDER BY b.id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r BookingRepository) ListFullByUser(ctx context.Context, userID int64) ([]models.BookingFull, error) {
	return r.listFull(ctx,
		`SELECT `+bookingFullColumns+` `+bookingFullFrom+` WHERE b.user_id = ? ORDER BY b.scheduled_time DESC`, userID)
}

func (r BookingRepository) ListFullByDriver(ctx context.Context, driverID int64) ([]models.BookingFull, error) {
	return r.listFull(ctx,
		`SELECT `+bookingFullColumns+` `+bookingFullFrom+` WHERE b.driver_id = ? ORDER BY b.scheduled_time`, driverID)
}

// Update writes the mutable booking fields.
func (r BookingRepository) Update(ctx context.Context, b models.Booking) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE bookings
		SET driver_id = ?, fare = ?, status = ?, cancellation_reason = ?, rating = ?, updated_at = ?
		WHERE id = ?`,
		nullable(b.DriverID), nullable(b.Fare), string(b.Status), nullable(b.CancellationReason), nullable(b.Rating), now(),
		b.ID,
	)
	if err != nil {
		if intdb.IsForeignKeyViolation(err) {
			return domain.NotFoundError{Resource: "driver", Err: err}
		}
		return fmt.Errorf("update booking: %w", err)
	}
	return nil
}

func (r BookingRepository) UpdateStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	if _, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`, string(status), now(), id); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}

func (r BookingRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		if intdb.IsForeignKeyViolation(err) {
			return domain.ConflictError{Resource: "booking", Msg: "still referenced", Err: err}
		}
		return fmt.Errorf("delete booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "booking"}
	}
	return nil
}
