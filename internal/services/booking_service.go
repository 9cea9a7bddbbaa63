package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"taxibackend/internal/domain"
	"taxibackend/internal/domain/models"
	"taxibackend/internal/repositories"
	"taxibackend/internal/utils"
)

// BookingService manages the booking lifecycle. Every mutation runs in one
// transaction together with the matching payment change.
type BookingService struct {
	Store repositories.Store
	Now   func() time.Time
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s BookingService) validateInput(in models.BookingInput) error {
	if !in.VehicleCategory.Valid() {
		return domain.ValidationError{Field: "vehicle_category", Msg: "unknown vehicle category"}
	}
	if !in.ScheduledTime.After(s.now()) {
		return domain.ValidationError{Field: "scheduled_time", Msg: "must be in the future"}
	}
	if in.PassengerCount < 1 {
		return domain.ValidationError{Field: "passenger_count", Msg: "must be at least 1"}
	}
	if in.Fare < 0 || in.DistanceKM < 0 || in.DurationMinutes < 0 {
		return domain.ValidationError{Msg: "fare, distance and duration must not be negative"}
	}
	if in.PaymentMethod != "" && !in.PaymentMethod.Valid() {
		return domain.ValidationError{Field: "payment_method", Msg: "must be card or cash"}
	}
	return nil
}

func newBooking(userID int64, in models.BookingInput) models.Booking {
	fare := utils.RoundMoney(in.Fare)
	distance := in.DistanceKM
	duration := in.DurationMinutes
	return models.Booking{
		UserID:          userID,
		PickupLocation:  utils.NormalizeSpace(in.PickupLocation),
		DropoffLocation: utils.NormalizeSpace(in.DropoffLocation),
		ScheduledTime:   in.ScheduledTime,
		VehicleCategory: in.VehicleCategory,
		Fare:            &fare,
		PassengerCount:  in.PassengerCount,
		Status:          models.StatusPending,
		DistanceKM:      &distance,
		DurationMinutes: &duration,
	}
}

// createWithPayment persists the booking and its pending payment in r.
func createWithPayment(ctx context.Context, r repositories.Repos, b *models.Booking, method models.PaymentMethod) error {
	if err := r.Bookings.Create(ctx, b); err != nil {
		return err
	}
	if method == "" {
		method = models.MethodCard
	}
	var amount float64
	if b.Fare != nil {
		amount = *b.Fare
	}
	return r.Payments.Create(ctx, &models.Payment{
		BookingID: b.ID,
		Method:    method,
		Status:    models.PaymentPending,
		Amount:    amount,
	})
}

// CreateForPassenger books a ride for the authenticated passenger.
func (s BookingService) CreateForPassenger(ctx context.Context, userID int64, in models.BookingInput) (models.BookingFull, error) {
	if err := s.validateInput(in); err != nil {
		return models.BookingFull{}, err
	}
	// TODO: recompute the fare against the active pricing rule instead of
	// trusting the client's estimate.
	b := newBooking(userID, in)

	var out models.BookingFull
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		if err := createWithPayment(ctx, r, &b, in.PaymentMethod); err != nil {
			return err
		}
		full, err := r.Bookings.GetFullByID(ctx, b.ID)
		out = full
		return err
	})
	if err != nil {
		return models.BookingFull{}, err
	}
	utils.LogEventCtx(ctx, "BOOKING", "create", fmt.Sprintf("booking_id=%d user_id=%d fare=%s", b.ID, userID, utils.FormatMoney(*b.Fare)))
	return out, nil
}

// CreateAdmin books a ride on behalf of any passenger, optionally with a
// driver already assigned.
func (s BookingService) CreateAdmin(ctx context.Context, in models.AdminBookingInput) (models.BookingFull, error) {
	if err := s.validateInput(in.BookingInput); err != nil {
		return models.BookingFull{}, err
	}
	b := newBooking(in.UserID, in.BookingInput)
	b.DriverID = in.DriverID

	var out models.BookingFull
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		if _, err := r.Users.GetByID(ctx, in.UserID); err != nil {
			if domain.IsNotFound(err) {
				return domain.NotFoundError{Resource: "passenger", Err: err}
			}
			return err
		}
		if in.DriverID != nil {
			if _, err := r.Drivers.GetByID(ctx, *in.DriverID); err != nil {
				return err
			}
		}
		if err := createWithPayment(ctx, r, &b, in.PaymentMethod); err != nil {
			return err
		}
		full, err := r.Bookings.GetFullByID(ctx, b.ID)
		out = full
		return err
	})
	if err != nil {
		return models.BookingFull{}, err
	}
	utils.LogEventCtx(ctx, "BOOKING", "create_admin", fmt.Sprintf("booking_id=%d user_id=%d", b.ID, in.UserID))
	return out, nil
}

// Update applies an admin partial update. Assigning a driver without an
// explicit status moves the booking to assigned.
func (s BookingService) Update(ctx context.Context, id int64, upd models.BookingUpdate) (models.BookingFull, error) {
	if upd.Fare != nil && *upd.Fare < 0 {
		return models.BookingFull{}, domain.ValidationError{Field: "fare", Msg: "must not be negative"}
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return models.BookingFull{}, domain.ValidationError{Field: "status", Msg: "unknown booking status"}
	}

	var out models.BookingFull
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		b, err := r.Bookings.LockByID(ctx, id)
		if err != nil {
			return err
		}
		next := b.Status
		if upd.DriverID != nil {
			if _, err := r.Drivers.GetByID(ctx, *upd.DriverID); err != nil {
				return err
			}
			b.DriverID = upd.DriverID
			next = models.StatusAssigned
		}
		if upd.Status != nil {
			next = *upd.Status
		}
		if upd.Fare != nil {
			fare := utils.RoundMoney(*upd.Fare)
			b.Fare = &fare
		}
		if upd.CancellationReason != nil {
			b.CancellationReason = upd.CancellationReason
		}
		logTransition(ctx, b, next)
		b.Status = next

		if err := r.Bookings.Update(ctx, b); err != nil {
			return err
		}
		full, err := r.Bookings.GetFullByID(ctx, id)
		out = full
		return err
	})
	if err != nil {
		return models.BookingFull{}, err
	}
	utils.LogEventCtx(ctx, "BOOKING", "update", fmt.Sprintf("booking_id=%d status=%s", id, out.Status))
	return out, nil
}

// Cancel lets a passenger cancel one of their own bookings. Bookings owned by
// someone else are reported as missing. The payment is left untouched.
func (s BookingService) Cancel(ctx context.Context, userID, id int64) (models.BookingFull, error) {
	var out models.BookingFull
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		b, err := r.Bookings.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return domain.NotFoundError{Resource: "booking"}
		}
		logTransition(ctx, b, models.StatusCanceled)
		if err := r.Bookings.UpdateStatus(ctx, id, models.StatusCanceled); err != nil {
			return err
		}
		full, err := r.Bookings.GetFullByID(ctx, id)
		out = full
		return err
	})
	if err != nil {
		return models.BookingFull{}, err
	}
	utils.LogEventCtx(ctx, "BOOKING", "cancel", fmt.Sprintf("booking_id=%d user_id=%d", id, userID))
	return out, nil
}

// Delete removes the payment row and then the booking.
func (s BookingService) Delete(ctx context.Context, id int64) error {
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		if _, err := r.Bookings.LockByID(ctx, id); err != nil {
			return err
		}
		if err := r.Payments.DeleteByBookingID(ctx, id); err != nil {
			return err
		}
		return r.Bookings.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	utils.LogEventCtx(ctx, "BOOKING", "delete", "booking_id="+strconv.FormatInt(id, 10))
	return nil
}

func (s BookingService) Get(ctx context.Context, id int64) (models.Booking, error) {
	return s.Store.Repos().Bookings.GetByID(ctx, id)
}

// GetFull returns the flattened projection; passengers only see their own.
func (s BookingService) GetFull(ctx context.Context, rc domain.RequestContext, id int64) (models.BookingFull, error) {
	full, err := s.Store.Repos().Bookings.GetFullByID(ctx, id)
	if err != nil {
		return models.BookingFull{}, err
	}
	if !rc.IsAdmin() && full.UserID != rc.UserID {
		return models.BookingFull{}, domain.ForbiddenError{Msg: "not authorized"}
	}
	return full, nil
}

func (s BookingService) ListMine(ctx context.Context, userID int64) ([]models.BookingFull, error) {
	return s.Store.Repos().Bookings.ListFullByUser(ctx, userID)
}

func (s BookingService) ListByDriver(ctx context.Context, driverID int64) ([]models.BookingFull, error) {
	return s.Store.Repos().Bookings.ListFullByDriver(ctx, driverID)
}

func (s BookingService) List(ctx context.Context, page domain.Page) ([]models.Booking, int, error) {
	page = page.Normalize()
	return s.Store.Repos().Bookings.List(ctx, page.Skip, page.Limit)
}

func (s BookingService) ListFull(ctx context.Context, page domain.Page) ([]models.BookingFull, int, error) {
	page = page.Normalize()
	return s.Store.Repos().Bookings.ListFull(ctx, page.Skip, page.Limit)
}

// logTransition warns about status changes outside the documented lifecycle.
// They are still applied.
func logTransition(ctx context.Context, b models.Booking, next models.BookingStatus) {
	if models.IsDocumentedTransition(b.Status, next) {
		return
	}
	utils.LogEventCtx(ctx, "BOOKING", "transition_warning",
		fmt.Sprintf("booking_id=%d undocumented transition %s -> %s", b.ID, b.Status, next))
}
