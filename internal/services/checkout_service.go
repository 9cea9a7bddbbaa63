package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taxibackend/internal/domain"
	"taxibackend/internal/domain/models"
	"taxibackend/internal/payments"
	"taxibackend/internal/repositories"
	"taxibackend/internal/utils"
)

type CheckoutResult struct {
	URL       string `json:"url"`
	BookingID int64  `json:"booking_id"`
}

// CheckoutService creates a card booking and hands the passenger a hosted
// payment page. The gateway call happens after the booking transaction has
// committed.
type CheckoutService struct {
	Store   repositories.Store
	Gateway payments.Gateway
	Loc     *time.Location
	Now     func() time.Time
}

func (s CheckoutService) Create(ctx context.Context, userID int64, req models.CheckoutRequest) (CheckoutResult, error) {
	category := models.VehicleCategory(strings.ToLower(strings.TrimSpace(req.SelectedVehicle)))
	if !category.Valid() {
		return CheckoutResult{}, domain.ValidationError{Field: "selected_vehicle", Msg: "unknown vehicle category"}
	}
	if req.Price <= 0 {
		return CheckoutResult{}, domain.ValidationError{Field: "price", Msg: "must be positive"}
	}
	loc := s.Loc
	if loc == nil {
		loc = time.UTC
	}
	scheduled, err := utils.ParseScheduledTime(req.ScheduledTime, loc)
	if err != nil {
		return CheckoutResult{}, domain.ValidationError{Field: "scheduled_time", Msg: "must be an ISO-8601 date time", Err: err}
	}

	in := models.BookingInput{
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.Destination,
		ScheduledTime:   scheduled,
		VehicleCategory: category,
		PassengerCount:  req.Passengers,
		DistanceKM:      req.EstimatedDistance,
		DurationMinutes: req.EstimatedDuration,
		Fare:            req.Price,
		PaymentMethod:   models.MethodCard,
	}
	bookings := BookingService{Store: s.Store, Now: s.Now}
	if err := bookings.validateInput(in); err != nil {
		return CheckoutResult{}, err
	}

	b := newBooking(userID, in)
	err = s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		return createWithPayment(ctx, r, &b, models.MethodCard)
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	fare := utils.FormatMoney(*b.Fare)
	session, err := s.Gateway.CreateCheckoutSession(ctx, payments.CheckoutParams{
		CustomerEmail: utils.NormalizeEmail(req.Email),
		ProductName:   utils.Capitalize(string(category)) + " Taxi Ride",
		Description: fmt.Sprintf("From: %s\nTo: %s\nNumber of Passengers: %d",
			b.PickupLocation, b.DropoffLocation, b.PassengerCount),
		AmountMinor: utils.ToMinorUnits(*b.Fare),
		Metadata: map[string]string{
			"booking_id":  strconv.FormatInt(b.ID, 10),
			"name":        strings.TrimSpace(req.Name),
			"phone":       strings.TrimSpace(req.Phone),
			"pickup":      b.PickupLocation,
			"destination": b.DropoffLocation,
			"date":        scheduled.Format("2006-01-02"),
			"time":        scheduled.Format("15:04"),
			"vehicle":     string(category),
			"fare":        fare,
			"passengers":  strconv.Itoa(b.PassengerCount),
		},
	})
	if err != nil {
		utils.LogEventCtx(ctx, "CHECKOUT", "session_failed", fmt.Sprintf("booking_id=%d err=%v", b.ID, err))
		if domain.IsExternal(err) {
			return CheckoutResult{}, err
		}
		return CheckoutResult{}, domain.ExternalServiceError{Service: "payment gateway", Err: err}
	}

	utils.LogEventCtx(ctx, "CHECKOUT", "session_created", fmt.Sprintf("booking_id=%d session=%s fare=%s", b.ID, session.ID, fare))
	return CheckoutResult{URL: session.URL, BookingID: b.ID}, nil
}
