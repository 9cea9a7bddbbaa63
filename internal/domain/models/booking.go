package models

import "time"

type VehicleCategory string

const (
	CategoryEconomy  VehicleCategory = "economy"
	CategoryStandard VehicleCategory = "standard"
	CategoryPremium  VehicleCategory = "premium"
)

func (c VehicleCategory) Valid() bool {
	switch c {
	case CategoryEconomy, CategoryStandard, CategoryPremium:
		return true
	}
	return false
}

// Booking is a requested ride owned by one passenger.
type Booking struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"user_id"`
	DriverID           *int64          `json:"driver_id"`
	PickupLocation     string          `json:"pickup_location"`
	DropoffLocation    string          `json:"dropoff_location"`
	ScheduledTime      time.Time       `json:"scheduled_time"`
	VehicleCategory    VehicleCategory `json:"vehicle_category"`
	Fare               *float64        `json:"fare"`
	PassengerCount     int             `json:"passenger_count"`
	Status             BookingStatus   `json:"status"`
	DistanceKM         *float64        `json:"distance_km"`
	DurationMinutes    *int            `json:"duration_minutes"`
	CancellationReason *string         `json:"cancellation_reason"`
	Rating             *int            `json:"rating"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// BookingFull is the flattened admin/passenger projection: the booking plus
// passenger, driver and payment fields resolved by an explicit join.
type BookingFull struct {
	Booking
	UserEmail           string         `json:"user_email"`
	UserFullName        *string        `json:"user_full_name"`
	DriverLicenseNumber *string        `json:"driver_license_number"`
	PaymentStatus       *PaymentStatus `json:"payment_status"`
	PaymentMethod       *PaymentMethod `json:"payment_method"`
}

// BookingInput is the self-service create payload. Fare, distance and
// duration come from the client's earlier estimate.
type BookingInput struct {
	PickupLocation  string          `json:"pickup_location" binding:"required"`
	DropoffLocation string          `json:"dropoff_location" binding:"required"`
	ScheduledTime   time.Time       `json:"scheduled_time" binding:"required"`
	VehicleCategory VehicleCategory `json:"vehicle_category" binding:"required"`
	PassengerCount  int             `json:"passenger_count"`
	DistanceKM      float64         `json:"distance_km"`
	DurationMinutes int             `json:"duration_minutes"`
	Fare            float64         `json:"fare"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
}

// AdminBookingInput creates a booking on behalf of any passenger.
type AdminBookingInput struct {
	BookingInput
	UserID   int64  `json:"user_id" binding:"required"`
	DriverID *int64 `json:"driver_id"`
}

// BookingUpdate supports PATCH-style updates via pointer presence.
type BookingUpdate struct {
	DriverID           *int64         `json:"driver_id"`
	Fare               *float64       `json:"fare"`
	Status             *BookingStatus `json:"status"`
	CancellationReason *string        `json:"cancellation_reason"`
}

type EstimateRequest struct {
	DistanceKM      float64   `json:"distance_km"`
	DurationMinutes int       `json:"duration_minutes"`
	ScheduledTime   time.Time `json:"scheduled_time" binding:"required"`
	PassengerCount  int       `json:"passenger_count"`
	IsAirport       bool      `json:"is_airport"`
	IsHoliday       bool      `json:"is_holiday"`
}

type Estimate struct {
	Category      VehicleCategory `json:"category"`
	EstimatedFare float64         `json:"estimated_fare"`
}
