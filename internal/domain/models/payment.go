package models

import "time"

type PaymentMethod string

const (
	MethodCard PaymentMethod = "card"
	MethodCash PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCard || m == MethodCash
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentCanceled PaymentStatus = "canceled"
	PaymentExpired  PaymentStatus = "expired"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded, PaymentCanceled, PaymentExpired:
		return true
	}
	return false
}

// Payment is tied 1:1 to a booking. TransactionID is the gateway's
// payment intent id and doubles as the webhook idempotency key.
type Payment struct {
	ID            int64         `json:"id"`
	BookingID     int64         `json:"booking_id"`
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	Amount        float64       `json:"amount"`
	TransactionID *string       `json:"transaction_id"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CheckoutRequest is the hosted-checkout payload sent by the booking form.
type CheckoutRequest struct {
	Name              string  `json:"name" binding:"required"`
	Email             string  `json:"email" binding:"required,email"`
	Phone             string  `json:"phone"`
	Price             float64 `json:"price" binding:"required,gt=0"`
	SelectedVehicle   string  `json:"selected_vehicle" binding:"required"`
	Passengers        int     `json:"passengers" binding:"required"`
	PickupLocation    string  `json:"pickup_location" binding:"required"`
	Destination       string  `json:"destination" binding:"required"`
	ScheduledTime     string  `json:"scheduled_time" binding:"required"`
	EstimatedDistance float64 `json:"estimatedDistance"`
	EstimatedDuration int     `json:"estimatedDuration"`
}
