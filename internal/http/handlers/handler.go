package handlers

import (
	"context"

	"taxibackend/internal/maps"
	"taxibackend/internal/payments"
	"taxibackend/internal/services"
)

// Handler carries the services every route delegates to.
type Handler struct {
	Users      services.UserService
	Drivers    services.DriverService
	Vehicles   services.VehicleService
	Pricing    services.PricingService
	Bookings   services.BookingService
	Payments   services.PaymentService
	Checkout   services.CheckoutService
	Webhooks   services.WebhookService
	Receipts   services.ReceiptService
	Gateway    payments.Gateway
	Directions maps.Directions
	// Ping checks the database for /api/health; nil skips the check.
	Ping func(ctx context.Context) error
}
