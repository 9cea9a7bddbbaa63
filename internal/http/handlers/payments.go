package handlers

import (
	"errors"
	"io"
	"net/http"

	"taxibackend/internal/domain/models"
	"taxibackend/internal/http/middleware"
	"taxibackend/internal/payments"
	"taxibackend/internal/utils"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

// POST /api/payments/create-checkout-session
func (h Handler) CreateCheckoutSession(c *gin.Context) {
	var req models.CheckoutRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.Checkout.Create(c.Request.Context(), identity(c).UserID, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/payments/webhook
//
// Only signature and payload failures get a 4xx; every verified event is
// acknowledged with 200 and a status in the body.
func (h Handler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", "invalid payload", nil)
		return
	}
	ev, err := h.Gateway.ParseEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		utils.LogEvent(middleware.GetRequestID(c), "WEBHOOK", "rejected", err.Error())
		if errors.Is(err, payments.ErrInvalidSignature) {
			respondError(c, http.StatusBadRequest, "invalid_signature", "invalid signature", nil)
			return
		}
		respondError(c, http.StatusBadRequest, "invalid_payload", "invalid payload", nil)
		return
	}
	c.JSON(http.StatusOK, h.Webhooks.Handle(c.Request.Context(), ev))
}

// GET /api/payments/booking/:booking_id
func (h Handler) GetBookingPayment(c *gin.Context) {
	bookingID, ok := paramID(c, "booking_id")
	if !ok {
		return
	}
	p, err := h.Payments.GetByBooking(c.Request.Context(), identity(c), bookingID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
