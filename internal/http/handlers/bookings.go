package handlers

import (
	"net/http"

	"taxibackend/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GET /api/bookings
func (h Handler) ListBookings(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}
	items, total, err := h.Bookings.List(c.Request.Context(), page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse[models.Booking]{Data: items, Count: total})
}

// GET /api/bookings/complete
func (h Handler) ListBookingsFull(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}
	items, total, err := h.Bookings.ListFull(c.Request.Context(), page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse[models.BookingFull]{Data: items, Count: total})
}

// GET /api/bookings/me
func (h Handler) ListMyBookings(c *gin.Context) {
	items, err := h.Bookings.ListMine(c.Request.Context(), identity(c).UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// POST /api/bookings/me
func (h Handler) CreateMyBooking(c *gin.Context) {
	var req models.BookingInput
	if !BindJSONOrError(c, &req) {
		return
	}
	b, err := h.Bookings.CreateForPassenger(c.Request.Context(), identity(c).UserID, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GET /api/bookings/by-driver/:driver_id
func (h Handler) ListDriverBookings(c *gin.Context) {
	driverID, ok := paramID(c, "driver_id")
	if !ok {
		return
	}
	items, err := h.Bookings.ListByDriver(c.Request.Context(), driverID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /api/bookings/:id
func (h Handler) GetBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := h.Bookings.Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GET /api/bookings/:id/complete
func (h Handler) GetBookingFull(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := h.Bookings.GetFull(c.Request.Context(), identity(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// POST /api/bookings
func (h Handler) CreateBookingAdmin(c *gin.Context) {
	var req models.AdminBookingInput
	if !BindJSONOrError(c, &req) {
		return
	}
	b, err := h.Bookings.CreateAdmin(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// PATCH /api/bookings/:id
func (h Handler) UpdateBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.BookingUpdate
	if !BindJSONOrError(c, &req) {
		return
	}
	b, err := h.Bookings.Update(c.Request.Context(), id, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// POST /api/bookings/:id/cancel
func (h Handler) CancelBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := h.Bookings.Cancel(c.Request.Context(), identity(c).UserID, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DELETE /api/bookings/:id
func (h Handler) DeleteBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Bookings.Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking deleted successfully"})
}

// GET /api/bookings/:id/receipt
func (h Handler) BookingReceipt(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	pdf, filename, err := h.Receipts.Generate(c.Request.Context(), identity(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
