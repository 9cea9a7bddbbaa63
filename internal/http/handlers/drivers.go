package handlers

import (
	"net/http"
	"strconv"

	"taxibackend/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GET /api/drivers
func (h Handler) ListDrivers(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}
	drivers, total, err := h.Drivers.ListFull(c.Request.Context(), page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse[models.DriverFull]{Data: drivers, Count: total})
}

// GET /api/drivers/:id
func (h Handler) GetDriver(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	d, err := h.Drivers.GetFull(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// POST /api/drivers
func (h Handler) CreateDriver(c *gin.Context) {
	var req models.DriverCreate
	if !BindJSONOrError(c, &req) {
		return
	}
	d, err := h.Drivers.Create(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// PATCH /api/drivers/:id
func (h Handler) UpdateDriver(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.DriverUpdate
	if !BindJSONOrError(c, &req) {
		return
	}
	d, err := h.Drivers.Update(c.Request.Context(), id, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// DELETE /api/drivers/:id?user_delete=true
func (h Handler) DeleteDriver(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userDelete := false
	if raw := c.Query("user_delete"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", "user_delete must be a boolean", nil)
			return
		}
		userDelete = v
	}
	if err := h.Drivers.Delete(c.Request.Context(), id, userDelete); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "driver deleted successfully"})
}
