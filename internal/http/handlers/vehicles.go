package handlers

import (
	"net/http"

	"taxibackend/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// vehicleCreateRequest defaults is_active to true when omitted.
type vehicleCreateRequest struct {
	models.Vehicle
	IsActive *bool `json:"is_active"`
}

// GET /api/vehicles
func (h Handler) ListVehicles(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}
	vehicles, total, err := h.Vehicles.List(c.Request.Context(), page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse[models.Vehicle]{Data: vehicles, Count: total})
}

// GET /api/vehicles/company
func (h Handler) ListCompanyVehicles(c *gin.Context) {
	vehicles, err := h.Vehicles.ListCompanyOwned(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

// GET /api/vehicles/driver/:driver_id
func (h Handler) ListDriverVehicles(c *gin.Context) {
	driverID, ok := paramID(c, "driver_id")
	if !ok {
		return
	}
	vehicles, err := h.Vehicles.ListByDriver(c.Request.Context(), driverID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

// GET /api/vehicles/:id
func (h Handler) GetVehicle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	v, err := h.Vehicles.Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// POST /api/vehicles
func (h Handler) CreateVehicle(c *gin.Context) {
	var req vehicleCreateRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	in := req.Vehicle
	in.ID = 0
	in.IsActive = req.IsActive == nil || *req.IsActive
	v, err := h.Vehicles.Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// PATCH /api/vehicles/:id
func (h Handler) UpdateVehicle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.VehicleUpdate
	if !BindJSONOrError(c, &req) {
		return
	}
	v, err := h.Vehicles.Update(c.Request.Context(), id, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// DELETE /api/vehicles/:id
func (h Handler) DeleteVehicle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Vehicles.Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "vehicle deleted successfully"})
}
