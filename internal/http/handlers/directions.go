package handlers

import (
	"errors"
	"net/http"
	"strings"

	"taxibackend/internal/maps"

	"github.com/gin-gonic/gin"
)

// GET /api/directions?origin=...&destination=...
func (h Handler) GetDirections(c *gin.Context) {
	origin := strings.TrimSpace(c.Query("origin"))
	destination := strings.TrimSpace(c.Query("destination"))
	if origin == "" || destination == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "origin and destination are required", nil)
		return
	}
	route, err := h.Directions.Route(c.Request.Context(), origin, destination)
	if err != nil {
		if errors.Is(err, maps.ErrNoRoute) {
			respondError(c, http.StatusNotFound, "not_found", "no route found", nil)
			return
		}
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}
