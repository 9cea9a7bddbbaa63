package handlers

import (
	"net/http"
	"strings"

	"taxibackend/internal/domain/models"

	"github.com/gin-gonic/gin"
)

func categoryParam(c *gin.Context) models.VehicleCategory {
	return models.VehicleCategory(strings.ToLower(strings.TrimSpace(c.Param("category"))))
}

// GET /api/pricing
func (h Handler) ListPricing(c *gin.Context) {
	rules, err := h.Pricing.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// GET /api/pricing/:category
func (h Handler) GetPricing(c *gin.Context) {
	rule, err := h.Pricing.GetActive(c.Request.Context(), categoryParam(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// POST /api/pricing
func (h Handler) CreatePricing(c *gin.Context) {
	var req models.PricingRule
	if !BindJSONOrError(c, &req) {
		return
	}
	req.ID = 0
	rule, err := h.Pricing.Create(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// PATCH /api/pricing/:category
func (h Handler) UpdatePricing(c *gin.Context) {
	var req models.PricingRuleUpdate
	if !BindJSONOrError(c, &req) {
		return
	}
	rule, err := h.Pricing.UpdateActive(c.Request.Context(), categoryParam(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// DELETE /api/pricing/:category
func (h Handler) DeletePricing(c *gin.Context) {
	if err := h.Pricing.DeleteActive(c.Request.Context(), categoryParam(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "pricing rule deleted successfully"})
}

// POST /api/bookings/estimate
func (h Handler) EstimateFares(c *gin.Context) {
	var req models.EstimateRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	out, err := h.Pricing.EstimateAll(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
