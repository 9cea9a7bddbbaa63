package handlers

import (
	"net/http"
	"strconv"

	"taxibackend/internal/domain"
	"taxibackend/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "empty body", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid payload", err.Error())
		return false
	}
	return true
}

// paramID parses a positive integer path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid "+name, nil)
		return 0, false
	}
	return id, true
}

func bindPage(c *gin.Context) (domain.Page, bool) {
	var p domain.Page
	if err := c.ShouldBindQuery(&p); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "skip and limit must be integers", nil)
		return domain.Page{}, false
	}
	return p.Normalize(), true
}

func identity(c *gin.Context) domain.RequestContext {
	return middleware.Identity(c)
}

type listResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}
