package handlers

import (
	"net/http"

	"taxibackend/internal/domain/models"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func (h Handler) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/users/signup
func (h Handler) Signup(c *gin.Context) {
	var req models.UserCreate
	if !BindJSONOrError(c, &req) {
		return
	}
	u, err := h.Users.Signup(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// GET /api/users/me
func (h Handler) Me(c *gin.Context) {
	u, err := h.Users.Me(c.Request.Context(), identity(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
