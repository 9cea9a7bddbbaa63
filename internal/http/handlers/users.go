package handlers

import (
	"net/http"

	"taxibackend/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GET /api/users
func (h Handler) ListUsers(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}
	users, total, err := h.Users.List(c.Request.Context(), page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse[models.User]{Data: users, Count: total})
}

// GET /api/users/:id
func (h Handler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := h.Users.Get(c.Request.Context(), identity(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// POST /api/users
func (h Handler) CreateUser(c *gin.Context) {
	var req models.UserCreate
	if !BindJSONOrError(c, &req) {
		return
	}
	u, err := h.Users.Create(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// PATCH /api/users/:id
func (h Handler) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.UserUpdate
	if !BindJSONOrError(c, &req) {
		return
	}
	u, err := h.Users.Update(c.Request.Context(), id, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DELETE /api/users/:id
func (h Handler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Users.Delete(c.Request.Context(), identity(c), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted successfully"})
}
