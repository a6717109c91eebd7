package handlers

import (
	"net/http"

	"task-manager/api/internal/services"
	"task-manager/api/internal/validation"

	"github.com/gin-gonic/gin"
)

type RegisterHandler struct {
	users     UserStore
	validator *validation.Validator
}

func NewRegisterHandler(users UserStore, validator *validation.Validator) *RegisterHandler {
	return &RegisterHandler{users: users, validator: validator}
}

// Registration creates a USER account. A duplicate email is a 409.
func (h *RegisterHandler) Registration(c *gin.Context) {
	var req validation.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, invalidBody(err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}
