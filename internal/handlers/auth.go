package handlers

import (
	"context"
	"net/http"

	"task-manager/api/internal/middleware"
	"task-manager/api/internal/services"
	"task-manager/api/internal/validation"

	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

type AuthHandler struct {
	auth      Authenticator
	validator *validation.Validator
}

func NewAuthHandler(auth Authenticator, validator *validation.Validator) *AuthHandler {
	return &AuthHandler{auth: auth, validator: validator}
}

// Token exchanges credentials for a bearer token. It accepts a JSON body
// or the OAuth2 password form (username, password).
func (h *AuthHandler) Token(c *gin.Context) {
	var req validation.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, invalidBody(err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondError(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing_token", Message: "Authentication required"})
		return
	}
	c.JSON(http.StatusOK, user)
}
