package handlers

import (
	"context"
	"net/http"

	"task-manager/api/internal/middleware"
	"task-manager/api/internal/models"
	"task-manager/api/internal/services"
	"task-manager/api/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

// UserStore is the user operations the HTTP layer needs; *services.UserService
// implements it.
type UserStore interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id uuid.UUID, patch models.UserPatch, password *string) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type UserHandler struct {
	users     UserStore
	policy    *services.AccessPolicy
	validator *validation.Validator
}

func NewUserHandler(users UserStore, policy *services.AccessPolicy, validator *validation.Validator) *UserHandler {
	return &UserHandler{users: users, policy: policy, validator: validator}
}

func (h *UserHandler) authorize(c *gin.Context, action services.Action, target *uuid.UUID) bool {
	actor, _ := middleware.UserFrom(c)
	err := h.policy.Authorize(c.Request.Context(), services.AuthorizationRequest{
		Actor:     actor,
		Action:    action,
		TargetID:  target,
		RequestID: middleware.RequestIDFrom(c),
	})
	if err != nil {
		RespondError(c, err)
		return false
	}
	return true
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	if !h.authorize(c, services.ActionReadUser, nil) {
		return
	}
	users, err := h.users.ListAll(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuidParam(c, "id", false)
	if err != nil {
		RespondError(c, err)
		return
	}
	if !h.authorize(c, services.ActionReadUser, &id) {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	if user == nil {
		notFound(c, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser lets users edit their own profile and admins edit anyone.
// Changing role or active always requires an admin.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := uuidParam(c, "id", false)
	if err != nil {
		RespondError(c, err)
		return
	}

	var req validation.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, invalidBody(err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondError(c, err)
		return
	}

	if !h.authorize(c, services.ActionUpdateUser, &id) {
		return
	}
	if req.TouchesPrivileges() && !h.authorize(c, services.ActionChangeUserPrivileges, &id) {
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, req.Patch(), req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	if user == nil {
		notFound(c, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := uuidParam(c, "id", false)
	if err != nil {
		RespondError(c, err)
		return
	}
	if !h.authorize(c, services.ActionDeleteUser, &id) {
		return
	}

	deleted, err := h.users.Delete(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	if !deleted {
		notFound(c, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
