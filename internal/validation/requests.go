package validation

import (
	"strings"
	"time"

	"task-manager/api/internal/apperr"
	"task-manager/api/internal/models"

	"github.com/gofrs/uuid"
)

const maxPasswordBytes = 72

func passwordBytes(field, password string) []apperr.Violation {
	if len(password) > maxPasswordBytes {
		return []apperr.Violation{{Field: field, Message: field + " must be at most 72 bytes"}}
	}
	return nil
}

type RegisterUserRequest struct {
	FirstName string `json:"first_name" validate:"required,notblank,max=50"`
	LastName  string `json:"last_name" validate:"required,notblank,max=30"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

func (r RegisterUserRequest) Check() []apperr.Violation {
	return passwordBytes("password", r.Password)
}

// LoginRequest accepts JSON {email, password} or the OAuth2 password form
// fields {username, password}.
type LoginRequest struct {
	Email    string `json:"email" form:"username" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type UpdateUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,notblank,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,notblank,max=30"`
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=72"`
	Role      *string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
	Active    *bool   `json:"active"`
}

func (r UpdateUserRequest) Check() []apperr.Violation {
	if r.Password != nil {
		return passwordBytes("password", *r.Password)
	}
	return nil
}

// TouchesPrivileges reports whether the request changes role or active.
func (r UpdateUserRequest) TouchesPrivileges() bool {
	return r.Role != nil || r.Active != nil
}

// Patch converts the request. The password is not included; it must be
// hashed by the caller.
func (r UpdateUserRequest) Patch() models.UserPatch {
	patch := models.UserPatch{
		FirstName: trimmed(r.FirstName),
		LastName:  trimmed(r.LastName),
		Email:     r.Email,
		Active:    r.Active,
	}
	if r.Role != nil {
		role := models.Role(*r.Role)
		patch.Role = &role
	}
	return patch
}

type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"required,notblank,max=100"`
	Description *string `json:"description" validate:"omitempty,max=300"`
}

func (r CreateTaskRequest) Task() *models.Task {
	return &models.Task{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
	}
}

type UpdateTaskRequest struct {
	Title         *string                    `json:"title" validate:"omitempty,notblank,max=100"`
	Description   models.Nullable[string]    `json:"description"`
	Status        *string                    `json:"status" validate:"omitempty,oneof=CREATED IN_PROGRESS COMPLETED"`
	AssignedToID  models.Nullable[uuid.UUID] `json:"assigned_to_id"`
	CompletedByID models.Nullable[uuid.UUID] `json:"completed_by_id"`
}

func (r UpdateTaskRequest) Check() []apperr.Violation {
	if r.Description.Value != nil && len([]rune(*r.Description.Value)) > models.DescriptionMaxLen {
		return []apperr.Violation{{Field: "description", Message: "description must be at most 300 characters"}}
	}
	return nil
}

func (r UpdateTaskRequest) Patch() models.TaskPatch {
	patch := models.TaskPatch{
		Title:         trimmed(r.Title),
		Description:   r.Description,
		AssignedToID:  r.AssignedToID,
		CompletedByID: r.CompletedByID,
	}
	if r.Status != nil {
		status := models.TaskStatus(*r.Status)
		patch.Status = &status
	}
	return patch
}

type CreateEventRequest struct {
	Summary     string    `json:"summary" validate:"required,notblank,max=200"`
	Location    string    `json:"location" validate:"max=200"`
	Description string    `json:"description" validate:"max=1000"`
	Start       time.Time `json:"start" validate:"required"`
	End         time.Time `json:"end" validate:"required,gtfield=Start"`
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
