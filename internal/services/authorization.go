package services

import (
	"context"
	"time"

	"task-manager/api/internal/apperr"
	"task-manager/api/internal/models"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

type Action string

const (
	ActionReadUser             Action = "read_user"
	ActionUpdateUser           Action = "update_user"
	ActionChangeUserPrivileges Action = "change_user_privileges"
	ActionDeleteUser           Action = "delete_user"
	ActionManageTasks          Action = "manage_tasks"
	ActionViewAnalytics        Action = "view_analytics"
)

type AuthorizationRequest struct {
	Actor     *models.User
	Action    Action
	TargetID  *uuid.UUID
	RequestID string
}

type AuthorizationDecision struct {
	ActorID   uuid.UUID  `json:"actor_id"`
	Action    Action     `json:"action"`
	TargetID  *uuid.UUID `json:"target_id,omitempty"`
	Allowed   bool       `json:"allowed"`
	Reason    string     `json:"reason"`
	Timestamp time.Time  `json:"timestamp"`
}

// AccessPolicy decides what an authenticated user may do. Admins manage
// every user; other users may read anyone but only edit their own profile,
// and never their role or active flag.
type AccessPolicy struct {
	log zerolog.Logger
}

func NewAccessPolicy(log zerolog.Logger) *AccessPolicy {
	return &AccessPolicy{log: log.With().Str("component", "access_policy").Logger()}
}

func (p *AccessPolicy) Evaluate(req AuthorizationRequest) AuthorizationDecision {
	decision := AuthorizationDecision{
		Action:    req.Action,
		TargetID:  req.TargetID,
		Timestamp: time.Now().UTC(),
	}
	if req.Actor == nil {
		decision.Reason = "no authenticated user"
		return decision
	}
	decision.ActorID = req.Actor.ID
	role := req.Actor.Role
	self := req.TargetID != nil && *req.TargetID == req.Actor.ID

	switch req.Action {
	case ActionReadUser:
		decision.Allowed, decision.Reason = true, "users may view profiles"
	case ActionUpdateUser:
		switch {
		case role.Can(models.PermissionManageUsers):
			decision.Allowed, decision.Reason = true, "admin manages users"
		case self:
			decision.Allowed, decision.Reason = true, "user may update own profile"
		default:
			decision.Reason = "only admins can modify other users"
		}
	case ActionChangeUserPrivileges:
		decision.Allowed = role.Can(models.PermissionChangeRoles)
		decision.Reason = reason(decision.Allowed, "admin changes role", "only admins can change role or active")
	case ActionDeleteUser:
		decision.Allowed = role.Can(models.PermissionDeleteUsers)
		decision.Reason = reason(decision.Allowed, "admin deletes users", "only admins can delete users")
	case ActionManageTasks:
		decision.Allowed = role.Can(models.PermissionManageTasks)
		decision.Reason = reason(decision.Allowed, "role manages tasks", "role cannot manage tasks")
	case ActionViewAnalytics:
		decision.Allowed = role.Can(models.PermissionViewReports)
		decision.Reason = reason(decision.Allowed, "role views analytics", "role cannot view analytics")
	default:
		decision.Reason = "unknown action"
	}
	return decision
}

// Authorize returns a Forbidden error when the request is denied. Every
// decision is logged.
func (p *AccessPolicy) Authorize(ctx context.Context, req AuthorizationRequest) error {
	decision := p.Evaluate(req)

	event := p.log.Debug()
	if !decision.Allowed {
		event = p.log.Warn()
	}
	event = event.
		Str("actor_id", decision.ActorID.String()).
		Str("action", string(decision.Action)).
		Bool("allowed", decision.Allowed).
		Str("reason", decision.Reason)
	if decision.TargetID != nil {
		event = event.Str("target_id", decision.TargetID.String())
	}
	if req.RequestID != "" {
		event = event.Str("request_id", req.RequestID)
	}
	event.Msg("authorization decision")

	if ctx.Err() != nil {
		return apperr.Unexpected("AUTHORIZATION_CANCELLED", ctx.Err())
	}
	if !decision.Allowed {
		return apperr.New(apperr.KindForbidden, "FORBIDDEN", decision.Reason)
	}
	return nil
}

func reason(allowed bool, yes, no string) string {
	if allowed {
		return yes
	}
	return no
}
