package services

import (
	"context"
	"strings"

	"task-manager/api/internal/models"
)

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         models.RoleUser,
		Active:       true,
	}
	if err := s.users.Add(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, nil
}
