package services

import (
	"context"

	"task-manager/api/internal/apperr"
	"task-manager/api/internal/models"
	"task-manager/api/internal/repositories"
	"task-manager/api/internal/security"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

// TaskReferences is told about tasks whose user references the database
// nulls when a user is deleted. *CachedTaskService implements it.
type TaskReferences interface {
	ReferencingUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	InvalidateTasks(ctx context.Context, ids []uuid.UUID)
}

type UserService struct {
	users    *repositories.UserRepository
	hasher   *security.Hasher
	taskRefs TaskReferences
	log      zerolog.Logger
}

func NewUserService(users *repositories.UserRepository, hasher *security.Hasher, log zerolog.Logger) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		log:    log.With().Str("service", "users").Logger(),
	}
}

// Authenticate fails with Unauthorized for an unknown email, a wrong
// password or an inactive account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.VerifyAbsent(password)
		return nil, apperr.New(apperr.KindUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperr.New(apperr.KindUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
	}
	if !user.Active {
		return nil, apperr.New(apperr.KindUnauthorized, "USER_INACTIVE", "account is inactive")
	}
	return user, nil
}

// GetByID returns nil, nil when the user does not exist.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.users.FindByEmail(ctx, NormalizeEmail(email))
}

func (s *UserService) ListAll(ctx context.Context) ([]models.User, error) {
	return s.users.FindAll(ctx)
}

// Update applies patch, hashing password when given. It returns nil, nil
// when the user does not exist.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, patch models.UserPatch, password *string) (*models.User, error) {
	if password != nil {
		hash, err := s.hasher.Hash(*password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}
	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		patch.Email = &email
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, apperr.Invalid(apperr.Violation{Field: "role", Message: "role must be one of: USER ADMIN"})
	}
	return s.users.Update(ctx, id, patch)
}

// TrackTaskReferences makes Delete invalidate the tasks that pointed at
// the removed user.
func (s *UserService) TrackTaskReferences(refs TaskReferences) {
	s.taskRefs = refs
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var referencing []uuid.UUID
	if s.taskRefs != nil {
		ids, err := s.taskRefs.ReferencingUser(ctx, id)
		if err != nil {
			return false, err
		}
		referencing = ids
	}

	deleted, err := s.users.Remove(ctx, id)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}
	if len(referencing) > 0 {
		s.taskRefs.InvalidateTasks(ctx, referencing)
	}
	s.log.Info().Str("user_id", id.String()).Int("tasks_detached", len(referencing)).Msg("user deleted")
	return true, nil
}
