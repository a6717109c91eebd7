package repositories

import (
	"context"
	"errors"

	"task-manager/api/internal/apperr"
	"task-manager/api/internal/database"
	"task-manager/api/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Add(ctx context.Context, user *models.User) error {
	err := database.Conn(ctx, r.db).Create(user).Error
	if err != nil && isUniqueViolation(err) {
		return apperr.Wrap(apperr.KindIntegrityViolation, "USER_EMAIL_TAKEN", err)
	}
	return translate("USER_CREATE_FAILED", err)
}

// FindByID returns nil, nil when the user does not exist.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("USER_LOOKUP_FAILED", err)
	}
	return &user, nil
}

// FindByEmail expects an already normalized address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := database.Conn(ctx, r.db).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("USER_LOOKUP_FAILED", err)
	}
	return &user, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := database.Conn(ctx, r.db).Order("created_at ASC, id ASC").Find(&users).Error
	if err != nil {
		return nil, translate("USER_LIST_FAILED", err)
	}
	return users, nil
}

// Update applies the fields present in patch and returns the stored row.
// It returns nil, nil when the user does not exist.
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, patch models.UserPatch) (*models.User, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil || user == nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return user, nil
	}

	err = database.Conn(ctx, r.db).Model(user).Updates(patch.Columns()).Error
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.KindIntegrityViolation, "USER_EMAIL_TAKEN", err)
		}
		return nil, translate("USER_UPDATE_FAILED", err)
	}
	return r.FindByID(ctx, id)
}

// Remove reports whether a row was deleted.
func (r *UserRepository) Remove(ctx context.Context, id uuid.UUID) (bool, error) {
	result := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return false, translate("USER_DELETE_FAILED", result.Error)
	}
	return result.RowsAffected > 0, nil
}
