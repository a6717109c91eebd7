package repositories

import (
	"context"

	"task-manager/api/internal/database"
	"task-manager/api/internal/models"

	"gorm.io/gorm"
)

type EmailLogRepository struct {
	db *gorm.DB
}

func NewEmailLogRepository(db *gorm.DB) *EmailLogRepository {
	return &EmailLogRepository{db: db}
}

func (r *EmailLogRepository) Add(ctx context.Context, entry *models.EmailLog) error {
	return translate("EMAIL_LOG_CREATE_FAILED", database.Conn(ctx, r.db).Create(entry).Error)
}

// FindByRecipient returns the log entries for recipient, newest first.
func (r *EmailLogRepository) FindByRecipient(ctx context.Context, recipient string) ([]models.EmailLog, error) {
	entries := []models.EmailLog{}
	err := database.Conn(ctx, r.db).
		Where("recipient = ?", recipient).
		Order("sent_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, translate("EMAIL_LOG_LIST_FAILED", err)
	}
	return entries, nil
}
