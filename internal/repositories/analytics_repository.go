package repositories

import (
	"context"

	"task-manager/api/internal/database"
	"task-manager/api/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// CountByStatus returns a count for every status, including zero counts.
func (r *AnalyticsRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	err := database.Conn(ctx, r.db).
		Model(&models.Task{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate("ANALYTICS_STATUS_FAILED", err)
	}

	totals := make(map[models.TaskStatus]int64, len(rows))
	for _, row := range rows {
		totals[models.TaskStatus(row.Status)] = row.Total
	}
	counts := make([]models.StatusCount, 0, len(models.TaskStatuses))
	for _, status := range models.TaskStatuses {
		counts = append(counts, models.StatusCount{Status: status, Count: totals[status]})
	}
	return counts, nil
}

// CompletedPerUser counts completed tasks by the user who completed them.
func (r *AnalyticsRepository) CompletedPerUser(ctx context.Context) ([]models.UserTaskCount, error) {
	return r.perUser(ctx, "tasks.completed_by_id", models.TaskStatusCompleted)
}

// ActivePerUser counts tasks still in CREATED state by assignee.
func (r *AnalyticsRepository) ActivePerUser(ctx context.Context) ([]models.UserTaskCount, error) {
	return r.perUser(ctx, "tasks.assigned_to_id", models.TaskStatusCreated)
}

func (r *AnalyticsRepository) perUser(ctx context.Context, column string, status models.TaskStatus) ([]models.UserTaskCount, error) {
	var rows []struct {
		UserID    uuid.UUID
		FirstName string
		LastName  string
		TaskCount int64
	}
	err := database.Conn(ctx, r.db).
		Table("tasks").
		Select("users.id AS user_id, users.first_name, users.last_name, COUNT(tasks.id) AS task_count").
		Joins("JOIN users ON users.id = "+column).
		Where("tasks.status = ?", string(status)).
		Group("users.id, users.first_name, users.last_name").
		Order("task_count DESC, users.last_name ASC, users.first_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate("ANALYTICS_PER_USER_FAILED", err)
	}

	counts := make([]models.UserTaskCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, models.UserTaskCount{
			UserID:   row.UserID,
			FullName: row.FirstName + " " + row.LastName,
			Count:    row.TaskCount,
		})
	}
	return counts, nil
}
