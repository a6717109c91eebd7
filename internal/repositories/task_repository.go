package repositories

import (
	"context"
	"errors"

	"task-manager/api/internal/database"
	"task-manager/api/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Add(ctx context.Context, task *models.Task) error {
	return translate("TASK_CREATE_FAILED", database.Conn(ctx, r.db).Create(task).Error)
}

// FindByID returns nil, nil when the task does not exist.
func (r *TaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("TASK_LOOKUP_FAILED", err)
	}
	return &task, nil
}

func (r *TaskRepository) FindAll(ctx context.Context) ([]models.Task, error) {
	tasks := []models.Task{}
	err := database.Conn(ctx, r.db).Order("created_at ASC, id ASC").Find(&tasks).Error
	if err != nil {
		return nil, translate("TASK_LIST_FAILED", err)
	}
	return tasks, nil
}

// Update applies the fields present in patch; explicit nulls clear the
// column. It returns nil, nil when the task does not exist.
func (r *TaskRepository) Update(ctx context.Context, id uuid.UUID, patch models.TaskPatch) (*models.Task, error) {
	task, err := r.FindByID(ctx, id)
	if err != nil || task == nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return task, nil
	}

	if err := database.Conn(ctx, r.db).Model(task).Updates(patch.Columns()).Error; err != nil {
		return nil, translate("TASK_UPDATE_FAILED", err)
	}
	return r.FindByID(ctx, id)
}

func (r *TaskRepository) Remove(ctx context.Context, id uuid.UUID) (bool, error) {
	result := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return false, translate("TASK_DELETE_FAILED", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// IDsReferencingUser returns the tasks assigned to or completed by userID.
func (r *TaskRepository) IDsReferencingUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := database.Conn(ctx, r.db).
		Model(&models.Task{}).
		Where("assigned_to_id = ? OR completed_by_id = ?", userID, userID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, translate("TASK_LOOKUP_FAILED", err)
	}
	return ids, nil
}
