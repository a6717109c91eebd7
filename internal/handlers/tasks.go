package handlers

import (
	"context"
	"fmt"
	"net/http"

	"task-manager/api/internal/models"
	"task-manager/api/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

// TaskStore is implemented by *services.TaskService and
// *services.CachedTaskService.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListAll(ctx context.Context) ([]models.Task, error)
	Update(ctx context.Context, id uuid.UUID, patch models.TaskPatch) (*models.Task, error)
	Assign(ctx context.Context, taskID, userID uuid.UUID) (*models.Task, error)
	Complete(ctx context.Context, taskID, userID uuid.UUID) (*models.Task, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// TaskNotifier is told about lifecycle events after they are committed.
type TaskNotifier interface {
	TaskAssigned(ctx context.Context, task *models.Task)
	TaskCompleted(ctx context.Context, task *models.Task)
}

type TaskHandler struct {
	tasks     TaskStore
	notifier  TaskNotifier
	validator *validation.Validator
}

// NewTaskHandler accepts a nil notifier.
func NewTaskHandler(tasks TaskStore, notifier TaskNotifier, validator *validation.Validator) *TaskHandler {
	return &TaskHandler{tasks: tasks, notifier: notifier, validator: validator}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req validation.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, invalidBody(err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondError(c, err)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), req.Task())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	tasks, err := h.tasks.ListAll(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id, err := uuidParam(c, "id", false)
	if err != nil {
		RespondError(c, err)
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	if task == nil {
		notFound(c, "task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask applies a partial update. Fields sent as null are cleared;
// absent fields are kept.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, err := uuidParam(c, "id", false)
	if err != nil {
		RespondError(c, err)
		return
	}

	var req validation.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, invalidBody(err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondError(c, err)
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), id, req.Patch())
	if err != nil {
		RespondError(c, err)
		return
	}
	if task == nil {
		notFound(c, "task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) AssignTask(c *gin.Context) {
	taskID, userID, ok := h.taskAndUser(c)
	if !ok {
		return
	}

	task, err := h.tasks.Assign(c.Request.Context(), taskID, userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	if task == nil {
		notFound(c, "task")
		return
	}
	if h.notifier != nil {
		h.notifier.TaskAssigned(c.Request.Context(), task)
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) CompleteTask(c *gin.Context) {
	taskID, userID, ok := h.taskAndUser(c)
	if !ok {
		return
	}

	task, err := h.tasks.Complete(c.Request.Context(), taskID, userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	if task == nil {
		notFound(c, "task")
		return
	}
	if h.notifier != nil {
		h.notifier.TaskCompleted(c.Request.Context(), task)
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, err := uuidParam(c, "id", false)
	if err != nil {
		RespondError(c, err)
		return
	}

	deleted, err := h.tasks.Delete(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	if !deleted {
		notFound(c, "task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": fmt.Sprintf("task %s deleted", id)})
}

func (h *TaskHandler) taskAndUser(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	taskID, err := uuidParam(c, "id", false)
	if err != nil {
		RespondError(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := uuidParam(c, "user_id", true)
	if err != nil {
		RespondError(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	return taskID, userID, true
}
