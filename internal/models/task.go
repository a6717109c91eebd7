package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const (
	TitleMaxLen       = 100
	DescriptionMaxLen = 300
)

type TaskStatus string

const (
	TaskStatusCreated    TaskStatus = "CREATED"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

var TaskStatuses = []TaskStatus{TaskStatusCreated, TaskStatusInProgress, TaskStatusCompleted}

func (s TaskStatus) Valid() bool {
	for _, status := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Task references users weakly: deleting a user nulls AssignedToID and
// CompletedByID instead of removing the task.
type Task struct {
	ID            uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	Title         string     `json:"title" gorm:"size:100;not null"`
	Description   *string    `json:"description" gorm:"size:300"`
	Status        TaskStatus `json:"status" gorm:"type:varchar(16);not null;default:CREATED;index"`
	AssignedToID  *uuid.UUID `json:"assigned_to_id" gorm:"type:uuid;index"`
	CompletedByID *uuid.UUID `json:"completed_by_id" gorm:"type:uuid;index"`
	CreatedAt     time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"not null"`

	AssignedTo  *User `json:"-" gorm:"foreignKey:AssignedToID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	CompletedBy *User `json:"-" gorm:"foreignKey:CompletedByID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		t.ID = id
	}
	if t.Status == "" {
		t.Status = TaskStatusCreated
	}
	return nil
}

// TaskPatch is a partial update. Title and Status are not nullable, so a
// nil pointer means "leave as is"; the nullable columns use Nullable so a
// client can clear them explicitly.
type TaskPatch struct {
	Title         *string
	Description   Nullable[string]
	Status        *TaskStatus
	AssignedToID  Nullable[uuid.UUID]
	CompletedByID Nullable[uuid.UUID]
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && !p.Description.Set && p.Status == nil &&
		!p.AssignedToID.Set && !p.CompletedByID.Set
}

// Columns returns the column/value pairs present in the patch; explicit
// nulls are included as nil.
func (p TaskPatch) Columns() map[string]any {
	cols := map[string]any{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description.Set {
		cols["description"] = p.Description.Ptr()
	}
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	if p.AssignedToID.Set {
		cols["assigned_to_id"] = p.AssignedToID.Ptr()
	}
	if p.CompletedByID.Set {
		cols["completed_by_id"] = p.CompletedByID.Ptr()
	}
	return cols
}
