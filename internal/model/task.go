package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Priority levels a task can carry.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidPriority reports whether p is one of the known priority levels.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a short text item owned by exactly one user.
type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Title       string     `json:"title" gorm:"size:100;not null"`
	Description string     `json:"description" gorm:"size:500;default:''"`
	Completed   bool       `json:"completed" gorm:"default:false;index:idx_tasks_user_completed,priority:2"`
	Priority    string     `json:"priority" gorm:"size:10;default:'medium';index:idx_tasks_user_priority,priority:2"`
	Category    string     `json:"category" gorm:"size:50;default:'general'"`
	DueDate     *time.Time `json:"dueDate" gorm:"index:idx_tasks_user_due,priority:2"`
	CompletedAt *time.Time `json:"completedAt"`
	UserID      uuid.UUID  `json:"userId" gorm:"type:char(36);not null;index:idx_tasks_user_completed,priority:1;index:idx_tasks_user_priority,priority:1;index:idx_tasks_user_due,priority:1;index:idx_tasks_user_created,priority:1"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"index:idx_tasks_user_created,priority:2,sort:desc"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// SetCompleted applies the completion invariant: completedAt is non-nil
// exactly when the task is completed. It is called by every mutation path
// that can change the completed flag.
func (t *Task) SetCompleted(completed bool, now time.Time) {
	if completed && !t.Completed {
		t.CompletedAt = &now
	}
	if !completed {
		t.CompletedAt = nil
	}
	t.Completed = completed
}

// IsOverdue reports whether the task has a due date in the past and is not
// yet completed.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	return now.After(*t.DueDate)
}

// MarshalJSON includes the derived isOverdue attribute in the serialized form.
func (t Task) MarshalJSON() ([]byte, error) {
	type alias Task
	return json.Marshal(struct {
		alias
		IsOverdue bool `json:"isOverdue"`
	}{
		alias:     alias(t),
		IsOverdue: t.IsOverdue(time.Now()),
	})
}
