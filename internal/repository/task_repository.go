package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tasktrack/internal/model"
)

// TaskFilter narrows and orders a task listing. Nil pointers mean the filter
// is not applied. Page is 1-based.
type TaskFilter struct {
	Completed *bool
	Priority  string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// sortColumns whitelists sortable fields; the JSON names clients send map to
// real columns so nothing user-controlled reaches the ORDER BY clause.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"dueDate":     "due_date",
	"completedAt": "completed_at",
	"title":       "title",
	"priority":    "priority",
}

// TaskRepository defines task persistence operations. Every lookup that
// takes a userID is owner-scoped: rows belonging to other users are invisible.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*model.Task, error)
	DeleteByIDAndUser(ctx context.Context, id, userID uuid.UUID) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]model.Task, int64, error)
	AllByUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// Create creates a new task.
func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// Update persists the full task row. Save writes zero values too, which the
// partial-update flow relies on (clearing completedAt, emptying description).
func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

// FindByIDAndUser finds a task by id, scoped to its owner.
func (r *taskRepository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteByIDAndUser removes a task by id, scoped to its owner, and reports
// how many rows were affected.
func (r *taskRepository) DeleteByIDAndUser(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Task{})
	return res.RowsAffected, res.Error
}

// ListByUser returns one page of the user's tasks plus the total count of
// rows matching the filter.
func (r *taskRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]model.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Task{}).Where("user_id = ?", userID)

	if filter.Completed != nil {
		query = query.Where("completed = ?", *filter.Completed)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.SortOrder == "asc" {
		direction = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	var tasks []model.Task
	if err := query.
		Order(column + " " + direction).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// AllByUser returns every task owned by the user, for read-and-reduce
// statistics.
func (r *taskRepository) AllByUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}
