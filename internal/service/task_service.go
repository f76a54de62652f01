package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tasktrack/internal/cache"
	apperrors "tasktrack/internal/errors"
	"tasktrack/internal/model"
	"tasktrack/internal/repository"
)

const (
	statsCacheTTL  = 30 * time.Second
	maxTitleLen    = 100
	maxDescLen     = 500
	maxCategoryLen = 50
	defaultLimit   = 10
)

// CreateTaskInput carries the fields a caller may set when creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    string
	Category    string
	DueDate     *time.Time
}

// UpdateTaskInput carries a partial update; nil fields are left untouched.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *string
	Category    *string
	DueDate     *time.Time
}

// ListTasksQuery narrows, orders and paginates a listing.
type ListTasksQuery struct {
	Completed *bool
	Priority  string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// Pagination describes the page of results relative to the full match set.
type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// TaskPage is one page of a user's tasks.
type TaskPage struct {
	Tasks      []model.Task `json:"tasks"`
	Pagination Pagination   `json:"pagination"`
}

// TaskStats summarizes a user's tasks.
type TaskStats struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	Pending      int `json:"pending"`
	HighPriority int `json:"highPriority"`
}

// TaskService exposes the owner-scoped task operations. The user id is
// always the authenticated caller's, never client-supplied.
type TaskService interface {
	List(ctx context.Context, userID uuid.UUID, query ListTasksQuery) (*TaskPage, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*model.Task, error)
	Update(ctx context.Context, userID uuid.UUID, taskID string, input UpdateTaskInput) (*model.Task, error)
	Delete(ctx context.Context, userID uuid.UUID, taskID string) error
	Stats(ctx context.Context, userID uuid.UUID) (*TaskStats, error)
}

type taskService struct {
	tasks repository.TaskRepository
	cache *cache.Client
	now   func() time.Time
}

// NewTaskService builds a TaskService with repository and cache.
func NewTaskService(tasks repository.TaskRepository, cacheClient *cache.Client) TaskService {
	return &taskService{
		tasks: tasks,
		cache: cacheClient,
		now:   time.Now,
	}
}

func (s *taskService) statsCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("task_stats:%s", userID)
}

// List returns one page of the caller's tasks. Page and limit are taken as
// given; there is no server-side maximum on limit.
func (s *taskService) List(ctx context.Context, userID uuid.UUID, query ListTasksQuery) (*TaskPage, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = defaultLimit
	}
	if query.Priority != "" && !model.ValidPriority(query.Priority) {
		return nil, apperrors.ErrInvalidPriority
	}

	tasks, total, err := s.tasks.ListByUser(ctx, userID, repository.TaskFilter{
		Completed: query.Completed,
		Priority:  query.Priority,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
		Page:      query.Page,
		Limit:     query.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	pages := int((total + int64(query.Limit) - 1) / int64(query.Limit))
	skip := (query.Page - 1) * query.Limit

	if tasks == nil {
		tasks = []model.Task{}
	}
	return &TaskPage{
		Tasks: tasks,
		Pagination: Pagination{
			Current: query.Page,
			Pages:   pages,
			Total:   total,
			HasNext: int64(skip+len(tasks)) < total,
			HasPrev: query.Page > 1,
		},
	}, nil
}

// Create validates and persists a new task owned by the caller.
func (s *taskService) Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.ErrEmptyTitle
	}
	if len(title) > maxTitleLen {
		return nil, apperrors.ErrTitleTooLong
	}

	description := strings.TrimSpace(input.Description)
	if len(description) > maxDescLen {
		return nil, apperrors.ErrDescriptionTooLong
	}

	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.ValidPriority(priority) {
		return nil, apperrors.ErrInvalidPriority
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = "general"
	}
	if len(category) > maxCategoryLen {
		category = category[:maxCategoryLen]
	}

	task := &model.Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Priority:    priority,
		Category:    category,
		DueDate:     input.DueDate,
		UserID:      userID,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	_ = s.cache.Delete(ctx, s.statsCacheKey(userID))
	return task, nil
}

// Update applies a partial update to an owned task. Only non-nil fields
// change; a completed-state change recomputes completedAt through
// SetCompleted.
func (s *taskService) Update(ctx context.Context, userID uuid.UUID, taskID string, input UpdateTaskInput) (*model.Task, error) {
	id, err := uuid.Parse(taskID)
	if err != nil {
		return nil, apperrors.ErrInvalidTaskID
	}

	task, err := s.tasks.FindByIDAndUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.ErrEmptyTitle
		}
		if len(title) > maxTitleLen {
			return nil, apperrors.ErrTitleTooLong
		}
		task.Title = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if len(description) > maxDescLen {
			return nil, apperrors.ErrDescriptionTooLong
		}
		task.Description = description
	}
	if input.Priority != nil {
		if !model.ValidPriority(*input.Priority) {
			return nil, apperrors.ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.Category != nil {
		task.Category = strings.TrimSpace(*input.Category)
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Completed != nil {
		task.SetCompleted(*input.Completed, s.now())
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	_ = s.cache.Delete(ctx, s.statsCacheKey(userID))
	return task, nil
}

// Delete permanently removes an owned task. A foreign-owned id is
// indistinguishable from a missing one.
func (s *taskService) Delete(ctx context.Context, userID uuid.UUID, taskID string) error {
	id, err := uuid.Parse(taskID)
	if err != nil {
		return apperrors.ErrInvalidTaskID
	}

	affected, err := s.tasks.DeleteByIDAndUser(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrTaskNotFound
	}

	_ = s.cache.Delete(ctx, s.statsCacheKey(userID))
	return nil
}

// Stats reduces the caller's tasks to summary counts. The result is cached
// briefly and invalidated by every mutation.
func (s *taskService) Stats(ctx context.Context, userID uuid.UUID) (*TaskStats, error) {
	key := s.statsCacheKey(userID)
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var cached TaskStats
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	tasks, err := s.tasks.AllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	stats := &TaskStats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			stats.Completed++
		} else {
			stats.Pending++
		}
		if t.Priority == model.PriorityHigh {
			stats.HighPriority++
		}
	}

	if payload, err := json.Marshal(stats); err == nil {
		_ = s.cache.Set(ctx, key, payload, statsCacheTTL)
	}
	return stats, nil
}
