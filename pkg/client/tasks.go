package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"tasktrack/internal/model"
	"tasktrack/internal/service"
)

type taskPageResponse struct {
	Tasks      []model.Task       `json:"tasks"`
	Pagination service.Pagination `json:"pagination"`
}

type taskResponse struct {
	Message string     `json:"message"`
	Task    model.Task `json:"task"`
}

// ListOptions narrows and orders a fetch; zero values are omitted.
type ListOptions struct {
	Page      int
	Limit     int
	Completed *bool
	Priority  string
	SortBy    string
	SortOrder string
}

func (o ListOptions) encode() string {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Completed != nil {
		q.Set("completed", strconv.FormatBool(*o.Completed))
	}
	if o.Priority != "" {
		q.Set("priority", o.Priority)
	}
	if o.SortBy != "" {
		q.Set("sortBy", o.SortBy)
	}
	if o.SortOrder != "" {
		q.Set("sortOrder", o.SortOrder)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// CreateTask carries the fields for a new task.
type CreateTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Category    string     `json:"category,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// UpdateTask carries a partial update; nil fields are not sent.
type UpdateTask struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Category    *string    `json:"category,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// TaskList holds the ordered task sequence synchronized with the server.
// The held order is the server's order; nothing is re-sorted locally, and
// state only changes after the server confirms an operation.
type TaskList struct {
	c       *Client
	session *Session

	mu         sync.Mutex
	tasks      []model.Task
	pagination service.Pagination
	loading    bool
	err        string
}

// NewTaskList creates a task list bound to the session's credentials.
func NewTaskList(c *Client, session *Session) *TaskList {
	return &TaskList{c: c, session: session}
}

// Fetch replaces the entire held sequence with the server's response.
func (l *TaskList) Fetch(ctx context.Context, opts ListOptions) bool {
	l.begin()

	var res taskPageResponse
	err := l.c.do(ctx, http.MethodGet, "/tasks"+opts.encode(), l.session.Token(), nil, &res)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	if err != nil {
		l.err = err.Error()
		return false
	}
	l.tasks = res.Tasks
	l.pagination = res.Pagination
	return true
}

// Create asks the server for a new task and prepends the confirmed result.
// No refetch is triggered.
func (l *TaskList) Create(ctx context.Context, input CreateTask) bool {
	l.begin()

	var res taskResponse
	err := l.c.do(ctx, http.MethodPost, "/tasks", l.session.Token(), input, &res)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	if err != nil {
		l.err = err.Error()
		return false
	}
	l.tasks = append([]model.Task{res.Task}, l.tasks...)
	return true
}

// Update patches a task and replaces the matching entry in place,
// preserving its position.
func (l *TaskList) Update(ctx context.Context, id string, input UpdateTask) bool {
	l.begin()

	var res taskResponse
	err := l.c.do(ctx, http.MethodPatch, "/tasks/"+id, l.session.Token(), input, &res)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	if err != nil {
		l.err = err.Error()
		return false
	}
	for i := range l.tasks {
		if l.tasks[i].ID == res.Task.ID {
			l.tasks[i] = res.Task
			break
		}
	}
	return true
}

// Delete removes a task on the server, then drops the matching entry.
func (l *TaskList) Delete(ctx context.Context, id string) bool {
	l.begin()

	err := l.c.do(ctx, http.MethodDelete, "/tasks/"+id, l.session.Token(), nil, nil)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	if err != nil {
		l.err = err.Error()
		return false
	}
	kept := l.tasks[:0]
	for _, t := range l.tasks {
		if t.ID.String() != id {
			kept = append(kept, t)
		}
	}
	l.tasks = kept
	return true
}

func (l *TaskList) begin() {
	l.mu.Lock()
	l.loading = true
	l.err = ""
	l.mu.Unlock()
}

// Tasks returns a copy of the held sequence in server order.
func (l *TaskList) Tasks() []model.Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

// Pagination returns the metadata from the last successful fetch.
func (l *TaskList) Pagination() service.Pagination {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pagination
}

// Loading reports whether a request is in flight.
func (l *TaskList) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Err returns the last error message, empty if none.
func (l *TaskList) Err() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// ClearError dismisses the last error message.
func (l *TaskList) ClearError() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = ""
}
