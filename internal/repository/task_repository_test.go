package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tasktrack/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// named shared-cache DSN: one in-memory database per test, visible to
	// every pooled connection
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Task{}))
	return db
}

func seedTask(t *testing.T, repo TaskRepository, userID uuid.UUID, title, priority string, completed bool) *model.Task {
	t.Helper()
	task := &model.Task{
		Title:    title,
		Priority: priority,
		Category: "general",
		UserID:   userID,
	}
	if completed {
		now := time.Now()
		task.SetCompleted(true, now)
	}
	require.NoError(t, repo.Create(context.Background(), task))
	return task
}

func TestTaskRepository_OwnerScoping(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	aliceTask := seedTask(t, repo, alice, "alice task", model.PriorityMedium, false)
	bobTask := seedTask(t, repo, bob, "bob task", model.PriorityMedium, false)

	// find: the foreign row is invisible
	found, err := repo.FindByIDAndUser(ctx, aliceTask.ID, alice)
	assert.NoError(t, err)
	assert.Equal(t, aliceTask.ID, found.ID)

	_, err = repo.FindByIDAndUser(ctx, bobTask.ID, alice)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// delete: cross-owner deletion affects nothing
	affected, err := repo.DeleteByIDAndUser(ctx, bobTask.ID, alice)
	assert.NoError(t, err)
	assert.Zero(t, affected)

	stillThere, err := repo.FindByIDAndUser(ctx, bobTask.ID, bob)
	assert.NoError(t, err)
	assert.Equal(t, bobTask.ID, stillThere.ID)

	// list: never includes the other user's tasks
	tasks, total, err := repo.ListByUser(ctx, alice, TaskFilter{})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, tasks, 1)
	assert.Equal(t, alice, tasks[0].UserID)
}

func TestTaskRepository_Filters(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	seedTask(t, repo, userID, "done high", model.PriorityHigh, true)
	seedTask(t, repo, userID, "open high", model.PriorityHigh, false)
	seedTask(t, repo, userID, "open low", model.PriorityLow, false)

	completed := true
	tasks, total, err := repo.ListByUser(ctx, userID, TaskFilter{Completed: &completed})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, tasks, 1)
	assert.Equal(t, "done high", tasks[0].Title)

	tasks, total, err = repo.ListByUser(ctx, userID, TaskFilter{Priority: model.PriorityHigh})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, tasks, 2)

	notCompleted := false
	tasks, total, err = repo.ListByUser(ctx, userID, TaskFilter{Completed: &notCompleted, Priority: model.PriorityHigh})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, tasks, 1)
	assert.Equal(t, "open high", tasks[0].Title)
}

func TestTaskRepository_SortWhitelist(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	seedTask(t, repo, userID, "banana", model.PriorityMedium, false)
	seedTask(t, repo, userID, "apple", model.PriorityMedium, false)
	seedTask(t, repo, userID, "cherry", model.PriorityMedium, false)

	tasks, _, err := repo.ListByUser(ctx, userID, TaskFilter{SortBy: "title", SortOrder: "asc"})
	assert.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "apple", tasks[0].Title)
	assert.Equal(t, "banana", tasks[1].Title)
	assert.Equal(t, "cherry", tasks[2].Title)

	// unknown sort fields fall back to created_at instead of reaching SQL
	_, _, err = repo.ListByUser(ctx, userID, TaskFilter{SortBy: "id; DROP TABLE tasks"})
	assert.NoError(t, err)
}

func TestTaskRepository_Pagination(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 15; i++ {
		seedTask(t, repo, userID, fmt.Sprintf("task %02d", i), model.PriorityMedium, false)
	}

	tasks, total, err := repo.ListByUser(ctx, userID, TaskFilter{Page: 2, Limit: 10})
	assert.NoError(t, err)
	assert.Equal(t, int64(15), total)
	assert.Len(t, tasks, 5)

	tasks, total, err = repo.ListByUser(ctx, userID, TaskFilter{Page: 1, Limit: 10})
	assert.NoError(t, err)
	assert.Equal(t, int64(15), total)
	assert.Len(t, tasks, 10)
}

func TestTaskRepository_UpdatePersistsZeroValues(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	task := seedTask(t, repo, userID, "toggle me", model.PriorityMedium, true)
	require.NotNil(t, task.CompletedAt)

	task.SetCompleted(false, time.Now())
	require.NoError(t, repo.Update(ctx, task))

	reloaded, err := repo.FindByIDAndUser(ctx, task.ID, userID)
	assert.NoError(t, err)
	assert.False(t, reloaded.Completed)
	assert.Nil(t, reloaded.CompletedAt, "clearing completedAt reaches the row")
}
