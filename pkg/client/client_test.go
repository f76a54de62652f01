package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktrack/internal/model"
)

const testToken = "test-token"

// stubAPI is a minimal in-memory rendition of the server the client talks to.
type stubAPI struct {
	user  model.PublicUser
	tasks []model.Task
}

func newStubAPI() *stubAPI {
	return &stubAPI{
		user: model.PublicUser{
			ID:        uuid.New(),
			Username:  "alice",
			Email:     "alice@x.com",
			Role:      "user",
			CreatedAt: time.Now(),
		},
	}
}

func (s *stubAPI) handler() http.Handler {
	mux := http.NewServeMux()

	authorized := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer "+testToken
	}
	unauthorized := func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid token"})
	}

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "password1" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid email or password"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "login successful", "token": testToken, "user": s.user,
		})
	})

	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "user registered successfully", "token": testToken, "user": s.user,
		})
	})

	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			unauthorized(w)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"user": s.user})
	})

	mux.HandleFunc("GET /tasks", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			unauthorized(w)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"tasks": s.tasks,
			"pagination": map[string]interface{}{
				"current": 1, "pages": 1, "total": len(s.tasks), "hasNext": false, "hasPrev": false,
			},
		})
	})

	mux.HandleFunc("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			unauthorized(w)
			return
		}
		var req CreateTask
		_ = json.NewDecoder(r.Body).Decode(&req)
		task := model.Task{
			ID:       uuid.New(),
			Title:    strings.TrimSpace(req.Title),
			Priority: model.PriorityMedium,
			UserID:   s.user.ID,
		}
		s.tasks = append([]model.Task{task}, s.tasks...)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "task created successfully", "task": task,
		})
	})

	mux.HandleFunc("PATCH /tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			unauthorized(w)
			return
		}
		var req UpdateTask
		_ = json.NewDecoder(r.Body).Decode(&req)
		for i := range s.tasks {
			if s.tasks[i].ID.String() == r.PathValue("id") {
				if req.Title != nil {
					s.tasks[i].Title = *req.Title
				}
				if req.Completed != nil {
					s.tasks[i].SetCompleted(*req.Completed, time.Now())
				}
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"message": "task updated successfully", "task": s.tasks[i],
				})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "task not found"})
	})

	mux.HandleFunc("DELETE /tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			unauthorized(w)
			return
		}
		for i := range s.tasks {
			if s.tasks[i].ID.String() == r.PathValue("id") {
				s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "task deleted successfully"})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "task not found"})
	})

	return mux
}

func newTestClient(t *testing.T) (*Client, *stubAPI) {
	t.Helper()
	api := newStubAPI()
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)
	return New(server.URL, NewMemoryTokenStore()), api
}

func TestSession_LoginStoresUserAndToken(t *testing.T) {
	c, _ := newTestClient(t)
	session := NewSession(c)

	ok := session.Login(context.Background(), "alice@x.com", "password1")
	assert.True(t, ok)
	assert.Equal(t, testToken, session.Token())
	require.NotNil(t, session.User())
	assert.Equal(t, "alice", session.User().Username)
	assert.Empty(t, session.Err())

	// the token survives a client restart through the store
	restored, _ := c.tokens.Load()
	assert.Equal(t, testToken, restored)
}

func TestSession_LoginFailureRecordsError(t *testing.T) {
	c, _ := newTestClient(t)
	session := NewSession(c)

	ok := session.Login(context.Background(), "alice@x.com", "wrong")
	assert.False(t, ok)
	assert.Nil(t, session.User())
	assert.Empty(t, session.Token())
	assert.Equal(t, "invalid email or password", session.Err())

	session.ClearError()
	assert.Empty(t, session.Err())
}

func TestSession_LoadRestoresPriorSession(t *testing.T) {
	c, _ := newTestClient(t)
	require.NoError(t, c.tokens.Save(testToken))

	session := NewSession(c)
	session.Load(context.Background())

	require.NotNil(t, session.User())
	assert.Equal(t, "alice@x.com", session.User().Email)
}

func TestSession_LoadFailureClearsSilently(t *testing.T) {
	c, _ := newTestClient(t)
	require.NoError(t, c.tokens.Save("stale-token"))

	session := NewSession(c)
	session.Load(context.Background())

	// logged out, token discarded, no blocking error surfaced
	assert.Nil(t, session.User())
	assert.Empty(t, session.Token())
	assert.Empty(t, session.Err())
	stored, _ := c.tokens.Load()
	assert.Empty(t, stored)
}

func TestSession_LogoutIsLocal(t *testing.T) {
	c, _ := newTestClient(t)
	session := NewSession(c)
	require.True(t, session.Login(context.Background(), "alice@x.com", "password1"))

	session.Logout()
	assert.Nil(t, session.User())
	assert.Empty(t, session.Token())
	stored, _ := c.tokens.Load()
	assert.Empty(t, stored)
}

func TestTaskList_FetchReplacesSequence(t *testing.T) {
	c, api := newTestClient(t)
	session := NewSession(c)
	require.True(t, session.Login(context.Background(), "alice@x.com", "password1"))

	api.tasks = []model.Task{
		{ID: uuid.New(), Title: "first"},
		{ID: uuid.New(), Title: "second"},
	}

	list := NewTaskList(c, session)
	assert.True(t, list.Fetch(context.Background(), ListOptions{}))

	tasks := list.Tasks()
	require.Len(t, tasks, 2)
	// server order is preserved, not re-sorted
	assert.Equal(t, "first", tasks[0].Title)
	assert.Equal(t, "second", tasks[1].Title)
	assert.Equal(t, int64(2), list.Pagination().Total)
}

func TestTaskList_CreatePrepends(t *testing.T) {
	c, api := newTestClient(t)
	session := NewSession(c)
	require.True(t, session.Login(context.Background(), "alice@x.com", "password1"))

	api.tasks = []model.Task{{ID: uuid.New(), Title: "existing"}}
	list := NewTaskList(c, session)
	require.True(t, list.Fetch(context.Background(), ListOptions{}))

	assert.True(t, list.Create(context.Background(), CreateTask{Title: "fresh"}))

	tasks := list.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "fresh", tasks[0].Title, "new task goes to the front")
	assert.Equal(t, "existing", tasks[1].Title)
}

func TestTaskList_UpdateReplacesInPlace(t *testing.T) {
	c, api := newTestClient(t)
	session := NewSession(c)
	require.True(t, session.Login(context.Background(), "alice@x.com", "password1"))

	api.tasks = []model.Task{
		{ID: uuid.New(), Title: "a"},
		{ID: uuid.New(), Title: "b"},
		{ID: uuid.New(), Title: "c"},
	}
	middle := api.tasks[1].ID.String()

	list := NewTaskList(c, session)
	require.True(t, list.Fetch(context.Background(), ListOptions{}))

	completed := true
	assert.True(t, list.Update(context.Background(), middle, UpdateTask{Completed: &completed}))

	tasks := list.Tasks()
	require.Len(t, tasks, 3)
	assert.Equal(t, "b", tasks[1].Title, "position preserved")
	assert.True(t, tasks[1].Completed)
	assert.NotNil(t, tasks[1].CompletedAt)
}

func TestTaskList_DeleteRemoves(t *testing.T) {
	c, api := newTestClient(t)
	session := NewSession(c)
	require.True(t, session.Login(context.Background(), "alice@x.com", "password1"))

	api.tasks = []model.Task{
		{ID: uuid.New(), Title: "keep"},
		{ID: uuid.New(), Title: "drop"},
	}
	dropID := api.tasks[1].ID.String()

	list := NewTaskList(c, session)
	require.True(t, list.Fetch(context.Background(), ListOptions{}))

	assert.True(t, list.Delete(context.Background(), dropID))

	tasks := list.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "keep", tasks[0].Title)
}

func TestTaskList_ErrorRecordedAndCleared(t *testing.T) {
	c, _ := newTestClient(t)
	session := NewSession(c) // never logged in

	list := NewTaskList(c, session)
	assert.False(t, list.Fetch(context.Background(), ListOptions{}))
	assert.Equal(t, "invalid token", list.Err())

	// the next operation clears the previous error before running
	require.True(t, session.Login(context.Background(), "alice@x.com", "password1"))
	assert.True(t, list.Fetch(context.Background(), ListOptions{}))
	assert.Empty(t, list.Err())
}
