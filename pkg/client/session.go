package client

import (
	"context"
	"net/http"
	"sync"

	"tasktrack/internal/model"
)

type authResponse struct {
	Message string           `json:"message"`
	Token   string           `json:"token"`
	User    model.PublicUser `json:"user"`
}

type meResponse struct {
	User model.PublicUser `json:"user"`
}

// Session holds the current user and token. It is updated only by its own
// operations; callers read state through the accessor methods.
type Session struct {
	c *Client

	mu      sync.Mutex
	user    *model.PublicUser
	token   string
	loading bool
	err     string
}

// NewSession creates a session, restoring any token persisted by a prior run.
func NewSession(c *Client) *Session {
	token, _ := c.tokens.Load()
	return &Session{c: c, token: token}
}

// Load resolves the restored token to a user on application start. Any
// failure silently clears the session: the user is simply logged out, no
// error is surfaced.
func (s *Session) Load(ctx context.Context) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return
	}

	var res meResponse
	if err := s.c.do(ctx, http.MethodGet, "/auth/me", token, nil, &res); err != nil {
		s.clear()
		return
	}

	s.mu.Lock()
	s.user = &res.User
	s.mu.Unlock()
}

// Login authenticates and stores the user and token on success. The
// returned flag lets callers branch without inspecting shared state.
func (s *Session) Login(ctx context.Context, email, password string) bool {
	return s.authenticate(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates an account and stores the user and token on success.
func (s *Session) Register(ctx context.Context, username, email, password string) bool {
	return s.authenticate(ctx, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
}

func (s *Session) authenticate(ctx context.Context, path string, body map[string]string) bool {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()

	var res authResponse
	err := s.c.do(ctx, http.MethodPost, path, "", body, &res)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.user = nil
		s.token = ""
		s.err = err.Error()
		_ = s.c.tokens.Clear()
		return false
	}

	s.user = &res.User
	s.token = res.Token
	_ = s.c.tokens.Save(res.Token)
	return true
}

// Logout clears the user and token locally. There is no server call: the
// token simply stops being presented and expires on its own.
func (s *Session) Logout() {
	s.clear()
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	s.err = ""
	_ = s.c.tokens.Clear()
}

// User returns the current user, or nil when logged out.
func (s *Session) User() *model.PublicUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the current bearer token, empty when logged out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Loading reports whether an auth request is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last error message, empty if none.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ClearError dismisses the last error message.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}
