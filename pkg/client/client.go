// Package client is a Go client for the tasktrack API. It mirrors the
// browser application's two state holders: a Session carrying the current
// user and bearer token, and a TaskList carrying the in-memory task
// sequence. Both only change state after the server has confirmed an
// operation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client performs HTTP requests against the tasktrack API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

// New creates a client for the API at baseURL. Tokens persist across
// restarts through the given store.
func New(baseURL string, tokens TokenStore) *Client {
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
	}
}

// APIError is a failed response decoded from the server's error envelope.
type APIError struct {
	StatusCode int
	Message    string   `json:"message"`
	Errors     []string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// do issues one request. A non-empty token is attached as a bearer
// credential; non-2xx responses decode into APIError.
func (c *Client) do(ctx context.Context, method, path string, token string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{StatusCode: res.StatusCode, Message: "request failed"}
		_ = json.NewDecoder(res.Body).Decode(apiErr)
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
