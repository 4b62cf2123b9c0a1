// Package client talks to the notes API and keeps a local mirror of the
// signed-in user's notes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nexusnotes/nexus-notes/internal/document"
	"github.com/nexusnotes/nexus-notes/internal/model"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 15 * time.Second

// ErrTimeout is returned when a request does not complete within the client timeout.
var ErrTimeout = errors.New("request timed out")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api error: %d %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Health is the body of GET /health.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Client is a typed HTTP client for the notes API. The bearer token is read
// from its TokenStore on every request.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	tokens  TokenStore
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its own Timeout is
// kept unless WithTimeout is also given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the overall per-request timeout, whatever the order of
// the options.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a Client for the API at baseURL.
func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.http.Timeout != c.timeout {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// Tokens returns the store the client reads its bearer token from.
func (c *Client) Tokens() TokenStore { return c.tokens }

// Register creates an account and returns its first token.
func (c *Client) Register(ctx context.Context, name, email, password string) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/users/register", model.CreateUserRequest{
		Name: name, Email: email, Password: password,
	}, &resp)
	return resp, err
}

// Login exchanges email and password for a token.
func (c *Client) Login(ctx context.Context, email, password string) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/users/login", model.LoginRequest{Email: email, Password: password}, &resp)
	return resp, err
}

// GoogleLogin exchanges a Google ID token for a token, creating the account
// on first use.
func (c *Client) GoogleLogin(ctx context.Context, idToken string) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/users/google-login", model.GoogleLoginRequest{IDToken: idToken}, &resp)
	return resp, err
}

// Profile returns the user the stored token belongs to.
func (c *Client) Profile(ctx context.Context) (model.UserResponse, error) {
	var resp model.ProfileResponse
	err := c.do(ctx, http.MethodGet, "/users/profile", nil, &resp)
	return resp.User, err
}

// ListNotes returns the user's notes, most recently updated first. The
// result is never nil.
func (c *Client) ListNotes(ctx context.Context) ([]model.NoteResponse, error) {
	notes := make([]model.NoteResponse, 0)
	if err := c.do(ctx, http.MethodGet, "/notes", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// CreateNote stores a new note. A nil content lets the server fill in the
// default document.
func (c *Client) CreateNote(ctx context.Context, title string, content document.Document) (model.NoteResponse, error) {
	var note model.NoteResponse
	err := c.do(ctx, http.MethodPost, "/notes", noteBody{Title: title, Content: content}, &note)
	return note, err
}

// UpdateNote replaces the title and content of the note with the given id.
func (c *Client) UpdateNote(ctx context.Context, id, title string, content document.Document) (model.NoteResponse, error) {
	var note model.NoteResponse
	err := c.do(ctx, http.MethodPut, "/notes/"+url.PathEscape(id), noteBody{Title: title, Content: content}, &note)
	return note, err
}

// DeleteNote removes the note with the given id.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notes/"+url.PathEscape(id), nil, nil)
}

// Health calls the unauthenticated health endpoint.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &h)
	return h, err
}

type noteBody struct {
	Title   string            `json:"title"`
	Content document.Document `json:"content,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	token, err := c.tokens.Load()
	if err != nil {
		return fmt.Errorf("loading token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
