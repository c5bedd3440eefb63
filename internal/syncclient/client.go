// Package syncclient keeps the local document in step with the remote sync
// service: fetch on start, debounced pushes guarded by a version check, and
// explicit conflict resolution.
package syncclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
	"github.com/MrSnakeDoc/cloudnav/internal/store"
	"github.com/MrSnakeDoc/cloudnav/internal/version"
)

// PasswordHeader carries the sync password on every request.
const PasswordHeader = "X-Sync-Password"

const syncPath = "/api/sync"

var (
	// ErrUnauthorized is returned when the server rejects the password.
	ErrUnauthorized = errors.New("sync password rejected")
	// ErrOffline is returned for remote operations without a password.
	ErrOffline = errors.New("not logged in to a sync server")
)

// TransportError wraps failures to reach the server at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is an unexpected HTTP status from the server.
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: server answered %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: server answered %d: %s", e.Op, e.Status, e.Message)
}

type envelope struct {
	Success   bool                `json:"success"`
	Conflict  bool                `json:"conflict,omitempty"`
	Data      *domain.Document    `json:"data"`
	Message   string              `json:"message,omitempty"`
	Error     string              `json:"error,omitempty"`
	Problems  []string            `json:"problems,omitempty"`
	BackupKey string              `json:"backupKey,omitempty"`
	Backups   []domain.BackupInfo `json:"backups,omitempty"`
}

type pushRequest struct {
	Data            *domain.Document `json:"data"`
	ExpectedVersion *int64           `json:"expectedVersion,omitempty"`
}

// Client talks to the /api/sync endpoint.
type Client struct {
	http  *resty.Client
	token func() string
}

// NewClient builds a client for baseURL. token is read on every request so
// a login or logout takes effect immediately.
func NewClient(baseURL string, timeout time.Duration, token func() string) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	h := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "cloudnav/"+version.Version)
	return &Client{http: h, token: token}
}

// Fetch returns the stored document, nil when the server holds none.
func (c *Client) Fetch(ctx context.Context) (*domain.Document, error) {
	env, err := c.do(ctx, "fetch", http.MethodGet, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Push stores doc when the server version still equals expected. A nil
// expected skips the check.
func (c *Client) Push(ctx context.Context, doc domain.Document, expected *int64) (*domain.Document, error) {
	env, err := c.do(ctx, "push", http.MethodPost, nil, pushRequest{Data: &doc, ExpectedVersion: expected}, expected)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, &StatusError{Op: "push", Status: http.StatusOK, Message: "response carried no document"}
	}
	return env.Data, nil
}

// Backup stores doc as a new snapshot and returns its key.
func (c *Client) Backup(ctx context.Context, doc domain.Document) (string, error) {
	q := map[string]string{"action": "backup"}
	env, err := c.do(ctx, "backup", http.MethodPost, q, pushRequest{Data: &doc}, nil)
	if err != nil {
		return "", err
	}
	return env.BackupKey, nil
}

// ListBackups returns the snapshots, newest first.
func (c *Client) ListBackups(ctx context.Context) ([]domain.BackupInfo, error) {
	q := map[string]string{"action": "backups"}
	env, err := c.do(ctx, "list backups", http.MethodGet, q, nil, nil)
	if err != nil {
		return nil, err
	}
	list := env.Backups
	store.SortNewestFirst(list)
	return list, nil
}

// GetBackup returns the document saved under key.
func (c *Client) GetBackup(ctx context.Context, key string) (*domain.Document, error) {
	q := map[string]string{"action": "backup", "key": key}
	env, err := c.do(ctx, "get backup", http.MethodGet, q, nil, nil)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, store.ErrBackupNotFound
	}
	return env.Data, nil
}

// CheckAuth verifies the current password with a plain fetch.
func (c *Client) CheckAuth(ctx context.Context) error {
	_, err := c.Fetch(ctx)
	return err
}

func (c *Client) do(ctx context.Context, op, method string, query map[string]string, body any, expected *int64) (*envelope, error) {
	var env envelope
	req := c.http.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&env)
	if tok := c.token(); tok != "" {
		req.SetHeader(PasswordHeader, tok)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, syncPath)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	switch code := resp.StatusCode(); {
	case code >= 200 && code < 300:
		return &env, nil
	case code == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case code == http.StatusConflict:
		conflict := &domain.ConflictError{Remote: env.Data}
		if expected != nil {
			conflict.ExpectedVersion = *expected
		}
		if env.Data != nil {
			conflict.CurrentVersion = env.Data.Meta.Version
		}
		return nil, conflict
	case code == http.StatusBadRequest:
		problems := env.Problems
		if len(problems) == 0 && env.Error != "" {
			problems = []string{env.Error}
		}
		return nil, &domain.ValidationError{Problems: problems}
	case code == http.StatusNotFound && query["action"] == "backup":
		return nil, store.ErrBackupNotFound
	default:
		msg := env.Error
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return nil, &StatusError{Op: op, Status: code, Message: msg}
	}
}
