// Package store defines the remote key-value contract behind /api/sync.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
)

// DefaultBackupTTL is how long a snapshot lives.
const DefaultBackupTTL = 30 * 24 * time.Hour

// ErrBackupNotFound is returned for unknown or expired backup keys.
var ErrBackupNotFound = errors.New("backup not found")

// DocumentStore keeps the single shared document and its snapshots.
type DocumentStore interface {
	// GetDocument returns nil, nil when nothing was ever stored.
	GetDocument(ctx context.Context) (*domain.Document, error)

	// PutDocument stores doc as the next version. When expected is non-nil
	// and differs from the stored version a *domain.ConflictError is returned
	// and nothing is written.
	PutDocument(ctx context.Context, doc domain.Document, expected *int64) (*domain.Document, error)

	// CreateBackup writes an immutable snapshot and returns its key.
	CreateBackup(ctx context.Context, doc domain.Document, ttl time.Duration) (string, error)

	ListBackups(ctx context.Context) ([]domain.BackupInfo, error)
	GetBackup(ctx context.Context, key string) (*domain.Document, error)
	DeleteBackup(ctx context.Context, key string) error

	Ping(ctx context.Context) error
	Mode() string
}
