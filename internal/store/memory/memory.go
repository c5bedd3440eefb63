// Package memory is an in-process DocumentStore for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
	"github.com/MrSnakeDoc/cloudnav/internal/store"
)

type backup struct {
	doc       domain.Document
	info      domain.BackupInfo
	expiresAt time.Time // zero = never
}

// Store keeps the document and its snapshots in maps guarded by one lock.
// Expired snapshots disappear lazily on read.
type Store struct {
	mu       sync.RWMutex
	document *domain.Document
	backups  map[string]*backup // key -> snapshot
	now      func() time.Time
}

// NewStore creates an empty memory store.
func NewStore() *Store {
	return &Store{
		backups: make(map[string]*backup),
		now:     time.Now,
	}
}

// WithClock replaces the clock, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Mode() string { return "memory" }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// GetDocument returns a copy of the stored document, or nil when empty.
func (s *Store) GetDocument(ctx context.Context) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.document == nil {
		return nil, nil
	}
	doc := s.document.Clone()
	return &doc, nil
}

// PutDocument applies the version rule under the write lock.
func (s *Store) PutDocument(ctx context.Context, doc domain.Document, expected *int64) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := domain.NextVersion(s.document, doc, expected, s.now())
	if err != nil {
		return nil, err
	}
	s.document = &next

	out := next.Clone()
	return &out, nil
}

// CreateBackup stores a snapshot under a fresh key.
func (s *Store) CreateBackup(ctx context.Context, doc domain.Document, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := store.BackupKey(now)
	for s.backups[key] != nil {
		key = store.BackupKey(now)
	}

	b := &backup{
		doc: doc.Clone(),
		info: domain.BackupInfo{
			Key:       key,
			Timestamp: store.BackupTimestamp(key),
			DeviceID:  doc.Meta.DeviceID,
			UpdatedAt: doc.Meta.UpdatedAt,
			Version:   doc.Meta.Version,
		},
	}
	if ttl > 0 {
		b.expiresAt = now.Add(ttl)
		exp := b.expiresAt.Unix()
		b.info.Expiration = &exp
	}
	s.backups[key] = b
	return key, nil
}

// ListBackups returns the live snapshots, newest first.
func (s *Store) ListBackups(ctx context.Context) ([]domain.BackupInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked()
	out := make([]domain.BackupInfo, 0, len(s.backups))
	for _, b := range s.backups {
		out = append(out, b.info)
	}
	store.SortNewestFirst(out)
	return out, nil
}

// GetBackup returns a copy of one snapshot.
func (s *Store) GetBackup(ctx context.Context, key string) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked()
	b, ok := s.backups[key]
	if !ok {
		return nil, store.ErrBackupNotFound
	}
	doc := b.doc.Clone()
	return &doc, nil
}

// DeleteBackup removes one snapshot. Unknown keys are not an error.
func (s *Store) DeleteBackup(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.backups, key)
	return nil
}

func (s *Store) purgeExpiredLocked() {
	now := s.now()
	for key, b := range s.backups {
		if !b.expiresAt.IsZero() && !now.Before(b.expiresAt) {
			delete(s.backups, key)
		}
	}
}

var _ store.DocumentStore = (*Store)(nil)
