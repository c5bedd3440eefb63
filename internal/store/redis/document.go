package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
)

// maxCASRetries bounds how often PutDocument retries after another writer
// touched the document between WATCH and EXEC.
const maxCASRetries = 8

// ErrTooManyRetries is returned when the optimistic transaction kept losing.
var ErrTooManyRetries = errors.New("document kept changing during write")

// Store keeps the document and its snapshots in Redis.
type Store struct {
	client *redis.Client
	now    func() time.Time
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		now:    time.Now,
	}
}

func (s *Store) Mode() string { return "redis" }

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// GetDocument reads the shared document, nil when the key does not exist.
func (s *Store) GetDocument(ctx context.Context) (*domain.Document, error) {
	data, err := s.client.Get(ctx, KeyDocument).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return &doc, nil
}

// PutDocument is a compare-and-swap on the document version: the key is
// watched, the version rule is applied to what was read, and the write only
// commits if nobody else wrote in between.
func (s *Store) PutDocument(ctx context.Context, doc domain.Document, expected *int64) (*domain.Document, error) {
	var stored domain.Document

	txf := func(tx *redis.Tx) error {
		var existing *domain.Document
		data, err := tx.Get(ctx, KeyDocument).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("failed to read document: %w", err)
		default:
			var cur domain.Document
			if err := json.Unmarshal(data, &cur); err != nil {
				return fmt.Errorf("failed to unmarshal document: %w", err)
			}
			existing = &cur
		}

		next, err := domain.NextVersion(existing, doc, expected, s.now())
		if err != nil {
			return err
		}

		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, KeyDocument, payload, 0)
			return nil
		})
		if err != nil {
			return err
		}
		stored = next
		return nil
	}

	for attempt := 0; attempt < maxCASRetries; attempt++ {
		err := s.client.Watch(ctx, txf, KeyDocument)
		if err == nil {
			return &stored, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrTooManyRetries
}
