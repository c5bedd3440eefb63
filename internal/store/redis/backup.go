package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
	"github.com/MrSnakeDoc/cloudnav/internal/store"
)

// maxKeyAttempts bounds the retries when a generated key already exists.
const maxKeyAttempts = 5

// CreateBackup writes doc into a new snapshot hash. The key is claimed under
// WATCH so an existing snapshot is never overwritten.
func (s *Store) CreateBackup(ctx context.Context, doc domain.Document, ttl time.Duration) (string, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal backup: %w", err)
	}

	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		key := store.BackupKey(s.now())
		taken := false

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				taken = true
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key,
					fieldData, payload,
					fieldDeviceID, doc.Meta.DeviceID,
					fieldUpdatedAt, doc.Meta.UpdatedAt,
					fieldVersion, doc.Meta.Version,
				)
				if ttl > 0 {
					pipe.Expire(ctx, key, ttl)
				}
				return nil
			})
			return err
		}, key)

		switch {
		case errors.Is(err, redis.TxFailedErr), err == nil && taken:
			continue
		case err != nil:
			return "", fmt.Errorf("failed to create backup: %w", err)
		default:
			return key, nil
		}
	}
	return "", fmt.Errorf("failed to create backup: no free key after %d attempts", maxKeyAttempts)
}

// ListBackups scans snapshot keys and reads their metadata and remaining TTL
// in one pipeline.
func (s *Store) ListBackups(ctx context.Context) ([]domain.BackupInfo, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, BackupPattern(), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan backups: %w", err)
	}
	if len(keys) == 0 {
		return []domain.BackupInfo{}, nil
	}

	pipe := s.client.Pipeline()
	metas := make([]*redis.SliceCmd, len(keys))
	ttls := make([]*redis.DurationCmd, len(keys))
	for i, key := range keys {
		metas[i] = pipe.HMGet(ctx, key, fieldDeviceID, fieldUpdatedAt, fieldVersion)
		ttls[i] = pipe.PTTL(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read backup metadata: %w", err)
	}

	now := s.now()
	out := make([]domain.BackupInfo, 0, len(keys))
	for i, key := range keys {
		vals, err := metas[i].Result()
		if err != nil || allNil(vals) {
			// expired between SCAN and HMGET
			continue
		}
		info := domain.BackupInfo{
			Key:       key,
			Timestamp: store.BackupTimestamp(key),
			DeviceID:  asString(vals[0]),
			UpdatedAt: asInt64(vals[1]),
			Version:   asInt64(vals[2]),
		}
		if ttl, err := ttls[i].Result(); err == nil && ttl > 0 {
			exp := now.Add(ttl).Unix()
			info.Expiration = &exp
		}
		out = append(out, info)
	}

	store.SortNewestFirst(out)
	return out, nil
}

// GetBackup reads the payload of one snapshot.
func (s *Store) GetBackup(ctx context.Context, key string) (*domain.Document, error) {
	if !store.IsBackupKey(key) {
		return nil, store.ErrBackupNotFound
	}
	data, err := s.client.HGet(ctx, key, fieldData).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrBackupNotFound
		}
		return nil, fmt.Errorf("failed to get backup: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backup: %w", err)
	}
	return &doc, nil
}

// DeleteBackup removes one snapshot.
func (s *Store) DeleteBackup(ctx context.Context, key string) error {
	if !store.IsBackupKey(key) {
		return store.ErrBackupNotFound
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	return nil
}

func allNil(vals []interface{}) bool {
	for _, v := range vals {
		if v != nil {
			return false
		}
	}
	return true
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt64(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

var _ store.DocumentStore = (*Store)(nil)
