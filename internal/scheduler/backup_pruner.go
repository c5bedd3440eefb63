package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/cloudnav/internal/logger"
	"github.com/MrSnakeDoc/cloudnav/internal/store"
)

// BackupPruner deletes snapshots beyond the retention limits. TTL expiry in
// the store remains the primary cleanup, the pruner caps the count and
// catches snapshots written without a TTL.
type BackupPruner struct {
	store    store.DocumentStore
	logger   logger.Logger
	interval time.Duration
	keep     int
	maxAge   time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewBackupPruner creates a new pruner. keep <= 0 disables the count limit,
// maxAge <= 0 disables the age limit.
func NewBackupPruner(
	st store.DocumentStore,
	log logger.Logger,
	interval time.Duration,
	keep int,
	maxAge time.Duration,
) *BackupPruner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &BackupPruner{
		store:    st,
		logger:   log,
		interval: interval,
		keep:     keep,
		maxAge:   maxAge,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic pruning process
func (bp *BackupPruner) Start(ctx context.Context) error {
	// Run immediately on start
	if _, err := bp.Prune(ctx); err != nil {
		bp.logger.Warn("initial backup pruning failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(bp.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := bp.Prune(ctx); err != nil {
					bp.logger.Error("backup pruning failed",
						logger.Error(err))
				}
			case <-bp.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the pruner
func (bp *BackupPruner) Stop() {
	bp.stopOnce.Do(func() { close(bp.stopCh) })
}

// Prune removes snapshots older than maxAge and everything past the newest
// keep entries. It returns how many were deleted.
func (bp *BackupPruner) Prune(ctx context.Context) (int, error) {
	list, err := bp.store.ListBackups(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list backups: %w", err)
	}

	now := bp.now()
	deleted := 0
	for i, info := range list {
		reason := ""
		switch {
		case bp.keep > 0 && i >= bp.keep:
			reason = "over_limit"
		case bp.maxAge > 0 && info.Expiration == nil && expired(info.Key, now, bp.maxAge):
			reason = "too_old"
		default:
			continue
		}

		if err := bp.store.DeleteBackup(ctx, info.Key); err != nil {
			bp.logger.Warn("failed to delete backup",
				logger.String("key", info.Key),
				logger.Error(err))
			continue
		}
		bp.logger.Info("pruned backup",
			logger.String("key", info.Key),
			logger.String("reason", reason))
		deleted++
	}

	if deleted > 0 {
		bp.logger.Info("backup pruning completed",
			logger.Int("deleted", deleted),
			logger.Int("remaining", len(list)-deleted))
	} else {
		bp.logger.Debug("no backups to prune")
	}
	return deleted, nil
}

func expired(key string, now time.Time, maxAge time.Duration) bool {
	created := store.BackupTime(key)
	return !created.IsZero() && now.Sub(created) > maxAge
}
