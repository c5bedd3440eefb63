package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/cloudnav/internal/logger"
	"github.com/MrSnakeDoc/cloudnav/internal/store"
)

// AutoBackup periodically snapshots the shared document
type AutoBackup struct {
	store         store.DocumentStore
	logger        logger.Logger
	interval      time.Duration
	ttl           time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu          sync.Mutex
	lastVersion int64
	lastKey     string
}

// NewAutoBackup creates a new snapshot scheduler. A zero interval disables
// the ticker, manual triggers still work.
func NewAutoBackup(
	st store.DocumentStore,
	log logger.Logger,
	interval time.Duration,
	ttl time.Duration,
	manualTrigger chan struct{},
) *AutoBackup {
	if ttl <= 0 {
		ttl = store.DefaultBackupTTL
	}
	return &AutoBackup{
		store:         st,
		logger:        log,
		interval:      interval,
		ttl:           ttl,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic snapshot process
func (ab *AutoBackup) Start(ctx context.Context) error {
	var tick <-chan time.Time
	if ab.interval > 0 {
		ticker := time.NewTicker(ab.interval)
		tick = ticker.C
		go func() {
			<-ab.stopCh
			ticker.Stop()
		}()
	}

	go func() {
		for {
			select {
			case <-tick:
				if _, err := ab.Snapshot(ctx, false); err != nil {
					ab.logger.Error("automatic snapshot failed", logger.Error(err))
				}
			case <-ab.manualTrigger:
				ab.logger.Info("manual snapshot triggered")
				if _, err := ab.Snapshot(ctx, true); err != nil {
					ab.logger.Error("manual snapshot failed", logger.Error(err))
				}
			case <-ab.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the scheduler
func (ab *AutoBackup) Stop() {
	ab.stopOnce.Do(func() { close(ab.stopCh) })
}

// Snapshot backs up the current document. Unless force is set, nothing is
// written when the version has not moved since the previous snapshot. The
// returned key is empty when no snapshot was taken.
func (ab *AutoBackup) Snapshot(ctx context.Context, force bool) (string, error) {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	doc, err := ab.store.GetDocument(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	if doc == nil {
		ab.logger.Debug("nothing stored yet, snapshot skipped")
		return "", nil
	}
	if !force && doc.Meta.Version == ab.lastVersion {
		ab.logger.Debug("document unchanged since last snapshot",
			logger.Int64("version", doc.Meta.Version),
			logger.String("last_key", ab.lastKey))
		return "", nil
	}

	key, err := ab.store.CreateBackup(ctx, *doc, ab.ttl)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}
	ab.lastVersion = doc.Meta.Version
	ab.lastKey = key

	ab.logger.Info("snapshot created",
		logger.String("key", key),
		logger.Int64("version", doc.Meta.Version))
	return key, nil
}
