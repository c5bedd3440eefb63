package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/cloudnav/internal/config"
	"github.com/MrSnakeDoc/cloudnav/internal/httpserver"
	"github.com/MrSnakeDoc/cloudnav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cloudnav/internal/logger"
	"github.com/MrSnakeDoc/cloudnav/internal/redis"
	"github.com/MrSnakeDoc/cloudnav/internal/scheduler"
	"github.com/MrSnakeDoc/cloudnav/internal/store"
	"github.com/MrSnakeDoc/cloudnav/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/cloudnav/internal/store/redis"
	"github.com/MrSnakeDoc/cloudnav/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	store       store.DocumentStore
	seeder      *scheduler.Seeder
	autoBackup  *scheduler.AutoBackup
	pruner      *scheduler.BackupPruner
}

// New loads the configuration and connects the document store. ctx bounds
// the wait for Redis at startup.
func New(ctx context.Context) (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	var (
		redisClient *goredis.Client
		docStore    store.DocumentStore
	)
	switch cfg.StoreMode {
	case config.StoreMemory:
		loggerClient.Warn("using the in-memory store, data is lost on restart")
		docStore = memory.NewStore()
	default:
		client, err := redis.Connect(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			return nil, fmt.Errorf("connect document store: %w", err)
		}
		redisClient = client
		docStore = redisstore.NewStore(client)
	}

	if cfg.SyncPasswordHash == nil {
		loggerClient.Warn("CLOUDNAV_SYNC_PASSWORD is not set, /api/sync is open to anyone who can reach it")
	}

	// Create manual snapshot trigger channel
	snapshotTrigger := make(chan struct{}, 1)

	autoBackup := scheduler.NewAutoBackup(
		docStore,
		loggerClient,
		cfg.AutoBackupInterval,
		cfg.BackupTTL,
		snapshotTrigger,
	)

	pruner := scheduler.NewBackupPruner(
		docStore,
		loggerClient,
		cfg.BackupGCInterval,
		cfg.MaxBackups,
		cfg.BackupTTL,
	)

	seeder := scheduler.NewSeeder(docStore, loggerClient, cfg.SeedServicesFile, cfg.SeedBookmarksFile)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:           loggerClient,
		StartTime:        time.Now(),
		Version:          version.Version,
		Commit:           version.Commit,
		BuildDate:        version.BuildDate,
		GoVersion:        version.GoVersion,
		TimeNow:          time.Now,
		AllowedHosts:     cfg.AllowedHosts,
		AllowedCIDRS:     cfg.AllowedCIDRS,
		TrustProxy:       cfg.TrustProxy,
		Store:            docStore,
		SyncPasswordHash: cfg.SyncPasswordHash,
		BackupTTL:        cfg.BackupTTL,
		MaxBodyBytes:     cfg.MaxBodyBytes,
		RateLimitBurst:   cfg.RateLimitBurst,
		RateLimitPerMin:  cfg.RateLimitPerMin,
		SnapshotTrigger:  snapshotTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		store:       docStore,
		seeder:      seeder,
		autoBackup:  autoBackup,
		pruner:      pruner,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down the schedulers, the
// HTTP server and the store connection.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting CloudNav sync server %s on %s (store=%s)",
		version.String(), a.cfg.ListenPort, a.store.Mode())

	// Seed an empty store from Homepage files (if configured)
	if _, err := a.seeder.Seed(ctx); err != nil {
		a.logger.Warn("failed to seed document from homepage", logger.Error(err))
	}

	if err := a.autoBackup.Start(ctx); err != nil {
		return fmt.Errorf("failed to start auto backup: %w", err)
	}
	a.logger.Info("auto backup started",
		logger.Duration("interval", a.cfg.AutoBackupInterval))

	if err := a.pruner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start backup pruner: %w", err)
	}
	a.logger.Info("backup pruner started",
		logger.Duration("interval", a.cfg.BackupGCInterval),
		logger.Int("keep", a.cfg.MaxBackups))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.autoBackup.Stop()
	a.pruner.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ CloudNav stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
