package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"github.com/feral-file/title-scrutiny/internal/adapter"
	"github.com/feral-file/title-scrutiny/internal/api/middleware"
	"github.com/feral-file/title-scrutiny/internal/api/rest"
	"github.com/feral-file/title-scrutiny/internal/api/server"
	"github.com/feral-file/title-scrutiny/internal/catalog"
	"github.com/feral-file/title-scrutiny/internal/columns"
	"github.com/feral-file/title-scrutiny/internal/config"
	"github.com/feral-file/title-scrutiny/internal/deeds"
	"github.com/feral-file/title-scrutiny/internal/logger"
	"github.com/feral-file/title-scrutiny/internal/merge"
	"github.com/feral-file/title-scrutiny/internal/messaging"
	"github.com/feral-file/title-scrutiny/internal/messaging/memory"
	"github.com/feral-file/title-scrutiny/internal/notify"
	"github.com/feral-file/title-scrutiny/internal/providers/jetstream"
	"github.com/feral-file/title-scrutiny/internal/store"
	"github.com/feral-file/title-scrutiny/internal/wordtemplate"
	"github.com/feral-file/title-scrutiny/internal/workspace"
)

const (
	connectTimeout = 30 * time.Second
	sweepInterval  = time.Minute
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

// retry runs connect with exponential backoff until it succeeds or the timeout passes
func retry[T any](ctx context.Context, name string, connect func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = connectTimeout

	var result T
	operation := func() error {
		var err error
		result, err = connect()
		return err
	}
	notifyOnError := func(err error, next time.Duration) {
		logger.WarnCtx(ctx, "Connection attempt failed, retrying",
			zap.String("target", name),
			zap.Error(err),
			zap.Duration("next", next))
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notifyOnError)
	return result, err
}

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "title-scrutiny-api",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Title Scrutiny API")

	// Connect to database
	if err := cfg.Database.Validate(); err != nil {
		logger.FatalCtx(ctx, "Invalid database configuration", zap.Error(err))
	}
	db, err := retry(ctx, "database", func() (*gorm.DB, error) {
		return store.OpenDB(cfg.Database, cfg.Debug)
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("driver", cfg.Database.Driver))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.String("driver", cfg.Database.Driver),
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
	)

	// Initialize adapters
	jsonAdapter := adapter.NewJSON()
	clock := adapter.NewClock()

	// Change feed: JetStream when configured, otherwise the in-process broker
	var (
		publisher  messaging.Publisher
		subscriber messaging.Subscriber
	)
	if cfg.NATS.URL != "" {
		jsCfg := jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			SubjectPrefix:  cfg.NATS.SubjectPrefix,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			MaxAge:         cfg.NATS.MaxAge,
		}
		natsJS := adapter.NewNatsJetStream()

		publisher, err = retry(ctx, "nats", func() (messaging.Publisher, error) {
			return jetstream.NewPublisher(ctx, jsCfg, natsJS, jsonAdapter)
		})
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect change feed publisher", zap.Error(err))
		}
		sub, err := retry(ctx, "nats", func() (*jetstream.Subscriber, error) {
			return jetstream.NewSubscriber(jsCfg, natsJS, jsonAdapter)
		})
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect change feed subscriber", zap.Error(err))
		}
		defer sub.Close()
		subscriber = sub
		logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", cfg.NATS.URL), zap.String("stream", cfg.NATS.StreamName))
	} else {
		broker := memory.NewBroker(0)
		publisher = broker
		subscriber = broker
		logger.WarnCtx(ctx, "NATS URL not configured, using the in-process change feed")
	}
	defer publisher.Close()

	// Initialize store
	dataStore := store.NewNotifyingStore(store.NewPGStore(db), publisher, clock)

	// Custom column storage: redis when configured, otherwise files under the column dir
	columnStorage := func(clientID string) columns.Storage {
		return columns.NewFileStorage(adapter.NewFileSystem(), columns.ClientDir(cfg.Drafting.ColumnDir, clientID))
	}
	if cfg.Redis.Addr != "" {
		redisClient := adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if _, err := retry(ctx, "redis", func() (struct{}, error) {
			return struct{}{}, redisClient.Ping(ctx)
		}); err != nil {
			logger.FatalCtx(ctx, "Failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		columnStorage = func(clientID string) columns.Storage {
			return columns.NewRedisStorage(redisClient, columns.ClientPrefix(cfg.Redis.KeyPrefix, clientID), 0)
		}
		logger.InfoCtx(ctx, "Custom columns stored in redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Deed-type catalog, merge engine and sessions
	deedCatalog := catalog.New(dataStore, cfg.Catalog.CacheTTL)
	if err := deedCatalog.Reload(ctx); err != nil {
		logger.WarnCtx(ctx, "Failed to preload the deed-type catalog", zap.Error(err))
	}

	registry := workspace.NewRegistry(workspace.Config{
		Deeds: deeds.Config{
			DebounceDelay: cfg.Drafting.DebounceDelay,
			EditingGrace:  cfg.Drafting.EditingGrace,
			InsertGrace:   cfg.Drafting.InsertGrace,
			CopyGrace:     cfg.Drafting.CopyGrace,
		},
		IdleTimeout:    cfg.Drafting.SessionIdleTimeout,
		WorkerPoolSize: cfg.Drafting.WorkerPoolSize,
	}, workspace.Dependencies{
		Store:         dataStore,
		Catalog:       deedCatalog,
		Engine:        merge.NewEngine(deedCatalog),
		Subscriber:    subscriber,
		ColumnStorage: columnStorage,
		JSON:          jsonAdapter,
		Clock:         clock,
		Notifier:      notify.NewLogNotifier(),
	})
	go registry.Run(ctx, sweepInterval)

	handler := rest.NewHandler(rest.Config{
		Debug:           cfg.Debug,
		MaxTemplateSize: cfg.Drafting.MaxTemplateSize,
	}, registry, wordtemplate.NewService(dataStore), deedCatalog)

	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		CORSOrigins:  cfg.Server.CORSOrigins,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}
	srv := server.New(serverConfig, handler)

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err, zap.String("component", "server"))
	}

	// Flushes pending deed writes before the store goes away
	registry.Close()

	logger.Info("API server stopped")
}
