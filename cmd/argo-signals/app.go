package main

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/rxtech-lab/argo-signals/internal/analysis"
	"github.com/rxtech-lab/argo-signals/internal/config"
	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/metrics"
	"github.com/rxtech-lab/argo-signals/internal/notification"
	"github.com/rxtech-lab/argo-signals/internal/server"
	"github.com/rxtech-lab/argo-signals/internal/store"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata"
	"go.uber.org/zap"
)

// app holds the components shared by the watch and serve commands.
type app struct {
	cfg      config.Config
	logger   *logger.Logger
	metrics  *metrics.Metrics
	db       *store.DB
	journal  *store.Journal
	relay    *notification.Relay
	redis    *redis.Client
	hub      *server.Hub
	analyzer *analysis.Analyzer
}

func newApp(ctx context.Context, cfg config.Config, log *logger.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  log,
		metrics: metrics.NewMetrics(),
	}

	db, err := store.Open(ctx, cfg.JournalPath, log)
	if err != nil {
		return nil, err
	}

	a.db = db
	a.journal = store.NewJournal(db)

	seen, err := a.seenStore(ctx)
	if err != nil {
		a.Close()

		return nil, err
	}

	notifier, err := a.notifier()
	if err != nil {
		a.Close()

		return nil, err
	}

	a.relay = notification.NewRelay(notifier, seen,
		notification.WithRelayLogger(log),
		notification.WithRelayMetrics(a.metrics))
	a.hub = server.NewHub(log, a.metrics)

	source, err := marketdata.NewSource(cfg.SourceConfig())
	if err != nil {
		a.Close()

		return nil, err
	}

	engine, err := indicator.NewEngine(indicator.WithMinSamples(cfg.MinSamples))
	if err != nil {
		a.Close()

		return nil, err
	}

	a.analyzer, err = analysis.NewAnalyzer(source, engine, nil, log,
		analysis.WithJournal(a.journal),
		analysis.WithRelay(a.relay),
		analysis.WithPublisher(a.hub),
		analysis.WithMetrics(a.metrics),
		analysis.WithConcurrency(cfg.Concurrency))
	if err != nil {
		a.Close()

		return nil, err
	}

	return a, nil
}

func (a *app) seenStore(ctx context.Context) (notification.SeenStore, error) {
	capacity := a.cfg.Seen.Capacity

	switch a.cfg.Seen.Backend {
	case config.SeenBackendMemory:
		return notification.NewMemorySeenStore(capacity)
	case config.SeenBackendDuckDB:
		return store.NewSeenStore(a.db, capacity)
	case config.SeenBackendRedis:
		client, err := store.NewRedisClient(ctx, a.cfg.Seen.RedisAddress)
		if err != nil {
			return nil, err
		}

		a.redis = client

		return store.NewRedisSeenStore(client, a.cfg.Seen.RedisPrefix, capacity)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported seen backend: %s", a.cfg.Seen.Backend)
	}
}

func (a *app) notifier() (notification.Notifier, error) {
	if !a.cfg.TelegramEnabled() {
		a.logger.Info("Telegram credentials not set, signals will only be logged")

		return notification.NewLogNotifier(a.logger), nil
	}

	var opts []notification.TelegramOption
	if a.cfg.Telegram.BaseURL != "" {
		opts = append(opts, notification.WithTelegramBaseURL(a.cfg.Telegram.BaseURL))
	}

	return notification.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, opts...)
}

// Close releases the database and the redis connection.
func (a *app) Close() {
	if a.hub != nil {
		a.hub.Close()
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("Failed to close store", zap.Error(err))
		}
	}
}
