package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oiroc/config"
	"oiroc/internal/aggregator"
	"oiroc/internal/calendar"
	"oiroc/internal/chain"
	"oiroc/internal/feed"
	"oiroc/internal/history"
	"oiroc/internal/livestate"
	"oiroc/internal/session"
	"oiroc/pkg/storage/postgres"
	"oiroc/pkg/storage/s3archive"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Start wires the listener, the consumer session and the optional history
// sinks, then blocks until ctx is cancelled. A listener that gives up does
// not stop the session: the last rows stay visible and the file is flushed
// on shutdown.
func Start(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	registry, err := chain.NewRegistry(cfg.Chain.Expiry, cfg.Chain.StrikeLow, cfg.Chain.StrikeHigh, cfg.Chain.StrikeStep)
	if err != nil {
		return fmt.Errorf("build instrument registry: %w", err)
	}
	clock, err := calendar.NewClock(cfg.History.Timezone, cfg.History.MarketOpen, cfg.History.MarketClose)
	if err != nil {
		return fmt.Errorf("build market clock: %w", err)
	}

	sinks, closeSinks, err := openSinks(ctx, cfg, registry.Expiry(), runID, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	now := time.Now()
	live := livestate.New(registry.Symbols(), registry.Future())
	hist := history.NewStore(cfg.History.Dir, registry.Columns(), clock, cfg.History.PersistInterval, sinks, logger.Named("history"), now)
	agg := aggregator.New(registry, live, clock, cfg.Aggregation.Interval)

	updates := make(chan feed.Update, cfg.Feed.HandoffBuffer)
	listener := feed.NewListener(cfg.Feed, registry, updates, logger.Named("feed"))

	renderer := newLogRenderer(listener, logger.Named("render"))
	sess := session.New(updates, live, agg, hist, listener, session.Options{
		Window:       cfg.Aggregation.Window,
		PollInterval: cfg.Aggregation.PollInterval,
		OnRow:        renderer.Render,
	}, logger.Named("session"))

	logger.Info("collector starting",
		zap.String("expiry", registry.Expiry()),
		zap.Int("instruments", len(registry.Symbols())),
		zap.Int("columns", len(registry.Columns())),
		zap.Duration("interval", cfg.Aggregation.Interval),
		zap.String("history_dir", cfg.History.Dir))

	go func() {
		err := listener.Run(ctx)
		switch {
		case err == nil:
		case errors.Is(err, feed.ErrAuthFailed):
			logger.Error("feed authentication failed, no live data will arrive", zap.Error(err))
		default:
			logger.Error("feed listener stopped", zap.Error(err), zap.Any("stats", listener.Stats()))
		}
	}()

	return sess.Run(ctx)
}

// openSinks connects the configured history mirrors. The returned close
// function is always safe to call.
func openSinks(ctx context.Context, cfg *config.Config, expiry, runID string, logger *zap.Logger) ([]history.Sink, func(), error) {
	var sinks []history.Sink
	closers := []func(){}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.Postgres.Enabled {
		client, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, runID, true)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		sinks = append(sinks, client)
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("close postgres", zap.Error(err))
			}
		})
		logger.Info("postgres history mirror enabled", zap.String("dbname", cfg.Postgres.DBName))
	}

	if cfg.S3.Enabled {
		archive, err := s3archive.New(ctx, cfg.S3, expiry, runID, logger.Named("s3"))
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to configure s3 archive: %w", err)
		}
		sinks = append(sinks, archive)
		logger.Info("s3 archive enabled", zap.String("bucket", cfg.S3.Bucket))
	}

	return sinks, closeAll, nil
}
