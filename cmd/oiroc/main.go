package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"oiroc/config"
	"oiroc/internal/collector"
	"oiroc/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// viper config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.ResolveCredential(ctx); err != nil {
		if errors.Is(err, config.ErrMissingCredential) {
			log.Error("set FEED_API_KEY (or API_KEY) before starting", zap.Error(err))
		} else {
			log.Error("invalid feed configuration", zap.Error(err))
		}
		log.Sync()
		os.Exit(2)
	}

	if err := collector.Start(ctx, cfg, log); err != nil {
		log.Error("collector failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}
