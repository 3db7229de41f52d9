package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/sandwich-relay/sandwich/internal/cache"
	"github.com/sandwich-relay/sandwich/internal/config"
	"github.com/sandwich-relay/sandwich/internal/dedupe"
	"github.com/sandwich-relay/sandwich/internal/egress"
	"github.com/sandwich-relay/sandwich/internal/ingest"
	"github.com/sandwich-relay/sandwich/internal/kvstore"
	"github.com/sandwich-relay/sandwich/internal/logging"
	"github.com/sandwich-relay/sandwich/internal/publisher"
	"github.com/sandwich-relay/sandwich/internal/ratelimit"
)

const healthcheckAddr = "0.0.0.0:8083"

func main() {
	cfg := config.Load()
	zlog := logging.New("ingest", cfg.Dev)

	if cfg.BotToken == "" {
		zlog.Fatal().Msg("BOT_TOKEN is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := kvstore.New(ctx, cfg.RedisURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("could not connect to redis")
	}
	defer store.Close()

	selfID, err := cache.SelfUserID(cfg.BotToken)
	if err != nil {
		zlog.Fatal().Err(err).Msg("could not derive bot user id from token")
	}

	suppressor := dedupe.New(store)
	pub := publisher.New()
	engine := cache.New(store, suppressor, pub, selfID, zlog)

	// /gateway/bot is fetched through the same rate-limited egress path
	// the standalone egress binary exposes over HTTP, used in-process so
	// startup does not depend on that binary already running.
	governor := egress.New(ratelimit.NewRegistry(), zlog.With().Str("subsystem", "gateway-bot-fetch").Logger())

	manager := ingest.New("Bot "+cfg.BotToken, governor, store, engine, zlog)

	go func() {
		if err := manager.Start(ctx); err != nil {
			zlog.Error().Err(err).Msg("ingestion manager stopped")
			cancel()
		}
	}()

	go serveHealthcheck(zlog)

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sc:
		zlog.Info().Msg("received shutdown signal, closing shards")
	case <-ctx.Done():
	}

	cancel()
}

func serveHealthcheck(zlog zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if err := http.ListenAndServe(healthcheckAddr, mux); err != nil {
		zlog.Error().Err(err).Msg("healthcheck server stopped")
	}
}
