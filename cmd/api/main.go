package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sandwich-relay/sandwich/internal/config"
	"github.com/sandwich-relay/sandwich/internal/docstore"
	"github.com/sandwich-relay/sandwich/internal/kvstore"
	"github.com/sandwich-relay/sandwich/internal/logging"
	"github.com/sandwich-relay/sandwich/internal/queryapi"
)

const (
	listenAddr        = "0.0.0.0:8000"
	readHeaderTimeout = 10 * time.Second
)

func main() {
	cfg := config.Load()
	zlog := logging.New("api", cfg.Dev)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := kvstore.New(ctx, cfg.RedisURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("could not connect to redis")
	}
	defer store.Close()

	// The proxied-message store and the admin-token hash table are both
	// external collaborators per spec.md §1; this repo only owns the
	// interfaces (internal/docstore.Store, queryapi.HashLookup) they
	// plug into. unconfiguredStore/unconfiguredHashes stand in until a
	// real Mongo-backed store and token table are wired at deploy time.
	auth := queryapi.NewAuthenticator(cfg.InternalMasterToken, unconfiguredHashes{}, store)
	api := queryapi.New(auth, unconfiguredStore{}, store, zlog)

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		zlog.Info().Str("addr", listenAddr).Msg("query api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("query api server failed")
		}
	}()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc

	zlog.Info().Msg("shutting down query api")
	_ = srv.Close()
}

type unconfiguredStore struct{}

func (unconfiguredStore) FindMessage(ctx context.Context, channelID, messageID string) (*docstore.Message, error) {
	return nil, docstore.ErrNotFound
}

type unconfiguredHashes struct{}

func (unconfiguredHashes) Hash(ctx context.Context, tokenID string) (string, bool, error) {
	return "", false, nil
}
