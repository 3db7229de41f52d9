package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sandwich-relay/sandwich/internal/config"
	"github.com/sandwich-relay/sandwich/internal/egress"
	"github.com/sandwich-relay/sandwich/internal/logging"
	"github.com/sandwich-relay/sandwich/internal/ratelimit"
)

const (
	listenAddr        = "0.0.0.0:8086"
	maxJSONBodyBytes  = 5 << 20
	maxFormBodyBytes  = 26214400
	readHeaderTimeout = 10 * time.Second
)

func main() {
	cfg := config.Load()
	zlog := logging.New("egress", cfg.Dev)

	governor := egress.New(ratelimit.NewRegistry(), zlog)

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           governor,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		zlog.Info().Str("addr", listenAddr).Msg("egress governor listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("egress server failed")
		}
	}()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc

	zlog.Info().Msg("shutting down egress governor")
	_ = srv.Close()
}
