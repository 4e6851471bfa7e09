package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"histotrek/internal/api"
	"histotrek/internal/concurrent"
	"histotrek/internal/config"
	"histotrek/pkg/factory"
	"histotrek/pkg/logger"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	statsInterval   = 15 * time.Second
)

func main() {
	flags := pflag.NewFlagSet("histotrek", pflag.ExitOnError)
	config.RegisterFlags(flags)
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration could not be loaded: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.LogLevel(cfg.LogLevel), os.Stdout, cfg.IsDevelopment())
	log.Info("Histotrek starting", map[string]interface{}{"env": cfg.AppEnv, "locale": cfg.Locale})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Histotrek stopped with an error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	log.Info("Histotrek stopped", nil)
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	appFactory, err := factory.NewFactory(startCtx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := appFactory.Close(); err != nil {
			log.Error("Shutdown was not clean", map[string]interface{}{"error": err.Error()})
		}
	}()

	if err := appFactory.GetMigrationService().Run(startCtx, cfg.Database); err != nil {
		return err
	}

	user, err := appFactory.GetAuthService().RestoreSession(startCtx)
	if err != nil {
		return err
	}
	if user != nil {
		log.Info("Welcome back", map[string]interface{}{"username": user.Username, "role": user.Role})
	}

	if warmer, ok := appFactory.GetPlaceService().(interface{ WarmUp(context.Context) error }); ok {
		if err := warmer.WarmUp(startCtx); err != nil {
			log.Warn("Place cache could not be warmed up", map[string]interface{}{"error": err.Error()})
		}
	}

	var server *http.Server
	if cfg.Metrics.Addr != "" {
		server = serveOps(cfg.Metrics.Addr, api.NewOpsHandler(appFactory, log), log)
	}

	collector := concurrent.NewStatsCollector(appFactory.GetConnectionManager(), statsInterval, log)
	collector.Run(ctx)

	log.Info("Shutting down", map[string]interface{}{"peak_in_use": collector.GetStats().PeakInUse})
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Ops server did not stop cleanly", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func serveOps(addr string, handler http.Handler, log logger.Logger) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Ops server listening", map[string]interface{}{"addr": addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Ops server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	return server
}
