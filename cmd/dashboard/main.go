package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"oanda-dashboard/internal/broker/oanda"
	"oanda-dashboard/internal/cfg"
	"oanda-dashboard/internal/common"
	"oanda-dashboard/internal/dashboard"
	"oanda-dashboard/internal/metrics"
	"oanda-dashboard/internal/storage"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	loadDotEnv()
	setupLogging(os.Getenv(common.EnvLogLevel))

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go waitForSignal(ctx, cancel)

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store, err := initializeStorage(c)
	if err != nil {
		log.Fatal().Err(err).Msg("storage initialization failed")
	}
	defer store.Close()

	syncer := storage.NewSyncer(store, buildTargets(c), c.SyncInterval, c.TradesPerPull)
	syncer.SetMetrics(mw)

	var startFrom time.Time
	if c.DefaultStartFrom != "" {
		// validated by cfg.Load
		startFrom, _ = time.Parse(common.DefaultDateLayout, c.DefaultStartFrom)
	}
	srv := dashboard.NewServer(store, &c, dashboard.Options{
		Port:             c.ListenPort,
		Currency:         c.Currency,
		DefaultStartFrom: startFrom,
		PushInterval:     c.PushInterval,
	})
	srv.SetMetrics(mw)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(syncer.Run(gctx)) })
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return runMetricsServer(gctx, c.MetricsPort) })

	log.Info().
		Str("env", c.DefaultEnv).
		Int("port", c.ListenPort).
		Int("metrics_port", c.MetricsPort).
		Msg("Dashboard started")

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("dashboard stopped with error")
	}
	log.Info().Msg("shutdown complete")
}

// loadDotEnv reads DOTENV_FILE, or .env, when present.
func loadDotEnv() {
	path := os.Getenv(common.EnvDotEnvFile)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("file", path).Msg("failed to load env file")
	}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
}

// initializeStorage opens the ledger under DATA_PATH, or ./data by default.
func initializeStorage(c cfg.Settings) (*storage.Store, error) {
	path := c.DataPath
	if path == "" {
		path = "data"
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return storage.New(path)
}

// buildTargets creates one broker client per environment and a sync target
// per configured account.
func buildTargets(c cfg.Settings) []storage.SyncTarget {
	envs := make([]string, 0, len(c.Profiles))
	for env := range c.Profiles {
		envs = append(envs, env)
	}
	sort.Strings(envs)

	var targets []storage.SyncTarget
	for _, env := range envs {
		p, _ := c.Profile(env)
		client := oanda.NewREST(p.Token, p.BaseURL, c.RESTTimeout)
		for _, alias := range c.Aliases(env) {
			targets = append(targets, storage.SyncTarget{
				Env:       env,
				Alias:     alias,
				AccountID: p.Accounts[alias],
				Source:    client,
			})
		}
	}
	return targets
}

// runMetricsServer serves Prometheus metrics and a health check until ctx is done.
func runMetricsServer(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown metrics server")
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

func waitForSignal(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		return
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
