package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oanda-dashboard/internal/common"
	"oanda-dashboard/internal/metrics"
	"oanda-dashboard/internal/presenter"
	"oanda-dashboard/internal/render"
	"oanda-dashboard/internal/stats"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// .env is optional for the CLI
	_ = godotenv.Load()

	var (
		baseURL   = flag.String("url", envOr(common.EnvStatsURL, common.DefaultStatsURL), "Dashboard base URL")
		env       = flag.String("env", envOr(common.EnvTradingEnv, common.EnvPractice), "Trading environment: practice or live")
		account   = flag.String("account", "", "Account alias or ID")
		startDate = flag.String("start", "", "Start date (YYYY-MM-DD)")
		currency  = flag.String("currency", envOr(common.EnvCurrency, common.DefaultCurrency), "Currency symbol")
		timeout   = flag.Duration("timeout", 5*time.Second, "Request timeout")
		watch     = flag.Duration("watch", 0, "Re-render every interval until interrupted (0 renders once)")
		logLevel  = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
		metricsAt = flag.String("metrics-addr", "", "Serve fetch and render metrics on this address while watching (empty disables)")
	)
	flag.Parse()

	// Setup logging
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *account == "" {
		fmt.Fprintln(os.Stderr, "statsctl: -account is required")
		flag.Usage()
		os.Exit(2)
	}
	if *env != common.EnvPractice && *env != common.EnvLive {
		log.Fatal().Str("env", *env).Msg(common.ErrMsgInvalidEnv)
	}

	var startFrom time.Time
	if *startDate != "" {
		startFrom, err = time.Parse(common.DefaultDateLayout, *startDate)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid start date format")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	board := render.NewConsoleBoard(fmt.Sprintf("%s / %s", *env, *account))
	renderer := newRenderer(*baseURL, *timeout, *currency, board.Surface(), registry)
	req := render.Request{Env: *env, Account: *account, StartFrom: startFrom}

	if err := renderOnce(ctx, renderer, board, req); err != nil {
		log.Fatal().Err(err).Msg("Render failed")
	}
	if *watch <= 0 {
		return
	}
	if *metricsAt != "" {
		go serveMetrics(ctx, *metricsAt, registry)
	}

	ticker := time.NewTicker(*watch)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := renderOnce(ctx, renderer, board, req); err != nil {
				// keep showing the last good render
				log.Error().Err(err).Msg("Render failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// newRenderer wires the statistics client and renderer to a fresh metrics set
// registered on registerer.
func newRenderer(baseURL string, timeout time.Duration, currency string, surface *render.Surface, registerer prometheus.Registerer) *render.Renderer {
	mw := metrics.NewWrapper(metrics.NewWithRegistry(registerer))

	client := stats.NewClient(baseURL, timeout)
	client.SetMetrics(mw)

	renderer := render.NewRenderer(client, presenter.New(currency), surface)
	renderer.SetMetrics(mw)
	return renderer
}

func serveMetrics(ctx context.Context, addr string, gatherer prometheus.Gatherer) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}

func renderOnce(ctx context.Context, r *render.Renderer, board *render.ConsoleBoard, req render.Request) error {
	_, err := r.Render(ctx, req)
	switch {
	case errors.Is(err, stats.ErrMalformedRecord):
		return fmt.Errorf("dashboard returned an unusable record: %w", err)
	case errors.Is(err, stats.ErrFetchFailure):
		return fmt.Errorf("statistics request failed: %w", err)
	case err != nil:
		return err
	}
	_, err = board.WriteTo(os.Stdout)
	return err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
