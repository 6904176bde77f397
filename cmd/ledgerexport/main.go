package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"oanda-dashboard/internal/common"
	"oanda-dashboard/internal/stats"
	"oanda-dashboard/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		dataPath   = flag.String("data", "data", "Path to data directory")
		account    = flag.String("account", "", "Broker account ID")
		outputPath = flag.String("output", "-", "Output file, - for stdout")
		startDate  = flag.String("start", "", "Only trades opened on or after this date (YYYY-MM-DD)")
		endDate    = flag.String("end", "", "Only trades opened before this date (YYYY-MM-DD)")
		state      = flag.String("state", "all", "Trade state: all, open, closed")
		withStats  = flag.Bool("stats", false, "Log the statistics record of the exported trades")
		logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	// Setup logging
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *account == "" {
		log.Fatal().Msg("-account is required")
	}

	var start, end time.Time
	if *startDate != "" {
		if start, err = time.Parse(common.DefaultDateLayout, *startDate); err != nil {
			log.Fatal().Err(err).Msg("Invalid start date format")
		}
	}
	if *endDate != "" {
		if end, err = time.Parse(common.DefaultDateLayout, *endDate); err != nil {
			log.Fatal().Err(err).Msg("Invalid end date format")
		}
	}

	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger (is the dashboard still running?)")
	}
	defer store.Close()

	trades, err := store.GetTrades(*account, start, end)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read trades")
	}
	trades = filterTrades(trades, *state)
	if len(trades) == 0 {
		log.Warn().Msg("No trades found matching criteria")
	}

	var out io.Writer = os.Stdout
	if *outputPath != "-" {
		f, err := os.Create(*outputPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create output file")
		}
		defer f.Close()
		out = f
	}

	// newline-delimited JSON, one trade per line
	n, err := writeTrades(out, trades)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write trades")
	}
	log.Info().Int("trades", n).Str("output", *outputPath).Msg("Export complete")

	if *withStats {
		snapshot, err := store.GetSnapshot(*account)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read account summary")
		}
		r := stats.Compute(snapshot, trades)
		outcome := stats.Outcomes(trades)
		log.Info().
			Float64("pl_pct", r.ProfitLossPercent).
			Float64("pl", r.RealizedProfitLoss).
			Float64("unrealized_pL", r.UnrealizedProfitLoss).
			Float64("profit_factor", r.ProfitFactor).
			Float64("initial_balance", r.InitialBalance).
			Float64("win_percent", r.WinPercent).
			Int("wins", outcome.Wins).
			Int("losses", outcome.Losses).
			Msg("Statistics")
	}
}

func filterTrades(trades []storage.Trade, state string) []storage.Trade {
	if state == "all" {
		return trades
	}
	out := trades[:0]
	for _, t := range trades {
		if (state == "closed") == t.Closed() {
			out = append(out, t)
		}
	}
	return out
}

// writeTrades skips trades whose figures are not finite numbers.
func writeTrades(w io.Writer, trades []storage.Trade) (int, error) {
	enc := json.NewEncoder(w)
	n := 0
	for _, t := range trades {
		if !isFinite(t.PL) || !isFinite(t.Units) || !isFinite(t.EntryPrice) {
			log.Warn().Str("trade", t.ID).Msg("Skipping trade with invalid figures")
			continue
		}
		if err := enc.Encode(t); err != nil {
			return n, fmt.Errorf("encode trade %s: %w", t.ID, err)
		}
		n++
	}
	return n, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
