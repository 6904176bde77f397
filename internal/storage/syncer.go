package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Source is a broker that can describe an account and list its trades.
type Source interface {
	Summary(ctx context.Context, accountID string) (AccountSnapshot, error)
	Trades(ctx context.Context, accountID string, count int) ([]Trade, error)
}

// SyncMetrics defines the metrics methods needed by the syncer
type SyncMetrics interface {
	SyncCompleted(seconds float64, trades int)
	SyncErrorInc()
	AccountNAVSet(env, account string, nav float64)
}

// SyncTarget is one account to mirror into the store.
type SyncTarget struct {
	Env       string
	Alias     string
	AccountID string
	Source    Source
}

// Syncer periodically copies account summaries and trades from the broker into the store.
type Syncer struct {
	store    *Store
	targets  []SyncTarget
	interval time.Duration
	count    int
	metrics  SyncMetrics
}

// NewSyncer creates a syncer pulling up to count trades per account every interval.
func NewSyncer(store *Store, targets []SyncTarget, interval time.Duration, count int) *Syncer {
	if interval <= 0 {
		interval = time.Minute
	}
	if count <= 0 {
		count = 500
	}
	return &Syncer{
		store:    store,
		targets:  targets,
		interval: interval,
		count:    count,
	}
}

// SetMetrics sets the metrics interface for reporting
func (s *Syncer) SetMetrics(m SyncMetrics) {
	s.metrics = m
}

// Run syncs immediately and then on every tick until ctx is done.
func (s *Syncer) Run(ctx context.Context) error {
	if err := s.SyncOnce(ctx); err != nil {
		log.Warn().Err(err).Msg("initial broker sync failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.SyncOnce(ctx); err != nil {
				log.Warn().Err(err).Msg("broker sync failed")
			}
		}
	}
}

// SyncOnce syncs every target. A failing account does not stop the others;
// all failures are returned joined.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	var errs []error
	for _, target := range s.targets {
		start := time.Now()
		n, err := s.syncTarget(ctx, target)
		if err != nil {
			if s.metrics != nil {
				s.metrics.SyncErrorInc()
			}
			errs = append(errs, fmt.Errorf("%s/%s: %w", target.Env, target.Alias, err))
			continue
		}
		if s.metrics != nil {
			s.metrics.SyncCompleted(time.Since(start).Seconds(), n)
		}
		log.Debug().
			Str("env", target.Env).
			Str("account", target.Alias).
			Int("trades", n).
			Dur("took", time.Since(start)).
			Msg("Account synced")
	}
	return errors.Join(errs...)
}

func (s *Syncer) syncTarget(ctx context.Context, target SyncTarget) (int, error) {
	snapshot, err := target.Source.Summary(ctx, target.AccountID)
	if err != nil {
		return 0, fmt.Errorf("summary: %w", err)
	}
	// keyed by the configured ID, not the one the broker reports
	snapshot.Account = target.AccountID
	snapshot.Alias = target.Alias
	if snapshot.Ts.IsZero() {
		snapshot.Ts = time.Now()
	}

	trades, err := target.Source.Trades(ctx, target.AccountID, s.count)
	if err != nil {
		return 0, fmt.Errorf("trades: %w", err)
	}

	if err := s.store.StoreTrades(trades); err != nil {
		return 0, fmt.Errorf("store trades: %w", err)
	}
	if err := s.store.StoreSnapshot(snapshot); err != nil {
		return 0, fmt.Errorf("store snapshot: %w", err)
	}

	if s.metrics != nil {
		s.metrics.AccountNAVSet(target.Env, target.Alias, snapshot.NAV)
	}
	return len(trades), nil
}
