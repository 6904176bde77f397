package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"oanda-dashboard/internal/presenter"
	"oanda-dashboard/internal/stats"

	"github.com/rs/zerolog/log"
)

var ErrSuperseded = errors.New("render superseded by a newer request")

// Fetcher is the statistics source, stats.Client in production.
type Fetcher interface {
	Fetch(ctx context.Context, env, account string, startFrom time.Time) (stats.Record, error)
}

// RenderMetrics defines the metrics methods needed by the renderer
type RenderMetrics interface {
	RenderAppliedInc()
	RenderSupersededInc()
}

// Request selects the account and period to render.
type Request struct {
	Env       string
	Account   string
	StartFrom time.Time
}

// Renderer drives one surface. Every Render call takes a new generation and
// cancels the one before it; only the latest generation may write to the
// surface.
type Renderer struct {
	fetcher   Fetcher
	presenter *presenter.Presenter
	surface   *Surface
	metrics   RenderMetrics

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

func NewRenderer(fetcher Fetcher, p *presenter.Presenter, surface *Surface) *Renderer {
	return &Renderer{fetcher: fetcher, presenter: p, surface: surface}
}

// SetMetrics sets the metrics interface for reporting
func (r *Renderer) SetMetrics(m RenderMetrics) {
	r.metrics = m
}

// Render fetches the record for req, presents it and applies it. The surface
// is left untouched when the fetch fails, the record is malformed, or a newer
// Render started in the meantime (ErrSuperseded).
func (r *Renderer) Render(ctx context.Context, req Request) (presenter.Presentation, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.generation++
	gen := r.generation
	r.cancel = cancel
	r.mu.Unlock()

	record, err := r.fetcher.Fetch(ctx, req.Env, req.Account, req.StartFrom)
	if err != nil {
		if r.isSuperseded(gen) {
			return presenter.Presentation{}, r.superseded(req, gen)
		}
		return presenter.Presentation{}, fmt.Errorf("render %s/%s: %w", req.Env, req.Account, err)
	}

	p, err := r.presenter.Present(record)
	if err != nil {
		return presenter.Presentation{}, fmt.Errorf("render %s/%s: %w", req.Env, req.Account, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return presenter.Presentation{}, r.superseded(req, gen)
	}
	if err := r.surface.Apply(p); err != nil {
		return presenter.Presentation{}, err
	}
	r.cancel = nil
	if r.metrics != nil {
		r.metrics.RenderAppliedInc()
	}
	return p, nil
}

// Generation returns the number of renders started so far.
func (r *Renderer) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

func (r *Renderer) isSuperseded(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gen != r.generation
}

func (r *Renderer) superseded(req Request, gen uint64) error {
	if r.metrics != nil {
		r.metrics.RenderSupersededInc()
	}
	log.Debug().
		Str("env", req.Env).
		Str("account", req.Account).
		Uint64("generation", gen).
		Msg("Discarding superseded render")
	return ErrSuperseded
}
