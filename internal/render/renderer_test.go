package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"oanda-dashboard/internal/presenter"
	"oanda-dashboard/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	recordA = stats.Record{ProfitLossPercent: 0.0532, RealizedProfitLoss: 150.5, UnrealizedProfitLoss: -20.25, ProfitFactor: 1.8, InitialBalance: 10000, WinPercent: 0.55}
	recordB = stats.Record{ProfitLossPercent: -0.01, RealizedProfitLoss: -42, UnrealizedProfitLoss: 3, ProfitFactor: 2.5, InitialBalance: 2500, WinPercent: 0.4}
)

type fakeFetcher struct {
	records map[string]stats.Record
	errs    map[string]error
	// accounts listed here block until their channel is closed
	block map[string]chan struct{}
	// accounts listed here block until their context is cancelled
	wait    map[string]bool
	started chan context.Context
}

func (f *fakeFetcher) Fetch(ctx context.Context, env, account string, _ time.Time) (stats.Record, error) {
	if ch, ok := f.block[account]; ok {
		f.started <- ctx
		<-ch
	}
	if f.wait[account] {
		f.started <- ctx
		<-ctx.Done()
		return stats.Record{}, fmt.Errorf("%w: %w", stats.ErrFetchFailure, ctx.Err())
	}
	if err := f.errs[account]; err != nil {
		return stats.Record{}, err
	}
	return f.records[account], nil
}

type mockRenderMetrics struct {
	mu         sync.Mutex
	applied    int
	superseded int
}

func (m *mockRenderMetrics) RenderAppliedInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied++
}

func (m *mockRenderMetrics) RenderSupersededInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.superseded++
}

func newTestRenderer(f Fetcher) (*Renderer, *MemoryBoard, *mockRenderMetrics) {
	board := NewMemoryBoard()
	r := NewRenderer(f, presenter.New("£"), board.Surface())
	m := &mockRenderMetrics{}
	r.SetMetrics(m)
	return r, board, m
}

func TestRenderer_Render(t *testing.T) {
	r, board, m := newTestRenderer(&fakeFetcher{records: map[string]stats.Record{"main": recordA}})

	p, err := r.Render(context.Background(), Request{Env: "practice", Account: "main"})
	require.NoError(t, err)

	assert.Equal(t, p, board.Presentation())
	assert.Equal(t, "5.32%", board.Targets[presenter.SlotYearToDate].Text())
	assert.Equal(t, presenter.IconUp, board.Targets[presenter.SlotYearToDate].Icon())
	assert.Equal(t, "£-20.25", board.Targets[presenter.SlotUnrealizedPL].Text())
	assert.Equal(t, presenter.StyleWarning, board.Targets[presenter.SlotProfitFactor].Style())
	assert.Equal(t, 55.0, board.Gauge.Value())
	assert.Equal(t, 1, m.applied)
	assert.Equal(t, uint64(1), r.Generation())
}

func TestRenderer_SupersededCompletionIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{
		records: map[string]stats.Record{"slow": recordA, "fast": recordB},
		block:   map[string]chan struct{}{"slow": release},
		started: make(chan context.Context, 1),
	}
	r, board, m := newTestRenderer(f)

	type result struct {
		p   presenter.Presentation
		err error
	}
	slowDone := make(chan result, 1)
	go func() {
		p, err := r.Render(context.Background(), Request{Env: "practice", Account: "slow"})
		slowDone <- result{p, err}
	}()
	slowCtx := <-f.started

	_, err := r.Render(context.Background(), Request{Env: "practice", Account: "fast"})
	require.NoError(t, err)
	assert.ErrorIs(t, slowCtx.Err(), context.Canceled)

	close(release)
	res := <-slowDone
	assert.ErrorIs(t, res.err, ErrSuperseded)

	// the surface still shows the newer render
	assert.Equal(t, "-1.00%", board.Targets[presenter.SlotYearToDate].Text())
	assert.Equal(t, "£2,500", board.Targets[presenter.SlotInitialBalance].Text())
	assert.Equal(t, 40.0, board.Gauge.Value())
	assert.Equal(t, 1, m.applied)
	assert.Equal(t, 1, m.superseded)
}

func TestRenderer_SupersededFetchIsCancelled(t *testing.T) {
	f := &fakeFetcher{
		records: map[string]stats.Record{"fast": recordB},
		wait:    map[string]bool{"stuck": true},
		started: make(chan context.Context, 1),
	}
	r, board, m := newTestRenderer(f)

	done := make(chan error, 1)
	go func() {
		_, err := r.Render(context.Background(), Request{Env: "live", Account: "stuck"})
		done <- err
	}()
	<-f.started

	_, err := r.Render(context.Background(), Request{Env: "live", Account: "fast"})
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded render did not return")
	}
	assert.Equal(t, "£-42.00", board.Targets[presenter.SlotRealizedPL].Text())
	assert.Equal(t, 1, m.superseded)
}

func TestRenderer_MalformedRecordLeavesSurfaceUntouched(t *testing.T) {
	malformed := fmt.Errorf("%w: profit_factor is missing", stats.ErrMalformedRecord)
	r, board, m := newTestRenderer(&fakeFetcher{errs: map[string]error{"bad": malformed}})

	_, err := r.Render(context.Background(), Request{Env: "practice", Account: "bad"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, stats.ErrMalformedRecord))
	assert.Equal(t, 0, board.Writes())
	assert.Equal(t, 0, m.applied)
}

func TestRenderer_FailureKeepsPreviousRender(t *testing.T) {
	f := &fakeFetcher{
		records: map[string]stats.Record{"main": recordA},
		errs:    map[string]error{"down": fmt.Errorf("%w: status 502", stats.ErrFetchFailure)},
	}
	r, board, _ := newTestRenderer(f)

	_, err := r.Render(context.Background(), Request{Env: "practice", Account: "main"})
	require.NoError(t, err)
	before := board.Presentation()
	writes := board.Writes()

	_, err = r.Render(context.Background(), Request{Env: "practice", Account: "down"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, stats.ErrFetchFailure))
	assert.Equal(t, before, board.Presentation())
	assert.Equal(t, writes, board.Writes())
}

func TestRenderer_RepeatedRenderIsStable(t *testing.T) {
	r, board, _ := newTestRenderer(&fakeFetcher{records: map[string]stats.Record{"main": recordA}})

	for i := 0; i < 3; i++ {
		_, err := r.Render(context.Background(), Request{Env: "practice", Account: "main"})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"positive"}, board.Targets[presenter.SlotRealizedPL].Classes())
	assert.Equal(t, uint64(3), r.Generation())
}
