package stats

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFetchMetrics struct {
	mu                        sync.Mutex
	fetches, errors, malformed int
	latencies                 int
}

func (m *mockFetchMetrics) StatsFetchInc()      { m.mu.Lock(); m.fetches++; m.mu.Unlock() }
func (m *mockFetchMetrics) StatsFetchErrorInc() { m.mu.Lock(); m.errors++; m.mu.Unlock() }
func (m *mockFetchMetrics) MalformedRecordInc() { m.mu.Lock(); m.malformed++; m.mu.Unlock() }
func (m *mockFetchMetrics) StatsFetchLatencyObserve(float64) {
	m.mu.Lock()
	m.latencies++
	m.mu.Unlock()
}

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/practice/account/primary/stats", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start_from"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":200,"data":{"pl_pct":0.0532,"pl":150.5,"unrealized_pL":-20.25,"profit_factor":1.8,"initial_balance":10000,"win_percent":0.55}}`))
	}))
	defer srv.Close()

	m := &mockFetchMetrics{}
	c := NewClient(srv.URL, time.Second)
	c.SetMetrics(m)

	record, err := c.Fetch(context.Background(), "practice", "primary", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 0.55, record.WinPercent)
	assert.Equal(t, 1, m.fetches)
	assert.Equal(t, 1, m.latencies)
	assert.Zero(t, m.errors)
}

func TestClient_FetchOmitsZeroStartDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["start_from"]
		assert.False(t, present)
		w.Write([]byte(`{"data":{"pl_pct":0,"pl":0,"unrealized_pL":0,"profit_factor":0,"initial_balance":0,"win_percent":0}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Fetch(context.Background(), "practice", "primary", time.Time{})
	assert.NoError(t, err)
}

func TestClient_FetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"data":{"pl_pct":1,"pl":1,"unrealized_pL":1,"profit_factor":1,"initial_balance":1,"win_percent":1}}`))
	}))
	defer srv.Close()

	m := &mockFetchMetrics{}
	c := NewClient(srv.URL, time.Second)
	c.SetMetrics(m)

	_, err := c.Fetch(context.Background(), "practice", "primary", time.Time{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchFailure))
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, 1, m.errors)
}

func TestClient_FetchMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"pl_pct":0.1}}`))
	}))
	defer srv.Close()

	m := &mockFetchMetrics{}
	c := NewClient(srv.URL, time.Second)
	c.SetMetrics(m)

	_, err := c.Fetch(context.Background(), "practice", "primary", time.Time{})
	assert.ErrorIs(t, err, ErrMalformedRecord)
	assert.Equal(t, 1, m.malformed)
	assert.Zero(t, m.errors)
}

func TestClient_FetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Fetch(context.Background(), "practice", "primary", time.Time{})
	assert.ErrorIs(t, err, ErrFetchFailure)
}

func TestClient_FetchCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewClient(srv.URL, 5*time.Second).Fetch(ctx, "practice", "primary", time.Time{})
	assert.ErrorIs(t, err, ErrFetchFailure)
	assert.ErrorIs(t, err, context.Canceled)
}
