package stats

import (
	"context"
	"fmt"
	"time"

	"oanda-dashboard/internal/common"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FetchMetrics defines the metrics methods needed by the client
type FetchMetrics interface {
	StatsFetchInc()
	StatsFetchErrorInc()
	MalformedRecordInc()
	StatsFetchLatencyObserve(float64)
}

// Client fetches statistics records from the dashboard API.
type Client struct {
	base    string
	rest    *resty.Client
	metrics FetchMetrics
}

func NewClient(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &Client{base: base, rest: r}
}

// SetMetrics sets the metrics interface for reporting
func (c *Client) SetMetrics(m FetchMetrics) {
	c.metrics = m
}

// Fetch requests the statistics of account in env since startFrom. A zero
// startFrom lets the server pick its default. Failures are not retried.
func (c *Client) Fetch(ctx context.Context, env, account string, startFrom time.Time) (Record, error) {
	path := "/api/v1/{env}/account/{account}/stats"
	reqID := uuid.New().String()
	start := time.Now()

	if c.metrics != nil {
		c.metrics.StatsFetchInc()
	}

	req := c.rest.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", reqID).
		SetPathParams(map[string]string{
			"env":     env,
			"account": account,
		})
	if !startFrom.IsZero() {
		req.SetQueryParam("start_from", startFrom.Format(common.DefaultDateLayout))
	}

	resp, err := req.Get(c.base + path)
	if c.metrics != nil {
		c.metrics.StatsFetchLatencyObserve(time.Since(start).Seconds())
	}
	if err != nil {
		c.fetchFailed()
		return Record{}, fmt.Errorf("%w: %s/%s: %w", ErrFetchFailure, env, account, err)
	}
	if !resp.IsSuccess() {
		c.fetchFailed()
		return Record{}, fmt.Errorf("%w: %s/%s: status %d", ErrFetchFailure, env, account, resp.StatusCode())
	}

	record, err := Decode(resp.Body())
	if err != nil {
		if c.metrics != nil {
			c.metrics.MalformedRecordInc()
		}
		log.Warn().Err(err).Str("request_id", reqID).Str("account", account).Msg("Rejected statistics payload")
		return Record{}, err
	}

	log.Debug().
		Str("request_id", reqID).
		Str("env", env).
		Str("account", account).
		Dur("took", time.Since(start)).
		Msg("Statistics fetched")
	return record, nil
}

func (c *Client) fetchFailed() {
	if c.metrics != nil {
		c.metrics.StatsFetchErrorInc()
	}
}
