// Package oanda is a minimal v20 REST client covering the account summary and
// trade list endpoints the dashboard mirrors.
package oanda

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"oanda-dashboard/internal/storage"

	"github.com/go-resty/resty/v2"
)

// ErrAPI is returned for any non-success response from the broker.
var ErrAPI = errors.New("oanda: api error")

type Client struct {
	token, base string
	rest        *resty.Client
}

func NewREST(token, base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	r.SetAuthToken(token)
	r.SetHeader("Accept-Datetime-Format", "RFC3339")
	return &Client{token: token, base: base, rest: r}
}

type apiError struct {
	ErrorMessage string `json:"errorMessage"`
}

type accountResp struct {
	Account struct {
		ID                string    `json:"id"`
		Alias             string    `json:"alias"`
		Currency          string    `json:"currency"`
		Balance           float64   `json:"balance,string"`
		PL                float64   `json:"pl,string"`
		UnrealizedPL      float64   `json:"unrealizedPL,string"`
		NAV               float64   `json:"NAV,string"`
		Financing         float64   `json:"financing,string"`
		OpenPositionCount int       `json:"openPositionCount"`
		OpenTradeCount    int       `json:"openTradeCount"`
		PendingOrderCount int       `json:"pendingOrderCount"`
		LastTransactionID string    `json:"lastTransactionID"`
		CreatedTime       time.Time `json:"createdTime"`
	} `json:"account"`
}

type tradeResp struct {
	ID                string    `json:"id"`
	Instrument        string    `json:"instrument"`
	Price             float64   `json:"price,string"`
	OpenTime          time.Time `json:"openTime"`
	InitialUnits      float64   `json:"initialUnits,string"`
	State             string    `json:"state"`
	RealizedPL        float64   `json:"realizedPL,string"`
	UnrealizedPL      string    `json:"unrealizedPL"`
	Financing         float64   `json:"financing,string"`
	CloseTime         time.Time `json:"closeTime"`
	AverageClosePrice string    `json:"averageClosePrice"`
}

type tradesResp struct {
	Trades []tradeResp `json:"trades"`
}

// Summary fetches the account summary.
func (c *Client) Summary(ctx context.Context, accountID string) (storage.AccountSnapshot, error) {
	path := fmt.Sprintf("/v3/accounts/%s/summary", accountID)

	result := &accountResp{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&apiError{}).
		Get(c.base + path)
	if err != nil {
		return storage.AccountSnapshot{}, fmt.Errorf("request failed: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return storage.AccountSnapshot{}, err
	}

	a := result.Account
	return storage.AccountSnapshot{
		Account:           a.ID,
		Alias:             a.Alias,
		Currency:          a.Currency,
		Balance:           a.Balance,
		PL:                a.PL,
		UnrealizedPL:      a.UnrealizedPL,
		NAV:               a.NAV,
		Financing:         a.Financing,
		OpenPositionCount: a.OpenPositionCount,
		OpenTradeCount:    a.OpenTradeCount,
		PendingOrderCount: a.PendingOrderCount,
		LastTransactionID: a.LastTransactionID,
		CreatedTime:       a.CreatedTime,
		Ts:                time.Now(),
	}, nil
}

// Trades fetches up to count of the most recent trades in any state.
func (c *Client) Trades(ctx context.Context, accountID string, count int) ([]storage.Trade, error) {
	path := fmt.Sprintf("/v3/accounts/%s/trades", accountID)

	params := map[string]string{
		"state": "ALL",
		"count": strconv.Itoa(count),
	}

	result := &tradesResp{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(result).
		SetError(&apiError{}).
		Get(c.base + path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	trades := make([]storage.Trade, 0, len(result.Trades))
	for _, t := range result.Trades {
		trade, err := convertTrade(accountID, t)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

func convertTrade(accountID string, t tradeResp) (storage.Trade, error) {
	side := storage.SideLong
	if t.InitialUnits < 0 {
		side = storage.SideShort
	}

	trade := storage.Trade{
		ID:         t.ID,
		Account:    accountID,
		Instrument: t.Instrument,
		Side:       side,
		Units:      math.Abs(t.InitialUnits),
		EntryPrice: t.Price,
		Financing:  t.Financing,
		State:      t.State,
		OpenTime:   t.OpenTime,
	}

	var err error
	if t.State == storage.TradeClosed {
		trade.PL = t.RealizedPL
		trade.CloseTime = t.CloseTime
		trade.ExitPrice, err = parseAmount("averageClosePrice", t.AverageClosePrice)
	} else {
		trade.PL, err = parseAmount("unrealizedPL", t.UnrealizedPL)
	}
	if err != nil {
		return storage.Trade{}, fmt.Errorf("trade %s: %w", t.ID, err)
	}
	return trade, nil
}

// parseAmount parses an optional decimal string field. An absent field is zero.
func parseAmount(field, v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrAPI, field, v)
	}
	return f, nil
}

func checkResponse(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	if e, ok := resp.Error().(*apiError); ok && e.ErrorMessage != "" {
		return fmt.Errorf("%w: status %d: %s", ErrAPI, resp.StatusCode(), e.ErrorMessage)
	}
	return fmt.Errorf("%w: status %d", ErrAPI, resp.StatusCode())
}
