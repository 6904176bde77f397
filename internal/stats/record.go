// Package stats defines the account statistics record, computes it from the
// ledger and fetches it over HTTP from a running dashboard.
package stats

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord means a payload was received but a required field is
	// missing or not numeric.
	ErrMalformedRecord = errors.New("malformed statistics record")
	// ErrFetchFailure means the statistics request did not complete successfully.
	ErrFetchFailure = errors.New("statistics fetch failed")
)

// Record is the statistics of one account since a start date.
type Record struct {
	ProfitLossPercent    float64 `json:"pl_pct"`          // signed fraction, 0.0532 = +5.32%
	RealizedProfitLoss   float64 `json:"pl"`              // signed amount
	UnrealizedProfitLoss float64 `json:"unrealized_pL"`   // signed amount
	ProfitFactor         float64 `json:"profit_factor"`   // gross profit / gross loss
	InitialBalance       float64 `json:"initial_balance"` // balance before realized P/L
	WinPercent           float64 `json:"win_percent"`     // fraction in [0,1]
}

// Envelope is the body of the statistics endpoint.
type Envelope struct {
	Status int    `json:"status"`
	Data   Record `json:"data"`
}

// wireRecord distinguishes absent and null fields from zero values.
type wireRecord struct {
	ProfitLossPercent    *float64 `json:"pl_pct"`
	RealizedProfitLoss   *float64 `json:"pl"`
	UnrealizedProfitLoss *float64 `json:"unrealized_pL"`
	ProfitFactor         *float64 `json:"profit_factor"`
	InitialBalance       *float64 `json:"initial_balance"`
	WinPercent           *float64 `json:"win_percent"`
}

// Decode parses a `{"data": {...}}` body. Every field must be present and numeric.
func Decode(body []byte) (Record, error) {
	var envelope struct {
		Data *json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if envelope.Data == nil {
		return Record{}, fmt.Errorf("%w: missing data object", ErrMalformedRecord)
	}

	var w wireRecord
	if err := json.Unmarshal(*envelope.Data, &w); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	fields := []struct {
		name string
		v    *float64
	}{
		{"pl_pct", w.ProfitLossPercent},
		{"pl", w.RealizedProfitLoss},
		{"unrealized_pL", w.UnrealizedProfitLoss},
		{"profit_factor", w.ProfitFactor},
		{"initial_balance", w.InitialBalance},
		{"win_percent", w.WinPercent},
	}
	for _, f := range fields {
		if f.v == nil {
			return Record{}, fmt.Errorf("%w: missing field %s", ErrMalformedRecord, f.name)
		}
	}

	return Record{
		ProfitLossPercent:    *w.ProfitLossPercent,
		RealizedProfitLoss:   *w.RealizedProfitLoss,
		UnrealizedProfitLoss: *w.UnrealizedProfitLoss,
		ProfitFactor:         *w.ProfitFactor,
		InitialBalance:       *w.InitialBalance,
		WinPercent:           *w.WinPercent,
	}, nil
}
