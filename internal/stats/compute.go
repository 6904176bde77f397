package stats

import (
	"oanda-dashboard/internal/storage"

	"github.com/shopspring/decimal"
)

// WinLoss counts closed trades by outcome. A trade closed at exactly zero is a loss.
type WinLoss struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// Total returns the number of closed trades counted.
func (w WinLoss) Total() int {
	return w.Wins + w.Losses
}

// Compute derives the statistics record of an account from its latest summary
// and the trades opened since the start date. Money is summed in decimal.
func Compute(snapshot storage.AccountSnapshot, trades []storage.Trade) Record {
	var (
		realized    = decimal.Zero
		grossProfit = decimal.Zero
		grossLoss   = decimal.Zero
		outcome     WinLoss
	)

	for _, t := range trades {
		if !t.Closed() {
			continue
		}
		pl := decimal.NewFromFloat(t.PL)
		realized = realized.Add(pl)
		if pl.IsPositive() {
			grossProfit = grossProfit.Add(pl)
			outcome.Wins++
		} else {
			grossLoss = grossLoss.Add(pl.Abs())
			outcome.Losses++
		}
	}

	initial := decimal.NewFromFloat(snapshot.InitialBalance())

	record := Record{
		RealizedProfitLoss:   realized.InexactFloat64(),
		UnrealizedProfitLoss: snapshot.UnrealizedPL,
		InitialBalance:       initial.InexactFloat64(),
	}
	if initial.IsPositive() {
		record.ProfitLossPercent = realized.Div(initial).InexactFloat64()
	}
	// no losing trades leaves the profit factor at zero
	if grossLoss.IsPositive() {
		record.ProfitFactor = grossProfit.Div(grossLoss).InexactFloat64()
	}
	if outcome.Total() > 0 {
		record.WinPercent = float64(outcome.Wins) / float64(outcome.Total())
	}
	return record
}

// Outcomes counts wins and losses among the closed trades.
func Outcomes(trades []storage.Trade) WinLoss {
	var w WinLoss
	for _, t := range trades {
		if !t.Closed() {
			continue
		}
		if t.PL > 0 {
			w.Wins++
		} else {
			w.Losses++
		}
	}
	return w
}
