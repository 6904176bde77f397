package storage

import "time"

// Trade states as reported by the broker
const (
	TradeOpen   = "OPEN"
	TradeClosed = "CLOSED"
)

// Trade sides
const (
	SideLong  = "long"
	SideShort = "short"
)

// Trade is one broker trade. PL holds the realized P/L of a closed trade and
// the unrealized P/L of an open one.
type Trade struct {
	ID         string    `json:"id"`
	Account    string    `json:"account"`
	Instrument string    `json:"instrument"`
	Side       string    `json:"side"`
	Units      float64   `json:"units"`
	EntryPrice float64   `json:"entryPrice"`
	ExitPrice  float64   `json:"exitPrice,omitempty"`
	PL         float64   `json:"pl"`
	Financing  float64   `json:"financing"`
	State      string    `json:"state"`
	OpenTime   time.Time `json:"openTime"`
	CloseTime  time.Time `json:"closeTime,omitempty"`
}

// Closed reports whether the trade's P/L is realized.
func (t Trade) Closed() bool {
	return t.State == TradeClosed
}

// AccountSnapshot is the account summary captured at one sync.
type AccountSnapshot struct {
	Account           string    `json:"account"`
	Alias             string    `json:"alias"`
	Currency          string    `json:"currency"`
	Balance           float64   `json:"balance"`
	PL                float64   `json:"pl"`
	UnrealizedPL      float64   `json:"unrealizedPL"`
	NAV               float64   `json:"nav"`
	Financing         float64   `json:"financing"`
	OpenPositionCount int       `json:"openPositionCount"`
	OpenTradeCount    int       `json:"openTradeCount"`
	PendingOrderCount int       `json:"pendingOrderCount"`
	LastTransactionID string    `json:"lastTransactionID"`
	CreatedTime       time.Time `json:"createdTime"`
	Ts                time.Time `json:"ts"`
}

// InitialBalance is the balance before any realized P/L or financing.
func (a AccountSnapshot) InitialBalance() float64 {
	return a.Balance - (a.PL + a.Financing)
}
