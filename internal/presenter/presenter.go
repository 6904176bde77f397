// Package presenter turns an account statistics record into display
// directives for the dashboard's named slots and the win-rate gauge.
//
// Presenting is pure: the same record always yields the same directives and
// nothing is cached between calls. Applying directives to a page or terminal
// is the job of the render package.
package presenter

import (
	"fmt"
	"math"

	"oanda-dashboard/internal/stats"
)

// Slot names an output location on the performance page.
type Slot string

const (
	SlotYearToDate     Slot = "ytd"
	SlotRealizedPL     Slot = "rpl"
	SlotUnrealizedPL   Slot = "upl"
	SlotProfitFactor   Slot = "pf"
	SlotInitialBalance Slot = "ib"
)

// Slots lists every slot in page order.
var Slots = []Slot{SlotYearToDate, SlotRealizedPL, SlotUnrealizedPL, SlotProfitFactor, SlotInitialBalance}

// Style is the classification applied to a slot.
type Style string

const (
	StylePositive Style = "positive"
	StyleNegative Style = "negative"
	StyleWarning  Style = "warning"
	StyleNeutral  Style = "neutral"
)

// Icon is an optional indicator shown before a slot's text.
type Icon string

const (
	IconNone Icon = ""
	IconUp   Icon = "arrow-up"
	IconDown Icon = "arrow-down"
)

// Directive is what one slot should display.
type Directive struct {
	Text  string `json:"text"`
	Style Style  `json:"style"`
	Icon  Icon   `json:"icon,omitempty"`
}

// Presentation is the full output of one Present call.
type Presentation struct {
	Slots map[Slot]Directive `json:"slots"`
	Gauge float64            `json:"gauge"`
}

// Presenter formats money with a fixed currency symbol.
type Presenter struct {
	currency string
}

func New(currency string) *Presenter {
	return &Presenter{currency: currency}
}

// Classify is the two-way P/L classification. Zero is a loss.
func Classify(v float64) Style {
	if v > 0 {
		return StylePositive
	}
	return StyleNegative
}

// ClassifyProfitFactor grades a profit factor: above 2 is positive, above 1 a
// warning, anything else negative.
func ClassifyProfitFactor(pf float64) Style {
	switch {
	case pf > 2:
		return StylePositive
	case pf > 1:
		return StyleWarning
	default:
		return StyleNegative
	}
}

// Present derives the directives for every slot and the gauge value.
// A record holding NaN or infinite values is rejected with stats.ErrMalformedRecord.
func (p *Presenter) Present(r stats.Record) (Presentation, error) {
	if err := checkFinite(r); err != nil {
		return Presentation{}, err
	}

	ytdIcon := IconDown
	if r.ProfitLossPercent > 0 {
		ytdIcon = IconUp
	}

	return Presentation{
		Slots: map[Slot]Directive{
			SlotYearToDate: {
				Text:  FormatPercent(r.ProfitLossPercent),
				Style: Classify(r.ProfitLossPercent),
				Icon:  ytdIcon,
			},
			SlotRealizedPL: {
				Text:  FormatMoney(p.currency, r.RealizedProfitLoss, 2),
				Style: Classify(r.RealizedProfitLoss),
			},
			SlotUnrealizedPL: {
				Text:  FormatMoney(p.currency, r.UnrealizedProfitLoss, 2),
				Style: Classify(r.UnrealizedProfitLoss),
			},
			SlotProfitFactor: {
				Text:  FormatRatio(r.ProfitFactor),
				Style: ClassifyProfitFactor(r.ProfitFactor),
			},
			SlotInitialBalance: {
				Text:  FormatMoney(p.currency, r.InitialBalance, 0),
				Style: StyleNeutral,
			},
		},
		Gauge: GaugeValue(r.WinPercent),
	}, nil
}

func checkFinite(r stats.Record) error {
	fields := map[string]float64{
		"pl_pct":          r.ProfitLossPercent,
		"pl":              r.RealizedProfitLoss,
		"unrealized_pL":   r.UnrealizedProfitLoss,
		"profit_factor":   r.ProfitFactor,
		"initial_balance": r.InitialBalance,
		"win_percent":     r.WinPercent,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", stats.ErrMalformedRecord, name)
		}
	}
	return nil
}
