// Package chart prepares the win/loss pie dataset and the label overlay that is
// drawn on top of each slice once the chart library has laid it out.
package chart

import (
	"errors"
	"fmt"
	"math"

	"oanda-dashboard/internal/stats"

	"github.com/dustin/go-humanize"
	"github.com/lucasb-eyer/go-colorful"
)

// Slice colors used by the performance page.
const (
	WinColor  = "#FF6384"
	LossColor = "#4BC0C0"
)

// PercentLineOffset is the vertical distance between the value line and the
// percent line of a label.
const PercentLineOffset = 15.0

// startAngle matches the chart library's default rotation (12 o'clock).
const startAngle = -math.Pi / 2

var ErrGeometryMismatch = errors.New("slice geometry does not match dataset")

// Dataset is the chart input, index-aligned across fields.
type Dataset struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors"`
}

// WinLossDataset builds the two-category dataset for the pie chart.
func WinLossDataset(w stats.WinLoss) Dataset {
	return Dataset{
		Labels: []string{"Win", "Loss"},
		Values: []float64{float64(w.Wins), float64(w.Losses)},
		Colors: []string{WinColor, LossColor},
	}
}

// SliceGeometry is the laid-out shape of one slice. Angles are in radians.
type SliceGeometry struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	InnerRadius float64 `json:"innerRadius"`
	OuterRadius float64 `json:"outerRadius"`
	StartAngle  float64 `json:"startAngle"`
	EndAngle    float64 `json:"endAngle"`
	Hidden      bool    `json:"hidden,omitempty"`
}

// Label is the text drawn over one slice.
type Label struct {
	Index       int     `json:"index"`
	Category    string  `json:"category"`
	ValueText   string  `json:"valueText"`
	PercentText string  `json:"percentText"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	PercentY    float64 `json:"percentY"`
	Color       string  `json:"color"`
}

// Layout lays the dataset out as a full circle centred on (cx, cy), the way the
// chart library does for a pie with the given radii. Hidden slices get a zero
// sweep.
func Layout(ds Dataset, hidden map[int]bool, cx, cy, inner, outer float64) []SliceGeometry {
	total := visibleTotal(ds.Values, hidden)
	geoms := make([]SliceGeometry, len(ds.Values))
	angle := startAngle
	for i, v := range ds.Values {
		sweep := 0.0
		if total > 0 && !hidden[i] {
			sweep = 2 * math.Pi * v / total
		}
		geoms[i] = SliceGeometry{
			X:           cx,
			Y:           cy,
			InnerRadius: inner,
			OuterRadius: outer,
			StartAngle:  angle,
			EndAngle:    angle + sweep,
			Hidden:      hidden[i],
		}
		angle += sweep
	}
	return geoms
}

// Labels computes the overlay for every visible slice with a non-zero value.
// Each label sits at the slice's mid angle, halfway between its radii.
func Labels(ds Dataset, geoms []SliceGeometry) ([]Label, error) {
	if len(geoms) != len(ds.Values) {
		return nil, fmt.Errorf("%w: %d slices, %d values", ErrGeometryMismatch, len(geoms), len(ds.Values))
	}

	hidden := make(map[int]bool)
	for i, g := range geoms {
		if g.Hidden {
			hidden[i] = true
		}
	}
	total := visibleTotal(ds.Values, hidden)

	labels := make([]Label, 0, len(geoms))
	for i, g := range geoms {
		v := ds.Values[i]
		if v == 0 || g.Hidden || total == 0 {
			continue
		}

		midRadius := g.InnerRadius + (g.OuterRadius-g.InnerRadius)/2
		midAngle := g.StartAngle + (g.EndAngle-g.StartAngle)/2
		x := g.X + midRadius*math.Cos(midAngle)
		y := g.Y + midRadius*math.Sin(midAngle)

		var fill string
		if i < len(ds.Colors) {
			fill = ds.Colors[i]
		}
		var category string
		if i < len(ds.Labels) {
			category = ds.Labels[i]
		}

		labels = append(labels, Label{
			Index:       i,
			Category:    category,
			ValueText:   humanize.Ftoa(v),
			PercentText: fmt.Sprintf("%d%%", int(math.Floor(v/total*100+0.5))),
			X:           x,
			Y:           y,
			PercentY:    y + PercentLineOffset,
			Color:       ContrastColor(fill),
		})
	}
	return labels, nil
}

// ContrastColor picks dark text for light fills and white text otherwise.
// Unparseable fills get white.
func ContrastColor(fill string) string {
	c, err := colorful.Hex(fill)
	if err != nil {
		return "#ffffff"
	}
	l, _, _ := c.Lab()
	if l > 0.8 {
		return "#444444"
	}
	return "#ffffff"
}

func visibleTotal(values []float64, hidden map[int]bool) float64 {
	var total float64
	for i, v := range values {
		if !hidden[i] {
			total += v
		}
	}
	return total
}
