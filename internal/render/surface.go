// Package render applies presentations to output surfaces. A Surface is the
// injected set of named slot targets plus the gauge; the Renderer fetches,
// presents and applies, discarding completions that a newer render superseded.
package render

import (
	"errors"
	"fmt"

	"oanda-dashboard/internal/presenter"
)

var (
	ErrIncompleteSurface      = errors.New("surface is missing a slot target")
	ErrIncompletePresentation = errors.New("presentation is missing a slot")
)

// Target is one named output location.
type Target interface {
	SetText(text string)
	// SetStyle replaces any classification set earlier; applying the same
	// style twice leaves the target unchanged.
	SetStyle(style presenter.Style)
	SetIcon(icon presenter.Icon)
}

// Gauge is the win-rate dial. It owns its own redraw.
type Gauge interface {
	SetValue(v float64)
}

// Surface binds every slot to a target.
type Surface struct {
	targets map[presenter.Slot]Target
	gauge   Gauge
}

// NewSurface requires a target for every slot and a gauge.
func NewSurface(targets map[presenter.Slot]Target, gauge Gauge) (*Surface, error) {
	for _, slot := range presenter.Slots {
		if targets[slot] == nil {
			return nil, fmt.Errorf("%w: %s", ErrIncompleteSurface, slot)
		}
	}
	if gauge == nil {
		return nil, fmt.Errorf("%w: gauge", ErrIncompleteSurface)
	}

	bound := make(map[presenter.Slot]Target, len(targets))
	for slot, t := range targets {
		bound[slot] = t
	}
	return &Surface{targets: bound, gauge: gauge}, nil
}

// Apply writes p to every target. p is checked in full before the first write,
// so an incomplete presentation leaves the surface untouched.
func (s *Surface) Apply(p presenter.Presentation) error {
	for _, slot := range presenter.Slots {
		if _, ok := p.Slots[slot]; !ok {
			return fmt.Errorf("%w: %s", ErrIncompletePresentation, slot)
		}
	}

	for _, slot := range presenter.Slots {
		d := p.Slots[slot]
		t := s.targets[slot]
		t.SetText(d.Text)
		t.SetStyle(d.Style)
		t.SetIcon(d.Icon)
	}
	s.gauge.SetValue(p.Gauge)
	return nil
}
