package render

import (
	"sort"
	"sync"

	"oanda-dashboard/internal/presenter"
)

var classificationStyles = map[presenter.Style]bool{
	presenter.StylePositive: true,
	presenter.StyleNegative: true,
	presenter.StyleWarning:  true,
	presenter.StyleNeutral:  true,
}

// MemoryTarget keeps a slot's state in memory, with a class list like a DOM
// element. Base classes given at construction survive style changes.
type MemoryTarget struct {
	mu      sync.RWMutex
	text    string
	icon    presenter.Icon
	classes map[string]bool
	writes  int
}

func NewMemoryTarget(baseClasses ...string) *MemoryTarget {
	t := &MemoryTarget{classes: make(map[string]bool)}
	for _, c := range baseClasses {
		t.classes[c] = true
	}
	return t
}

func (t *MemoryTarget) SetText(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text = text
	t.writes++
}

func (t *MemoryTarget) SetStyle(style presenter.Style) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for c := range t.classes {
		if classificationStyles[presenter.Style(c)] {
			delete(t.classes, c)
		}
	}
	t.classes[string(style)] = true
	t.writes++
}

func (t *MemoryTarget) SetIcon(icon presenter.Icon) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.icon = icon
	t.writes++
}

func (t *MemoryTarget) Text() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.text
}

func (t *MemoryTarget) Icon() presenter.Icon {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.icon
}

// Classes returns the class list in sorted order.
func (t *MemoryTarget) Classes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.classes))
	for c := range t.classes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Style returns the current classification, or "" before the first render.
func (t *MemoryTarget) Style() presenter.Style {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for c := range t.classes {
		if classificationStyles[presenter.Style(c)] {
			return presenter.Style(c)
		}
	}
	return ""
}

// Writes counts mutations, for tests that assert nothing was applied.
func (t *MemoryTarget) Writes() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.writes
}

type MemoryGauge struct {
	mu     sync.RWMutex
	value  float64
	writes int
}

func (g *MemoryGauge) SetValue(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = v
	g.writes++
}

func (g *MemoryGauge) Value() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

func (g *MemoryGauge) Writes() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.writes
}

// MemoryBoard is a complete in-memory surface.
type MemoryBoard struct {
	Targets map[presenter.Slot]*MemoryTarget
	Gauge   *MemoryGauge
	surface *Surface
}

func NewMemoryBoard() *MemoryBoard {
	b := &MemoryBoard{
		Targets: make(map[presenter.Slot]*MemoryTarget, len(presenter.Slots)),
		Gauge:   &MemoryGauge{},
	}
	targets := make(map[presenter.Slot]Target, len(presenter.Slots))
	for _, slot := range presenter.Slots {
		t := NewMemoryTarget()
		b.Targets[slot] = t
		targets[slot] = t
	}
	// every slot is bound above, NewSurface cannot fail
	b.surface, _ = NewSurface(targets, b.Gauge)
	return b
}

func (b *MemoryBoard) Surface() *Surface {
	return b.surface
}

// Writes sums the mutations across every target and the gauge.
func (b *MemoryBoard) Writes() int {
	n := b.Gauge.Writes()
	for _, t := range b.Targets {
		n += t.Writes()
	}
	return n
}

// Presentation reads the board back into a presentation.
func (b *MemoryBoard) Presentation() presenter.Presentation {
	p := presenter.Presentation{
		Slots: make(map[presenter.Slot]presenter.Directive, len(b.Targets)),
		Gauge: b.Gauge.Value(),
	}
	for slot, t := range b.Targets {
		p.Slots[slot] = presenter.Directive{Text: t.Text(), Style: t.Style(), Icon: t.Icon()}
	}
	return p
}
