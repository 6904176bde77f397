package render

import (
	"fmt"
	"io"
	"strings"

	"oanda-dashboard/internal/presenter"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorGreen = lipgloss.Color("#6BCB77")
	colorRed   = lipgloss.Color("#E74C3C")
	colorAmber = lipgloss.Color("#F0AD4E")
	colorWhite = lipgloss.Color("#ECF0F1")
	colorDim   = lipgloss.Color("#7F8C8D")
)

var slotTitles = map[presenter.Slot]string{
	presenter.SlotYearToDate:     "Year to date",
	presenter.SlotRealizedPL:     "Realized P/L",
	presenter.SlotUnrealizedPL:   "Unrealized P/L",
	presenter.SlotProfitFactor:   "Profit factor",
	presenter.SlotInitialBalance: "Initial balance",
}

const gaugeWidth = 20

// ConsoleBoard is a surface printed to a terminal. It holds state in memory and
// draws it on WriteTo, so a superseded render never reaches the terminal.
type ConsoleBoard struct {
	board *MemoryBoard
	title string
}

func NewConsoleBoard(title string) *ConsoleBoard {
	return &ConsoleBoard{board: NewMemoryBoard(), title: title}
}

func (c *ConsoleBoard) Surface() *Surface {
	return c.board.Surface()
}

// WriteTo draws the board. Colors are only emitted when w is a terminal.
func (c *ConsoleBoard) WriteTo(w io.Writer) (int64, error) {
	r := lipgloss.NewRenderer(w)

	titleStyle := r.NewStyle().Foreground(colorWhite).Bold(true).Underline(true)
	labelStyle := r.NewStyle().Foreground(colorDim).Width(18)
	panelStyle := r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)

	rows := []string{titleStyle.Render(c.title)}
	for _, slot := range presenter.Slots {
		t := c.board.Targets[slot]
		value := r.NewStyle().Foreground(styleColor(t.Style())).Bold(true).Render(iconGlyph(t.Icon()) + t.Text())
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(slotTitles[slot]), value))
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("Win rate"), gaugeBar(c.board.Gauge.Value())))

	n, err := fmt.Fprintln(w, panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	return int64(n), err
}

func styleColor(s presenter.Style) lipgloss.Color {
	switch s {
	case presenter.StylePositive:
		return colorGreen
	case presenter.StyleNegative:
		return colorRed
	case presenter.StyleWarning:
		return colorAmber
	default:
		return colorWhite
	}
}

func iconGlyph(i presenter.Icon) string {
	switch i {
	case presenter.IconUp:
		return "▲ "
	case presenter.IconDown:
		return "▼ "
	default:
		return ""
	}
}

func gaugeBar(v float64) string {
	filled := int(v / 100 * gaugeWidth)
	if filled < 0 {
		filled = 0
	}
	if filled > gaugeWidth {
		filled = gaugeWidth
	}
	return fmt.Sprintf("%s%s %.0f%%", strings.Repeat("█", filled), strings.Repeat("░", gaugeWidth-filled), v)
}
