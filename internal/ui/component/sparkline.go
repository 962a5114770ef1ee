package component

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/solana-observer/internal/ui/style"
)

// gapRune отмечает точку без значения (например, пробел в кривой цены).
const gapRune = '·'

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline represents a mini graph component.
// NaN в данных означает отсутствующее значение и рисуется отдельно от нуля.
type Sparkline struct {
	data     []float64
	width    int
	color    lipgloss.Color
	gapStyle lipgloss.Style
}

// NewSparkline creates a new sparkline component
func NewSparkline(width int) *Sparkline {
	palette := style.DefaultPalette()
	return &Sparkline{
		width:    width,
		color:    palette.Primary,
		gapStyle: lipgloss.NewStyle().Foreground(palette.Unavailable),
	}
}

// SetData sets the data points for the sparkline; берутся последние width точек.
func (s *Sparkline) SetData(data []float64) *Sparkline {
	if len(data) > s.width && s.width > 0 {
		data = data[len(data)-s.width:]
	}
	s.data = append(s.data[:0], data...)
	return s
}

// SetWidth sets the width of the sparkline
func (s *Sparkline) SetWidth(width int) *Sparkline {
	s.width = width
	if len(s.data) > width && width > 0 {
		s.data = s.data[len(s.data)-width:]
	}
	return s
}

// Width - сколько точек показывает линия.
func (s *Sparkline) Width() int {
	return s.width
}

// SetColor sets the color for the sparkline
func (s *Sparkline) SetColor(color lipgloss.Color) *Sparkline {
	s.color = color
	return s
}

// View renders the sparkline
func (s *Sparkline) View() string {
	if len(s.data) == 0 {
		return s.gapStyle.Render(strings.Repeat(string(gapRune), max(s.width, 1)))
	}

	lo, hi, ok := s.bounds()
	line := lipgloss.NewStyle().Foreground(s.color)

	var b strings.Builder
	for _, v := range s.data {
		if math.IsNaN(v) || !ok {
			b.WriteString(s.gapStyle.Render(string(gapRune)))
			continue
		}
		idx := len(sparkChars) / 2
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkChars)-1))
		}
		idx = min(max(idx, 0), len(sparkChars)-1)
		b.WriteString(line.Render(string(sparkChars[idx])))
	}
	return b.String() + " " + s.trendView()
}

// Trend сравнивает первую и последнюю доступные точки.
func (s *Sparkline) Trend() string {
	first, last, ok := s.endpoints()
	switch {
	case !ok || first == last:
		return "→"
	case last > first:
		return "↗"
	default:
		return "↘"
	}
}

func (s *Sparkline) trendView() string {
	palette := style.DefaultPalette()
	trend := s.Trend()
	color := palette.TextMuted
	switch trend {
	case "↗":
		color = palette.Gain
	case "↘":
		color = palette.Loss
	}
	return lipgloss.NewStyle().Foreground(color).Render(trend)
}

func (s *Sparkline) bounds() (lo, hi float64, ok bool) {
	for _, v := range s.data {
		if math.IsNaN(v) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, ok
}

func (s *Sparkline) endpoints() (first, last float64, ok bool) {
	for _, v := range s.data {
		if math.IsNaN(v) {
			continue
		}
		if !ok {
			first, ok = v, true
		}
		last = v
	}
	return first, last, ok
}
