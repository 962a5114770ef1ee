package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var palette = DefaultPalette()

// narrowWidth - ширина, ниже которой панели ставятся друг под другом.
const narrowWidth = 80

// Panels
var (
	SubHeaderStyle = lipgloss.NewStyle().
			Foreground(palette.Secondary).
			Bold(true).
			Margin(0, 0, 1, 0)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.TextMuted).
			Padding(1, 2).
			Margin(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(palette.Error).
			Bold(true)
)

// Table cells. Padding(0, 1) у всех ячеек, иначе колонки разъезжаются.
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(palette.Secondary).
				Bold(true).
				Padding(0, 1)

	TableRowStyle = lipgloss.NewStyle().
			Foreground(palette.Text).
			Padding(0, 1)

	TableRowSelectedStyle = lipgloss.NewStyle().
				Foreground(palette.Background).
				Background(palette.Primary).
				Padding(0, 1)
)

// Signed values
var (
	GainStyle = lipgloss.NewStyle().
			Foreground(palette.Gain).
			Bold(true)

	LossStyle = lipgloss.NewStyle().
			Foreground(palette.Loss).
			Bold(true)

	// UnavailableStyle никогда не совпадает с нулевым значением визуально.
	UnavailableStyle = lipgloss.NewStyle().
				Foreground(palette.Unavailable).
				Italic(true)
)

// Add-entry form
var (
	FormInputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(palette.TextMuted).
			Padding(0, 1)

	FormInputFocusedStyle = FormInputStyle.
				BorderForeground(palette.Primary)
)

// SignedStyle красит отформатированную дельту по знаку, сохраняя отступы base.
// Ноль и n/a остаются в base.
func SignedStyle(cell string, base lipgloss.Style) lipgloss.Style {
	cell = strings.TrimSpace(cell)
	switch {
	case strings.HasPrefix(cell, "+"):
		return base.Foreground(GainStyle.GetForeground()).Bold(true)
	case strings.HasPrefix(cell, "-"):
		return base.Foreground(LossStyle.GetForeground()).Bold(true)
	}
	return base
}

// AdaptiveJoinHorizontal ставит блоки в ряд, а на узком экране столбиком.
func AdaptiveJoinHorizontal(width int, blocks ...string) string {
	if width < narrowWidth {
		return lipgloss.JoinVertical(lipgloss.Left, blocks...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

// AdaptiveWidth - доля ширины экрана в процентах; на узком экране почти вся ширина.
func AdaptiveWidth(width, percentage int) int {
	if width < narrowWidth {
		return width - 4
	}
	return (width * percentage) / 100
}
