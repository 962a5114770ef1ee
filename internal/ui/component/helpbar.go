package component

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/solana-observer/internal/ui/style"
)

// HelpBar - строка подсказок "клавиша описание" внизу экрана.
// Не помещающиеся подсказки переносятся на следующую строку.
type HelpBar struct {
	bindings []key.Binding
	width    int

	keyStyle  lipgloss.Style
	descStyle lipgloss.Style
	separator string
	container lipgloss.Style
}

// NewHelpBar creates a new help bar component
func NewHelpBar() *HelpBar {
	palette := style.DefaultPalette()
	muted := lipgloss.NewStyle().Foreground(palette.TextMuted)

	return &HelpBar{
		width:     80,
		keyStyle:  lipgloss.NewStyle().Foreground(palette.Primary).Bold(true),
		descStyle: muted,
		separator: muted.Render(" • "),
		container: lipgloss.NewStyle().Padding(0, 1).Margin(1, 0, 0, 0),
	}
}

// SetKeyBindings sets the key bindings to display
func (h *HelpBar) SetKeyBindings(bindings []key.Binding) *HelpBar {
	h.bindings = bindings
	return h
}

// SetWidth sets the help bar width
func (h *HelpBar) SetWidth(width int) *HelpBar {
	h.width = width
	return h
}

// View renders the help bar
func (h *HelpBar) View() string {
	items := h.items()
	if len(items) == 0 {
		return ""
	}

	// padding контейнера
	maxWidth := h.width - 4
	sepWidth := lipgloss.Width(h.separator)

	var lines []string
	var line []string
	lineWidth := 0
	for _, item := range items {
		w := lipgloss.Width(item) + sepWidth
		if len(line) > 0 && lineWidth+w > maxWidth {
			lines = append(lines, strings.Join(line, h.separator))
			line, lineWidth = nil, 0
		}
		line = append(line, item)
		lineWidth += w
	}
	lines = append(lines, strings.Join(line, h.separator))

	return h.container.Width(h.width).Render(strings.Join(lines, "\n"))
}

// items отбрасывает выключенные привязки и привязки без описания.
func (h *HelpBar) items() []string {
	out := make([]string, 0, len(h.bindings))
	for _, b := range h.bindings {
		keys := b.Keys()
		if !b.Enabled() || len(keys) == 0 || b.Help().Desc == "" {
			continue
		}
		out = append(out, h.keyStyle.Render(keys[0])+" "+h.descStyle.Render(b.Help().Desc))
	}
	return out
}
