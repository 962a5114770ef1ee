package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/solana-observer/internal/ui"
	"github.com/rovshanmuradov/solana-observer/internal/ui/style"
)

// TableColumn represents a column configuration
type TableColumn struct {
	Header string
	Width  int
	Align  lipgloss.Position
	// Signed колонки красятся по знаку значения.
	Signed bool
}

// Table represents a data table component.
// Ячейки со значением ui.Unavailable рисуются отдельным стилем.
type Table struct {
	columns     []TableColumn
	rows        [][]string
	width       int
	height      int
	selectedRow int
	offset      int

	headerStyle      lipgloss.Style
	rowStyle         lipgloss.Style
	selectedRowStyle lipgloss.Style
	unavailableStyle lipgloss.Style
	borderStyle      lipgloss.Style

	showBorder bool
	selectable bool
}

// NewTable creates a new table component
func NewTable() *Table {
	palette := style.DefaultPalette()

	return &Table{
		headerStyle:      style.TableHeaderStyle,
		rowStyle:         style.TableRowStyle,
		selectedRowStyle: style.TableRowSelectedStyle,
		unavailableStyle: style.UnavailableStyle.Padding(0, 1),

		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.TextMuted),

		showBorder: true,
		selectable: true,
	}
}

// AddColumn adds a column to the table
func (t *Table) AddColumn(header string, width int, align lipgloss.Position) *Table {
	t.columns = append(t.columns, TableColumn{Header: header, Width: width, Align: align})
	return t
}

// AddSignedColumn adds a column whose positive values render as gains and negative as losses
func (t *Table) AddSignedColumn(header string, width int, align lipgloss.Position) *Table {
	t.columns = append(t.columns, TableColumn{Header: header, Width: width, Align: align, Signed: true})
	return t
}

// SetRows sets all table rows
func (t *Table) SetRows(rows [][]string) *Table {
	t.rows = rows
	if t.selectedRow >= len(rows) {
		t.selectedRow = max(len(rows)-1, 0)
	}
	t.clampOffset()
	return t
}

// SetSize sets the table dimensions; height ограничивает видимые строки.
func (t *Table) SetSize(width, height int) *Table {
	t.width = width
	t.height = height
	t.clampOffset()
	return t
}

// SetSelectable enables/disables row selection
func (t *Table) SetSelectable(selectable bool) *Table {
	t.selectable = selectable
	return t
}

// SetShowBorder enables/disables table border
func (t *Table) SetShowBorder(show bool) *Table {
	t.showBorder = show
	return t
}

// MoveUp moves selection up
func (t *Table) MoveUp() *Table {
	if t.selectable && t.selectedRow > 0 {
		t.selectedRow--
		t.clampOffset()
	}
	return t
}

// MoveDown moves selection down
func (t *Table) MoveDown() *Table {
	if t.selectable && t.selectedRow < len(t.rows)-1 {
		t.selectedRow++
		t.clampOffset()
	}
	return t
}

// SelectedRow returns the currently selected row index
func (t *Table) SelectedRow() int {
	return t.selectedRow
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	return len(t.rows)
}

// View renders the table
func (t *Table) View() string {
	if len(t.columns) == 0 {
		return "No columns defined"
	}
	widths := t.columnWidths()

	var b strings.Builder
	for i, col := range t.columns {
		b.WriteString(renderCell(col.Header, widths[i], col.Align, t.headerStyle))
		if i < len(t.columns)-1 {
			b.WriteString("│")
		}
	}
	b.WriteString("\n")
	for i := range t.columns {
		b.WriteString(strings.Repeat("─", widths[i]))
		if i < len(t.columns)-1 {
			b.WriteString("┼")
		}
	}

	end := len(t.rows)
	if visible := t.visibleRows(); visible > 0 && t.offset+visible < end {
		end = t.offset + visible
	}
	for rowIndex := t.offset; rowIndex < end; rowIndex++ {
		b.WriteString("\n")
		row := t.rows[rowIndex]
		selected := t.selectable && rowIndex == t.selectedRow
		for i, col := range t.columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cellStyle := t.rowStyle
			switch {
			case selected:
				cellStyle = t.selectedRowStyle
			case ui.IsUnavailable(cell):
				cellStyle = t.unavailableStyle
			case col.Signed:
				cellStyle = style.SignedStyle(cell, t.rowStyle)
			}
			b.WriteString(renderCell(cell, widths[i], col.Align, cellStyle))
			if i < len(t.columns)-1 {
				b.WriteString("│")
			}
		}
	}

	if len(t.rows) == 0 {
		b.WriteString("\n")
		b.WriteString(t.rowStyle.Foreground(style.Base01).Render("no data"))
	}

	if t.showBorder {
		return t.borderStyle.Render(b.String())
	}
	return b.String()
}

func renderCell(content string, width int, align lipgloss.Position, s lipgloss.Style) string {
	// Padding(0,1) съедает две колонки
	inner := width - 2
	if inner > 0 && lipgloss.Width(content) > inner {
		runes := []rune(content)
		if inner > 1 && len(runes) > inner-1 {
			content = string(runes[:inner-1]) + "…"
		}
	}
	return s.Width(width).Align(align).Render(content)
}

// columnWidths раздает свободную ширину колонкам без явной ширины.
func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.columns))
	explicit, auto := 0, 0
	for i, col := range t.columns {
		widths[i] = col.Width
		if col.Width > 0 {
			explicit += col.Width
		} else {
			auto++
		}
	}
	if auto == 0 {
		return widths
	}
	avail := t.width - explicit - (len(t.columns) - 1)
	if t.showBorder {
		avail -= 2
	}
	each := 12
	if avail > 0 && avail/auto > each {
		each = avail / auto
	}
	for i := range widths {
		if widths[i] <= 0 {
			widths[i] = each
		}
	}
	return widths
}

// visibleRows - сколько строк данных помещается по высоте; 0 - без ограничения.
func (t *Table) visibleRows() int {
	if t.height <= 0 {
		return 0
	}
	n := t.height - 2
	if t.showBorder {
		n -= 2
	}
	return max(n, 1)
}

func (t *Table) clampOffset() {
	visible := t.visibleRows()
	if visible == 0 {
		t.offset = 0
		return
	}
	if t.selectedRow < t.offset {
		t.offset = t.selectedRow
	}
	if t.selectedRow >= t.offset+visible {
		t.offset = t.selectedRow - visible + 1
	}
	if t.offset > len(t.rows)-visible {
		t.offset = max(len(t.rows)-visible, 0)
	}
}
