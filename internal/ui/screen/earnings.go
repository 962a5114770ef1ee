package screen

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/solana-observer/internal/ledger"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
	"github.com/rovshanmuradov/solana-observer/internal/ui"
	"github.com/rovshanmuradov/solana-observer/internal/ui/component"
	"github.com/rovshanmuradov/solana-observer/internal/ui/router"
	"github.com/rovshanmuradov/solana-observer/internal/ui/style"
)

// earningsListLimit - сколько последних записей показывает экран.
const earningsListLimit = 200

// EarningsScreen показывает журнал доходов и позволяет добавить запись вручную.
type EarningsScreen struct {
	session *ui.Session
	width   int
	height  int
	keyMap  ui.KeyMap
	seq     uint64

	header  *component.StatusHeader
	helpBar *component.HelpBar
	table   *component.Table
	line    *component.Sparkline

	entries []*models.Earning
	points  []ledger.Point
	err     error
	status  string

	adding  bool
	focused int
	inputs  []textinput.Model
}

// NewEarningsScreen creates a new earnings screen
func NewEarningsScreen(session *ui.Session) *EarningsScreen {
	keyMap := ui.DefaultKeyMap()

	header := component.NewStatusHeader()
	header.SetAddresses(session.Wallet, session.Mint)

	table := component.NewTable()
	table.AddColumn("Time", 20, lipgloss.Left).
		AddColumn("Source", 8, lipgloss.Left).
		AddColumn("Amount", 18, lipgloss.Right).
		AddColumn("Note", 0, lipgloss.Left)

	amount := textinput.New()
	amount.Placeholder = "0.25"
	amount.Prompt = "Amount: "
	amount.CharLimit = 40

	note := textinput.New()
	note.Placeholder = "optional"
	note.Prompt = "Note:   "
	note.CharLimit = 200

	return &EarningsScreen{
		session: session,
		keyMap:  keyMap,
		header:  header,
		helpBar: component.NewHelpBar().SetKeyBindings(keyMap.ContextualHelp(ui.RouteEarnings)),
		table:   table,
		line:    component.NewSparkline(40).SetColor(style.DefaultPalette().Gain),
		inputs:  []textinput.Model{amount, note},
	}
}

// Init initializes the earnings screen
func (e *EarningsScreen) Init() tea.Cmd {
	e.seq = ui.NextRefreshSeq()
	return tea.Batch(e.session.FetchEarnings(earningsListLimit), e.session.ScheduleRefresh(ui.RouteEarnings, e.seq))
}

// Update handles screen updates
func (e *EarningsScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if e.adding {
			return e, e.updateForm(msg)
		}
		switch {
		case key.Matches(msg, e.keyMap.Quit):
			return e, tea.Quit
		case key.Matches(msg, e.keyMap.Refresh):
			return e, e.session.FetchEarnings(earningsListLimit)
		case key.Matches(msg, e.keyMap.AddEarning):
			return e, e.openForm()
		case key.Matches(msg, e.keyMap.Dashboard):
			return e, ui.Navigate(ui.RouteDashboard)
		case key.Matches(msg, e.keyMap.Up):
			e.table.MoveUp()
		case key.Matches(msg, e.keyMap.Down):
			e.table.MoveDown()
		}

	case ui.EarningsMsg:
		e.err = msg.Err
		if msg.Err == nil {
			e.entries = msg.Entries
			e.points = msg.Points
			e.applyEntries()
		}

	case ui.EarningAddedMsg:
		if msg.Err != nil {
			e.status = "❌ " + msg.Err.Error()
			return e, nil
		}
		e.status = "✅ added " + ui.FormatAmount(msg.Entry.Amount, 6)
		return e, e.session.FetchEarnings(earningsListLimit)

	case ui.RefreshTickMsg:
		if msg.Route != ui.RouteEarnings || msg.Seq != e.seq {
			return e, nil
		}
		return e, tea.Batch(e.session.FetchEarnings(earningsListLimit), e.session.ScheduleRefresh(ui.RouteEarnings, e.seq))
	}

	return e, nil
}

func (e *EarningsScreen) openForm() tea.Cmd {
	e.adding = true
	e.status = ""
	e.focused = 0
	for i := range e.inputs {
		e.inputs[i].SetValue("")
		e.inputs[i].Blur()
	}
	return e.inputs[0].Focus()
}

func (e *EarningsScreen) closeForm() {
	e.adding = false
	for i := range e.inputs {
		e.inputs[i].Blur()
	}
}

func (e *EarningsScreen) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, e.keyMap.Back):
		e.closeForm()
		return nil
	case key.Matches(msg, e.keyMap.Tab):
		e.inputs[e.focused].Blur()
		e.focused = (e.focused + 1) % len(e.inputs)
		return e.inputs[e.focused].Focus()
	case key.Matches(msg, e.keyMap.Submit):
		amount, err := decimal.NewFromString(strings.TrimSpace(e.inputs[0].Value()))
		if err != nil {
			e.status = "❌ invalid amount"
			return nil
		}
		e.closeForm()
		return e.session.AddEarning(amount, strings.TrimSpace(e.inputs[1].Value()))
	}

	var cmd tea.Cmd
	e.inputs[e.focused], cmd = e.inputs[e.focused].Update(msg)
	return cmd
}

func (e *EarningsScreen) applyEntries() {
	rows := make([][]string, 0, len(e.entries))
	for _, entry := range e.entries {
		rows = append(rows, []string{
			entry.Timestamp.Local().Format("2006-01-02 15:04:05"),
			string(entry.Source),
			ui.FormatAmount(entry.Amount, 6),
			entry.Note,
		})
	}
	e.table.SetRows(rows)

	data := make([]float64, len(e.points))
	for i, p := range e.points {
		data[i] = p.Total.InexactFloat64()
	}
	e.line.SetData(data)

	if len(e.points) == 0 {
		e.header.SetLedgerTotal(decimal.NewNullDecimal(decimal.Zero))
		return
	}
	e.header.SetLedgerTotal(decimal.NewNullDecimal(e.points[len(e.points)-1].Total))
}

// View renders the earnings screen
func (e *EarningsScreen) View() string {
	if e.width == 0 || e.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(e.header.View())
	b.WriteString("\n")

	if e.err != nil {
		b.WriteString(style.ErrorStyle.Render("❌ " + e.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(style.SubHeaderStyle.Render(fmt.Sprintf("Cumulative (%d entries)", len(e.entries))))
	b.WriteString("\n")
	b.WriteString(e.line.View())
	b.WriteString("\n\n")
	b.WriteString(e.table.View())
	b.WriteString("\n")

	if e.adding {
		form := make([]string, 0, len(e.inputs)+1)
		form = append(form, style.SubHeaderStyle.Render("New entry"))
		for i := range e.inputs {
			inputStyle := style.FormInputStyle
			if i == e.focused {
				inputStyle = style.FormInputFocusedStyle
			}
			form = append(form, inputStyle.Render(e.inputs[i].View()))
		}
		b.WriteString(strings.Join(form, "\n"))
		b.WriteString("\n")
	}
	if e.status != "" {
		b.WriteString(e.status)
		b.WriteString("\n")
	}

	b.WriteString(e.helpBar.SetWidth(e.width).View())
	return b.String()
}

// SetSize sets the screen dimensions
func (e *EarningsScreen) SetSize(width, height int) {
	e.width = width
	e.height = height
	e.header.SetWidth(width)
	e.helpBar.SetWidth(width)
	e.line.SetWidth(max(width/2, 10))
	e.table.SetSize(width-4, max(height-16, 6))
}

// CapturesInput reports whether the manual entry form is open.
func (e *EarningsScreen) CapturesInput() bool {
	return e.adding
}
