package screen

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/curve"
	"github.com/rovshanmuradov/solana-observer/internal/delta"
	"github.com/rovshanmuradov/solana-observer/internal/observer"
	"github.com/rovshanmuradov/solana-observer/internal/ui"
	"github.com/rovshanmuradov/solana-observer/internal/ui/component"
	"github.com/rovshanmuradov/solana-observer/internal/ui/router"
	"github.com/rovshanmuradov/solana-observer/internal/ui/style"
)

// DashboardScreen показывает снимок кошелька: балансы, дельты и кривую цены.
type DashboardScreen struct {
	session *ui.Session
	width   int
	height  int
	keyMap  ui.KeyMap
	seq     uint64

	header    *component.StatusHeader
	helpBar   *component.HelpBar
	deltas    *component.Table
	curveLine *component.Sparkline
	spinner   spinner.Model

	snapshot *observer.Snapshot
	err      error
	loading  bool

	panelStyle lipgloss.Style
	labelStyle lipgloss.Style
	errorStyle lipgloss.Style
}

// NewDashboardScreen creates a new dashboard screen
func NewDashboardScreen(session *ui.Session) *DashboardScreen {
	palette := style.DefaultPalette()
	keyMap := ui.DefaultKeyMap()

	header := component.NewStatusHeader()
	header.SetAddresses(session.Wallet, session.Mint)

	deltas := component.NewTable().SetSelectable(true)
	deltas.AddColumn("Time", 10, lipgloss.Left).
		AddColumn("Signature", 14, lipgloss.Left).
		AddSignedColumn("Δ SOL", 16, lipgloss.Right).
		AddSignedColumn("Δ token", 18, lipgloss.Right).
		AddColumn("Fee", 12, lipgloss.Right).
		AddColumn("Status", 8, lipgloss.Left)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(palette.Primary)

	return &DashboardScreen{
		session:   session,
		keyMap:    keyMap,
		header:    header,
		helpBar:   component.NewHelpBar().SetKeyBindings(keyMap.ContextualHelp(ui.RouteDashboard)),
		deltas:    deltas,
		curveLine: component.NewSparkline(session.CurvePoints()),
		spinner:   sp,

		panelStyle: style.PanelStyle,
		labelStyle: lipgloss.NewStyle().Foreground(palette.TextMuted),
		errorStyle: style.ErrorStyle,
	}
}

// Init запускает первый снимок и цепочку автообновления.
func (d *DashboardScreen) Init() tea.Cmd {
	d.seq = ui.NextRefreshSeq()
	return tea.Batch(d.refresh(), d.session.ScheduleRefresh(ui.RouteDashboard, d.seq))
}

func (d *DashboardScreen) refresh() tea.Cmd {
	if d.loading {
		return nil
	}
	d.loading = true
	return tea.Batch(d.spinner.Tick, d.session.FetchSnapshot())
}

// Update handles screen updates
func (d *DashboardScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, d.keyMap.Quit):
			return d, tea.Quit
		case key.Matches(msg, d.keyMap.Refresh):
			return d, d.refresh()
		case key.Matches(msg, d.keyMap.Earnings):
			return d, ui.Navigate(ui.RouteEarnings)
		case key.Matches(msg, d.keyMap.Up):
			d.deltas.MoveUp()
		case key.Matches(msg, d.keyMap.Down):
			d.deltas.MoveDown()
		}

	case ui.SnapshotMsg:
		d.loading = false
		d.apply(msg)

	case ui.RefreshTickMsg:
		if msg.Route != ui.RouteDashboard || msg.Seq != d.seq {
			return d, nil
		}
		return d, tea.Batch(d.refresh(), d.session.ScheduleRefresh(ui.RouteDashboard, d.seq))

	case spinner.TickMsg:
		if !d.loading {
			return d, nil
		}
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return d, cmd
	}

	return d, nil
}

func (d *DashboardScreen) apply(msg ui.SnapshotMsg) {
	d.err = msg.Err
	if msg.Err != nil {
		return
	}
	d.snapshot = msg.Snapshot

	snap := msg.Snapshot
	degraded := 0
	for _, ok := range []bool{snap.Native.Available(), snap.Token.Available(),
		snap.Info.Available(), snap.Deltas.Available(), snap.Curve.Available()} {
		if !ok {
			degraded++
		}
	}
	d.header.SetRefreshed(time.Now(), degraded)

	d.deltas.SetRows(deltaRows(snap.Deltas.Value))
	d.curveLine.SetData(curvePoints(snap.Curve.Value))
}

// deltaRows переводит записи в строки таблицы; отсутствующие значения - ui.Unavailable.
func deltaRows(records []delta.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		status := "ok"
		if r.Failed {
			status = "failed"
		}
		ts := ui.Unavailable
		if !r.Timestamp.IsZero() {
			ts = r.Timestamp.Local().Format("15:04:05")
		}
		rows = append(rows, []string{
			ts,
			ui.ShortAddress(r.Signature.String()),
			ui.FormatSigned(r.DeltaNative, 6),
			ui.FormatSigned(r.DeltaToken, 6),
			ui.FormatNull(r.FeeNative, 6),
			status,
		})
	}
	return rows
}

// curvePoints возвращает цены за единицу; NaN отмечает пробел в кривой.
func curvePoints(samples []curve.Sample) []float64 {
	points := make([]float64, len(samples))
	for i, s := range samples {
		if !s.PricePerUnit.Valid {
			points[i] = math.NaN()
			continue
		}
		points[i] = s.PricePerUnit.Decimal.InexactFloat64()
	}
	return points
}

// View renders the dashboard
func (d *DashboardScreen) View() string {
	if d.width == 0 || d.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(d.header.View())
	b.WriteString("\n")

	switch {
	case d.err != nil:
		b.WriteString(d.errorStyle.Render("❌ " + d.err.Error()))
		b.WriteString("\n")
	case d.snapshot == nil:
		b.WriteString(d.spinner.View() + " fetching snapshot...")
		b.WriteString("\n")
	default:
		b.WriteString(style.AdaptiveJoinHorizontal(d.width, d.balancesPanel(), d.curvePanel()))
		b.WriteString("\n")
		b.WriteString(d.deltasPanel())
		b.WriteString("\n")
	}

	if d.loading && d.snapshot != nil {
		b.WriteString(d.spinner.View() + " refreshing")
	}
	b.WriteString(d.helpBar.SetWidth(d.width).View())
	return b.String()
}

func (d *DashboardScreen) balancesPanel() string {
	snap := d.snapshot
	lines := []string{
		style.SubHeaderStyle.Render("Balances"),
		d.labelStyle.Render("SOL:    ") + panelValue(snap.Native, func(v decimal.Decimal) string { return ui.FormatAmount(v, 9) }),
		d.labelStyle.Render("Token:  ") + panelValue(snap.Token, func(v decimal.Decimal) string { return ui.FormatAmount(v, 6) }),
		d.labelStyle.Render("Supply: ") + panelValue(snap.Info, func(v *blockchain.TokenMint) string {
			return fmt.Sprintf("%s (%d decimals)", ui.FormatAmount(v.Supply, 2), v.Decimals)
		}),
	}
	return d.panelStyle.Width(style.AdaptiveWidth(d.width, 45)).Render(strings.Join(lines, "\n"))
}

func (d *DashboardScreen) curvePanel() string {
	snap := d.snapshot
	lines := []string{style.SubHeaderStyle.Render("Price curve (SOL per token)")}
	if len(snap.Curve.Value) > 0 {
		lines = append(lines, d.curveLine.View())
		for _, s := range snap.Curve.Value {
			lines = append(lines, fmt.Sprintf("%10s → %s", s.Size.String(), renderNull(s.PricePerUnit, 9)))
		}
	}
	if !snap.Curve.Available() {
		lines = append(lines, d.errorStyle.Render("⚠ "+snap.Curve.Err.Error()))
	}
	return d.panelStyle.Width(style.AdaptiveWidth(d.width, 45)).Render(strings.Join(lines, "\n"))
}

func (d *DashboardScreen) deltasPanel() string {
	snap := d.snapshot
	title := style.SubHeaderStyle.Render("Recent deltas")
	parts := []string{title, d.deltas.View()}
	if !snap.Deltas.Available() {
		parts = append(parts, d.errorStyle.Render("⚠ "+snap.Deltas.Err.Error()))
	}
	return strings.Join(parts, "\n")
}

// SetSize sets the screen dimensions
func (d *DashboardScreen) SetSize(width, height int) {
	d.width = width
	d.height = height
	d.header.SetWidth(width)
	d.helpBar.SetWidth(width)
	// шапка, две панели и подсказка
	d.deltas.SetSize(width-4, max(height-22, 6))
}

func panelValue[T any](p observer.Panel[T], format func(T) string) string {
	if !p.Available() {
		return style.UnavailableStyle.Render(ui.Unavailable) + " " + style.ErrorStyle.Render(p.Err.Error())
	}
	return format(p.Value)
}

func renderNull(v decimal.NullDecimal, places int32) string {
	if !v.Valid {
		return style.UnavailableStyle.Render(ui.Unavailable)
	}
	return ui.FormatAmount(v.Decimal, places)
}
