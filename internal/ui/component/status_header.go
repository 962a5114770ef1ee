package component

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/solana-observer/internal/ui"
	"github.com/rovshanmuradov/solana-observer/internal/ui/style"
)

// StatusHeader provides a clean header with essential status information
type StatusHeader struct {
	wallet      string
	mint        string
	lastRefresh time.Time
	ledgerTotal decimal.NullDecimal
	degraded    int
	width       int
	style       StatusHeaderStyle
}

// StatusHeaderStyle contains all styling for the status header
type StatusHeaderStyle struct {
	container   lipgloss.Style
	title       lipgloss.Style
	address     lipgloss.Style
	ok          lipgloss.Style
	degraded    lipgloss.Style
	total       lipgloss.Style
	unavailable lipgloss.Style
}

// NewStatusHeader creates a new status header component
func NewStatusHeader() *StatusHeader {
	palette := style.DefaultPalette()

	return &StatusHeader{
		style: StatusHeaderStyle{
			container: lipgloss.NewStyle().
				Background(palette.Background).
				Foreground(palette.Text).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(palette.Primary).
				Padding(0, 2).
				MarginBottom(1),

			title: lipgloss.NewStyle().
				Foreground(palette.Primary).
				Bold(true),

			address: lipgloss.NewStyle().
				Foreground(palette.TextSecondary),

			ok: lipgloss.NewStyle().
				Foreground(palette.Success).
				Bold(true),

			degraded: lipgloss.NewStyle().
				Foreground(palette.Warning).
				Bold(true),

			total: lipgloss.NewStyle().
				Foreground(palette.Gain).
				Bold(true),

			unavailable: style.UnavailableStyle,
		},
	}
}

// SetAddresses updates the wallet and mint display
func (sh *StatusHeader) SetAddresses(wallet, mint string) {
	sh.wallet = wallet
	sh.mint = mint
}

// SetRefreshed records the time of the last refresh and how many panels failed.
func (sh *StatusHeader) SetRefreshed(at time.Time, degradedPanels int) {
	sh.lastRefresh = at
	sh.degraded = degradedPanels
}

// SetLedgerTotal updates the cumulative earnings display
func (sh *StatusHeader) SetLedgerTotal(total decimal.NullDecimal) {
	sh.ledgerTotal = total
}

// SetWidth sets the component width for responsive layout
func (sh *StatusHeader) SetWidth(width int) {
	sh.width = width
	sh.style.container = sh.style.container.Width(max(width-4, 0))
}

// View renders the status header
func (sh *StatusHeader) View() string {
	title := sh.style.title.Render("Solana Observer")
	wallet := sh.style.address.Render("Wallet: " + orUnavailable(ui.ShortAddress(sh.wallet)))
	mint := sh.style.address.Render("Mint: " + orUnavailable(ui.ShortAddress(sh.mint)))

	content := lipgloss.JoinHorizontal(
		lipgloss.Left,
		title,
		" | ",
		wallet,
		" | ",
		mint,
		" | ",
		sh.renderRefresh(),
		" | ",
		sh.renderTotal(),
	)

	return sh.style.container.Render(content)
}

func (sh *StatusHeader) renderRefresh() string {
	if sh.lastRefresh.IsZero() {
		return sh.style.unavailable.Render("not refreshed")
	}
	stamp := sh.lastRefresh.Format("15:04:05")
	if sh.degraded > 0 {
		return sh.style.degraded.Render(fmt.Sprintf("🟡 %s (%d unavailable)", stamp, sh.degraded))
	}
	return sh.style.ok.Render("🟢 " + stamp)
}

func (sh *StatusHeader) renderTotal() string {
	if !sh.ledgerTotal.Valid {
		return "Earned: " + sh.style.unavailable.Render(ui.Unavailable)
	}
	return sh.style.total.Render("Earned: " + ui.FormatAmount(sh.ledgerTotal.Decimal, 4))
}

// GetHeight returns the component height for layout calculations
func (sh *StatusHeader) GetHeight() int {
	return 3 // Border + padding + content
}

func orUnavailable(s string) string {
	if s == "" {
		return ui.Unavailable
	}
	return s
}
