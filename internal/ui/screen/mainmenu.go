package screen

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/solana-observer/internal/ui"
	"github.com/rovshanmuradov/solana-observer/internal/ui/component"
	"github.com/rovshanmuradov/solana-observer/internal/ui/router"
	"github.com/rovshanmuradov/solana-observer/internal/ui/style"
)

type clockMsg time.Time

// MenuItem represents a menu item
type MenuItem struct {
	Label       string
	Description string
	Route       ui.Route
}

// MainMenuScreen represents the main menu screen
type MainMenuScreen struct {
	width  int
	height int
	keyMap ui.KeyMap

	helpBar *component.HelpBar

	selectedIndex int
	menuItems     []MenuItem

	titleStyle       lipgloss.Style
	menuItemStyle    lipgloss.Style
	selectedStyle    lipgloss.Style
	descriptionStyle lipgloss.Style
	headerStyle      lipgloss.Style

	wallet     string
	mint       string
	lastUpdate time.Time
}

// NewMainMenuScreen creates a new main menu screen
func NewMainMenuScreen(session *ui.Session) *MainMenuScreen {
	palette := style.DefaultPalette()
	keyMap := ui.DefaultKeyMap()

	menuItems := []MenuItem{
		{
			Label:       "📊 Dashboard",
			Description: "Balances, recent deltas and price curve for the watched wallet",
			Route:       ui.RouteDashboard,
		},
		{
			Label:       "💰 Earnings",
			Description: "Earnings ledger, cumulative total and manual entries",
			Route:       ui.RouteEarnings,
		},
	}

	return &MainMenuScreen{
		keyMap:     keyMap,
		menuItems:  menuItems,
		helpBar:    component.NewHelpBar().SetKeyBindings(keyMap.ContextualHelp(ui.RouteMainMenu)),
		wallet:     session.Wallet,
		mint:       session.Mint,
		lastUpdate: time.Now(),

		titleStyle: lipgloss.NewStyle().
			Foreground(palette.Primary).
			Bold(true).
			Margin(1, 0).
			Align(lipgloss.Center),

		menuItemStyle: lipgloss.NewStyle().
			Foreground(palette.Text).
			Padding(0, 2).
			Margin(0, 0, 1, 0),

		selectedStyle: lipgloss.NewStyle().
			Foreground(palette.Background).
			Background(palette.Primary).
			Padding(0, 2).
			Margin(0, 0, 1, 0).
			Bold(true),

		descriptionStyle: lipgloss.NewStyle().
			Foreground(palette.TextMuted).
			Padding(0, 4).
			Margin(0, 0, 1, 0).
			Italic(true),

		headerStyle: lipgloss.NewStyle().
			Foreground(palette.Secondary).
			Bold(true).
			Padding(0, 2),
	}
}

func tickClock() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

// Init initializes the main menu screen
func (m *MainMenuScreen) Init() tea.Cmd {
	return tickClock()
}

// Update handles screen updates
func (m *MainMenuScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keyMap.Up):
			m.moveUp()
		case key.Matches(msg, m.keyMap.Down):
			m.moveDown()
		case key.Matches(msg, m.keyMap.Enter):
			return m, ui.Navigate(m.SelectedRoute())
		case key.Matches(msg, m.keyMap.Dashboard):
			return m, ui.Navigate(ui.RouteDashboard)
		case key.Matches(msg, m.keyMap.Earnings):
			return m, ui.Navigate(ui.RouteEarnings)
		}

	case clockMsg:
		m.lastUpdate = time.Time(msg)
		return m, tickClock()
	}

	return m, nil
}

// View renders the main menu screen
func (m *MainMenuScreen) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(m.renderHeader())
	content.WriteString("\n\n")
	content.WriteString(m.renderMenu())
	content.WriteString("\n")
	content.WriteString(m.helpBar.SetWidth(m.width).View())

	result := content.String()
	if m.width > 80 {
		result = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, result)
	}
	return result
}

// SetSize sets the screen dimensions
func (m *MainMenuScreen) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.helpBar.SetWidth(width)
}

func (m *MainMenuScreen) renderHeader() string {
	styledTitle := m.titleStyle.Width(m.width).Render("🔭 Solana Observer")

	wallet := m.wallet
	if wallet == "" {
		wallet = "no wallet configured"
	}
	mint := m.mint
	if mint == "" {
		mint = "no mint configured"
	}
	statusLine := fmt.Sprintf("Time: %s • Wallet: %s • Mint: %s",
		m.lastUpdate.Format("15:04:05"), ui.ShortAddress(wallet), ui.ShortAddress(mint))
	styledStatus := m.headerStyle.Width(m.width).Align(lipgloss.Center).Render(statusLine)

	return lipgloss.JoinVertical(lipgloss.Center, styledTitle, styledStatus)
}

func (m *MainMenuScreen) renderMenu() string {
	var items []string
	for i, item := range m.menuItems {
		itemStyle := m.menuItemStyle
		if i == m.selectedIndex {
			itemStyle = m.selectedStyle
		}
		items = append(items, itemStyle.Render(item.Label))
		if i == m.selectedIndex {
			items = append(items, m.descriptionStyle.Render(item.Description))
		}
	}

	menuStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.DefaultPalette().Primary).
		Padding(2, 4).
		Margin(1, 0)

	return menuStyle.Render(strings.Join(items, "\n"))
}

func (m *MainMenuScreen) moveUp() {
	if m.selectedIndex > 0 {
		m.selectedIndex--
	} else {
		m.selectedIndex = len(m.menuItems) - 1
	}
}

func (m *MainMenuScreen) moveDown() {
	if m.selectedIndex < len(m.menuItems)-1 {
		m.selectedIndex++
	} else {
		m.selectedIndex = 0
	}
}

// SelectedRoute returns the currently selected route
func (m *MainMenuScreen) SelectedRoute() ui.Route {
	if m.selectedIndex < len(m.menuItems) {
		return m.menuItems[m.selectedIndex].Route
	}
	return ui.RouteMainMenu
}

// Factory строит экраны приложения для роутера.
func Factory(session *ui.Session) router.Factory {
	return func(route ui.Route) router.Screen {
		switch route {
		case ui.RouteMainMenu:
			return NewMainMenuScreen(session)
		case ui.RouteDashboard:
			return NewDashboardScreen(session)
		case ui.RouteEarnings:
			return NewEarningsScreen(session)
		default:
			return nil
		}
	}
}
