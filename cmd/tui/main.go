package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/cli"
	"github.com/rovshanmuradov/solana-observer/internal/ui"
	"github.com/rovshanmuradov/solana-observer/internal/ui/router"
	"github.com/rovshanmuradov/solana-observer/internal/ui/screen"
)

// AppModel represents the main TUI application model
type AppModel struct {
	router *router.Router
	width  int
	height int
}

// NewAppModel creates a new application model
func NewAppModel(session *ui.Session) *AppModel {
	return &AppModel{
		router: router.New(ui.RouteMainMenu, screen.Factory(session)),
	}
}

// Init initializes the application
func (m *AppModel) Init() tea.Cmd {
	return m.router.Init()
}

// Update handles application-level updates
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	updated, cmd := m.router.Update(msg)
	m.router = updated.(*router.Router)
	return m, cmd
}

// View renders the application
func (m *AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	return m.router.View()
}

func main() {
	configPath := flag.String("config", "", "path to config file (JSON or YAML); empty = defaults + env")
	wallet := flag.String("wallet", "", "wallet to watch (default: stored setting, then default_wallet)")
	mint := flag.String("mint", "", "token mint to watch (default: stored setting, then default_mint)")
	limit := flag.Int("limit", 0, "recent transactions on the dashboard (0 = configured default)")
	refresh := flag.Duration("refresh", 30*time.Second, "dashboard auto-refresh interval (0 disables)")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := cli.NewRunner()
	// консоль занята интерфейсом: логи только в файл
	if err := runner.Initialize(rootCtx, *configPath, false); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}
	appLogger := runner.Logger()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := runner.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
		}
	}()
	runner.WatchConfig()

	cfg := runner.Config()
	defWallet, defMint, err := runner.Service().DefaultAddresses(rootCtx, cfg.DefaultWallet, cfg.DefaultMint)
	if err != nil {
		appLogger.Error("Failed to read default addresses", zap.Error(err))
	}
	if *wallet == "" {
		*wallet = defWallet
	}
	if *mint == "" {
		*mint = defMint
	}

	session := &ui.Session{
		Provider:        runner.Service(),
		Context:         rootCtx,
		Wallet:          *wallet,
		Mint:            *mint,
		DeltaLimit:      *limit,
		RefreshInterval: *refresh,
		Ladder:          cfg.CurveConfig().Ladder,
	}

	appLogger.Info("🚀 Starting Solana Observer TUI",
		zap.String("wallet", session.Wallet),
		zap.String("mint", session.Mint))

	program := tea.NewProgram(
		NewAppModel(session),
		tea.WithAltScreen(),
		tea.WithContext(rootCtx),
	)
	if _, err := program.Run(); err != nil && rootCtx.Err() == nil {
		appLogger.Error("💥 TUI application failed", zap.Error(err))
	}
	appLogger.Info("🛑 TUI application stopped")
}
