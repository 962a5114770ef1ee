package ui

import (
	"context"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/solana-observer/internal/curve"
	"github.com/rovshanmuradov/solana-observer/internal/ledger"
	"github.com/rovshanmuradov/solana-observer/internal/observer"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
)

// requestTimeout ограничивает один запрос экрана, чтобы UI не зависал.
const requestTimeout = 60 * time.Second

// ServiceProvider - то, что экранам нужно от сервиса наблюдения.
type ServiceProvider interface {
	Snapshot(ctx context.Context, wallet, mint string, deltaLimit int) (*observer.Snapshot, error)
	ListEarnings(ctx context.Context, limit int) ([]*models.Earning, error)
	CumulativeEarnings(ctx context.Context) ([]ledger.Point, error)
	AppendEarning(ctx context.Context, amount decimal.Decimal, source models.Source, note string) (*models.Earning, error)
}

// Session - провайдер плюс адреса, за которыми следит дашборд.
type Session struct {
	Provider        ServiceProvider
	Context         context.Context
	Wallet          string
	Mint            string
	DeltaLimit      int
	RefreshInterval time.Duration
	// Ladder - размеры кривой из конфигурации; пустая - лестница по умолчанию.
	Ladder []decimal.Decimal
}

// CurvePoints - сколько точек кривой ждать в снимке.
func (s *Session) CurvePoints() int {
	if len(s.Ladder) > 0 {
		return len(s.Ladder)
	}
	return len(curve.DefaultLadder())
}

func (s *Session) ctx() (context.Context, context.CancelFunc) {
	parent := s.Context
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, requestTimeout)
}

// FetchSnapshot запрашивает все панели дашборда.
func (s *Session) FetchSnapshot() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := s.ctx()
		defer cancel()
		snap, err := s.Provider.Snapshot(ctx, s.Wallet, s.Mint, s.DeltaLimit)
		return SnapshotMsg{Snapshot: snap, Err: err}
	}
}

// FetchEarnings читает последние записи и накопительный итог.
func (s *Session) FetchEarnings(limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := s.ctx()
		defer cancel()
		entries, err := s.Provider.ListEarnings(ctx, limit)
		if err != nil {
			return EarningsMsg{Err: err}
		}
		points, err := s.Provider.CumulativeEarnings(ctx)
		return EarningsMsg{Entries: entries, Points: points, Err: err}
	}
}

// AddEarning добавляет ручную запись.
func (s *Session) AddEarning(amount decimal.Decimal, note string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := s.ctx()
		defer cancel()
		entry, err := s.Provider.AppendEarning(ctx, amount, models.SourceManual, note)
		return EarningAddedMsg{Entry: entry, Err: err}
	}
}

var refreshSeq atomic.Uint64

// NextRefreshSeq выдает номер новой цепочки автообновления.
func NextRefreshSeq() uint64 {
	return refreshSeq.Add(1)
}

// ScheduleRefresh шлет RefreshTickMsg через интервал сессии; 0 - автообновление выключено.
func (s *Session) ScheduleRefresh(route Route, seq uint64) tea.Cmd {
	if s.RefreshInterval <= 0 {
		return nil
	}
	return tea.Tick(s.RefreshInterval, func(time.Time) tea.Msg {
		return RefreshTickMsg{Route: route, Seq: seq}
	})
}

// Navigate возвращает команду перехода на экран.
func Navigate(route Route) tea.Cmd {
	return func() tea.Msg {
		return RouterMsg{To: route}
	}
}
