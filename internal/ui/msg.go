package ui

import (
	"github.com/rovshanmuradov/solana-observer/internal/ledger"
	"github.com/rovshanmuradov/solana-observer/internal/observer"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
)

// Tea message types for UI communication

// RouterMsg represents navigation between screens
type RouterMsg struct {
	To Route
}

// SnapshotMsg - результат обновления дашборда.
type SnapshotMsg struct {
	Snapshot *observer.Snapshot
	Err      error
}

// EarningsMsg - записи журнала и накопительный график.
type EarningsMsg struct {
	Entries []*models.Earning
	Points  []ledger.Point
	Err     error
}

// EarningAddedMsg - результат ручного добавления записи.
type EarningAddedMsg struct {
	Entry *models.Earning
	Err   error
}

// RefreshTickMsg запускает автообновление экрана. Seq отличает цепочку
// тиков текущего экземпляра экрана от цепочек уже закрытых экранов.
type RefreshTickMsg struct {
	Route Route
	Seq   uint64
}

// Route represents different screens in the application
type Route int

const (
	RouteMainMenu Route = iota
	RouteDashboard
	RouteEarnings
)

// String returns the string representation of the route
func (r Route) String() string {
	switch r {
	case RouteMainMenu:
		return "main_menu"
	case RouteDashboard:
		return "dashboard"
	case RouteEarnings:
		return "earnings"
	default:
		return "unknown"
	}
}
