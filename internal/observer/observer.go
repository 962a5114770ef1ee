// internal/observer/observer.go
package observer

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/balance"
	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/curve"
	"github.com/rovshanmuradov/solana-observer/internal/delta"
	"github.com/rovshanmuradov/solana-observer/internal/ledger"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
	applog "github.com/rovshanmuradov/solana-observer/internal/utils/logger"
)

// Observer - фасад запросов для UI, CLI и HTTP API. Принимает адреса
// строками и возвращает классифицированные ошибки.
type Observer struct {
	balances *balance.Service
	deltas   *delta.Engine
	curves   *curve.Sampler
	ledger   *ledger.Ledger
	logger   *zap.Logger
}

// New собирает фасад из готовых сервисов.
func New(balances *balance.Service, deltas *delta.Engine, curves *curve.Sampler, l *ledger.Ledger, logger *zap.Logger) *Observer {
	return &Observer{
		balances: balances,
		deltas:   deltas,
		curves:   curves,
		ledger:   l,
		logger:   applog.WithComponent(logger, "observer"),
	}
}

// Ledger возвращает журнал доходов (импорт, настройки).
func (o *Observer) Ledger() *ledger.Ledger {
	return o.ledger
}

func (o *Observer) NativeBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	key, err := blockchain.ParseAddress("getNativeBalance", address)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return o.balances.NativeBalance(ctx, key)
}

func (o *Observer) TokenBalance(ctx context.Context, owner, mint string) (decimal.Decimal, error) {
	const op = "getTokenBalance"
	ownerKey, err := blockchain.ParseAddress(op, owner)
	if err != nil {
		return decimal.Decimal{}, err
	}
	mintKey, err := blockchain.ParseAddress(op, mint)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return o.balances.OwnerTokenBalance(ctx, ownerKey, mintKey)
}

func (o *Observer) MintInfo(ctx context.Context, mint string) (*blockchain.TokenMint, error) {
	key, err := blockchain.ParseAddress("getMintInfo", mint)
	if err != nil {
		return nil, err
	}
	return o.balances.MintInfo(ctx, key)
}

// RecentDeltas возвращает дельты по последним транзакциям адреса, новые первыми.
func (o *Observer) RecentDeltas(ctx context.Context, address, mint string, limit int) ([]delta.Record, error) {
	const op = "getRecentDeltas"
	addrKey, err := blockchain.ParseAddress(op, address)
	if err != nil {
		return nil, err
	}
	mintKey, err := blockchain.ParseAddress(op, mint)
	if err != nil {
		return nil, err
	}
	return o.deltas.RecentDeltas(ctx, addrKey, mintKey, limit)
}

// SampleCurve строит кривую; пустая лестница заменяется лестницей из конфигурации.
func (o *Observer) SampleCurve(ctx context.Context, mint string, ladder []decimal.Decimal) ([]curve.Sample, error) {
	key, err := blockchain.ParseAddress("sampleCurve", mint)
	if err != nil {
		return nil, err
	}
	return o.curves.SampleCurve(ctx, key, ladder)
}

func (o *Observer) AppendEarning(ctx context.Context, amount decimal.Decimal, source models.Source, note string) (*models.Earning, error) {
	return o.ledger.Append(ctx, amount, source, note)
}

func (o *Observer) ListEarnings(ctx context.Context, limit int) ([]*models.Earning, error) {
	return o.ledger.List(ctx, limit)
}

func (o *Observer) CumulativeEarnings(ctx context.Context) ([]ledger.Point, error) {
	return o.ledger.Cumulative(ctx)
}

// Panel - значение одной панели снимка со своей ошибкой.
type Panel[T any] struct {
	Value T
	Err   error
}

// Available сообщает, получено ли значение.
func (p Panel[T]) Available() bool { return p.Err == nil }

// Snapshot - все панели дашборда. Ошибка одной панели не затрагивает остальные.
type Snapshot struct {
	Wallet string
	Mint   string
	Native Panel[decimal.Decimal]
	Token  Panel[decimal.Decimal]
	Info   Panel[*blockchain.TokenMint]
	Deltas Panel[[]delta.Record]
	Curve  Panel[[]curve.Sample]
}

const snapshotPanels = 5

// Snapshot запрашивает все панели параллельно. Ошибка возвращается только
// для невалидных адресов; ошибки и паники отдельных панелей остаются в панелях.
func (o *Observer) Snapshot(ctx context.Context, wallet, mint string, deltaLimit int) (*Snapshot, error) {
	const op = "snapshot"
	walletKey, err := blockchain.ParseAddress(op, wallet)
	if err != nil {
		return nil, err
	}
	mintKey, err := blockchain.ParseAddress(op, mint)
	if err != nil {
		return nil, err
	}

	log := applog.WithWallet(applog.WithOperation(o.logger, op), wallet)
	defer applog.TrackPerformance(log, op)()

	snap := &Snapshot{Wallet: wallet, Mint: mint}
	p := pool.New().WithMaxGoroutines(snapshotPanels)
	p.Go(func() {
		snap.Native = capture("native", func() (decimal.Decimal, error) {
			return o.balances.NativeBalance(ctx, walletKey)
		})
	})
	p.Go(func() {
		snap.Token = capture("token", func() (decimal.Decimal, error) {
			return o.balances.OwnerTokenBalance(ctx, walletKey, mintKey)
		})
	})
	p.Go(func() {
		snap.Info = capture("mint", func() (*blockchain.TokenMint, error) {
			return o.balances.MintInfo(ctx, mintKey)
		})
	})
	p.Go(func() {
		snap.Deltas = capture("deltas", func() ([]delta.Record, error) {
			defer applog.TrackPerformance(log, "recentDeltas")()
			return o.deltas.RecentDeltas(ctx, walletKey, mintKey, deltaLimit)
		})
	})
	p.Go(func() {
		snap.Curve = capture("curve", func() ([]curve.Sample, error) {
			defer applog.TrackPerformance(log, "sampleCurve")()
			return o.curves.SampleCurve(ctx, mintKey, nil)
		})
	})
	p.Wait()

	logSnapshot(log, snap)
	return snap, nil
}

func capture[T any](name string, fn func() (T, error)) (out Panel[T]) {
	var pc panics.Catcher
	pc.Try(func() { out.Value, out.Err = fn() })
	if r := pc.Recovered(); r != nil {
		out.Err = fmt.Errorf("%s panel: %w", name, r.AsError())
	}
	return out
}

func logSnapshot(log *zap.Logger, snap *Snapshot) {
	errs := map[string]error{
		"native": snap.Native.Err,
		"token":  snap.Token.Err,
		"mint":   snap.Info.Err,
		"deltas": snap.Deltas.Err,
		"curve":  snap.Curve.Err,
	}
	for panel, err := range errs {
		if err != nil {
			log.Warn("Snapshot panel unavailable",
				zap.String("panel", panel),
				zap.String("kind", blockchain.KindOf(err).String()),
				zap.Error(err))
		}
	}
}
