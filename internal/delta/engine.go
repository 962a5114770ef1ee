// internal/delta/engine.go
package delta

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
)

// Record - влияние одной транзакции на один адрес для одного минта.
// Недоступная дельта (Valid=false) отличается от нулевой.
type Record struct {
	Timestamp   time.Time           `json:"timestamp"`
	Signature   solana.Signature    `json:"signature"`
	Slot        uint64              `json:"slot"`
	DeltaNative decimal.NullDecimal `json:"delta_native"`
	DeltaToken  decimal.NullDecimal `json:"delta_token"`
	// FeeNative заполнен, только если адрес платил комиссию (индекс 0)
	FeeNative decimal.NullDecimal `json:"fee_native"`
	Failed    bool                `json:"failed"`
}

// Config задает границы пакетной загрузки.
type Config struct {
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	Concurrency  int           `mapstructure:"concurrency"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 25,
		MaxLimit:     200,
		Concurrency:  4,
		BatchTimeout: 45 * time.Second,
	}
}

// Engine восстанавливает дельты по последним транзакциям адреса.
type Engine struct {
	rpc    blockchain.RPC
	cfg    Config
	logger *zap.Logger
}

// NewEngine создает движок дельт.
func NewEngine(rpc blockchain.RPC, cfg Config, logger *zap.Logger) *Engine {
	def := DefaultConfig()
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = def.MaxLimit
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	return &Engine{rpc: rpc, cfg: cfg, logger: logger.Named("delta")}
}

// ClampLimit приводит limit к [1, MaxLimit]; limit <= 0 означает DefaultLimit.
func (e *Engine) ClampLimit(limit int) int {
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}
	if limit > blockchain.MaxSignaturesLimit {
		limit = blockchain.MaxSignaturesLimit
	}
	return limit
}

// RecentDeltas возвращает дельты по последним limit транзакциям, отсортированные
// по времени от новых к старым.
//
// Ошибка получения списка подписей возвращается целиком. Ошибка загрузки
// отдельной транзакции пропускает только ее. Если пакет прерван отменой или
// таймаутом, уже посчитанные записи возвращаются вместе с ошибкой контекста.
func (e *Engine) RecentDeltas(ctx context.Context, address, mint solana.PublicKey, limit int) ([]Record, error) {
	limit = e.ClampLimit(limit)

	if e.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.BatchTimeout)
		defer cancel()
	}

	sigs, err := e.rpc.GetSignaturesForAddress(ctx, address, limit)
	if err != nil {
		return nil, fmt.Errorf("list signatures of %s: %w", address, err)
	}

	var (
		mu      sync.Mutex
		records = make([]Record, 0, len(sigs))
		skipped int
	)

	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Concurrency)

	for _, sig := range sigs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			rec, err := e.rpc.GetTransaction(ctx, sig.Signature)
			if err != nil {
				e.logger.Debug("Skipping transaction",
					zap.String("signature", sig.Signature.String()),
					zap.Error(err))
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}

			r, ok := Compute(rec, address, mint)
			if !ok {
				return nil
			}
			if r.Timestamp.IsZero() && sig.BlockTime != nil {
				r.Timestamp = *sig.BlockTime
			}

			mu.Lock()
			records = append(records, r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	SortDescending(records)

	if skipped > 0 {
		e.logger.Info("Some transactions were skipped",
			zap.String("address", address.String()),
			zap.Int("skipped", skipped),
			zap.Int("records", len(records)))
	}

	if err := ctx.Err(); err != nil {
		return records, blockchain.NetworkError("recentDeltas", fmt.Errorf("batch interrupted after %d records: %w", len(records), err))
	}
	return records, nil
}

// SortDescending упорядочивает записи от новых к старым; при равном времени
// выше идет больший слот. Записи без времени оказываются в конце.
func SortDescending(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].Slot > records[j].Slot
	})
}
