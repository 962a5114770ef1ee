// internal/curve/curve.go
package curve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/utils/metrics"
)

const pricePrecision = 12

// Sample - одна точка кривой. PricePerUnit пуст, если на этом размере маршрута нет.
type Sample struct {
	Size         decimal.Decimal     `json:"size"`
	PricePerUnit decimal.NullDecimal `json:"price_per_unit"`
	OutNative    decimal.NullDecimal `json:"out_native"`
	RouteHops    int                 `json:"route_hops"`
}

// Config задает лестницу размеров и паузу между котировками.
type Config struct {
	Ladder []decimal.Decimal
	Delay  time.Duration
}

// DefaultLadder возвращает лестницу размеров по умолчанию.
func DefaultLadder() []decimal.Decimal {
	sizes := []int64{1, 5, 10, 25, 50, 100, 250, 500, 1000}
	out := make([]decimal.Decimal, len(sizes))
	for i, s := range sizes {
		out[i] = decimal.NewFromInt(s)
	}
	return out
}

// ValidateLadder проверяет, что все размеры положительны и строго возрастают.
func ValidateLadder(ladder []decimal.Decimal) error {
	for i, size := range ladder {
		if !size.IsPositive() {
			return blockchain.ValidationError("sampleCurve", fmt.Errorf("ladder size %s must be positive", size))
		}
		if i > 0 && !size.GreaterThan(ladder[i-1]) {
			return blockchain.ValidationError("sampleCurve", fmt.Errorf("ladder must be strictly ascending: %s after %s", size, ladder[i-1]))
		}
	}
	return nil
}

// Sampler строит эмпирическую кривую цены по котировкам агрегатора.
// Кривая не интерполируется: каждая точка - независимое наблюдение.
type Sampler struct {
	rpc     blockchain.RPC
	quoter  blockchain.Quoter
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewSampler создает сэмплер. Пустая лестница в cfg заменяется DefaultLadder.
func NewSampler(rpc blockchain.RPC, quoter blockchain.Quoter, cfg Config, logger *zap.Logger, collector *metrics.Collector) *Sampler {
	if len(cfg.Ladder) == 0 {
		cfg.Ladder = DefaultLadder()
	}
	return &Sampler{
		rpc:     rpc,
		quoter:  quoter,
		cfg:     cfg,
		logger:  logger.Named("curve"),
		metrics: collector,
	}
}

// SampleCurve запрашивает котировку продажи каждого размера лестницы за SOL.
// Всегда возвращает ровно len(ladder) точек в порядке лестницы; неудачная
// котировка дает пустую цену только для своего размера.
//
// Без decimals минта кривая целиком недоступна. При отмене контекста
// оставшиеся точки пусты, а ошибка контекста возвращается вместе с кривой.
func (s *Sampler) SampleCurve(ctx context.Context, mint solana.PublicKey, ladder []decimal.Decimal) ([]Sample, error) {
	if len(ladder) == 0 {
		ladder = s.cfg.Ladder
	}
	if err := ValidateLadder(ladder); err != nil {
		return nil, err
	}

	info, err := s.rpc.GetTokenSupply(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("curve decimals of %s: %w", mint, err)
	}

	samples := make([]Sample, len(ladder))
	for i, size := range ladder {
		samples[i].Size = size
	}

	for i, size := range ladder {
		if i > 0 && s.cfg.Delay > 0 {
			if err := sleep(ctx, s.cfg.Delay); err != nil {
				s.recordGaps(len(ladder) - i)
				return samples, blockchain.NetworkError("sampleCurve", err)
			}
		}
		if err := ctx.Err(); err != nil {
			s.recordGaps(len(ladder) - i)
			return samples, blockchain.NetworkError("sampleCurve", err)
		}

		sample, err := s.sample(ctx, mint, info.Decimals, size)
		if err != nil {
			s.metrics.RecordCurveGap()
			s.logger.Debug("Curve sample unavailable",
				zap.String("mint", mint.String()),
				zap.String("size", size.String()),
				zap.Error(err))
			continue
		}
		samples[i] = sample
	}
	return samples, nil
}

func (s *Sampler) sample(ctx context.Context, mint solana.PublicKey, decimals uint8, size decimal.Decimal) (Sample, error) {
	baseUnits, err := toBaseUnits(size, decimals)
	if err != nil {
		return Sample{}, err
	}

	q, err := s.quoter.Quote(ctx, mint, blockchain.NativeMint, baseUnits)
	if err != nil {
		return Sample{}, err
	}
	if q.RouteHops == 0 {
		return Sample{}, blockchain.ProtocolError("quote", errors.New("empty route"))
	}

	out := blockchain.LamportsToNative(q.OutAmount)
	return Sample{
		Size:         size,
		PricePerUnit: decimal.NewNullDecimal(out.DivRound(size, pricePrecision)),
		OutNative:    decimal.NewNullDecimal(out),
		RouteHops:    q.RouteHops,
	}, nil
}

// toBaseUnits переводит размер в целые единицы минта. Дробная часть
// меньше одной базовой единицы отбрасывается.
func toBaseUnits(size decimal.Decimal, decimals uint8) (uint64, error) {
	units := size.Shift(int32(decimals)).Truncate(0)
	if !units.IsPositive() {
		return 0, blockchain.ValidationError("sampleCurve", fmt.Errorf("size %s is below one base unit", size))
	}
	n := units.BigInt()
	if !n.IsUint64() {
		return 0, blockchain.ValidationError("sampleCurve", fmt.Errorf("size %s overflows base units", size))
	}
	return n.Uint64(), nil
}

func (s *Sampler) recordGaps(n int) {
	for i := 0; i < n; i++ {
		s.metrics.RecordCurveGap()
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
