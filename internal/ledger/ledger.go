// internal/ledger/ledger.go
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/storage"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
	"github.com/rovshanmuradov/solana-observer/internal/utils/metrics"
)

// DefaultImportTail - сколько последних строк колонки рассматривается при импорте.
const DefaultImportTail = 80

// Point - точка накопительного графика доходов.
type Point struct {
	Timestamp time.Time       `json:"timestamp"`
	Total     decimal.Decimal `json:"total"`
}

// Config задает параметры журнала.
type Config struct {
	ImportTail int
}

// Ledger - журнал доходов только на добавление. Исправления делаются
// компенсирующей записью, история не переписывается.
type Ledger struct {
	store   storage.Storage
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Collector
	now     func() time.Time

	// mu сериализует запись, чтобы id шли монотонно и не пересекались
	mu sync.Mutex

	stageMu   sync.Mutex
	staged    map[string]*StagedImport
	nextStage uint64
}

// New создает журнал поверх хранилища.
func New(store storage.Storage, cfg Config, logger *zap.Logger, collector *metrics.Collector) *Ledger {
	if cfg.ImportTail <= 0 {
		cfg.ImportTail = DefaultImportTail
	}
	return &Ledger{
		store:   store,
		cfg:     cfg,
		logger:  logger.Named("ledger"),
		metrics: collector,
		now:     func() time.Time { return time.Now().UTC() },
		staged:  make(map[string]*StagedImport),
	}
}

// Append добавляет запись с временем сервера. Неположительная сумма или
// неизвестный источник - Validation ошибка, запись не создается.
func (l *Ledger) Append(ctx context.Context, amount decimal.Decimal, source models.Source, note string) (*models.Earning, error) {
	const op = "appendEarning"
	if !amount.IsPositive() {
		return nil, blockchain.ValidationError(op, fmt.Errorf("amount %s must be positive", amount))
	}
	if !source.Valid() {
		return nil, blockchain.ValidationError(op, fmt.Errorf("unknown source %q", source))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(ctx, amount, source, note)
}

func (l *Ledger) appendLocked(ctx context.Context, amount decimal.Decimal, source models.Source, note string) (*models.Earning, error) {
	e := &models.Earning{
		Timestamp: l.now(),
		Source:    source,
		Amount:    amount,
		Note:      note,
	}
	if err := l.store.AppendEarning(ctx, e); err != nil {
		return nil, fmt.Errorf("append earning: %w", err)
	}

	l.metrics.RecordLedgerAppend(string(source))
	l.logger.Info("Earning appended",
		zap.Uint64("id", e.ID),
		zap.String("source", string(source)),
		zap.String("amount", amount.String()))
	return e, nil
}

// List возвращает последние limit записей, новые первыми; limit <= 0 - все.
func (l *Ledger) List(ctx context.Context, limit int) ([]*models.Earning, error) {
	entries, err := l.store.ListEarnings(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list earnings: %w", err)
	}
	return entries, nil
}

// Cumulative возвращает нарастающий итог по возрастанию времени.
// Последняя точка равна сумме всех записей.
func (l *Ledger) Cumulative(ctx context.Context) ([]Point, error) {
	entries, err := l.store.AllEarnings(ctx)
	if err != nil {
		return nil, fmt.Errorf("cumulative earnings: %w", err)
	}
	return CumulativeOf(entries), nil
}

// CumulativeOf строит нарастающий итог по записям, уже упорядоченным по времени.
func CumulativeOf(entries []*models.Earning) []Point {
	points := make([]Point, 0, len(entries))
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
		points = append(points, Point{Timestamp: e.Timestamp, Total: total})
	}
	return points
}

// GetSetting возвращает значение настройки; пустую строку, если ее нет.
func (l *Ledger) GetSetting(ctx context.Context, key string) (string, error) {
	v, err := l.store.GetSetting(ctx, key)
	if errors.Is(err, storage.ErrSettingNotFound) {
		return "", nil
	}
	return v, err
}

// SetSetting сохраняет настройку.
func (l *Ledger) SetSetting(ctx context.Context, key, value string) error {
	if key == "" {
		return blockchain.ValidationError("setSetting", errors.New("empty key"))
	}
	return l.store.SetSetting(ctx, key, value)
}
