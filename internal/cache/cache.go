// internal/cache/cache.go
package cache

import (
	"context"
	"net/url"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rovshanmuradov/solana-observer/internal/utils/metrics"
)

// Kind - вид вызова, у каждого свой TTL.
type Kind string

const (
	KindBalance       Kind = "balance"
	KindMint          Kind = "mint"
	KindTokenAccounts Kind = "token_accounts"
	KindQuote         Kind = "quote"
	KindSignatures    Kind = "signatures"
	KindTransaction   Kind = "transaction"
)

// TTLConfig - таблица TTL по видам вызовов. Нулевой TTL отключает кэширование вида.
type TTLConfig struct {
	Balance       time.Duration `mapstructure:"balance"`
	Mint          time.Duration `mapstructure:"mint"`
	TokenAccounts time.Duration `mapstructure:"token_accounts"`
	Quote         time.Duration `mapstructure:"quote"`
	Signatures    time.Duration `mapstructure:"signatures"`
	Transaction   time.Duration `mapstructure:"transaction"`
}

// DefaultTTLConfig возвращает TTL по умолчанию.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		Balance:       20 * time.Second,
		Mint:          60 * time.Second,
		TokenAccounts: 20 * time.Second,
		Quote:         25 * time.Second,
		Signatures:    25 * time.Second,
		Transaction:   25 * time.Second,
	}
}

// For возвращает TTL для вида вызова.
func (t TTLConfig) For(kind Kind) time.Duration {
	switch kind {
	case KindBalance:
		return t.Balance
	case KindMint:
		return t.Mint
	case KindTokenAccounts:
		return t.TokenAccounts
	case KindQuote:
		return t.Quote
	case KindSignatures:
		return t.Signatures
	case KindTransaction:
		return t.Transaction
	default:
		return 0
	}
}

// Options задает поведение кэша.
type Options struct {
	// Dedup объединяет одновременные промахи по одному ключу в один вызов producer.
	Dedup           bool
	CleanupInterval time.Duration
}

// Cache - процессный TTL-кэш для результатов адаптеров.
// Ошибки producer никогда не кэшируются.
type Cache struct {
	store  *gocache.Cache
	group  singleflight.Group
	dedup  bool
	mu     sync.RWMutex
	ttl    TTLConfig
	logger *zap.Logger

	metrics *metrics.Collector
}

// New создает кэш с таблицей TTL.
func New(ttl TTLConfig, opts Options, logger *zap.Logger, collector *metrics.Collector) *Cache {
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Minute
	}
	return &Cache{
		store:   gocache.New(gocache.NoExpiration, opts.CleanupInterval),
		dedup:   opts.Dedup,
		ttl:     ttl,
		logger:  logger.Named("cache"),
		metrics: collector,
	}
}

// SetTTLConfig заменяет таблицу TTL. Уже сохраненные записи живут со своим старым TTL.
func (c *Cache) SetTTLConfig(ttl TTLConfig) {
	c.mu.Lock()
	c.ttl = ttl
	c.mu.Unlock()
	c.logger.Info("TTL table updated", zap.Any("ttl", ttl))
}

// TTL возвращает текущий TTL вида вызова.
func (c *Cache) TTL(kind Kind) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttl.For(kind)
}

// Flush удаляет все записи.
func (c *Cache) Flush() {
	c.store.Flush()
}

// Len возвращает число записей, включая просроченные, но еще не вычищенные.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// Key строит канонический ключ (вид, параметры): параметры сортируются по имени,
// поэтому порядок их перечисления на ключ не влияет.
func Key(kind Kind, params map[string]string) string {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	return string(kind) + "?" + values.Encode()
}

// Cached возвращает живое значение по ключу (kind, params) или вызывает producer.
// Успешный результат сохраняется на TTL вида, ошибка возвращается как есть и не сохраняется.
func Cached[T any](ctx context.Context, c *Cache, kind Kind, params map[string]string, producer func(context.Context) (T, error)) (T, error) {
	key := Key(kind, params)

	if v, ok := c.store.Get(key); ok {
		if typed, ok := v.(T); ok {
			c.metrics.RecordCache(string(kind), "hit")
			return typed, nil
		}
	}
	c.metrics.RecordCache(string(kind), "miss")

	fetch := func() (interface{}, error) {
		value, err := producer(ctx)
		if err != nil {
			return value, err
		}
		if ttl := c.TTL(kind); ttl > 0 {
			c.store.Set(key, value, ttl)
		}
		return value, nil
	}

	var (
		v   interface{}
		err error
	)
	if c.dedup {
		v, err, _ = c.group.Do(key, fetch)
	} else {
		v, err = fetch()
	}

	if err != nil {
		c.metrics.RecordCache(string(kind), "error")
		c.logger.Debug("producer failed, not cached", zap.String("key", key), zap.Error(err))
		var zero T
		return zero, err
	}
	typed, _ := v.(T)
	return typed, nil
}
