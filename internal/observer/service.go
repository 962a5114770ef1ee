// internal/observer/service.go
package observer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/balance"
	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solana-observer/internal/cache"
	"github.com/rovshanmuradov/solana-observer/internal/config"
	"github.com/rovshanmuradov/solana-observer/internal/curve"
	"github.com/rovshanmuradov/solana-observer/internal/delta"
	"github.com/rovshanmuradov/solana-observer/internal/dex/jupiter"
	"github.com/rovshanmuradov/solana-observer/internal/export"
	"github.com/rovshanmuradov/solana-observer/internal/ledger"
	"github.com/rovshanmuradov/solana-observer/internal/retry"
	"github.com/rovshanmuradov/solana-observer/internal/storage"
	"github.com/rovshanmuradov/solana-observer/internal/storage/postgres"
	"github.com/rovshanmuradov/solana-observer/internal/storage/sqlite"
	"github.com/rovshanmuradov/solana-observer/internal/utils/metrics"
)

// ServiceConfig - зависимости для сборки Service.
type ServiceConfig struct {
	Config *config.Config
	// ConfigPath используется, чтобы относительный путь базы считался от файла конфигурации
	ConfigPath string
	Logger     *zap.Logger
	// Registerer для метрик; nil - метрики не собираются
	Registerer prometheus.Registerer
	HTTPClient *http.Client
	// Storage подменяет хранилище из конфигурации (тесты, встраивание)
	Storage storage.Storage
}

// Service собирает весь стек: адаптеры, кэш, повторы, сервисы и журнал.
// Порядок слоев: сервисы -> retry -> cache -> адаптеры.
type Service struct {
	*Observer

	cfg      *config.Config
	cache    *cache.Cache
	quotes   *jupiter.Client
	store    storage.Storage
	exporter *export.EarningsExporter
	metrics  *metrics.Collector
	logger   *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewService создает сервис наблюдения по конфигурации.
func NewService(ctx context.Context, sc *ServiceConfig) (*Service, error) {
	if sc == nil || sc.Config == nil {
		return nil, errors.New("observer: config is required")
	}
	cfg := sc.Config
	logger := sc.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("observer_service")
	logger.Info("🚀 Initializing observer service", zap.String("rpc", cfg.RPCURL))

	var collector *metrics.Collector
	if sc.Registerer != nil {
		collector = metrics.NewCollector(sc.Registerer)
	}

	store := sc.Storage
	if store == nil {
		var err error
		store, err = openStorage(ctx, cfg, sc.ConfigPath, logger)
		if err != nil {
			return nil, err
		}
	}

	solOpts := cfg.SolbcOptions()
	solOpts.HTTPClient = sc.HTTPClient
	rpcClient := solbc.NewClient(solOpts, logger, collector)
	quotes := jupiter.NewClient(cfg.JupiterConfig(), logger, collector)

	c := cache.New(cfg.TTLConfig(), cache.Options{Dedup: cfg.CacheDedup}, logger, collector)
	policy := cfg.RetryPolicy()

	var rpc blockchain.RPC = retry.NewRPC(cache.NewRPC(rpcClient, c), policy, logger)
	var quoter blockchain.Quoter = retry.NewQuoter(cache.NewQuoter(quotes, c), policy, logger)

	l := ledger.New(store, cfg.LedgerConfig(), logger, collector)
	obs := New(
		balance.NewService(rpc, logger),
		delta.NewEngine(rpc, cfg.DeltaConfig(), logger),
		curve.NewSampler(rpc, quoter, cfg.CurveConfig(), logger, collector),
		l,
		logger,
	)

	logger.Info("✅ Observer service initialized",
		zap.String("ledger_driver", cfg.Ledger.Driver),
		zap.Bool("cache_dedup", cfg.CacheDedup))

	return &Service{
		Observer: obs,
		cfg:      cfg,
		cache:    c,
		quotes:   quotes,
		store:    store,
		exporter: export.NewEarningsExporter(logger),
		metrics:  collector,
		logger:   logger,
	}, nil
}

func openStorage(ctx context.Context, cfg *config.Config, configPath string, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Ledger.Driver {
	case config.DriverPostgres:
		store, err := postgres.NewStorage(cfg.Ledger.PostgresDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres ledger: %w", err)
		}
		if err := store.RunMigrations(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("migrate postgres ledger: %w", err)
		}
		return store, nil
	default:
		path := config.ResolvePath(configPath, cfg.Ledger.Path)
		store, err := sqlite.NewStorage(ctx, path, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		return store, nil
	}
}

// Config возвращает текущую конфигурацию.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Exporter возвращает экспортер журнала.
func (s *Service) Exporter() *export.EarningsExporter {
	return s.exporter
}

// Metrics возвращает коллектор (может быть nil).
func (s *Service) Metrics() *metrics.Collector {
	return s.metrics
}

// ApplyConfig применяет то, что можно менять без перезапуска: таблицу TTL кэша.
// Остальные изменения требуют перезапуска и только логируются.
func (s *Service) ApplyConfig(cfg *config.Config) {
	s.cache.SetTTLConfig(cfg.TTLConfig())
	if cfg.RPCURL != s.cfg.RPCURL || cfg.Ledger != s.cfg.Ledger {
		s.logger.Warn("RPC or ledger settings changed; restart to apply")
	}
	s.logger.Info("Cache TTL table updated")
}

// Close освобождает HTTP клиент котировок и хранилище.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Info("🛑 Shutting down observer service")
		var errs []error
		if err := s.quotes.Close(); err != nil {
			errs = append(errs, fmt.Errorf("quote client: %w", err))
		}
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("ledger storage: %w", err))
		}
		s.cache.Flush()
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
