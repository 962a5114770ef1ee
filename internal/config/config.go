// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solana-observer/internal/cache"
	"github.com/rovshanmuradov/solana-observer/internal/curve"
	"github.com/rovshanmuradov/solana-observer/internal/delta"
	"github.com/rovshanmuradov/solana-observer/internal/dex/jupiter"
	"github.com/rovshanmuradov/solana-observer/internal/ledger"
	"github.com/rovshanmuradov/solana-observer/internal/retry"
	"github.com/rovshanmuradov/solana-observer/internal/utils/logger"
)

// EnvPrefix - префикс переменных окружения (SOLANA_OBSERVER_RPC_URL и т.д.).
const EnvPrefix = "SOLANA_OBSERVER"

type Config struct {
	RPCURL             string         `mapstructure:"rpc_url"`
	RPCTimeoutMs       int            `mapstructure:"rpc_timeout_ms"`
	RPCHeavyTimeoutMs  int            `mapstructure:"rpc_heavy_timeout_ms"`
	QuoteURL           string         `mapstructure:"quote_url"`
	QuoteTimeoutMs     int            `mapstructure:"quote_timeout_ms"`
	QuoteRatePerMinute int            `mapstructure:"quote_rate_per_minute"`
	QuoteDelayMs       int            `mapstructure:"quote_delay_ms"`
	SlippageBps        int            `mapstructure:"slippage_bps"`
	CacheTTL           CacheTTLConfig `mapstructure:"cache_ttl"`
	CacheDedup         bool           `mapstructure:"cache_dedup"`
	Retry              RetryConfig    `mapstructure:"retry"`
	Ladder             []string       `mapstructure:"ladder"`
	Delta              DeltaConfig    `mapstructure:"delta"`
	Ledger             LedgerConfig   `mapstructure:"ledger"`
	DefaultWallet      string         `mapstructure:"default_wallet"`
	DefaultMint        string         `mapstructure:"default_mint"`
	Log                LogConfig      `mapstructure:"log"`
	API                APIConfig      `mapstructure:"api"`
}

// CacheTTLConfig - TTL в секундах по видам вызовов.
type CacheTTLConfig struct {
	Balance       int `mapstructure:"balance"`
	Mint          int `mapstructure:"mint"`
	TokenAccounts int `mapstructure:"token_accounts"`
	Quote         int `mapstructure:"quote"`
	Signatures    int `mapstructure:"signatures"`
	Transaction   int `mapstructure:"transaction"`
}

type RetryConfig struct {
	MaxTries          int `mapstructure:"max_tries"`
	InitialIntervalMs int `mapstructure:"initial_interval_ms"`
	MaxIntervalMs     int `mapstructure:"max_interval_ms"`
	MaxElapsedMs      int `mapstructure:"max_elapsed_ms"`
}

type DeltaConfig struct {
	DefaultLimit   int `mapstructure:"default_limit"`
	MaxLimit       int `mapstructure:"max_limit"`
	Concurrency    int `mapstructure:"concurrency"`
	BatchTimeoutMs int `mapstructure:"batch_timeout_ms"`
}

type LedgerConfig struct {
	Driver      string `mapstructure:"driver"`
	Path        string `mapstructure:"path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
	ImportTail  int    `mapstructure:"import_tail"`
}

type LogConfig struct {
	File        string `mapstructure:"file"`
	MaxSize     int    `mapstructure:"max_size"`
	MaxAge      int    `mapstructure:"max_age"`
	MaxBackups  int    `mapstructure:"max_backups"`
	Compress    bool   `mapstructure:"compress"`
	Development bool   `mapstructure:"development"`
	Console     bool   `mapstructure:"console"`
}

type APIConfig struct {
	Listen string `mapstructure:"listen"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultRPCURL            = "https://api.mainnet-beta.solana.com"
	DefaultRPCTimeoutMs      = 10000
	DefaultRPCHeavyTimeoutMs = 25000
	DefaultQuoteTimeoutMs    = 15000
	DefaultQuoteRate         = 60
	DefaultQuoteDelayMs      = 350
	DefaultSlippageBps       = 50
	DefaultListen            = "127.0.0.1:8080"
)

var defaultLadder = []string{"1", "5", "10", "25", "50", "100", "250", "500", "1000"}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"rpc_url":                   DefaultRPCURL,
		"rpc_timeout_ms":            DefaultRPCTimeoutMs,
		"rpc_heavy_timeout_ms":      DefaultRPCHeavyTimeoutMs,
		"quote_url":                 jupiter.DefaultQuoteURL,
		"quote_timeout_ms":          DefaultQuoteTimeoutMs,
		"quote_rate_per_minute":     DefaultQuoteRate,
		"quote_delay_ms":            DefaultQuoteDelayMs,
		"slippage_bps":              DefaultSlippageBps,
		"cache_ttl.balance":         20,
		"cache_ttl.mint":            60,
		"cache_ttl.token_accounts":  20,
		"cache_ttl.quote":           25,
		"cache_ttl.signatures":      25,
		"cache_ttl.transaction":     25,
		"cache_dedup":               true,
		"retry.max_tries":           3,
		"retry.initial_interval_ms": 250,
		"retry.max_interval_ms":     2000,
		"retry.max_elapsed_ms":      10000,
		"ladder":                    defaultLadder,
		"delta.default_limit":       25,
		"delta.max_limit":           200,
		"delta.concurrency":         4,
		"delta.batch_timeout_ms":    45000,
		"ledger.driver":             DriverSQLite,
		"ledger.path":               "observer.db",
		"ledger.postgres_dsn":       "",
		"ledger.import_tail":        ledger.DefaultImportTail,
		"default_wallet":            "",
		"default_mint":              "",
		"log.file":                  "observer.log",
		"log.max_size":              100,
		"log.max_age":               7,
		"log.max_backups":           3,
		"log.compress":              true,
		"log.development":           false,
		"log.console":               true,
		"api.listen":                DefaultListen,
	}
}

// LoadConfig читает конфигурацию из файла (JSON/YAML по расширению) с
// переопределением через переменные окружения. Пустой path - только
// значения по умолчанию и окружение.
func LoadConfig(path string) (*Config, error) {
	cfg, _, err := Load(path)
	return cfg, err
}

// Load как LoadConfig, но возвращает и viper для Watch.
func Load(path string) (*Config, *viper.Viper, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	loadEnvironmentVariables(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch перечитывает файл при изменении и передает валидную конфигурацию
// в onChange. Невалидная правка логируется и игнорируется.
func Watch(v *viper.Viper, log *zap.Logger, onChange func(*Config)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			log.Warn("Ignoring invalid config change", zap.String("file", e.Name), zap.Error(err))
			return
		}
		log.Info("Config reloaded", zap.String("file", e.Name))
		onChange(cfg)
	})
	v.WatchConfig()
}

// LoadDotEnv загружает .env файлы, если они есть. Уже заданные
// переменные окружения не перезаписываются.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if err := validateURLWithCache(cfg.RPCURL, "http"); err != nil {
		return fmt.Errorf("invalid rpc_url: %w", err)
	}
	if err := validateURLWithCache(cfg.QuoteURL, "http"); err != nil {
		return fmt.Errorf("invalid quote_url: %w", err)
	}
	if err := validateNumericParams(cfg); err != nil {
		return err
	}
	if _, err := cfg.LadderDecimals(); err != nil {
		return err
	}
	switch cfg.Ledger.Driver {
	case DriverSQLite:
		if cfg.Ledger.Path == "" {
			return errors.New("ledger.path is required for sqlite")
		}
	case DriverPostgres:
		if cfg.Ledger.PostgresDSN == "" {
			return errors.New("ledger.postgres_dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unknown ledger.driver %q", cfg.Ledger.Driver)
	}
	for key, addr := range map[string]string{"default_wallet": cfg.DefaultWallet, "default_mint": cfg.DefaultMint} {
		if addr == "" {
			continue
		}
		if _, err := solana.PublicKeyFromBase58(addr); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

func validateNumericParams(cfg *Config) error {
	if cfg.RPCTimeoutMs <= 0 || cfg.RPCHeavyTimeoutMs <= 0 {
		return errors.New("invalid rpc timeouts")
	}
	if cfg.QuoteTimeoutMs <= 0 {
		return errors.New("invalid quote_timeout_ms")
	}
	if cfg.QuoteRatePerMinute < 0 {
		return errors.New("invalid quote_rate_per_minute")
	}
	if cfg.QuoteDelayMs < 0 {
		return errors.New("invalid quote_delay_ms")
	}
	if cfg.SlippageBps < 0 || cfg.SlippageBps > 10000 {
		return errors.New("invalid slippage_bps")
	}
	ttl := cfg.CacheTTL
	if ttl.Balance < 0 || ttl.Mint < 0 || ttl.TokenAccounts < 0 || ttl.Quote < 0 || ttl.Signatures < 0 || ttl.Transaction < 0 {
		return errors.New("cache_ttl values must not be negative")
	}
	if cfg.Retry.MaxTries < 1 {
		return errors.New("invalid retry.max_tries")
	}
	if cfg.Retry.InitialIntervalMs < 0 || cfg.Retry.MaxIntervalMs < 0 || cfg.Retry.MaxElapsedMs < 0 {
		return errors.New("invalid retry intervals")
	}
	if cfg.Delta.DefaultLimit < 1 || cfg.Delta.MaxLimit < cfg.Delta.DefaultLimit {
		return errors.New("invalid delta limits")
	}
	if cfg.Delta.Concurrency < 1 {
		return errors.New("invalid delta.concurrency")
	}
	if cfg.Delta.BatchTimeoutMs < 0 {
		return errors.New("invalid delta.batch_timeout_ms")
	}
	if cfg.Ledger.ImportTail < 1 {
		return errors.New("invalid ledger.import_tail")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func sec(n int) time.Duration { return time.Duration(n) * time.Second }

// LadderDecimals разбирает лестницу размеров кривой.
func (c *Config) LadderDecimals() ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, 0, len(c.Ladder))
	for _, raw := range c.Ladder {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid ladder size %q: %w", raw, err)
		}
		out = append(out, d)
	}
	if err := curve.ValidateLadder(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Config) SolbcOptions() solbc.Options {
	return solbc.Options{
		RPCURL:       c.RPCURL,
		Timeout:      ms(c.RPCTimeoutMs),
		HeavyTimeout: ms(c.RPCHeavyTimeoutMs),
	}
}

func (c *Config) JupiterConfig() jupiter.Config {
	return jupiter.Config{
		QuoteURL:      c.QuoteURL,
		Timeout:       ms(c.QuoteTimeoutMs),
		SlippageBps:   c.SlippageBps,
		RatePerMinute: c.QuoteRatePerMinute,
	}
}

func (c *Config) TTLConfig() cache.TTLConfig {
	return cache.TTLConfig{
		Balance:       sec(c.CacheTTL.Balance),
		Mint:          sec(c.CacheTTL.Mint),
		TokenAccounts: sec(c.CacheTTL.TokenAccounts),
		Quote:         sec(c.CacheTTL.Quote),
		Signatures:    sec(c.CacheTTL.Signatures),
		Transaction:   sec(c.CacheTTL.Transaction),
	}
}

func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxTries:        uint(c.Retry.MaxTries),
		InitialInterval: ms(c.Retry.InitialIntervalMs),
		MaxInterval:     ms(c.Retry.MaxIntervalMs),
		MaxElapsedTime:  ms(c.Retry.MaxElapsedMs),
	}
}

func (c *Config) DeltaConfig() delta.Config {
	return delta.Config{
		DefaultLimit: c.Delta.DefaultLimit,
		MaxLimit:     c.Delta.MaxLimit,
		Concurrency:  c.Delta.Concurrency,
		BatchTimeout: ms(c.Delta.BatchTimeoutMs),
	}
}

// CurveConfig предполагает, что лестница уже прошла validateConfig.
func (c *Config) CurveConfig() curve.Config {
	ladder, _ := c.LadderDecimals()
	return curve.Config{Ladder: ladder, Delay: ms(c.QuoteDelayMs)}
}

func (c *Config) LedgerConfig() ledger.Config {
	return ledger.Config{ImportTail: c.Ledger.ImportTail}
}

func (c *Config) LoggerConfig() *logger.Config {
	return &logger.Config{
		LogFile:     c.Log.File,
		MaxSize:     c.Log.MaxSize,
		MaxAge:      c.Log.MaxAge,
		MaxBackups:  c.Log.MaxBackups,
		Compress:    c.Log.Compress,
		Development: c.Log.Development,
		Console:     c.Log.Console,
	}
}

// ResolvePath делает относительный путь к базе относительным каталогу конфигурации.
func ResolvePath(configPath, p string) string {
	if p == "" || filepath.IsAbs(p) || configPath == "" {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}
