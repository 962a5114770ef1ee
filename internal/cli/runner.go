// internal/cli/runner.go
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/api"
	"github.com/rovshanmuradov/solana-observer/internal/config"
	"github.com/rovshanmuradov/solana-observer/internal/observer"
	"github.com/rovshanmuradov/solana-observer/internal/utils/logger"
)

const shutdownTimeout = 15 * time.Second

// Runner поднимает конфигурацию, логгер и сервис наблюдения для бинарников.
type Runner struct {
	cfg        *config.Config
	viper      *viper.Viper
	configPath string
	logger     *logger.Logger
	registry   *prometheus.Registry
	service    *observer.Service
	shutdown   *observer.ShutdownHandler
}

// NewRunner создает пустой Runner; ресурсы создаются в Initialize.
func NewRunner() *Runner {
	return &Runner{}
}

// Initialize читает .env и конфигурацию, создает логгер и сервис.
// console=false отключает вывод логов в stdout (stdout занят результатом команды).
func (r *Runner) Initialize(ctx context.Context, configPath string, console bool) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, v, err := config.Load(configPath)
	if err != nil {
		return err
	}
	r.cfg, r.viper, r.configPath = cfg, v, configPath

	logCfg := cfg.LoggerConfig()
	logCfg.Console = logCfg.Console && console
	r.logger, err = logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	r.shutdown = observer.NewShutdownHandler(r.logger.Logger, shutdownTimeout)
	r.shutdown.Add("logger", r.logger)

	r.registry = prometheus.NewRegistry()
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r.service, err = observer.NewService(ctx, &observer.ServiceConfig{
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     r.logger.Logger,
		Registerer: r.registry,
	})
	if err != nil {
		r.logger.LogError("Failed to initialize observer service", err)
		return err
	}
	r.shutdown.Add("observer", r.service)
	return nil
}

// Service возвращает сервис наблюдения.
func (r *Runner) Service() *observer.Service {
	return r.service
}

// Logger возвращает логгер приложения.
func (r *Runner) Logger() *logger.Logger {
	return r.logger
}

// Config возвращает загруженную конфигурацию.
func (r *Runner) Config() *config.Config {
	return r.cfg
}

// Env собирает окружение команд поверх сервиса.
func (r *Runner) Env(out io.Writer, in io.Reader) *Env {
	return &Env{
		Obs:      r.service,
		Ledger:   r.service.Ledger(),
		Exporter: r.service.Exporter(),
		Config:   r.cfg,
		Logger:   r.logger.Logger,
		Out:      out,
		In:       in,
		Serve:    r.Serve,
	}
}

// WatchConfig подписывает сервис и логгер на изменения файла конфигурации.
func (r *Runner) WatchConfig() {
	if r.configPath == "" {
		return
	}
	config.Watch(r.viper, r.logger.Logger, func(cfg *config.Config) {
		r.service.ApplyConfig(cfg)
		r.logger.SetDevelopment(cfg.Log.Development)
	})
}

// Serve отдает HTTP API до отмены ctx.
func (r *Runner) Serve(ctx context.Context, addr string) error {
	r.WatchConfig()
	server := api.NewServer(r.service, r.registry, r.logger.Logger)
	r.logger.Info("🚀 Serving observer API", zap.String("addr", addr))
	return server.ListenAndServe(ctx, addr)
}

// Shutdown закрывает сервис и логгер.
func (r *Runner) Shutdown(ctx context.Context) error {
	if r.shutdown == nil {
		return nil
	}
	return r.shutdown.Shutdown(ctx)
}
