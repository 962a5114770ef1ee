// internal/utils/logger/logger.go
package logger

import (
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger расширяет функционал zap.Logger
type Logger struct {
	*zap.Logger
	config *Config
	level  zap.AtomicLevel
	rotor  *lumberjack.Logger
}

// New создает логгер: консоль плюс JSON файл с ротацией.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	level := zap.NewAtomicLevelAt(levelFor(cfg.Development))

	var cores []zapcore.Core
	if cfg.Console {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), level))
	}

	var rotor *lumberjack.Logger
	if cfg.LogFile != "" {
		rotor = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotor), level))
	}

	return &Logger{
		Logger: zap.New(zapcore.NewTee(cores...),
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		),
		config: cfg,
		level:  level,
		rotor:  rotor,
	}, nil
}

func levelFor(development bool) zapcore.Level {
	if development {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

// SetDevelopment переключает уровень без пересоздания логгера (горячая перезагрузка конфига).
func (l *Logger) SetDevelopment(development bool) {
	l.level.SetLevel(levelFor(development))
}

// Level возвращает текущий уровень.
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// LogError логирует ошибку с дополнительным контекстом
func (l *Logger) LogError(msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.Error(msg, fields...)
}

// Sync реализует безопасный вызов Sync
func (l *Logger) Sync() error {
	err := l.Logger.Sync()
	if err != nil && (err.Error() == "sync /dev/stdout: invalid argument" ||
		err.Error() == "sync /dev/stderr: inappropriate ioctl for device") {
		return nil
	}
	return err
}

// Close сбрасывает буферы и закрывает файл ротации.
func (l *Logger) Close() error {
	_ = l.Sync()
	if l.rotor != nil {
		return l.rotor.Close()
	}
	return nil
}

// WithOperation помечает логи одного вызова операции общим correlation_id.
func WithOperation(l *zap.Logger, operation string) *zap.Logger {
	return l.With(
		zap.String("operation", operation),
		zap.String("correlation_id", uuid.New().String()),
	)
}

// WithComponent добавляет информацию о компоненте системы
func WithComponent(l *zap.Logger, component string) *zap.Logger {
	return l.With(zap.String("component", component))
}

// WithWallet добавляет адрес кошелька к логам
func WithWallet(l *zap.Logger, address string) *zap.Logger {
	return l.With(zap.String("wallet", address))
}

// TrackPerformance пишет в debug длительность операции; вызовите end по завершении.
func TrackPerformance(l *zap.Logger, operation string) (end func()) {
	start := time.Now()
	l.Debug("Starting operation", zap.String("step", operation))

	return func() {
		duration := time.Since(start)
		l.Debug("Operation completed",
			zap.String("step", operation),
			zap.Duration("duration", duration),
			zap.Float64("duration_ms", float64(duration.Microseconds())/1000),
		)
	}
}
