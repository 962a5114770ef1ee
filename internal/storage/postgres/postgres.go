// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/rovshanmuradov/solana-observer/internal/storage"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
)

// gormLogger реализует интерфейс logger.Interface для GORM
type gormLogger struct {
	zapLogger *zap.Logger
	logLevel  logger.LogLevel
}

// newGormLogger создает новый логгер для GORM
func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{
		zapLogger: zapLogger,
		logLevel:  logger.Warn,
	}
}

// LogMode реализация интерфейса logger.Interface
func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

// Info реализация интерфейса logger.Interface
func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

// Warn реализация интерфейса logger.Interface
func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

// Error реализация интерфейса logger.Interface
func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

// Trace реализация интерфейса logger.Interface
func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	if err != nil {
		l.zapLogger.Error("trace", append(fields, zap.Error(err))...)
		return
	}

	if l.logLevel >= logger.Info {
		l.zapLogger.Debug("trace", fields...)
	}
}

// postgresStorage реализует интерфейс Storage
type postgresStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStorage подключается к PostgreSQL. Миграции запускаются отдельно через RunMigrations.
func NewStorage(dsn string, zapLogger *zap.Logger) (storage.Storage, error) {
	gormLogger := newGormLogger(zapLogger.Named("gorm"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Настройка пула соединений
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &postgresStorage{
		db:     db,
		logger: zapLogger.Named("postgres"),
	}, nil
}

// RunMigrations использует GORM AutoMigrate под advisory lock
func (p *postgresStorage) RunMigrations(ctx context.Context) error {
	db := p.db.WithContext(ctx)

	// Сначала попробуем получить блокировку
	var lockObtained bool
	if err := db.Raw("SELECT pg_try_advisory_lock(101)").Scan(&lockObtained).Error; err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !lockObtained {
		return fmt.Errorf("another migration is in progress")
	}
	defer db.Exec("SELECT pg_advisory_unlock(101)")

	if err := db.AutoMigrate(&models.Earning{}, &models.Setting{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range appendOnlyDDL {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to install append-only triggers: %w", err)
	}
	return nil
}

// appendOnlyDDL запрещает UPDATE и DELETE записей доходов, как триггеры sqlite.
// Выполняется по одному выражению: расширенный протокол pgx не принимает пакеты.
var appendOnlyDDL = []string{
	`CREATE OR REPLACE FUNCTION earnings_append_only() RETURNS trigger AS $$
BEGIN
	RAISE EXCEPTION 'earnings are append-only';
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS earnings_no_update ON earnings`,
	`CREATE TRIGGER earnings_no_update BEFORE UPDATE ON earnings
	FOR EACH ROW EXECUTE FUNCTION earnings_append_only()`,
	`DROP TRIGGER IF EXISTS earnings_no_delete ON earnings`,
	`CREATE TRIGGER earnings_no_delete BEFORE DELETE ON earnings
	FOR EACH ROW EXECUTE FUNCTION earnings_append_only()`,
}

func (p *postgresStorage) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *postgresStorage) AppendEarning(ctx context.Context, e *models.Earning) error {
	e.Timestamp = e.Timestamp.UTC()
	return p.db.WithContext(ctx).Create(e).Error
}

func (p *postgresStorage) ListEarnings(ctx context.Context, limit int) ([]*models.Earning, error) {
	var out []*models.Earning
	q := p.db.WithContext(ctx).Order("timestamp desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (p *postgresStorage) AllEarnings(ctx context.Context) ([]*models.Earning, error) {
	var out []*models.Earning
	err := p.db.WithContext(ctx).Order("timestamp asc").Order("id asc").Find(&out).Error
	return out, err
}

func (p *postgresStorage) GetSetting(ctx context.Context, key string) (string, error) {
	var setting models.Setting
	err := p.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", storage.ErrSettingNotFound
		}
		return "", err
	}
	return setting.Value, nil
}

func (p *postgresStorage) SetSetting(ctx context.Context, key, value string) error {
	setting := models.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}
