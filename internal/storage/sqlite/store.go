// internal/storage/sqlite/store.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/rovshanmuradov/solana-observer/internal/storage"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
)

// sqliteStorage реализует интерфейс Storage поверх локального файла SQLite.
type sqliteStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStorage открывает (или создает) файл базы и применяет миграции.
func NewStorage(ctx context.Context, path string, logger *zap.Logger) (storage.Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Одно соединение: запись в SQLite все равно сериализуется.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	s := &sqliteStorage{db: db, logger: logger.Named("sqlite")}
	if err := s.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *sqliteStorage) RunMigrations(ctx context.Context) error {
	if err := (&migrator{db: s.db}).up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

func (s *sqliteStorage) AppendEarning(ctx context.Context, e *models.Earning) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO earnings(timestamp, source, amount, note)
		VALUES(?, ?, ?, ?)
	`, e.Timestamp.UTC().UnixNano(), string(e.Source), e.Amount.String(), e.Note)
	if err != nil {
		return fmt.Errorf("insert earning: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("earning id: %w", err)
	}
	e.ID = uint64(id)
	return nil
}

func (s *sqliteStorage) ListEarnings(ctx context.Context, limit int) ([]*models.Earning, error) {
	query := `SELECT id, timestamp, source, amount, note FROM earnings ORDER BY timestamp DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryEarnings(ctx, query, args...)
}

func (s *sqliteStorage) AllEarnings(ctx context.Context) ([]*models.Earning, error) {
	return s.queryEarnings(ctx, `SELECT id, timestamp, source, amount, note FROM earnings ORDER BY timestamp ASC, id ASC`)
}

func (s *sqliteStorage) queryEarnings(ctx context.Context, query string, args ...interface{}) ([]*models.Earning, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query earnings: %w", err)
	}
	defer rows.Close()

	var out []*models.Earning
	for rows.Next() {
		var (
			e      models.Earning
			nanos  int64
			source string
			amount string
		)
		if err := rows.Scan(&e.ID, &nanos, &source, &amount, &e.Note); err != nil {
			return nil, fmt.Errorf("scan earning: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("earning %d amount %q: %w", e.ID, amount, err)
		}
		e.Timestamp = time.Unix(0, nanos).UTC()
		e.Source = models.Source(source)
		e.Amount = d
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate earnings: %w", err)
	}
	return out, nil
}

func (s *sqliteStorage) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ? LIMIT 1`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrSettingNotFound
		}
		return "", fmt.Errorf("query setting %s: %w", key, err)
	}
	return v, nil
}

func (s *sqliteStorage) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings(key, value, updated_at)
		VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`, key, value, time.Now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
