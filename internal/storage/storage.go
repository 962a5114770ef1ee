// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
)

// ErrSettingNotFound возвращается GetSetting для неизвестного ключа.
var ErrSettingNotFound = errors.New("setting not found")

// Storage определяет интерфейс для работы с хранилищем журнала.
// Записи только добавляются: операций изменения и удаления нет.
type Storage interface {
	// Доходы
	AppendEarning(ctx context.Context, e *models.Earning) error
	// ListEarnings возвращает последние limit записей, новые первыми; limit <= 0 - все.
	ListEarnings(ctx context.Context, limit int) ([]*models.Earning, error)
	// AllEarnings возвращает все записи по возрастанию времени (и id).
	AllEarnings(ctx context.Context) ([]*models.Earning, error)

	// Настройки
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	RunMigrations(ctx context.Context) error
	Close() error
}
