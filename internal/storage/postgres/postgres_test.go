package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/storage"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
)

// setupTestStorage поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestStorage(t *testing.T) storage.Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewStorage(dsn, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.RunMigrations(ctx))
	return s
}

func TestPostgresEarnings(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := &models.Earning{Timestamp: base, Source: models.SourceManual, Amount: decimal.RequireFromString("0.25"), Note: "a"}
	second := &models.Earning{Timestamp: base.Add(time.Minute), Source: models.SourceImport, Amount: decimal.RequireFromString("1.75")}
	require.NoError(t, s.AppendEarning(ctx, first))
	require.NoError(t, s.AppendEarning(ctx, second))
	assert.Less(t, first.ID, second.ID)

	latest, err := s.ListEarnings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, second.ID, latest[0].ID)

	all, err := s.AllEarnings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, decimal.RequireFromString("0.25").Equal(all[0].Amount))
	assert.Equal(t, models.SourceImport, all[1].Source)
}

func TestPostgresSettings(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	_, err := s.GetSetting(ctx, "default_wallet")
	assert.ErrorIs(t, err, storage.ErrSettingNotFound)

	require.NoError(t, s.SetSetting(ctx, "default_wallet", "w1"))
	require.NoError(t, s.SetSetting(ctx, "default_wallet", "w2"))

	v, err := s.GetSetting(ctx, "default_wallet")
	require.NoError(t, err)
	assert.Equal(t, "w2", v)
}

func TestPostgresEarningsAreAppendOnly(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	// повторный запуск миграций пересоздает триггеры без ошибки
	require.NoError(t, s.RunMigrations(ctx))

	e := &models.Earning{Timestamp: time.Now(), Source: models.SourceManual, Amount: decimal.RequireFromString("0.5")}
	require.NoError(t, s.AppendEarning(ctx, e))

	db := s.(*postgresStorage).db.WithContext(ctx)
	err := db.Exec("UPDATE earnings SET note = 'edited' WHERE id = ?", e.ID).Error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append-only")

	err = db.Exec("DELETE FROM earnings WHERE id = ?", e.ID).Error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append-only")

	all, err := s.AllEarnings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Empty(t, all[0].Note)
}
