package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/storage"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
)

func newTestStorage(t *testing.T) (storage.Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := NewStorage(context.Background(), path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestAppendAndList(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	entries := []*models.Earning{
		{Timestamp: base, Source: models.SourceManual, Amount: decimal.RequireFromString("1.5"), Note: "first"},
		{Timestamp: base.Add(time.Hour), Source: models.SourceImport, Amount: decimal.RequireFromString("0.000000001")},
		{Timestamp: base.Add(2 * time.Hour), Source: models.SourceManual, Amount: decimal.RequireFromString("3")},
	}
	for _, e := range entries {
		require.NoError(t, s.AppendEarning(ctx, e))
	}
	assert.Less(t, entries[0].ID, entries[1].ID)
	assert.Less(t, entries[1].ID, entries[2].ID)

	latest, err := s.ListEarnings(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, entries[2].ID, latest[0].ID)
	assert.Equal(t, entries[1].ID, latest[1].ID)
	assert.Equal(t, "0.000000001", latest[1].Amount.String())
	assert.Equal(t, models.SourceImport, latest[1].Source)

	all, err := s.AllEarnings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Note)
	assert.True(t, base.Equal(all[0].Timestamp))
}

func TestEarningsAreAppendOnly(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.AppendEarning(ctx, &models.Earning{Timestamp: time.Now(), Source: models.SourceManual, Amount: decimal.NewFromInt(1)}))

	db := s.(*sqliteStorage).db
	_, err := db.ExecContext(ctx, `UPDATE earnings SET amount = '2'`)
	assert.Error(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM earnings`)
	assert.Error(t, err)
}

func TestSettings(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	_, err := s.GetSetting(ctx, "default_mint")
	assert.ErrorIs(t, err, storage.ErrSettingNotFound)

	require.NoError(t, s.SetSetting(ctx, "default_mint", "a"))
	require.NoError(t, s.SetSetting(ctx, "default_mint", "b"))

	v, err := s.GetSetting(ctx, "default_mint")
	require.NoError(t, err)
	assert.Equal(t, "b", v)
}

func TestReopenKeepsData(t *testing.T) {
	s, path := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.AppendEarning(ctx, &models.Earning{Timestamp: time.Now(), Source: models.SourceManual, Amount: decimal.NewFromInt(4)}))
	require.NoError(t, s.Close())

	reopened, err := NewStorage(ctx, path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	all, err := reopened.AllEarnings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "4", all[0].Amount.String())
}
