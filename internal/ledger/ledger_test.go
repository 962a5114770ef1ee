package ledger

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
	"github.com/rovshanmuradov/solana-observer/internal/storage/sqlite"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	store, err := sqlite.NewStorage(context.Background(), filepath.Join(t.TempDir(), "ledger.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	l := New(store, Config{}, zap.NewNop(), nil)
	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return l
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAppendRejectsNonPositive(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	for _, amount := range []string{"0", "-1", "-0.000001"} {
		_, err := l.Append(ctx, d(amount), models.SourceManual, "bad")
		assert.ErrorIs(t, err, blockchain.ErrValidation, amount)
	}

	_, err := l.Append(ctx, d("1"), models.Source("airdrop"), "")
	assert.ErrorIs(t, err, blockchain.ErrValidation)

	entries, err := l.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCumulativeMatchesSum(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	for _, amount := range []string{"0.5", "1.25", "0.000000001", "3"} {
		_, err := l.Append(ctx, d(amount), models.SourceManual, "")
		require.NoError(t, err)
	}

	points, err := l.Cumulative(ctx)
	require.NoError(t, err)
	require.Len(t, points, 4)

	for i := 1; i < len(points); i++ {
		assert.False(t, points[i].Timestamp.Before(points[i-1].Timestamp))
		assert.True(t, points[i].Total.GreaterThanOrEqual(points[i-1].Total))
	}

	all, err := l.List(ctx, 0)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, e := range all {
		sum = sum.Add(e.Amount)
	}
	assert.True(t, sum.Equal(points[len(points)-1].Total))
	assert.Equal(t, "4.750000001", points[len(points)-1].Total.String())
}

func TestConcurrentAppendsHaveUniqueIDs(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan uint64, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := l.Append(ctx, d("1"), models.SourceManual, "")
			if assert.NoError(t, err) {
				ids <- e.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uint64]bool{}
	for id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Len(t, seen, 20)
}

func TestStageAndConfirmImport(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	csvData := "date,Fees SOL,SOL,note\n" +
		"2024-01-01,9,0.5,a\n" +
		"2024-01-02,9,-0.2,refund\n" +
		"2024-01-03,9,,empty\n" +
		"2024-01-04,9,1.5,b\n"

	staged, err := l.ImportCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, "SOL", staged.Column)
	require.Len(t, staged.Amounts, 2)
	assert.Equal(t, "2", staged.Total.String())

	entries, err := l.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging never writes")

	written, err := l.ConfirmImport(ctx, staged.ID)
	require.NoError(t, err)
	require.Len(t, written, 2)
	for _, e := range written {
		assert.Equal(t, models.SourceImport, e.Source)
	}

	_, err = l.ConfirmImport(ctx, staged.ID)
	assert.ErrorIs(t, err, blockchain.ErrNotFound, "confirm is one-shot")
}

func TestDiscardImport(t *testing.T) {
	l := newTestLedger(t)

	staged, err := l.StageImport(Table{Header: []string{"Amount"}, Rows: [][]string{{"1"}, {"2"}}})
	require.NoError(t, err)

	require.NoError(t, l.DiscardImport(staged.ID))
	_, ok := l.Staged(staged.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, l.DiscardImport(staged.ID), blockchain.ErrNotFound)
}

func TestSelectColumn(t *testing.T) {
	tests := []struct {
		name   string
		table  Table
		want   int
		wantOK bool
	}{
		{
			name:   "allow-list is case-insensitive",
			table:  Table{Header: []string{"day", "EARNED"}, Rows: [][]string{{"1", "2"}}},
			want:   1,
			wantOK: true,
		},
		{
			name:   "allow-list order wins over header order",
			table:  Table{Header: []string{"value", "amount"}, Rows: [][]string{{"1", "2"}}},
			want:   1,
			wantOK: true,
		},
		{
			name:   "allow-listed column without numbers is skipped",
			table:  Table{Header: []string{"sol", "payout"}, Rows: [][]string{{"n/a", "2"}}},
			want:   1,
			wantOK: true,
		},
		{
			name:   "fallback skips mixed columns",
			table:  Table{Header: []string{"memo", "x"}, Rows: [][]string{{"abc", "1"}, {"2", "3"}}},
			want:   1,
			wantOK: true,
		},
		{
			name:   "no numeric column",
			table:  Table{Header: []string{"memo"}, Rows: [][]string{{"abc"}}},
			want:   -1,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectColumn(tt.table)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCellCommaHandling(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{raw: "1,234", want: "1234", wantOK: true},
		{raw: " 12,345.67 ", want: "12345.67", wantOK: true},
		{raw: "-1,000,000.5", want: "-1000000.5", wantOK: true},
		{raw: "0.5", want: "0.5", wantOK: true},
		{raw: "0,5", wantOK: false},
		{raw: "1,5.2", wantOK: false},
		{raw: "12,34", wantOK: false},
		{raw: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := cell([]string{tt.raw}, 0)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}

	// колонка с десятичными запятыми не выбирается как числовая
	_, ok := SelectColumn(Table{Header: []string{"amount"}, Rows: [][]string{{"0,5"}, {"1,25"}}})
	assert.False(t, ok)
}

func TestTailPositiveBoundsRows(t *testing.T) {
	table := Table{Header: []string{"amount"}}
	for i := 1; i <= 100; i++ {
		table.Rows = append(table.Rows, []string{decimal.NewFromInt(int64(i)).String()})
	}

	got := TailPositive(table, 0, 80)
	require.Len(t, got, 80)
	assert.Equal(t, "21", got[0].String())
	assert.Equal(t, "100", got[79].String())
}

func TestStageImportWithoutValues(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.StageImport(Table{Header: []string{"amount"}, Rows: [][]string{{"0"}, {"-5"}}})
	assert.ErrorIs(t, err, blockchain.ErrValidation)

	_, err = l.ImportCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, blockchain.ErrValidation)
}

func TestSettings(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	v, err := l.GetSetting(ctx, "default_mint")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, l.SetSetting(ctx, "default_mint", "mint1"))
	v, err = l.GetSetting(ctx, "default_mint")
	require.NoError(t, err)
	assert.Equal(t, "mint1", v)

	assert.ErrorIs(t, l.SetSetting(ctx, "", "x"), blockchain.ErrValidation)
}
