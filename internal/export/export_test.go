package export

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/ledger"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
)

func generateTestEarnings() []*models.Earning {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return []*models.Earning{
		{ID: 3, Timestamp: base.Add(2 * time.Hour), Source: models.SourceImport, Amount: decimal.RequireFromString("0.75")},
		{ID: 1, Timestamp: base, Source: models.SourceManual, Amount: decimal.RequireFromString("1.5"), Note: "creator fee, week 1"},
		{ID: 2, Timestamp: base.Add(time.Hour), Source: models.SourceManual, Amount: decimal.RequireFromString("0.25")},
	}
}

func TestEarningsExportCSV(t *testing.T) {
	exporter := NewEarningsExporter(zap.NewNop())
	tempDir := t.TempDir()

	outputPath, err := exporter.ExportEarnings(generateTestEarnings(), ExportOptions{Format: FormatCSV, OutputDir: tempDir})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(outputPath, tempDir))

	f, err := os.Open(outputPath)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"id", "timestamp", "source", "amount", "note"}, records[0])
	assert.Equal(t, "1", records[1][0], "sorted ascending by timestamp")
	assert.Equal(t, "creator fee, week 1", records[1][4])
	assert.Equal(t, "3", records[3][0])
}

func TestEarningsExportJSONWithFilter(t *testing.T) {
	exporter := NewEarningsExporter(zap.NewNop())

	outputPath, err := exporter.ExportEarnings(generateTestEarnings(), ExportOptions{
		Format:       FormatJSON,
		SourceFilter: models.SourceManual,
		OutputDir:    t.TempDir(),
	})
	require.NoError(t, err)
	assert.Contains(t, outputPath, "earnings_manual_")

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"count": 2`)
	assert.Contains(t, string(content), `"total_amount": "1.75"`)
}

func TestEarningsExportNoMatches(t *testing.T) {
	exporter := NewEarningsExporter(zap.NewNop())

	_, err := exporter.ExportEarnings(generateTestEarnings(), ExportOptions{
		Format:    FormatCSV,
		StartTime: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		OutputDir: t.TempDir(),
	})
	assert.Error(t, err)

	_, err = exporter.ExportEarnings(generateTestEarnings(), ExportOptions{Format: "xml", OutputDir: t.TempDir()})
	assert.Error(t, err)
}

func TestTimelineExport(t *testing.T) {
	exporter := NewEarningsExporter(zap.NewNop())
	entries := generateTestEarnings()
	ordered := []*models.Earning{entries[1], entries[2], entries[0]}

	outputPath, err := exporter.ExportTimeline(ledger.CumulativeOf(ordered), ExportOptions{Format: FormatCSV, OutputDir: t.TempDir()})
	require.NoError(t, err)

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "timestamp,cumulative", lines[0])
	assert.True(t, strings.HasSuffix(lines[3], ",2.5"))
}
