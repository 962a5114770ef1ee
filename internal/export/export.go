package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/ledger"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ExportOptions configures the export behavior
type ExportOptions struct {
	Format       ExportFormat
	StartTime    time.Time
	EndTime      time.Time
	SourceFilter models.Source // manual or import, empty for both
	OutputDir    string
}

// EarningsExporter writes ledger entries and the cumulative timeline to files
type EarningsExporter struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewEarningsExporter creates a new earnings exporter
func NewEarningsExporter(logger *zap.Logger) *EarningsExporter {
	return &EarningsExporter{
		logger: logger.Named("export"),
		now:    time.Now,
	}
}

// ExportSummary contains summary statistics for exported entries
type ExportSummary struct {
	TotalEntries int             `json:"total_entries"`
	ManualCount  int             `json:"manual_count"`
	ImportCount  int             `json:"import_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
}

// ExportEarnings exports entries matching the options, sorted ascending by timestamp
func (ee *EarningsExporter) ExportEarnings(entries []*models.Earning, options ExportOptions) (string, error) {
	filtered := ee.filterEntries(entries, options)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no earnings match the export criteria")
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Timestamp.Equal(filtered[j].Timestamp) {
			return filtered[i].ID < filtered[j].ID
		}
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	outputPath, err := ee.prepareOutput("earnings", options)
	if err != nil {
		return "", err
	}

	switch options.Format {
	case FormatCSV:
		rows := make([][]string, 0, len(filtered))
		for _, e := range filtered {
			rows = append(rows, []string{
				strconv.FormatUint(e.ID, 10),
				e.Timestamp.UTC().Format(time.RFC3339),
				string(e.Source),
				e.Amount.String(),
				e.Note,
			})
		}
		err = writeCSV(outputPath, []string{"id", "timestamp", "source", "amount", "note"}, rows)
	case FormatJSON:
		err = writeJSON(outputPath, struct {
			ExportTime time.Time         `json:"export_time"`
			Count      int               `json:"count"`
			Earnings   []*models.Earning `json:"earnings"`
			Summary    ExportSummary     `json:"summary"`
		}{
			ExportTime: ee.now().UTC(),
			Count:      len(filtered),
			Earnings:   filtered,
			Summary:    calculateSummary(filtered),
		})
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	ee.logger.Info("Earnings exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))
	return outputPath, nil
}

// ExportTimeline exports the cumulative running total
func (ee *EarningsExporter) ExportTimeline(points []ledger.Point, options ExportOptions) (string, error) {
	if len(points) == 0 {
		return "", fmt.Errorf("timeline is empty")
	}

	sorted := append([]ledger.Point(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	outputPath, err := ee.prepareOutput("timeline", options)
	if err != nil {
		return "", err
	}

	switch options.Format {
	case FormatCSV:
		rows := make([][]string, 0, len(sorted))
		for _, p := range sorted {
			rows = append(rows, []string{p.Timestamp.UTC().Format(time.RFC3339), p.Total.String()})
		}
		err = writeCSV(outputPath, []string{"timestamp", "cumulative"}, rows)
	case FormatJSON:
		err = writeJSON(outputPath, sorted)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	ee.logger.Info("Timeline exported",
		zap.String("file", outputPath),
		zap.Int("points", len(sorted)))
	return outputPath, nil
}

// filterEntries applies time and source filters
func (ee *EarningsExporter) filterEntries(entries []*models.Earning, options ExportOptions) []*models.Earning {
	var filtered []*models.Earning
	for _, e := range entries {
		if !options.StartTime.IsZero() && e.Timestamp.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && e.Timestamp.After(options.EndTime) {
			continue
		}
		if options.SourceFilter != "" && e.Source != options.SourceFilter {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

// prepareOutput creates the output directory and a timestamped filename
func (ee *EarningsExporter) prepareOutput(prefix string, options ExportOptions) (string, error) {
	if options.Format != FormatCSV && options.Format != FormatJSON {
		return "", fmt.Errorf("unsupported format: %s", options.Format)
	}
	if options.OutputDir == "" {
		options.OutputDir = "."
	}
	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if options.SourceFilter != "" {
		prefix += "_" + string(options.SourceFilter)
	}
	filename := fmt.Sprintf("%s_%s.%s", prefix, ee.now().Format("20060102_150405"), options.Format)
	return filepath.Join(options.OutputDir, filename), nil
}

func calculateSummary(entries []*models.Earning) ExportSummary {
	summary := ExportSummary{TotalEntries: len(entries), TotalAmount: decimal.Zero}
	if len(entries) == 0 {
		return summary
	}

	summary.StartDate = entries[0].Timestamp
	summary.EndDate = entries[len(entries)-1].Timestamp
	for _, e := range entries {
		summary.TotalAmount = summary.TotalAmount.Add(e.Amount)
		switch e.Source {
		case models.SourceManual:
			summary.ManualCount++
		case models.SourceImport:
			summary.ImportCount++
		}
	}
	return summary
}

func writeCSV(outputPath string, header []string, rows [][]string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

func writeJSON(outputPath string, v interface{}) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := sonic.ConfigStd.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
