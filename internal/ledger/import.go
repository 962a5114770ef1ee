// internal/ledger/import.go
package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/storage/models"
)

// preferredColumns - имена колонок, которые выбираются в первую очередь (без учета регистра).
var preferredColumns = []string{"sol", "amount", "earned", "value"}

// groupedNumber - число с запятыми-разделителями тысяч: "1,234" или "12,345.67".
var groupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// Table - табличные данные: заголовок и строки.
type Table struct {
	Header []string
	Rows   [][]string
}

// StagedImport - суммы, извлеченные из таблицы и ждущие подтверждения.
type StagedImport struct {
	ID        string            `json:"id"`
	Column    string            `json:"column"`
	Amounts   []decimal.Decimal `json:"amounts"`
	Total     decimal.Decimal   `json:"total"`
	CreatedAt time.Time         `json:"created_at"`
}

// ReadCSV разбирает CSV с обязательной строкой заголовка.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, blockchain.ValidationError("importCSV", fmt.Errorf("parse csv: %w", err))
	}
	if len(records) == 0 {
		return Table{}, blockchain.ValidationError("importCSV", errors.New("empty file, header row required"))
	}
	return Table{Header: records[0], Rows: records[1:]}, nil
}

// ImportCSV читает CSV и готовит импорт к подтверждению.
func (l *Ledger) ImportCSV(r io.Reader) (*StagedImport, error) {
	table, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	return l.StageImport(table)
}

// StageImport выбирает колонку сумм и извлекает положительные значения из
// последних ImportTail строк. Ничего не пишет: запись только после ConfirmImport.
func (l *Ledger) StageImport(table Table) (*StagedImport, error) {
	const op = "stageImport"

	col, ok := SelectColumn(table)
	if !ok {
		return nil, blockchain.ValidationError(op, errors.New("no numeric column found"))
	}

	amounts := TailPositive(table, col, l.cfg.ImportTail)
	if len(amounts) == 0 {
		return nil, blockchain.ValidationError(op, fmt.Errorf("column %q has no positive values", table.Header[col]))
	}

	l.stageMu.Lock()
	l.nextStage++
	staged := &StagedImport{
		ID:        fmt.Sprintf("imp-%d", l.nextStage),
		Column:    table.Header[col],
		Amounts:   amounts,
		Total:     decimal.Sum(decimal.Zero, amounts...),
		CreatedAt: l.now(),
	}
	l.staged[staged.ID] = staged
	l.stageMu.Unlock()

	l.logger.Info("Import staged",
		zap.String("id", staged.ID),
		zap.String("column", staged.Column),
		zap.Int("count", len(amounts)),
		zap.String("total", staged.Total.String()))
	return staged, nil
}

// Staged возвращает подготовленный импорт по id.
func (l *Ledger) Staged(id string) (*StagedImport, bool) {
	l.stageMu.Lock()
	defer l.stageMu.Unlock()
	s, ok := l.staged[id]
	return s, ok
}

// ConfirmImport записывает суммы подготовленного импорта с источником import.
// При ошибке хранилища уже записанные строки остаются (история не откатывается),
// а импорт снимается с подготовки.
func (l *Ledger) ConfirmImport(ctx context.Context, id string) ([]*models.Earning, error) {
	staged, err := l.take(id)
	if err != nil {
		return nil, err
	}

	note := "import:" + staged.Column
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*models.Earning, 0, len(staged.Amounts))
	for _, amount := range staged.Amounts {
		e, err := l.appendLocked(ctx, amount, models.SourceImport, note)
		if err != nil {
			return out, fmt.Errorf("confirm import %s after %d entries: %w", id, len(out), err)
		}
		out = append(out, e)
	}
	return out, nil
}

// DiscardImport отменяет подготовленный импорт.
func (l *Ledger) DiscardImport(id string) error {
	_, err := l.take(id)
	return err
}

func (l *Ledger) take(id string) (*StagedImport, error) {
	l.stageMu.Lock()
	defer l.stageMu.Unlock()
	s, ok := l.staged[id]
	if !ok {
		return nil, blockchain.NotFoundError("import", fmt.Errorf("staged import %q", id))
	}
	delete(l.staged, id)
	return s, nil
}

// SelectColumn выбирает колонку сумм: сначала колонку из preferredColumns с
// хотя бы одним числом (в порядке списка), иначе первую колонку, где все
// непустые значения - числа.
func SelectColumn(table Table) (int, bool) {
	for _, want := range preferredColumns {
		for i, name := range table.Header {
			if strings.EqualFold(strings.TrimSpace(name), want) && numericCount(table, i) > 0 {
				return i, true
			}
		}
	}
	for i := range table.Header {
		if isNumericColumn(table, i) {
			return i, true
		}
	}
	return -1, false
}

// TailPositive возвращает положительные числа из последних tail строк колонки.
func TailPositive(table Table, col, tail int) []decimal.Decimal {
	rows := table.Rows
	if tail > 0 && len(rows) > tail {
		rows = rows[len(rows)-tail:]
	}

	var out []decimal.Decimal
	for _, row := range rows {
		d, ok := cell(row, col)
		if ok && d.IsPositive() {
			out = append(out, d)
		}
	}
	return out
}

func numericCount(table Table, col int) int {
	n := 0
	for _, row := range table.Rows {
		if _, ok := cell(row, col); ok {
			n++
		}
	}
	return n
}

func isNumericColumn(table Table, col int) bool {
	seen := false
	for _, row := range table.Rows {
		if col >= len(row) || strings.TrimSpace(row[col]) == "" {
			continue
		}
		if _, ok := cell(row, col); !ok {
			return false
		}
		seen = true
	}
	return seen
}

// cell разбирает число. Пробелы по краям и запятые-разделители тысяч
// игнорируются, десятичная запятая отвергается.
func cell(row []string, col int) (decimal.Decimal, bool) {
	if col >= len(row) {
		return decimal.Decimal{}, false
	}
	raw := strings.TrimSpace(row[col])
	if raw == "" {
		return decimal.Decimal{}, false
	}
	if strings.Contains(raw, ",") {
		// десятичная запятая ("0,5") не число: иначе она молча превратилась бы в 5
		if !groupedNumber.MatchString(raw) {
			return decimal.Decimal{}, false
		}
		raw = strings.ReplaceAll(raw, ",", "")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
