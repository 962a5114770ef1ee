package ui

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Unavailable - как показывается отсутствующее значение. Никогда не "0".
const Unavailable = "n/a"

// FormatAmount показывает сумму с фиксированным числом знаков.
func FormatAmount(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

// FormatNull показывает недоступное значение как Unavailable, а ноль как ноль.
func FormatNull(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return Unavailable
	}
	return d.Decimal.StringFixed(places)
}

// FormatSigned добавляет знак "+" к положительной дельте.
func FormatSigned(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return Unavailable
	}
	s := d.Decimal.StringFixed(places)
	if d.Decimal.IsPositive() {
		return "+" + s
	}
	return s
}

// ShortAddress сокращает base58 адрес до "abcd…wxyz".
func ShortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:4] + "…" + addr[len(addr)-4:]
}

// IsUnavailable сообщает, что ячейка содержит отсутствующее значение.
func IsUnavailable(cell string) bool {
	return strings.TrimSpace(cell) == Unavailable
}
