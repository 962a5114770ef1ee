// internal/storage/models/base.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source - происхождение записи журнала доходов.
type Source string

const (
	SourceManual Source = "manual"
	SourceImport Source = "import"
)

// Valid сообщает, что источник известен.
func (s Source) Valid() bool {
	return s == SourceManual || s == SourceImport
}

// Earning - неизменяемая запись журнала доходов. Обновлений и удалений нет.
type Earning struct {
	ID        uint64          `gorm:"primarykey;autoIncrement" json:"id"`
	Timestamp time.Time       `gorm:"index;not null" json:"timestamp"`
	Source    Source          `gorm:"not null;type:varchar(16)" json:"source"`
	Amount    decimal.Decimal `gorm:"not null;type:numeric(38,18)" json:"amount"`
	Note      string          `gorm:"type:text" json:"note"`
}

// TableName фиксирует имя таблицы.
func (Earning) TableName() string { return "earnings" }

// Setting - пара ключ/значение (кошелек и минт по умолчанию и т.п.).
type Setting struct {
	Key       string    `gorm:"primarykey;type:varchar(64)"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName фиксирует имя таблицы.
func (Setting) TableName() string { return "settings" }
