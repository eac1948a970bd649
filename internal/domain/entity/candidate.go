package entity

import (
	"database/sql/driver"
	"fmt"
)

// Candidate: кандидат из общей таблицы users админ-панели.
// Таблицей владеет админ-панель: в ней нет deleted_at, а aptiscore и examstarted целые и могут быть NULL.
// Остальные колонки users здесь не отображаются.
type Candidate struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:255" json:"name"`
	Email       string  `gorm:"size:255" json:"email"`
	AptiScore   *int    `gorm:"column:aptiscore" json:"aptiscore"`
	ExamStarted IntBool `gorm:"column:examstarted" json:"examstarted"`
}

// TableName определяет имя таблицы для GORM
func (Candidate) TableName() string {
	return "users"
}

// CandidateSummary: краткие данные кандидата для ответов API
type CandidateSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary возвращает id, имя и email кандидата
func (c *Candidate) Summary() CandidateSummary {
	return CandidateSummary{ID: c.ID, Name: c.Name, Email: c.Email}
}

// IntBool: флаг, который в БД хранится целым 0/1.
// При чтении принимает и целые, и boolean, и NULL (как false).
type IntBool bool

// Value пишет флаг как 0 или 1
func (b IntBool) Value() (driver.Value, error) {
	if b {
		return int64(1), nil
	}
	return int64(0), nil
}

// Scan читает флаг из целого, boolean, текста или NULL
func (b *IntBool) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*b = false
	case bool:
		*b = IntBool(v)
	case int64:
		*b = v != 0
	case []byte:
		return b.scanText(string(v))
	case string:
		return b.scanText(v)
	default:
		return fmt.Errorf("unsupported examstarted value %T", src)
	}
	return nil
}

func (b *IntBool) scanText(s string) error {
	switch s {
	case "", "0", "f", "false", "FALSE":
		*b = false
	case "1", "t", "true", "TRUE":
		*b = true
	default:
		return fmt.Errorf("unsupported examstarted value %q", s)
	}
	return nil
}
