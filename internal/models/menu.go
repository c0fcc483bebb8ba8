package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        string `gorm:"primaryKey;size:32" json:"id"`
	Name      string `gorm:"size:100;not null" json:"name"`
	SortOrder int    `json:"sort_order"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MenuItem is the current menu. Historical line items are matched to it by
// name only, since items are renamed and removed over time.
type MenuItem struct {
	ID         string          `gorm:"primaryKey;size:32" json:"id"`
	Name       string          `gorm:"size:150;not null;index" json:"name"`
	CategoryID string          `gorm:"size:32;index" json:"category_id"`
	Category   *Category       `json:"-"`
	Price      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Available  bool            `gorm:"default:true" json:"available"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ToKey renders a numeric id the way order payloads store references.
func ToKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
