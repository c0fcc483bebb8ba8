package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Order is a stored order. Payload keeps the record exactly as the POS
// wrote it, including its original timestamp shapes; the typed columns
// exist for indexing and coarse range queries only.
type Order struct {
	ID           string          `gorm:"primaryKey;size:32" json:"id"`
	OrderType    string          `gorm:"size:20;index" json:"order_type"`
	Status       string          `gorm:"size:20;index" json:"status"`
	Total        decimal.Decimal `gorm:"type:numeric(14,2)" json:"total"`
	WaiterID     *string         `gorm:"size:32;index" json:"waiter_id"`
	CustomerName string          `gorm:"size:150" json:"customer_name"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
	PaidAt       *time.Time      `gorm:"index" json:"paid_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Payload      datatypes.JSON  `gorm:"type:jsonb" json:"payload"`
}
