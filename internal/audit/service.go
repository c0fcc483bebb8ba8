package audit

import (
	"encoding/json"
	"errors"
	"fmt"

	"restoran-analytics/internal/database"
	"restoran-analytics/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// NewLog builds the row for opts. Values that cannot be marshalled are
// stored as JSON null.
func NewLog(opts LogOptions) models.AuditLog {
	return models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  jsonOrNull(opts.Before),
		AfterData:   jsonOrNull(opts.After),
	}
}

var ErrNoDatabase = errors.New("audit: no database connection")

// WriteLog stores an audit row using the shared connection.
func WriteLog(opts LogOptions) error {
	return WriteLogTx(database.DB, opts)
}

// WriteLogTx stores an audit row inside an existing transaction.
func WriteLogTx(tx *gorm.DB, opts LogOptions) error {
	if tx == nil {
		return ErrNoDatabase
	}
	log := NewLog(opts)
	if err := tx.Create(&log).Error; err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

// jsonb columns reject empty strings, so absent values become null
func jsonOrNull(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}
