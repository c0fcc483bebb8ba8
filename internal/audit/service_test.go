package audit

import (
	"math"
	"testing"

	"restoran-analytics/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestNewLog(t *testing.T) {
	log := NewLog(LogOptions{
		UserID:     1,
		UserName:   "Admin",
		EntityType: "phone_block",
		EntityID:   "5",
		Action:     models.AuditActionCreate,
		After:      map[string]any{"phone": "+998901234567"},
	})

	assert.Equal(t, "null", string(log.BeforeData))
	assert.JSONEq(t, `{"phone":"+998901234567"}`, string(log.AfterData))
	assert.Equal(t, "5", log.EntityID)
}

func TestNewLog_Unmarshallable(t *testing.T) {
	log := NewLog(LogOptions{Before: math.Inf(1)})
	assert.Equal(t, "null", string(log.BeforeData))
}

func TestWriteLogTx_NoDatabase(t *testing.T) {
	err := WriteLogTx(nil, LogOptions{EntityType: "report"})
	assert.ErrorIs(t, err, ErrNoDatabase)
}
