package models

import "time"

type PhoneBlockState string

const (
	PhoneBlockActive  PhoneBlockState = "active"
	PhoneBlockExpired PhoneBlockState = "expired"
)

// PhoneBlock stops delivery orders from a phone number until ExpiresAt.
// A nil ExpiresAt blocks permanently.
type PhoneBlock struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Phone     string          `gorm:"size:32;not null;index" json:"phone"`
	Reason    string          `gorm:"size:255" json:"reason"`
	State     PhoneBlockState `gorm:"size:20;not null;index" json:"state"`
	ExpiresAt *time.Time      `gorm:"index" json:"expires_at"`
	CreatedBy uint            `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StateAt reports the state the block should be in at now.
func (b PhoneBlock) StateAt(now time.Time) PhoneBlockState {
	if b.ExpiresAt != nil && !now.Before(*b.ExpiresAt) {
		return PhoneBlockExpired
	}
	return b.State
}
