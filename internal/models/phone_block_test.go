package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhoneBlock_StateAt(t *testing.T) {
	now := time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Minute), now.Add(time.Minute)

	assert.Equal(t, PhoneBlockActive, PhoneBlock{State: PhoneBlockActive}.StateAt(now))
	assert.Equal(t, PhoneBlockActive, PhoneBlock{State: PhoneBlockActive, ExpiresAt: &future}.StateAt(now))
	assert.Equal(t, PhoneBlockExpired, PhoneBlock{State: PhoneBlockActive, ExpiresAt: &past}.StateAt(now))
	assert.Equal(t, PhoneBlockExpired, PhoneBlock{State: PhoneBlockActive, ExpiresAt: &now}.StateAt(now))
	assert.Equal(t, PhoneBlockExpired, PhoneBlock{State: PhoneBlockExpired}.StateAt(now))
}

func TestWaiterKey(t *testing.T) {
	assert.Equal(t, "42", User{ID: 42}.WaiterKey())
}
