package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWarrantyAnchorPrefersDeliveredAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	delivered := now.AddDate(0, 0, -10)
	completed := now.AddDate(0, 0, -2)

	order := Order{DeliveredAt: &delivered, CompletedAt: &completed}

	assert.True(t, order.WarrantyElapsed(now))
	assert.Equal(t, 0, order.WarrantyDaysLeft(now))
}

func TestWarrantyFallsBackToCompletedAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	completed := now.AddDate(0, 0, -3)

	order := Order{CompletedAt: &completed}

	assert.False(t, order.WarrantyElapsed(now))
	assert.Equal(t, 4, order.WarrantyDaysLeft(now))
}

func TestWarrantyWithoutTimestampsNeverElapses(t *testing.T) {
	now := time.Now().UTC()

	order := Order{}

	assert.False(t, order.WarrantyElapsed(now))
	assert.Equal(t, WarrantyDays, order.WarrantyDaysLeft(now))
}

func TestWarrantyElapsesExactlyAtDeadline(t *testing.T) {
	delivered := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	order := Order{DeliveredAt: &delivered}

	deadline := delivered.AddDate(0, 0, WarrantyDays)

	assert.False(t, order.WarrantyElapsed(deadline.Add(-time.Minute)))
	assert.True(t, order.WarrantyElapsed(deadline))
}
