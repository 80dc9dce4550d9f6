package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WebhookEvent records every successfully processed provider delivery.
// A redelivery with a known event id is acknowledged without re-running
// the reconciliation; failed deliveries are never recorded so the
// provider's retry mechanism stays effective.
type WebhookEvent struct {
	EventID     string          `gorm:"primaryKey;size:128;not null"`
	Provider    string          `gorm:"size:16;index;not null"` // FASTSPRING, PADDLE
	EventType   string          `gorm:"size:64;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2)"`
	Currency    string          `gorm:"size:8"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
