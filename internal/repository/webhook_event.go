package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"licensing-webhooks/internal/model"
)

type WebhookEventRepository interface {
	Exists(eventID string) (bool, error)
	MarkProcessed(eventID, provider, eventType string, amount decimal.Decimal, currency string) error
}

type webhookEventRepositoryImpl struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepositoryImpl{db: db}
}

func (r *webhookEventRepositoryImpl) Exists(eventID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error

	return count > 0, err
}

func (r *webhookEventRepositoryImpl) MarkProcessed(eventID, provider, eventType string, amount decimal.Decimal, currency string) error {
	return r.db.Create(&model.WebhookEvent{
		EventID:     eventID,
		Provider:    provider,
		EventType:   eventType,
		Amount:      amount,
		Currency:    currency,
		ProcessedAt: time.Now(),
	}).Error
}
