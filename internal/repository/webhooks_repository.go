package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"product-importer-service/internal/models"
)

type WebhooksRepository struct {
	db *gorm.DB
}

func NewWebhooksRepository(db *gorm.DB) *WebhooksRepository {
	return &WebhooksRepository{db: db}
}

// CreateWebhook registers a new webhook target
func (r *WebhooksRepository) CreateWebhook(webhook *models.Webhook) error {
	if webhook.ID == uuid.Nil {
		webhook.ID = uuid.New()
	}
	webhook.CreatedAt = time.Now()
	webhook.UpdatedAt = time.Now()
	return r.db.Create(webhook).Error
}

// GetWebhookByID retrieves a single webhook
func (r *WebhooksRepository) GetWebhookByID(webhookID uuid.UUID) (*models.Webhook, error) {
	var webhook models.Webhook
	if err := r.db.Where("id = ?", webhookID).First(&webhook).Error; err != nil {
		return nil, err
	}
	return &webhook, nil
}

// GetWebhooks lists all configured webhooks, newest first
func (r *WebhooksRepository) GetWebhooks() ([]models.Webhook, error) {
	var webhooks []models.Webhook
	if err := r.db.Order("created_at DESC").Find(&webhooks).Error; err != nil {
		return nil, err
	}
	return webhooks, nil
}

// GetEnabledWebhooksByEvent returns the delivery targets for one event type
func (r *WebhooksRepository) GetEnabledWebhooksByEvent(eventType string) ([]models.Webhook, error) {
	var webhooks []models.Webhook
	err := r.db.Where("event_type = ? AND enabled = ?", eventType, true).Find(&webhooks).Error
	if err != nil {
		return nil, err
	}
	return webhooks, nil
}

// UpdateWebhook applies field updates to a webhook
func (r *WebhooksRepository) UpdateWebhook(webhookID uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return r.db.Model(&models.Webhook{}).
		Where("id = ?", webhookID).
		Updates(updates).Error
}

// DeleteWebhook removes a webhook
func (r *WebhooksRepository) DeleteWebhook(webhookID uuid.UUID) error {
	return r.db.Where("id = ?", webhookID).Delete(&models.Webhook{}).Error
}
