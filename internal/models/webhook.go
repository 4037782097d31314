package models

import (
	"time"

	"github.com/google/uuid"
)

// Webhook event types emitted by this service
const (
	EventProductCreated      = "product.created"
	EventProductUpdated      = "product.updated"
	EventProductDeleted      = "product.deleted"
	EventProductsBulkDeleted = "products.bulk_deleted"
	EventImportCompleted     = "import.completed"
)

// Webhook represents an outbound notification target.
// Delivery is best-effort: one POST attempt per target, failures are logged
// and never surfaced to the operation that triggered the event.
type Webhook struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	URL       string    `json:"url" gorm:"type:varchar(1000);not null"`
	EventType string    `json:"eventType" gorm:"type:varchar(100);not null;index"`
	Enabled   bool      `json:"enabled" gorm:"not null;default:true;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Webhook model
func (Webhook) TableName() string {
	return "webhooks"
}

// WebhookEvent is the JSON body POSTed to each enabled target
type WebhookEvent struct {
	Event     string                 `json:"event"`
	Timestamp string                 `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// CreateWebhookRequest represents a request to register a webhook
type CreateWebhookRequest struct {
	Name      string `json:"name" binding:"required"`
	URL       string `json:"url" binding:"required"`
	EventType string `json:"eventType" binding:"required"`
	Enabled   *bool  `json:"enabled,omitempty"`
}

// UpdateWebhookRequest represents a request to update a webhook
type UpdateWebhookRequest struct {
	Name      *string `json:"name,omitempty"`
	URL       *string `json:"url,omitempty"`
	EventType *string `json:"eventType,omitempty"`
	Enabled   *bool   `json:"enabled,omitempty"`
}

// WebhookResponse wraps a single webhook
type WebhookResponse struct {
	Success bool     `json:"success"`
	Data    *Webhook `json:"data"`
	Message *string  `json:"message,omitempty"`
}

// WebhookListResponse wraps a webhook collection
type WebhookListResponse struct {
	Success bool      `json:"success"`
	Data    []Webhook `json:"data"`
}

// WebhookTestResponse reports the outcome of a manual test delivery
type WebhookTestResponse struct {
	Success      bool     `json:"success"`
	StatusCode   *int     `json:"statusCode,omitempty"`
	ResponseTime *float64 `json:"responseTime,omitempty"` // seconds
	Error        *string  `json:"error,omitempty"`
}
