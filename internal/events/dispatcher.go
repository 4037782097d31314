package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"product-importer-service/internal/models"
)

// WebhookStore resolves delivery targets for an event type
type WebhookStore interface {
	GetEnabledWebhooksByEvent(eventType string) ([]models.Webhook, error)
}

// Dispatcher fans an event out to every enabled webhook for its type.
// Delivery is best-effort with a single attempt per target: a failing target
// never affects the other targets or the operation that raised the event.
type Dispatcher struct {
	store  WebhookStore
	client *http.Client
	logger *logrus.Entry
}

func NewDispatcher(store WebhookStore, timeout time.Duration, logger *logrus.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		store:  store,
		client: &http.Client{Timeout: timeout},
		logger: logger.WithField("component", "webhook-dispatcher"),
	}
}

// Emit delivers an event asynchronously so the caller never blocks on
// webhook targets. Errors are swallowed after logging.
func (d *Dispatcher) Emit(eventType string, data map[string]interface{}) {
	event := models.WebhookEvent{
		Event:     eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
	go d.deliver(event)
}

func (d *Dispatcher) deliver(event models.WebhookEvent) {
	webhooks, err := d.store.GetEnabledWebhooksByEvent(event.Event)
	if err != nil {
		d.logger.WithError(err).WithField("eventType", event.Event).
			Error("Failed to load webhook targets")
		return
	}
	if len(webhooks) == 0 {
		return
	}

	for _, webhook := range webhooks {
		statusCode, err := d.Send(webhook.URL, event)
		log := d.logger.WithFields(logrus.Fields{
			"eventType": event.Event,
			"webhookId": webhook.ID.String(),
			"url":       webhook.URL,
		})
		if err != nil {
			log.WithError(err).Warn("Webhook delivery failed")
			continue
		}
		if statusCode >= 400 {
			log.WithField("statusCode", statusCode).Warn("Webhook target returned an error status")
			continue
		}
		log.WithField("statusCode", statusCode).Debug("Webhook delivered")
	}
}

// Send performs one delivery attempt and returns the target's status code.
// It is also used by the webhook test endpoint, which needs the result
// synchronously.
func (d *Dispatcher) Send(url string, event models.WebhookEvent) (int, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	resp, err := d.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}
