package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"product-importer-service/internal/events"
	"product-importer-service/internal/models"
	"product-importer-service/internal/repository"
)

type WebhooksHandler struct {
	repo       *repository.WebhooksRepository
	dispatcher *events.Dispatcher
}

func NewWebhooksHandler(repo *repository.WebhooksRepository, dispatcher *events.Dispatcher) *WebhooksHandler {
	return &WebhooksHandler{repo: repo, dispatcher: dispatcher}
}

// GetWebhooks lists all registered webhooks
func (h *WebhooksHandler) GetWebhooks(c *gin.Context) {
	webhooks, err := h.repo.GetWebhooks()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve webhooks",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.WebhookListResponse{Success: true, Data: webhooks})
}

// CreateWebhook registers a new webhook target
func (h *WebhooksHandler) CreateWebhook(c *gin.Context) {
	var req models.CreateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	webhook := &models.Webhook{
		Name:      req.Name,
		URL:       req.URL,
		EventType: req.EventType,
		Enabled:   enabled,
	}
	if err := h.repo.CreateWebhook(webhook); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CREATE_FAILED",
				Message: "Failed to create webhook",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, models.WebhookResponse{Success: true, Data: webhook})
}

// GetWebhook retrieves a single webhook by ID
func (h *WebhooksHandler) GetWebhook(c *gin.Context) {
	webhookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Webhook ID must be a valid UUID",
			},
		})
		return
	}

	webhook, err := h.repo.GetWebhookByID(webhookID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Webhook not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve webhook",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.WebhookResponse{Success: true, Data: webhook})
}

// UpdateWebhook updates an existing webhook
func (h *WebhooksHandler) UpdateWebhook(c *gin.Context) {
	webhookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Webhook ID must be a valid UUID",
			},
		})
		return
	}

	var req models.UpdateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	if _, err := h.repo.GetWebhookByID(webhookID); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Webhook not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve webhook",
			},
		})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.URL != nil {
		updates["url"] = *req.URL
	}
	if req.EventType != nil {
		updates["event_type"] = *req.EventType
	}
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
	}

	if len(updates) > 0 {
		if err := h.repo.UpdateWebhook(webhookID, updates); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "UPDATE_FAILED",
					Message: "Failed to update webhook",
				},
			})
			return
		}
	}

	webhook, err := h.repo.GetWebhookByID(webhookID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve webhook",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.WebhookResponse{Success: true, Data: webhook})
}

// DeleteWebhook removes a webhook target
func (h *WebhooksHandler) DeleteWebhook(c *gin.Context) {
	webhookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Webhook ID must be a valid UUID",
			},
		})
		return
	}

	if _, err := h.repo.GetWebhookByID(webhookID); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Webhook not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve webhook",
			},
		})
		return
	}

	if err := h.repo.DeleteWebhook(webhookID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETE_FAILED",
				Message: "Failed to delete webhook",
			},
		})
		return
	}

	message := "Webhook deleted successfully"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &message})
}

// TestWebhook sends a synthetic event to the webhook target and reports the
// delivery outcome without touching any product data.
func (h *WebhooksHandler) TestWebhook(c *gin.Context) {
	webhookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Webhook ID must be a valid UUID",
			},
		})
		return
	}

	webhook, err := h.repo.GetWebhookByID(webhookID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Webhook not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve webhook",
			},
		})
		return
	}

	event := models.WebhookEvent{
		Event:     "webhook.test",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data: map[string]interface{}{
			"webhook_id": webhook.ID.String(),
			"message":    "Test delivery from product-importer-service",
		},
	}

	start := time.Now()
	statusCode, err := h.dispatcher.Send(webhook.URL, event)
	elapsed := time.Since(start).Seconds()

	result := models.WebhookTestResponse{ResponseTime: &elapsed}
	if err != nil {
		msg := err.Error()
		result.Error = &msg
	} else {
		result.StatusCode = &statusCode
		result.Success = statusCode < 400
	}

	c.JSON(http.StatusOK, result)
}
