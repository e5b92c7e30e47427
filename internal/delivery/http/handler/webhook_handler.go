package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"sms-relay-hub/internal/ingestion"
	"sms-relay-hub/internal/logger"
	"sms-relay-hub/internal/middleware"
	"sms-relay-hub/pkg/utils"
)

// WebhookHandler receives gateway events. It enqueues and answers 200 with
// success immediately; classification, persistence and forwarding all happen
// on the worker pool, and their failures never reach the gateway.
type WebhookHandler struct {
	processor *ingestion.Processor
	validate  *validator.Validate
}

func NewWebhookHandler(processor *ingestion.Processor) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		validate:  validator.New(),
	}
}

func (h *WebhookHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/webhook", h.Receive)
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	log := logger.WithRequestID(middleware.GetRequestID(c))

	body, err := c.GetRawData()
	if err != nil {
		log.Warn("failed to read webhook body", zap.Error(err))
		h.accepted(c)
		return
	}

	payload, err := ingestion.ParsePayload(body)
	if err != nil {
		log.Warn("malformed webhook payload, dropped",
			zap.ByteString("body", body),
			zap.Error(err),
		)
		h.accepted(c)
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		log.Warn("invalid webhook payload, dropped",
			zap.ByteString("body", body),
			zap.Error(err),
		)
		h.accepted(c)
		return
	}

	// Queue-full drops are logged and counted inside the processor; the
	// gateway still sees success.
	_ = h.processor.Enqueue(payload)
	h.accepted(c)
}

// accepted always answers 200. The gateway never retries, so the processing
// outcome is not reported back to it.
func (h *WebhookHandler) accepted(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "event received", nil)
}

// Metrics exposes pipeline health counters.
func (h *WebhookHandler) Metrics(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "ingest metrics", h.processor.Metrics())
}
