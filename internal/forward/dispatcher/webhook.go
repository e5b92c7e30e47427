package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"sms-relay-hub/internal/forward/model"
)

type webhookPayload struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Webhook posts the rendered text to an admin-configured URL. Any 2xx
// response counts as delivered; the payload is not inspected for an ack.
type Webhook struct {
	client         *resty.Client
	defaultTimeout time.Duration
	maxTimeout     time.Duration
	logger         *zap.Logger
}

func NewWebhook(defaultTimeout, maxTimeout time.Duration, logger *zap.Logger) *Webhook {
	return &Webhook{
		client:         resty.New().SetHeader("Content-Type", "application/json"),
		defaultTimeout: defaultTimeout,
		maxTimeout:     maxTimeout,
		logger:         logger,
	}
}

func (w *Webhook) Platform() model.Platform {
	return model.PlatformWebhook
}

func (w *Webhook) Send(ctx context.Context, n *Notification, setting *model.ForwardSetting) error {
	decoded, err := setting.DecodeConfig()
	if err != nil {
		return err
	}
	cfg := decoded.(*model.WebhookConfig)
	if err := cfg.Validate(); err != nil {
		return err
	}

	timeout := w.defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout > w.maxTimeout {
			timeout = w.maxTimeout
		}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	eventType := "sms_forward"
	if n.IsCall {
		eventType = "call_forward"
	}

	req := w.client.R().
		SetContext(ctx).
		SetBody(webhookPayload{
			Type:      eventType,
			Message:   n.Text,
			Timestamp: time.Now().UnixMilli(),
		})
	for k, v := range cfg.Headers {
		req.SetHeader(k, v)
	}

	resp, err := req.Post(cfg.URL)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned http %d", resp.StatusCode())
	}
	return nil
}
