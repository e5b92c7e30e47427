package dispatcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"sms-relay-hub/internal/forward/model"
)

// Sound override for call notifications so they ring instead of ping.
const barkCallSound = "calling"

type barkResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Bark struct {
	client *resty.Client
	logger *zap.Logger
}

func NewBark(timeout time.Duration, logger *zap.Logger) *Bark {
	return &Bark{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		logger: logger,
	}
}

func (b *Bark) Platform() model.Platform {
	return model.PlatformBark
}

func (b *Bark) Send(ctx context.Context, n *Notification, setting *model.ForwardSetting) error {
	decoded, err := setting.DecodeConfig()
	if err != nil {
		return err
	}
	cfg := decoded.(*model.BarkConfig)
	if err := cfg.Validate(); err != nil {
		return err
	}

	sound := cfg.Sound
	if n.IsCall {
		sound = barkCallSound
	}

	body := map[string]interface{}{
		"title": title(n),
		"body":  n.Text,
	}
	if sound != "" {
		body["sound"] = sound
	}
	if cfg.Group != "" {
		body["group"] = cfg.Group
	}
	if cfg.Archive {
		body["isArchive"] = 1
	}

	endpoint := strings.TrimRight(cfg.ServerURL, "/") + "/" + cfg.DeviceKey

	var result barkResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&result).
		Post(endpoint)
	if err != nil {
		return fmt.Errorf("bark request failed: %w", err)
	}

	if result.Code != 200 {
		if result.Message != "" {
			return fmt.Errorf("bark error %d: %s", result.Code, result.Message)
		}
		return fmt.Errorf("bark rejected message (http %d)", resp.StatusCode())
	}
	return nil
}
