package dispatcher

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"sms-relay-hub/internal/forward/model"
)

const telegramAPIBase = "https://api.telegram.org"

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

type Telegram struct {
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

func NewTelegram(timeout time.Duration, logger *zap.Logger) *Telegram {
	return &Telegram{
		baseURL: telegramAPIBase,
		timeout: timeout,
		logger:  logger,
	}
}

// NewTelegramWithBaseURL is used by tests to point at a fake Bot API.
func NewTelegramWithBaseURL(baseURL string, timeout time.Duration, logger *zap.Logger) *Telegram {
	t := NewTelegram(timeout, logger)
	t.baseURL = baseURL
	return t
}

func (t *Telegram) Platform() model.Platform {
	return model.PlatformTelegram
}

func (t *Telegram) Send(ctx context.Context, n *Notification, setting *model.ForwardSetting) error {
	decoded, err := setting.DecodeConfig()
	if err != nil {
		return err
	}
	cfg := decoded.(*model.TelegramConfig)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The client is rebuilt per send because the proxy is part of the
	// admin-managed config and may change between dispatches.
	client := resty.New().SetTimeout(t.timeout)
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return fmt.Errorf("invalid telegram proxy url: %w", err)
		}
		if cfg.ProxyUsername != "" {
			proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
		}
		client.SetProxy(proxyURL.String())
	}

	body := map[string]interface{}{
		"chat_id":              cfg.ChatID,
		"text":                 n.Text,
		"disable_notification": cfg.DisableNotification,
	}
	if cfg.ParseMode != "" {
		body["parse_mode"] = cfg.ParseMode
	}

	var result telegramResponse
	resp, err := client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, cfg.BotToken))
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}

	if !result.OK {
		if result.Description != "" {
			return fmt.Errorf("telegram api error %d: %s", result.ErrorCode, result.Description)
		}
		return fmt.Errorf("telegram api rejected message (http %d)", resp.StatusCode())
	}
	return nil
}
