package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"sms-relay-hub/internal/forward/model"
	apperrors "sms-relay-hub/pkg/errors"
)

const wxpusherSendURL = "https://wxpusher.zjiecode.com/api/send/message"

type wxpusherResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type WxPusher struct {
	client  *resty.Client
	sendURL string
	logger  *zap.Logger
}

func NewWxPusher(timeout time.Duration, logger *zap.Logger) *WxPusher {
	return &WxPusher{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		sendURL: wxpusherSendURL,
		logger:  logger,
	}
}

// NewWxPusherWithURL is used by tests to point at a fake endpoint.
func NewWxPusherWithURL(sendURL string, timeout time.Duration, logger *zap.Logger) *WxPusher {
	w := NewWxPusher(timeout, logger)
	w.sendURL = sendURL
	return w
}

func (w *WxPusher) Platform() model.Platform {
	return model.PlatformWxPusher
}

func (w *WxPusher) Send(ctx context.Context, n *Notification, setting *model.ForwardSetting) error {
	decoded, err := setting.DecodeConfig()
	if err != nil {
		return err
	}
	cfg := decoded.(*model.WxPusherConfig)
	if err := cfg.Validate(); err != nil {
		return err
	}

	topicIDs := cfg.TopicIDs.Ints()
	if len(topicIDs) < len(cfg.TopicIDs) {
		w.logger.Warn("ignoring non-numeric wxpusher topic ids",
			zap.Strings("topic_ids", cfg.TopicIDs),
		)
	}
	if len(cfg.UIDs) == 0 && len(topicIDs) == 0 {
		return fmt.Errorf("%w: wxpusher topic ids are not numeric", apperrors.ErrConfigIncomplete)
	}

	body := map[string]interface{}{
		"appToken":    cfg.AppToken,
		"content":     n.Text,
		"summary":     title(n),
		"contentType": 1,
	}
	if len(cfg.UIDs) > 0 {
		body["uids"] = []string(cfg.UIDs)
	}
	if len(topicIDs) > 0 {
		body["topicIds"] = topicIDs
	}

	var result wxpusherResponse
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&result).
		Post(w.sendURL)
	if err != nil {
		return fmt.Errorf("wxpusher request failed: %w", err)
	}

	if result.Code != 1000 {
		if result.Msg != "" {
			return fmt.Errorf("wxpusher error %d: %s", result.Code, result.Msg)
		}
		return fmt.Errorf("wxpusher rejected message (http %d)", resp.StatusCode())
	}
	return nil
}
