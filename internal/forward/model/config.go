package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "sms-relay-hub/pkg/errors"
)

// PlatformConfig is the tagged union of per-platform credentials. Validate
// returns ErrConfigIncomplete-wrapped errors so dispatchers can fail fast
// before touching the network.
type PlatformConfig interface {
	Validate() error
}

type TelegramConfig struct {
	BotToken            string `json:"bot_token"`
	ChatID              string `json:"chat_id"`
	ParseMode           string `json:"parse_mode,omitempty"`
	DisableNotification bool   `json:"disable_notification,omitempty"`

	ProxyURL      string `json:"proxy_url,omitempty"`
	ProxyUsername string `json:"proxy_username,omitempty"`
	ProxyPassword string `json:"proxy_password,omitempty"`
}

func (c *TelegramConfig) Validate() error {
	if c.BotToken == "" || c.ChatID == "" {
		return fmt.Errorf("%w: telegram requires bot_token and chat_id", apperrors.ErrConfigIncomplete)
	}
	return nil
}

type BarkConfig struct {
	ServerURL string `json:"server_url"`
	DeviceKey string `json:"device_key"`
	Sound     string `json:"sound,omitempty"`
	Group     string `json:"group,omitempty"`
	Archive   bool   `json:"archive,omitempty"`
}

func (c *BarkConfig) Validate() error {
	if c.ServerURL == "" || c.DeviceKey == "" {
		return fmt.Errorf("%w: bark requires server_url and device_key", apperrors.ErrConfigIncomplete)
	}
	return nil
}

type WebhookConfig struct {
	URL            string            `json:"url"`
	Headers        map[string]string `json:"headers,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds,omitempty"`
}

func (c *WebhookConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: webhook requires url", apperrors.ErrConfigIncomplete)
	}
	return nil
}

type WxPusherConfig struct {
	AppToken string     `json:"app_token"`
	UIDs     StringList `json:"uids,omitempty"`
	TopicIDs StringList `json:"topic_ids,omitempty"`
}

func (c *WxPusherConfig) Validate() error {
	if c.AppToken == "" {
		return fmt.Errorf("%w: wxpusher requires app_token", apperrors.ErrConfigIncomplete)
	}
	if len(c.UIDs) == 0 && len(c.TopicIDs) == 0 {
		return fmt.Errorf("%w: wxpusher requires at least one uid or topic id", apperrors.ErrConfigIncomplete)
	}
	return nil
}

// StringList accepts a JSON array (of strings or numbers) or a single
// comma-separated string and normalizes either into a list of non-empty
// strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*l = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			var s string
			if err := json.Unmarshal(item, &s); err == nil {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
				continue
			}
			var n json.Number
			if err := json.Unmarshal(item, &n); err != nil {
				return fmt.Errorf("string list items must be strings or numbers, got %s", item)
			}
			out = append(out, n.String())
		}
		*l = out
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = splitList(s)
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Ints converts the list to integers, dropping entries that do not parse.
// WxPusher topic IDs are numeric on the wire.
func (l StringList) Ints() []int {
	out := make([]int, 0, len(l))
	for _, s := range l {
		if n, err := strconv.Atoi(s); err == nil {
			out = append(out, n)
		}
	}
	return out
}
