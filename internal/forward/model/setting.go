package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformBark     Platform = "bark"
	PlatformWebhook  Platform = "webhook"
	PlatformWxPusher Platform = "wxpusher"
)

// Platforms lists every supported notification platform.
var Platforms = []Platform{PlatformTelegram, PlatformBark, PlatformWebhook, PlatformWxPusher}

// DefaultTemplate renders SMS notifications when the admin has not configured
// a template. Call notifications ignore the template entirely.
const DefaultTemplate = "设备: {device}\n卡槽: {simcard}\n号码: {sender}\n内容: {content}\n时间: {time}"

// ForwardSetting is one platform's forwarding configuration: enabled flag,
// platform-specific credentials (opaque JSON, decoded via DecodeConfig),
// filter rules, template and delivery counters. One row per platform.
type ForwardSetting struct {
	ID       uuid.UUID       `json:"id" gorm:"primaryKey"`
	Platform Platform        `json:"platform" gorm:"type:varchar(20);uniqueIndex;not null"`
	Enabled  bool            `json:"enabled" gorm:"default:false"`
	Config   json.RawMessage `json:"config" gorm:"type:jsonb"`
	Rules    FilterRules     `json:"rules" gorm:"type:jsonb"`
	Template string          `json:"template"`

	LastForwardAt *time.Time `json:"last_forward_at,omitempty"`
	ForwardCount  int64      `json:"forward_count"`
	FailCount     int64      `json:"fail_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ForwardSetting) TableName() string {
	return "forward_settings"
}

// TemplateOrDefault returns the configured SMS template, falling back to
// DefaultTemplate when none is set.
func (s *ForwardSetting) TemplateOrDefault() string {
	if s.Template != "" {
		return s.Template
	}
	return DefaultTemplate
}

// DecodeConfig decodes the opaque config column into the typed struct for
// the setting's platform. An empty column decodes to zero-valued config so
// enabled-but-unconfigured platforms fail at validation, not at decode.
func (s *ForwardSetting) DecodeConfig() (PlatformConfig, error) {
	var cfg PlatformConfig
	switch s.Platform {
	case PlatformTelegram:
		cfg = &TelegramConfig{}
	case PlatformBark:
		cfg = &BarkConfig{}
	case PlatformWebhook:
		cfg = &WebhookConfig{}
	case PlatformWxPusher:
		cfg = &WxPusherConfig{}
	default:
		return nil, fmt.Errorf("unknown platform %q", s.Platform)
	}

	if len(s.Config) > 0 {
		if err := json.Unmarshal(s.Config, cfg); err != nil {
			return nil, fmt.Errorf("decode %s config: %w", s.Platform, err)
		}
	}
	return cfg, nil
}

// NewDefaultSetting builds the lazily-created row for a platform: disabled,
// empty rules, default template.
func NewDefaultSetting(platform Platform) *ForwardSetting {
	return &ForwardSetting{
		ID:       uuid.New(),
		Platform: platform,
		Enabled:  false,
		Config:   json.RawMessage("{}"),
		Template: DefaultTemplate,
	}
}
