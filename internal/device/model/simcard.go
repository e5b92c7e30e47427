package model

import (
	"time"

	"github.com/google/uuid"
)

// SimCard is one SIM bay of a device, keyed by (device, slot). Cards are
// created lazily on the first event referencing an unseen slot; later events
// only touch fields whose incoming value differs and is non-empty.
type SimCard struct {
	ID         uuid.UUID `json:"id" gorm:"primaryKey"`
	DeviceID   uuid.UUID `json:"device_id" gorm:"uniqueIndex:idx_simcards_device_slot;not null"`
	Slot       int       `json:"slot" gorm:"uniqueIndex:idx_simcards_device_slot;not null"`
	MSISDN     *string   `json:"msisdn,omitempty"`
	IMSI       *string   `json:"imsi,omitempty"`
	ICCID      *string   `json:"iccid,omitempty"`
	Name       *string   `json:"name,omitempty"`
	Status     SimStatus `json:"status" gorm:"type:varchar(20);default:'registering'"`
	StatusCode int       `json:"status_code"`
	CallState  CallState `json:"call_state" gorm:"type:varchar(20);default:'idle'"`

	LastCallerNumber *string    `json:"last_caller_number,omitempty"`
	LastCallerAt     *time.Time `json:"last_caller_at,omitempty"`
	LastActiveAt     *time.Time `json:"last_active_at,omitempty"`

	AutoAnswer AutoAnswerConfig `json:"auto_answer" gorm:"embedded;embeddedPrefix:auto_answer_"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Device *Device `json:"device,omitempty" gorm:"foreignKey:DeviceID;references:ID"`
}

func (SimCard) TableName() string {
	return "sim_cards"
}

// DisplayName falls back to the MSISDN when no name was configured.
func (s *SimCard) DisplayName() string {
	if s.Name != nil && *s.Name != "" {
		return *s.Name
	}
	if s.MSISDN != nil {
		return *s.MSISDN
	}
	return ""
}

// AutoAnswerConfig drives the device-side auto answer feature. The relay only
// stores it; playback is handled by the device-control surface.
type AutoAnswerConfig struct {
	Enabled         bool       `json:"enabled"`
	DelaySeconds    int        `json:"delay_seconds"`
	DurationSeconds int        `json:"duration_seconds"`
	TTSTemplateID   *uuid.UUID `json:"tts_template_id,omitempty"`
	RepeatCount     int        `json:"repeat_count"`
	PauseSeconds    int        `json:"pause_seconds"`
	PostAction      *string    `json:"post_action,omitempty"`
}
