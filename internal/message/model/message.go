package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	device "sms-relay-hub/internal/device/model"
)

type MessageType string

const (
	TypeSMS  MessageType = "sms"
	TypeCall MessageType = "call"
)

// Call status snapshots stored on call messages.
const (
	CallStatusRinging  = "ringing"
	CallStatusAnswered = "answered"
	CallStatusRejected = "rejected"
	CallStatusMissed   = "missed"
)

// Message is the immutable record of one inbound SMS or call event. It is
// written in the same transaction as the SIM card upsert and never updated.
type Message struct {
	ID        uuid.UUID   `json:"id" gorm:"primaryKey"`
	DeviceID  uuid.UUID   `json:"device_id" gorm:"index;not null"`
	SimCardID uuid.UUID   `json:"sim_card_id" gorm:"index;not null"`
	Type      MessageType `json:"type" gorm:"type:varchar(10);index;not null"`
	Channel   *string     `json:"channel,omitempty"`

	DeviceTime *time.Time `json:"device_time,omitempty"`
	Sender     *string    `json:"sender,omitempty"`
	Body       *string    `json:"body,omitempty"`

	CallDuration *int    `json:"call_duration,omitempty"`
	CallStatus   *string `json:"call_status,omitempty"`

	RawPayload json.RawMessage `json:"raw_payload,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`

	Device  *device.Device  `json:"device,omitempty" gorm:"foreignKey:DeviceID;references:ID"`
	SimCard *device.SimCard `json:"sim_card,omitempty" gorm:"foreignKey:SimCardID;references:ID"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) SenderNumber() string {
	if m.Sender != nil {
		return *m.Sender
	}
	return ""
}

func (m *Message) BodyText() string {
	if m.Body != nil {
		return *m.Body
	}
	return ""
}
