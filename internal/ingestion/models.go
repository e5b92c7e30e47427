package ingestion

import (
	"encoding/json"
	"time"
)

// Gateway event type discriminators.
const (
	TypeSMS           = 501
	TypeCallRinging   = 601
	TypeCallConnected = 602
	TypeCallEnded     = 603
	TypeHeartbeat     = 998
)

// WebhookPayload is the raw JSON a gateway posts for every event. Only type
// and devId are always present; the rest depends on the event type.
type WebhookPayload struct {
	Type  int    `json:"type" validate:"required"`
	DevID string `json:"devId" validate:"required"`
	Slot  int    `json:"slot" validate:"min=0,max=2"`

	PhNum string `json:"phNum,omitempty"` // sender / caller number
	SmsBd string `json:"smsBd,omitempty"` // SMS body
	NetCh string `json:"netCh,omitempty"` // network channel
	TS    int64  `json:"ts,omitempty"`    // device-reported unix millis
	Dur   int    `json:"dur,omitempty"`   // call duration, seconds

	IMSI    string `json:"imsi,omitempty"`
	ICCID   string `json:"iccId,omitempty"`
	MSISDN  string `json:"msIsdn,omitempty"`
	SimName string `json:"simName,omitempty"`

	Cnt int `json:"cnt,omitempty"` // heartbeat sequence counter

	// Raw is the untouched request body, retained for audit on the
	// persisted message.
	Raw json.RawMessage `json:"-"`
}

// DeviceTime converts the device-reported millisecond timestamp, nil when
// the gateway sent none.
func (p *WebhookPayload) DeviceTime() *time.Time {
	if p.TS <= 0 {
		return nil
	}
	t := time.UnixMilli(p.TS)
	return &t
}

// ParsePayload decodes an inbound body and keeps the raw bytes alongside.
func ParsePayload(body []byte) (*WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	p.Raw = json.RawMessage(append([]byte(nil), body...))
	return &p, nil
}
