package model

import (
	"time"

	"github.com/google/uuid"
)

// Device is a registered phone gateway. Devices are created by the admin
// surface only; inbound events never create one.
type Device struct {
	ID           uuid.UUID    `json:"id" gorm:"primaryKey"`
	ExternalID   string       `json:"external_id" gorm:"uniqueIndex;not null"`
	Name         *string      `json:"name,omitempty"`
	Status       DeviceStatus `json:"status" gorm:"type:varchar(20);default:'inactive'"`
	LastActiveAt *time.Time   `json:"last_active_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (Device) TableName() string {
	return "devices"
}

// DisplayName falls back to the external ID when no name was configured.
func (d *Device) DisplayName() string {
	if d.Name != nil && *d.Name != "" {
		return *d.Name
	}
	return d.ExternalID
}
