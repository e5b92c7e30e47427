package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sms-relay-hub/internal/database"
	devmodel "sms-relay-hub/internal/device/model"
	msgmodel "sms-relay-hub/internal/message/model"
	apperrors "sms-relay-hub/pkg/errors"
)

// ApplyResult is what one committed event transaction produced. Message is
// nil for state-only events (sim status, call connected, zero-duration end).
type ApplyResult struct {
	Message *msgmodel.Message
	Device  *devmodel.Device
	SimCard *devmodel.SimCard
}

// Repository owns the per-event storage transaction: device lookup and
// liveness refresh, SIM card upsert keyed by (device, slot), type-specific
// state mutation and message persistence. Everything commits or rolls back
// together.
type Repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ApplyEvent(ctx context.Context, kind EventKind, p *WebhookPayload) (*ApplyResult, error) {
	var result *ApplyResult

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		var dev devmodel.Device
		if err := tx.Where("external_id = ?", p.DevID).First(&dev).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrDeviceNotFound
			}
			return fmt.Errorf("failed to load device: %w", err)
		}

		// Any inbound traffic proves the device is alive.
		if err := tx.Model(&devmodel.Device{}).
			Where("id = ?", dev.ID).
			Updates(map[string]interface{}{
				"status":         devmodel.DeviceActive,
				"last_active_at": now,
				"updated_at":     now,
			}).Error; err != nil {
			return fmt.Errorf("failed to refresh device liveness: %w", err)
		}
		dev.Status = devmodel.DeviceActive
		dev.LastActiveAt = &now

		sim, err := findOrCreateSimCard(tx, &dev, p, now)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"last_active_at": now,
			"updated_at":     now,
		}
		applyIdentity(updates, sim, p)

		var msg *msgmodel.Message
		switch kind {
		case EventSMS:
			// Receiving traffic implies the card is usable.
			setStatus(updates, sim, devmodel.SimReady)
			msg = newMessage(&dev, sim, msgmodel.TypeSMS, p, now)
			msg.Sender = optional(p.PhNum)
			msg.Body = optional(p.SmsBd)

		case EventCallRinging:
			setStatus(updates, sim, devmodel.SimReady)
			setCallState(updates, sim, devmodel.CallRinging)
			updates["last_caller_number"] = p.PhNum
			updates["last_caller_at"] = now
			sim.LastCallerNumber = optional(p.PhNum)
			sim.LastCallerAt = &now
			msg = newMessage(&dev, sim, msgmodel.TypeCall, p, now)
			msg.Sender = optional(p.PhNum)
			status := msgmodel.CallStatusRinging
			msg.CallStatus = &status

		case EventCallConnected:
			setStatus(updates, sim, devmodel.SimReady)
			setCallState(updates, sim, devmodel.CallConnected)

		case EventCallEnded:
			setStatus(updates, sim, devmodel.SimReady)
			setCallState(updates, sim, devmodel.CallIdle)
			if p.Dur > 0 {
				msg = newMessage(&dev, sim, msgmodel.TypeCall, p, now)
				msg.Sender = optional(p.PhNum)
				duration := p.Dur
				msg.CallDuration = &duration
				status := msgmodel.CallStatusAnswered
				msg.CallStatus = &status
			}

		case EventSimStatus:
			setStatus(updates, sim, devmodel.SimStatusFromCode(p.Type))
			updates["status_code"] = p.Type
			sim.StatusCode = p.Type

		default:
			return fmt.Errorf("event kind %s cannot be applied", kind)
		}

		if err := tx.Model(&devmodel.SimCard{}).
			Where("id = ?", sim.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update sim card: %w", err)
		}

		if msg != nil {
			if err := tx.Create(msg).Error; err != nil {
				return fmt.Errorf("failed to persist message: %w", err)
			}
		}

		result = &ApplyResult{Message: msg, Device: &dev, SimCard: sim}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkDeviceActive refreshes liveness on heartbeat without touching SIM state.
func (r *Repository) MarkDeviceActive(ctx context.Context, externalID string) error {
	now := time.Now()
	result := r.db.DB.WithContext(ctx).
		Model(&devmodel.Device{}).
		Where("external_id = ?", externalID).
		Updates(map[string]interface{}{
			"status":         devmodel.DeviceActive,
			"last_active_at": now,
			"updated_at":     now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark device active: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrDeviceNotFound
	}
	return nil
}

// DemoteDeviceIfActive flips an active device to offline and reports whether
// it did. The status guard keeps an expired timer from clobbering a state
// that already changed by other means.
func (r *Repository) DemoteDeviceIfActive(ctx context.Context, externalID string) (bool, error) {
	result := r.db.DB.WithContext(ctx).
		Model(&devmodel.Device{}).
		Where("external_id = ? AND status = ?", externalID, devmodel.DeviceActive).
		Updates(map[string]interface{}{
			"status":     devmodel.DeviceOffline,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to demote device: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// findOrCreateSimCard resolves the (device, slot) pair, creating the card on
// first sight. Concurrent first events race through the unique index: the
// insert uses ON CONFLICT DO NOTHING and the loser re-reads the winner's row.
func findOrCreateSimCard(tx *gorm.DB, dev *devmodel.Device, p *WebhookPayload, now time.Time) (*devmodel.SimCard, error) {
	var sim devmodel.SimCard
	err := tx.Where("device_id = ? AND slot = ?", dev.ID, p.Slot).First(&sim).Error
	if err == nil {
		return &sim, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load sim card: %w", err)
	}

	created := devmodel.SimCard{
		ID:           uuid.New(),
		DeviceID:     dev.ID,
		Slot:         p.Slot,
		MSISDN:       optional(p.MSISDN),
		IMSI:         optional(p.IMSI),
		ICCID:        optional(p.ICCID),
		Name:         optional(p.SimName),
		Status:       devmodel.SimRegistering,
		CallState:    devmodel.CallIdle,
		LastActiveAt: &now,
	}
	insert := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}, {Name: "slot"}},
		DoNothing: true,
	}).Create(&created)
	if insert.Error != nil {
		return nil, fmt.Errorf("failed to create sim card: %w", insert.Error)
	}
	if insert.RowsAffected > 0 {
		return &created, nil
	}

	// Lost the race; the winner's row must exist now.
	if err := tx.Where("device_id = ? AND slot = ?", dev.ID, p.Slot).First(&sim).Error; err != nil {
		return nil, fmt.Errorf("failed to re-read sim card after conflict: %w", err)
	}
	return &sim, nil
}

// applyIdentity folds payload identity fields into the update set, only when
// the incoming value is non-empty and differs from what is stored. Stored
// values are never overwritten with blanks.
func applyIdentity(updates map[string]interface{}, sim *devmodel.SimCard, p *WebhookPayload) {
	setIfChanged(updates, "msisdn", p.MSISDN, &sim.MSISDN)
	setIfChanged(updates, "imsi", p.IMSI, &sim.IMSI)
	setIfChanged(updates, "iccid", p.ICCID, &sim.ICCID)
	setIfChanged(updates, "name", p.SimName, &sim.Name)
}

func setIfChanged(updates map[string]interface{}, column, incoming string, stored **string) {
	if incoming == "" {
		return
	}
	if *stored != nil && **stored == incoming {
		return
	}
	updates[column] = incoming
	value := incoming
	*stored = &value
}

func setStatus(updates map[string]interface{}, sim *devmodel.SimCard, status devmodel.SimStatus) {
	updates["status"] = status
	sim.Status = status
}

func setCallState(updates map[string]interface{}, sim *devmodel.SimCard, state devmodel.CallState) {
	updates["call_state"] = state
	sim.CallState = state
}

func newMessage(dev *devmodel.Device, sim *devmodel.SimCard, msgType msgmodel.MessageType, p *WebhookPayload, now time.Time) *msgmodel.Message {
	return &msgmodel.Message{
		ID:         uuid.New(),
		DeviceID:   dev.ID,
		SimCardID:  sim.ID,
		Type:       msgType,
		Channel:    optional(p.NetCh),
		DeviceTime: p.DeviceTime(),
		RawPayload: p.Raw,
		CreatedAt:  now,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
