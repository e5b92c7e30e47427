package ingestion

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	devmodel "sms-relay-hub/internal/device/model"
)

func simWithIdentity(msisdn, imsi, iccid, name string) *devmodel.SimCard {
	return &devmodel.SimCard{
		ID:     uuid.New(),
		Slot:   1,
		MSISDN: &msisdn,
		IMSI:   &imsi,
		ICCID:  &iccid,
		Name:   &name,
	}
}

func TestApplyIdentityNeverOverwritesWithBlanks(t *testing.T) {
	sim := simWithIdentity("13800138000", "460001234567890", "89860012345678901234", "移动卡")
	updates := map[string]interface{}{}

	applyIdentity(updates, sim, &WebhookPayload{})

	assert.Empty(t, updates)
	assert.Equal(t, "13800138000", *sim.MSISDN)
	assert.Equal(t, "460001234567890", *sim.IMSI)
	assert.Equal(t, "89860012345678901234", *sim.ICCID)
	assert.Equal(t, "移动卡", *sim.Name)
}

func TestApplyIdentitySkipsUnchangedValues(t *testing.T) {
	sim := simWithIdentity("13800138000", "460001234567890", "89860012345678901234", "移动卡")
	updates := map[string]interface{}{}

	applyIdentity(updates, sim, &WebhookPayload{
		MSISDN:  "13800138000",
		IMSI:    "460001234567890",
		ICCID:   "89860012345678901234",
		SimName: "移动卡",
	})

	assert.Empty(t, updates)
}

func TestApplyIdentityFoldsInChangedValues(t *testing.T) {
	sim := simWithIdentity("13800138000", "460001234567890", "89860012345678901234", "移动卡")
	updates := map[string]interface{}{}

	applyIdentity(updates, sim, &WebhookPayload{
		MSISDN:  "13900139000",
		SimName: "联通卡",
	})

	assert.Equal(t, map[string]interface{}{
		"msisdn": "13900139000",
		"name":   "联通卡",
	}, updates)
	assert.Equal(t, "13900139000", *sim.MSISDN)
	assert.Equal(t, "联通卡", *sim.Name)
	// Fields the payload omitted keep their stored values.
	assert.Equal(t, "460001234567890", *sim.IMSI)
}

func TestSetIfChangedPopulatesEmptyStore(t *testing.T) {
	sim := &devmodel.SimCard{ID: uuid.New(), Slot: 0}
	updates := map[string]interface{}{}

	applyIdentity(updates, sim, &WebhookPayload{MSISDN: "13800138000"})

	assert.Equal(t, map[string]interface{}{"msisdn": "13800138000"}, updates)
	assert.NotNil(t, sim.MSISDN)
	assert.Equal(t, "13800138000", *sim.MSISDN)
	assert.Nil(t, sim.IMSI)
}
