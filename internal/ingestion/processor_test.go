package ingestion

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	devmodel "sms-relay-hub/internal/device/model"
	msgmodel "sms-relay-hub/internal/message/model"
	apperrors "sms-relay-hub/pkg/errors"
)

type fakeEventStore struct {
	mu      sync.Mutex
	applied []EventKind
	result  *ApplyResult
	err     error
}

func (f *fakeEventStore) ApplyEvent(_ context.Context, kind EventKind, _ *WebhookPayload) (*ApplyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, kind)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeEventStore) appliedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.applied)
}

type fakeForwarder struct {
	mu        sync.Mutex
	calls     []*msgmodel.Message
	deadlines []bool
	done      chan struct{}
}

func newFakeForwarder() *fakeForwarder {
	return &fakeForwarder{done: make(chan struct{}, 16)}
}

func (f *fakeForwarder) Forward(ctx context.Context, msg *msgmodel.Message, _ *devmodel.Device, _ *devmodel.SimCard) {
	_, hasDeadline := ctx.Deadline()
	f.mu.Lock()
	f.calls = append(f.calls, msg)
	f.deadlines = append(f.deadlines, hasDeadline)
	f.mu.Unlock()
	f.done <- struct{}{}
}

func (f *fakeForwarder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func applyResultWithMessage() *ApplyResult {
	dev := &devmodel.Device{ID: uuid.New(), ExternalID: "DEV1", Status: devmodel.DeviceActive}
	sim := &devmodel.SimCard{ID: uuid.New(), DeviceID: dev.ID, Slot: 1}
	body := "hello"
	return &ApplyResult{
		Message: &msgmodel.Message{ID: uuid.New(), DeviceID: dev.ID, SimCardID: sim.ID, Type: msgmodel.TypeSMS, Body: &body},
		Device:  dev,
		SimCard: sim,
	}
}

func newTestProcessor(store EventStore, statusStore DeviceStatusStore, forwarder Forwarder) *Processor {
	monitor := NewMonitor(statusStore, time.Minute, zap.NewNop())
	return NewProcessor(store, monitor, forwarder, 2, 16, zap.NewNop())
}

func TestProcessorForwardsPersistedMessage(t *testing.T) {
	store := &fakeEventStore{result: applyResultWithMessage()}
	forwarder := newFakeForwarder()
	p := newTestProcessor(store, &fakeStatusStore{}, forwarder)
	p.Start()
	defer p.Stop()

	require.NoError(t, p.Enqueue(&WebhookPayload{Type: TypeSMS, DevID: "DEV1", Slot: 1}))

	select {
	case <-forwarder.done:
	case <-time.After(time.Second):
		t.Fatal("forwarder was not invoked")
	}

	assert.Equal(t, 1, store.appliedCount())
	metrics := p.Metrics()
	assert.Equal(t, int64(1), metrics.EventsReceived)
	assert.Equal(t, int64(1), metrics.EventsForwarded)
}

func TestProcessorForwardsOutsideTransactionDeadline(t *testing.T) {
	store := &fakeEventStore{result: applyResultWithMessage()}
	forwarder := newFakeForwarder()
	p := newTestProcessor(store, &fakeStatusStore{}, forwarder)
	p.Start()
	defer p.Stop()

	require.NoError(t, p.Enqueue(&WebhookPayload{Type: TypeSMS, DevID: "DEV1", Slot: 1}))

	select {
	case <-forwarder.done:
	case <-time.After(time.Second):
		t.Fatal("forwarder was not invoked")
	}

	// The transaction's deadline must not cap the dispatch budget; each
	// platform bounds its own send from an undeadlined context.
	forwarder.mu.Lock()
	defer forwarder.mu.Unlock()
	require.Len(t, forwarder.deadlines, 1)
	assert.False(t, forwarder.deadlines[0])
}

func TestProcessorSkipsForwardingForStateOnlyEvents(t *testing.T) {
	result := applyResultWithMessage()
	result.Message = nil
	store := &fakeEventStore{result: result}
	forwarder := newFakeForwarder()
	p := newTestProcessor(store, &fakeStatusStore{}, forwarder)
	p.Start()

	require.NoError(t, p.Enqueue(&WebhookPayload{Type: 204, DevID: "DEV1", Slot: 1}))
	p.Stop()

	assert.Equal(t, 1, store.appliedCount())
	assert.Equal(t, 0, forwarder.callCount())
}

func TestProcessorDropsUnknownDevice(t *testing.T) {
	store := &fakeEventStore{err: apperrors.ErrDeviceNotFound}
	forwarder := newFakeForwarder()
	p := newTestProcessor(store, &fakeStatusStore{}, forwarder)
	p.Start()

	require.NoError(t, p.Enqueue(&WebhookPayload{Type: TypeSMS, DevID: "NOPE", Slot: 1}))
	p.Stop()

	assert.Equal(t, 1, store.appliedCount())
	assert.Equal(t, 0, forwarder.callCount())
	// A dropped device is not a pipeline failure.
	assert.Equal(t, int64(0), p.Metrics().EventsFailed)
}

func TestProcessorCountsTransactionFailures(t *testing.T) {
	store := &fakeEventStore{err: context.DeadlineExceeded}
	forwarder := newFakeForwarder()
	p := newTestProcessor(store, &fakeStatusStore{}, forwarder)
	p.Start()

	require.NoError(t, p.Enqueue(&WebhookPayload{Type: TypeSMS, DevID: "DEV1", Slot: 1}))
	p.Stop()

	assert.Equal(t, int64(1), p.Metrics().EventsFailed)
	assert.Equal(t, 0, forwarder.callCount())
}

func TestProcessorIgnoresUnknownEventTypes(t *testing.T) {
	store := &fakeEventStore{result: applyResultWithMessage()}
	forwarder := newFakeForwarder()
	p := newTestProcessor(store, &fakeStatusStore{}, forwarder)
	p.Start()

	require.NoError(t, p.Enqueue(&WebhookPayload{Type: 12345, DevID: "DEV1"}))
	p.Stop()

	assert.Equal(t, 0, store.appliedCount())
	assert.Equal(t, 0, forwarder.callCount())
}

func TestProcessorRoutesHeartbeatsToMonitor(t *testing.T) {
	store := &fakeEventStore{}
	statusStore := &fakeStatusStore{}
	forwarder := newFakeForwarder()
	p := newTestProcessor(store, statusStore, forwarder)
	p.Start()

	require.NoError(t, p.Enqueue(&WebhookPayload{Type: TypeHeartbeat, DevID: "DEV1", Cnt: 7}))
	p.Stop()

	statusStore.mu.Lock()
	defer statusStore.mu.Unlock()
	assert.Equal(t, []string{"DEV1"}, statusStore.activeCalls)
	assert.Equal(t, 0, store.appliedCount())
}

func TestProcessorDropsWhenQueueFull(t *testing.T) {
	store := &fakeEventStore{result: applyResultWithMessage()}
	forwarder := newFakeForwarder()
	monitor := NewMonitor(&fakeStatusStore{}, time.Minute, zap.NewNop())
	p := NewProcessor(store, monitor, forwarder, 1, 1, zap.NewNop())
	// Not started: the queue fills immediately.

	require.NoError(t, p.Enqueue(&WebhookPayload{Type: TypeSMS, DevID: "DEV1"}))
	err := p.Enqueue(&WebhookPayload{Type: TypeSMS, DevID: "DEV1"})
	require.ErrorIs(t, err, apperrors.ErrQueueFull)
	assert.Equal(t, int64(1), p.Metrics().EventsDropped)
}
