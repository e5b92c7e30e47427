package ingestion

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DeviceStatusStore is the slice of the device directory the heartbeat
// monitor needs: liveness refresh and guarded offline demotion.
type DeviceStatusStore interface {
	MarkDeviceActive(ctx context.Context, externalID string) error
	DemoteDeviceIfActive(ctx context.Context, externalID string) (bool, error)
}

type timerEntry struct {
	timer *time.Timer
}

// Monitor tracks one expiry timer per device. A heartbeat atomically resets
// the device's timer; a timer firing without a reset demotes the device to
// offline. Timers are process-local and lost on restart.
type Monitor struct {
	store   DeviceStatusStore
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	timers map[string]*timerEntry
	closed bool
}

func NewMonitor(store DeviceStatusStore, timeout time.Duration, logger *zap.Logger) *Monitor {
	return &Monitor{
		store:   store,
		timeout: timeout,
		logger:  logger,
		timers:  make(map[string]*timerEntry),
	}
}

// OnHeartbeat marks the device active and restarts its expiry timer. Cancel
// and restart happen under the lock so concurrent heartbeats for the same
// device never leave two live timers.
func (m *Monitor) OnHeartbeat(ctx context.Context, externalID string) error {
	if err := m.store.MarkDeviceActive(ctx, externalID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}

	if old, ok := m.timers[externalID]; ok {
		old.timer.Stop()
	}
	entry := &timerEntry{}
	entry.timer = time.AfterFunc(m.timeout, func() {
		m.expire(externalID, entry)
	})
	m.timers[externalID] = entry
	return nil
}

// expire runs when a timer fires. The identity check against the registered
// entry discards fires that raced with a heartbeat reset, so a device that
// just reported in is never demoted by its replaced timer.
func (m *Monitor) expire(externalID string, entry *timerEntry) {
	m.mu.Lock()
	if m.closed || m.timers[externalID] != entry {
		m.mu.Unlock()
		return
	}
	delete(m.timers, externalID)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	demoted, err := m.store.DemoteDeviceIfActive(ctx, externalID)
	if err != nil {
		m.logger.Error("heartbeat timeout: failed to demote device",
			zap.String("device", externalID),
			zap.Error(err),
		)
		return
	}
	if demoted {
		m.logger.Warn("device went offline, no heartbeat within timeout",
			zap.String("device", externalID),
			zap.Duration("timeout", m.timeout),
		)
	}
}

// Shutdown cancels every pending timer. Further heartbeats still refresh
// device liveness in the store but schedule no timers.
func (m *Monitor) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, entry := range m.timers {
		entry.timer.Stop()
		delete(m.timers, id)
	}
}

// PendingTimers reports how many devices currently have a live timer.
func (m *Monitor) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
