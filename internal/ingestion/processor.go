package ingestion

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	devmodel "sms-relay-hub/internal/device/model"
	msgmodel "sms-relay-hub/internal/message/model"
	apperrors "sms-relay-hub/pkg/errors"
)

// EventStore applies one classified event as a single storage transaction.
type EventStore interface {
	ApplyEvent(ctx context.Context, kind EventKind, p *WebhookPayload) (*ApplyResult, error)
}

// Forwarder fans a persisted message out to the notification platforms.
type Forwarder interface {
	Forward(ctx context.Context, msg *msgmodel.Message, dev *devmodel.Device, sim *devmodel.SimCard)
}

// Processor drains inbound gateway payloads through a bounded queue and a
// worker pool. The webhook handler enqueues and returns immediately; workers
// run classification, the state transaction and forwarding.
type Processor struct {
	store     EventStore
	monitor   *Monitor
	forwarder Forwarder

	queue       chan *WebhookPayload
	workerCount int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics *MetricsTracker
	logger  *zap.Logger
}

func NewProcessor(store EventStore, monitor *Monitor, forwarder Forwarder, workerCount, queueSize int, logger *zap.Logger) *Processor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		store:       store,
		monitor:     monitor,
		forwarder:   forwarder,
		queue:       make(chan *WebhookPayload, queueSize),
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		metrics:     NewMetricsTracker(),
		logger:      logger,
	}
}

func (p *Processor) Start() {
	p.logger.Info("starting event processor",
		zap.Int("workers", p.workerCount),
		zap.Int("queue_size", cap(p.queue)),
	)
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop drains the queue and waits for in-flight events to finish.
func (p *Processor) Stop() {
	p.logger.Info("stopping event processor")
	close(p.queue)
	p.wg.Wait()
	p.cancel()
	p.logger.Info("event processor stopped")
}

// Enqueue hands a payload to the worker pool without blocking. A full queue
// drops the event; the gateway is never back-pressured.
func (p *Processor) Enqueue(payload *WebhookPayload) error {
	select {
	case p.queue <- payload:
		p.metrics.Update(func(m *IngestMetrics) {
			m.EventsReceived++
			m.QueueDepth = len(p.queue)
		})
		return nil
	default:
		p.logger.Warn("event queue full, dropping event",
			zap.String("device", payload.DevID),
			zap.Int("type", payload.Type),
		)
		p.metrics.Update(func(m *IngestMetrics) {
			m.EventsDropped++
		})
		return apperrors.ErrQueueFull
	}
}

func (p *Processor) worker(id int) {
	defer p.wg.Done()
	p.logger.Debug("event worker started", zap.Int("worker", id))
	for payload := range p.queue {
		p.handle(payload)
	}
}

func (p *Processor) handle(payload *WebhookPayload) {
	kind := Classify(payload)
	log := p.logger.With(
		zap.String("event", kind.String()),
		zap.String("device", payload.DevID),
		zap.Int("slot", payload.Slot),
	)

	switch kind {
	case EventUnknown:
		log.Warn("unrecognized event type, ignoring", zap.Int("type", payload.Type))
		return

	case EventHeartbeat:
		ctx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
		defer cancel()
		if err := p.monitor.OnHeartbeat(ctx, payload.DevID); err != nil {
			if errors.Is(err, apperrors.ErrDeviceNotFound) {
				log.Warn("heartbeat from unregistered device, dropped")
			} else {
				log.Error("failed to process heartbeat", zap.Error(err))
				p.metrics.Update(func(m *IngestMetrics) { m.EventsFailed++ })
			}
			return
		}
		p.markProcessed()
		return
	}

	ctx, cancel := context.WithTimeout(p.ctx, 30*time.Second)
	defer cancel()

	result, err := p.store.ApplyEvent(ctx, kind, payload)
	if err != nil {
		if errors.Is(err, apperrors.ErrDeviceNotFound) {
			log.Warn("event references unregistered device, dropped")
		} else {
			// Full payload kept in the log for manual replay.
			log.Error("state transaction failed, event dropped",
				zap.ByteString("payload", payload.Raw),
				zap.Error(err),
			)
			p.metrics.Update(func(m *IngestMetrics) { m.EventsFailed++ })
		}
		return
	}

	p.markProcessed()

	if result.Message != nil {
		// Forwarding runs on its own budget. The transaction deadline must not
		// leak into dispatch: each platform bounds its own send, and a webhook
		// setting may legitimately allow more time than the transaction had left.
		p.forwarder.Forward(p.ctx, result.Message, result.Device, result.SimCard)
		p.metrics.Update(func(m *IngestMetrics) { m.EventsForwarded++ })
	}
}

func (p *Processor) markProcessed() {
	p.metrics.Update(func(m *IngestMetrics) {
		m.EventsProcessed++
		m.QueueDepth = len(p.queue)
		m.LastProcessedAt = time.Now()
	})
}

func (p *Processor) Metrics() IngestMetrics {
	return p.metrics.Snapshot()
}
