package ingestion

import (
	"sync"
	"time"
)

// IngestMetrics is a snapshot of pipeline health counters.
type IngestMetrics struct {
	EventsReceived  int64     `json:"events_received"`
	EventsProcessed int64     `json:"events_processed"`
	EventsDropped   int64     `json:"events_dropped"`
	EventsFailed    int64     `json:"events_failed"`
	EventsForwarded int64     `json:"events_forwarded"`
	QueueDepth      int       `json:"queue_depth"`
	LastProcessedAt time.Time `json:"last_processed_at"`
}

type MetricsTracker struct {
	mu      sync.Mutex
	metrics IngestMetrics
}

func NewMetricsTracker() *MetricsTracker {
	return &MetricsTracker{}
}

func (t *MetricsTracker) Update(fn func(m *IngestMetrics)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.metrics)
}

func (t *MetricsTracker) Snapshot() IngestMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.metrics
}
