package forward

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	device "sms-relay-hub/internal/device/model"
	"sms-relay-hub/internal/forward/dispatcher"
	"sms-relay-hub/internal/forward/model"
	message "sms-relay-hub/internal/message/model"
)

// SettingsStore is the forwarding-configuration store the orchestrator
// consumes: enabled settings are read, counters are atomically incremented.
// Filter rules and templates are admin-managed and read-only here.
type SettingsStore interface {
	ListEnabled(ctx context.Context) ([]*model.ForwardSetting, error)
	RecordSuccess(ctx context.Context, id uuid.UUID) error
	RecordFailure(ctx context.Context, id uuid.UUID) error
}

// Service fans one persisted message out to every enabled platform. Each
// platform runs filter → format → dispatch independently; one platform's
// failure never prevents attempts on the others.
type Service struct {
	store       SettingsStore
	dispatchers map[model.Platform]dispatcher.Dispatcher
	maxTimeout  time.Duration
	logger      *zap.Logger
}

func NewService(store SettingsStore, dispatchers []dispatcher.Dispatcher, maxTimeout time.Duration, logger *zap.Logger) *Service {
	byPlatform := make(map[model.Platform]dispatcher.Dispatcher, len(dispatchers))
	for _, d := range dispatchers {
		byPlatform[d.Platform()] = d
	}
	return &Service{
		store:       store,
		dispatchers: byPlatform,
		maxTimeout:  maxTimeout,
		logger:      logger,
	}
}

// Forward runs the fan-out for one message and blocks until every platform
// attempt finished. Callers already run off the webhook response path.
func (s *Service) Forward(ctx context.Context, msg *message.Message, dev *device.Device, sim *device.SimCard) {
	settings, err := s.store.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("failed to load forward settings",
			zap.String("message_id", msg.ID.String()),
			zap.Error(err),
		)
		return
	}
	if len(settings) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, setting := range settings {
		wg.Add(1)
		go func(setting *model.ForwardSetting) {
			defer wg.Done()
			s.forwardOne(ctx, setting, msg, dev, sim)
		}(setting)
	}
	wg.Wait()
}

func (s *Service) forwardOne(ctx context.Context, setting *model.ForwardSetting, msg *message.Message, dev *device.Device, sim *device.SimCard) {
	log := s.logger.With(
		zap.String("platform", string(setting.Platform)),
		zap.String("message_id", msg.ID.String()),
		zap.String("message_type", string(msg.Type)),
		zap.String("device", dev.ExternalID),
		zap.Int("slot", sim.Slot),
	)

	if !Matches(setting.Rules, msg, dev, sim) {
		log.Debug("filter rejected message")
		return
	}

	d, ok := s.dispatchers[setting.Platform]
	if !ok {
		log.Error("no dispatcher registered for platform")
		s.recordFailure(setting.ID, log)
		return
	}

	text := Format(setting.TemplateOrDefault(), msg, dev, sim)
	notification := &dispatcher.Notification{
		Text:   text,
		IsCall: msg.Type == message.TypeCall,
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, s.maxTimeout)
	defer cancel()

	if err := d.Send(dispatchCtx, notification, setting); err != nil {
		log.Warn("forward failed", zap.Error(err))
		s.recordFailure(setting.ID, log)
		return
	}

	log.Info("forward delivered")
	if err := s.store.RecordSuccess(context.Background(), setting.ID); err != nil {
		log.Error("failed to record forward success", zap.Error(err))
	}
}

func (s *Service) recordFailure(id uuid.UUID, log *zap.Logger) {
	if err := s.store.RecordFailure(context.Background(), id); err != nil {
		log.Error("failed to record forward failure", zap.Error(err))
	}
}
