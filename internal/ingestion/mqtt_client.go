package ingestion

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	pkgmqtt "sms-relay-hub/pkg/mqtt"
)

// MQTTIngestionConfig describes the broker connection and the topic carrying
// gateway event payloads.
type MQTTIngestionConfig struct {
	ClientConfig *pkgmqtt.Config
	Topic        string
	QoS          byte
}

// MQTTIngestionClient feeds gateway events published over MQTT into the same
// processor queue as the HTTP webhook. Some deployments sit behind NAT and
// can only reach a broker.
type MQTTIngestionClient struct {
	cfg       *MQTTIngestionConfig
	client    *pkgmqtt.Client
	processor *Processor
	logger    *zap.Logger

	mu      sync.Mutex
	started bool
}

func NewMQTTIngestionClient(cfg *MQTTIngestionConfig, processor *Processor, logger *zap.Logger) (*MQTTIngestionClient, error) {
	if cfg == nil || cfg.ClientConfig == nil {
		return nil, errors.New("mqtt ingestion config is not configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("mqtt ingestion topic is required")
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}

	return &MQTTIngestionClient{
		cfg:       cfg,
		client:    pkgmqtt.NewClient(cfg.ClientConfig, logger),
		processor: processor,
		logger:    logger,
	}, nil
}

func (c *MQTTIngestionClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}

	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}
	if err := c.client.Subscribe(c.cfg.Topic, c.cfg.QoS, c.handleMessage); err != nil {
		c.client.Disconnect()
		return err
	}

	c.started = true
	return nil
}

func (c *MQTTIngestionClient) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	if err := c.client.Unsubscribe(c.cfg.Topic); err != nil {
		c.logger.Warn("failed to unsubscribe from mqtt topic", zap.Error(err))
	}
	c.client.Disconnect()
	c.started = false
}

func (c *MQTTIngestionClient) handleMessage(topic string, payload []byte) {
	p, err := ParsePayload(payload)
	if err != nil {
		c.logger.Warn("invalid mqtt event payload",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return
	}
	// Queue-full drops are already logged and counted by the processor.
	_ = c.processor.Enqueue(p)
}
