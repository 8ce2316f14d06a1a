package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	outboundmsg "contractabi/internal/adapter/outbound/messaging"
	"contractabi/internal/application/common/logging"
	"contractabi/internal/application/common/slogger"
	"contractabi/internal/config"
	"contractabi/internal/port/inbound"

	"github.com/nats-io/nats.go"
)

// ExtractionRequestConsumer serves extraction requests from a NATS queue group.
// Requests arrive over core NATS so any worker in the group can answer one.
type ExtractionRequestConsumer struct {
	config     ConsumerConfig
	natsConfig config.NATSConfig
	handler    inbound.ExtractionRequestHandler
	logger     logging.ApplicationLogger

	mu           sync.RWMutex
	conn         *nats.Conn
	subscription *nats.Subscription
	running      bool
	stats        inbound.ConsumerStats
	health       inbound.ConsumerHealthStatus
	totalTime    time.Duration
}

// NewExtractionRequestConsumer creates a consumer with validated configuration.
func NewExtractionRequestConsumer(
	cfg ConsumerConfig,
	natsConfig config.NATSConfig,
	handler inbound.ExtractionRequestHandler,
) (*ExtractionRequestConsumer, error) {
	if err := validateConsumerConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid consumer configuration: %w", err)
	}
	if err := outboundmsg.ValidateConfig(natsConfig); err != nil {
		return nil, fmt.Errorf("invalid NATS configuration: %w", err)
	}
	if handler == nil {
		return nil, errors.New("request handler cannot be nil")
	}

	if cfg.HandlerTimeout == 0 {
		cfg.HandlerTimeout = DefaultHandlerTimeout
	}
	if cfg.DrainTimeout == 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}

	return &ExtractionRequestConsumer{
		config:     cfg,
		natsConfig: natsConfig,
		handler:    handler,
		logger:     slogger.WithComponent("extraction-consumer"),
		stats:      inbound.ConsumerStats{ActiveSince: time.Now()},
		health: inbound.ConsumerHealthStatus{
			QueueGroup: cfg.QueueGroup,
			Subject:    cfg.Subject,
		},
	}, nil
}

// ConsumerConfigFrom derives the consumer configuration from application config.
func ConsumerConfigFrom(cfg *config.Config) ConsumerConfig {
	return ConsumerConfig{
		Subject:        outboundmsg.SubjectsFor(cfg.NATS.SubjectPrefix).Request,
		QueueGroup:     cfg.NATS.QueueGroup,
		MaxSourceBytes: cfg.Extraction.MaxSourceBytes,
	}
}

func validateConsumerConfig(cfg ConsumerConfig) error {
	if cfg.Subject == "" {
		return errors.New("subject cannot be empty")
	}
	if cfg.QueueGroup == "" {
		return errors.New("queue group cannot be empty")
	}
	if cfg.HandlerTimeout < 0 {
		return errors.New("handler timeout cannot be negative")
	}
	if cfg.DrainTimeout < 0 {
		return errors.New("drain timeout cannot be negative")
	}
	if cfg.MaxSourceBytes < 0 {
		return errors.New("max source bytes cannot be negative")
	}
	return nil
}

// Start connects and joins the queue group.
func (c *ExtractionRequestConsumer) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("consumer already running for subject %s", c.config.Subject)
	}

	opts := outboundmsg.ConnectionOptions(c.natsConfig, outboundmsg.ConnectionName("worker"), c.logger, c.setConnected)
	conn, err := nats.Connect(c.natsConfig.URL, opts...)
	if err != nil {
		c.health.LastError = err.Error()
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	sub, err := conn.QueueSubscribe(c.config.Subject, c.config.QueueGroup, c.processMessage)
	if err != nil {
		conn.Close()
		c.health.LastError = err.Error()
		return fmt.Errorf("failed to subscribe to %s: %w", c.config.Subject, err)
	}

	c.conn = conn
	c.subscription = sub
	c.running = true
	c.health.IsRunning = true
	c.health.IsConnected = true
	c.stats.ActiveSince = time.Now()

	c.logger.Info(context.Background(), "Extraction consumer started", logging.Fields{
		"subject":     c.config.Subject,
		"queue_group": c.config.QueueGroup,
	})
	return nil
}

// Stop drains in-flight requests and closes the connection. Stopping a stopped
// consumer is a no-op.
func (c *ExtractionRequestConsumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	conn := c.conn
	c.running = false
	c.health.IsRunning = false
	c.conn = nil
	c.subscription = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	closed := make(chan struct{})
	conn.SetClosedHandler(func(*nats.Conn) { close(closed) })
	if err := conn.Drain(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to drain connection: %w", err)
	}

	timer := time.NewTimer(c.config.DrainTimeout)
	defer timer.Stop()

	select {
	case <-closed:
	case <-timer.C:
		conn.Close()
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	}

	c.setConnected(false, nil)
	return nil
}

func (c *ExtractionRequestConsumer) setConnected(connected bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.health.IsConnected = connected
	if err != nil {
		c.health.LastError = err.Error()
	}
}

// Health returns the current health status of the consumer.
func (c *ExtractionRequestConsumer) Health() inbound.ConsumerHealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health
}

// GetStats returns consumer statistics.
func (c *ExtractionRequestConsumer) GetStats() inbound.ConsumerStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// QueueGroup returns the consumer's queue group.
func (c *ExtractionRequestConsumer) QueueGroup() string {
	return c.config.QueueGroup
}

// Subject returns the consumer's subject.
func (c *ExtractionRequestConsumer) Subject() string {
	return c.config.Subject
}
