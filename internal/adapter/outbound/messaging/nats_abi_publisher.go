package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"contractabi/internal/application/common/logging"
	"contractabi/internal/application/common/slogger"
	"contractabi/internal/config"
	"contractabi/internal/domain/messaging"
	"contractabi/internal/port/outbound"
	"contractabi/internal/version"

	"github.com/nats-io/nats.go"
)

const (
	// NATS connection timeout.
	natsConnectionTimeoutSeconds = 5

	// Stream configuration.
	streamMaxAgeDays = 30

	// Circuit breaker thresholds.
	maxConsecutiveFailures = 3
	circuitOpenDuration    = 30 * time.Second

	defaultSubjectPrefix = "abi"
)

// ErrCircuitOpen is returned while the publisher refuses to publish after repeated failures.
var ErrCircuitOpen = errors.New("circuit breaker open: too many recent failures")

// ErrNotConnected is returned when publishing before Connect.
var ErrNotConnected = errors.New("not connected to NATS server")

// MessageMetrics tracks message publishing metrics.
type MessageMetrics struct {
	PublishedCount    int64         `json:"published_count"`
	FailedCount       int64         `json:"failed_count"`
	AverageLatency    time.Duration `json:"average_latency"`
	LastPublishedTime time.Time     `json:"last_published_time"`
}

// NATSABIPublisher publishes ABI events to a JetStream stream.
//
// The stream only captures the extracted-event subject. Extraction requests
// share the subject prefix but travel over core NATS request/reply, so they
// must stay outside the stream.
type NATSABIPublisher struct {
	config   config.NATSConfig
	subjects Subjects
	logger   logging.ApplicationLogger

	conn           *nats.Conn
	js             nats.JetStreamContext
	isConnected    bool
	connectedAt    time.Time
	reconnectCount int
	lastError      error
	messageMetrics MessageMetrics
	mutex          sync.RWMutex

	// Circuit breaker state
	circuitBreakerOpen bool
	lastFailureTime    time.Time
	failureCount       int

	// Test mode skips the network; published payloads are kept instead.
	isTestMode    bool
	testErrorMode string
	testPublished []*nats.Msg
}

// Subjects are the NATS subjects and stream derived from a prefix.
type Subjects struct {
	Prefix    string
	Extracted string
	Request   string
	Stream    string
}

// SubjectsFor derives subjects from prefix, "abi" when empty.
func SubjectsFor(prefix string) Subjects {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}
	return Subjects{
		Prefix:    prefix,
		Extracted: prefix + ".extracted",
		Request:   prefix + ".extract.request",
		Stream:    strings.ToUpper(strings.ReplaceAll(prefix, ".", "_")),
	}
}

// ValidateConfig checks the NATS settings shared by publishers and consumers.
func ValidateConfig(cfg config.NATSConfig) error {
	if cfg.URL == "" {
		return errors.New("NATS URL cannot be empty")
	}
	if !strings.HasPrefix(cfg.URL, "nats://") && !strings.HasPrefix(cfg.URL, "tls://") {
		return errors.New("invalid NATS URL scheme")
	}
	if cfg.MaxReconnects < 0 {
		return errors.New("max reconnects cannot be negative")
	}
	if cfg.ReconnectWait < 0 {
		return errors.New("reconnect wait cannot be negative")
	}
	return nil
}

// NewNATSABIPublisher creates a new NATS ABI publisher.
func NewNATSABIPublisher(cfg config.NATSConfig) (*NATSABIPublisher, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return &NATSABIPublisher{
		config:   cfg,
		subjects: SubjectsFor(cfg.SubjectPrefix),
		logger:   slogger.WithComponent("nats-publisher"),
	}, nil
}

// Subjects returns the subjects this publisher uses.
func (n *NATSABIPublisher) Subjects() Subjects {
	return n.subjects
}

// ConnectionName labels a NATS connection with the build's user agent and role.
func ConnectionName(role string) string {
	return version.GetVersion().UserAgent() + " " + role
}

// ConnectionOptions returns the nats.Options used to dial, reporting
// connection state changes to logger and onState.
func ConnectionOptions(
	cfg config.NATSConfig,
	name string,
	logger logging.ApplicationLogger,
	onState func(connected bool, err error),
) []nats.Option {
	return []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(natsConnectionTimeoutSeconds * time.Second),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.LogNATSConnectionEvent(context.Background(), logging.NATSConnectionEvent{
				Type:         "RECONNECTED",
				ServerURL:    c.ConnectedUrlRedacted(),
				AttemptCount: int(c.Stats().Reconnects),
				Success:      true,
			})
			onState(true, nil)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			reason := "connection closed"
			if err != nil {
				reason = err.Error()
			}
			logger.LogNATSConnectionEvent(context.Background(), logging.NATSConnectionEvent{
				Type:      "DISCONNECTED",
				ServerURL: cfg.URL,
				Success:   err == nil,
				Error:     err,
				Reason:    reason,
			})
			onState(false, err)
		}),
	}
}

// Connect establishes connection to NATS server.
func (n *NATSABIPublisher) Connect() error {
	if n.isTestMode {
		n.updateConnectionHealth(true, nil)
		return nil
	}

	start := time.Now()
	opts := ConnectionOptions(n.config, ConnectionName("publisher"), n.logger, func(connected bool, err error) {
		if connected {
			n.mutex.Lock()
			n.reconnectCount++
			n.mutex.Unlock()
		}
		n.updateConnectionHealth(connected, err)
	})

	conn, err := nats.Connect(n.config.URL, opts...)
	n.logger.LogNATSConnectionEvent(context.Background(), logging.NATSConnectionEvent{
		Type:      connectionEventType(err),
		ServerURL: n.config.URL,
		Duration:  time.Since(start),
		Success:   err == nil,
		Error:     err,
	})
	if err != nil {
		n.updateConnectionHealth(false, err)
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		n.updateConnectionHealth(false, err)
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	n.mutex.Lock()
	n.conn = conn
	n.js = js
	n.mutex.Unlock()
	n.updateConnectionHealth(true, nil)
	return nil
}

func connectionEventType(err error) string {
	if err != nil {
		return "CONNECTION_FAILED"
	}
	return "CONNECTED"
}

// Disconnect closes the NATS connection.
func (n *NATSABIPublisher) Disconnect() error {
	n.mutex.Lock()
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
		n.js = nil
	}
	n.mutex.Unlock()
	n.updateConnectionHealth(false, nil)
	return nil
}

// StreamConfig returns the JetStream stream holding ABI events.
func (n *NATSABIPublisher) StreamConfig() *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:       n.subjects.Stream,
		Subjects:   []string{n.subjects.Extracted},
		Storage:    nats.FileStorage,
		Retention:  nats.LimitsPolicy,
		MaxAge:     streamMaxAgeDays * 24 * time.Hour,
		Duplicates: 2 * time.Minute,
		Replicas:   1,
	}
}

// EnsureStream creates the JetStream stream if it doesn't exist.
func (n *NATSABIPublisher) EnsureStream() error {
	if n.isTestMode {
		if !n.connected() {
			return ErrNotConnected
		}
		if n.testErrorMode == "jetstream_not_enabled" {
			return errors.New("JetStream not enabled on server")
		}
		return nil
	}

	n.mutex.RLock()
	js := n.js
	n.mutex.RUnlock()
	if js == nil {
		return ErrNotConnected
	}

	if _, err := js.AddStream(n.StreamConfig()); err != nil {
		if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil
		}
		if errors.Is(err, nats.ErrJetStreamNotEnabled) {
			return errors.New("JetStream not enabled on server")
		}
		if _, infoErr := js.StreamInfo(n.subjects.Stream); infoErr == nil {
			return nil
		}
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// PublishABIExtracted publishes event to the extracted subject. The message ID
// doubles as the JetStream deduplication ID.
func (n *NATSABIPublisher) PublishABIExtracted(ctx context.Context, event messaging.ABIExtractedEvent) error {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		n.updateMetrics(false, time.Since(start))
		return err
	}

	if err := event.Validate(); err != nil {
		return err
	}

	if n.isCircuitBreakerOpen() {
		n.updateMetrics(false, time.Since(start))
		return ErrCircuitOpen
	}

	data, err := json.Marshal(event)
	if err != nil {
		n.updateMetrics(false, time.Since(start))
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := nats.NewMsg(n.subjects.Extracted)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, event.MessageID)
	msg.Header.Set("Correlation-Id", event.CorrelationID)
	msg.Header.Set("Schema-Version", event.SchemaVersion)

	err = n.publish(ctx, msg)
	duration := time.Since(start)
	n.updateMetrics(err == nil, duration)
	n.logger.LogNATSPublishEvent(ctx, logging.NATSPublishEvent{
		Subject:     msg.Subject,
		MessageID:   event.MessageID,
		MessageSize: int64(len(data)),
		StreamName:  n.subjects.Stream,
		Duration:    duration,
		Success:     err == nil,
		Error:       err,
	})
	return err
}

func (n *NATSABIPublisher) publish(ctx context.Context, msg *nats.Msg) error {
	if n.isTestMode {
		return n.testPublish(msg)
	}

	n.mutex.RLock()
	js := n.js
	n.mutex.RUnlock()
	if js == nil {
		return fmt.Errorf("publish failed: %w", ErrNotConnected)
	}

	if _, err := js.PublishMsg(msg, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (n *NATSABIPublisher) testPublish(msg *nats.Msg) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if !n.isConnected {
		return fmt.Errorf("publish failed: %w", ErrNotConnected)
	}
	switch n.testErrorMode {
	case "stream_storage_full":
		return errors.New("stream storage exceeded")
	case "message_too_large":
		return nats.ErrMaxPayload
	}
	n.testPublished = append(n.testPublished, msg)
	return nil
}

// GetConnectionHealth returns the current connection health status.
func (n *NATSABIPublisher) GetConnectionHealth() outbound.MessagePublisherHealthStatus {
	n.mutex.RLock()
	defer n.mutex.RUnlock()

	status := outbound.MessagePublisherHealthStatus{
		Connected:        n.isConnected,
		JetStreamEnabled: n.js != nil || (n.isTestMode && n.isConnected),
		Reconnects:       n.reconnectCount,
		Uptime:           "0s",
		CircuitBreaker:   "closed",
	}
	if n.isConnected {
		status.Uptime = time.Since(n.connectedAt).Truncate(time.Millisecond).String()
	}
	if n.lastError != nil {
		status.LastError = n.lastError.Error()
	}
	if n.circuitBreakerOpen {
		status.CircuitBreaker = "open"
	}
	return status
}

// GetMessageMetrics returns current message publishing metrics.
func (n *NATSABIPublisher) GetMessageMetrics() outbound.MessagePublisherMetrics {
	n.mutex.RLock()
	defer n.mutex.RUnlock()

	return outbound.MessagePublisherMetrics{
		PublishedCount: n.messageMetrics.PublishedCount,
		FailedCount:    n.messageMetrics.FailedCount,
		AverageLatency: n.messageMetrics.AverageLatency.String(),
	}
}

func (n *NATSABIPublisher) connected() bool {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.isConnected
}

// updateConnectionHealth updates the connection health status.
func (n *NATSABIPublisher) updateConnectionHealth(connected bool, err error) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if connected && !n.isConnected {
		n.connectedAt = time.Now()
	}
	n.isConnected = connected
	if err != nil {
		n.lastError = err
	}
}

// updateMetrics updates message publishing metrics.
func (n *NATSABIPublisher) updateMetrics(success bool, latency time.Duration) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if !success {
		n.messageMetrics.FailedCount++
		n.updateCircuitBreaker(false)
		return
	}

	n.messageMetrics.PublishedCount++
	n.messageMetrics.LastPublishedTime = time.Now()
	n.updateCircuitBreaker(true)

	// EMA with alpha = 0.1
	if n.messageMetrics.AverageLatency == 0 {
		n.messageMetrics.AverageLatency = latency
	} else {
		n.messageMetrics.AverageLatency = time.Duration(
			0.9*float64(n.messageMetrics.AverageLatency) + 0.1*float64(latency),
		)
	}
}

// updateCircuitBreaker updates circuit breaker state. Callers hold the mutex.
func (n *NATSABIPublisher) updateCircuitBreaker(success bool) {
	if success {
		n.failureCount = 0
		n.circuitBreakerOpen = false
		return
	}

	n.failureCount++
	n.lastFailureTime = time.Now()
	if n.failureCount >= maxConsecutiveFailures {
		n.circuitBreakerOpen = true
	}
}

// isCircuitBreakerOpen reports whether publishing is refused. An open breaker
// half-opens once circuitOpenDuration has passed since the last failure.
func (n *NATSABIPublisher) isCircuitBreakerOpen() bool {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if n.circuitBreakerOpen && time.Since(n.lastFailureTime) > circuitOpenDuration {
		n.circuitBreakerOpen = false
		n.failureCount = maxConsecutiveFailures - 1
	}
	return n.circuitBreakerOpen
}

// ResetCircuitBreaker closes the circuit breaker.
func (n *NATSABIPublisher) ResetCircuitBreaker() {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.circuitBreakerOpen = false
	n.failureCount = 0
	n.lastFailureTime = time.Time{}
}
