package logging

import (
	"context"
	"fmt"
	"time"
)

// NATSConnectionEvent describes a connection state change.
type NATSConnectionEvent struct {
	Type         string // CONNECTED, DISCONNECTED, RECONNECTED, CONNECTION_FAILED
	ServerURL    string
	AttemptCount int
	Duration     time.Duration
	Success      bool
	Error        error
	Reason       string // For disconnections
}

// NATSPublishEvent describes one publish attempt.
type NATSPublishEvent struct {
	Subject     string
	MessageID   string
	MessageSize int64
	StreamName  string
	Duration    time.Duration
	Success     bool
	Error       error
}

// NATSConsumeEvent describes the handling of one received message.
type NATSConsumeEvent struct {
	Subject        string
	MessageID      string
	MessageSize    int64
	ProcessingTime time.Duration
	Success        bool
	Error          error
	QueueGroup     string
	Replied        bool
}

// LogNATSConnectionEvent logs NATS connection events
func (l *applicationLoggerImpl) LogNATSConnectionEvent(ctx context.Context, event NATSConnectionEvent) {
	fields := Fields{
		"operation":     "nats_connection",
		"event_type":    event.Type,
		"server_url":    event.ServerURL,
		"attempt_count": event.AttemptCount,
		"success":       event.Success,
	}
	if event.Reason != "" {
		fields["reason"] = event.Reason
	}
	l.logNATS(ctx, event.Success, fmt.Sprintf("NATS connection event: %s", event.Type), event.Duration,
		event.Error, fields)
}

// LogNATSPublishEvent logs NATS publish events
func (l *applicationLoggerImpl) LogNATSPublishEvent(ctx context.Context, event NATSPublishEvent) {
	fields := Fields{
		"operation":    "nats_publish",
		"subject":      event.Subject,
		"message_id":   event.MessageID,
		"message_size": event.MessageSize,
		"success":      event.Success,
	}
	if event.StreamName != "" {
		fields["stream"] = event.StreamName
	}
	message := "NATS message published"
	if !event.Success {
		message = "NATS publish failed"
	}
	l.logNATS(ctx, event.Success, message, event.Duration, event.Error, fields)
}

// LogNATSConsumeEvent logs NATS consume events
func (l *applicationLoggerImpl) LogNATSConsumeEvent(ctx context.Context, event NATSConsumeEvent) {
	fields := Fields{
		"operation":    "nats_consume",
		"subject":      event.Subject,
		"message_id":   event.MessageID,
		"message_size": event.MessageSize,
		"queue_group":  event.QueueGroup,
		"replied":      event.Replied,
		"success":      event.Success,
	}
	message := "NATS message processed"
	if !event.Success {
		message = "NATS message processing failed"
	}
	l.logNATS(ctx, event.Success, message, event.ProcessingTime, event.Error, fields)
}

func (l *applicationLoggerImpl) logNATS(
	ctx context.Context,
	success bool,
	message string,
	duration time.Duration,
	err error,
	fields Fields,
) {
	level := "INFO"
	errStr := ""
	if !success {
		level = "ERROR"
		if err != nil {
			errStr = err.Error()
		}
	}
	if !l.shouldLog(level) {
		return
	}
	entry := l.newEntry(ctx, level, message, errStr, fields)
	if duration > 0 {
		entry.Duration = duration.String()
	}
	l.writeLogEntry(entry)
}
