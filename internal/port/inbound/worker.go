package inbound

import (
	"context"
	"time"

	"contractabi/internal/application/dto"
	"contractabi/internal/domain/messaging"
)

// Consumer interface for message consumption.
type Consumer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health() ConsumerHealthStatus
	GetStats() ConsumerStats
	QueueGroup() string
	Subject() string
}

// ConsumerHealthStatus represents the health status of a consumer.
type ConsumerHealthStatus struct {
	IsRunning       bool      `json:"is_running"`
	IsConnected     bool      `json:"is_connected"`
	LastMessageTime time.Time `json:"last_message_time"`
	MessagesHandled int64     `json:"messages_handled"`
	ErrorCount      int64     `json:"error_count"`
	LastError       string    `json:"last_error,omitempty"`
	QueueGroup      string    `json:"queue_group"`
	Subject         string    `json:"subject"`
}

// ConsumerStats holds consumer statistics.
type ConsumerStats struct {
	MessagesReceived   int64         `json:"messages_received"`
	MessagesProcessed  int64         `json:"messages_processed"`
	MessagesFailed     int64         `json:"messages_failed"`
	AverageProcessTime time.Duration `json:"average_process_time"`
	LastProcessTime    time.Duration `json:"last_process_time"`
	ActiveSince        time.Time     `json:"active_since"`
	BytesReceived      int64         `json:"bytes_received"`
}

// ExtractionRequestHandler processes extraction requests delivered by a consumer.
type ExtractionRequestHandler interface {
	HandleRequest(ctx context.Context, message messaging.ExtractionRequestMessage) (*dto.ABIResponse, error)
}
