package messaging

import (
	"time"

	"contractabi/internal/application/dto"
)

const (
	// DefaultHandlerTimeout bounds the handling of a single request.
	DefaultHandlerTimeout = 30 * time.Second
	// DefaultDrainTimeout bounds how long Stop waits for in-flight requests.
	DefaultDrainTimeout = 10 * time.Second
)

// Reply error codes.
const (
	ReplyCodeInvalidMessage = "INVALID_MESSAGE"
	ReplyCodeExtractFailed  = "EXTRACTION_FAILED"
	ReplyCodeTimeout        = "TIMEOUT"
)

// ConsumerConfig holds configuration for the request consumer.
type ConsumerConfig struct {
	Subject        string
	QueueGroup     string
	HandlerTimeout time.Duration
	DrainTimeout   time.Duration
	MaxSourceBytes int
}

// ExtractionReply is the body sent back to a requester.
type ExtractionReply struct {
	MessageID     string           `json:"message_id,omitempty"`
	CorrelationID string           `json:"correlation_id,omitempty"`
	ABI           *dto.ABIResponse `json:"abi,omitempty"`
	Error         string           `json:"error,omitempty"`
	Code          string           `json:"code,omitempty"`
}

// OK reports whether the reply carries an ABI.
func (r ExtractionReply) OK() bool {
	return r.Error == "" && r.ABI != nil
}
