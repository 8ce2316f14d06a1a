// Package messaging provides the message schemas exchanged over the broker:
// extraction requests consumed by workers and ABI events they publish.
package messaging

import (
	"fmt"
	"strings"
	"time"

	"contractabi/internal/domain/entity"
	"contractabi/internal/domain/valueobject"

	"github.com/google/uuid"
)

// Schema and validation constants.
const (
	SchemaVersion = "1.0"

	maxMessageIDLength = 255
	maxSourceNameBytes = 1024
)

// Error codes for programmatic error handling.
const (
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeMessageTooLarge  = "MESSAGE_TOO_LARGE"
)

// MessageError is a validation failure of a broker message.
type MessageError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *MessageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("message %s: %s (%s): %v", e.Op, e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("message %s: %s (%s)", e.Op, e.Message, e.Code)
}

func (e *MessageError) Unwrap() error {
	return e.Err
}

func newValidationError(op, message string) *MessageError {
	return &MessageError{Op: op, Code: ErrCodeValidationFailed, Message: message}
}

// ExtractionRequestMessage asks a worker to extract the ABI of inline source text.
type ExtractionRequestMessage struct {
	MessageID     string    `json:"message_id"`
	CorrelationID string    `json:"correlation_id"`
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`

	SourceName string `json:"source_name"`
	Source     string `json:"source"`
	Strict     bool   `json:"strict,omitempty"`
	Store      bool   `json:"store,omitempty"`

	IncludeSelectors bool `json:"include_selectors,omitempty"`
}

// NewExtractionRequestMessage creates a request with fresh IDs.
func NewExtractionRequestMessage(sourceName, source string) ExtractionRequestMessage {
	return ExtractionRequestMessage{
		MessageID:     uuid.NewString(),
		CorrelationID: uuid.NewString(),
		SchemaVersion: SchemaVersion,
		Timestamp:     time.Now().UTC(),
		SourceName:    sourceName,
		Source:        source,
	}
}

// Validate checks the request. maxSourceBytes <= 0 disables the size check.
func (m ExtractionRequestMessage) Validate(maxSourceBytes int) error {
	const op = "ExtractionRequestMessage.Validate"
	switch {
	case m.MessageID == "":
		return newValidationError(op, "message_id is required")
	case len(m.MessageID) > maxMessageIDLength:
		return newValidationError(op, "message_id too long")
	case strings.TrimSpace(m.SourceName) == "":
		return newValidationError(op, "source_name is required")
	case len(m.SourceName) > maxSourceNameBytes:
		return newValidationError(op, "source_name too long")
	case maxSourceBytes > 0 && len(m.Source) > maxSourceBytes:
		return &MessageError{
			Op:      op,
			Code:    ErrCodeMessageTooLarge,
			Message: fmt.Sprintf("source is %d bytes, limit is %d", len(m.Source), maxSourceBytes),
		}
	}
	return nil
}

// ABIExtractedEvent announces a newly extracted ABI.
type ABIExtractedEvent struct {
	MessageID     string    `json:"message_id"`
	CorrelationID string    `json:"correlation_id"`
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`

	ABIID         uuid.UUID                      `json:"abi_id"`
	SourceName    string                         `json:"source_name"`
	Digest        string                         `json:"digest,omitempty"`
	FunctionCount int                            `json:"function_count"`
	PrivateCount  int                            `json:"private_count"`
	SkippedCount  int                            `json:"skipped_count"`
	Functions     []valueobject.ContractFunction `json:"functions"`
}

// NewABIExtractedEvent builds the event for abi.
func NewABIExtractedEvent(abi *entity.ContractABI, correlationID string) ABIExtractedEvent {
	functions := abi.Functions()
	if functions == nil {
		functions = []valueobject.ContractFunction{}
	}
	return ABIExtractedEvent{
		MessageID:     uuid.NewString(),
		CorrelationID: correlationID,
		SchemaVersion: SchemaVersion,
		Timestamp:     time.Now().UTC(),
		ABIID:         abi.ID(),
		SourceName:    abi.SourceName(),
		Digest:        abi.Digest(),
		FunctionCount: abi.FunctionCount(),
		PrivateCount:  len(abi.PrivateNames()),
		SkippedCount:  len(abi.Failures()),
		Functions:     functions,
	}
}

// Validate checks the event before publishing.
func (e ABIExtractedEvent) Validate() error {
	const op = "ABIExtractedEvent.Validate"
	switch {
	case e.MessageID == "":
		return newValidationError(op, "message_id is required")
	case e.ABIID == uuid.Nil:
		return newValidationError(op, "abi_id cannot be nil")
	case e.FunctionCount != len(e.Functions):
		return newValidationError(op, "function_count does not match functions")
	}
	return nil
}
