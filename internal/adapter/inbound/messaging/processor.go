package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"contractabi/internal/application/common/logging"
	"contractabi/internal/domain/messaging"

	"github.com/nats-io/nats.go"
)

// processMessage handles one delivery and answers it when a reply subject is set.
func (c *ExtractionRequestConsumer) processMessage(msg *nats.Msg) {
	start := time.Now()
	reply := c.handleMessage(context.Background(), msg.Data)
	processTime := time.Since(start)

	var processErr error
	if !reply.OK() {
		processErr = errors.New(reply.Error)
	}
	c.updateStats(len(msg.Data), processErr, processTime)

	replied := false
	if msg.Reply != "" {
		body, err := json.Marshal(reply)
		if err == nil {
			err = msg.Respond(body)
		}
		if err != nil {
			processErr = fmt.Errorf("failed to reply: %w", err)
			c.updateHealthOnError(processErr.Error())
		} else {
			replied = true
		}
	}

	ctx := logging.WithCorrelationID(context.Background(), reply.CorrelationID)
	c.logger.LogNATSConsumeEvent(ctx, logging.NATSConsumeEvent{
		Subject:        msg.Subject,
		MessageID:      reply.MessageID,
		MessageSize:    int64(len(msg.Data)),
		ProcessingTime: processTime,
		Success:        processErr == nil,
		Error:          processErr,
		QueueGroup:     c.config.QueueGroup,
		Replied:        replied,
	})
}

// handleMessage decodes, validates and runs one request. Failures are reported
// in the reply rather than returned.
func (c *ExtractionRequestConsumer) handleMessage(ctx context.Context, data []byte) ExtractionReply {
	var request messaging.ExtractionRequestMessage
	if err := json.Unmarshal(data, &request); err != nil {
		return ExtractionReply{
			Code:  ReplyCodeInvalidMessage,
			Error: fmt.Sprintf("failed to unmarshal message: %v", err),
		}
	}

	reply := ExtractionReply{
		MessageID:     request.MessageID,
		CorrelationID: request.CorrelationID,
	}

	if err := request.Validate(c.config.MaxSourceBytes); err != nil {
		reply.Code = ReplyCodeInvalidMessage
		var msgErr *messaging.MessageError
		if errors.As(err, &msgErr) {
			reply.Code = msgErr.Code
		}
		reply.Error = err.Error()
		return reply
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.HandlerTimeout)
	defer cancel()
	if request.CorrelationID != "" {
		ctx = logging.WithCorrelationID(ctx, request.CorrelationID)
	}

	response, err := c.handler.HandleRequest(ctx, request)
	if err != nil {
		reply.Code = ReplyCodeExtractFailed
		if errors.Is(err, context.DeadlineExceeded) {
			reply.Code = ReplyCodeTimeout
		}
		reply.Error = err.Error()
		return reply
	}

	reply.ABI = response
	return reply
}

// updateHealthOnError updates health status when an error occurs.
func (c *ExtractionRequestConsumer) updateHealthOnError(errorMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.health.ErrorCount++
	c.health.LastError = errorMsg
}

// updateStats updates consumer statistics in a thread-safe manner.
func (c *ExtractionRequestConsumer) updateStats(size int, err error, processTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.MessagesReceived++
	c.stats.BytesReceived += int64(size)
	c.stats.LastProcessTime = processTime

	if err != nil {
		c.stats.MessagesFailed++
		c.health.ErrorCount++
		c.health.LastError = err.Error()
		return
	}

	c.stats.MessagesProcessed++
	c.health.MessagesHandled++
	c.health.LastMessageTime = time.Now()
	c.totalTime += processTime
	c.stats.AverageProcessTime = c.totalTime / time.Duration(c.stats.MessagesProcessed)
}
