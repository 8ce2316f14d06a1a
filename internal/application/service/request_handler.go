package service

import (
	"context"

	"contractabi/internal/application/common"
	"contractabi/internal/application/dto"
	"contractabi/internal/domain/messaging"
	"contractabi/internal/port/inbound"
)

// ExtractionRequestHandler adapts extraction request messages to the
// extraction service. It implements inbound.ExtractionRequestHandler.
type ExtractionRequestHandler struct {
	extractor inbound.ExtractionService
	publish   bool
}

// NewExtractionRequestHandler creates a handler. When publish is set, every
// successful extraction is also announced as an ABI extracted event.
func NewExtractionRequestHandler(extractor inbound.ExtractionService, publish bool) *ExtractionRequestHandler {
	return &ExtractionRequestHandler{extractor: extractor, publish: publish}
}

// HandleRequest extracts the ABI carried by message.
func (h *ExtractionRequestHandler) HandleRequest(
	ctx context.Context,
	message messaging.ExtractionRequestMessage,
) (*dto.ABIResponse, error) {
	options := dto.ExtractOptions{
		Store:   message.Store,
		Publish: h.publish,
	}
	// A request can only tighten strictness, never relax the configured mode.
	if message.Strict {
		strict := true
		options.Strict = &strict
	}
	if message.IncludeSelectors {
		include := true
		options.IncludeSelectors = &include
	}

	response, err := h.extractor.Extract(ctx, dto.ExtractRequest{
		SourceName:    message.SourceName,
		Source:        message.Source,
		CorrelationID: message.CorrelationID,
		Options:       options,
	})
	if err != nil {
		return nil, common.WrapServiceError(common.OpHandleRequest, err)
	}
	return response, nil
}
