// Package inbound defines the inbound ports (interfaces) for the application layer.
// These ports represent the entry points into the application's core business logic.
package inbound

import (
	"context"

	"contractabi/internal/application/dto"

	"github.com/google/uuid"
)

// ExtractionService defines the inbound port for ABI extraction.
type ExtractionService interface {
	// Extract runs the pipeline over inline source text.
	Extract(ctx context.Context, request dto.ExtractRequest) (*dto.ABIResponse, error)
	// ExtractSource reads a named source through the source provider and extracts it.
	ExtractSource(ctx context.Context, name string, options dto.ExtractOptions) (*dto.ABIResponse, error)
	GetABI(ctx context.Context, id uuid.UUID) (*dto.ABIResponse, error)
	ListABIs(ctx context.Context, query dto.ABIListQuery) (*dto.ABIListResponse, error)
}

// BatchExtractionService defines the inbound port for extracting many sources at once.
type BatchExtractionService interface {
	ExtractAll(ctx context.Context, request dto.BatchExtractRequest) (*dto.BatchExtractResponse, error)
}
