package dto

import (
	"time"

	domain "contractabi/internal/domain/errors/domain"

	"github.com/google/uuid"
)

// ExtractOptions tunes a single extraction run. Nil fields fall back to configuration.
type ExtractOptions struct {
	Strict           *bool `json:"strict,omitempty"`
	IncludeSelectors *bool `json:"include_selectors,omitempty"`
	Store            bool  `json:"store,omitempty"`
	Publish          bool  `json:"publish,omitempty"`
}

// ExtractRequest carries inline source text to extract.
type ExtractRequest struct {
	SourceName    string         `json:"source_name"`
	Source        string         `json:"source"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Options       ExtractOptions `json:"options"`
}

// ParamDTO is one function parameter.
type ParamDTO struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// FunctionDTO is one ABI entry as written to output files.
type FunctionDTO struct {
	Name       string     `json:"name"               yaml:"name"`
	ReturnType string     `json:"return_type"        yaml:"return_type"`
	Params     []ParamDTO `json:"params"             yaml:"params"`
	FnType     string     `json:"fn_type"            yaml:"fn_type"`
	Selector   string     `json:"selector,omitempty" yaml:"selector,omitempty"`
}

// ExtractionReport summarizes what was left out of the ABI.
type ExtractionReport struct {
	FunctionCount int                        `json:"function_count"`
	PrivateCount  int                        `json:"private_count"`
	SkippedCount  int                        `json:"skipped_count"`
	Private       []string                   `json:"private,omitempty"`
	Skipped       []*domain.DeclarationError `json:"skipped,omitempty"`
	Summary       string                     `json:"summary"`
}

// ABIResponse is the result of one extraction.
type ABIResponse struct {
	ID            uuid.UUID        `json:"id"`
	SourceName    string           `json:"source_name"`
	Digest        string           `json:"digest,omitempty"`
	Functions     []FunctionDTO    `json:"functions"`
	Report        ExtractionReport `json:"report"`
	CorrelationID string           `json:"correlation_id,omitempty"`
	Stored        bool             `json:"stored"`
	Published     bool             `json:"published"`
	CreatedAt     time.Time        `json:"created_at"`
}

// BatchExtractRequest describes a directory-wide extraction. An empty OutDir
// writes each ABI next to its source.
type BatchExtractRequest struct {
	Root        string         `json:"root"`
	Pattern     string         `json:"pattern,omitempty"`
	OutDir      string         `json:"out_dir,omitempty"`
	Concurrency int            `json:"concurrency,omitempty"`
	Options     ExtractOptions `json:"options"`
}

// BatchItem is the outcome for one source in a batch.
type BatchItem struct {
	SourceName string       `json:"source_name"`
	ABI        *ABIResponse `json:"abi,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// BatchExtractResponse aggregates a batch run. Items follow the sorted source order.
type BatchExtractResponse struct {
	Items         []BatchItem `json:"items"`
	Succeeded     int         `json:"succeeded"`
	Failed        int         `json:"failed"`
	FunctionCount int         `json:"function_count"`
	SkippedCount  int         `json:"skipped_count"`
}

// ABIListQuery represents query parameters for listing stored ABIs.
type ABIListQuery struct {
	SourceName string `json:"source_name,omitempty"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

// DefaultABIListQuery returns default values for ABI list queries.
func DefaultABIListQuery() ABIListQuery {
	return ABIListQuery{Limit: 20}
}

// ABIListResponse represents the response for listing stored ABIs.
type ABIListResponse struct {
	ABIs       []ABIResponse      `json:"abis"`
	Pagination PaginationResponse `json:"pagination"`
}
