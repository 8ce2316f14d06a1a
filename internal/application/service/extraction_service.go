package service

import (
	"context"
	"errors"
	"fmt"

	"contractabi/internal/application/common"
	"contractabi/internal/application/common/logging"
	"contractabi/internal/application/common/slogger"
	"contractabi/internal/application/dto"
	"contractabi/internal/config"
	"contractabi/internal/domain/entity"
	domain "contractabi/internal/domain/errors/domain"
	"contractabi/internal/domain/extraction"
	"contractabi/internal/domain/messaging"
	"contractabi/internal/port/outbound"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultSourceName labels inline sources submitted without a name.
const DefaultSourceName = "inline"

// maxListLimit caps ListABIs page sizes.
const maxListLimit = 100

var (
	// ErrPersistenceDisabled is returned when storage is requested without a repository.
	ErrPersistenceDisabled = errors.New("ABI persistence is not configured")
	// ErrPublishingDisabled is returned when publishing is requested without a publisher.
	ErrPublishingDisabled = errors.New("ABI event publishing is not configured")
)

// ExtractionService implements inbound.ExtractionService.
type ExtractionService struct {
	config    config.ExtractionConfig
	engine    *extraction.Engine
	source    outbound.SourceProvider
	hasher    outbound.SignatureHasher
	repo      outbound.ContractABIRepository
	publisher outbound.ABIEventPublisher
	metrics   *ExtractionMetrics
	logger    logging.ApplicationLogger
}

// ExtractionServiceOption configures optional collaborators.
type ExtractionServiceOption func(*ExtractionService)

// WithRepository enables storing ABIs.
func WithRepository(repo outbound.ContractABIRepository) ExtractionServiceOption {
	return func(s *ExtractionService) { s.repo = repo }
}

// WithPublisher enables ABI events.
func WithPublisher(publisher outbound.ABIEventPublisher) ExtractionServiceOption {
	return func(s *ExtractionService) { s.publisher = publisher }
}

// WithMetrics records runs on metrics.
func WithMetrics(metrics *ExtractionMetrics) ExtractionServiceOption {
	return func(s *ExtractionService) { s.metrics = metrics }
}

// NewExtractionService creates an extraction service. The engine is built once
// from cfg and shared by all runs.
func NewExtractionService(
	cfg config.ExtractionConfig,
	source outbound.SourceProvider,
	hasher outbound.SignatureHasher,
	opts ...ExtractionServiceOption,
) *ExtractionService {
	s := &ExtractionService{
		config: cfg,
		engine: extraction.NewEngine(extraction.Options{
			Params: extraction.ParamOptions{DepthAware: cfg.DepthAwareParams},
		}),
		source: source,
		hasher: hasher,
		logger: slogger.WithComponent("extraction-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract runs the pipeline over inline source text.
func (s *ExtractionService) Extract(ctx context.Context, request dto.ExtractRequest) (*dto.ABIResponse, error) {
	if request.CorrelationID != "" {
		ctx = logging.WithCorrelationID(ctx, request.CorrelationID)
	}
	ctx, correlationID := logging.EnsureCorrelationID(ctx)

	sourceName := request.SourceName
	if sourceName == "" {
		sourceName = DefaultSourceName
	}

	op := startOperation(ctx, "ExtractionService.Extract", attribute.String("source_name", sourceName))
	ctx = op.ctx

	response, result, err := s.extract(ctx, sourceName, request.Source, request.Options)
	elapsed := op.elapsed()

	outcome := ResultSuccess
	switch {
	case errors.Is(err, domain.ErrDeclarationsSkipped):
		outcome = ResultStrict
	case err != nil:
		outcome = ResultError
	}
	s.metrics.RecordExtraction(ctx, outcome, elapsed, result.Functions, len(result.Private), len(result.Failures))
	op.finish(err,
		attribute.Int("function_count", len(result.Functions)),
		attribute.Int("skipped_count", len(result.Failures)),
	)

	if err != nil {
		s.logger.ErrorWithError(ctx, err, "ABI extraction failed", logging.Fields{
			"source_name": sourceName,
			"summary":     result.Summary(),
		})
		return nil, err
	}

	response.CorrelationID = correlationID
	s.logger.LogPerformance(ctx, "extract_abi", elapsed, logging.Fields{
		"source_name":    sourceName,
		"function_count": response.Report.FunctionCount,
		"private_count":  response.Report.PrivateCount,
		"skipped_count":  response.Report.SkippedCount,
		"summary":        response.Report.Summary,
		"stored":         response.Stored,
		"published":      response.Published,
	})
	return response, nil
}

func (s *ExtractionService) extract(
	ctx context.Context,
	sourceName, source string,
	options dto.ExtractOptions,
) (*dto.ABIResponse, extraction.Result, error) {
	if err := s.validateSource(source); err != nil {
		return nil, extraction.Result{}, common.WrapServiceError(common.OpValidateSource, err)
	}
	if options.Store && s.repo == nil {
		return nil, extraction.Result{}, common.WrapServiceError(common.OpSaveABI, ErrPersistenceDisabled)
	}
	if options.Publish && s.publisher == nil {
		return nil, extraction.Result{}, common.WrapServiceError(common.OpPublishABI, ErrPublishingDisabled)
	}

	result := s.engine.Extract(source)
	for _, failure := range result.Failures {
		s.logger.Debug(ctx, "Declaration skipped", logging.Fields{
			"source_name": sourceName,
			"function":    failure.Name,
			"scope_index": failure.ScopeIndex,
			"offset":      failure.Offset,
			"reason":      failure.Reason(),
		})
	}

	if s.strict(options) {
		if err := result.Err(); err != nil {
			return nil, result, common.WrapServiceError(common.OpExtractABI, err)
		}
	}

	abi := entity.NewContractABI(sourceName, result.Functions, functionNames(result.Private), result.Failures)
	if err := s.assignDigest(abi); err != nil {
		return nil, result, common.WrapServiceError(common.OpExtractABI, err)
	}

	response := toABIResponse(abi, s.selectorHasher(options))

	if options.Store {
		if err := s.repo.Save(ctx, abi); err != nil {
			return nil, result, common.WrapServiceError(common.OpSaveABI, err)
		}
		response.Stored = true
	}

	if options.Publish {
		correlationID := logging.CorrelationIDFromContext(ctx)
		if err := s.publisher.PublishABIExtracted(ctx, messaging.NewABIExtractedEvent(abi, correlationID)); err != nil {
			return nil, result, common.WrapServiceError(common.OpPublishABI, err)
		}
		response.Published = true
	}

	return response, result, nil
}

func (s *ExtractionService) validateSource(source string) error {
	if limit := s.config.MaxSourceBytes; limit > 0 && len(source) > limit {
		return fmt.Errorf("source is %d bytes, limit is %d: %w", len(source), limit, domain.ErrSourceTooLarge)
	}
	return nil
}

func (s *ExtractionService) strict(options dto.ExtractOptions) bool {
	if options.Strict != nil {
		return *options.Strict
	}
	return s.config.Strict
}

// selectorHasher returns the hasher when selectors are wanted, else nil.
func (s *ExtractionService) selectorHasher(options dto.ExtractOptions) outbound.SignatureHasher {
	include := s.config.IncludeSelectors
	if options.IncludeSelectors != nil {
		include = *options.IncludeSelectors
	}
	if !include {
		return nil
	}
	return s.hasher
}

func (s *ExtractionService) assignDigest(abi *entity.ContractABI) error {
	if s.hasher == nil {
		return nil
	}
	canonical, err := abi.CanonicalJSON()
	if err != nil {
		return fmt.Errorf("encode canonical ABI: %w", err)
	}
	abi.AssignDigest(s.hasher.Digest(canonical))
	return nil
}

// ExtractSource reads a named source through the source provider and extracts it.
func (s *ExtractionService) ExtractSource(
	ctx context.Context,
	name string,
	options dto.ExtractOptions,
) (*dto.ABIResponse, error) {
	src, err := s.source.Read(ctx, name)
	if err != nil {
		return nil, common.WrapServiceError(common.OpReadSource, err)
	}
	return s.Extract(ctx, dto.ExtractRequest{
		SourceName: src.Name,
		Source:     src.Text,
		Options:    options,
	})
}

// GetABI retrieves a stored ABI by ID.
func (s *ExtractionService) GetABI(ctx context.Context, id uuid.UUID) (*dto.ABIResponse, error) {
	if s.repo == nil {
		return nil, common.WrapServiceError(common.OpRetrieveABI, ErrPersistenceDisabled)
	}

	abi, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, common.WrapServiceError(common.OpRetrieveABI, err)
	}
	if abi == nil {
		return nil, common.WrapServiceError(common.OpRetrieveABI, domain.ErrABINotFound)
	}

	response := toABIResponse(abi, s.selectorHasher(dto.ExtractOptions{}))
	response.Stored = true
	return response, nil
}

// ListABIs retrieves stored ABIs, newest first.
func (s *ExtractionService) ListABIs(ctx context.Context, query dto.ABIListQuery) (*dto.ABIListResponse, error) {
	if s.repo == nil {
		return nil, common.WrapServiceError(common.OpListABIs, ErrPersistenceDisabled)
	}
	if query.Limit < 0 || query.Limit > maxListLimit || query.Offset < 0 {
		return nil, common.WrapServiceError(common.OpListABIs,
			fmt.Errorf("%w: limit must be 0-%d and offset non-negative", domain.ErrInvalidInput, maxListLimit))
	}
	if query.Limit == 0 {
		query.Limit = dto.DefaultABIListQuery().Limit
	}

	abis, total, err := s.repo.FindAll(ctx, outbound.ContractABIFilters{
		SourceName: query.SourceName,
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
	if err != nil {
		return nil, common.WrapServiceError(common.OpListABIs, err)
	}

	selectors := s.selectorHasher(dto.ExtractOptions{})
	responses := make([]dto.ABIResponse, 0, len(abis))
	for _, abi := range abis {
		response := toABIResponse(abi, selectors)
		response.Stored = true
		responses = append(responses, *response)
	}

	return &dto.ABIListResponse{
		ABIs:       responses,
		Pagination: dto.NewPaginationResponse(query.Limit, query.Offset, total),
	}, nil
}
