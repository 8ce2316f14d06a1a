package service

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"contractabi/internal/application/common"
	"contractabi/internal/application/common/logging"
	"contractabi/internal/application/common/slogger"
	"contractabi/internal/application/dto"
	"contractabi/internal/config"
	"contractabi/internal/port/inbound"
	"contractabi/internal/port/outbound"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency is used when neither the request nor config sets one.
const DefaultBatchConcurrency = 4

// BatchExtractionService implements inbound.BatchExtractionService. Each source
// is extracted independently; one failing source never stops the others.
type BatchExtractionService struct {
	extractor inbound.ExtractionService
	source    outbound.SourceProvider
	sinks     outbound.ABISinkFactory
	config    config.BatchConfig
	metrics   *ExtractionMetrics
	logger    logging.ApplicationLogger
}

// NewBatchExtractionService creates a batch extraction service.
func NewBatchExtractionService(
	extractor inbound.ExtractionService,
	source outbound.SourceProvider,
	sinks outbound.ABISinkFactory,
	cfg config.BatchConfig,
	metrics *ExtractionMetrics,
) *BatchExtractionService {
	return &BatchExtractionService{
		extractor: extractor,
		source:    source,
		sinks:     sinks,
		config:    cfg,
		metrics:   metrics,
		logger:    slogger.WithComponent("batch-extraction-service"),
	}
}

// ExtractAll extracts every matching source under request.Root and writes one
// ABI file per source. Items are reported in sorted source order.
func (s *BatchExtractionService) ExtractAll(
	ctx context.Context,
	request dto.BatchExtractRequest,
) (*dto.BatchExtractResponse, error) {
	ctx, _ = logging.EnsureCorrelationID(ctx)
	op := startOperation(ctx, "BatchExtractionService.ExtractAll", attribute.String("root", request.Root))
	ctx = op.ctx

	response, err := s.extractAll(ctx, request)
	if err != nil {
		op.finish(err)
		return nil, common.WrapServiceError(common.OpBatchExtract, err)
	}

	op.finish(nil,
		attribute.Int("succeeded", response.Succeeded),
		attribute.Int("failed", response.Failed),
	)
	s.logger.LogPerformance(ctx, "extract_batch", op.elapsed(), logging.Fields{
		"root":           request.Root,
		"sources":        len(response.Items),
		"succeeded":      response.Succeeded,
		"failed":         response.Failed,
		"function_count": response.FunctionCount,
		"skipped_count":  response.SkippedCount,
	})
	return response, nil
}

func (s *BatchExtractionService) extractAll(
	ctx context.Context,
	request dto.BatchExtractRequest,
) (*dto.BatchExtractResponse, error) {
	if request.Root == "" {
		return nil, fmt.Errorf("batch root cannot be empty")
	}

	pattern := request.Pattern
	if pattern == "" {
		pattern = s.config.Pattern
	}
	paths, err := s.source.List(ctx, request.Root, pattern)
	if err != nil {
		return nil, common.WrapServiceError(common.OpListSources, err)
	}
	return s.run(ctx, request, paths)
}

// ExtractFiles extracts the given sources, which must lie under request.Root,
// without listing the tree. Watch mode uses it for changed files.
func (s *BatchExtractionService) ExtractFiles(
	ctx context.Context,
	request dto.BatchExtractRequest,
	paths []string,
) (*dto.BatchExtractResponse, error) {
	if request.Root == "" {
		return nil, common.WrapServiceError(common.OpBatchExtract, fmt.Errorf("batch root cannot be empty"))
	}
	paths = slices.Clone(paths)
	slices.Sort(paths)
	response, err := s.run(ctx, request, paths)
	if err != nil {
		return nil, common.WrapServiceError(common.OpBatchExtract, err)
	}
	return response, nil
}

func (s *BatchExtractionService) run(
	ctx context.Context,
	request dto.BatchExtractRequest,
	paths []string,
) (*dto.BatchExtractResponse, error) {
	items := make([]dto.BatchItem, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency(request))
	for i, path := range paths {
		g.Go(func() error {
			// A cancelled batch stops starting new sources.
			if err := gctx.Err(); err != nil {
				return err
			}
			items[i] = s.extractOne(gctx, request, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	response := &dto.BatchExtractResponse{Items: items}
	for _, item := range items {
		if item.Error != "" {
			response.Failed++
			continue
		}
		response.Succeeded++
		response.FunctionCount += item.ABI.Report.FunctionCount
		response.SkippedCount += item.ABI.Report.SkippedCount
	}
	return response, nil
}

func (s *BatchExtractionService) extractOne(ctx context.Context, request dto.BatchExtractRequest, path string) dto.BatchItem {
	item := dto.BatchItem{SourceName: path}

	abi, err := s.extractor.ExtractSource(ctx, path, request.Options)
	if err == nil {
		err = s.write(ctx, request, path, abi)
	}
	if err != nil {
		s.logger.Warn(ctx, "Batch source failed", logging.Fields{
			"source_name": path,
			"error":       err.Error(),
		})
		item.Error = err.Error()
		s.metrics.RecordBatchSource(ctx, false)
		return item
	}

	item.ABI = abi
	s.metrics.RecordBatchSource(ctx, true)
	return item
}

func (s *BatchExtractionService) write(
	ctx context.Context,
	request dto.BatchExtractRequest,
	path string,
	abi *dto.ABIResponse,
) error {
	destination, err := OutputPath(request.Root, request.OutDir, path, s.sinks.Extension())
	if err != nil {
		return common.WrapServiceError(common.OpWriteABI, err)
	}
	sink, err := s.sinks.Open(destination)
	if err != nil {
		return common.WrapServiceError(common.OpWriteABI, err)
	}
	if err := sink.WriteABI(ctx, abi.Functions); err != nil {
		return common.WrapServiceError(common.OpWriteABI, err)
	}
	return nil
}

func (s *BatchExtractionService) concurrency(request dto.BatchExtractRequest) int {
	switch {
	case request.Concurrency > 0:
		return request.Concurrency
	case s.config.Concurrency > 0:
		return s.config.Concurrency
	default:
		return DefaultBatchConcurrency
	}
}

// OutputPath returns where the ABI for source is written: next to the source
// when outDir is empty, otherwise under outDir mirroring the layout below root.
// The source extension is replaced by ext.
func OutputPath(root, outDir, source, ext string) (string, error) {
	base := filepath.Base(source)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ext
	if outDir == "" {
		return filepath.Join(filepath.Dir(source), name), nil
	}

	relDir := "."
	if root != source {
		rel, err := filepath.Rel(root, filepath.Dir(source))
		if err != nil {
			return "", fmt.Errorf("resolve %s against %s: %w", source, root, err)
		}
		relDir = rel
	}
	if relDir == ".." || strings.HasPrefix(relDir, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("source %s is outside %s", source, root)
	}
	return filepath.Join(outDir, relDir, name), nil
}
