package service

import (
	"context"
	"time"

	"contractabi/internal/domain/valueobject"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names following OpenTelemetry semantic conventions.
const (
	ExtractionRunCounterName        = "abi_extraction_runs_total"
	ExtractionDurationHistogramName = "abi_extraction_duration_seconds"
	FunctionCounterName             = "abi_functions_total"
	PrivateFunctionCounterName      = "abi_private_functions_total"
	SkippedDeclarationCounterName   = "abi_declarations_skipped_total"
	BatchSourceCounterName          = "abi_batch_sources_total"
)

// Attribute keys.
const (
	AttrResult = "result"
	AttrFnType = "fn_type"
)

// Extraction results recorded on runs.
const (
	ResultSuccess = "success"
	ResultStrict  = "strict_failure"
	ResultError   = "error"
)

// getExtractionLatencyBuckets returns bucket boundaries for extraction
// latencies. Most contracts extract in well under a millisecond.
func getExtractionLatencyBuckets() []float64 {
	return []float64{
		0.0001, // 100µs
		0.0005, // 500µs
		0.001,  // 1ms
		0.005,  // 5ms
		0.01,   // 10ms
		0.05,   // 50ms
		0.1,    // 100ms
		0.5,    // 500ms
		1.0,    // 1s
	}
}

// ExtractionMetrics records extraction runs. A nil *ExtractionMetrics records nothing.
type ExtractionMetrics struct {
	runCounter      metric.Int64Counter
	duration        metric.Float64Histogram
	functionCounter metric.Int64Counter
	privateCounter  metric.Int64Counter
	skippedCounter  metric.Int64Counter
	batchCounter    metric.Int64Counter
}

// NewExtractionMetrics creates metrics using the global meter provider.
func NewExtractionMetrics() (*ExtractionMetrics, error) {
	return NewExtractionMetricsWithProvider(otel.GetMeterProvider())
}

// NewExtractionMetricsWithProvider creates metrics with a specific meter provider.
func NewExtractionMetricsWithProvider(provider metric.MeterProvider) (*ExtractionMetrics, error) {
	meter := provider.Meter("contractabi/service", metric.WithInstrumentationVersion("1.0.0"))

	runCounter, err := meter.Int64Counter(ExtractionRunCounterName,
		metric.WithDescription("Total number of extraction runs"), metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(ExtractionDurationHistogramName,
		metric.WithDescription("Duration of extraction runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(getExtractionLatencyBuckets()...))
	if err != nil {
		return nil, err
	}

	functionCounter, err := meter.Int64Counter(FunctionCounterName,
		metric.WithDescription("Total number of exported functions extracted"), metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	privateCounter, err := meter.Int64Counter(PrivateFunctionCounterName,
		metric.WithDescription("Total number of functions excluded as private"), metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	skippedCounter, err := meter.Int64Counter(SkippedDeclarationCounterName,
		metric.WithDescription("Total number of declarations skipped due to parse errors"), metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	batchCounter, err := meter.Int64Counter(BatchSourceCounterName,
		metric.WithDescription("Total number of sources processed by batch runs"), metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	return &ExtractionMetrics{
		runCounter:      runCounter,
		duration:        duration,
		functionCounter: functionCounter,
		privateCounter:  privateCounter,
		skippedCounter:  skippedCounter,
		batchCounter:    batchCounter,
	}, nil
}

// RecordExtraction records one run with its outcome counts.
func (m *ExtractionMetrics) RecordExtraction(
	ctx context.Context,
	result string,
	elapsed time.Duration,
	functions []valueobject.ContractFunction,
	privateCount, skippedCount int,
) {
	if m == nil {
		return
	}

	resultAttr := metric.WithAttributes(attribute.String(AttrResult, result))
	m.runCounter.Add(ctx, 1, resultAttr)
	m.duration.Record(ctx, elapsed.Seconds(), resultAttr)

	byType := make(map[valueobject.FunctionType]int64)
	for _, fn := range functions {
		byType[fn.FnType()]++
	}
	for fnType, count := range byType {
		m.functionCounter.Add(ctx, count, metric.WithAttributes(attribute.String(AttrFnType, fnType.String())))
	}

	if privateCount > 0 {
		m.privateCounter.Add(ctx, int64(privateCount))
	}
	if skippedCount > 0 {
		m.skippedCounter.Add(ctx, int64(skippedCount))
	}
}

// RecordBatchSource records the outcome of one source in a batch.
func (m *ExtractionMetrics) RecordBatchSource(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if !success {
		result = ResultError
	}
	m.batchCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrResult, result)))
}
