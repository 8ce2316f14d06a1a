package service

import (
	"context"
	"testing"
	"time"

	"contractabi/internal/application/dto"
	"contractabi/internal/config"
	"contractabi/internal/domain/valueobject"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func findMetric(data metricdata.ResourceMetrics, name string) metricdata.Metrics {
	for _, scopeMetric := range data.ScopeMetrics {
		for _, m := range scopeMetric.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	return metricdata.Metrics{}
}

func sumByAttr(sum metricdata.Sum[int64], key string) map[string]int64 {
	out := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		value, _ := dp.Attributes.Value(attribute.Key(key))
		out[value.AsString()] += dp.Value
	}
	return out
}

func newTestMetrics(t *testing.T) (*ExtractionMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	metrics, err := NewExtractionMetricsWithProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)
	return metrics, reader
}

func TestExtractionMetrics_RecordExtraction(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	read, err := valueobject.NewContractFunction("get", "u8", nil, valueobject.FunctionTypeRead)
	require.NoError(t, err)
	write, err := valueobject.NewContractFunction("set", "", nil, valueobject.FunctionTypeWrite)
	require.NoError(t, err)

	metrics.RecordExtraction(ctx, ResultSuccess, 2*time.Millisecond, []valueobject.ContractFunction{read, write, write}, 1, 2)
	metrics.RecordExtraction(ctx, ResultStrict, time.Millisecond, nil, 0, 1)

	var data metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &data))

	runs, ok := findMetric(data, ExtractionRunCounterName).Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, map[string]int64{ResultSuccess: 1, ResultStrict: 1}, sumByAttr(runs, AttrResult))

	functions, ok := findMetric(data, FunctionCounterName).Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, map[string]int64{"READ": 1, "WRITE": 2}, sumByAttr(functions, AttrFnType))

	skipped, ok := findMetric(data, SkippedDeclarationCounterName).Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, skipped.DataPoints, 1)
	assert.Equal(t, int64(3), skipped.DataPoints[0].Value)

	private, ok := findMetric(data, PrivateFunctionCounterName).Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, private.DataPoints, 1)
	assert.Equal(t, int64(1), private.DataPoints[0].Value)

	duration, ok := findMetric(data, ExtractionDurationHistogramName).Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range duration.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestExtractionMetrics_NilIsNoop(t *testing.T) {
	var metrics *ExtractionMetrics
	assert.NotPanics(t, func() {
		metrics.RecordExtraction(context.Background(), ResultSuccess, time.Millisecond, nil, 1, 1)
		metrics.RecordBatchSource(context.Background(), true)
	})
}

func TestExtractionService_RecordsMetrics(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	svc := newTestExtractionService(config.ExtractionConfig{Strict: true}, WithMetrics(metrics))

	_, err := svc.Extract(t.Context(), dto.ExtractRequest{Source: counterSource})
	require.NoError(t, err)
	_, err = svc.Extract(t.Context(), dto.ExtractRequest{Source: brokenSource})
	require.Error(t, err)

	var data metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &data))
	runs, ok := findMetric(data, ExtractionRunCounterName).Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, map[string]int64{ResultSuccess: 1, ResultStrict: 1}, sumByAttr(runs, AttrResult))
}
