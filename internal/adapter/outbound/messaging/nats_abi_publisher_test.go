package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"contractabi/internal/config"
	"contractabi/internal/domain/entity"
	"contractabi/internal/domain/messaging"
	"contractabi/internal/domain/valueobject"
	"contractabi/internal/version"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.NATSConfig {
	return config.NATSConfig{
		URL:           "nats://localhost:4222",
		MaxReconnects: 5,
		ReconnectWait: 2 * time.Second,
		SubjectPrefix: "abi",
	}
}

// newTestPublisher returns a connected publisher that never touches the network.
func newTestPublisher(t *testing.T) *NATSABIPublisher {
	t.Helper()
	publisher, err := NewNATSABIPublisher(testConfig())
	require.NoError(t, err)
	publisher.isTestMode = true
	require.NoError(t, publisher.Connect())
	return publisher
}

func newTestEvent(t *testing.T) messaging.ABIExtractedEvent {
	t.Helper()
	get, err := valueobject.NewContractFunction("get", "u64", nil, valueobject.FunctionTypeRead)
	require.NoError(t, err)
	abi := entity.NewContractABI("counter.rs", []valueobject.ContractFunction{get}, nil, nil)
	abi.AssignDigest("0xfeed")
	return messaging.NewABIExtractedEvent(abi, "corr-1")
}

func TestNewNATSABIPublisher_InvalidConfig(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*config.NATSConfig)
		expectedErr string
	}{
		{name: "empty URL", mutate: func(c *config.NATSConfig) { c.URL = "" }, expectedErr: "NATS URL cannot be empty"},
		{
			name:        "invalid URL scheme",
			mutate:      func(c *config.NATSConfig) { c.URL = "http://localhost:4222" },
			expectedErr: "invalid NATS URL scheme",
		},
		{
			name:        "negative max reconnects",
			mutate:      func(c *config.NATSConfig) { c.MaxReconnects = -1 },
			expectedErr: "max reconnects cannot be negative",
		},
		{
			name:        "negative reconnect wait",
			mutate:      func(c *config.NATSConfig) { c.ReconnectWait = -time.Second },
			expectedErr: "reconnect wait cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			publisher, err := NewNATSABIPublisher(cfg)
			require.Error(t, err)
			assert.Nil(t, publisher)
			assert.Equal(t, tt.expectedErr, err.Error())
		})
	}
}

func TestNewNATSABIPublisher_AcceptsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "tls://nats.example.com:4222"

	publisher, err := NewNATSABIPublisher(cfg)
	require.NoError(t, err)
	assert.False(t, publisher.GetConnectionHealth().Connected)
}

func TestSubjectsFor(t *testing.T) {
	tests := []struct {
		prefix string
		want   Subjects
	}{
		{
			prefix: "",
			want:   Subjects{Prefix: "abi", Extracted: "abi.extracted", Request: "abi.extract.request", Stream: "ABI"},
		},
		{
			prefix: "abi",
			want:   Subjects{Prefix: "abi", Extracted: "abi.extracted", Request: "abi.extract.request", Stream: "ABI"},
		},
		{
			prefix: "near.contracts.",
			want: Subjects{
				Prefix:    "near.contracts",
				Extracted: "near.contracts.extracted",
				Request:   "near.contracts.extract.request",
				Stream:    "NEAR_CONTRACTS",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			assert.Equal(t, tt.want, SubjectsFor(tt.prefix))
		})
	}
}

func TestConnectionName(t *testing.T) {
	version.SetBuildVars("v1.2.3", "abc", "")
	t.Cleanup(version.ResetBuildVars)

	assert.Equal(t, "contractabi/v1.2.3 worker", ConnectionName("worker"))
}

func TestNATSABIPublisher_StreamConfig(t *testing.T) {
	publisher := newTestPublisher(t)

	stream := publisher.StreamConfig()
	assert.Equal(t, "ABI", stream.Name)
	assert.Equal(t, []string{"abi.extracted"}, stream.Subjects)
	assert.Equal(t, nats.FileStorage, stream.Storage)
	assert.NotContains(t, stream.Subjects, publisher.Subjects().Request)
}

func TestNATSABIPublisher_EnsureStream(t *testing.T) {
	t.Run("requires connection", func(t *testing.T) {
		publisher, err := NewNATSABIPublisher(testConfig())
		require.NoError(t, err)
		assert.ErrorIs(t, publisher.EnsureStream(), ErrNotConnected)
	})

	t.Run("succeeds when connected", func(t *testing.T) {
		publisher := newTestPublisher(t)
		assert.NoError(t, publisher.EnsureStream())
		assert.NoError(t, publisher.EnsureStream())
	})

	t.Run("jetstream disabled", func(t *testing.T) {
		publisher := newTestPublisher(t)
		publisher.testErrorMode = "jetstream_not_enabled"
		assert.EqualError(t, publisher.EnsureStream(), "JetStream not enabled on server")
	})
}

func TestNATSABIPublisher_PublishABIExtracted(t *testing.T) {
	publisher := newTestPublisher(t)
	event := newTestEvent(t)

	require.NoError(t, publisher.PublishABIExtracted(context.Background(), event))

	require.Len(t, publisher.testPublished, 1)
	msg := publisher.testPublished[0]
	assert.Equal(t, "abi.extracted", msg.Subject)
	assert.Equal(t, event.MessageID, msg.Header.Get(nats.MsgIdHdr))
	assert.Equal(t, "corr-1", msg.Header.Get("Correlation-Id"))

	var decoded messaging.ABIExtractedEvent
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, event.ABIID, decoded.ABIID)
	assert.Equal(t, "0xfeed", decoded.Digest)
	require.Len(t, decoded.Functions, 1)
	assert.Equal(t, "get", decoded.Functions[0].Name())

	metrics := publisher.GetMessageMetrics()
	assert.Equal(t, int64(1), metrics.PublishedCount)
	assert.Equal(t, int64(0), metrics.FailedCount)
}

func TestNATSABIPublisher_PublishRejectsInvalidEvent(t *testing.T) {
	publisher := newTestPublisher(t)
	event := newTestEvent(t)
	event.FunctionCount = 7

	err := publisher.PublishABIExtracted(context.Background(), event)

	var msgErr *messaging.MessageError
	require.ErrorAs(t, err, &msgErr)
	assert.Equal(t, messaging.ErrCodeValidationFailed, msgErr.Code)
	assert.Empty(t, publisher.testPublished)
}

func TestNATSABIPublisher_PublishCancelledContext(t *testing.T) {
	publisher := newTestPublisher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishABIExtracted(ctx, newTestEvent(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(1), publisher.GetMessageMetrics().FailedCount)
}

func TestNATSABIPublisher_NotConnected(t *testing.T) {
	publisher := newTestPublisher(t)
	require.NoError(t, publisher.Disconnect())

	err := publisher.PublishABIExtracted(context.Background(), newTestEvent(t))
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, publisher.GetConnectionHealth().Connected)
}

func TestNATSABIPublisher_CircuitBreaker(t *testing.T) {
	publisher := newTestPublisher(t)
	publisher.testErrorMode = "stream_storage_full"
	ctx := context.Background()

	for range maxConsecutiveFailures {
		err := publisher.PublishABIExtracted(ctx, newTestEvent(t))
		require.EqualError(t, err, "stream storage exceeded")
	}
	assert.Equal(t, "open", publisher.GetConnectionHealth().CircuitBreaker)

	publisher.testErrorMode = ""
	err := publisher.PublishABIExtracted(ctx, newTestEvent(t))
	assert.ErrorIs(t, err, ErrCircuitOpen)

	publisher.ResetCircuitBreaker()
	require.NoError(t, publisher.PublishABIExtracted(ctx, newTestEvent(t)))
	assert.Equal(t, "closed", publisher.GetConnectionHealth().CircuitBreaker)

	metrics := publisher.GetMessageMetrics()
	assert.Equal(t, int64(1), metrics.PublishedCount)
	assert.Equal(t, int64(4), metrics.FailedCount)
}

func TestNATSABIPublisher_CircuitBreakerHalfOpens(t *testing.T) {
	publisher := newTestPublisher(t)
	publisher.circuitBreakerOpen = true
	publisher.failureCount = maxConsecutiveFailures
	publisher.lastFailureTime = time.Now().Add(-2 * circuitOpenDuration)

	require.NoError(t, publisher.PublishABIExtracted(context.Background(), newTestEvent(t)))
	assert.Equal(t, "closed", publisher.GetConnectionHealth().CircuitBreaker)
	assert.Equal(t, 0, publisher.failureCount)
}

func TestNATSABIPublisher_MessageTooLarge(t *testing.T) {
	publisher := newTestPublisher(t)
	publisher.testErrorMode = "message_too_large"

	err := publisher.PublishABIExtracted(context.Background(), newTestEvent(t))
	assert.ErrorIs(t, err, nats.ErrMaxPayload)
}

func TestNATSABIPublisher_Health(t *testing.T) {
	publisher := newTestPublisher(t)

	health := publisher.GetConnectionHealth()
	assert.True(t, health.Connected)
	assert.True(t, health.JetStreamEnabled)
	assert.Equal(t, "closed", health.CircuitBreaker)
	assert.Empty(t, health.LastError)
}
