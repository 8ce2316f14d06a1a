package service

import (
	"context"
	"errors"
	"testing"

	"contractabi/internal/application/dto"
	"contractabi/internal/config"
	"contractabi/internal/domain/messaging"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockExtractionService struct {
	mock.Mock
}

func (m *mockExtractionService) Extract(ctx context.Context, request dto.ExtractRequest) (*dto.ABIResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ABIResponse), args.Error(1)
}

func (m *mockExtractionService) ExtractSource(
	ctx context.Context,
	name string,
	options dto.ExtractOptions,
) (*dto.ABIResponse, error) {
	args := m.Called(ctx, name, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ABIResponse), args.Error(1)
}

func (m *mockExtractionService) GetABI(ctx context.Context, id uuid.UUID) (*dto.ABIResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ABIResponse), args.Error(1)
}

func (m *mockExtractionService) ListABIs(ctx context.Context, query dto.ABIListQuery) (*dto.ABIListResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ABIListResponse), args.Error(1)
}

func TestExtractionRequestHandler_HandleRequest(t *testing.T) {
	tests := []struct {
		name        string
		publish     bool
		strict      bool
		store       bool
		selectors   bool
		wantOptions dto.ExtractOptions
	}{
		{name: "defaults defer to configuration"},
		{name: "publish enabled", publish: true, wantOptions: dto.ExtractOptions{Publish: true}},
		{
			name:        "strict and store from message",
			strict:      true,
			store:       true,
			wantOptions: dto.ExtractOptions{Strict: boolPtr(true), Store: true},
		},
		{
			name:        "selectors from message",
			selectors:   true,
			wantOptions: dto.ExtractOptions{IncludeSelectors: boolPtr(true)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := new(mockExtractionService)
			handler := NewExtractionRequestHandler(extractor, tt.publish)

			message := messaging.NewExtractionRequestMessage("counter.rs", counterSource)
			message.Strict = tt.strict
			message.Store = tt.store
			message.IncludeSelectors = tt.selectors

			want := &dto.ABIResponse{SourceName: "counter.rs"}
			extractor.On("Extract", mock.Anything, dto.ExtractRequest{
				SourceName:    "counter.rs",
				Source:        counterSource,
				CorrelationID: message.CorrelationID,
				Options:       tt.wantOptions,
			}).Return(want, nil)

			got, err := handler.HandleRequest(t.Context(), message)
			require.NoError(t, err)
			assert.Same(t, want, got)
			extractor.AssertExpectations(t)
		})
	}
}

func TestExtractionRequestHandler_HandleRequest_Error(t *testing.T) {
	extractor := new(mockExtractionService)
	extractor.On("Extract", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
	handler := NewExtractionRequestHandler(extractor, false)

	_, err := handler.HandleRequest(t.Context(), messaging.NewExtractionRequestMessage("a.rs", ""))
	require.Error(t, err)
	assert.Equal(t, "failed to handle extraction request: boom", err.Error())
}

func TestExtractionRequestHandler_WithService(t *testing.T) {
	handler := NewExtractionRequestHandler(newTestExtractionService(config.ExtractionConfig{}), false)

	message := messaging.NewExtractionRequestMessage("counter.rs", counterSource)
	message.IncludeSelectors = true

	resp, err := handler.HandleRequest(t.Context(), message)
	require.NoError(t, err)
	assert.Equal(t, message.CorrelationID, resp.CorrelationID)
	require.Len(t, resp.Functions, 3)
	assert.Equal(t, "sel:new()", resp.Functions[0].Selector)
}
