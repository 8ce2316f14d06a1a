package service

import (
	"context"
	"strconv"

	"contractabi/internal/domain/entity"
	"contractabi/internal/domain/messaging"
	"contractabi/internal/port/outbound"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

const (
	counterSource = "impl Counter {\n" +
		"    #[init]\n" +
		"    pub fn new(&mut self) {}\n" +
		"    pub fn get(&self) -> u64 { self.value }\n" +
		"    pub fn increment(&mut self, by: u64) {}\n" +
		"    #[private]\n" +
		"    fn bump(&mut self) {}\n" +
		"}\n"

	brokenSource = "impl C {\n" +
		"    pub fn ok_before(&self) {}\n" +
		"    pub fn broken(&self, a: b: c) {}\n" +
		"    pub fn ok_after(&mut self) {}\n" +
		"}"
)

// stubHasher returns readable selectors so tests can assert on them.
type stubHasher struct{}

func (stubHasher) Selector(signature string) string { return "sel:" + signature }
func (stubHasher) Digest(data []byte) string        { return "digest:" + strconv.Itoa(len(data)) }

type mockABIRepository struct {
	mock.Mock
}

func (m *mockABIRepository) Save(ctx context.Context, abi *entity.ContractABI) error {
	args := m.Called(ctx, abi)
	return args.Error(0)
}

func (m *mockABIRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ContractABI, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ContractABI), args.Error(1)
}

func (m *mockABIRepository) FindByDigest(ctx context.Context, digest string) (*entity.ContractABI, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ContractABI), args.Error(1)
}

func (m *mockABIRepository) FindAll(
	ctx context.Context,
	filters outbound.ContractABIFilters,
) ([]*entity.ContractABI, int, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entity.ContractABI), args.Int(1), args.Error(2)
}

func (m *mockABIRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockABIPublisher struct {
	mock.Mock
}

func (m *mockABIPublisher) PublishABIExtracted(ctx context.Context, event messaging.ABIExtractedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func boolPtr(v bool) *bool { return &v }
