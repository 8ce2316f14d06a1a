package outbound

import (
	"context"

	"contractabi/internal/domain/entity"

	"github.com/google/uuid"
)

// ContractABIRepository defines the outbound port for ABI persistence.
type ContractABIRepository interface {
	Save(ctx context.Context, abi *entity.ContractABI) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ContractABI, error)
	FindByDigest(ctx context.Context, digest string) (*entity.ContractABI, error)
	FindAll(ctx context.Context, filters ContractABIFilters) ([]*entity.ContractABI, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContractABIFilters represents filters for ABI queries.
type ContractABIFilters struct {
	SourceName string
	Limit      int
	Offset     int
}
