package entity

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	domain "contractabi/internal/domain/errors/domain"
	"contractabi/internal/domain/valueobject"

	"github.com/google/uuid"
)

// ContractABI is the extracted interface of one contract source.
type ContractABI struct {
	id           uuid.UUID
	sourceName   string
	functions    []valueobject.ContractFunction
	privateNames []string
	failures     []*domain.DeclarationError
	digest       string
	createdAt    time.Time
}

// NewContractABI creates a new ContractABI entity from an extraction result.
func NewContractABI(
	sourceName string,
	functions []valueobject.ContractFunction,
	privateNames []string,
	failures []*domain.DeclarationError,
) *ContractABI {
	return &ContractABI{
		id:           uuid.New(),
		sourceName:   sourceName,
		functions:    slices.Clone(functions),
		privateNames: slices.Clone(privateNames),
		failures:     slices.Clone(failures),
		createdAt:    time.Now(),
	}
}

// RestoreContractABI creates a ContractABI entity from stored data.
func RestoreContractABI(
	id uuid.UUID,
	sourceName string,
	functions []valueobject.ContractFunction,
	privateNames []string,
	failures []*domain.DeclarationError,
	digest string,
	createdAt time.Time,
) *ContractABI {
	return &ContractABI{
		id:           id,
		sourceName:   sourceName,
		functions:    functions,
		privateNames: privateNames,
		failures:     failures,
		digest:       digest,
		createdAt:    createdAt,
	}
}

// ID returns the ABI document ID.
func (a *ContractABI) ID() uuid.UUID { return a.id }

// SourceName returns the file path or label the ABI was extracted from.
func (a *ContractABI) SourceName() string { return a.sourceName }

// Functions returns the exported functions in discovery order.
func (a *ContractABI) Functions() []valueobject.ContractFunction { return slices.Clone(a.functions) }

// PrivateNames returns the names of functions excluded as private.
func (a *ContractABI) PrivateNames() []string { return slices.Clone(a.privateNames) }

// Failures returns the declarations skipped during extraction.
func (a *ContractABI) Failures() []*domain.DeclarationError { return slices.Clone(a.failures) }

// Digest returns the hex digest of the canonical ABI, or "" if none was assigned.
func (a *ContractABI) Digest() string { return a.digest }

// CreatedAt returns the extraction time.
func (a *ContractABI) CreatedAt() time.Time { return a.createdAt }

// FunctionCount returns the number of exported functions.
func (a *ContractABI) FunctionCount() int { return len(a.functions) }

// IsEmpty reports whether no function was exported.
func (a *ContractABI) IsEmpty() bool { return len(a.functions) == 0 }

// IsComplete reports whether every recognized declaration was parsed.
func (a *ContractABI) IsComplete() bool { return len(a.failures) == 0 }

// Summary renders the extraction counts.
func (a *ContractABI) Summary() string {
	return fmt.Sprintf("%d functions extracted, %d private, %d skipped due to parse errors",
		len(a.functions), len(a.privateNames), len(a.failures))
}

// AssignDigest records the digest of the canonical ABI.
func (a *ContractABI) AssignDigest(digest string) {
	a.digest = digest
}

// CanonicalJSON returns the ABI list encoding that digests are computed over.
// The same functions always encode to the same bytes.
func (a *ContractABI) CanonicalJSON() ([]byte, error) {
	functions := a.functions
	if functions == nil {
		functions = []valueobject.ContractFunction{}
	}
	return json.Marshal(functions)
}

// Equal compares ABIs by identity.
func (a *ContractABI) Equal(other *ContractABI) bool {
	if other == nil {
		return false
	}
	return a.id == other.id
}
