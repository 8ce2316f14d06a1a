package entity

import (
	"errors"
	"testing"
	"time"

	domain "contractabi/internal/domain/errors/domain"
	"contractabi/internal/domain/valueobject"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFunction(t *testing.T, name string, fnType valueobject.FunctionType) valueobject.ContractFunction {
	t.Helper()
	fn, err := valueobject.NewContractFunction(name, "", nil, fnType)
	require.NoError(t, err)
	return fn
}

func TestNewContractABI(t *testing.T) {
	functions := []valueobject.ContractFunction{
		testFunction(t, "get", valueobject.FunctionTypeRead),
		testFunction(t, "set", valueobject.FunctionTypeWrite),
	}
	failure := domain.NewDeclarationError("broken", 0, 10, "a: b: c", domain.ErrMalformedSignature)

	abi := NewContractABI("counter.rs", functions, []string{"on_transfer"}, []*domain.DeclarationError{failure})

	assert.NotEqual(t, uuid.Nil, abi.ID())
	assert.Equal(t, "counter.rs", abi.SourceName())
	assert.Equal(t, 2, abi.FunctionCount())
	assert.Equal(t, []string{"on_transfer"}, abi.PrivateNames())
	assert.False(t, abi.IsEmpty())
	assert.False(t, abi.IsComplete())
	assert.Empty(t, abi.Digest())
	assert.WithinDuration(t, time.Now(), abi.CreatedAt(), time.Minute)

	functions[0] = testFunction(t, "other", valueobject.FunctionTypeRead)
	assert.Equal(t, "get", abi.Functions()[0].Name())
}

func TestContractABI_CanonicalJSON(t *testing.T) {
	empty := NewContractABI("empty.rs", nil, nil, nil)
	data, err := empty.CanonicalJSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
	assert.True(t, empty.IsEmpty())
	assert.True(t, empty.IsComplete())

	functions := []valueobject.ContractFunction{testFunction(t, "get", valueobject.FunctionTypeRead)}
	a := NewContractABI("a.rs", functions, nil, nil)
	b := NewContractABI("b.rs", functions, nil, nil)

	dataA, err := a.CanonicalJSON()
	require.NoError(t, err)
	dataB, err := b.CanonicalJSON()
	require.NoError(t, err)
	assert.Equal(t, dataA, dataB)
	assert.JSONEq(t, `[{"name":"get","return_type":"","params":[],"fn_type":"READ"}]`, string(dataA))
}

func TestRestoreContractABI(t *testing.T) {
	id := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	failure := domain.NewDeclarationError("x", 1, 2, "", domain.ErrUnresolvedReceiver)

	abi := RestoreContractABI(id, "c.rs", nil, nil, []*domain.DeclarationError{failure}, "0xabc", created)

	assert.Equal(t, id, abi.ID())
	assert.Equal(t, "0xabc", abi.Digest())
	assert.Equal(t, created, abi.CreatedAt())
	require.Len(t, abi.Failures(), 1)
	assert.True(t, errors.Is(abi.Failures()[0], domain.ErrUnresolvedReceiver))

	assert.True(t, abi.Equal(RestoreContractABI(id, "other.rs", nil, nil, nil, "", created)))
	assert.False(t, abi.Equal(nil))
}

func TestContractABI_AssignDigest(t *testing.T) {
	abi := NewContractABI("c.rs", nil, nil, nil)
	abi.AssignDigest("0x01")
	assert.Equal(t, "0x01", abi.Digest())
}

func TestContractABI_Summary(t *testing.T) {
	abi := NewContractABI(
		"counter.rs",
		[]valueobject.ContractFunction{testFunction(t, "get", valueobject.FunctionTypeRead)},
		[]string{"on_transfer", "migrate"},
		nil,
	)
	assert.Equal(t, "1 functions extracted, 2 private, 0 skipped due to parse errors", abi.Summary())

	empty := NewContractABI("empty.rs", nil, nil, nil)
	assert.Equal(t, "0 functions extracted, 0 private, 0 skipped due to parse errors", empty.Summary())
}
