package valueobject

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FunctionType is the semantic role of an exported contract function.
type FunctionType string

// Function type constants.
const (
	FunctionTypeRead    FunctionType = "READ"
	FunctionTypeWrite   FunctionType = "WRITE"
	FunctionTypePayable FunctionType = "PAYABLE"
	FunctionTypeInit    FunctionType = "INIT"
	FunctionTypePrivate FunctionType = "PRIVATE"
	FunctionTypeUnknown FunctionType = "UNKNOWN"
)

// validFunctionTypes contains all valid function types.
var validFunctionTypes = map[FunctionType]bool{
	FunctionTypeRead:    true,
	FunctionTypeWrite:   true,
	FunctionTypePayable: true,
	FunctionTypeInit:    true,
	FunctionTypePrivate: true,
	FunctionTypeUnknown: true,
}

// NewFunctionType creates a FunctionType with validation. Matching is case-insensitive.
func NewFunctionType(value string) (FunctionType, error) {
	t := FunctionType(strings.ToUpper(strings.TrimSpace(value)))
	if !validFunctionTypes[t] {
		return "", fmt.Errorf("invalid function type: %s", value)
	}
	return t, nil
}

// String returns the string representation of the function type.
func (t FunctionType) String() string {
	return string(t)
}

// IsExported reports whether functions of this type belong in the published ABI.
func (t FunctionType) IsExported() bool {
	return t != FunctionTypePrivate
}

// IsMutating reports whether calling the function may change contract state.
func (t FunctionType) IsMutating() bool {
	switch t {
	case FunctionTypeWrite, FunctionTypePayable, FunctionTypeInit:
		return true
	default:
		return false
	}
}

// UnmarshalJSON validates the decoded value.
func (t *FunctionType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewFunctionType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// AllFunctionTypes returns every function type in declaration order.
func AllFunctionTypes() []FunctionType {
	return []FunctionType{
		FunctionTypeRead,
		FunctionTypeWrite,
		FunctionTypePayable,
		FunctionTypeInit,
		FunctionTypePrivate,
		FunctionTypeUnknown,
	}
}
