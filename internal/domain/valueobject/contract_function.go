package valueobject

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
)

// ContractParam is one name:type pair of a function parameter list.
type ContractParam struct {
	name      string
	paramType string
}

// NewContractParam creates a ContractParam. Both parts are required.
func NewContractParam(name, paramType string) (ContractParam, error) {
	name = strings.TrimSpace(name)
	paramType = strings.TrimSpace(paramType)
	if name == "" {
		return ContractParam{}, errors.New("parameter name cannot be empty")
	}
	if paramType == "" {
		return ContractParam{}, errors.New("parameter type cannot be empty")
	}
	return ContractParam{name: name, paramType: paramType}, nil
}

// Name returns the parameter name.
func (p ContractParam) Name() string { return p.name }

// Type returns the parameter type text as written in the source.
func (p ContractParam) Type() string { return p.paramType }

type contractParamJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// MarshalJSON implements json.Marshaler.
func (p ContractParam) MarshalJSON() ([]byte, error) {
	return json.Marshal(contractParamJSON{Name: p.name, Type: p.paramType})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ContractParam) UnmarshalJSON(data []byte) error {
	var raw contractParamJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewContractParam(raw.Name, raw.Type)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ContractFunction describes one recognized function declaration.
// It is immutable once constructed.
type ContractFunction struct {
	name       string
	returnType string
	params     []ContractParam
	fnType     FunctionType
}

// NewContractFunction creates a ContractFunction. An empty return type means the
// function returns nothing.
func NewContractFunction(
	name, returnType string,
	params []ContractParam,
	fnType FunctionType,
) (ContractFunction, error) {
	if strings.TrimSpace(name) == "" {
		return ContractFunction{}, errors.New("function name cannot be empty")
	}
	if !validFunctionTypes[fnType] {
		return ContractFunction{}, errors.New("invalid function type: " + string(fnType))
	}
	return ContractFunction{
		name:       name,
		returnType: strings.TrimSpace(returnType),
		params:     slices.Clone(params),
		fnType:     fnType,
	}, nil
}

// Name returns the function name.
func (f ContractFunction) Name() string { return f.name }

// ReturnType returns the declared return type, or "" when there is none.
func (f ContractFunction) ReturnType() string { return f.returnType }

// Params returns a copy of the ordered parameter list, receiver excluded.
func (f ContractFunction) Params() []ContractParam { return slices.Clone(f.params) }

// FnType returns the classification.
func (f ContractFunction) FnType() FunctionType { return f.fnType }

// CanonicalSignature renders name(type1,type2) with whitespace removed from types.
func (f ContractFunction) CanonicalSignature() string {
	var b strings.Builder
	b.WriteString(f.name)
	b.WriteByte('(')
	for i, p := range f.params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strings.Join(strings.Fields(p.paramType), ""))
	}
	b.WriteByte(')')
	return b.String()
}

// Equal reports whether two functions describe the same declaration.
func (f ContractFunction) Equal(other ContractFunction) bool {
	return f.name == other.name &&
		f.returnType == other.returnType &&
		f.fnType == other.fnType &&
		slices.Equal(f.params, other.params)
}

type contractFunctionJSON struct {
	Name       string          `json:"name"`
	ReturnType string          `json:"return_type"`
	Params     []ContractParam `json:"params"`
	FnType     FunctionType    `json:"fn_type"`
}

// MarshalJSON implements json.Marshaler. Params always encode as an array.
func (f ContractFunction) MarshalJSON() ([]byte, error) {
	params := f.params
	if params == nil {
		params = []ContractParam{}
	}
	return json.Marshal(contractFunctionJSON{
		Name:       f.name,
		ReturnType: f.returnType,
		Params:     params,
		FnType:     f.fnType,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *ContractFunction) UnmarshalJSON(data []byte) error {
	var raw contractFunctionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewContractFunction(raw.Name, raw.ReturnType, raw.Params, raw.FnType)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
