// Package domain provides domain-specific error definitions and utilities.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Declaration parsing errors.
var (
	// ErrMalformedSignature means a parameter token could not be split into exactly one name:type pair.
	ErrMalformedSignature = errors.New("malformed signature")
	// ErrUnresolvedReceiver means the first parameter token is neither a self form nor name:type.
	ErrUnresolvedReceiver = errors.New("unresolved receiver")
)

// ABI document errors.
var (
	ErrABINotFound         = errors.New("contract ABI not found")
	ErrABIAlreadyExists    = errors.New("contract ABI already exists")
	ErrEmptySource         = errors.New("source text is empty")
	ErrSourceTooLarge      = errors.New("source text exceeds size limit")
	ErrDeclarationsSkipped = errors.New("declarations skipped due to parse errors")
)

// General domain errors.
var (
	ErrInvalidInput = errors.New("invalid input")
)

// DeclarationError locates a single declaration that failed to parse.
type DeclarationError struct {
	Name       string
	ScopeIndex int
	Offset     int
	Token      string
	Err        error
}

// NewDeclarationError creates a DeclarationError wrapping cause.
func NewDeclarationError(name string, scopeIndex, offset int, token string, cause error) *DeclarationError {
	return &DeclarationError{
		Name:       name,
		ScopeIndex: scopeIndex,
		Offset:     offset,
		Token:      token,
		Err:        cause,
	}
}

func (e *DeclarationError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("fn %s (scope %d, offset %d): %v: %q", e.Name, e.ScopeIndex, e.Offset, e.Err, e.Token)
	}
	return fmt.Sprintf("fn %s (scope %d, offset %d): %v", e.Name, e.ScopeIndex, e.Offset, e.Err)
}

func (e *DeclarationError) Unwrap() error {
	return e.Err
}

// Reason returns the short cause text, used in reports.
func (e *DeclarationError) Reason() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

type declarationErrorJSON struct {
	Name       string `json:"name"`
	ScopeIndex int    `json:"scope_index"`
	Offset     int    `json:"offset"`
	Token      string `json:"token,omitempty"`
	Reason     string `json:"reason"`
}

// MarshalJSON encodes the error with its cause as a reason string.
func (e *DeclarationError) MarshalJSON() ([]byte, error) {
	return json.Marshal(declarationErrorJSON{
		Name:       e.Name,
		ScopeIndex: e.ScopeIndex,
		Offset:     e.Offset,
		Token:      e.Token,
		Reason:     e.Reason(),
	})
}

// UnmarshalJSON restores the error. Known reasons map back to their sentinel.
func (e *DeclarationError) UnmarshalJSON(data []byte) error {
	var raw declarationErrorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = DeclarationError{
		Name:       raw.Name,
		ScopeIndex: raw.ScopeIndex,
		Offset:     raw.Offset,
		Token:      raw.Token,
		Err:        reasonError(raw.Reason),
	}
	return nil
}

func reasonError(reason string) error {
	switch reason {
	case "":
		return nil
	case ErrMalformedSignature.Error():
		return ErrMalformedSignature
	case ErrUnresolvedReceiver.Error():
		return ErrUnresolvedReceiver
	default:
		return errors.New(reason)
	}
}
