package extraction

import (
	"errors"
	"fmt"
	"iter"

	domain "contractabi/internal/domain/errors/domain"
	"contractabi/internal/domain/valueobject"
)

// Options configures an Engine.
type Options struct {
	Params ParamOptions
}

// Engine runs the extraction pipeline. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	opts Options
}

// NewEngine creates an Engine with the given options.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// ExtractABI runs a default Engine over source.
func ExtractABI(source string) Result {
	return NewEngine(Options{}).Extract(source)
}

// Extract normalizes source and assembles the ABI. A malformed declaration is
// recorded in Result.Failures and never stops the remaining declarations.
func (e *Engine) Extract(source string) Result {
	return Assemble(e.Declarations(source))
}

// Declarations yields one Outcome per recognized declaration, across all scopes
// in discovery order. Private functions are included.
func (e *Engine) Declarations(source string) iter.Seq[Outcome] {
	text := Normalize(source)
	return func(yield func(Outcome) bool) {
		for scope := range Scopes(text) {
			for sig := range Signatures(scope) {
				if !yield(e.build(sig)) {
					return
				}
			}
		}
	}
}

func (e *Engine) build(sig valueobject.RawSignature) Outcome {
	receiver, params, err := ParseParams(sig.Params, e.opts.Params)
	if err != nil {
		return Outcome{Signature: sig, Err: declarationError(sig, err)}
	}

	tag := sig.Tag
	if !sig.Public {
		tag = valueobject.TagPrivate
	}

	fn, err := valueobject.NewContractFunction(sig.Name, sig.ReturnType, params, Classify(tag, receiver))
	if err != nil {
		return Outcome{Signature: sig, Err: domain.NewDeclarationError(
			sig.Name, sig.ScopeIndex, sig.Offset, "", fmt.Errorf("%w: %v", domain.ErrMalformedSignature, err),
		)}
	}
	return Outcome{Signature: sig, Function: fn}
}

func declarationError(sig valueobject.RawSignature, err error) *domain.DeclarationError {
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		return domain.NewDeclarationError(sig.Name, sig.ScopeIndex, sig.Offset, tokenErr.Token, tokenErr.Err)
	}
	return domain.NewDeclarationError(sig.Name, sig.ScopeIndex, sig.Offset, "", err)
}
