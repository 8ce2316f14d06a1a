package extraction

import (
	"errors"
	"fmt"
	"iter"

	domain "contractabi/internal/domain/errors/domain"
	"contractabi/internal/domain/valueobject"
)

// Outcome is the per-declaration result of the engine: either a function or the
// error that prevented building it.
type Outcome struct {
	Signature valueobject.RawSignature
	Function  valueobject.ContractFunction
	Err       *domain.DeclarationError
}

// OK reports whether the declaration produced a function.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Result is the assembled ABI plus everything that was left out of it.
type Result struct {
	// Functions is the ABI: exported functions in discovery order.
	Functions []valueobject.ContractFunction
	// Private holds functions classified PRIVATE, kept for reporting only.
	Private []valueobject.ContractFunction
	// Failures holds declarations skipped because they could not be parsed.
	Failures []*domain.DeclarationError
}

// Assemble collects outcomes in order, filters private functions out of the ABI
// and records failures. Duplicates are neither removed nor detected.
func Assemble(outcomes iter.Seq[Outcome]) Result {
	var r Result
	for o := range outcomes {
		switch {
		case !o.OK():
			r.Failures = append(r.Failures, o.Err)
		case o.Function.FnType().IsExported():
			r.Functions = append(r.Functions, o.Function)
		default:
			r.Private = append(r.Private, o.Function)
		}
	}
	return r
}

// Summary renders the counts the way the CLI reports them.
func (r Result) Summary() string {
	return fmt.Sprintf("%d functions extracted, %d private, %d skipped due to parse errors",
		len(r.Functions), len(r.Private), len(r.Failures))
}

// Err returns nil when nothing was skipped, otherwise an error that matches
// domain.ErrDeclarationsSkipped and every individual failure.
func (r Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures)+1)
	errs = append(errs, domain.ErrDeclarationsSkipped)
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}
