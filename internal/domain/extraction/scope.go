package extraction

import (
	"iter"
	"strings"

	"contractabi/internal/domain/valueobject"
)

// Scopes yields the outermost balanced {...} regions of normalized text, left to right.
//
// Each '{' is tried as the start of a region. When it closes, the region is
// yielded and scanning resumes after it, so nested regions are never yielded on
// their own. When it does not close before the end of text, scanning resumes at
// the next character and an inner '{' may still start a balanced region. Stray
// '}' characters are skipped. The sequence is finite and can be ranged over any
// number of times.
func Scopes(text string) iter.Seq[valueobject.Scope] {
	return func(yield func(valueobject.Scope) bool) {
		index := 0
		for i := 0; i < len(text); {
			open := strings.IndexByte(text[i:], '{')
			if open < 0 {
				return
			}
			start := i + open
			end := matchBalanced(text, start, '{', '}')
			if end < 0 {
				i = start + 1
				continue
			}
			scope := valueobject.Scope{
				Index: index,
				Start: start,
				End:   end,
				Text:  text[start:end],
			}
			if !yield(scope) {
				return
			}
			index++
			i = end
		}
	}
}
