package extraction

import (
	"iter"
	"strings"

	"contractabi/internal/domain/valueobject"
)

// Signatures yields the function declarations found in one scope, in source order.
//
// The scope is read as a stream of attributes, declarations and other tokens.
// An attribute #[ident] makes its tag pending; any attribute replaces the
// previous one, and unrecognized attributes leave no tag pending. The next
// declaration consumes the pending tag. Any other token clears it.
//
// Public declarations are always yielded. Non-public ones (plain fn or a
// restricted pub(...) fn) are yielded only when a tag was pending, so they can
// be reported and then excluded as private.
func Signatures(scope valueobject.Scope) iter.Seq[valueobject.RawSignature] {
	return func(yield func(valueobject.RawSignature) bool) {
		text := scope.Text
		pending := valueobject.TagNone

		for i := 0; i < len(text); {
			c := text[i]
			switch {
			case isSpace(c):
				i++

			case c == '#' && i+1 < len(text) && text[i+1] == '[':
				end := matchBalanced(text, i+1, '[', ']')
				if end < 0 {
					pending = valueobject.TagNone
					i++
					continue
				}
				pending = valueobject.ParseAttributeTag(strings.TrimSpace(text[i+2 : end-1]))
				i = end

			case isIdentStart(c) && atWordBoundary(text, i):
				word, wordEnd := readWord(text, i)
				if isDeclarationStart(word) {
					if sig, end, ok := parseDeclaration(text, i); ok {
						if sig.Public || pending.IsSet() {
							sig.Tag = pending
							sig.ScopeIndex = scope.Index
							sig.Offset = scope.Start + i
							if !yield(sig) {
								return
							}
						}
						pending = valueobject.TagNone
						i = end
						continue
					}
				}
				pending = valueobject.TagNone
				i = wordEnd

			default:
				pending = valueobject.TagNone
				i++
			}
		}
	}
}

var declarationQualifiers = map[string]bool{
	"const":  true,
	"async":  true,
	"unsafe": true,
}

func isDeclarationStart(word string) bool {
	return word == "pub" || word == "fn" || declarationQualifiers[word]
}

// parseDeclaration reads
//
//	[pub | pub(...)] {const|async|unsafe} fn name [<...>] (...) [-> type]
//
// starting at i. It returns the captured signature and the index just after it.
func parseDeclaration(text string, i int) (valueobject.RawSignature, int, bool) {
	var sig valueobject.RawSignature

	word, next := readWord(text, i)
	if word == "pub" {
		j := skipSpace(text, next)
		if j < len(text) && text[j] == '(' {
			end := matchBalanced(text, j, '(', ')')
			if end < 0 {
				return sig, 0, false
			}
			next = end
		} else {
			sig.Public = true
		}
		word, next = readWord(text, skipSpace(text, next))
	}
	for declarationQualifiers[word] {
		word, next = readWord(text, skipSpace(text, next))
	}
	if word != "fn" {
		return sig, 0, false
	}

	name, next := readWord(text, skipSpace(text, next))
	if name == "" {
		return sig, 0, false
	}
	sig.Name = name

	i = skipSpace(text, next)
	if i < len(text) && text[i] == '<' {
		end := matchBalanced(text, i, '<', '>')
		if end < 0 {
			return sig, 0, false
		}
		i = skipSpace(text, end)
	}
	if i >= len(text) || text[i] != '(' {
		return sig, 0, false
	}
	end := matchBalanced(text, i, '(', ')')
	if end < 0 {
		return sig, 0, false
	}
	sig.Params = text[i:end]

	i = end
	if j := skipSpace(text, i); strings.HasPrefix(text[j:], "->") {
		sig.ReturnType, i = readReturnType(text, j+2)
	}
	return sig, i, true
}

// readReturnType captures the type expression after "->" up to the body, a
// terminating ';' or a where clause, with whitespace runs collapsed.
func readReturnType(text string, i int) (string, int) {
	start := skipSpace(text, i)
	depth := 0
	j := start
scan:
	for j < len(text) {
		c := text[j]
		switch {
		case c == '>' && j > start && text[j-1] == '-':
			// nested "->" inside a closure or fn pointer type
		case c == '<' || c == '(' || c == '[':
			depth++
		case c == '>' || c == ')' || c == ']':
			if depth == 0 {
				break scan
			}
			depth--
		case depth == 0 && (c == '{' || c == ';'):
			break scan
		case depth == 0 && c == 'w' && atWordBoundary(text, j):
			if word, _ := readWord(text, j); word == "where" {
				break scan
			}
		}
		j++
	}
	return strings.Join(strings.Fields(text[start:j]), " "), j
}
