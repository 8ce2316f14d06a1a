package extraction

import (
	"fmt"
	"strings"

	domain "contractabi/internal/domain/errors/domain"
	"contractabi/internal/domain/valueobject"
)

// ParamOptions tunes parameter splitting.
type ParamOptions struct {
	// DepthAware splits on top-level commas only, so generic and tuple types
	// containing commas stay intact. The default is a plain comma split.
	DepthAware bool
}

// TokenError is returned by ParseParams and carries the offending parameter token.
type TokenError struct {
	Token string
	Err   error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Token)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// ParseParams turns raw parameter text, including its enclosing parentheses,
// into the receiver kind and the ordered name:type parameters.
//
// The receiver is only accepted as the first token and never appears in the
// returned list. A colon-less first token that is not a self form fails with
// domain.ErrUnresolvedReceiver. Tokens with more than one standalone colon,
// an empty name or an empty type fail with domain.ErrMalformedSignature.
// Colons that belong to a "::" path separator do not count.
func ParseParams(raw string, opts ParamOptions) (valueobject.Receiver, []valueobject.ContractParam, error) {
	content := strings.TrimSpace(raw)
	if strings.HasPrefix(content, "(") && strings.HasSuffix(content, ")") {
		content = content[1 : len(content)-1]
	}
	if strings.TrimSpace(content) == "" {
		return valueobject.ReceiverNone, nil, nil
	}

	var tokens []string
	if opts.DepthAware {
		tokens = splitTopLevel(content, ',')
	} else {
		tokens = strings.Split(content, ",")
	}

	receiver := valueobject.ReceiverNone
	var params []valueobject.ContractParam
	position := 0

	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		first := position == 0
		position++

		colon, colons := findColon(token)
		switch {
		case colons == 0:
			r, ok := parseSelf(token)
			switch {
			case ok && first:
				receiver = r
			case first:
				return receiver, nil, &TokenError{Token: token, Err: domain.ErrUnresolvedReceiver}
			default:
				return receiver, nil, &TokenError{Token: token, Err: domain.ErrMalformedSignature}
			}

		case colons > 1:
			return receiver, nil, &TokenError{Token: token, Err: domain.ErrMalformedSignature}

		default:
			name := strings.TrimSpace(token[:colon])
			typ := strings.TrimSpace(token[colon+1:])
			if name == "self" || name == "mut self" {
				if !first || typ == "" {
					return receiver, nil, &TokenError{Token: token, Err: domain.ErrMalformedSignature}
				}
				receiver = typedSelfReceiver(typ)
				continue
			}
			param, err := valueobject.NewContractParam(name, typ)
			if err != nil {
				return receiver, nil, &TokenError{Token: token, Err: domain.ErrMalformedSignature}
			}
			params = append(params, param)
		}
	}
	return receiver, params, nil
}

// findColon returns the index of the first standalone ':' and the number of
// standalone colons in token. "::" pairs are skipped.
func findColon(token string) (int, int) {
	first, count := -1, 0
	for i := 0; i < len(token); i++ {
		if token[i] != ':' {
			continue
		}
		if i+1 < len(token) && token[i+1] == ':' {
			i++
			continue
		}
		if first < 0 {
			first = i
		}
		count++
	}
	return first, count
}

// parseSelf recognizes self, mut self, &self, &mut self and their lifetime
// forms such as &'a mut self.
func parseSelf(token string) (valueobject.Receiver, bool) {
	fields := strings.Fields(token)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "&'") {
		fields[0] = "&"
	}
	norm := strings.ReplaceAll(strings.Join(fields, " "), "& ", "&")

	switch norm {
	case "&mut self":
		return valueobject.ReceiverMutable, true
	case "self", "mut self", "&self":
		return valueobject.ReceiverImmutable, true
	default:
		return valueobject.ReceiverNone, false
	}
}

func typedSelfReceiver(typ string) valueobject.Receiver {
	norm := strings.Join(strings.Fields(typ), " ")
	if strings.HasPrefix(norm, "&") && strings.Contains(norm, "mut ") {
		return valueobject.ReceiverMutable
	}
	return valueobject.ReceiverImmutable
}

// splitTopLevel splits s on sep occurrences that are not nested inside
// (), [], <> or {}.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', '[', '<', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case '>':
			if depth > 0 && (i == 0 || s[i-1] != '-') {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
