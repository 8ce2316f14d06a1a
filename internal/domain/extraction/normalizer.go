package extraction

import "strings"

// Normalize removes comments from source and collapses it into one line.
//
// Line comments run from "//" to the end of the line. Block comments run from
// "/*" to the next "*/" and do not nest; an unterminated block comment drops the
// rest of the input. Comment markers inside string literals are not recognized
// as such, which is a known limitation.
//
// After comment removal each line is trimmed, empty lines are dropped and the
// remaining lines are joined with a single space.
func Normalize(source string) string {
	stripped := stripComments(source)

	lines := strings.Split(stripped, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, " ")
}

func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	for i := 0; i < len(src); {
		if src[i] == '/' && i+1 < len(src) {
			switch src[i+1] {
			case '/':
				nl := strings.IndexByte(src[i:], '\n')
				if nl < 0 {
					return b.String()
				}
				// keep the newline so the next line stays separate
				i += nl
				continue
			case '*':
				end := strings.Index(src[i+2:], "*/")
				if end < 0 {
					return b.String()
				}
				b.WriteByte(' ')
				i += 2 + end + 2
				continue
			}
		}
		b.WriteByte(src[i])
		i++
	}
	return b.String()
}
