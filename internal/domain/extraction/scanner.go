package extraction

// Low-level helpers shared by the scope, signature and parameter scanners.

// matchBalanced returns the index just past the delimiter that closes text[start],
// or -1 when the region is not balanced before the end of text. text[start] must
// be the opening delimiter.
func matchBalanced(text string, start int, open, closing byte) int {
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func skipSpace(text string, i int) int {
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	return i
}

// readWord returns the identifier starting at i and the index after it.
// It returns "" when text[i] does not start an identifier.
func readWord(text string, i int) (string, int) {
	if i >= len(text) || !isIdentStart(text[i]) {
		return "", i
	}
	j := i + 1
	for j < len(text) && isIdentChar(text[j]) {
		j++
	}
	return text[i:j], j
}

// atWordBoundary reports whether position i is not preceded by an identifier character.
func atWordBoundary(text string, i int) bool {
	return i == 0 || !isIdentChar(text[i-1])
}
