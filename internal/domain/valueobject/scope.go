package valueobject

// Scope is a balanced {...} region of normalized source text.
type Scope struct {
	// Index is the discovery order of the scope, starting at 0.
	Index int
	// Start and End are byte offsets into the normalized text; End is exclusive.
	Start int
	End   int
	Text  string
}

// Len returns the scope length in bytes.
func (s Scope) Len() int {
	return s.End - s.Start
}

// RawSignature is a function declaration captured before its parameters are parsed.
type RawSignature struct {
	Name string
	// Params is the parameter text including its enclosing parentheses.
	Params string
	// ReturnType is empty when the declaration has no explicit return value.
	ReturnType string
	// Tag is the attribute that was pending when the declaration was reached.
	Tag AttributeTag
	// Public is false for declarations without an unrestricted pub marker.
	Public bool
	// ScopeIndex and Offset locate the declaration in the normalized text.
	ScopeIndex int
	Offset     int
}
