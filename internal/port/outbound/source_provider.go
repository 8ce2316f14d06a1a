package outbound

import "context"

// StdinSourceName selects standard input instead of a file.
const StdinSourceName = "-"

// Source is contract source text and the name it was read from.
type Source struct {
	Name string
	Text string
}

// SourceProvider defines the outbound port for reading contract sources.
type SourceProvider interface {
	// Read loads one source. StdinSourceName reads standard input.
	Read(ctx context.Context, name string) (Source, error)
	// List returns the sources under root whose base name matches pattern, sorted.
	List(ctx context.Context, root, pattern string) ([]string, error)
}
