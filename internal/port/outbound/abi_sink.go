package outbound

import (
	"context"

	"contractabi/internal/application/dto"
)

// ABISink defines the outbound port for writing an extracted ABI list.
type ABISink interface {
	WriteABI(ctx context.Context, functions []dto.FunctionDTO) error
}

// ABISinkFactory opens a sink for a named destination. "" or "-" means standard output.
type ABISinkFactory interface {
	Open(destination string) (ABISink, error)
	// Extension is the file suffix for the factory's format, such as ".abi.json".
	Extension() string
}
