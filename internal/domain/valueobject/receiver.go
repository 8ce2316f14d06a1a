package valueobject

// Receiver describes the self parameter of a member function.
type Receiver int

// Receiver constants.
const (
	// ReceiverNone means the function takes no self parameter.
	ReceiverNone Receiver = iota
	// ReceiverImmutable covers self, &self and mut self.
	ReceiverImmutable
	// ReceiverMutable covers &mut self.
	ReceiverMutable
)

// String returns a readable name.
func (r Receiver) String() string {
	switch r {
	case ReceiverImmutable:
		return "immutable"
	case ReceiverMutable:
		return "mutable"
	default:
		return "none"
	}
}
