package extraction

import "contractabi/internal/domain/valueobject"

// Classify assigns the semantic role of a function. A pending tag always wins
// over what the receiver implies, including #[init] on a &mut self method.
//
//	tag      receiver   result
//	init     any        INIT
//	payable  any        PAYABLE
//	private  any        PRIVATE
//	none     &mut self  WRITE
//	none     self/&self READ
//	none     none       UNKNOWN
func Classify(tag valueobject.AttributeTag, receiver valueobject.Receiver) valueobject.FunctionType {
	switch tag {
	case valueobject.TagInit:
		return valueobject.FunctionTypeInit
	case valueobject.TagPayable:
		return valueobject.FunctionTypePayable
	case valueobject.TagPrivate:
		return valueobject.FunctionTypePrivate
	}

	switch receiver {
	case valueobject.ReceiverMutable:
		return valueobject.FunctionTypeWrite
	case valueobject.ReceiverImmutable:
		return valueobject.FunctionTypeRead
	default:
		return valueobject.FunctionTypeUnknown
	}
}
