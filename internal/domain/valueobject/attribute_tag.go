package valueobject

// AttributeTag is a decorator marker seen immediately before a function declaration,
// e.g. #[payable]. The zero value means no tag is pending.
type AttributeTag int

// Attribute tag constants.
const (
	TagNone AttributeTag = iota
	TagInit
	TagPrivate
	TagPayable
)

var attributeTagNames = map[string]AttributeTag{
	"init":    TagInit,
	"private": TagPrivate,
	"payable": TagPayable,
}

// ParseAttributeTag maps the identifier inside #[...] to a tag.
// Unrecognized identifiers yield TagNone.
func ParseAttributeTag(ident string) AttributeTag {
	return attributeTagNames[ident]
}

// String returns the attribute identifier, or "none".
func (t AttributeTag) String() string {
	switch t {
	case TagInit:
		return "init"
	case TagPrivate:
		return "private"
	case TagPayable:
		return "payable"
	default:
		return "none"
	}
}

// IsSet reports whether a tag is pending.
func (t AttributeTag) IsSet() bool {
	return t != TagNone
}
