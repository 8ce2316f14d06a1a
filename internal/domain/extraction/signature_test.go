package extraction

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractabi/internal/domain/valueobject"
)

func signaturesOf(text string) []valueobject.RawSignature {
	var out []valueobject.RawSignature
	for scope := range Scopes(text) {
		out = append(out, slices.Collect(Signatures(scope))...)
	}
	return out
}

func TestSignatures_Captures(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantName   string
		wantParams string
		wantReturn string
		wantTag    valueobject.AttributeTag
		wantPublic bool
	}{
		{
			name:       "plain public method",
			text:       "impl C { pub fn get(&self) -> u8 { 1 } }",
			wantName:   "get",
			wantParams: "(&self)",
			wantReturn: "u8",
			wantPublic: true,
		},
		{
			name:       "no return type and no space before body",
			text:       "impl C { pub fn sponsor(&mut self){ } }",
			wantName:   "sponsor",
			wantParams: "(&mut self)",
			wantPublic: true,
		},
		{
			name:       "tag directly before declaration",
			text:       "impl C { #[payable] pub fn gamble(&mut self) -> u8{ 0 } }",
			wantName:   "gamble",
			wantParams: "(&mut self)",
			wantReturn: "u8",
			wantTag:    valueobject.TagPayable,
			wantPublic: true,
		},
		{
			name:       "nested parentheses in parameters",
			text:       "impl C { pub fn pair(&self, p: (u8, (u16, u32))) {} }",
			wantName:   "pair",
			wantParams: "(&self, p: (u8, (u16, u32)))",
			wantPublic: true,
		},
		{
			name:       "generic return type is captured whole",
			text:       "impl C { pub fn list(&self) -> Vec<Option<String>> { vec![] } }",
			wantName:   "list",
			wantParams: "(&self)",
			wantReturn: "Vec<Option<String>>",
			wantPublic: true,
		},
		{
			name:       "return type stops at where clause",
			text:       "impl C { pub fn conv<T>(&self, t: T) -> T where T: Copy { t } }",
			wantName:   "conv",
			wantParams: "(&self, t: T)",
			wantReturn: "T",
			wantPublic: true,
		},
		{
			name:       "closure return type keeps its arrow",
			text:       "impl C { pub fn maker(&self) -> Box<dyn Fn(u8) -> u8> { todo!() } }",
			wantName:   "maker",
			wantParams: "(&self)",
			wantReturn: "Box<dyn Fn(u8) -> u8>",
			wantPublic: true,
		},
		{
			name:       "qualifiers between pub and fn",
			text:       "impl C { pub const fn limit() -> u32 { 5 } }",
			wantName:   "limit",
			wantParams: "()",
			wantReturn: "u32",
			wantPublic: true,
		},
		{
			name:       "tagged non-public declaration is surfaced",
			text:       "impl C { #[private] fn update_price(&mut self){ } }",
			wantName:   "update_price",
			wantParams: "(&mut self)",
			wantTag:    valueobject.TagPrivate,
			wantPublic: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sigs := signaturesOf(tt.text)
			require.Len(t, sigs, 1)
			sig := sigs[0]
			assert.Equal(t, tt.wantName, sig.Name)
			assert.Equal(t, tt.wantParams, sig.Params)
			assert.Equal(t, tt.wantReturn, sig.ReturnType)
			assert.Equal(t, tt.wantTag, sig.Tag)
			assert.Equal(t, tt.wantPublic, sig.Public)
		})
	}
}

func TestSignatures_Skips(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "untagged private helper", text: "impl C { fn helper(&self) {} }"},
		{name: "restricted visibility", text: "impl C { pub(crate) fn helper(&self) {} }"},
		{name: "pub struct field", text: "struct S { pub value: u8 }"},
		{name: "identifier containing pub", text: "impl C { republish fn_like(x) }"},
		{name: "declaration without parameter list", text: "impl C { pub fn broken -> u8 }"},
		{name: "unbalanced parameter list", text: "impl C { pub fn broken(&self }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, signaturesOf(tt.text))
		})
	}
}

func TestSignatures_TagPropagation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []valueobject.AttributeTag
	}{
		{
			name: "tag is consumed by the first declaration only",
			text: "impl C { #[init] pub fn new() -> Self {} pub fn get(&self) {} }",
			want: []valueobject.AttributeTag{valueobject.TagInit, valueobject.TagNone},
		},
		{
			name: "most recent attribute wins",
			text: "impl C { #[init] #[payable] pub fn f(&mut self) {} }",
			want: []valueobject.AttributeTag{valueobject.TagPayable},
		},
		{
			name: "unrecognized attribute replaces pending tag",
			text: "impl C { #[payable] #[handle_result] pub fn f(&mut self) {} }",
			want: []valueobject.AttributeTag{valueobject.TagNone},
		},
		{
			name: "attribute with arguments replaces pending tag",
			text: "impl C { #[init] #[cfg(feature = \"x\")] pub fn f() {} }",
			want: []valueobject.AttributeTag{valueobject.TagNone},
		},
		{
			name: "tag before a non-function item is dropped",
			text: "mod m { #[init] const X: u8 = 1; pub fn f(&self) {} }",
			want: []valueobject.AttributeTag{valueobject.TagNone},
		},
		{
			name: "tag survives whitespace only",
			text: "impl C { #[payable]     pub fn f(&mut self) {} }",
			want: []valueobject.AttributeTag{valueobject.TagPayable},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sigs := signaturesOf(tt.text)
			got := make([]valueobject.AttributeTag, 0, len(sigs))
			for _, s := range sigs {
				got = append(got, s.Tag)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignatures_Offsets(t *testing.T) {
	text := "impl A { pub fn a(&self) {} } impl B { pub fn b(&self) {} }"
	sigs := signaturesOf(text)
	require.Len(t, sigs, 2)

	assert.Equal(t, 0, sigs[0].ScopeIndex)
	assert.Equal(t, 1, sigs[1].ScopeIndex)
	assert.Equal(t, "pub fn a", text[sigs[0].Offset:sigs[0].Offset+len("pub fn a")])
	assert.Equal(t, "pub fn b", text[sigs[1].Offset:sigs[1].Offset+len("pub fn b")])
}
