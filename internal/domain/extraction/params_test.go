package extraction

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "contractabi/internal/domain/errors/domain"
	"contractabi/internal/domain/valueobject"
)

type wantParam struct {
	name string
	typ  string
}

func paramPairs(params []valueobject.ContractParam) []wantParam {
	out := make([]wantParam, 0, len(params))
	for _, p := range params {
		out = append(out, wantParam{name: p.Name(), typ: p.Type()})
	}
	return out
}

func TestParseParams_Valid(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		opts         ParamOptions
		wantReceiver valueobject.Receiver
		wantParams   []wantParam
	}{
		{name: "empty list", raw: "()", wantReceiver: valueobject.ReceiverNone, wantParams: []wantParam{}},
		{name: "whitespace only", raw: "(   )", wantReceiver: valueobject.ReceiverNone, wantParams: []wantParam{}},
		{name: "shared self", raw: "(&self)", wantReceiver: valueobject.ReceiverImmutable, wantParams: []wantParam{}},
		{name: "mutable self", raw: "(&mut self)", wantReceiver: valueobject.ReceiverMutable, wantParams: []wantParam{}},
		{name: "owned self", raw: "(self)", wantReceiver: valueobject.ReceiverImmutable, wantParams: []wantParam{}},
		{name: "owned mut self", raw: "(mut self)", wantReceiver: valueobject.ReceiverImmutable, wantParams: []wantParam{}},
		{name: "spaced reference", raw: "(& mut self)", wantReceiver: valueobject.ReceiverMutable, wantParams: []wantParam{}},
		{name: "lifetime mutable self", raw: "(&'a mut self)", wantReceiver: valueobject.ReceiverMutable, wantParams: []wantParam{}},
		{name: "lifetime shared self", raw: "(&'a self)", wantReceiver: valueobject.ReceiverImmutable, wantParams: []wantParam{}},
		{name: "typed mutable self", raw: "(self: &mut Self)", wantReceiver: valueobject.ReceiverMutable, wantParams: []wantParam{}},
		{name: "typed owned self", raw: "(self: Box<Self>)", wantReceiver: valueobject.ReceiverImmutable, wantParams: []wantParam{}},
		{
			name:         "receiver and parameters",
			raw:          "(&mut self, to: AccountId, amount: U128)",
			wantReceiver: valueobject.ReceiverMutable,
			wantParams:   []wantParam{{"to", "AccountId"}, {"amount", "U128"}},
		},
		{
			name:         "no receiver",
			raw:          "(owner_id: AccountId)",
			wantReceiver: valueobject.ReceiverNone,
			wantParams:   []wantParam{{"owner_id", "AccountId"}},
		},
		{
			name:         "path separators do not count as colons",
			raw:          "(&self, id: near_sdk::AccountId)",
			wantReceiver: valueobject.ReceiverImmutable,
			wantParams:   []wantParam{{"id", "near_sdk::AccountId"}},
		},
		{
			name:         "trailing comma",
			raw:          "(&self, a: u8,)",
			wantReceiver: valueobject.ReceiverImmutable,
			wantParams:   []wantParam{{"a", "u8"}},
		},
		{
			name:         "mut binding keeps its prefix",
			raw:          "(mut v: Vec<u8>)",
			wantReceiver: valueobject.ReceiverNone,
			wantParams:   []wantParam{{"mut v", "Vec<u8>"}},
		},
		{
			name:         "depth aware split keeps generics whole",
			raw:          "(&self, m: HashMap<String, u64>, t: (u8, u16))",
			opts:         ParamOptions{DepthAware: true},
			wantReceiver: valueobject.ReceiverImmutable,
			wantParams:   []wantParam{{"m", "HashMap<String, u64>"}, {"t", "(u8, u16)"}},
		},
		{
			name:         "depth aware split ignores closure arrows",
			raw:          "(f: Box<dyn Fn(u8, u8) -> u8>, n: u8)",
			opts:         ParamOptions{DepthAware: true},
			wantReceiver: valueobject.ReceiverNone,
			wantParams:   []wantParam{{"f", "Box<dyn Fn(u8, u8) -> u8>"}, {"n", "u8"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			receiver, params, err := ParseParams(tt.raw, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantReceiver, receiver)
			assert.Equal(t, tt.wantParams, paramPairs(params))
		})
	}
}

func TestParseParams_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		opts      ParamOptions
		wantErr   error
		wantToken string
	}{
		{
			name:      "first token is neither self nor name:type",
			raw:       "(this)",
			wantErr:   domain.ErrUnresolvedReceiver,
			wantToken: "this",
		},
		{
			name:      "colon-less token after the first",
			raw:       "(&self, amount)",
			wantErr:   domain.ErrMalformedSignature,
			wantToken: "amount",
		},
		{
			name:      "self in second position",
			raw:       "(a: u8, &self)",
			wantErr:   domain.ErrMalformedSignature,
			wantToken: "&self",
		},
		{
			name:      "several standalone colons",
			raw:       "(&self, a: b: c)",
			wantErr:   domain.ErrMalformedSignature,
			wantToken: "a: b: c",
		},
		{
			name:      "empty type",
			raw:       "(&self, a:)",
			wantErr:   domain.ErrMalformedSignature,
			wantToken: "a:",
		},
		{
			name:      "empty name",
			raw:       "(: u8)",
			wantErr:   domain.ErrMalformedSignature,
			wantToken: ": u8",
		},
		{
			name:      "generic comma splits by default",
			raw:       "(&self, m: HashMap<String, u64>)",
			wantErr:   domain.ErrMalformedSignature,
			wantToken: "u64>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseParams(tt.raw, tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var tokenErr *TokenError
			require.True(t, errors.As(err, &tokenErr))
			assert.Equal(t, tt.wantToken, tokenErr.Token)
		})
	}
}

func TestParseParams_ReceiverNeverListed(t *testing.T) {
	_, params, err := ParseParams("(&mut self, a: u8)", ParamOptions{})
	require.NoError(t, err)
	for _, p := range params {
		assert.NotContains(t, p.Name(), "self")
	}
}
