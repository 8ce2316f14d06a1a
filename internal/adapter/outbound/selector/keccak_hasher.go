// Package selector derives function selectors and ABI digests with Keccak-256.
package selector

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// selectorLength is the number of hash bytes kept for a function selector.
const selectorLength = 4

// KeccakHasher implements outbound.SignatureHasher.
type KeccakHasher struct{}

// NewKeccakHasher creates a KeccakHasher.
func NewKeccakHasher() *KeccakHasher {
	return &KeccakHasher{}
}

// Selector returns the first four bytes of keccak256(signature), hex encoded with a 0x prefix.
func (h *KeccakHasher) Selector(signature string) string {
	return hexutil.Encode(crypto.Keccak256([]byte(signature))[:selectorLength])
}

// Digest returns keccak256(data), hex encoded with a 0x prefix.
func (h *KeccakHasher) Digest(data []byte) string {
	return crypto.Keccak256Hash(data).Hex()
}
