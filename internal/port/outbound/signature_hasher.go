package outbound

// SignatureHasher computes function selectors and ABI digests.
type SignatureHasher interface {
	// Selector returns the 0x-prefixed 4-byte selector of a canonical signature such as get(u8).
	Selector(signature string) string
	// Digest returns the 0x-prefixed hash of data.
	Digest(data []byte) string
}
