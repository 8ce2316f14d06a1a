// Package extraction implements the ABI extraction engine: a tolerant scanner that
// turns contract source text into an ordered list of classified public functions.
//
// The pipeline runs strictly left to right:
//
//	Normalize -> Scopes -> Signatures -> ParseParams -> Classify -> Assemble
//
// Every stage is a pure function of its input. The only state carried between
// declarations, the pending attribute tag, lives in a local of a single
// Signatures scan, so an Engine can be shared by concurrent callers.
package extraction
