// Package schemaid derives an opaque 64-bit schema_id from a human-readable
// descriptor string, so callers of mmqf don't have to invent their own
// numbering scheme for the field mmqf stores and compares but never
// interprets.
package schemaid

import "github.com/cespare/xxhash/v2"

// FromString hashes descriptor (e.g. "orders/v3") into the 64-bit value to
// pass as Options.SchemaID. Two calls with the same descriptor always
// produce the same id; this is a convenience only — mmqf's core only ever
// compares schema_id for equality, never derives it.
func FromString(descriptor string) uint64 {
	return xxhash.Sum64String(descriptor)
}
