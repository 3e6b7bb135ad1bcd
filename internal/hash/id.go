// Package hash computes the 64-bit identities of discriminator keys.
package hash

import "github.com/cespare/xxhash/v2"

// Key returns the xxHash64 of a canonical key.
func Key(canonical string) uint64 {
	return xxhash.Sum64String(canonical)
}
