// Package fingerprint derives the posting uniqueness key from the
// posting's canonical link.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// HexLength is the length of a fingerprint string.
const HexLength = 64

// Hash returns the lowercase hex SHA-256 digest of the exact link string.
// No case folding or query-string stripping is applied: two links are the
// same posting only when they are byte-identical.
func Hash(link string) string {
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:])
}
