package recorder

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPrefix identifies the digest algorithm in hash strings.
const HashPrefix = "sha256:"

// HashContent computes the SHA-256 digest of content and returns it as
// "sha256:" followed by the lowercase hex encoding. The whole input is hashed
// with no truncation, so empty content yields the digest of zero bytes.
func HashContent(content []byte) string {
	hash := sha256.Sum256(content)
	return HashPrefix + hex.EncodeToString(hash[:])
}

// HashText is a convenience function that hashes the exact bytes of a string.
func HashText(text string) string {
	return HashContent([]byte(text))
}
