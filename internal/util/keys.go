package util

import (
	"crypto/sha256"
	"fmt"
)

// MemoKey returns the storage key for one memo entry. Raw identifiers are
// hashed so arbitrary-length (and arbitrary-content) EPC strings stay within
// provider key limits.
func MemoKey(prefix, id string) string {
	sum := sha256.Sum256([]byte(id))
	return fmt.Sprintf("%s:%x", prefix, sum[:8])
}
