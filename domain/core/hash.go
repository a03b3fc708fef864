package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 hex characters, enough for display
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// SchemaHash fingerprints an ordered list of column name/type pairs.
// Order matters: the same columns in a different order hash differently.
func SchemaHash(columns []string, types []string) Hash {
	var b strings.Builder
	for i, name := range columns {
		b.WriteString(name)
		b.WriteByte(0)
		if i < len(types) {
			b.WriteString(types[i])
		}
		b.WriteByte('\n')
	}
	return NewHash([]byte(b.String()))
}
