package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
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

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Short returns the first 12 hex characters, for logs
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// Fingerprinter accumulates ordered fields into a single hash.
// Field boundaries are length-prefixed so ("ab","c") and ("a","bc") differ.
type Fingerprinter struct {
	b strings.Builder
}

// Field appends one value
func (f *Fingerprinter) Field(v string) *Fingerprinter {
	f.b.WriteString(strconv.Itoa(len(v)))
	f.b.WriteByte(':')
	f.b.WriteString(v)
	return f
}

// SortedSet appends a set of strings independent of their order
func (f *Fingerprinter) SortedSet(values []string) *Fingerprinter {
	c := append([]string(nil), values...)
	sort.Strings(c)
	f.Field(strconv.Itoa(len(c)))
	for _, v := range c {
		f.Field(v)
	}
	return f
}

// Sum returns the accumulated hash
func (f *Fingerprinter) Sum() Hash {
	return NewHash([]byte(f.b.String()))
}
