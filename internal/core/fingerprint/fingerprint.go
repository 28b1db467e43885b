// Package fingerprint derives the content identity used as the result cache key.
// Identity depends only on the bytes: file names, sizes and timestamps play no part.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Size is the length of a fingerprint in hex characters
const Size = sha256.Size * 2

// Of returns the hex encoded SHA-256 of b
func Of(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// FromReader streams r to the end and returns its fingerprint
func FromReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("fingerprint read: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FromFile fingerprints the full content of the file at path
func FromFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fingerprint open: %w", err)
	}
	defer f.Close()
	return FromReader(f)
}

// Valid reports whether s looks like a fingerprint produced by this package
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
