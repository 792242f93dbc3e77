package model

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Digest computes a deterministic checksum of the state. encoding/json sorts map
// keys, so two equal states always hash to the same value.
func (s GameState) Digest() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// MustDigest is Digest for tests and logging; it panics on marshal failure.
func (s GameState) MustDigest() string {
	d, err := s.Digest()
	if err != nil {
		panic(err)
	}
	return d
}
