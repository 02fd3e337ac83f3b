package shortener

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// EncodedLength is the length of a full URL encoding (SHA-256, unpadded base64)
const EncodedLength = 43

// Encoder derives short IDs from a hash of the destination URL
type Encoder struct {
	minLength int
}

// NewEncoder creates an encoder producing short IDs of at least cfg.MinLength characters
func NewEncoder(cfg Config) (*Encoder, error) {
	if cfg.MinLength < 1 || cfg.MinLength > EncodedLength {
		return nil, fmt.Errorf("short ID min length must be between 1 and %d, got: %d", EncodedLength, cfg.MinLength)
	}
	return &Encoder{minLength: cfg.MinLength}, nil
}

// Encode hashes url and returns the digest in the URL-safe base64 alphabet
// ('-' and '_' in place of '+' and '/') without padding
func (e *Encoder) Encode(url string) string {
	sum := sha256.Sum256([]byte(url))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Candidate returns the minimum-length prefix of encoding
func (e *Encoder) Candidate(encoding string) string {
	return prefix(encoding, e.minLength)
}

// MinLength returns the configured minimum short ID length
func (e *Encoder) MinLength() int {
	return e.minLength
}

// Pick chooses the short ID for encoding given the short IDs that already share its
// candidate prefix. The length starts at the longest colliding ID and grows one
// character at a time until the prefix is not taken.
func (e *Encoder) Pick(encoding string, colliding []string) (string, error) {
	length := e.minLength
	taken := make(map[string]struct{}, len(colliding))
	for _, id := range colliding {
		taken[id] = struct{}{}
		if len(id) > length {
			length = len(id)
		}
	}

	for ; length <= len(encoding); length++ {
		candidate := encoding[:length]
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}

	return "", ErrExhausted
}

func prefix(s string, n int) string {
	if n >= len(s) {
		return s
	}
	return s[:n]
}
