package usecase

import (
	"crypto/rand"
	"io"
)

// The code alphabet and length match what the streaming client accepts.
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8
)

// generateSecureCode creates a random 8-character access code drawn uniformly
// from codeAlphabet. Rejection sampling keeps the distribution unbiased:
// bytes at or above the largest multiple of the alphabet size are discarded.
func generateSecureCode() (string, error) {
	const maxAccept = 252 // 7 * len(codeAlphabet)

	out := make([]byte, 0, codeLength)
	buf := make([]byte, 2*codeLength)
	for len(out) < codeLength {
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= maxAccept {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == codeLength {
				break
			}
		}
	}
	return string(out), nil
}
