package usecase

import (
	"strings"
	"testing"
)

func TestGenerateSecureCode(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := generateSecureCode()
		if err != nil {
			t.Fatalf("generateSecureCode: %v", err)
		}
		if len(code) != codeLength {
			t.Fatalf("expected length %d, got %q", codeLength, code)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		seen[code] = true
	}
	// 200 draws from 36^8 combinations colliding would point at a broken
	// random source.
	if len(seen) != 200 {
		t.Fatalf("expected 200 distinct codes, got %d", len(seen))
	}
}
