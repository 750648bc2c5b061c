package security_test

import (
	"strings"
	"testing"

	"github.com/atriumhq/atrium-backend/pkg/config"
	"github.com/atriumhq/atrium-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := testPasswordConfig()

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}
	if strings.Contains(hash, "very-secure-password") {
		t.Fatal("hash must not embed the plaintext password")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestScrambledHashNeverVerifiesAgainstKnownInputs(t *testing.T) {
	cfg := testPasswordConfig()

	hash, err := security.ScrambledHash(cfg)
	if err != nil {
		t.Fatalf("ScrambledHash returned error: %v", err)
	}

	for _, guess := range []string{"", "password", "anonymized"} {
		ok, err := security.VerifyPassword(guess, hash)
		if guess == "" {
			continue
		}
		if err != nil {
			t.Fatalf("VerifyPassword returned error: %v", err)
		}
		if ok {
			t.Fatalf("scrambled hash verified against %q", guess)
		}
	}
}
