package utils_test

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/tbnobed/obview/internal/utils"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := utils.HashPassword("correct-horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct-horse" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !utils.VerifyPassword(hash, "correct-horse") {
		t.Fatal("expected matching password to verify")
	}
	if utils.VerifyPassword(hash, "wrong-horse") {
		t.Fatal("expected mismatch to fail")
	}
	if utils.VerifyPassword("not-a-hash", "correct-horse") {
		t.Fatal("expected malformed hash to fail")
	}
}

func TestPasswordHashesAreSalted(t *testing.T) {
	a, err := utils.HashPassword("same input", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	b, err := utils.HashPassword("same input", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct salts to produce distinct hashes")
	}
}
