package token_test

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/tbnobed/obview/internal/token"
)

func TestNewTokenShape(t *testing.T) {
	tok, err := token.Issuer{}.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(tok.Raw) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(tok.Raw))
	}
	if _, err := hex.DecodeString(tok.Raw); err != nil {
		t.Fatalf("token is not hex: %v", err)
	}
}

func TestNewTokenDefaultTTL(t *testing.T) {
	tok, err := token.Issuer{}.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	until := time.Until(tok.ExpiresAt)
	if until < token.DefaultTTL-time.Minute || until > token.DefaultTTL+time.Minute {
		t.Fatalf("expected ~%v ahead, got %v", token.DefaultTTL, until)
	}
}

func TestNewTokenCustomTTL(t *testing.T) {
	tok, err := token.Issuer{TTL: time.Hour}.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	until := time.Until(tok.ExpiresAt)
	if until < 59*time.Minute || until > 61*time.Minute {
		t.Fatalf("expected ~1h ahead, got %v", until)
	}
}

func TestNewTokenUnique(t *testing.T) {
	issuer := token.Issuer{}
	seen := make(map[string]bool, 100)
	for i := 0; i < 100; i++ {
		tok, err := issuer.New()
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if seen[tok.Raw] {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[tok.Raw] = true
	}
}
