// Package token mints the random capability tokens carried by invitation
// links and public share links.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// DefaultTTL is the validity window used when an Issuer has a zero TTL.
const DefaultTTL = 7 * 24 * time.Hour

// rawBytes is the entropy per token.  32 bytes gives 256 bits, encoded
// as 64 hex characters on the wire.
const rawBytes = 32

// Token is a freshly minted secret together with its expiry.
type Token struct {
	Raw       string
	ExpiresAt time.Time
}

// Issuer mints tokens with a fixed validity window.  The zero value is
// usable and applies DefaultTTL.
type Issuer struct {
	TTL time.Duration
}

// New returns a fresh token expiring TTL from now in UTC.  Uniqueness is
// not guaranteed here; stores enforce it with a unique column and retry
// generation on collision.
func (i Issuer) New() (Token, error) {
	buf := make([]byte, rawBytes)
	if _, err := rand.Read(buf); err != nil {
		return Token{}, fmt.Errorf("generate token: %w", err)
	}
	ttl := i.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Token{
		Raw:       hex.EncodeToString(buf),
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}
