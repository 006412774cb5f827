package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := newTestIssuer()
	token, exp, err := issuer.Issue("user-1", "patient", "sess-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expected expiry in the future, got %v", exp)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != "patient" || claims.SessionID != "sess-1" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := newTestIssuer()
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := issuer.Issue("user-1", "patient", "sess-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenIssuer_WrongIssuer(t *testing.T) {
	other := NewTokenIssuer(JWTConfig{Issuer: "someone-else", SigningKey: testSigningKey})
	token, _, _ := other.Issue("user-1", "patient", "sess-1")

	if _, err := newTestIssuer().Parse(token); err == nil {
		t.Error("expected error for foreign issuer")
	}
}

func TestTokenIssuer_RejectsMissingSession(t *testing.T) {
	issuer := newTestIssuer()
	token, _, _ := issuer.Issue("user-1", "patient", "")
	if _, err := issuer.Parse(token); err == nil {
		t.Error("expected token without session id to be rejected")
	}
}

func TestNewRefreshToken(t *testing.T) {
	a, hashA, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, _, _ := NewRefreshToken()
	if a == b {
		t.Error("expected distinct refresh tokens")
	}
	if hashA != HashRefreshToken(a) {
		t.Error("expected hash to be deterministic")
	}
	if strings.Contains(hashA, a) {
		t.Error("hash must not contain the raw token")
	}
	if len(hashA) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(hashA))
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "secret123") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}
