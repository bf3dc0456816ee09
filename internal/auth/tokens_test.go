package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testIssuer(secret string, clock func() time.Time) *TokenIssuer {
	return NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte(secret),
		Issuer:        "forum-test",
		Audience:      "forum-clients",
		TokenTTL:      time.Hour,
		Clock:         clock,
	})
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	issuer := testIssuer("unit-test-secret", nil)

	token, expiresIn, err := issuer.IssueSessionToken(context.Background(), "alice")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	if expiresIn != int64(time.Hour.Seconds()) {
		t.Fatalf("expected %d second expiry, got %d", int64(time.Hour.Seconds()), expiresIn)
	}

	subject, err := issuer.ValidateToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if subject != "alice" {
		t.Fatalf("expected subject alice, got %q", subject)
	}
}

func TestIssueRejectsMissingInputs(t *testing.T) {
	if _, _, err := testIssuer("secret", nil).IssueSessionToken(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty username")
	}
	issuer := NewTokenIssuer(TokenIssuerConfig{})
	if _, _, err := issuer.IssueSessionToken(context.Background(), "alice"); err == nil {
		t.Fatalf("expected error for missing signing secret")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	current := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	issuer := testIssuer("secret", func() time.Time { return current })

	token, _, err := issuer.IssueSessionToken(context.Background(), "alice")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	current = current.Add(2 * time.Hour)
	if _, err := issuer.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, _, err := testIssuer("first-secret", nil).IssueSessionToken(context.Background(), "alice")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	if _, err := testIssuer("second-secret", nil).ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for mismatched secret, got %v", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	issuer := testIssuer("secret", nil)
	for _, tokenValue := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		if _, err := issuer.ValidateToken(tokenValue); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", tokenValue, err)
		}
	}
}
