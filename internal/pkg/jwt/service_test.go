package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := NewHMACService("access-secret", "refresh-secret", time.Minute, time.Hour)
	id := uuid.New()

	tok, err := svc.GenerateAccessToken(id, "user@example.com")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	claims, err := svc.ValidateToken(tok)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if claims.ClientID != id {
		t.Fatalf("expected client id %s, got %s", id, claims.ClientID)
	}
	if claims.Username != "user@example.com" {
		t.Fatalf("unexpected username %q", claims.Username)
	}
	if svc.IsRefreshToken(claims) {
		t.Fatalf("access token misclassified as refresh")
	}
}

func TestRefreshTokenClassification(t *testing.T) {
	svc := NewHMACService("access-secret", "refresh-secret", time.Minute, time.Hour)

	tok, err := svc.GenerateRefreshToken(uuid.New())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	claims, err := svc.ValidateToken(tok)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !svc.IsRefreshToken(claims) {
		t.Fatalf("refresh token misclassified as access")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewHMACService("access-secret", "refresh-secret", time.Minute, time.Hour)

	base := time.Now()
	svc.now = func() time.Time { return base }
	tok, err := svc.GenerateAccessToken(uuid.New(), "user@example.com")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	svc.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := svc.ValidateToken(tok); err != ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	svc := NewHMACService("access-secret", "refresh-secret", time.Minute, time.Hour)
	other := NewHMACService("different", "secrets", time.Minute, time.Hour)

	tok, err := other.GenerateAccessToken(uuid.New(), "user@example.com")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if _, err := svc.ValidateToken(tok); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
