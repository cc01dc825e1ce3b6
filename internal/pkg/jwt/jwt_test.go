package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewService("secret", time.Minute, WithIssuer("https://auth.example"), WithAudience("authenticated"))
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, RoleAdmin, "a@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	got, err := claims.UserID()
	if err != nil || got != userID {
		t.Fatalf("expected user %s, got %s (%v)", userID, got, err)
	}
	if claims.Email != "a@example.com" || claims.Role != RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if svc.GetAccessTTL() != time.Minute {
		t.Fatalf("unexpected ttl %s", svc.GetAccessTTL())
	}
	if lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time); lifetime != svc.GetAccessTTL() {
		t.Fatalf("token lifetime %s does not match ttl", lifetime)
	}
}

func TestValidateRejectsWrongSecretAndAudience(t *testing.T) {
	issuer := NewService("secret", time.Minute, WithAudience("authenticated"))
	token, err := issuer.GenerateAccessToken(uuid.New(), "", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := NewService("other", time.Minute, WithAudience("authenticated")).ValidateAccessToken(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
	if _, err := NewService("secret", time.Minute, WithAudience("service_role")).ValidateAccessToken(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong audience, got %v", err)
	}
}

func TestValidateExpired(t *testing.T) {
	svc := NewService("secret", -time.Minute)
	token, err := svc.GenerateAccessToken(uuid.New(), "", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.ValidateAccessToken(token); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewService("secret", time.Minute)
	if _, err := svc.ValidateAccessToken("not-a-token"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
