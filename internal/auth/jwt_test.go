package auth

import (
	"errors"
	"testing"
	"time"
)

func testConfig() *JWTConfig {
	return &JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "meshspace",
		Audience: "meshspace-relay",
		TTL:      time.Hour,
	}
}

func TestVerifyCredentialRoundTrip(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, "user-42")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	userID, err := NewVerifier(cfg).VerifyCredential(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-42" {
		t.Fatalf("unexpected user id: %s", userID)
	}
}

func TestVerifyCredentialWrongSecret(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, "user-42")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	other := testConfig()
	other.Secret = []byte("other-secret")

	if _, err := NewVerifier(other).VerifyCredential(token); err == nil {
		t.Fatal("expected verification to fail with wrong secret")
	}
}

func TestVerifyCredentialExpired(t *testing.T) {
	cfg := testConfig()
	cfg.TTL = -time.Minute

	token, err := GenerateToken(cfg, "user-42")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := NewVerifier(cfg).VerifyCredential(token); err == nil {
		t.Fatal("expected verification to fail for expired token")
	}
}

func TestVerifyCredentialMissingIdentity(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, "")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = NewVerifier(cfg).VerifyCredential(token)
	if !errors.Is(err, ErrMissingIdentity) {
		t.Fatalf("expected ErrMissingIdentity, got %v", err)
	}
}

func TestVerifyCredentialIssuerMismatch(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, "user-42")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	other := testConfig()
	other.Issuer = "someone-else"

	if _, err := NewVerifier(other).VerifyCredential(token); err == nil {
		t.Fatal("expected verification to fail for issuer mismatch")
	}
}

func TestVerifyCredentialGarbage(t *testing.T) {
	if _, err := NewVerifier(testConfig()).VerifyCredential("not-a-token"); err == nil {
		t.Fatal("expected verification to fail for garbage input")
	}
}
