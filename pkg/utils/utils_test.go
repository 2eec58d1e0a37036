package utils

import (
	"testing"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("tr4iner-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "tr4iner-pass" {
		t.Fatal("hash must not equal the plaintext password")
	}

	if !CheckPassword("tr4iner-pass", hash) {
		t.Error("expected matching password to verify")
	}
	if CheckPassword("other-pass", hash) {
		t.Error("expected wrong password to fail verification")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("17", "trainer", "test-secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token, "test-secret")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "17" {
		t.Errorf("expected user id 17, got %s", claims.UserID)
	}
	if claims.Role != "trainer" {
		t.Errorf("expected role trainer, got %s", claims.Role)
	}
	if claims.ExpiresAt == nil {
		t.Error("expected an expiry on issued tokens")
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("3", "client", "secret-a")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidateToken(token, "secret-b"); err == nil {
		t.Error("expected validation with a different secret to fail")
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-jwt", "secret"); err == nil {
		t.Error("expected malformed token to fail validation")
	}
}
