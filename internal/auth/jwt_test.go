package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/erazemk/oprema/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, issued, err := GenerateToken(secret, 1, "admin@example.co.th", model.RoleAdmin, 0)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != 1 {
		t.Errorf("expected user_id 1, got %d", claims.UserID)
	}
	if claims.Email != "admin@example.co.th" {
		t.Errorf("expected email 'admin@example.co.th', got %q", claims.Email)
	}
	if claims.ID != issued.ID {
		t.Errorf("expected jti %q, got %q", issued.ID, claims.ID)
	}
	if !claims.Principal().IsAdmin() {
		t.Error("expected admin principal")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _, _ := GenerateToken("secret1", 1, "admin@example.co.th", model.RoleAdmin, 0)

	if _, err := ValidateToken("secret2", token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	if _, err := ValidateToken("secret", "not-a-token"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	token, _, _ := GenerateToken(secret, 1, "staff@example.co.th", model.RoleStaff, time.Hour)
	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	diff := time.Now().Add(time.Hour).Sub(claims.ExpiresAt.Time)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}

	expired, _, _ := GenerateToken(secret, 1, "staff@example.co.th", model.RoleStaff, -time.Hour)
	if _, err := ValidateToken(secret, expired); err != nil {
		// A non-positive ttl falls back to the default lifetime.
		t.Errorf("expected default lifetime for non-positive ttl: %v", err)
	}
}

func TestCheckDomain(t *testing.T) {
	if err := CheckDomain("Somchai@Example.co.th", "example.co.th"); err != nil {
		t.Errorf("expected allowed, got %v", err)
	}
	if err := CheckDomain("mallory@evil.test", "@example.co.th"); !errors.Is(err, ErrDomainNotAllowed) {
		t.Errorf("expected ErrDomainNotAllowed, got %v", err)
	}
	if err := CheckDomain("anyone@anywhere.test", ""); err != nil {
		t.Errorf("empty domain should allow all, got %v", err)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected mismatch")
	}
}
