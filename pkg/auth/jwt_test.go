package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/config"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret-test-secret-test-secret", TTL: 30 * 24 * time.Hour, Issuer: "pneumoscan-test"}
}

func TestIssueAndVerify(t *testing.T) {
	m := NewJWTManager(testConfig())
	userID := uuid.New()

	token, expiresAt, err := m.IssueToken(userID, domain.RoleDoctor)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if d := time.Until(expiresAt); d < 29*24*time.Hour {
		t.Errorf("expiry too short: %v", d)
	}

	claims, err := m.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %v, want %v", claims.UserID, userID)
	}
	if claims.Role != domain.RoleDoctor {
		t.Errorf("Role = %v, want doctor", claims.Role)
	}
}

func TestVerify_Expired(t *testing.T) {
	m := NewJWTManager(testConfig())
	issuedAt := time.Now().Add(-31 * 24 * time.Hour)
	m.now = func() time.Time { return issuedAt }

	token, _, err := m.IssueToken(uuid.New(), domain.RolePatient)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	m.now = time.Now
	if _, err := m.VerifyToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := NewJWTManager(testConfig())
	token, _, err := issuer.IssueToken(uuid.New(), domain.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	cfg := testConfig()
	cfg.Secret = "another-secret-another-secret-000"
	verifier := NewJWTManager(cfg)

	if _, err := verifier.VerifyToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	m := NewJWTManager(testConfig())
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.VerifyToken(tok); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("VerifyToken(%q) = %v, want ErrTokenInvalid", tok, err)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal plaintext")
	}
	if !PasswordMatches("correct horse", hash) {
		t.Error("expected password to match its hash")
	}
	if PasswordMatches("wrong horse", hash) {
		t.Error("expected wrong password not to match")
	}

	other, _ := HashPassword("correct horse")
	if other == hash {
		t.Error("expected salted hashes to differ")
	}
}
