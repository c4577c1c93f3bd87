package auth

import (
	"strings"
	"testing"
	"time"
)

func TestHS256RoundTrip(t *testing.T) {
	now := time.Now()
	token, err := Issue("admin", RoleAdmin, time.Hour, "test-secret", now)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	parsed, err := ParseAndVerifyHS256(token, "test-secret", now)
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256 failed: %v", err)
	}
	if parsed.Sub != "admin" || parsed.Role != RoleAdmin {
		t.Fatalf("claims mismatch: got %+v", parsed)
	}
	if _, err := ParseAndVerifyHS256(token, "wrong-secret", now); err == nil {
		t.Fatal("expected verification error with wrong secret")
	}
}

func TestHS256Expired(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	token, err := Issue("admin", RoleAdmin, time.Minute, "s", now)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, "s", now.Add(2*time.Minute)); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHS256Tampered(t *testing.T) {
	now := time.Now()
	token, _ := Issue("user", "customer", time.Hour, "s", now)
	admin, _ := Issue("user", RoleAdmin, time.Hour, "other", now)

	parts := strings.Split(token, ".")
	forged := strings.Split(admin, ".")
	tampered := parts[0] + "." + forged[1] + "." + parts[2]
	if _, err := ParseAndVerifyHS256(tampered, "s", now); err == nil {
		t.Fatal("expected tampered payload to fail")
	}
	if _, err := SignHS256(Claims{Sub: "x"}, ""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
