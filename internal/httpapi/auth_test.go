package httpapi

import (
	"testing"
	"time"

	"restaurantos/backend/internal/domain"
	"restaurantos/backend/internal/store/memory"
)

func newTestAuth(t *testing.T) *AuthManager {
	t.Helper()
	return NewAuthManager("test-secret-key", time.Hour, "123456", memory.NewSeeded())
}

func TestLoginAndParseTokenRoundTrip(t *testing.T) {
	auth := newTestAuth(t)

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Role != "admin" {
		t.Fatalf("role = %q, want admin", resp.Role)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestLoginIsCaseInsensitiveOnUsername(t *testing.T) {
	auth := newTestAuth(t)

	if _, err := auth.Login(domain.LoginRequest{Username: "  Manager ", Password: "manager123"}); err != nil {
		t.Fatalf("login with padded mixed-case username failed: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	auth := newTestAuth(t)

	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "nope"}); err == nil {
		t.Fatalf("expected login to fail with wrong password")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth := newTestAuth(t)

	if _, err := auth.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("expected garbage token to be rejected")
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	auth := newTestAuth(t)
	other := NewAuthManager("a-different-secret", time.Hour, "123456", memory.NewSeeded())

	resp, err := other.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := auth.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("token signed with another secret must be rejected")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	auth := newTestAuth(t)

	token, err := auth.sign("admin", "admin", time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := auth.ParseToken(token); err == nil {
		t.Fatalf("expired token must be rejected")
	}
}

func TestValidateManagerPIN(t *testing.T) {
	auth := newTestAuth(t)

	if !auth.ValidateManagerPIN("123456") {
		t.Fatalf("correct pin must validate")
	}
	if auth.ValidateManagerPIN("654321") {
		t.Fatalf("wrong pin must not validate")
	}
	if auth.ValidateManagerPIN("") {
		t.Fatalf("empty pin must not validate")
	}
}
