package auth

import (
	"testing"
	"time"
)

func newTestAuthenticator(accessExp time.Duration) *JWTAuthenticator {
	return NewJWTAuthenticator("access-secret", "refresh-secret", "fitih", "fitih", accessExp, time.Hour)
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	a := newTestAuthenticator(time.Minute)

	access, refresh, err := a.GenerateTokens(42, "client@example.com", RoleClient)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatalf("expected both tokens, got access=%q refresh=%q", access, refresh)
	}

	claims, err := a.ValidateAccessToken(access)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "42" {
		t.Errorf("subject = %q, want 42", claims.Subject)
	}
	if claims.Email != "client@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
	if claims.Role != string(RoleClient) {
		t.Errorf("role = %q, want CLIENT", claims.Role)
	}
}

func TestValidateAccessTokenRejectsExpired(t *testing.T) {
	a := newTestAuthenticator(-time.Minute)

	access, _, err := a.GenerateTokens(7, "x@example.com", RoleLawyer)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := a.ValidateAccessToken(access); err == nil {
		t.Fatalf("expected expired token to fail validation")
	}
}

func TestValidateAccessTokenRejectsWrongSecret(t *testing.T) {
	a := newTestAuthenticator(time.Minute)
	forged := NewJWTAuthenticator("other-secret", "other-refresh", "fitih", "fitih", time.Minute, time.Hour)

	access, _, err := forged.GenerateTokens(7, "x@example.com", RoleAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := a.ValidateAccessToken(access); err == nil {
		t.Fatalf("expected token signed with a different secret to fail")
	}
}

func TestValidateAccessTokenRejectsForeignIssuer(t *testing.T) {
	a := newTestAuthenticator(time.Minute)
	foreign := NewJWTAuthenticator("access-secret", "refresh-secret", "fitih", "other-iss", time.Minute, time.Hour)

	access, _, err := foreign.GenerateTokens(7, "x@example.com", RoleClient)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := a.ValidateAccessToken(access); err == nil {
		t.Fatalf("expected token issued by %q to fail validation", "other-iss")
	}
}

func TestValidateAccessTokenRejectsForeignAudience(t *testing.T) {
	a := newTestAuthenticator(time.Minute)
	foreign := NewJWTAuthenticator("access-secret", "refresh-secret", "other-aud", "fitih", time.Minute, time.Hour)

	access, refresh, err := foreign.GenerateTokens(7, "x@example.com", RoleClient)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := a.ValidateAccessToken(access); err == nil {
		t.Fatalf("expected token for audience %q to fail validation", "other-aud")
	}
	if _, err := a.ValidateRefreshToken(refresh); err == nil {
		t.Fatalf("expected refresh token for audience %q to fail validation", "other-aud")
	}
}

func TestValidateAccessTokenRejectsMalformed(t *testing.T) {
	a := newTestAuthenticator(time.Minute)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := a.ValidateAccessToken(token); err == nil {
			t.Errorf("expected malformed token %q to fail", token)
		}
	}
}

func TestRefreshTokenNotValidAsAccessToken(t *testing.T) {
	a := newTestAuthenticator(time.Minute)

	_, refresh, err := a.GenerateTokens(7, "x@example.com", RoleClient)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := a.ValidateAccessToken(refresh); err == nil {
		t.Fatalf("refresh token must not validate as access token")
	}
	if _, err := a.ValidateRefreshToken(refresh); err != nil {
		t.Fatalf("refresh token should validate with refresh secret: %v", err)
	}
}
