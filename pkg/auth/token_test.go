package auth_test

import (
	"testing"
	"time"

	"github.com/atriumhq/atrium-backend/pkg/auth"
	"github.com/atriumhq/atrium-backend/pkg/config"
	"github.com/google/uuid"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "atrium-test",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	jti := uuid.NewString()

	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		UserID:   userID,
		Username: "carol",
		Roles:    []string{"admin", "member"},
		JTI:      jti,
	})
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}

	claims, err := auth.ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseAccessToken returned error: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.Username != "carol" {
		t.Fatalf("expected username carol, got %s", claims.Username)
	}
	if claims.SessionToken() != jti {
		t.Fatalf("expected session token %s, got %s", jti, claims.SessionToken())
	}
	if !claims.HasRole("admin") || claims.HasRole("superuser") {
		t.Fatal("role membership not reflected in claims")
	}
}

func TestMintAccessTokenGeneratesJTIWhenMissing(t *testing.T) {
	token, err := auth.MintAccessToken(testJWTConfig(), time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}
	claims, err := auth.ParseAccessToken(testJWTConfig(), token)
	if err != nil {
		t.Fatalf("ParseAccessToken returned error: %v", err)
	}
	if claims.SessionToken() == "" {
		t.Fatal("expected generated jti")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := auth.MintAccessToken(cfg, time.Now().Add(-2*time.Hour), auth.AccessTokenPayload{
		UserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}
	if _, err := auth.ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to fail validation")
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	token, err := auth.MintAccessToken(testJWTConfig(), time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}

	other := testJWTConfig()
	other.Secret = "different-secret"
	if _, err := auth.ParseAccessToken(other, token); err == nil {
		t.Fatal("expected signature mismatch to fail validation")
	}
}

func TestMintAccessTokenValidatesConfig(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Secret = ""
	if _, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{UserID: uuid.New()}); err == nil {
		t.Fatal("expected missing secret to error")
	}

	cfg = testJWTConfig()
	if _, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{}); err == nil {
		t.Fatal("expected missing user id to error")
	}
}
