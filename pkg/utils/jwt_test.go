package utils

import (
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func configureJWTForTest(t *testing.T, secret string, expirationHours int) {
	t.Helper()

	originalSecret := append([]byte(nil), jwtSecret...)
	originalExpiration := jwtExpirationHours

	t.Cleanup(func() {
		jwtSecret = originalSecret
		jwtExpirationHours = originalExpiration
	})

	ConfigureJWT(secret, expirationHours)
}

func TestConfigureJWT(t *testing.T) {
	t.Run("defaults to a thirty day lifetime", func(t *testing.T) {
		configureJWTForTest(t, "", 0)

		if got := TokenLifetime(); got != 30*24*time.Hour {
			t.Fatalf("expected default lifetime of 30 days, got %s", got)
		}
	})

	t.Run("updates secret and expiration when valid values are provided", func(t *testing.T) {
		configureJWTForTest(t, "test-secret", 72)

		if got := string(jwtSecret); got != "test-secret" {
			t.Fatalf("expected jwt secret to be %q, got %q", "test-secret", got)
		}
		if TokenLifetime() != 72*time.Hour {
			t.Fatalf("expected lifetime of 72h, got %s", TokenLifetime())
		}
	})

	t.Run("ignores empty secret and non-positive expiration", func(t *testing.T) {
		configureJWTForTest(t, "initial-secret", 24)

		ConfigureJWT("", 0)

		if got := string(jwtSecret); got != "initial-secret" {
			t.Fatalf("expected jwt secret to remain %q, got %q", "initial-secret", got)
		}
		if jwtExpirationHours != 24 {
			t.Fatalf("expected jwt expiration to remain %d, got %d", 24, jwtExpirationHours)
		}
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Run("round trips the subject id", func(t *testing.T) {
		configureJWTForTest(t, "roundtrip-secret", 720)

		userID := uuid.New()
		token, err := GenerateToken(userID)
		if err != nil {
			t.Fatalf("expected token generation to succeed, got error: %v", err)
		}

		claims, err := ValidateToken(token)
		if err != nil {
			t.Fatalf("expected token validation to succeed, got error: %v", err)
		}
		if claims.UserID != userID {
			t.Fatalf("expected claims userID %s, got %s", userID, claims.UserID)
		}
		if claims.Subject != userID.String() {
			t.Fatalf("expected subject %q, got %q", userID.String(), claims.Subject)
		}
		expiry := claims.ExpiresAt.Time
		if expiry.Before(time.Now().Add(29*24*time.Hour)) || expiry.After(time.Now().Add(31*24*time.Hour)) {
			t.Fatalf("expected expiry about 30 days out, got %v", expiry)
		}
	})

	t.Run("rejects expired token", func(t *testing.T) {
		configureJWTForTest(t, "expired-secret", 1)

		expiredClaims := Claims{
			UserID: uuid.New(),
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			},
		}

		expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString(jwtSecret)
		if err != nil {
			t.Fatalf("failed to sign expired token for test: %v", err)
		}

		if _, err := ValidateToken(expiredToken); err == nil {
			t.Fatal("expected expired token validation to fail, but it succeeded")
		}
	})

	t.Run("rejects token without expiry", func(t *testing.T) {
		configureJWTForTest(t, "no-exp-secret", 1)

		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: uuid.New()}).SignedString(jwtSecret)
		if err != nil {
			t.Fatalf("failed to sign token for test: %v", err)
		}
		if _, err := ValidateToken(raw); err == nil {
			t.Fatal("expected token without exp claim to be rejected")
		}
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		configureJWTForTest(t, "secret-a", 1)
		token, err := GenerateToken(uuid.New())
		if err != nil {
			t.Fatalf("failed generating token: %v", err)
		}

		ConfigureJWT("secret-b", 1)
		if _, err := ValidateToken(token); err == nil {
			t.Fatal("expected signature validation to fail")
		}
	})

	t.Run("rejects malformed token string", func(t *testing.T) {
		configureJWTForTest(t, "malformed-secret", 1)

		if _, err := ValidateToken("not-a-jwt"); err == nil {
			t.Fatal("expected malformed token validation to fail, but it succeeded")
		}
	})

	t.Run("rejects token signed with unexpected method", func(t *testing.T) {
		configureJWTForTest(t, "wrong-method-secret", 1)

		privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("failed to generate rsa key for test: %v", err)
		}

		rsaToken := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			Subject:   uuid.New().String(),
		})

		signedToken, err := rsaToken.SignedString(privateKey)
		if err != nil {
			t.Fatalf("failed to sign rsa token for test: %v", err)
		}

		_, err = ValidateToken(signedToken)
		if err == nil {
			t.Fatal("expected validation to fail for token with unexpected signing method")
		}
		if !strings.Contains(err.Error(), "unexpected signing method") {
			t.Fatalf("expected signing method error, got: %v", err)
		}
	})
}
