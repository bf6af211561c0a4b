package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/omara/internal/model"
)

func testUser(role string) *model.User {
	return &model.User{ID: 1, Email: "admin@example.com", Role: role}
}

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, issued, err := GenerateToken(secret, time.Hour, testUser(model.RoleAdmin))
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
	if claims.Email != "admin@example.com" {
		t.Errorf("expected email 'admin@example.com', got %q", claims.Email)
	}
	if claims.ID == "" || claims.ID != issued.ID {
		t.Errorf("expected JTI %q, got %q", issued.ID, claims.ID)
	}
	if !claims.CanModerate() {
		t.Error("expected admin token to carry moderation capability")
	}
}

func TestUniqueJTI(t *testing.T) {
	_, a, _ := GenerateToken("s", time.Hour, testUser(model.RoleUser))
	_, b, _ := GenerateToken("s", time.Hour, testUser(model.RoleUser))
	if a.ID == b.ID {
		t.Error("expected distinct JTIs")
	}
}

func TestUserCannotModerate(t *testing.T) {
	_, claims, _ := GenerateToken("s", time.Hour, testUser(model.RoleUser))
	if claims.CanModerate() {
		t.Error("expected user token without moderation capability")
	}

	var none *Claims
	if none.CanModerate() {
		t.Error("expected nil claims without moderation capability")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _, _ := GenerateToken("secret1", time.Hour, testUser(model.RoleAdmin))

	_, err := ValidateToken("secret2", token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestNonPositiveTTLUsesDefault(t *testing.T) {
	token, _, _ := GenerateToken("s", -time.Hour, testUser(model.RoleUser))
	if _, err := ValidateToken("s", token); err != nil {
		t.Fatalf("expected default TTL token to be valid: %v", err)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	claims := Claims{
		UserID: 1,
		Role:   model.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "expired",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ValidateToken("s", token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	token, _, _ := GenerateToken(secret, 0, testUser(model.RoleUser))
	claims, _ := ValidateToken(secret, token)

	diff := time.Now().Add(DefaultTokenTTL).Sub(claims.ExpiresAt.Time)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("expected wrong password to fail")
	}
}

func TestGeneratePassword(t *testing.T) {
	p, err := GeneratePassword(16)
	if err != nil {
		t.Fatalf("GeneratePassword: %v", err)
	}
	if len(p) != 16 {
		t.Errorf("expected 16 chars, got %d", len(p))
	}
	if err := model.ValidatePassword(p); err != nil {
		t.Errorf("generated password fails validation: %v", err)
	}
}
