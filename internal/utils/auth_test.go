package utils

import (
	"testing"

	"github.com/grupoheroica/calidadrecintos/internal/models"
)

func TestPasswordHashing(t *testing.T) {
	password := "secret123"

	// Test Hashing
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if hash == password {
		t.Error("Hash should not match plaintext password")
	}
	if len(hash) == 0 {
		t.Error("Hash should not be empty")
	}

	// Test Comparison (Success)
	if !CheckPasswordHash(password, hash) {
		t.Error("Password should match hash")
	}

	// Test Comparison (Failure)
	if CheckPasswordHash("wrongpassword", hash) {
		t.Error("Wrong password should not match hash")
	}
}

func TestJWT(t *testing.T) {
	secret := "test-secret-key-12345"

	user := &models.Usuario{
		ID:     "uuid-1234",
		UID:    "uid-1234",
		Email:  "test@grupoheroica.com",
		Nombre: "Test",
		Rol:    models.RolCalidad,
	}

	// Test Generation
	accessToken, refreshToken, err := GenerateTokens(user, "CCCI", secret)
	if err != nil {
		t.Fatalf("Failed to generate tokens: %v", err)
	}
	if accessToken == "" || refreshToken == "" {
		t.Error("Tokens should not be empty")
	}

	// Test Validation (Success)
	claims, err := ValidateToken(accessToken, secret)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims["email"] != user.Email {
		t.Errorf("Expected email claim %q, got %v", user.Email, claims["email"])
	}
	if claims["rol"] != models.RolCalidad {
		t.Errorf("Expected rol claim %q, got %v", models.RolCalidad, claims["rol"])
	}
	if claims["recinto"] != "CCCI" {
		t.Errorf("Expected recinto claim CCCI, got %v", claims["recinto"])
	}

	// Refresh token carries the tenant too
	refreshClaims, err := ValidateToken(refreshToken, secret)
	if err != nil {
		t.Fatalf("Failed to validate refresh token: %v", err)
	}
	if refreshClaims["recinto"] != "CCCI" {
		t.Errorf("Expected recinto claim on refresh token, got %v", refreshClaims["recinto"])
	}

	// Test Validation (Failure - wrong secret)
	if _, err := ValidateToken(accessToken, "wrong-secret"); err == nil {
		t.Error("Token should not validate with wrong secret")
	}

	// Test Validation (Failure - garbage)
	if _, err := ValidateToken("not.a.token", secret); err == nil {
		t.Error("Garbage should not validate")
	}
}
