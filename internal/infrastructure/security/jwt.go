// Package security provides JWT token utilities
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// AgentClaims is the decoded identity carried by an agent token.
type AgentClaims struct {
	Identity string
	Role     string
}

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// GetAgentFromClaims extracts the agent identity from JWT claims
func GetAgentFromClaims(claims jwt.MapClaims) *AgentClaims {
	identity, ok := claims["identity"].(string)
	if !ok || identity == "" {
		return nil
	}
	role, _ := claims["role"].(string)
	return &AgentClaims{Identity: identity, Role: role}
}

// GenerateAgentToken creates a JWT token for an authenticated agent
func GenerateAgentToken(identity, role, jwtSecret string, lifetime time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"identity": identity,
		"role":     role,
		"iat":      time.Now().UTC().Unix(),
		"exp":      time.Now().UTC().Add(lifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// CheckPassword compares a bcrypt hash against a candidate password.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashPassword produces a bcrypt hash for account provisioning.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}
