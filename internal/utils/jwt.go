package utils

import (
	"errors" // Error classification
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// Token types carried in the "type" claim
const (
	TokenAccess        = "access"
	TokenPasswordReset = "password_reset"
)

// Errors returned by ParseJWT
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// JWT Claims
type Claims struct {
	ID                   uint   `json:"id"`                 // Admin ID
	Username             string `json:"username,omitempty"` // Admin username
	Email                string `json:"email,omitempty"`    // Admin email
	Role                 string `json:"role,omitempty"`     // Admin role
	Type                 string `json:"type"`               // access or password_reset
	jwt.RegisteredClaims        // Standard JWT claims
}

// GenerateJWT signs claims with HS256, valid for ttl from now
func GenerateJWT(claims Claims, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)), // Token expiry
		IssuedAt:  jwt.NewNumericDate(now),          // Issued at current time
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a JWT token string. Expired tokens yield
// ErrTokenExpired, every other failure ErrTokenInvalid.
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	// Check for parsing errors
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil // Return claims if valid
	}
	return nil, ErrTokenInvalid
}
