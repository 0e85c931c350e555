package utils

import (
	"regexp"  // Pattern checks
	"strings" // Trimming

	"golang.org/x/crypto/bcrypt" // Password hashing
)

const (
	// PasswordCost is the bcrypt work factor for admin passwords
	PasswordCost = 12
	// MaxPasswordBytes is the longest input bcrypt accepts
	MaxPasswordBytes = 72
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	digitPattern   = regexp.MustCompile(`\d`)
	specialPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
	scriptPattern  = regexp.MustCompile(`(?i)javascript:`)
	handlerPattern = regexp.MustCompile(`(?i)on\w+=`)
)

// HashPassword hashes a plain password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plain password with a stored hash
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength returns one message per unmet rule; empty means strong enough
func ValidatePasswordStrength(password string) []string {
	var errs []string
	if len(password) < 8 {
		errs = append(errs, "La contraseña debe tener al menos 8 caracteres")
	}
	if len(password) > MaxPasswordBytes {
		errs = append(errs, "La contraseña no puede superar los 72 bytes")
	}
	if !upperPattern.MatchString(password) {
		errs = append(errs, "La contraseña debe contener al menos una letra mayúscula")
	}
	if !lowerPattern.MatchString(password) {
		errs = append(errs, "La contraseña debe contener al menos una letra minúscula")
	}
	if !digitPattern.MatchString(password) {
		errs = append(errs, "La contraseña debe contener al menos un número")
	}
	if !specialPattern.MatchString(password) {
		errs = append(errs, "La contraseña debe contener al menos un carácter especial")
	}
	return errs
}

// ValidateEmail does a loose shape check of an email address
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// SanitizeInput trims the value and strips angle brackets, javascript: URLs and inline handlers
func SanitizeInput(input string) string {
	out := strings.TrimSpace(input)
	out = strings.NewReplacer("<", "", ">", "").Replace(out)
	out = scriptPattern.ReplaceAllString(out, "")
	return handlerPattern.ReplaceAllString(out, "")
}
