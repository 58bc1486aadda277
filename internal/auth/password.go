package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const passwordSymbols = "!@#$%^&*"

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// ValidatePassword checks a candidate password against the account policy:
// at least 8 characters with an uppercase letter, a lowercase letter, a
// digit and a symbol. It returns one message per unmet rule.
func ValidatePassword(password string) []string {
	var msgs []string
	if len(password) < 8 {
		msgs = append(msgs, "Password must be at least 8 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	if !hasUpper {
		msgs = append(msgs, "Password must contain at least one uppercase letter")
	}
	if !hasLower {
		msgs = append(msgs, "Password must contain at least one lowercase letter")
	}
	if !hasDigit {
		msgs = append(msgs, "Password must contain at least one number")
	}
	if !hasSymbol {
		msgs = append(msgs, "Password must contain at least one special character")
	}
	return msgs
}
