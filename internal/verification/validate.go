package verification

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fix-it/marketplace/internal/auth"
	"github.com/fix-it/marketplace/internal/domain"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	codePattern  = regexp.MustCompile(`^\d{6}$`)
)

// InitiateInput carries the identity fields collected at the first step.
// Password-reset only uses Email.
type InitiateInput struct {
	Email           string
	FullName        string
	Phone           string
	Role            domain.UserRole
	Password        string
	ConfirmPassword string
}

func validateRegistration(in InitiateInput) *ValidationError {
	verr := &ValidationError{}

	if !emailPattern.MatchString(in.Email) {
		verr.add("email", "Please enter a valid email address")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.FullName)) < 2 {
		verr.add("fullName", "Name must be at least 2 characters")
	}
	if !phonePattern.MatchString(in.Phone) {
		verr.add("phone", "Invalid phone number")
	}
	if !domain.RegistrableRole(in.Role) {
		verr.add("role", "Please select a valid role")
	}
	for _, msg := range auth.ValidatePassword(in.Password) {
		verr.add("password", msg)
	}
	if in.Password != in.ConfirmPassword {
		verr.add("confirmPassword", "Passwords don't match")
	}

	if verr.empty() {
		return nil
	}
	return verr
}

func validateReset(in InitiateInput) *ValidationError {
	verr := &ValidationError{}
	if !emailPattern.MatchString(in.Email) {
		verr.add("email", "Please enter a valid email address")
	}
	if verr.empty() {
		return nil
	}
	return verr
}

func validateNewPassword(newPassword, confirmPassword string) *ValidationError {
	verr := &ValidationError{}
	for _, msg := range auth.ValidatePassword(newPassword) {
		verr.add("newPassword", msg)
	}
	if newPassword != confirmPassword {
		verr.add("confirmPassword", "Passwords don't match")
	}
	if verr.empty() {
		return nil
	}
	return verr
}

// ValidCodeShape reports whether raw looks like a one-time code. Used by
// handlers to reject malformed input before touching the store.
func ValidCodeShape(raw string) bool {
	return codePattern.MatchString(raw)
}
