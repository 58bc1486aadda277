package dto

import (
	"time"

	"github.com/fix-it/marketplace/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Email           string          `json:"email"`
	FullName        string          `json:"full_name"`
	Phone           string          `json:"phone"`
	Role            domain.UserRole `json:"role"`
	Password        string          `json:"password"`
	ConfirmPassword string          `json:"confirm_password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest starts the recovery flow.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// VerifyCodeRequest redeems a one-time code.
type VerifyCodeRequest struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

// ResendCodeRequest asks for a fresh code.
type ResendCodeRequest struct {
	Token string `json:"token"`
}

// CompleteRegistrationRequest finishes account activation.
type CompleteRegistrationRequest struct {
	Token string `json:"token"`
}

// ResetPasswordRequest sets the new credential.
type ResetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ChangePasswordRequest rotates the credential of a logged-in account.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ChallengeResponse is returned whenever a code has been (re)sent.
type ChallengeResponse struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifiedResponse is returned by a successful code verification.
type VerifiedResponse struct {
	Token string `json:"token"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public shape of an account.
type UserResponse struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	FullName  string            `json:"full_name"`
	Phone     string            `json:"phone"`
	Role      domain.UserRole   `json:"role"`
	Status    domain.UserStatus `json:"status"`
	AvatarURL *string           `json:"avatar_url,omitempty"`
	City      *string           `json:"city,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Phone:     user.Phone,
		Role:      user.Role,
		Status:    user.Status,
		AvatarURL: user.AvatarURL,
		City:      user.City,
		CreatedAt: user.CreatedAt,
	}
}
