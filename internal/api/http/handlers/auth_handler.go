package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fix-it/marketplace/internal/api/dto"
	"github.com/fix-it/marketplace/internal/auth"
	"github.com/fix-it/marketplace/internal/service"
	"github.com/fix-it/marketplace/internal/verification"
	apperrors "github.com/fix-it/marketplace/pkg/util"
)

// AuthHandler exposes authentication and verification-flow endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register. Starts the activation flow and
// sends the one-time code.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	challenge, err := h.auth.InitiateRegistration(c.Context(), verification.InitiateInput{
		Email:           req.Email,
		FullName:        req.FullName,
		Phone:           req.Phone,
		Role:            req.Role,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return mapFlowError(err)
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": challengeResponse(challenge)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, exp, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotVerified) {
			return apperrors.NewForbidden("account not verified")
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"user": dto.NewUserResponse(user),
		"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
	}})
}

// ForgotPassword handles POST /auth/forgot-password. Always answers
// success-shaped so identifiers cannot be probed.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	challenge, err := h.auth.InitiatePasswordReset(c.Context(), req.Email)
	if err != nil {
		return mapFlowError(err)
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": challengeResponse(challenge)})
}

// VerifyCode handles POST /auth/verify-code.
func (h *AuthHandler) VerifyCode(c *fiber.Ctx) error {
	var req dto.VerifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" {
		return apperrors.NewValidationError("token required", nil)
	}
	if !verification.ValidCodeShape(req.Code) {
		return apperrors.NewValidationError("code must be 6 digits", map[string]any{"code": "Code must be 6 digits"})
	}

	verified, err := h.auth.VerifyCode(c.Context(), req.Token, req.Code)
	if err != nil {
		return mapFlowError(err)
	}
	return c.JSON(fiber.Map{"data": dto.VerifiedResponse{Token: verified.Token}})
}

// ResendCode handles POST /auth/resend-code.
func (h *AuthHandler) ResendCode(c *fiber.Ctx) error {
	var req dto.ResendCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" {
		return apperrors.NewValidationError("token required", nil)
	}

	challenge, err := h.auth.ResendCode(c.Context(), req.Token)
	if err != nil {
		return mapFlowError(err)
	}
	return c.JSON(fiber.Map{"data": challengeResponse(challenge)})
}

// CompleteRegistration handles POST /auth/complete-registration.
func (h *AuthHandler) CompleteRegistration(c *fiber.Ctx) error {
	var req dto.CompleteRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" {
		return apperrors.NewValidationError("token required", nil)
	}

	user, token, exp, err := h.auth.CompleteRegistration(c.Context(), req.Token)
	if err != nil {
		return mapFlowError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"user": dto.NewUserResponse(user),
		"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
	}})
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" {
		return apperrors.NewValidationError("token required", nil)
	}

	if err := h.auth.CompleteReset(c.Context(), req.Token, req.NewPassword, req.ConfirmPassword); err != nil {
		return mapFlowError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "password updated"}})
}

// ChangePassword handles POST /auth/change-password for a logged-in user.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	token, exp, err := h.auth.ChangePassword(c.Context(), principal.User.ID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		return mapFlowError(err)
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{Token: token, ExpiresAt: exp}})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(principal.User)})
}

func challengeResponse(challenge *verification.Challenge) dto.ChallengeResponse {
	return dto.ChallengeResponse{
		Token:     challenge.Token,
		Email:     challenge.Email,
		ExpiresAt: challenge.ExpiresAt,
	}
}

// mapFlowError translates verification flow errors into API errors
// without leaking backend detail.
func mapFlowError(err error) error {
	var verr *verification.ValidationError
	if errors.As(err, &verr) {
		details := make(map[string]any, len(verr.Fields))
		for field, msgs := range verr.Fields {
			details[field] = msgs
		}
		return apperrors.NewValidationError("validation failed", details)
	}

	var cooldown *verification.CooldownError
	if errors.As(err, &cooldown) {
		return apperrors.NewTooManyRequests("please wait before requesting another code",
			map[string]any{"retry_after_seconds": int(cooldown.RetryAfter.Seconds())})
	}

	switch {
	case errors.Is(err, verification.ErrConflict):
		return apperrors.NewConflict("email already registered", nil)
	case errors.Is(err, verification.ErrNotFound):
		return apperrors.NewNotFound("verification session", nil)
	case errors.Is(err, verification.ErrExpired):
		return apperrors.NewGone("verification code expired")
	case errors.Is(err, verification.ErrMismatch):
		return apperrors.NewValidationError("invalid verification code", map[string]any{"code": "Invalid code"})
	case errors.Is(err, verification.ErrTooManyAttempts):
		return apperrors.NewTooManyRequests("too many attempts, request a new code", nil)
	case errors.Is(err, verification.ErrDelivery):
		return apperrors.NewUnavailable("could not send verification code")
	case errors.Is(err, verification.ErrTransient):
		return apperrors.NewUnavailable("service temporarily unavailable")
	}
	return err
}
