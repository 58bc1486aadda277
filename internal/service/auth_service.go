package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/fix-it/marketplace/internal/auth"
	"github.com/fix-it/marketplace/internal/config"
	"github.com/fix-it/marketplace/internal/domain"
	"github.com/fix-it/marketplace/internal/events"
	"github.com/fix-it/marketplace/internal/repository"
	"github.com/fix-it/marketplace/internal/verification"
)

// ErrInvalidCredentials is returned for wrong email/password pairs.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAccountNotVerified is returned when a PENDING account tries to log in.
var ErrAccountNotVerified = errors.New("account not verified")

// AuthService coordinates login and the code-based verification flows.
type AuthService struct {
	users      repository.UserRepository
	handymen   repository.HandymanRepository
	flow       *verification.Flow
	tokenMgr   *auth.TokenManager
	sessions   auth.SessionVersions
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	HandymanRepo repository.HandymanRepository
	Flow         *verification.Flow
	Sessions     auth.SessionVersions
	Dispatcher   events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		handymen:   deps.HandymanRepo,
		flow:       deps.Flow,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Login authenticates an active account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if user.Status == domain.UserStatusPending {
		return nil, "", time.Time{}, ErrAccountNotVerified
	}
	if user.Status != domain.UserStatusActive {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, exp, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// InitiateRegistration starts the activation flow for a new account.
func (s *AuthService) InitiateRegistration(ctx context.Context, input verification.InitiateInput) (*verification.Challenge, error) {
	input.Email = strings.ToLower(input.Email)
	return s.flow.Initiate(ctx, verification.KindRegistration, input)
}

// InitiatePasswordReset starts the recovery flow for an identifier.
func (s *AuthService) InitiatePasswordReset(ctx context.Context, email string) (*verification.Challenge, error) {
	return s.flow.Initiate(ctx, verification.KindPasswordReset, verification.InitiateInput{Email: strings.ToLower(email)})
}

// VerifyCode redeems a one-time code for a verified-stage token.
func (s *AuthService) VerifyCode(ctx context.Context, token, code string) (*verification.Verified, error) {
	return s.flow.VerifyCode(ctx, token, code)
}

// ResendCode delivers a fresh code for an in-flight flow session.
func (s *AuthService) ResendCode(ctx context.Context, token string) (*verification.Challenge, error) {
	return s.flow.Resend(ctx, token)
}

// CompleteRegistration activates the verified account and signs it in.
// Handyman accounts get a marketplace profile on first activation.
func (s *AuthService) CompleteRegistration(ctx context.Context, verifiedToken string) (*domain.User, string, time.Time, error) {
	user, err := s.flow.CompleteRegistration(ctx, verifiedToken)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	if user.Role == domain.RoleHandyman {
		if err := s.ensureHandymanProfile(ctx, user.ID); err != nil {
			s.logger.Error("create handyman profile", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	s.publish(ctx, events.Event{
		Type:      events.EventUserRegistered,
		SubjectID: user.ID,
		Payload:   events.UserRegisteredPayload{Email: user.Email, Role: user.Role},
	})

	token, exp, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// CompleteReset sets the new credential and revokes existing sessions.
func (s *AuthService) CompleteReset(ctx context.Context, verifiedToken, newPassword, confirmPassword string) error {
	user, err := s.flow.CompleteReset(ctx, verifiedToken, newPassword, confirmPassword)
	if err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type:      events.EventPasswordReset,
		SubjectID: user.ID,
		Payload:   events.PasswordResetPayload{Email: user.Email},
	})
	return nil
}

// ChangePassword verifies the current password before updating, then
// rotates the session so older tokens stop working.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, confirmPassword string) (string, time.Time, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	if msgs := auth.ValidatePassword(newPassword); len(msgs) > 0 {
		return "", time.Time{}, &verification.ValidationError{Fields: map[string][]string{"newPassword": msgs}}
	}
	if newPassword != confirmPassword {
		return "", time.Time{}, &verification.ValidationError{Fields: map[string][]string{"confirmPassword": {"Passwords don't match"}}}
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return "", time.Time{}, err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return "", time.Time{}, err
	}

	if _, err := s.sessions.Bump(ctx, user.ID); err != nil {
		return "", time.Time{}, err
	}
	return s.issueToken(ctx, user)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issueToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	version, err := s.sessions.Current(ctx, user.ID)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.tokenMgr.GenerateToken(user.ID, user.Role, version)
}

func (s *AuthService) ensureHandymanProfile(ctx context.Context, userID string) error {
	if _, err := s.handymen.GetByUserID(ctx, userID); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return s.handymen.Create(ctx, &domain.HandymanProfile{
		UserID:       userID,
		IsAvailable:  true,
		Verification: domain.VerificationPending,
	})
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.Timestamp = time.Now()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
