package verification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fix-it/marketplace/internal/auth"
	"github.com/fix-it/marketplace/internal/config"
	"github.com/fix-it/marketplace/internal/domain"
)

// PendingRegistration is the identity record created at flow start.
type PendingRegistration struct {
	Email        string
	FullName     string
	Phone        string
	Role         domain.UserRole
	PasswordHash string
}

// IdentityStore is the account backend the flow drives. Implementations
// must serialize writes per identifier.
type IdentityStore interface {
	// UpsertPending creates a PENDING account, or refreshes an existing
	// PENDING one. It returns ErrConflict when an ACTIVE account already
	// holds the identifier.
	UpsertPending(ctx context.Context, reg PendingRegistration) (*domain.User, error)
	// FindByEmail returns (nil, nil) when no account exists.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Activate promotes a PENDING account to ACTIVE.
	Activate(ctx context.Context, email string) (*domain.User, error)
	// UpdatePassword replaces the stored credential hash.
	UpdatePassword(ctx context.Context, email, passwordHash string) (*domain.User, error)
}

// Notifier delivers one-time codes out of band.
type Notifier interface {
	SendCode(ctx context.Context, email, code string, validFor time.Duration) error
}

// Challenge is returned when a code has been issued. Token is the opaque
// continuation handle for VerifyCode and Resend.
type Challenge struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

// Verified is returned by a successful VerifyCode. Token is scoped to the
// completion step only.
type Verified struct {
	Token string
	Kind  Kind
}

// Flow drives code-based verification for account activation and password
// recovery. All state lives in the Store behind opaque continuation
// tokens; failures leave the session at its current step.
type Flow struct {
	store      Store
	identities IdentityStore
	notifier   Notifier
	sessions   auth.SessionVersions
	cfg        config.VerificationConfig
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// FlowDependencies bundles collaborator requirements for the flow.
type FlowDependencies struct {
	Store      Store
	Identities IdentityStore
	Notifier   Notifier
	Sessions   auth.SessionVersions
}

// NewFlow builds the flow service.
func NewFlow(cfg config.VerificationConfig, bcryptCost int, deps FlowDependencies, logger *zap.Logger) *Flow {
	return &Flow{
		store:      deps.Store,
		identities: deps.Identities,
		notifier:   deps.Notifier,
		sessions:   deps.Sessions,
		cfg:        cfg,
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

// Initiate validates the identity fields for kind, creates or confirms the
// account record, issues a fresh code (invalidating any prior one) and
// sends it. The password-reset path answers success-shaped even for
// unknown identifiers so callers cannot probe for accounts.
func (f *Flow) Initiate(ctx context.Context, kind Kind, input InitiateInput) (*Challenge, error) {
	switch kind {
	case KindRegistration:
		return f.initiateRegistration(ctx, input)
	case KindPasswordReset:
		return f.initiateReset(ctx, input)
	default:
		verr := &ValidationError{}
		verr.add("kind", "Unknown verification kind")
		return nil, verr
	}
}

func (f *Flow) initiateRegistration(ctx context.Context, input InitiateInput) (*Challenge, error) {
	if verr := validateRegistration(input); verr != nil {
		return nil, verr
	}

	hash, err := auth.HashPassword(input.Password, f.bcryptCost)
	if err != nil {
		f.logger.Error("hash password", zap.Error(err))
		return nil, ErrTransient
	}

	if _, err := f.identities.UpsertPending(ctx, PendingRegistration{
		Email:        input.Email,
		FullName:     input.FullName,
		Phone:        input.Phone,
		Role:         input.Role,
		PasswordHash: hash,
	}); err != nil {
		if err == ErrConflict {
			return nil, ErrConflict
		}
		f.logger.Error("create pending account", zap.Error(err))
		return nil, ErrTransient
	}

	challenge, err := f.issueAndSend(ctx, KindRegistration, input.Email)
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

func (f *Flow) initiateReset(ctx context.Context, input InitiateInput) (*Challenge, error) {
	if verr := validateReset(input); verr != nil {
		return nil, verr
	}

	user, err := f.identities.FindByEmail(ctx, input.Email)
	if err != nil {
		f.logger.Error("look up account", zap.Error(err))
		return nil, ErrTransient
	}

	if user == nil || user.Status != domain.UserStatusActive {
		// Unknown or inactive identifier: hand back a token anyway. No
		// code exists behind it, so VerifyCode can never succeed, and
		// the caller learns nothing about the account's existence. The
		// cooldown is armed here too so Resend answers the same way on
		// both paths.
		if err := f.store.SetCooldown(ctx, input.Email, f.cfg.ResendCooldown()); err != nil {
			f.logger.Error("set cooldown", zap.Error(err))
			return nil, ErrTransient
		}
		return f.issueChallengeToken(ctx, KindPasswordReset, input.Email)
	}

	challenge, err := f.issueAndSend(ctx, KindPasswordReset, input.Email)
	if err == ErrDelivery {
		// Surfacing the delivery failure would reveal that the account
		// exists. Detail is already logged; answer success-shaped.
		return f.issueChallengeToken(ctx, KindPasswordReset, input.Email)
	}
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

// VerifyCode redeems the active code for the session behind token. On
// success the code is consumed and a verified-stage token is returned.
func (f *Flow) VerifyCode(ctx context.Context, token, code string) (*Verified, error) {
	state, err := f.flowState(ctx, token, StageCodeSent)
	if err != nil {
		return nil, err
	}

	rec, err := f.store.GetCode(ctx, state.Identifier)
	if err != nil {
		f.logger.Error("fetch code", zap.Error(err))
		return nil, ErrTransient
	}
	if rec == nil {
		return nil, ErrNotFound
	}

	// Fail closed: a code checked at the expiry instant is expired.
	if !f.now().Before(rec.ExpiresAt) {
		_ = f.store.DeleteCode(ctx, state.Identifier)
		return nil, ErrExpired
	}

	attempts, err := f.store.IncrAttempts(ctx, state.Identifier)
	if err != nil {
		f.logger.Error("count attempt", zap.Error(err))
		return nil, ErrTransient
	}
	if f.cfg.MaxAttempts > 0 && attempts > int64(f.cfg.MaxAttempts) {
		_ = f.store.DeleteCode(ctx, state.Identifier)
		return nil, ErrTooManyAttempts
	}

	if rec.Code != code {
		return nil, ErrMismatch
	}

	// Consumed: the code and the first-stage token are both gone now.
	if err := f.store.DeleteCode(ctx, state.Identifier); err != nil {
		f.logger.Error("consume code", zap.Error(err))
		return nil, ErrTransient
	}
	_ = f.store.DeleteFlowState(ctx, token)

	verifiedToken := uuid.NewString()
	if err := f.store.SaveFlowState(ctx, verifiedToken, FlowState{
		Identifier: state.Identifier,
		Kind:       state.Kind,
		Stage:      StageVerified,
	}, f.cfg.FlowTokenTTL()); err != nil {
		f.logger.Error("save verified state", zap.Error(err))
		return nil, ErrTransient
	}

	return &Verified{Token: verifiedToken, Kind: state.Kind}, nil
}

// Resend issues a fresh code for the session behind token, invalidating
// the previous one. A server-side cooldown bounds how often codes go out.
func (f *Flow) Resend(ctx context.Context, token string) (*Challenge, error) {
	state, err := f.flowState(ctx, token, StageCodeSent)
	if err != nil {
		return nil, err
	}

	remaining, err := f.store.CooldownRemaining(ctx, state.Identifier)
	if err != nil {
		f.logger.Error("check cooldown", zap.Error(err))
		return nil, ErrTransient
	}
	if remaining > 0 {
		return nil, &CooldownError{RetryAfter: remaining}
	}

	if state.Kind == KindPasswordReset {
		user, err := f.identities.FindByEmail(ctx, state.Identifier)
		if err != nil {
			f.logger.Error("look up account", zap.Error(err))
			return nil, ErrTransient
		}
		if user == nil || user.Status != domain.UserStatusActive {
			// Keep the success shape for unknown identifiers, re-arming
			// the cooldown as a real issue would.
			if err := f.store.SetCooldown(ctx, state.Identifier, f.cfg.ResendCooldown()); err != nil {
				f.logger.Error("set cooldown", zap.Error(err))
				return nil, ErrTransient
			}
			return &Challenge{Token: token, Email: state.Identifier, ExpiresAt: f.now().Add(f.cfg.CodeTTL())}, nil
		}
	}

	code, expiresAt, err := f.issueCode(ctx, state.Identifier)
	if err != nil {
		return nil, err
	}
	if err := f.deliver(ctx, state.Identifier, code); err != nil {
		if state.Kind == KindPasswordReset {
			return &Challenge{Token: token, Email: state.Identifier, ExpiresAt: expiresAt}, nil
		}
		return nil, err
	}

	return &Challenge{Token: token, Email: state.Identifier, ExpiresAt: expiresAt}, nil
}

// CompleteRegistration promotes the pending account behind a verified
// registration token to ACTIVE.
func (f *Flow) CompleteRegistration(ctx context.Context, verifiedToken string) (*domain.User, error) {
	state, err := f.verifiedState(ctx, verifiedToken, KindRegistration)
	if err != nil {
		return nil, err
	}

	user, err := f.identities.Activate(ctx, state.Identifier)
	if err != nil {
		f.logger.Error("activate account", zap.String("email", state.Identifier), zap.Error(err))
		return nil, ErrTransient
	}

	_ = f.store.DeleteFlowState(ctx, verifiedToken)
	f.logger.Info("account activated", zap.String("user_id", user.ID))
	return user, nil
}

// CompleteReset sets a new credential for the account behind a verified
// password-reset token and revokes every session issued before the change.
func (f *Flow) CompleteReset(ctx context.Context, verifiedToken, newPassword, confirmPassword string) (*domain.User, error) {
	state, err := f.verifiedState(ctx, verifiedToken, KindPasswordReset)
	if err != nil {
		return nil, err
	}

	if verr := validateNewPassword(newPassword, confirmPassword); verr != nil {
		return nil, verr
	}

	hash, err := auth.HashPassword(newPassword, f.bcryptCost)
	if err != nil {
		f.logger.Error("hash password", zap.Error(err))
		return nil, ErrTransient
	}

	user, err := f.identities.UpdatePassword(ctx, state.Identifier, hash)
	if err != nil {
		f.logger.Error("update credential", zap.String("email", state.Identifier), zap.Error(err))
		return nil, ErrTransient
	}

	if _, err := f.sessions.Bump(ctx, user.ID); err != nil {
		f.logger.Error("revoke sessions", zap.String("user_id", user.ID), zap.Error(err))
		return nil, ErrTransient
	}

	_ = f.store.DeleteFlowState(ctx, verifiedToken)
	f.logger.Info("credential reset", zap.String("user_id", user.ID))
	return user, nil
}

func (f *Flow) flowState(ctx context.Context, token string, stage Stage) (*FlowState, error) {
	state, err := f.store.GetFlowState(ctx, token)
	if err != nil {
		f.logger.Error("fetch flow state", zap.Error(err))
		return nil, ErrTransient
	}
	if state == nil || state.Stage != stage {
		return nil, ErrNotFound
	}
	return state, nil
}

func (f *Flow) verifiedState(ctx context.Context, token string, kind Kind) (*FlowState, error) {
	state, err := f.flowState(ctx, token, StageVerified)
	if err != nil {
		return nil, err
	}
	if state.Kind != kind {
		return nil, ErrNotFound
	}
	return state, nil
}

// issueAndSend issues a code, starts a session and delivers the code.
func (f *Flow) issueAndSend(ctx context.Context, kind Kind, email string) (*Challenge, error) {
	code, expiresAt, err := f.issueCode(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := f.deliver(ctx, email, code); err != nil {
		return nil, err
	}

	challenge, err := f.issueChallengeToken(ctx, kind, email)
	if err != nil {
		return nil, err
	}
	challenge.ExpiresAt = expiresAt
	return challenge, nil
}

// issueCode stores a fresh code for the identifier. The write replaces
// any previous unconsumed code, so at most one stays active.
func (f *Flow) issueCode(ctx context.Context, email string) (string, time.Time, error) {
	code, err := GenerateCode()
	if err != nil {
		f.logger.Error("generate code", zap.Error(err))
		return "", time.Time{}, ErrTransient
	}

	issuedAt := f.now()
	expiresAt := issuedAt.Add(f.cfg.CodeTTL())
	if err := f.store.SaveCode(ctx, email, CodeRecord{
		Code:      code,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}); err != nil {
		f.logger.Error("store code", zap.Error(err))
		return "", time.Time{}, ErrTransient
	}
	if err := f.store.SetCooldown(ctx, email, f.cfg.ResendCooldown()); err != nil {
		f.logger.Error("set cooldown", zap.Error(err))
		return "", time.Time{}, ErrTransient
	}
	return code, expiresAt, nil
}

func (f *Flow) deliver(ctx context.Context, email, code string) error {
	if err := f.notifier.SendCode(ctx, email, code, f.cfg.CodeTTL()); err != nil {
		f.logger.Error("deliver code", zap.String("email", email), zap.Error(err))
		return ErrDelivery
	}
	return nil
}

func (f *Flow) issueChallengeToken(ctx context.Context, kind Kind, email string) (*Challenge, error) {
	token := uuid.NewString()
	if err := f.store.SaveFlowState(ctx, token, FlowState{
		Identifier: email,
		Kind:       kind,
		Stage:      StageCodeSent,
	}, f.cfg.FlowTokenTTL()); err != nil {
		f.logger.Error("save flow state", zap.Error(err))
		return nil, ErrTransient
	}
	return &Challenge{Token: token, Email: email, ExpiresAt: f.now().Add(f.cfg.CodeTTL())}, nil
}
