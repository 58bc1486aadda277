package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fix-it/marketplace/internal/auth"
	"github.com/fix-it/marketplace/internal/config"
	"github.com/fix-it/marketplace/internal/domain"
)

type fakeIdentities struct {
	users map[string]*domain.User
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{users: make(map[string]*domain.User)}
}

func (f *fakeIdentities) addActive(email, passwordHash string) *domain.User {
	user := &domain.User{
		ID:           "user-" + email,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         domain.RoleCustomer,
		Status:       domain.UserStatusActive,
	}
	f.users[email] = user
	return user
}

func (f *fakeIdentities) UpsertPending(_ context.Context, reg PendingRegistration) (*domain.User, error) {
	if existing, ok := f.users[reg.Email]; ok {
		if existing.Status != domain.UserStatusPending {
			return nil, ErrConflict
		}
		existing.FullName = reg.FullName
		existing.Phone = reg.Phone
		existing.Role = reg.Role
		existing.PasswordHash = reg.PasswordHash
		return existing, nil
	}
	user := &domain.User{
		ID:           "user-" + reg.Email,
		Email:        reg.Email,
		FullName:     reg.FullName,
		Phone:        reg.Phone,
		PasswordHash: reg.PasswordHash,
		Role:         reg.Role,
		Status:       domain.UserStatusPending,
	}
	f.users[reg.Email] = user
	return user, nil
}

func (f *fakeIdentities) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return f.users[email], nil
}

func (f *fakeIdentities) Activate(_ context.Context, email string) (*domain.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, errors.New("no such account")
	}
	user.Status = domain.UserStatusActive
	return user, nil
}

func (f *fakeIdentities) UpdatePassword(_ context.Context, email, passwordHash string) (*domain.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, errors.New("no such account")
	}
	user.PasswordHash = passwordHash
	return user, nil
}

type fakeNotifier struct {
	sent []sentCode
	fail bool
}

type sentCode struct {
	email string
	code  string
}

func (f *fakeNotifier) SendCode(_ context.Context, email, code string, _ time.Duration) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, sentCode{email: email, code: code})
	return nil
}

func (f *fakeNotifier) lastCode() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].code
}

type flowFixture struct {
	flow       *Flow
	store      *MemoryStore
	identities *fakeIdentities
	notifier   *fakeNotifier
	sessions   auth.SessionVersions
	now        time.Time
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	fx := &flowFixture{
		store:      NewMemoryStore(),
		identities: newFakeIdentities(),
		notifier:   &fakeNotifier{},
		sessions:   auth.NewMemorySessionVersions(),
		now:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	fx.store.Now = func() time.Time { return fx.now }

	cfg := config.VerificationConfig{
		CodeTTLMinutes:        10,
		ResendCooldownSeconds: 60,
		MaxAttempts:           5,
		FlowTokenTTLMinutes:   15,
	}
	fx.flow = NewFlow(cfg, bcrypt.MinCost, FlowDependencies{
		Store:      fx.store,
		Identities: fx.identities,
		Notifier:   fx.notifier,
		Sessions:   fx.sessions,
	}, zap.NewNop())
	fx.flow.now = func() time.Time { return fx.now }

	return fx
}

func (fx *flowFixture) advance(d time.Duration) {
	fx.now = fx.now.Add(d)
}

func registrationInput(email string) InitiateInput {
	return InitiateInput{
		Email:           email,
		FullName:        "Sara Connor",
		Phone:           "+15551234567",
		Role:            domain.RoleCustomer,
		Password:        "Str0ng!pass",
		ConfirmPassword: "Str0ng!pass",
	}
}

func TestRegistrationFlowActivatesAccount(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	challenge, err := fx.flow.Initiate(ctx, KindRegistration, registrationInput("sara@example.com"))
	require.NoError(t, err)
	require.NotEmpty(t, challenge.Token)
	assert.Equal(t, "sara@example.com", challenge.Email)
	assert.Equal(t, fx.now.Add(10*time.Minute), challenge.ExpiresAt)

	require.Len(t, fx.notifier.sent, 1)
	code := fx.notifier.lastCode()
	require.True(t, ValidCodeShape(code))

	pending := fx.identities.users["sara@example.com"]
	require.NotNil(t, pending)
	assert.Equal(t, domain.UserStatusPending, pending.Status)

	verified, err := fx.flow.VerifyCode(ctx, challenge.Token, code)
	require.NoError(t, err)
	assert.Equal(t, KindRegistration, verified.Kind)
	assert.NotEqual(t, challenge.Token, verified.Token)

	user, err := fx.flow.CompleteRegistration(ctx, verified.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusActive, user.Status)
}

func TestRegistrationConflictForActiveAccount(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	fx.identities.addActive("taken@example.com", "hash")

	_, err := fx.flow.Initiate(ctx, KindRegistration, registrationInput("taken@example.com"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegistrationRejectsWeakPassword(t *testing.T) {
	fx := newFlowFixture(t)

	input := registrationInput("weak@example.com")
	input.Password = "lowercaseonly"
	input.ConfirmPassword = "different"

	_, err := fx.flow.Initiate(context.Background(), KindRegistration, input)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Fields["password"])
	assert.NotEmpty(t, verr.Fields["confirmPassword"])
	assert.Empty(t, fx.notifier.sent)
}

func TestVerifyCodeIsSingleUse(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	challenge, err := fx.flow.Initiate(ctx, KindRegistration, registrationInput("once@example.com"))
	require.NoError(t, err)
	code := fx.notifier.lastCode()

	_, err = fx.flow.VerifyCode(ctx, challenge.Token, code)
	require.NoError(t, err)

	_, err = fx.flow.VerifyCode(ctx, challenge.Token, code)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyCodeExpiryBoundary(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	challenge, err := fx.flow.Initiate(ctx, KindRegistration, registrationInput("edge@example.com"))
	require.NoError(t, err)
	code := fx.notifier.lastCode()

	fx.advance(9*time.Minute + 59*time.Second)
	_, err = fx.flow.VerifyCode(ctx, challenge.Token, code)
	require.NoError(t, err)

	fx = newFlowFixture(t)
	challenge, err = fx.flow.Initiate(ctx, KindRegistration, registrationInput("edge@example.com"))
	require.NoError(t, err)
	code = fx.notifier.lastCode()

	fx.advance(10 * time.Minute)
	_, err = fx.flow.VerifyCode(ctx, challenge.Token, code)
	assert.ErrorIs(t, err, ErrExpired)

	// The expired code is gone for good.
	_, err = fx.flow.VerifyCode(ctx, challenge.Token, code)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReinitiateInvalidatesPriorCode(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	_, err := fx.flow.Initiate(ctx, KindRegistration, registrationInput("again@example.com"))
	require.NoError(t, err)
	firstCode := fx.notifier.lastCode()

	second, err := fx.flow.Initiate(ctx, KindRegistration, registrationInput("again@example.com"))
	require.NoError(t, err)
	secondCode := fx.notifier.lastCode()
	require.NotEqual(t, firstCode, secondCode)

	_, err = fx.flow.VerifyCode(ctx, second.Token, firstCode)
	assert.ErrorIs(t, err, ErrMismatch)

	_, err = fx.flow.VerifyCode(ctx, second.Token, secondCode)
	assert.NoError(t, err)
}

func TestAttemptCapLocksOutCode(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	challenge, err := fx.flow.Initiate(ctx, KindRegistration, registrationInput("guess@example.com"))
	require.NoError(t, err)
	code := fx.notifier.lastCode()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < 5; i++ {
		_, err = fx.flow.VerifyCode(ctx, challenge.Token, wrong)
		assert.ErrorIs(t, err, ErrMismatch)
	}

	_, err = fx.flow.VerifyCode(ctx, challenge.Token, wrong)
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	// Even the right code is dead now.
	_, err = fx.flow.VerifyCode(ctx, challenge.Token, code)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResendCooldown(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	challenge, err := fx.flow.Initiate(ctx, KindRegistration, registrationInput("resend@example.com"))
	require.NoError(t, err)
	firstCode := fx.notifier.lastCode()

	_, err = fx.flow.Resend(ctx, challenge.Token)
	var cooldown *CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Greater(t, cooldown.RetryAfter, time.Duration(0))

	fx.advance(61 * time.Second)
	renewed, err := fx.flow.Resend(ctx, challenge.Token)
	require.NoError(t, err)
	assert.Equal(t, challenge.Token, renewed.Token)

	secondCode := fx.notifier.lastCode()
	require.NotEqual(t, firstCode, secondCode)

	_, err = fx.flow.VerifyCode(ctx, challenge.Token, firstCode)
	assert.ErrorIs(t, err, ErrMismatch)

	_, err = fx.flow.VerifyCode(ctx, challenge.Token, secondCode)
	assert.NoError(t, err)
}

func TestPasswordResetRoundTrip(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	oldHash, err := auth.HashPassword("Old1!pass", bcrypt.MinCost)
	require.NoError(t, err)
	user := fx.identities.addActive("reset@example.com", oldHash)

	challenge, err := fx.flow.Initiate(ctx, KindPasswordReset, InitiateInput{Email: "reset@example.com"})
	require.NoError(t, err)
	require.Len(t, fx.notifier.sent, 1)

	verified, err := fx.flow.VerifyCode(ctx, challenge.Token, fx.notifier.lastCode())
	require.NoError(t, err)
	assert.Equal(t, KindPasswordReset, verified.Kind)

	updated, err := fx.flow.CompleteReset(ctx, verified.Token, "New2@pass", "New2@pass")
	require.NoError(t, err)
	assert.NoError(t, auth.ComparePassword(updated.PasswordHash, "New2@pass"))
	assert.Error(t, auth.ComparePassword(updated.PasswordHash, "Old1!pass"))

	// Outstanding sessions are revoked by the generation bump.
	version, err := fx.sessions.Current(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestPasswordResetUnknownEmailIsOpaque(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	challenge, err := fx.flow.Initiate(ctx, KindPasswordReset, InitiateInput{Email: "ghost@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, challenge.Token)
	assert.Empty(t, fx.notifier.sent)

	// No code exists behind the token, so it can never verify.
	_, err = fx.flow.VerifyCode(ctx, challenge.Token, "123456")
	assert.ErrorIs(t, err, ErrNotFound)

	// Resend keeps the same shape without sending anything.
	fx.advance(2 * time.Minute)
	renewed, err := fx.flow.Resend(ctx, challenge.Token)
	require.NoError(t, err)
	assert.Equal(t, challenge.Token, renewed.Token)
	assert.Empty(t, fx.notifier.sent)
}

func TestResendAnswersUnknownEmailLikeKnown(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	fx.identities.addActive("known@example.com", "hash")

	known, err := fx.flow.Initiate(ctx, KindPasswordReset, InitiateInput{Email: "known@example.com"})
	require.NoError(t, err)
	unknown, err := fx.flow.Initiate(ctx, KindPasswordReset, InitiateInput{Email: "ghost@example.com"})
	require.NoError(t, err)

	// An immediate resend hits the cooldown on both paths alike.
	var cooldown *CooldownError
	_, err = fx.flow.Resend(ctx, known.Token)
	require.ErrorAs(t, err, &cooldown)
	_, err = fx.flow.Resend(ctx, unknown.Token)
	require.ErrorAs(t, err, &cooldown)

	fx.advance(61 * time.Second)
	_, err = fx.flow.Resend(ctx, known.Token)
	require.NoError(t, err)
	_, err = fx.flow.Resend(ctx, unknown.Token)
	require.NoError(t, err)

	// And the resend re-arms it on both paths alike.
	_, err = fx.flow.Resend(ctx, known.Token)
	require.ErrorAs(t, err, &cooldown)
	_, err = fx.flow.Resend(ctx, unknown.Token)
	require.ErrorAs(t, err, &cooldown)
}

func TestPasswordResetDeliveryFailureIsOpaque(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	fx.identities.addActive("real@example.com", "hash")
	fx.notifier.fail = true

	challenge, err := fx.flow.Initiate(ctx, KindPasswordReset, InitiateInput{Email: "real@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, challenge.Token)
}

func TestRegistrationDeliveryFailureSurfaces(t *testing.T) {
	fx := newFlowFixture(t)
	fx.notifier.fail = true

	_, err := fx.flow.Initiate(context.Background(), KindRegistration, registrationInput("down@example.com"))
	assert.ErrorIs(t, err, ErrDelivery)
}

func TestCompleteResetRejectsWeakPasswordKeepingToken(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()
	fx.identities.addActive("retry@example.com", "hash")

	challenge, err := fx.flow.Initiate(ctx, KindPasswordReset, InitiateInput{Email: "retry@example.com"})
	require.NoError(t, err)
	verified, err := fx.flow.VerifyCode(ctx, challenge.Token, fx.notifier.lastCode())
	require.NoError(t, err)

	_, err = fx.flow.CompleteReset(ctx, verified.Token, "short", "short")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Fields["newPassword"])

	// The verified token survives a rejected password so the user can retry.
	_, err = fx.flow.CompleteReset(ctx, verified.Token, "Good3#pass", "Good3#pass")
	assert.NoError(t, err)
}

func TestVerifiedTokenIsKindScoped(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	challenge, err := fx.flow.Initiate(ctx, KindRegistration, registrationInput("scoped@example.com"))
	require.NoError(t, err)
	verified, err := fx.flow.VerifyCode(ctx, challenge.Token, fx.notifier.lastCode())
	require.NoError(t, err)

	_, err = fx.flow.CompleteReset(ctx, verified.Token, "Good3#pass", "Good3#pass")
	assert.ErrorIs(t, err, ErrNotFound)

	// And a first-stage token is useless at the completion step.
	_, err = fx.flow.CompleteRegistration(ctx, challenge.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFlowTokenExpires(t *testing.T) {
	fx := newFlowFixture(t)
	ctx := context.Background()

	challenge, err := fx.flow.Initiate(ctx, KindRegistration, registrationInput("stale@example.com"))
	require.NoError(t, err)

	fx.advance(16 * time.Minute)
	_, err = fx.flow.VerifyCode(ctx, challenge.Token, fx.notifier.lastCode())
	assert.ErrorIs(t, err, ErrNotFound)
}
