package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fix-it/marketplace/internal/auth"
	"github.com/fix-it/marketplace/internal/config"
	"github.com/fix-it/marketplace/internal/domain"
	"github.com/fix-it/marketplace/internal/verification"
)

type fakeUserRepo struct {
	users map[string]*domain.User
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.seq++
	user.ID = "user-" + strconv.Itoa(r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *user
	return &out, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type recordingNotifier struct {
	codes map[string]string
}

func (n *recordingNotifier) SendCode(_ context.Context, email, code string, _ time.Duration) error {
	if n.codes == nil {
		n.codes = make(map[string]string)
	}
	n.codes[email] = code
	return nil
}

type authFixture struct {
	svc      *AuthService
	users    *fakeUserRepo
	handymen *fakeHandymanRepo
	notifier *recordingNotifier
	sessions auth.SessionVersions
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	fx := &authFixture{
		users:    newFakeUserRepo(),
		handymen: newFakeHandymanRepo(),
		notifier: &recordingNotifier{},
		sessions: auth.NewMemorySessionVersions(),
	}

	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            bcrypt.MinCost,
		},
		Verification: config.VerificationConfig{
			CodeTTLMinutes:        10,
			ResendCooldownSeconds: 60,
			MaxAttempts:           5,
			FlowTokenTTLMinutes:   15,
		},
	}

	flow := verification.NewFlow(cfg.Verification, cfg.Auth.BcryptCost, verification.FlowDependencies{
		Store:      verification.NewMemoryStore(),
		Identities: NewIdentityStore(fx.users),
		Notifier:   fx.notifier,
		Sessions:   fx.sessions,
	}, zap.NewNop())

	fx.svc = NewAuthService(cfg, AuthDependencies{
		UserRepo:     fx.users,
		HandymanRepo: fx.handymen,
		Flow:         flow,
		Sessions:     fx.sessions,
	}, zap.NewNop())

	return fx
}

func (fx *authFixture) register(t *testing.T, email string, role domain.UserRole) *domain.User {
	t.Helper()
	ctx := context.Background()

	challenge, err := fx.svc.InitiateRegistration(ctx, verification.InitiateInput{
		Email:           email,
		FullName:        "Jamie Doe",
		Phone:           "+15550001111",
		Role:            role,
		Password:        "Str0ng!pass",
		ConfirmPassword: "Str0ng!pass",
	})
	require.NoError(t, err)

	verified, err := fx.svc.VerifyCode(ctx, challenge.Token, fx.notifier.codes[email])
	require.NoError(t, err)

	user, token, _, err := fx.svc.CompleteRegistration(ctx, verified.Token)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	return user
}

func TestRegistrationThenLogin(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	user := fx.register(t, "jamie@example.com", domain.RoleCustomer)
	assert.Equal(t, domain.UserStatusActive, user.Status)

	loggedIn, token, exp, err := fx.svc.Login(ctx, "Jamie@Example.com", "Str0ng!pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, token)
	assert.True(t, exp.After(time.Now()))
}

func TestLoginRejectsPendingAccount(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	_, err := fx.svc.InitiateRegistration(ctx, verification.InitiateInput{
		Email:           "pending@example.com",
		FullName:        "Jamie Doe",
		Phone:           "+15550001111",
		Role:            domain.RoleCustomer,
		Password:        "Str0ng!pass",
		ConfirmPassword: "Str0ng!pass",
	})
	require.NoError(t, err)

	_, _, _, err = fx.svc.Login(ctx, "pending@example.com", "Str0ng!pass")
	assert.ErrorIs(t, err, ErrAccountNotVerified)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	fx.register(t, "jamie@example.com", domain.RoleCustomer)

	_, _, _, err := fx.svc.Login(ctx, "jamie@example.com", "Wrong1!pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = fx.svc.Login(ctx, "nobody@example.com", "Str0ng!pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestHandymanRegistrationCreatesProfile(t *testing.T) {
	fx := newAuthFixture(t)

	user := fx.register(t, "pro@example.com", domain.RoleHandyman)

	profile, err := fx.handymen.GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationPending, profile.Verification)
	assert.True(t, profile.IsAvailable)
}

func TestPasswordResetRevokesTokens(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	user := fx.register(t, "jamie@example.com", domain.RoleCustomer)

	_, oldToken, _, err := fx.svc.Login(ctx, "jamie@example.com", "Str0ng!pass")
	require.NoError(t, err)

	challenge, err := fx.svc.InitiatePasswordReset(ctx, "jamie@example.com")
	require.NoError(t, err)
	verified, err := fx.svc.VerifyCode(ctx, challenge.Token, fx.notifier.codes["jamie@example.com"])
	require.NoError(t, err)
	require.NoError(t, fx.svc.CompleteReset(ctx, verified.Token, "Fresh4$pass", "Fresh4$pass"))

	_, _, _, err = fx.svc.Login(ctx, "jamie@example.com", "Str0ng!pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, _, err = fx.svc.Login(ctx, "jamie@example.com", "Fresh4$pass")
	assert.NoError(t, err)

	// Tokens minted before the reset carry a stale session generation.
	claims, err := fx.svc.TokenManager().ParseToken(oldToken)
	require.NoError(t, err)
	current, err := fx.sessions.Current(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, current, claims.SessionVersion)
}

func TestChangePassword(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	user := fx.register(t, "jamie@example.com", domain.RoleCustomer)

	_, _, err := fx.svc.ChangePassword(ctx, user.ID, "Wrong1!pass", "Fresh4$pass", "Fresh4$pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = fx.svc.ChangePassword(ctx, user.ID, "Str0ng!pass", "weak", "weak")
	var verr *verification.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.NotEmpty(t, verr.Fields["newPassword"])

	token, _, err := fx.svc.ChangePassword(ctx, user.ID, "Str0ng!pass", "Fresh4$pass", "Fresh4$pass")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, _, _, err = fx.svc.Login(ctx, "jamie@example.com", "Fresh4$pass")
	assert.NoError(t, err)

	// The returned token reflects the bumped session generation.
	claims, err := fx.svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	current, err := fx.sessions.Current(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, current, claims.SessionVersion)
}
