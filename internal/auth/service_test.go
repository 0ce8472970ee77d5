// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: platform@inkwell.app

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-app/inkwell/internal/auth"
	"github.com/inkwell-app/inkwell/internal/platform/apperr"
	"github.com/inkwell-app/inkwell/internal/platform/sec"
)

// ── Fakes ─────────────────────────────────────────────────────────────────

// memoryUserRepository is an in-memory [auth.UserRepository] for tests.
// It mirrors the store contract: absence is apperr.NotFound, Activate
// clears the code atomically.
type memoryUserRepository struct {
	users map[string]*auth.User // keyed by ID
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*auth.User)}
}

func (repo *memoryUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := repo.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, apperr.NotFound("Account")
}

func (repo *memoryUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range repo.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (repo *memoryUserRepository) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, user := range repo.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (repo *memoryUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := repo.FindByEmail(ctx, email)
	return err == nil, nil
}

func (repo *memoryUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := repo.FindByUsername(ctx, username)
	return err == nil, nil
}

func (repo *memoryUserRepository) Create(_ context.Context, user *auth.User) error {
	copied := *user
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	repo.users[user.ID] = &copied
	return nil
}

func (repo *memoryUserRepository) Activate(_ context.Context, id string) error {
	user, ok := repo.users[id]
	if !ok {
		return apperr.NotFound("Account")
	}
	user.IsActive = true
	user.VerificationCode = nil
	user.VerificationExpiry = nil
	return nil
}

func (repo *memoryUserRepository) SetVerificationCode(_ context.Context, id string, code string, expiresAt time.Time) error {
	user, ok := repo.users[id]
	if !ok {
		return apperr.NotFound("Account")
	}
	user.VerificationCode = &code
	user.VerificationExpiry = &expiresAt
	return nil
}

// expireCode force-ages the stored window so expiry paths can be tested
// without sleeping.
func (repo *memoryUserRepository) expireCode(id string) {
	past := time.Now().Add(-time.Minute)
	repo.users[id].VerificationExpiry = &past
}

// captureMailer records each delivery. failWith, when set, simulates an
// unreachable SMTP relay.
type captureMailer struct {
	failWith  error
	sentCount int
	lastTo    string
	lastCode  string
}

func (mailer *captureMailer) SendActivationCode(_ context.Context, to, _, code string, _ time.Time) error {
	if mailer.failWith != nil {
		return mailer.failWith
	}
	mailer.sentCount++
	mailer.lastTo = to
	mailer.lastCode = code
	return nil
}

// staticTokenProvider mints a predictable token instead of a real JWT.
type staticTokenProvider struct {
	failWith error
}

func (provider *staticTokenProvider) GenerateAccessToken(userID, _, _ string) (string, error) {
	if provider.failWith != nil {
		return "", provider.failWith
	}
	return "token-for-" + userID, nil
}

// scriptedCooldown returns a fixed Acquire outcome.
type scriptedCooldown struct {
	acquired bool
	err      error
	calls    int
}

func (cooldown *scriptedCooldown) Acquire(_ context.Context, _ string, _ time.Duration) (bool, error) {
	cooldown.calls++
	return cooldown.acquired, cooldown.err
}

// ── Harness ───────────────────────────────────────────────────────────────

type serviceFixture struct {
	service  *auth.Service
	repo     *memoryUserRepository
	mailer   *captureMailer
	tokens   *staticTokenProvider
	cooldown *scriptedCooldown
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	fixture := &serviceFixture{
		repo:     newMemoryUserRepository(),
		mailer:   &captureMailer{},
		tokens:   &staticTokenProvider{},
		cooldown: &scriptedCooldown{acquired: true},
	}
	fixture.service = auth.NewService(
		fixture.repo,
		fixture.tokens,
		sec.NewHasher(bcrypt.MinCost), // MinCost keeps the suite fast.
		fixture.mailer,
		fixture.cooldown,
		auth.CodeTTLs{Registration: 24 * time.Hour, Resend: time.Hour},
	)
	return fixture
}

func validRegisterInput() auth.RegisterInput {
	return auth.RegisterInput{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "s3cret-password",
		ConfirmPassword: "s3cret-password",
	}
}

// register enrolls the standard test account and returns its ID and the
// emailed activation code.
func (fixture *serviceFixture) register(t *testing.T) (accountID, code string) {
	t.Helper()

	accountID, err := fixture.service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	require.NotEmpty(t, accountID)
	return accountID, fixture.mailer.lastCode
}

// ── Register ──────────────────────────────────────────────────────────────

/*
TestService_Register_HappyPath verifies the enrollment outcome: inactive
account, hashed password, code delivered to the account's email.
*/
func TestService_Register_HappyPath(t *testing.T) {
	fixture := newServiceFixture(t)

	accountID, code := fixture.register(t)

	stored := fixture.repo.users[accountID]
	require.NotNil(t, stored)
	assert.False(t, stored.IsActive, "new accounts start pending activation")
	assert.Equal(t, sec.RoleUser, stored.Role)
	assert.True(t, stored.HasPendingCode())

	// The password is stored only as a bcrypt digest.
	assert.NotEqual(t, "s3cret-password", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-password")))

	assert.Equal(t, 1, fixture.mailer.sentCount)
	assert.Equal(t, "alice@example.com", fixture.mailer.lastTo)
	assert.Equal(t, *stored.VerificationCode, code, "the emailed code is the persisted one")
}

/*
TestService_Register_PasswordMismatch verifies the confirmation check and
its field-level detail.
*/
func TestService_Register_PasswordMismatch(t *testing.T) {
	fixture := newServiceFixture(t)

	input := validRegisterInput()
	input.ConfirmPassword = "different"

	_, err := fixture.service.Register(context.Background(), input)
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
	require.Len(t, appError.Details, 1)
	assert.Equal(t, "confirm_password", appError.Details[0].Field)

	assert.Empty(t, fixture.repo.users, "nothing persisted on validation failure")
	assert.Zero(t, fixture.mailer.sentCount)
}

/*
TestService_Register_Duplicates verifies the conflict messages and that the
email check runs before the username check.
*/
func TestService_Register_Duplicates(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t)

	t.Run("duplicate_email_wins_over_duplicate_username", func(t *testing.T) {
		input := validRegisterInput() // same email AND same username
		_, err := fixture.service.Register(context.Background(), input)

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "CONFLICT", appError.Code)
		assert.Equal(t, "Email is already registered", appError.Message)
	})

	t.Run("duplicate_username", func(t *testing.T) {
		input := validRegisterInput()
		input.Email = "alice+fresh@example.com"
		_, err := fixture.service.Register(context.Background(), input)

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "CONFLICT", appError.Code)
		assert.Equal(t, "Username is already taken", appError.Message)
	})
}

/*
TestService_Register_DeliveryFailure verifies the accepted inconsistency:
the account stays persisted in pending state while the caller sees
DELIVERY_FAILED and can recover through resend.
*/
func TestService_Register_DeliveryFailure(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.mailer.failWith = errors.New("smtp: connection refused")

	_, err := fixture.service.Register(context.Background(), validRegisterInput())

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "DELIVERY_FAILED", appError.Code)

	require.Len(t, fixture.repo.users, 1, "account survives the failed send")
	for _, stored := range fixture.repo.users {
		assert.False(t, stored.IsActive)
		assert.True(t, stored.HasPendingCode())
	}

	// Recovery path: once the relay is back, resend delivers a fresh code.
	fixture.mailer.failWith = nil
	require.NoError(t, fixture.service.Resend(context.Background(), "alice@example.com"))
	assert.Equal(t, 1, fixture.mailer.sentCount)
}

// ── Credentials & Login ───────────────────────────────────────────────────

/*
TestService_ValidateCredentials verifies that unknown usernames and wrong
passwords collapse into one indistinguishable failure.
*/
func TestService_ValidateCredentials(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t)

	t.Run("correct_pair", func(t *testing.T) {
		user, err := fixture.service.ValidateCredentials(context.Background(), "alice", "s3cret-password")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("wrong_password_and_unknown_user_look_identical", func(t *testing.T) {
		_, wrongPasswordErr := fixture.service.ValidateCredentials(context.Background(), "alice", "wrong")
		_, unknownUserErr := fixture.service.ValidateCredentials(context.Background(), "nobody", "s3cret-password")

		wrongPassword := apperr.As(wrongPasswordErr)
		unknownUser := apperr.As(unknownUserErr)
		require.NotNil(t, wrongPassword)
		require.NotNil(t, unknownUser)

		assert.Equal(t, "UNAUTHORIZED", wrongPassword.Code)
		assert.Equal(t, wrongPassword.Message, unknownUser.Message)
		assert.Equal(t, wrongPassword.Code, unknownUser.Code)
	})
}

/*
TestService_Login_PendingAccount verifies that valid credentials against an
unactivated account fail with a condition distinct from bad credentials.
*/
func TestService_Login_PendingAccount(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t)

	_, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Username: "alice",
		Password: "s3cret-password",
	})

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "ACCOUNT_NOT_ACTIVATED", appError.Code)
}

/*
TestService_Login_AfterActivation verifies the full happy path: register,
verify with the emailed code, then log in and receive a session.
*/
func TestService_Login_AfterActivation(t *testing.T) {
	fixture := newServiceFixture(t)
	accountID, code := fixture.register(t)

	require.NoError(t, fixture.service.Verify(context.Background(), accountID, code))

	stored := fixture.repo.users[accountID]
	assert.True(t, stored.IsActive)
	assert.Nil(t, stored.VerificationCode, "activation clears the code")
	assert.Nil(t, stored.VerificationExpiry)

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Username: "alice",
		Password: "s3cret-password",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-for-"+accountID, session.AccessToken)
	assert.Equal(t, accountID, session.User.ID)
}

// ── Verify ────────────────────────────────────────────────────────────────

/*
TestService_Verify covers the activation decision table: wrong code,
expired window, repeat activation, and identifier resolution by email.
*/
func TestService_Verify(t *testing.T) {
	t.Run("wrong_code", func(t *testing.T) {
		fixture := newServiceFixture(t)
		accountID, _ := fixture.register(t)

		err := fixture.service.Verify(context.Background(), accountID, "definitely-wrong")

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "INVALID_CODE", appError.Code)
		assert.False(t, fixture.repo.users[accountID].IsActive)
	})

	t.Run("expired_window_beats_code_match", func(t *testing.T) {
		fixture := newServiceFixture(t)
		accountID, code := fixture.register(t)
		fixture.repo.expireCode(accountID)

		// The code itself is correct, but the window has passed. The caller
		// must be steered to resend, not told the code is wrong.
		err := fixture.service.Verify(context.Background(), accountID, code)

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "CODE_EXPIRED", appError.Code)
	})

	t.Run("repeat_activation_is_an_error", func(t *testing.T) {
		fixture := newServiceFixture(t)
		accountID, code := fixture.register(t)

		require.NoError(t, fixture.service.Verify(context.Background(), accountID, code))
		err := fixture.service.Verify(context.Background(), accountID, code)

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "ALREADY_ACTIVATED", appError.Code)
		assert.True(t, fixture.repo.users[accountID].IsActive, "account stays active")
	})

	t.Run("identifier_may_be_the_email", func(t *testing.T) {
		fixture := newServiceFixture(t)
		_, code := fixture.register(t)

		require.NoError(t, fixture.service.Verify(context.Background(), "alice@example.com", code))
	})

	t.Run("unknown_identifier", func(t *testing.T) {
		fixture := newServiceFixture(t)

		err := fixture.service.Verify(context.Background(), "ghost@example.com", "whatever")

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "NOT_FOUND", appError.Code)
	})
}

// ── Resend ────────────────────────────────────────────────────────────────

/*
TestService_Resend covers rotation: the new code replaces the old one
immediately, and only the new code activates.
*/
func TestService_Resend(t *testing.T) {
	fixture := newServiceFixture(t)
	accountID, originalCode := fixture.register(t)

	require.NoError(t, fixture.service.Resend(context.Background(), accountID))
	rotatedCode := fixture.mailer.lastCode
	require.NotEqual(t, originalCode, rotatedCode)

	// The original code died the moment the rotation was persisted.
	err := fixture.service.Verify(context.Background(), accountID, originalCode)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "INVALID_CODE", appError.Code)

	require.NoError(t, fixture.service.Verify(context.Background(), accountID, rotatedCode))
	assert.True(t, fixture.repo.users[accountID].IsActive)
}

/*
TestService_Resend_RecoversExpiredWindow verifies the expiry recovery loop:
an expired code is replaced by a fresh, working one.
*/
func TestService_Resend_RecoversExpiredWindow(t *testing.T) {
	fixture := newServiceFixture(t)
	accountID, _ := fixture.register(t)
	fixture.repo.expireCode(accountID)

	require.NoError(t, fixture.service.Resend(context.Background(), accountID))

	require.NoError(t, fixture.service.Verify(context.Background(), accountID, fixture.mailer.lastCode))
}

/*
TestService_Resend_ActiveAccount verifies the guard against resending to an
account that no longer needs a code.
*/
func TestService_Resend_ActiveAccount(t *testing.T) {
	fixture := newServiceFixture(t)
	accountID, code := fixture.register(t)
	require.NoError(t, fixture.service.Verify(context.Background(), accountID, code))

	err := fixture.service.Resend(context.Background(), accountID)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "ALREADY_ACTIVATED", appError.Code)
}

/*
TestService_Resend_Cooldown verifies the throttle outcomes: denied windows
return RATE_LIMITED, a broken cooldown store fails open.
*/
func TestService_Resend_Cooldown(t *testing.T) {
	t.Run("window_already_held", func(t *testing.T) {
		fixture := newServiceFixture(t)
		accountID, _ := fixture.register(t)
		fixture.cooldown.acquired = false

		err := fixture.service.Resend(context.Background(), accountID)

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "RATE_LIMITED", appError.Code)
		assert.Equal(t, 1, fixture.mailer.sentCount, "no mail beyond the registration one")
	})

	t.Run("store_failure_fails_open", func(t *testing.T) {
		fixture := newServiceFixture(t)
		accountID, _ := fixture.register(t)
		fixture.cooldown.err = errors.New("redis: connection refused")

		require.NoError(t, fixture.service.Resend(context.Background(), accountID))
		assert.Equal(t, 2, fixture.mailer.sentCount)
	})

	t.Run("nil_cooldown_store_means_no_throttle", func(t *testing.T) {
		fixture := newServiceFixture(t)
		accountID, _ := fixture.register(t)

		unthrottled := auth.NewService(
			fixture.repo,
			fixture.tokens,
			sec.NewHasher(bcrypt.MinCost),
			fixture.mailer,
			nil,
			auth.CodeTTLs{Registration: 24 * time.Hour, Resend: time.Hour},
		)

		require.NoError(t, unthrottled.Resend(context.Background(), accountID))
		require.NoError(t, unthrottled.Resend(context.Background(), accountID))
	})
}

/*
TestService_Resend_DeliveryFailure verifies that a failed rotated-code mail
keeps the rotation: the persisted code is the new one.
*/
func TestService_Resend_DeliveryFailure(t *testing.T) {
	fixture := newServiceFixture(t)
	accountID, originalCode := fixture.register(t)
	fixture.mailer.failWith = errors.New("smtp: timeout")

	err := fixture.service.Resend(context.Background(), accountID)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "DELIVERY_FAILED", appError.Code)

	stored := fixture.repo.users[accountID]
	require.NotNil(t, stored.VerificationCode)
	assert.NotEqual(t, originalCode, *stored.VerificationCode, "rotation persisted despite the failed send")
}
