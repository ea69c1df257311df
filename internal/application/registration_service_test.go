package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idstack/identity-service/internal/application"
	"github.com/idstack/identity-service/internal/domain/entity"
	"github.com/idstack/identity-service/internal/infrastructure/memory"
	"github.com/idstack/identity-service/internal/infrastructure/security"
)

// capturingNotifier records every code it is asked to deliver, across all
// three channels, and can be told to fail.
type capturingNotifier struct {
	mu    sync.Mutex
	codes []entity.CodeValue
	fail  error
}

func (n *capturingNotifier) record(code entity.CodeValue) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.codes = append(n.codes, code)
	return nil
}

func (n *capturingNotifier) last(t *testing.T) entity.CodeValue {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.codes, "no code was delivered")
	return n.codes[len(n.codes)-1]
}

type emailCapture struct{ *capturingNotifier }

func (c emailCapture) SendVerificationCode(_ context.Context, _ entity.Email, code entity.CodeValue) error {
	return c.record(code)
}

func (c emailCapture) SendPasswordResetCode(_ context.Context, _ entity.Email, code entity.CodeValue) error {
	return c.record(code)
}

type smsCapture struct{ *capturingNotifier }

func (c smsCapture) SendVerificationCode(_ context.Context, _ entity.Phone, code entity.CodeValue) error {
	return c.record(code)
}

type chatCapture struct{ *capturingNotifier }

func (c chatCapture) SendVerificationCode(_ context.Context, _ entity.TelegramID, code entity.CodeValue) error {
	return c.record(code)
}

type fixture struct {
	users        *memory.UserRepository
	codes        *memory.VerificationCodeRepository
	hasher       *security.BcryptHasher
	notifier     *capturingNotifier
	registration *application.RegistrationService
	auth         *application.AuthenticationService
	reset        *application.PasswordResetService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := memory.NewUserRepository()
	codes := memory.NewVerificationCodeRepository()
	hasher := security.NewBcryptHasher()
	notifier := &capturingNotifier{}
	logger := logrus.New()

	return &fixture{
		users:    users,
		codes:    codes,
		hasher:   hasher,
		notifier: notifier,
		registration: application.NewRegistrationService(
			users, codes, hasher,
			emailCapture{notifier}, smsCapture{notifier}, chatCapture{notifier},
			logger, 0,
		),
		auth: application.NewAuthenticationService(users, hasher, logger),
		reset: application.NewPasswordResetService(
			users, codes, hasher, emailCapture{notifier}, logger, 0,
		),
	}
}

// registerMultiChannel stores a user reachable over both email and phone and
// sends an email verification code, bypassing the single-channel sign-up
// endpoints.
func registerMultiChannel(t *testing.T, f *fixture, email entity.Email, phone entity.Phone, password entity.Password) *entity.User {
	t.Helper()
	ctx := context.Background()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	user, err := entity.RegisterNew(&email, &phone, nil, &hash, "", "")
	require.NoError(t, err)
	require.NoError(t, f.users.Save(ctx, user))
	require.NoError(t, f.registration.SendEmailVerificationCode(ctx, user, email))
	return user
}

func mustEmail(t *testing.T, v string) entity.Email {
	t.Helper()
	e, err := entity.NewEmail(v)
	require.NoError(t, err)
	return e
}

func mustPhone(t *testing.T, v string) entity.Phone {
	t.Helper()
	p, err := entity.NewPhone(v)
	require.NoError(t, err)
	return p
}

func mustTelegramID(t *testing.T, v string) entity.TelegramID {
	t.Helper()
	id, err := entity.NewTelegramID(v)
	require.NoError(t, err)
	return id
}

func mustPassword(t *testing.T, v string) entity.Password {
	t.Helper()
	p, err := entity.NewPassword(v)
	require.NoError(t, err)
	return p
}

func TestRegisterWithEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := mustEmail(t, "jane@example.com")

	user, err := f.registration.RegisterWithEmail(ctx, email, mustPassword(t, "hunter2hunter2"), "Jane", "Doe")
	require.NoError(t, err)

	require.NotNil(t, user.Email())
	assert.True(t, user.Email().Equals(email))
	assert.False(t, user.IsFullyVerified())
	assert.Nil(t, user.Phone())

	// The stored hash is not the plaintext.
	require.NotNil(t, user.PasswordHash())
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash().String())

	// The delivered code resolves through the store.
	code := f.notifier.last(t)
	stored, err := f.codes.FindByChannelAndCode(ctx, entity.CodeTypeEmail, "jane@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, user.ID(), stored.UserID())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := mustEmail(t, "jane@example.com")

	_, err := f.registration.RegisterWithEmail(ctx, email, mustPassword(t, "password-one"), "", "")
	require.NoError(t, err)

	_, err = f.registration.RegisterWithEmail(ctx, email, mustPassword(t, "password-two"), "", "")
	assert.ErrorIs(t, err, application.ErrAlreadyExists)
}

func TestVerifyEmailEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := mustEmail(t, "jane@example.com")
	password := mustPassword(t, "hunter2hunter2")

	user, err := f.registration.RegisterWithEmail(ctx, email, password, "", "")
	require.NoError(t, err)

	// Login before verification must fail.
	_, err = f.auth.AuthenticateWithEmail(ctx, email, password)
	assert.ErrorIs(t, err, application.ErrInvalidCredential)

	code := f.notifier.last(t)
	verified, err := f.registration.VerifyEmail(ctx, email, code)
	require.NoError(t, err)
	assert.True(t, verified.IsEmailVerified())
	assert.Equal(t, user.ID(), verified.ID())

	// Now login succeeds.
	got, err := f.auth.AuthenticateWithEmail(ctx, email, password)
	require.NoError(t, err)
	assert.Equal(t, user.ID(), got.ID())

	// The code was consumed; replaying it fails.
	_, err = f.registration.VerifyEmail(ctx, email, code)
	assert.ErrorIs(t, err, application.ErrInvalidCredential)
}

func TestVerifyEmailWrongCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := mustEmail(t, "jane@example.com")

	_, err := f.registration.RegisterWithEmail(ctx, email, mustPassword(t, "hunter2hunter2"), "", "")
	require.NoError(t, err)

	sent := f.notifier.last(t)
	wrong, err := entity.NewCodeValue("000000")
	require.NoError(t, err)
	if wrong.Equals(sent) {
		wrong, err = entity.NewCodeValue("000001")
		require.NoError(t, err)
	}

	_, err = f.registration.VerifyEmail(ctx, email, wrong)
	assert.ErrorIs(t, err, application.ErrInvalidCredential)
}

func TestVerifyUnknownUser(t *testing.T) {
	f := newFixture(t)
	code, err := entity.NewCodeValue("123456")
	require.NoError(t, err)

	_, err = f.registration.VerifyEmail(context.Background(), mustEmail(t, "nobody@example.com"), code)
	assert.ErrorIs(t, err, application.ErrUserNotFound)
}

func TestPhoneFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	phone := mustPhone(t, "+14155550123")
	password := mustPassword(t, "hunter2hunter2")

	user, err := f.registration.RegisterWithPhone(ctx, phone, password, "", "")
	require.NoError(t, err)
	require.NotNil(t, user.Phone())
	assert.Nil(t, user.Email())

	code := f.notifier.last(t)
	verified, err := f.registration.VerifyPhone(ctx, phone, code)
	require.NoError(t, err)
	assert.True(t, verified.IsPhoneVerified())

	got, err := f.auth.AuthenticateWithPhone(ctx, phone, password)
	require.NoError(t, err)
	assert.Equal(t, user.ID(), got.ID())
}

func TestTelegramFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tg := mustTelegramID(t, "987654321")
	password := mustPassword(t, "hunter2hunter2")

	user, err := f.registration.RegisterWithTelegram(ctx, tg, password, "", "")
	require.NoError(t, err)

	code := f.notifier.last(t)
	verified, err := f.registration.VerifyTelegram(ctx, tg, code)
	require.NoError(t, err)
	assert.True(t, verified.IsTelegramVerified())

	got, err := f.auth.AuthenticateWithTelegram(ctx, tg, password)
	require.NoError(t, err)
	assert.Equal(t, user.ID(), got.ID())
}

// A code owned by a different user must never verify this one, even when a
// stale or overwritten lookup index resolves the credential to that code.
func TestVerifyEmailRejectsForeignCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := mustEmail(t, "jane@example.com")

	_, err := f.registration.RegisterWithEmail(ctx, email, mustPassword(t, "hunter2hunter2"), "", "")
	require.NoError(t, err)

	// Another user's code lands under the same credential, shadowing Jane's.
	stray, err := entity.NewForEmail(uuid.New(), email, time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.codes.Save(ctx, stray))

	verified, err := f.registration.VerifyEmail(ctx, email, stray.Code())
	assert.ErrorIs(t, err, application.ErrInvalidCredential)
	assert.Nil(t, verified)

	// The account stays unverified.
	user, err := f.users.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.False(t, user.IsEmailVerified())
}

func TestNotifierFailureDoesNotFailRegistration(t *testing.T) {
	f := newFixture(t)
	f.notifier.fail = errors.New("smtp down")
	ctx := context.Background()
	email := mustEmail(t, "jane@example.com")

	user, err := f.registration.RegisterWithEmail(ctx, email, mustPassword(t, "hunter2hunter2"), "", "")
	require.NoError(t, err)

	// The code was stored even though delivery failed, so a resend or a
	// support lookup can still succeed.
	_, err = f.users.FindByEmail(ctx, email)
	require.NoError(t, err)
	_ = user
}

func TestResendReplacesCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := mustEmail(t, "jane@example.com")

	user, err := f.registration.RegisterWithEmail(ctx, email, mustPassword(t, "hunter2hunter2"), "", "")
	require.NoError(t, err)
	first := f.notifier.last(t)

	require.NoError(t, f.registration.SendEmailVerificationCode(ctx, user, email))
	second := f.notifier.last(t)

	// Only the newest code is reachable by credential.
	if !first.Equals(second) {
		_, err = f.codes.FindByChannelAndCode(ctx, entity.CodeTypeEmail, "jane@example.com", first)
		assert.Error(t, err)
	}
	_, err = f.registration.VerifyEmail(ctx, email, second)
	require.NoError(t, err)
}
