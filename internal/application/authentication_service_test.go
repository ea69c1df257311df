package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idstack/identity-service/internal/application"
	"github.com/idstack/identity-service/internal/domain/entity"
)

func TestAuthenticateUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.AuthenticateWithEmail(context.Background(),
		mustEmail(t, "nobody@example.com"), mustPassword(t, "hunter2hunter2"))
	assert.ErrorIs(t, err, application.ErrUserNotFound)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := mustEmail(t, "jane@example.com")

	_, err := f.registration.RegisterWithEmail(ctx, email, mustPassword(t, "right-password"), "", "")
	require.NoError(t, err)
	code := f.notifier.last(t)
	_, err = f.registration.VerifyEmail(ctx, email, code)
	require.NoError(t, err)

	_, err = f.auth.AuthenticateWithEmail(ctx, email, mustPassword(t, "wrong-password"))
	assert.ErrorIs(t, err, application.ErrInvalidCredential)
}

// A verified email does not unlock the phone channel: each channel carries
// its own flag.
func TestAuthenticatePerChannelVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := mustEmail(t, "jane@example.com")
	password := mustPassword(t, "hunter2hunter2")

	phone := mustPhone(t, "+14155550123")
	user := registerMultiChannel(t, f, email, phone, password)

	code := f.notifier.last(t)
	verified, err := f.registration.VerifyEmail(ctx, email, code)
	require.NoError(t, err)
	assert.Equal(t, user.ID(), verified.ID())

	_, err = f.auth.AuthenticateWithEmail(ctx, email, password)
	require.NoError(t, err)
	_, err = f.auth.AuthenticateWithPhone(ctx, phone, password)
	assert.ErrorIs(t, err, application.ErrInvalidCredential)
}

// Accounts can exist without a password hash; they must never authenticate.
func TestAuthenticateMissingPasswordHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := mustEmail(t, "jane@example.com")

	e := email
	user, err := entity.RegisterNew(&e, nil, nil, nil, "", "")
	require.NoError(t, err)
	require.NoError(t, user.MarkEmailVerified())
	require.NoError(t, f.users.Save(ctx, user))

	_, err = f.auth.AuthenticateWithEmail(ctx, email, mustPassword(t, "whatever-pass"))
	assert.ErrorIs(t, err, application.ErrInvalidCredential)
}

func TestGetUserByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := mustEmail(t, "jane@example.com")

	user, err := f.registration.RegisterWithEmail(ctx, email, mustPassword(t, "hunter2hunter2"), "", "")
	require.NoError(t, err)

	got, err := f.auth.GetUserByID(ctx, user.ID().String())
	require.NoError(t, err)
	assert.Equal(t, user.ID(), got.ID())

	_, err = f.auth.GetUserByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, application.ErrUserNotFound)

	_, err = f.auth.GetUserByID(ctx, "2b0f0a86-3b4e-4a54-9c5e-111111111111")
	assert.ErrorIs(t, err, application.ErrUserNotFound)
}
