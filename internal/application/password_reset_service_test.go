package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idstack/identity-service/internal/application"
	"github.com/idstack/identity-service/internal/domain/entity"
)

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	f := newFixture(t)

	err := f.reset.RequestPasswordReset(context.Background(), mustEmail(t, "nobody@example.com"))
	assert.ErrorIs(t, err, application.ErrUserNotFound)
}

func TestPasswordResetEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := mustEmail(t, "jane@example.com")
	oldPassword := mustPassword(t, "old-password-1")
	newPassword := mustPassword(t, "new-password-1")

	user, err := f.registration.RegisterWithEmail(ctx, email, oldPassword, "", "")
	require.NoError(t, err)
	verify := f.notifier.last(t)
	_, err = f.registration.VerifyEmail(ctx, email, verify)
	require.NoError(t, err)

	require.NoError(t, f.reset.RequestPasswordReset(ctx, email))
	resetCode := f.notifier.last(t)

	// A reset code is its own type; it does not verify the email channel.
	_, err = f.registration.VerifyEmail(ctx, email, resetCode)
	assert.ErrorIs(t, err, application.ErrInvalidCredential)

	updated, err := f.reset.ResetPassword(ctx, email, resetCode, newPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID(), updated.ID())

	// Old password no longer works, new one does.
	_, err = f.auth.AuthenticateWithEmail(ctx, email, oldPassword)
	assert.ErrorIs(t, err, application.ErrInvalidCredential)
	got, err := f.auth.AuthenticateWithEmail(ctx, email, newPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID(), got.ID())

	// The reset code was consumed.
	_, err = f.reset.ResetPassword(ctx, email, resetCode, mustPassword(t, "another-pass1"))
	assert.ErrorIs(t, err, application.ErrInvalidCredential)
}

func TestResetPasswordWrongCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := mustEmail(t, "jane@example.com")

	_, err := f.registration.RegisterWithEmail(ctx, email, mustPassword(t, "old-password-1"), "", "")
	require.NoError(t, err)
	require.NoError(t, f.reset.RequestPasswordReset(ctx, email))
	sent := f.notifier.last(t)

	wrong, err := entity.NewCodeValue("000000")
	require.NoError(t, err)
	if wrong.Equals(sent) {
		wrong, err = entity.NewCodeValue("000001")
		require.NoError(t, err)
	}

	_, err = f.reset.ResetPassword(ctx, email, wrong, mustPassword(t, "new-password-1"))
	assert.ErrorIs(t, err, application.ErrInvalidCredential)
}

// A reset code minted for another user must not change this user's password,
// even when the lookup index hands it back for the credential.
func TestResetPasswordRejectsForeignCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	email := mustEmail(t, "jane@example.com")
	oldPassword := mustPassword(t, "old-password-1")

	_, err := f.registration.RegisterWithEmail(ctx, email, oldPassword, "", "")
	require.NoError(t, err)
	verify := f.notifier.last(t)
	_, err = f.registration.VerifyEmail(ctx, email, verify)
	require.NoError(t, err)

	stray, err := entity.NewForPasswordReset(uuid.New(), email, time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.codes.Save(ctx, stray))

	_, err = f.reset.ResetPassword(ctx, email, stray.Code(), mustPassword(t, "new-password-1"))
	assert.ErrorIs(t, err, application.ErrInvalidCredential)

	// The old password still works.
	_, err = f.auth.AuthenticateWithEmail(ctx, email, oldPassword)
	require.NoError(t, err)
}

func TestResetPasswordUnknownUser(t *testing.T) {
	f := newFixture(t)
	code, err := entity.NewCodeValue("123456")
	require.NoError(t, err)

	_, err = f.reset.ResetPassword(context.Background(),
		mustEmail(t, "nobody@example.com"), code, mustPassword(t, "new-password-1"))
	assert.ErrorIs(t, err, application.ErrUserNotFound)
}
