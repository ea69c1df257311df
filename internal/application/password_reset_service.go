package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idstack/identity-service/internal/domain/entity"
	"github.com/idstack/identity-service/internal/domain/repository"
)

// PasswordResetService drives the forgot-password flow over the email
// channel, reusing the one-time code mechanism with a longer lifetime.
type PasswordResetService struct {
	Users   repository.UserRepository
	Codes   repository.VerificationCodeRepository
	Hasher  PasswordHasher
	Email   EmailNotifier
	Logger  *logrus.Logger
	CodeTTL time.Duration
}

func NewPasswordResetService(
	users repository.UserRepository,
	codes repository.VerificationCodeRepository,
	hasher PasswordHasher,
	email EmailNotifier,
	logger *logrus.Logger,
	codeTTL time.Duration,
) *PasswordResetService {
	if codeTTL <= 0 {
		codeTTL = entity.DefaultPasswordResetTTL
	}
	return &PasswordResetService{
		Users:   users,
		Codes:   codes,
		Hasher:  hasher,
		Email:   email,
		Logger:  logger,
		CodeTTL: codeTTL,
	}
}

// RequestPasswordReset issues a reset code to the user registered under the
// given email and mails it out.
func (s *PasswordResetService) RequestPasswordReset(ctx context.Context, email entity.Email) error {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user by email: %w", err)
	}
	// Unreachable for a user found by email, kept as a guard against a
	// broken record.
	if user.Email() == nil {
		return ErrInvalidCredential
	}

	code, err := entity.NewForPasswordReset(user.ID(), email, s.CodeTTL)
	if err != nil {
		return err
	}
	if err := s.Codes.Save(ctx, code); err != nil {
		return fmt.Errorf("save reset code: %w", err)
	}

	if err := s.Email.SendPasswordResetCode(ctx, email, code.Code()); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", user.ID().String()).Warn("reset code delivery failed")
	}
	return nil
}

// ResetPassword validates the reset code and installs a new password hash.
// The code is single-use and deleted on success.
func (s *PasswordResetService) ResetPassword(ctx context.Context, email entity.Email, candidate entity.CodeValue, newPassword entity.Password) (*entity.User, error) {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	if user.Email() == nil {
		return nil, ErrInvalidCredential
	}

	code, err := s.Codes.FindByChannelAndCode(ctx, entity.CodeTypePasswordReset, email.String(), candidate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("lookup reset code: %w", err)
	}
	if code.IsExpired() || !code.Matches(candidate) || code.UserID() != user.ID() {
		return nil, ErrInvalidCredential
	}

	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := user.ChangePassword(hash); err != nil {
		return nil, ErrInvalidCredential
	}
	if err := s.Users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	if err := s.Codes.Delete(ctx, code); err != nil {
		return nil, fmt.Errorf("delete reset code: %w", err)
	}
	return user, nil
}
