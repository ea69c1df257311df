package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/idstack/identity-service/internal/domain/entity"
	"github.com/idstack/identity-service/internal/domain/repository"
)

// AuthenticationService authenticates a user through any registered channel.
// Both the password and the channel's verified flag are checked; the order of
// the two checks carries no meaning, both must pass before a user is
// returned. The HTTP layer collapses every failure into one opaque response.
type AuthenticationService struct {
	Users  repository.UserRepository
	Hasher PasswordHasher
	Logger *logrus.Logger
}

func NewAuthenticationService(users repository.UserRepository, hasher PasswordHasher, logger *logrus.Logger) *AuthenticationService {
	return &AuthenticationService{Users: users, Hasher: hasher, Logger: logger}
}

// AuthenticateWithEmail checks an email/password pair against a user whose
// email channel has been verified.
func (s *AuthenticationService) AuthenticateWithEmail(ctx context.Context, email entity.Email, password entity.Password) (*entity.User, error) {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, mapLookupErr(err, "email")
	}
	if !s.checkPassword(user, password) {
		return nil, ErrInvalidCredential
	}
	if !user.IsEmailVerified() {
		return nil, ErrInvalidCredential
	}
	return user, nil
}

// AuthenticateWithPhone checks a phone/password pair against a user whose
// phone channel has been verified.
func (s *AuthenticationService) AuthenticateWithPhone(ctx context.Context, phone entity.Phone, password entity.Password) (*entity.User, error) {
	user, err := s.Users.FindByPhone(ctx, phone)
	if err != nil {
		return nil, mapLookupErr(err, "phone")
	}
	if !user.IsPhoneVerified() {
		return nil, ErrInvalidCredential
	}
	if !s.checkPassword(user, password) {
		return nil, ErrInvalidCredential
	}
	return user, nil
}

// AuthenticateWithTelegram checks a telegram-id/password pair against a user
// whose telegram channel has been verified.
func (s *AuthenticationService) AuthenticateWithTelegram(ctx context.Context, telegramID entity.TelegramID, password entity.Password) (*entity.User, error) {
	user, err := s.Users.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, mapLookupErr(err, "telegram id")
	}
	if !user.IsTelegramVerified() {
		return nil, ErrInvalidCredential
	}
	if !s.checkPassword(user, password) {
		return nil, ErrInvalidCredential
	}
	return user, nil
}

// GetUserByID loads a user for the authenticated "me" endpoint.
func (s *AuthenticationService) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	uid, err := parseUserID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.Users.FindByID(ctx, uid)
	if err != nil {
		return nil, mapLookupErr(err, "id")
	}
	return user, nil
}

func (s *AuthenticationService) checkPassword(user *entity.User, password entity.Password) bool {
	hash := user.PasswordHash()
	if hash == nil {
		return false
	}
	ok := s.Hasher.Check(password, *hash)
	if ok && s.Hasher.NeedsRehash(*hash) && s.Logger != nil {
		// Rehash-on-login is not part of this flow; flag it so operations
		// can schedule a migration.
		s.Logger.WithField("user_id", user.ID().String()).Info("password hash uses outdated parameters")
	}
	return ok
}

func parseUserID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

func mapLookupErr(err error, channel string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("lookup user by %s: %w", channel, err)
}
