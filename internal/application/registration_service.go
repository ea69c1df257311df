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

// RegistrationService registers users through one of the three channels and
// verifies control of that channel with a one-time code. It is stateless and
// safe for concurrent use.
type RegistrationService struct {
	Users   repository.UserRepository
	Codes   repository.VerificationCodeRepository
	Hasher  PasswordHasher
	Email   EmailNotifier
	SMS     SmsNotifier
	Chat    ChatNotifier
	Logger  *logrus.Logger
	CodeTTL time.Duration
}

func NewRegistrationService(
	users repository.UserRepository,
	codes repository.VerificationCodeRepository,
	hasher PasswordHasher,
	email EmailNotifier,
	sms SmsNotifier,
	chat ChatNotifier,
	logger *logrus.Logger,
	codeTTL time.Duration,
) *RegistrationService {
	if codeTTL <= 0 {
		codeTTL = entity.DefaultVerificationTTL
	}
	return &RegistrationService{
		Users:   users,
		Codes:   codes,
		Hasher:  hasher,
		Email:   email,
		SMS:     sms,
		Chat:    chat,
		Logger:  logger,
		CodeTTL: codeTTL,
	}
}

// RegisterWithEmail creates a user reachable by email and sends a
// verification code to that address. The lookup is an optimization; the
// authoritative duplicate signal is the unique constraint at Save time.
func (s *RegistrationService) RegisterWithEmail(ctx context.Context, email entity.Email, password entity.Password, firstName, lastName string) (*entity.User, error) {
	if _, err := s.Users.FindByEmail(ctx, email); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	user, err := s.createUser(ctx, &email, nil, nil, password, firstName, lastName)
	if err != nil {
		return nil, err
	}

	if err := s.SendEmailVerificationCode(ctx, user, email); err != nil {
		return nil, err
	}
	return user, nil
}

// RegisterWithPhone creates a user reachable by phone and sends the code by SMS.
func (s *RegistrationService) RegisterWithPhone(ctx context.Context, phone entity.Phone, password entity.Password, firstName, lastName string) (*entity.User, error) {
	if _, err := s.Users.FindByPhone(ctx, phone); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user by phone: %w", err)
	}

	user, err := s.createUser(ctx, nil, &phone, nil, password, firstName, lastName)
	if err != nil {
		return nil, err
	}

	if err := s.SendPhoneVerificationCode(ctx, user, phone); err != nil {
		return nil, err
	}
	return user, nil
}

// RegisterWithTelegram creates a user reachable by telegram and sends the
// code through the chat notifier.
func (s *RegistrationService) RegisterWithTelegram(ctx context.Context, telegramID entity.TelegramID, password entity.Password, firstName, lastName string) (*entity.User, error) {
	if _, err := s.Users.FindByTelegramID(ctx, telegramID); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user by telegram id: %w", err)
	}

	user, err := s.createUser(ctx, nil, nil, &telegramID, password, firstName, lastName)
	if err != nil {
		return nil, err
	}

	if err := s.SendTelegramVerificationCode(ctx, user, telegramID); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *RegistrationService) createUser(ctx context.Context, email *entity.Email, phone *entity.Phone, telegramID *entity.TelegramID, password entity.Password, firstName, lastName string) (*entity.User, error) {
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := entity.RegisterNew(email, phone, telegramID, &hash, firstName, lastName)
	if err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// VerifyEmail checks the code sent to an email address and marks the channel
// verified. Any code problem, including a code that belongs to a different
// user, comes back as ErrInvalidCredential.
func (s *RegistrationService) VerifyEmail(ctx context.Context, email entity.Email, candidate entity.CodeValue) (*entity.User, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	code, err := s.resolveCode(ctx, entity.CodeTypeEmail, email.String(), candidate, user)
	if err != nil {
		return nil, err
	}
	if err := user.MarkEmailVerified(); err != nil {
		return nil, ErrInvalidCredential
	}
	return s.finishVerification(ctx, user, code)
}

// VerifyPhone checks the code sent by SMS and marks the phone channel verified.
func (s *RegistrationService) VerifyPhone(ctx context.Context, phone entity.Phone, candidate entity.CodeValue) (*entity.User, error) {
	user, err := s.findByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	code, err := s.resolveCode(ctx, entity.CodeTypePhone, phone.String(), candidate, user)
	if err != nil {
		return nil, err
	}
	if err := user.MarkPhoneVerified(); err != nil {
		return nil, ErrInvalidCredential
	}
	return s.finishVerification(ctx, user, code)
}

// VerifyTelegram checks the code sent over chat and marks the telegram
// channel verified.
func (s *RegistrationService) VerifyTelegram(ctx context.Context, telegramID entity.TelegramID, candidate entity.CodeValue) (*entity.User, error) {
	user, err := s.findByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	code, err := s.resolveCode(ctx, entity.CodeTypeTelegram, telegramID.String(), candidate, user)
	if err != nil {
		return nil, err
	}
	if err := user.MarkTelegramVerified(); err != nil {
		return nil, ErrInvalidCredential
	}
	return s.finishVerification(ctx, user, code)
}

// resolveCode loads the outstanding code for (type, credential) and rejects
// it unless it matches the candidate and belongs to the resolved user. The
// owner check defends against a stale or colliding lookup index pointing at
// another user's code.
func (s *RegistrationService) resolveCode(ctx context.Context, codeType entity.CodeType, credential string, candidate entity.CodeValue, user *entity.User) (*entity.VerificationCode, error) {
	code, err := s.Codes.FindByChannelAndCode(ctx, codeType, credential, candidate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("lookup verification code: %w", err)
	}
	if code.IsExpired() || !code.Matches(candidate) {
		return nil, ErrInvalidCredential
	}
	if code.UserID() != user.ID() {
		return nil, ErrInvalidCredential
	}
	return code, nil
}

func (s *RegistrationService) finishVerification(ctx context.Context, user *entity.User, code *entity.VerificationCode) (*entity.User, error) {
	if err := s.Users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	// The code may have expired out of the store between the check and this
	// delete; the repository treats that as a no-op.
	if err := s.Codes.Delete(ctx, code); err != nil {
		return nil, fmt.Errorf("delete verification code: %w", err)
	}
	return user, nil
}

// SendEmailVerificationCode issues a fresh code for the email channel and
// hands it to the email notifier. Re-sending overwrites the previous lookup
// entry, so only the newest code is reachable.
func (s *RegistrationService) SendEmailVerificationCode(ctx context.Context, user *entity.User, email entity.Email) error {
	code, err := entity.NewForEmail(user.ID(), email, s.CodeTTL)
	if err != nil {
		return err
	}
	if err := s.Codes.Save(ctx, code); err != nil {
		return fmt.Errorf("save verification code: %w", err)
	}
	if err := s.Email.SendVerificationCode(ctx, email, code.Code()); err != nil {
		s.logNotifyFailure("email", user, err)
	}
	return nil
}

// SendPhoneVerificationCode issues a fresh code for the phone channel.
func (s *RegistrationService) SendPhoneVerificationCode(ctx context.Context, user *entity.User, phone entity.Phone) error {
	code, err := entity.NewForPhone(user.ID(), phone, s.CodeTTL)
	if err != nil {
		return err
	}
	if err := s.Codes.Save(ctx, code); err != nil {
		return fmt.Errorf("save verification code: %w", err)
	}
	if err := s.SMS.SendVerificationCode(ctx, phone, code.Code()); err != nil {
		s.logNotifyFailure("sms", user, err)
	}
	return nil
}

// SendTelegramVerificationCode issues a fresh code for the telegram channel.
func (s *RegistrationService) SendTelegramVerificationCode(ctx context.Context, user *entity.User, telegramID entity.TelegramID) error {
	code, err := entity.NewForTelegram(user.ID(), telegramID, s.CodeTTL)
	if err != nil {
		return err
	}
	if err := s.Codes.Save(ctx, code); err != nil {
		return fmt.Errorf("save verification code: %w", err)
	}
	if err := s.Chat.SendVerificationCode(ctx, telegramID, code.Code()); err != nil {
		s.logNotifyFailure("telegram", user, err)
	}
	return nil
}

// Delivery is fire-and-forget: the code is already stored, the user can ask
// for a resend, so a notifier failure does not fail the registration.
func (s *RegistrationService) logNotifyFailure(channel string, user *entity.User, err error) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"user_id": user.ID().String(),
			"channel": channel,
		}).Warn("verification code delivery failed")
	}
}

func (s *RegistrationService) findByEmail(ctx context.Context, email entity.Email) (*entity.User, error) {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	return user, nil
}

func (s *RegistrationService) findByPhone(ctx context.Context, phone entity.Phone) (*entity.User, error) {
	user, err := s.Users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user by phone: %w", err)
	}
	return user, nil
}

func (s *RegistrationService) findByTelegramID(ctx context.Context, telegramID entity.TelegramID) (*entity.User, error) {
	user, err := s.Users.FindByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user by telegram id: %w", err)
	}
	return user, nil
}
