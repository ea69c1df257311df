package application

import (
	"context"

	"github.com/idstack/identity-service/internal/domain/entity"
)

// PasswordHasher hashes and checks plaintext passwords. NeedsRehash lets the
// authentication flow detect hashes made with outdated cost parameters.
type PasswordHasher interface {
	Hash(password entity.Password) (entity.HashedPassword, error)
	Check(password entity.Password, hash entity.HashedPassword) bool
	NeedsRehash(hash entity.HashedPassword) bool
}

// EmailNotifier delivers codes over email. Delivery is fire-and-forget from
// the domain's perspective; implementations may queue instead of sending.
type EmailNotifier interface {
	SendVerificationCode(ctx context.Context, to entity.Email, code entity.CodeValue) error
	SendPasswordResetCode(ctx context.Context, to entity.Email, code entity.CodeValue) error
}

// SmsNotifier delivers codes over SMS.
type SmsNotifier interface {
	SendVerificationCode(ctx context.Context, to entity.Phone, code entity.CodeValue) error
}

// ChatNotifier delivers codes over a chat platform (Telegram).
type ChatNotifier interface {
	SendVerificationCode(ctx context.Context, to entity.TelegramID, code entity.CodeValue) error
}

// AuthTokenGenerator issues an opaque bearer credential for an authenticated
// user. Token format and session lifecycle are outside the identity core.
type AuthTokenGenerator interface {
	GenerateToken(user *entity.User) (string, error)
}
