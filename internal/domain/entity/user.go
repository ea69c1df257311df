package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Channel invariant errors raised by the User aggregate.
var (
	ErrNoRegistrationChannel = errors.New("at least one of email, phone or telegram id is required")
	ErrEmailNotSet           = errors.New("user has no email")
	ErrPhoneNotSet           = errors.New("user has no phone")
	ErrTelegramNotSet        = errors.New("user has no telegram id")
)

// User is the aggregate root of the identity domain. A user owns up to three
// independent channels (email, phone, telegram), each with its own verified
// flag. State changes go through the named methods below; there is no public
// constructor, only the RegisterNew and FromStore factories.
type User struct {
	id                 uuid.UUID
	email              *Email
	phone              *Phone
	telegramID         *TelegramID
	passwordHash       *HashedPassword
	isEmailVerified    bool
	isPhoneVerified    bool
	isTelegramVerified bool
	firstName          string
	lastName           string
	createdAt          time.Time
	updatedAt          time.Time
}

// RegisterNew creates a user at registration time. At least one channel must
// be provided; a user that can be reached on no channel is unrepresentable.
func RegisterNew(email *Email, phone *Phone, telegramID *TelegramID, passwordHash *HashedPassword, firstName, lastName string) (*User, error) {
	if email == nil && phone == nil && telegramID == nil {
		return nil, ErrNoRegistrationChannel
	}
	now := time.Now().UTC()
	return &User{
		id:           uuid.New(),
		email:        email,
		phone:        phone,
		telegramID:   telegramID,
		passwordHash: passwordHash,
		firstName:    firstName,
		lastName:     lastName,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// FromStore rehydrates a user from a persisted record. It deliberately skips
// the RegisterNew channel check: the record already exists and the mapping
// layer must be able to load it as-is.
func FromStore(
	id uuid.UUID,
	email *Email,
	phone *Phone,
	telegramID *TelegramID,
	passwordHash *HashedPassword,
	isEmailVerified, isPhoneVerified, isTelegramVerified bool,
	firstName, lastName string,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:                 id,
		email:              email,
		phone:              phone,
		telegramID:         telegramID,
		passwordHash:       passwordHash,
		isEmailVerified:    isEmailVerified,
		isPhoneVerified:    isPhoneVerified,
		isTelegramVerified: isTelegramVerified,
		firstName:          firstName,
		lastName:           lastName,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

func (u *User) ID() uuid.UUID                  { return u.id }
func (u *User) Email() *Email                  { return u.email }
func (u *User) Phone() *Phone                  { return u.phone }
func (u *User) TelegramID() *TelegramID        { return u.telegramID }
func (u *User) PasswordHash() *HashedPassword  { return u.passwordHash }
func (u *User) IsEmailVerified() bool          { return u.isEmailVerified }
func (u *User) IsPhoneVerified() bool          { return u.isPhoneVerified }
func (u *User) IsTelegramVerified() bool       { return u.isTelegramVerified }
func (u *User) FirstName() string              { return u.firstName }
func (u *User) LastName() string               { return u.lastName }
func (u *User) CreatedAt() time.Time           { return u.createdAt }
func (u *User) UpdatedAt() time.Time           { return u.updatedAt }

// MarkEmailVerified flags the email channel as verified. Verifying an
// already-verified channel is a no-op and does not touch updatedAt.
func (u *User) MarkEmailVerified() error {
	if u.email == nil {
		return ErrEmailNotSet
	}
	if !u.isEmailVerified {
		u.isEmailVerified = true
		u.updatedAt = time.Now().UTC()
	}
	return nil
}

// MarkPhoneVerified flags the phone channel as verified.
func (u *User) MarkPhoneVerified() error {
	if u.phone == nil {
		return ErrPhoneNotSet
	}
	if !u.isPhoneVerified {
		u.isPhoneVerified = true
		u.updatedAt = time.Now().UTC()
	}
	return nil
}

// MarkTelegramVerified flags the telegram channel as verified.
func (u *User) MarkTelegramVerified() error {
	if u.telegramID == nil {
		return ErrTelegramNotSet
	}
	if !u.isTelegramVerified {
		u.isTelegramVerified = true
		u.updatedAt = time.Now().UTC()
	}
	return nil
}

// ChangePassword replaces the stored hash. The channel check mirrors the one
// in RegisterNew; it cannot fail for a user built through the factory but is
// re-checked so a broken record cannot lock in a new password.
func (u *User) ChangePassword(newHash HashedPassword) error {
	if u.email == nil && u.phone == nil && u.telegramID == nil {
		return ErrNoRegistrationChannel
	}
	u.passwordHash = &newHash
	u.updatedAt = time.Now().UTC()
	return nil
}

// IsFullyVerified reports whether at least one channel has been verified.
// Channels are not mutually exclusive; any single one suffices.
func (u *User) IsFullyVerified() bool {
	return u.isEmailVerified || u.isPhoneVerified || u.isTelegramVerified
}
