package entity

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// CodeType tells which channel a verification code proves control of.
// Password-reset codes travel over email and use the email slot.
type CodeType string

const (
	CodeTypeEmail         CodeType = "email"
	CodeTypePhone         CodeType = "phone"
	CodeTypeTelegram      CodeType = "telegram"
	CodeTypePasswordReset CodeType = "password_reset"
)

// Default lifetimes. Reset codes live longer because the user has to switch
// to their inbox and back.
const (
	DefaultVerificationTTL  = 300 * time.Second
	DefaultPasswordResetTTL = 1800 * time.Second
)

// VerificationCode is one outstanding one-time code bound to a user and a
// channel. It is immutable after creation: codes are used once and deleted,
// or left to expire.
type VerificationCode struct {
	id         uuid.UUID
	userID     uuid.UUID
	code       CodeValue
	codeType   CodeType
	email      *Email
	phone      *Phone
	telegramID *TelegramID
	expiresAt  time.Time
	createdAt  time.Time
}

var oneMillion = big.NewInt(1000000)

// GenerateCodeValue draws a code uniformly from 000000-999999 using
// crypto/rand. Leading zeros are kept so the space is the full million values.
func GenerateCodeValue() (CodeValue, error) {
	n, err := rand.Int(rand.Reader, oneMillion)
	if err != nil {
		return CodeValue{}, fmt.Errorf("generate code: %w", err)
	}
	return NewCodeValue(fmt.Sprintf("%06d", n.Int64()))
}

func newCode(userID uuid.UUID, codeType CodeType, email *Email, phone *Phone, telegramID *TelegramID, ttl time.Duration) (*VerificationCode, error) {
	value, err := GenerateCodeValue()
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("verification code ttl must be positive, got %v", ttl)
	}
	now := time.Now().UTC()
	return &VerificationCode{
		id:         uuid.New(),
		userID:     userID,
		code:       value,
		codeType:   codeType,
		email:      email,
		phone:      phone,
		telegramID: telegramID,
		expiresAt:  now.Add(ttl),
		createdAt:  now,
	}, nil
}

// NewForEmail creates a code proving control of an email address.
func NewForEmail(userID uuid.UUID, email Email, ttl time.Duration) (*VerificationCode, error) {
	return newCode(userID, CodeTypeEmail, &email, nil, nil, ttl)
}

// NewForPhone creates a code proving control of a phone number.
func NewForPhone(userID uuid.UUID, phone Phone, ttl time.Duration) (*VerificationCode, error) {
	return newCode(userID, CodeTypePhone, nil, &phone, nil, ttl)
}

// NewForTelegram creates a code proving control of a telegram account.
func NewForTelegram(userID uuid.UUID, telegramID TelegramID, ttl time.Duration) (*VerificationCode, error) {
	return newCode(userID, CodeTypeTelegram, nil, nil, &telegramID, ttl)
}

// NewForPasswordReset creates a reset code delivered over email.
func NewForPasswordReset(userID uuid.UUID, email Email, ttl time.Duration) (*VerificationCode, error) {
	return newCode(userID, CodeTypePasswordReset, &email, nil, nil, ttl)
}

// CodeFromStore rehydrates a code from the ephemeral store.
func CodeFromStore(
	id, userID uuid.UUID,
	code CodeValue,
	codeType CodeType,
	email *Email,
	phone *Phone,
	telegramID *TelegramID,
	expiresAt, createdAt time.Time,
) *VerificationCode {
	return &VerificationCode{
		id:         id,
		userID:     userID,
		code:       code,
		codeType:   codeType,
		email:      email,
		phone:      phone,
		telegramID: telegramID,
		expiresAt:  expiresAt,
		createdAt:  createdAt,
	}
}

func (c *VerificationCode) ID() uuid.UUID           { return c.id }
func (c *VerificationCode) UserID() uuid.UUID       { return c.userID }
func (c *VerificationCode) Code() CodeValue         { return c.code }
func (c *VerificationCode) Type() CodeType          { return c.codeType }
func (c *VerificationCode) Email() *Email           { return c.email }
func (c *VerificationCode) Phone() *Phone           { return c.phone }
func (c *VerificationCode) TelegramID() *TelegramID { return c.telegramID }
func (c *VerificationCode) ExpiresAt() time.Time    { return c.expiresAt }
func (c *VerificationCode) CreatedAt() time.Time    { return c.createdAt }

// IsExpired reports whether the code's lifetime has passed.
func (c *VerificationCode) IsExpired() bool {
	return time.Now().After(c.expiresAt)
}

// Matches reports whether a caller-supplied candidate equals the stored code.
func (c *VerificationCode) Matches(candidate CodeValue) bool {
	return c.code.Equals(candidate)
}

// Credential returns the raw value of the slot matching the code's type.
// It is what the store indexes lookups by.
func (c *VerificationCode) Credential() string {
	switch c.codeType {
	case CodeTypeEmail, CodeTypePasswordReset:
		if c.email != nil {
			return c.email.String()
		}
	case CodeTypePhone:
		if c.phone != nil {
			return c.phone.String()
		}
	case CodeTypeTelegram:
		if c.telegramID != nil {
			return c.telegramID.String()
		}
	}
	return ""
}
