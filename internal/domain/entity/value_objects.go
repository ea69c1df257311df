package entity

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
)

// Validation errors for the self-validating scalar types. Construction either
// returns a valid value or one of these; there is no partially-built state.
var (
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrInvalidPhone      = errors.New("invalid phone number, expected E.164 format like +123456789012")
	ErrInvalidTelegramID = errors.New("invalid telegram id")
	ErrWeakPassword      = errors.New("password must be at least 8 characters")
	ErrEmptyPasswordHash = errors.New("password hash must not be empty")
	ErrInvalidCodeValue  = errors.New("verification code must be exactly 6 digits")
)

var (
	phonePattern      = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	telegramIDPattern = regexp.MustCompile(`^[0-9]+$`)
	codeValuePattern  = regexp.MustCompile(`^[0-9]{6}$`)
)

// Email is a validated email address.
type Email struct {
	value string
}

func NewEmail(value string) (Email, error) {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return Email{}, fmt.Errorf("%w: %q", ErrInvalidEmail, value)
	}
	return Email{value: value}, nil
}

func (e Email) String() string        { return e.value }
func (e Email) Equals(other Email) bool { return e.value == other.value }

// Phone is a validated E.164-style phone number: a plus sign, a non-zero
// digit, then 1 to 14 further digits.
type Phone struct {
	value string
}

func NewPhone(value string) (Phone, error) {
	if !phonePattern.MatchString(value) {
		return Phone{}, fmt.Errorf("%w: %q", ErrInvalidPhone, value)
	}
	return Phone{value: value}, nil
}

func (p Phone) String() string        { return p.value }
func (p Phone) Equals(other Phone) bool { return p.value == other.value }

// TelegramID is a Telegram chat identifier. Telegram ids are numeric but
// arrive as strings over the wire, so the value is kept as a digit string.
type TelegramID struct {
	value string
}

func NewTelegramID(value string) (TelegramID, error) {
	if value == "" || !telegramIDPattern.MatchString(value) {
		return TelegramID{}, fmt.Errorf("%w: %q", ErrInvalidTelegramID, value)
	}
	return TelegramID{value: value}, nil
}

func (t TelegramID) String() string             { return t.value }
func (t TelegramID) Equals(other TelegramID) bool { return t.value == other.value }

// Password is a plaintext password that passed the minimum-length rule.
// It only exists between the transport boundary and the hasher.
type Password struct {
	value string
}

func NewPassword(value string) (Password, error) {
	if len(value) < 8 {
		return Password{}, ErrWeakPassword
	}
	return Password{value: value}, nil
}

func (p Password) String() string { return p.value }

// HashedPassword is an opaque hash produced by a PasswordHasher.
type HashedPassword struct {
	value string
}

func NewHashedPassword(value string) (HashedPassword, error) {
	if value == "" {
		return HashedPassword{}, ErrEmptyPasswordHash
	}
	return HashedPassword{value: value}, nil
}

func (h HashedPassword) String() string                 { return h.value }
func (h HashedPassword) Equals(other HashedPassword) bool { return h.value == other.value }

// CodeValue is a 6-digit one-time verification code.
type CodeValue struct {
	value string
}

func NewCodeValue(value string) (CodeValue, error) {
	if !codeValuePattern.MatchString(value) {
		return CodeValue{}, ErrInvalidCodeValue
	}
	return CodeValue{value: value}, nil
}

func (c CodeValue) String() string            { return c.value }
func (c CodeValue) Equals(other CodeValue) bool { return c.value == other.value }
