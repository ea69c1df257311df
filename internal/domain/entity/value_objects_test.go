package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmail(t *testing.T) {
	e, err := NewEmail("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", e.String())

	for _, bad := range []string{
		"",
		"not-an-email",
		"no-domain@",
		"Alice <alice@example.com>", // display names are not addresses
		"two@at@signs",
	} {
		_, err := NewEmail(bad)
		assert.ErrorIs(t, err, ErrInvalidEmail, "input %q", bad)
	}
}

func TestNewPhone(t *testing.T) {
	p, err := NewPhone("+14155550123")
	require.NoError(t, err)
	assert.Equal(t, "+14155550123", p.String())

	for _, bad := range []string{
		"",
		"14155550123",     // missing plus
		"+04155550123",    // leading zero
		"+1",              // too short
		"+1415555012345678", // too long
		"+1415555a123",
	} {
		_, err := NewPhone(bad)
		assert.ErrorIs(t, err, ErrInvalidPhone, "input %q", bad)
	}
}

func TestNewTelegramID(t *testing.T) {
	id, err := NewTelegramID("123456789")
	require.NoError(t, err)
	assert.Equal(t, "123456789", id.String())

	for _, bad := range []string{"", "abc", "123abc", "-42", "12 34"} {
		_, err := NewTelegramID(bad)
		assert.ErrorIs(t, err, ErrInvalidTelegramID, "input %q", bad)
	}
}

func TestNewPassword(t *testing.T) {
	_, err := NewPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = NewPassword("1234567")
	assert.ErrorIs(t, err, ErrWeakPassword)

	p, err := NewPassword("12345678")
	require.NoError(t, err)
	assert.Equal(t, "12345678", p.String())
}

func TestNewHashedPassword(t *testing.T) {
	_, err := NewHashedPassword("")
	assert.ErrorIs(t, err, ErrEmptyPasswordHash)

	h, err := NewHashedPassword("$2a$10$abcdefg")
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$abcdefg", h.String())
}

func TestNewCodeValue(t *testing.T) {
	c, err := NewCodeValue("000042")
	require.NoError(t, err)
	assert.Equal(t, "000042", c.String())

	for _, bad := range []string{"", "12345", "1234567", "12345a", "12 456"} {
		_, err := NewCodeValue(bad)
		assert.ErrorIs(t, err, ErrInvalidCodeValue, "input %q", bad)
	}
}

func TestEquals(t *testing.T) {
	a, _ := NewEmail("a@example.com")
	b, _ := NewEmail("a@example.com")
	c, _ := NewEmail("c@example.com")
	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))

	x, _ := NewCodeValue("123456")
	y, _ := NewCodeValue("123456")
	z, _ := NewCodeValue("654321")
	assert.True(t, x.Equals(y))
	assert.False(t, x.Equals(z))
}
