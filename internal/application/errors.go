package application

import "errors"

// Domain-level outcome kinds. These are deliberately coarse: the HTTP layer
// maps any ErrInvalidCredential to one opaque failure so a caller cannot
// probe which check rejected them.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrAlreadyExists     = errors.New("user already exists")
)
