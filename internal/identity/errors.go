package identity

import "errors"

var (
	// ErrEmailTaken indicates a registration attempt with an existing email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("user not found")
)
