package service

import "errors"

// Authentication errors. They describe expected outcomes and are safe to
// classify as client errors.
var (
	ErrUsernameTaken     = errors.New("username taken")
	ErrUnknownUsername   = errors.New("unknown username")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrSessionNotFound   = errors.New("session not found")
)

// ErrRepository wraps every failure of the backing store. Its message
// carries the cause for logs and must not be shown to clients.
var ErrRepository = errors.New("repository failure")

// IsAuthError reports whether err is one of the authentication errors.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrUnknownUsername) ||
		errors.Is(err, ErrIncorrectPassword) ||
		errors.Is(err, ErrSessionNotFound)
}
