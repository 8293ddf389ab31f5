// Package models defines the core data structures for user accounts.
package models

import (
	"errors"
	"fmt"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session"

// Repository-level errors. Callers match them with errors.Is.
var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
	// ErrMalformedRecord is returned when a stored record lacks required fields.
	ErrMalformedRecord = errors.New("malformed record")
)

// Credentials carries a username and plaintext password for the duration
// of a single request. It is never persisted.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// User represents a registered account as stored by the repository.
type User struct {
	// ID is the unique identifier for the user.
	ID string
	// Username is the login name chosen by the user. Unique.
	Username string
	// Salt is the hex-encoded per-account salt, fixed at registration.
	Salt string
	// Hash is the hex-encoded derived key of the password and Salt.
	Hash string
	// Session is the current session token, empty when logged out.
	Session string
}

// Validate reports whether the record carries every field the account
// manager relies on.
func (u *User) Validate() error {
	switch {
	case u == nil:
		return fmt.Errorf("%w: nil user", ErrMalformedRecord)
	case u.ID == "":
		return fmt.Errorf("%w: empty id", ErrMalformedRecord)
	case u.Username == "":
		return fmt.Errorf("%w: empty username", ErrMalformedRecord)
	case u.Salt == "":
		return fmt.Errorf("%w: empty salt", ErrMalformedRecord)
	case u.Hash == "":
		return fmt.Errorf("%w: empty hash", ErrMalformedRecord)
	}
	return nil
}
