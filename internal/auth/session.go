package auth

import "github.com/google/uuid"

// SessionIssuer produces opaque session tokens.
type SessionIssuer interface {
	// Generate returns a fresh token. Tokens carry enough randomness that
	// collisions across the user population are negligible.
	Generate() string
}

// UUIDIssuer issues random (version 4) UUIDs as session tokens.
type UUIDIssuer struct{}

// Generate returns a new random UUID in its canonical string form.
func (UUIDIssuer) Generate() string {
	return uuid.NewString()
}
