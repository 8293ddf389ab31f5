// Package service provides account business logic,
// delegating persistence to a UserRepository.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/GophChat/internal/auth"
	"github.com/atinyakov/GophChat/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserRepository defines the persistence operations
// required by the account manager.
type UserRepository interface {
	// FindByUsername returns the user with the given username or models.ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// FindBySession returns the user holding the session or models.ErrNotFound.
	FindBySession(ctx context.Context, session string) (*models.User, error)
	// Create inserts a new user. Uniqueness violations are models.ErrConflict.
	Create(ctx context.Context, user *models.User) error
	// UpdateSession replaces the stored session of the user with the given ID.
	UpdateSession(ctx context.Context, id, session string) error
	// ClearSession removes the session from whichever user holds it.
	ClearSession(ctx context.Context, session string) error
	// DeleteByID removes the user or returns models.ErrNotFound.
	DeleteByID(ctx context.Context, id string) error
}

// PasswordHasher derives and checks salted password hashes.
type PasswordHasher interface {
	Hash(password, salt string) string
	Verify(password, salt, hash string) bool
}

// AccountManager implements registration, login, logout and account
// removal on top of a UserRepository.
type AccountManager struct {
	repo   UserRepository
	hasher PasswordHasher
	issuer auth.SessionIssuer
	log    *zap.Logger

	// newSalt is swapped in tests.
	newSalt func() (string, error)
}

// NewAccountManager constructs an AccountManager. A nil logger disables logging.
func NewAccountManager(repo UserRepository, hasher PasswordHasher, issuer auth.SessionIssuer, log *zap.Logger) *AccountManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountManager{
		repo:    repo,
		hasher:  hasher,
		issuer:  issuer,
		log:     log,
		newSalt: auth.NewSalt,
	}
}

// Register creates an account for username and returns its first session token.
// It fails with ErrUsernameTaken if the username is already in use.
func (m *AccountManager) Register(ctx context.Context, username, password string) (string, error) {
	_, err := m.repo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return "", ErrUsernameTaken
	case !errors.Is(err, models.ErrNotFound):
		return "", m.repositoryFailure("find user", err)
	}

	salt, err := m.newSalt()
	if err != nil {
		m.log.Error("salt generation failed", zap.Error(err))
		return "", fmt.Errorf("register: %w", err)
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Username: username,
		Salt:     salt,
		Hash:     m.hasher.Hash(password, salt),
		Session:  m.issuer.Generate(),
	}

	if err := m.repo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration of the same name
		if errors.Is(err, models.ErrConflict) {
			return "", ErrUsernameTaken
		}
		return "", m.repositoryFailure("create user", err)
	}

	m.log.Info("account registered", zap.String("user_id", user.ID))
	return user.Session, nil
}

// Login checks the password of username and returns a new session token.
// The new token replaces any session the account held before.
func (m *AccountManager) Login(ctx context.Context, username, password string) (string, error) {
	user, err := m.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", ErrUnknownUsername
		}
		return "", m.repositoryFailure("find user", err)
	}

	if !m.hasher.Verify(password, user.Salt, user.Hash) {
		return "", ErrIncorrectPassword
	}

	session := m.issuer.Generate()
	if err := m.repo.UpdateSession(ctx, user.ID, session); err != nil {
		return "", m.repositoryFailure("update session", err)
	}

	return session, nil
}

// Logout clears session from the account holding it. A session that no
// longer belongs to anyone is treated as already logged out.
func (m *AccountManager) Logout(ctx context.Context, session string) error {
	if session == "" {
		return nil
	}
	if err := m.repo.ClearSession(ctx, session); err != nil {
		return m.repositoryFailure("clear session", err)
	}
	return nil
}

// GetUserBySession resolves a session token to its account.
// It fails with ErrSessionNotFound if no account holds the token.
func (m *AccountManager) GetUserBySession(ctx context.Context, session string) (*models.User, error) {
	if session == "" {
		return nil, ErrSessionNotFound
	}

	user, err := m.repo.FindBySession(ctx, session)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, m.repositoryFailure("find session", err)
	}
	return user, nil
}

// Delete removes the account with the given ID. Deleting an account that
// does not exist succeeds.
func (m *AccountManager) Delete(ctx context.Context, userID string) error {
	err := m.repo.DeleteByID(ctx, userID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		m.log.Debug("account already gone", zap.String("user_id", userID))
		return nil
	case err != nil:
		return m.repositoryFailure("delete user", err)
	}
	m.log.Info("account deleted", zap.String("user_id", userID))
	return nil
}

func (m *AccountManager) repositoryFailure(op string, err error) error {
	m.log.Error("repository call failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrRepository, op, err)
}
