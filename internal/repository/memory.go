package repository

import (
	"context"
	"sync"

	"github.com/atinyakov/GophChat/internal/models"
)

// MemoryUserRepository keeps user accounts in process memory.
// It enforces the same uniqueness rules as the Postgres schema and is used
// when no database is configured.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User // keyed by ID
}

// NewMemoryUserRepository returns an empty MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]models.User)}
}

// FindByUsername returns a copy of the user with the given username, or models.ErrNotFound.
func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

// FindBySession returns a copy of the user holding session, or models.ErrNotFound.
func (r *MemoryUserRepository) FindBySession(_ context.Context, session string) (*models.User, error) {
	if session == "" {
		return nil, models.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Session == session {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

// Create stores a copy of user.
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return models.ErrConflict
	}
	for _, u := range r.users {
		if u.Username == user.Username || (user.Session != "" && u.Session == user.Session) {
			return models.ErrConflict
		}
	}
	r.users[user.ID] = *user
	return nil
}

// UpdateSession replaces the session of the user with the given ID.
func (r *MemoryUserRepository) UpdateSession(_ context.Context, id, session string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return models.ErrNotFound
	}
	if session != "" {
		for otherID, other := range r.users {
			if otherID != id && other.Session == session {
				return models.ErrConflict
			}
		}
	}
	u.Session = session
	r.users[id] = u
	return nil
}

// ClearSession removes session from whichever user holds it.
func (r *MemoryUserRepository) ClearSession(_ context.Context, session string) error {
	if session == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.users {
		if u.Session == session {
			u.Session = ""
			r.users[id] = u
		}
	}
	return nil
}

// DeleteByID removes the user with the given ID, or returns models.ErrNotFound.
func (r *MemoryUserRepository) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.users, id)
	return nil
}
