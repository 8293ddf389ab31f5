package repository

import (
	"context"
	"testing"

	"github.com/atinyakov/GophChat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	alice := &models.User{ID: "u1", Username: "alice", Salt: "s", Hash: "h", Session: "t1"}
	require.NoError(t, repo.Create(ctx, alice))

	got, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, *alice, *got)

	got.Session = "mutated"
	again, err := repo.FindBySession(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", again.Session, "returned records must be copies")

	require.NoError(t, repo.UpdateSession(ctx, "u1", "t2"))
	_, err = repo.FindBySession(ctx, "t1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, repo.ClearSession(ctx, "t2"))
	_, err = repo.FindBySession(ctx, "t2")
	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, repo.ClearSession(ctx, "t2"), "clearing twice is fine")

	require.NoError(t, repo.DeleteByID(ctx, "u1"))
	assert.ErrorIs(t, repo.DeleteByID(ctx, "u1"), models.ErrNotFound)
	_, err = repo.FindByUsername(ctx, "alice")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryUserRepository_Uniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	require.NoError(t, repo.Create(ctx, &models.User{ID: "u1", Username: "alice", Salt: "s", Hash: "h", Session: "t1"}))
	require.NoError(t, repo.Create(ctx, &models.User{ID: "u2", Username: "bob", Salt: "s", Hash: "h"}))

	assert.ErrorIs(t, repo.Create(ctx, &models.User{ID: "u3", Username: "alice", Salt: "s", Hash: "h"}), models.ErrConflict)
	assert.ErrorIs(t, repo.Create(ctx, &models.User{ID: "u1", Username: "carol", Salt: "s", Hash: "h"}), models.ErrConflict)
	assert.ErrorIs(t, repo.Create(ctx, &models.User{ID: "u4", Username: "dave", Salt: "s", Hash: "h", Session: "t1"}), models.ErrConflict)
	assert.ErrorIs(t, repo.UpdateSession(ctx, "u2", "t1"), models.ErrConflict)
	assert.ErrorIs(t, repo.UpdateSession(ctx, "missing", "t9"), models.ErrNotFound)
}

func TestMemoryUserRepository_EmptySessionNeverMatches(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	require.NoError(t, repo.Create(ctx, &models.User{ID: "u1", Username: "alice", Salt: "s", Hash: "h"}))

	_, err := repo.FindBySession(ctx, "")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryUserRepository_RejectsMalformed(t *testing.T) {
	repo := NewMemoryUserRepository()
	err := repo.Create(context.Background(), &models.User{ID: "u1"})
	assert.ErrorIs(t, err, models.ErrMalformedRecord)
}
