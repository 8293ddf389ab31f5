package service_test

import (
	"context"
	"testing"

	"github.com/atinyakov/GophChat/internal/auth"
	"github.com/atinyakov/GophChat/internal/repository"
	"github.com/atinyakov/GophChat/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager() *service.AccountManager {
	return service.NewAccountManager(
		repository.NewMemoryUserRepository(),
		auth.NewHasher(1000),
		auth.UUIDIssuer{},
		nil,
	)
}

func TestAccountFlow_DuplicateRegistration(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	_, err := m.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	_, err = m.Register(ctx, "alice", "pw2")
	assert.ErrorIs(t, err, service.ErrUsernameTaken)
}

func TestAccountFlow_LoginRotatesSession(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	registered, err := m.Register(ctx, "bob", "correct")
	require.NoError(t, err)

	_, err = m.Login(ctx, "bob", "wrong")
	assert.ErrorIs(t, err, service.ErrIncorrectPassword)

	loggedIn, err := m.Login(ctx, "bob", "correct")
	require.NoError(t, err)
	assert.NotEqual(t, registered, loggedIn)

	// the registration session no longer authenticates
	_, err = m.GetUserBySession(ctx, registered)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)

	user, err := m.GetUserBySession(ctx, loggedIn)
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
}

func TestAccountFlow_UnknownUsername(t *testing.T) {
	_, err := newManager().Login(context.Background(), "ghost", "x")
	assert.ErrorIs(t, err, service.ErrUnknownUsername)
}

func TestAccountFlow_Logout(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	session, err := m.Register(ctx, "carol", "pw")
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx, session))
	_, err = m.GetUserBySession(ctx, session)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)

	require.NoError(t, m.Logout(ctx, session), "logout is idempotent")

	// password still works after logout
	_, err = m.Login(ctx, "carol", "pw")
	assert.NoError(t, err)
}

func TestAccountFlow_Delete(t *testing.T) {
	ctx := context.Background()
	m := newManager()

	session, err := m.Register(ctx, "dave", "pw")
	require.NoError(t, err)
	user, err := m.GetUserBySession(ctx, session)
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, user.ID))
	_, err = m.Login(ctx, "dave", "pw")
	assert.ErrorIs(t, err, service.ErrUnknownUsername)

	_, err = m.Register(ctx, "dave", "new")
	assert.NoError(t, err, "username is free again after delete")
}

func TestAccountFlow_HashesVerifyAfterRestart(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUserRepository()

	first := service.NewAccountManager(repo, auth.NewHasher(auth.DefaultIterations), auth.UUIDIssuer{}, nil)
	_, err := first.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	// a fresh process builds its own hasher; records carry no iteration count
	restarted := service.NewAccountManager(repo, auth.NewHasher(0), auth.UUIDIssuer{}, nil)
	_, err = restarted.Login(ctx, "alice", "pw")
	assert.NoError(t, err)
}
