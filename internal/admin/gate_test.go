package admin

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readify/storefront/internal/domain"
	"github.com/readify/storefront/internal/store"
	"github.com/readify/storefront/pkg/logger"
)

// MockAuthenticator implements Authenticator for testing
type MockAuthenticator struct {
	mu       sync.RWMutex
	Password string
	Token    string
	Err      error
	calls    int
}

func (m *MockAuthenticator) Authenticate(_ context.Context, creds Credentials) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return Identity{}, m.Err
	}
	if creds.Password != m.Password {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{Token: m.Token}, nil
}

func TestGate_LoginLogout(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	g := NewGate(kv, &MockAuthenticator{Password: "pw", Token: "jwt"}, logger.Discard())

	assert.Equal(t, domain.AdminUnauthenticated, g.State())
	_, err := g.Token()
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, g.Login(ctx, Credentials{Email: "a@b.c", Password: "pw"}))
	assert.True(t, g.Authenticated())
	token, err := g.Token()
	require.NoError(t, err)
	assert.Equal(t, "jwt", token)

	flag, err := kv.Get(ctx, FlagKey)
	require.NoError(t, err)
	assert.Equal(t, "true", flag)

	require.NoError(t, g.Logout(ctx))
	assert.Equal(t, domain.AdminUnauthenticated, g.State())
	_, err = kv.Get(ctx, FlagKey)
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
	_, err = kv.Get(ctx, TokenKey)
	assert.ErrorIs(t, err, store.ErrKeyNotFound)

	// Second logout is harmless
	assert.NoError(t, g.Logout(ctx))
}

func TestGate_WrongPasswordKeepsState(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	g := NewGate(kv, &MockAuthenticator{Password: "pw"}, logger.Discard())

	err := g.Login(ctx, Credentials{Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, g.Authenticated())
	assert.Zero(t, kv.Len())
}

func TestGate_AuthenticatorFailure(t *testing.T) {
	boom := errors.New("backend unreachable")
	g := NewGate(store.NewMemoryStore(), &MockAuthenticator{Err: boom}, logger.Discard())

	err := g.Login(context.Background(), Credentials{Password: "pw"})
	assert.ErrorIs(t, err, boom)
	assert.False(t, g.Authenticated())
}

func TestGate_OpenRestoresFlag(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	auth := &MockAuthenticator{Password: "pw", Token: "jwt"}

	first := NewGate(kv, auth, logger.Discard())
	require.NoError(t, first.Login(ctx, Credentials{Password: "pw"}))

	second := NewGate(kv, auth, logger.Discard())
	require.NoError(t, second.Open(ctx))
	assert.True(t, second.Authenticated())
	token, err := second.Token()
	require.NoError(t, err)
	assert.Equal(t, "jwt", token)
}

func TestGate_OpenIgnoresOtherFlagValues(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, FlagKey, "false"))

	g := NewGate(kv, &MockAuthenticator{}, logger.Discard())
	require.NoError(t, g.Open(ctx))
	assert.False(t, g.Authenticated())
}
