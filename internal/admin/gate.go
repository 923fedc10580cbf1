package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/readify/storefront/internal/domain"
	"github.com/readify/storefront/internal/store"
	"github.com/readify/storefront/pkg/logger"
)

const (
	// FlagKey holds "true" while the admin is logged in.
	FlagKey = "adminAuth"
	// TokenKey holds the bearer token handed out at login, if any.
	TokenKey = "token"

	flagValue = "true"
)

var (
	ErrInvalidCredentials = errors.New("invalid admin credentials")
	ErrNotAuthenticated   = errors.New("admin login required")
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identity is what an Authenticator grants. Token may be empty.
type Identity struct {
	Token string
}

// Authenticator decides whether credentials carry admin capability.
// It returns ErrInvalidCredentials when they do not.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (Identity, error)
}

// Gate is the UNAUTHENTICATED ⇄ AUTHENTICATED switch in front of the admin
// views. The state survives restarts through the store flag.
type Gate struct {
	kv   store.KV
	auth Authenticator
	log  *slog.Logger

	mu    sync.RWMutex
	state domain.AdminState
	token string
}

func NewGate(kv store.KV, auth Authenticator, log *slog.Logger) *Gate {
	return &Gate{
		kv:    kv,
		auth:  auth,
		log:   logger.OrDefault(log),
		state: domain.AdminUnauthenticated,
	}
}

// Open restores the persisted flag. Store failures leave the gate closed.
func (g *Gate) Open(ctx context.Context) error {
	flag, err := g.kv.Get(ctx, FlagKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read admin flag: %w", err)
	}
	if flag != flagValue {
		return nil
	}

	token, err := g.kv.Get(ctx, TokenKey)
	if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		return fmt.Errorf("failed to read admin token: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = domain.AdminAuthenticated
	g.token = token
	return nil
}

// Login opens the gate when the authenticator accepts creds. On any error
// the state is unchanged.
func (g *Gate) Login(ctx context.Context, creds Credentials) error {
	id, err := g.auth.Authenticate(ctx, creds)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			g.log.WarnContext(ctx, "admin login rejected", "email", creds.Email)
		}
		return err
	}

	if id.Token != "" {
		if err := g.kv.Set(ctx, TokenKey, id.Token); err != nil {
			return fmt.Errorf("failed to persist admin token: %w", err)
		}
	}
	if err := g.kv.Set(ctx, FlagKey, flagValue); err != nil {
		return fmt.Errorf("failed to persist admin flag: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = domain.AdminAuthenticated
	g.token = id.Token
	g.log.InfoContext(ctx, "admin logged in", "email", creds.Email)
	return nil
}

// Logout clears the flag. Logging out twice is fine.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.kv.Delete(ctx, FlagKey); err != nil {
		return fmt.Errorf("failed to clear admin flag: %w", err)
	}
	if err := g.kv.Delete(ctx, TokenKey); err != nil {
		g.log.WarnContext(ctx, "failed to clear admin token", "error", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = domain.AdminUnauthenticated
	g.token = ""
	return nil
}

func (g *Gate) State() domain.AdminState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Gate) Authenticated() bool {
	return g.State() == domain.AdminAuthenticated
}

// Token returns the bearer token for admin calls, or ErrNotAuthenticated.
func (g *Gate) Token() (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state != domain.AdminAuthenticated {
		return "", ErrNotAuthenticated
	}
	return g.token, nil
}
