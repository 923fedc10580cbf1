package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/readify/storefront/internal/backend"
)

// AdminRole is the role claim that grants access.
const AdminRole = "admin"

// LoginClient is the backend login call.
type LoginClient interface {
	Login(ctx context.Context, email, password string) (backend.LoginResponse, error)
}

// BackendAuthenticator asks the backend to log the user in and accepts only
// tokens signed with the shared secret whose role claim is admin.
type BackendAuthenticator struct {
	client LoginClient
	secret []byte
}

func NewBackendAuthenticator(client LoginClient, secret string) *BackendAuthenticator {
	return &BackendAuthenticator{client: client, secret: []byte(secret)}
}

func (a *BackendAuthenticator) Authenticate(ctx context.Context, creds Credentials) (Identity, error) {
	resp, err := a.client.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized ||
			apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusForbidden) {
			return Identity{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.Message)
		}
		return Identity{}, fmt.Errorf("backend login failed: %w", err)
	}

	if err := a.checkRole(resp.Token); err != nil {
		return Identity{}, err
	}
	return Identity{Token: resp.Token}, nil
}

func (a *BackendAuthenticator) checkRole(tokenStr string) error {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return fmt.Errorf("%w: invalid token", ErrInvalidCredentials)
	}

	if role, _ := claims["role"].(string); role != AdminRole {
		return fmt.Errorf("%w: not an admin", ErrInvalidCredentials)
	}
	return nil
}

// PasswordAuthenticator compares the password with a bcrypt hash. It is
// meant for local development without a backend.
type PasswordAuthenticator struct {
	hash []byte
}

func NewPasswordAuthenticator(hash string) *PasswordAuthenticator {
	return &PasswordAuthenticator{hash: []byte(hash)}
}

func (a *PasswordAuthenticator) Authenticate(_ context.Context, creds Credentials) (Identity, error) {
	if len(a.hash) == 0 {
		return Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(creds.Password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{}, nil
}
