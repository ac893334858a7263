// Package auth is the pluggable authentication boundary for the admin API.
// The catalog core never checks credentials itself; it is handed an
// Authenticator and a token verifier and stays agnostic of where
// identities come from.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed login attempt.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials is a username/password pair as submitted by the client.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Identity is an authenticated principal.
type Identity struct {
	Username string
}

// Authenticator validates credentials. Implementations may check a static
// secret, a database, or an external identity provider.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (*Identity, error)
}

// StaticAuthenticator checks against one configured admin account with a
// bcrypt password hash.
type StaticAuthenticator struct {
	username     string
	passwordHash []byte
}

func NewStaticAuthenticator(username, passwordHash string) *StaticAuthenticator {
	return &StaticAuthenticator{username: username, passwordHash: []byte(passwordHash)}
}

// HashPassword derives a bcrypt hash for configuration bootstrapping.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (a *StaticAuthenticator) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	userOK := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(a.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(creds.Password))
	if !userOK || passErr != nil {
		return nil, ErrInvalidCredentials
	}
	return &Identity{Username: creds.Username}, nil
}
