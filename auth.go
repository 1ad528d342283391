package shelfd

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Credentials carry the username/password pair extracted from an HTTP Basic
// Authorization header.
type Credentials struct {
	Username string
	Password string
}

// HashPassword derives a salted bcrypt hash for storage. Only the
// provisioning path calls this; request handling never sees a plaintext
// password beyond verification.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("hash password: %w: password cannot be empty", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword reports whether candidate matches the stored bcrypt hash.
// A malformed or empty hash counts as a mismatch, never an error.
func VerifyPassword(storedHash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate)) == nil
}

// Authenticator verifies credentials against the user directory. It is the
// precondition for every protected operation: callers must obtain a
// PublicUser from Authenticate before the protected operation runs.
type Authenticator struct {
	users UserRepo
}

func NewAuthenticator(users UserRepo) *Authenticator {
	return &Authenticator{users: users}
}

// Authenticate looks up the user by exact username and verifies the
// password. Unknown usernames and wrong passwords fail with the identical
// error so the response never reveals which part was wrong.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (PublicUser, error) {
	if err := ctx.Err(); err != nil {
		return PublicUser{}, fmt.Errorf("authenticate: %w", err)
	}

	if creds.Username == "" || creds.Password == "" {
		return PublicUser{}, fmt.Errorf("authenticate: %w", ErrUnauthorized)
	}

	user, err := a.users.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return PublicUser{}, fmt.Errorf("authenticate: %w", ErrUnauthorized)
		}
		return PublicUser{}, fmt.Errorf("authenticate: %w", err)
	}

	if !VerifyPassword(user.PasswordHash, creds.Password) {
		return PublicUser{}, fmt.Errorf("authenticate: %w", ErrUnauthorized)
	}

	return PublicUser{ID: user.ID, Username: user.Username}, nil
}

// ProvisionUser hashes the password and stores a new credential record.
// Duplicate usernames fail with ErrConflict from the repo.
func ProvisionUser(ctx context.Context, users UserRepo, username, password string) (User, error) {
	if username == "" {
		return User{}, fmt.Errorf("provision user: %w: username cannot be empty", ErrInvalidInput)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("provision user: %w", err)
	}

	user, err := users.Create(ctx, username, hash)
	if err != nil {
		return User{}, fmt.Errorf("provision user %s: %w", username, err)
	}

	return user, nil
}
