// Package accounts resolves OAuth identities to users.
package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/Conceptual-Machines/eternal-union/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrMissingEmail = errors.New("oauth identity has no email")
)

// Identity is what an OAuth provider tells us about a user.
type Identity struct {
	Provider       string
	ProviderUserID string
	Email          string
	Name           string
	AvatarURL      string
}

// Store finds and creates users.
type Store interface {
	// FindUser loads an active or inactive user by id.
	FindUser(ctx context.Context, id uint) (models.User, error)
	// FindOrCreate returns the user linked to the identity, linking an
	// existing user with the same email or creating a new one. created is
	// true only for brand new users.
	FindOrCreate(ctx context.Context, identity Identity) (user models.User, created bool, err error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
