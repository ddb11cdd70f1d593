package users

import (
	"context"

	"github.com/messagely/messagely/internal/server/models"
)

// Repository is the credential store: it persists users and their password
// hashes and serves the profile lookups composed by the query endpoints.
type Repository interface {
	// Create inserts a new user, stamping join_at and last_login_at.
	// A username collision surfaces as common.ErrorDuplicateUser.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns the full row including the password hash.
	// Only the authentication path may call this.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdateLoginTimestamp stamps last_login_at with the current time.
	UpdateLoginTimestamp(ctx context.Context, username string) (*models.LoginStamp, error)

	// All lists every user's public profile ordered by last name, first name.
	All(ctx context.Context) ([]models.Profile, error)

	// Get returns a user without the password hash.
	Get(ctx context.Context, username string) (*models.User, error)

	// Exists reports whether a username is registered.
	Exists(ctx context.Context, username string) (bool, error)
}
