// Package users implements the authentication service and the user-facing
// query operations: registration, credential verification, token issuance,
// and profile lookups.
package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/messagely/messagely/internal/common"
	"github.com/messagely/messagely/internal/dbx"
	"github.com/messagely/messagely/internal/server/auth"
	"github.com/messagely/messagely/internal/server/config"
	"github.com/messagely/messagely/internal/server/models"
	"github.com/messagely/messagely/internal/server/repositories/repomanager"
)

// RegisterParams carries the fields of a registration request.
type RegisterParams struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Service provides authentication-related operations:
//   - Register: create users and issue a first token
//   - Login: verify credentials, stamp last_login_at, mint a token
//   - All/Get: profile lookups for the query endpoints
type Service struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	jwtSecret             []byte
	tokenValidityDuration time.Duration
	bcryptCost            int
}

// NewService constructs a Service using repositories and server config.
func NewService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *Service {
	return &Service{
		db:                    db,
		repomanager:           m,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
		bcryptCost:            cfg.BcryptCost,
	}
}

// Register creates a new user with a bcrypt-hashed password and returns a
// bearer token for the fresh account. The row is created with join_at and
// last_login_at both stamped, matching the login-on-register behavior of the
// public API. Duplicate usernames surface as common.ErrorDuplicateUser.
func (s *Service) Register(ctx context.Context, p RegisterParams) (string, error) {
	if strings.TrimSpace(p.Username) == "" || p.Password == "" {
		return "", common.ErrorValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.bcryptCost)
	if err != nil {
		return "", common.ErrorInternal
	}

	user := &models.User{
		Username:  p.Username,
		Password:  string(hash),
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
	}

	repo := s.repomanager.Users(s.db)
	if _, err := repo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorDuplicateUser) {
			return "", common.ErrorDuplicateUser
		}
		return "", common.ErrorInternal
	}

	return s.generateToken(p.Username)
}

// Authenticate reports whether username/password is a valid credential pair.
// A missing user and a wrong password are indistinguishable: both return
// false with a nil error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (bool, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorUserNotFound) {
			return false, nil
		}
		return false, common.ErrorInternal
	}

	return s.checkPassword(user.Password, password), nil
}

// Login verifies credentials and, on success, stamps last_login_at and mints
// a bearer token. Verification and the timestamp update run in one
// transaction so the stamp cannot race a concurrent credential change.
// Failures surface as common.ErrorInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, common.ErrorUserNotFound) {
				return common.ErrorInvalidCredentials
			}
			return common.ErrorInternal
		}

		if !s.checkPassword(user.Password, password) {
			return common.ErrorInvalidCredentials
		}

		if _, err := repo.UpdateLoginTimestamp(ctx, username); err != nil {
			return common.ErrorInternal
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return s.generateToken(username)
}

// All lists every user's public profile ordered by last name, first name.
func (s *Service) All(ctx context.Context) ([]models.Profile, error) {
	repo := s.repomanager.Users(s.db)

	profiles, err := repo.All(ctx)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return profiles, nil
}

// Get returns one user's profile plus join/login timestamps. The password
// hash is never populated on the returned value.
func (s *Service) Get(ctx context.Context, username string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.Get(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorUserNotFound) {
			return nil, common.ErrorUserNotFound
		}
		return nil, common.ErrorInternal
	}

	return user, nil
}

// --- helpers below ---

func (s *Service) generateToken(username string) (string, error) {
	token, err := auth.GenerateToken(username, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// checkPassword compares candidate against the stored bcrypt hash.
// bcrypt's comparison is constant-time.
func (s *Service) checkPassword(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
