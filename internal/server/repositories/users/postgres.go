package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/messagely/messagely/internal/common"
	"github.com/messagely/messagely/internal/dbx"
	"github.com/messagely/messagely/internal/server/models"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, password, first_name, last_name, phone, join_at, last_login_at)
		 VALUES ($1, $2, $3, $4, $5, current_timestamp, current_timestamp)
		 RETURNING join_at, last_login_at
		 `

	var lastLogin sql.NullTime
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Password, user.FirstName, user.LastName, user.Phone).
		Scan(&user.JoinAt, &lastLogin)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrorDuplicateUser
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}

	return user, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT username, password, first_name, last_name, phone, join_at, last_login_at FROM users
		 WHERE username = $1
		 `

	user := &models.User{}
	var lastLogin sql.NullTime
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.Username, &user.Password, &user.FirstName, &user.LastName, &user.Phone, &user.JoinAt, &lastLogin)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}

	return user, nil
}

func (r *PostgresRepository) UpdateLoginTimestamp(ctx context.Context, username string) (*models.LoginStamp, error) {
	query :=
		`UPDATE users SET last_login_at = current_timestamp
		 WHERE username = $1
		 RETURNING username, last_login_at
		 `

	stamp := &models.LoginStamp{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&stamp.Username, &stamp.LastLoginAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return stamp, nil
}

func (r *PostgresRepository) All(ctx context.Context) ([]models.Profile, error) {
	query :=
		`SELECT username, first_name, last_name, phone FROM users
		 ORDER BY last_name, first_name
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.Username, &p.FirstName, &p.LastName, &p.Phone); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return profiles, nil
}

func (r *PostgresRepository) Get(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT username, first_name, last_name, phone, join_at, last_login_at FROM users
		 WHERE username = $1
		 `

	user := &models.User{}
	var lastLogin sql.NullTime
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.Username, &user.FirstName, &user.LastName, &user.Phone, &user.JoinAt, &lastLogin)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}

	return user, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}
