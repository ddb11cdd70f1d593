package messages

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

// pgForeignKeyViolation is the PostgreSQL error code for foreign_key_violation.
const pgForeignKeyViolation = "23503"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, fromUsername, toUsername, body string) (*models.Message, error) {

	query :=
		`INSERT INTO messages (from_username, to_username, body, sent_at)
		 VALUES ($1, $2, $3, current_timestamp)
		 RETURNING id, sent_at
		 `

	msg := &models.Message{
		FromUsername: fromUsername,
		ToUsername:   toUsername,
		Body:         body,
	}

	err := r.db.QueryRowContext(ctx, query, fromUsername, toUsername, body).Scan(&msg.ID, &msg.SentAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, common.ErrorValidation
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return msg, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.MessageDetail, error) {
	query :=
		`SELECT m.id, m.body, m.sent_at, m.read_at,
		        f.username, f.first_name, f.last_name, f.phone,
		        t.username, t.first_name, t.last_name, t.phone
		 FROM messages AS m
		   JOIN users AS f ON m.from_username = f.username
		   JOIN users AS t ON m.to_username = t.username
		 WHERE m.id = $1
		 `

	detail := &models.MessageDetail{}
	var readAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&detail.ID, &detail.Body, &detail.SentAt, &readAt,
		&detail.FromUser.Username, &detail.FromUser.FirstName, &detail.FromUser.LastName, &detail.FromUser.Phone,
		&detail.ToUser.Username, &detail.ToUser.FirstName, &detail.ToUser.LastName, &detail.ToUser.Phone,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorMessageNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if readAt.Valid {
		detail.ReadAt = &readAt.Time
	}

	return detail, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, id int64) (*models.ReadReceipt, error) {
	// coalesce keeps the first read timestamp, making re-marking idempotent.
	query :=
		`UPDATE messages SET read_at = coalesce(read_at, current_timestamp)
		 WHERE id = $1
		 RETURNING id, read_at
		 `

	receipt := &models.ReadReceipt{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&receipt.ID, &receipt.ReadAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorMessageNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return receipt, nil
}

func (r *PostgresRepository) MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error) {
	query :=
		`SELECT m.id, u.username, u.first_name, u.last_name, u.phone, m.body, m.sent_at, m.read_at
		 FROM messages AS m
		   JOIN users AS u ON m.to_username = u.username
		 WHERE m.from_username = $1
		 `

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.SentMessage, 0)
	for rows.Next() {
		var m models.SentMessage
		var readAt sql.NullTime
		err := rows.Scan(&m.ID, &m.ToUser.Username, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone,
			&m.Body, &m.SentAt, &readAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if readAt.Valid {
			m.ReadAt = &readAt.Time
		}
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) MessagesTo(ctx context.Context, username string) ([]models.ReceivedMessage, error) {
	query :=
		`SELECT m.id, u.username, u.first_name, u.last_name, u.phone, m.body, m.sent_at, m.read_at
		 FROM messages AS m
		   JOIN users AS u ON m.from_username = u.username
		 WHERE m.to_username = $1
		 `

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.ReceivedMessage, 0)
	for rows.Next() {
		var m models.ReceivedMessage
		var readAt sql.NullTime
		err := rows.Scan(&m.ID, &m.FromUser.Username, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone,
			&m.Body, &m.SentAt, &readAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if readAt.Valid {
			m.ReadAt = &readAt.Time
		}
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
