// Package messages implements message operations and the ownership rules
// guarding them: only a participant may read a message, and only the
// recipient may mark it read.
package messages

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/messagely/messagely/internal/common"
	"github.com/messagely/messagely/internal/server/models"
	"github.com/messagely/messagely/internal/server/repositories/repomanager"
)

// Service provides message operations on top of the message and user stores.
type Service struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewService constructs a message Service.
func NewService(db *sql.DB, m repomanager.RepositoryManager) *Service {
	return &Service{db: db, repomanager: m}
}

// Create stores a message from fromUsername to toUsername. The sender is the
// authenticated identity, never a client-supplied field. An empty body or a
// reference to a nonexistent user fails with common.ErrorValidation; the
// check runs here, at the store boundary, rather than relying on the
// database's foreign keys alone.
func (s *Service) Create(ctx context.Context, fromUsername, toUsername, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" || toUsername == "" {
		return nil, common.ErrorValidation
	}

	usersRepo := s.repomanager.Users(s.db)
	for _, username := range []string{fromUsername, toUsername} {
		exists, err := usersRepo.Exists(ctx, username)
		if err != nil {
			return nil, common.ErrorInternal
		}
		if !exists {
			return nil, common.ErrorValidation
		}
	}

	msg, err := s.repomanager.Messages(s.db).Create(ctx, fromUsername, toUsername, body)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, common.ErrorValidation
		}
		return nil, common.ErrorInternal
	}

	return msg, nil
}

// Get returns a message with both participant profiles. The caller must be
// the sender or the recipient; anyone else gets common.ErrorForbidden.
func (s *Service) Get(ctx context.Context, caller string, id int64) (*models.MessageDetail, error) {
	detail, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller != detail.FromUser.Username && caller != detail.ToUser.Username {
		return nil, common.ErrorForbidden
	}

	return detail, nil
}

// MarkRead stamps the message's read_at. Only the recipient may call it;
// re-marking an already-read message keeps the original timestamp.
func (s *Service) MarkRead(ctx context.Context, caller string, id int64) (*models.ReadReceipt, error) {
	detail, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller != detail.ToUser.Username {
		return nil, common.ErrorForbidden
	}

	receipt, err := s.repomanager.Messages(s.db).MarkRead(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorMessageNotFound) {
			return nil, common.ErrorMessageNotFound
		}
		return nil, common.ErrorInternal
	}

	return receipt, nil
}

// MessagesFrom lists the messages username sent, each annotated with the
// recipient's profile.
func (s *Service) MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error) {
	result, err := s.repomanager.Messages(s.db).MessagesFrom(ctx, username)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return result, nil
}

// MessagesTo lists the messages username received, each annotated with the
// sender's profile.
func (s *Service) MessagesTo(ctx context.Context, username string) ([]models.ReceivedMessage, error) {
	result, err := s.repomanager.Messages(s.db).MessagesTo(ctx, username)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return result, nil
}

func (s *Service) get(ctx context.Context, id int64) (*models.MessageDetail, error) {
	detail, err := s.repomanager.Messages(s.db).Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorMessageNotFound) {
			return nil, common.ErrorMessageNotFound
		}
		return nil, common.ErrorInternal
	}
	return detail, nil
}
