package messages

import (
	"context"

	"github.com/messagely/messagely/internal/server/models"
)

// Repository is the message store. It persists directed messages and serves
// the joined profile views the query endpoints expose.
type Repository interface {
	// Create inserts a message, stamping sent_at. A reference to a missing
	// user surfaces as common.ErrorValidation.
	Create(ctx context.Context, fromUsername, toUsername, body string) (*models.Message, error)

	// Get returns a message with sender and recipient profiles joined in.
	Get(ctx context.Context, id int64) (*models.MessageDetail, error)

	// MarkRead stamps read_at with the current time if it is still unset;
	// re-marking keeps the original timestamp. Returns the effective receipt.
	MarkRead(ctx context.Context, id int64) (*models.ReadReceipt, error)

	// MessagesFrom lists the messages a user sent, each with the recipient's
	// profile.
	MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error)

	// MessagesTo lists the messages a user received, each with the sender's
	// profile.
	MessagesTo(ctx context.Context, username string) ([]models.ReceivedMessage, error)
}
