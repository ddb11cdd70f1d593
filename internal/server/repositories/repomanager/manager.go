package repomanager

import (
	"context"
	"database/sql"

	"github.com/messagely/messagely/internal/dbx"
	"github.com/messagely/messagely/internal/server/repositories/messages"
	"github.com/messagely/messagely/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX, so
// services can run several repository calls inside one transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Messages(db dbx.DBTX) messages.Repository
}
