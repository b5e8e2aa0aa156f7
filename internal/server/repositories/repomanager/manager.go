package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/staffdesk/internal/dbx"
	"github.com/dmitrijs2005/staffdesk/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/staffdesk/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/staffdesk/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/staffdesk/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code runs
// against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
