package repomanager

import (
	"context"
	"database/sql"

	"github.com/bizdash/bizsync/internal/dbx"
	"github.com/bizdash/bizsync/internal/server/repositories/documents"
	"github.com/bizdash/bizsync/internal/server/repositories/refreshtokens"
	"github.com/bizdash/bizsync/internal/server/repositories/settings"
	"github.com/bizdash/bizsync/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a *sql.DB or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Documents(db dbx.DBTX) documents.Repository
	Settings(db dbx.DBTX) settings.Repository
}
