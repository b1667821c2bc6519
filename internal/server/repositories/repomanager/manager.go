package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/yamdb/internal/dbx"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/catalog"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/reviews"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same
// service code runs against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Catalog(db dbx.DBTX) catalog.Repository
	Reviews(db dbx.DBTX) reviews.Repository
}
