// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/yamdb/internal/dbx"
	"github.com/dmitrijs2005/yamdb/internal/server/migrations"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/catalog"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/reviews"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Catalog returns a catalog.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Catalog(db dbx.DBTX) catalog.Repository {
	return catalog.NewPostgresRepository(db)
}

// Reviews returns a reviews.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Reviews(db dbx.DBTX) reviews.Repository {
	return reviews.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open connects to PostgreSQL through the pgx stdlib driver and checks the
// connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
