package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/dmitrijs2005/yamdb/internal/common"
	"github.com/georgysavva/scany/sqlscan"
)

// Psql builds Postgres statements with $n placeholders.
var Psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Select runs q and scans every row into a new T.
func Select[T any](ctx context.Context, db DBTX, q sq.Sqlizer) ([]T, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows := []T{}
	if err := sqlscan.Select(ctx, db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rows, nil
}

// Get runs q and scans the first row. No rows yields common.ErrorNotFound.
func Get[T any](ctx context.Context, db DBTX, q sq.Sqlizer) (*T, error) {
	rows, err := Select[T](ctx, db, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, common.ErrorNotFound
	}
	return &rows[0], nil
}

// Exec runs q and returns the number of affected rows.
func Exec(ctx context.Context, db DBTX, q sq.Sqlizer) (int64, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

// Scalar runs q and scans its single row into dest. No rows yields
// common.ErrorNotFound.
func Scalar(ctx context.Context, db DBTX, q sq.Sqlizer, dest ...any) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := db.QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Exists wraps q in SELECT EXISTS(...).
func Exists(ctx context.Context, db DBTX, q sq.SelectBuilder) (bool, error) {
	var ok bool
	if err := Scalar(ctx, db, q.Prefix("SELECT EXISTS (").Suffix(")"), &ok); err != nil {
		return false, err
	}
	return ok, nil
}
