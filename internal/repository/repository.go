// Package repository holds the SQL data access for GalaxyAPI. Queries are
// written with ? placeholders and rebound for the connected driver.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/comit-io/galaxyapi/internal/apperrors"
)

// executor returns tx when the call is part of a transaction, otherwise the pool.
func executor(db *sqlx.DB, tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return db
}

func selectAll(ctx context.Context, q sqlx.ExtContext, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

func getOne(ctx context.Context, q sqlx.ExtContext, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
}

func exec(ctx context.Context, q sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// classify turns a driver error into a NotFound or Storage error.
func classify(op, what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(op, what+" not found")
	}
	return apperrors.Storage(op, err)
}
