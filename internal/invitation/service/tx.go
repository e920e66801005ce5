package service

import (
	"context"
	"database/sql"

	"spades-sales-engine/backend/internal/db"
	invrepo "spades-sales-engine/backend/internal/invitation/repository"
	userrepo "spades-sales-engine/backend/internal/user/repository"
)

// SQLTx is the database-backed Tx implementation. It binds invitation and
// user repositories to one transaction per Run call.
type SQLTx struct {
	db *sql.DB
}

// NewSQLTx returns a Tx that runs fn inside a database transaction.
func NewSQLTx(sqlDB *sql.DB) *SQLTx {
	return &SQLTx{db: sqlDB}
}

// Run implements Tx.
func (t *SQLTx) Run(ctx context.Context, fn func(r TxRepos) error) error {
	return db.WithTx(ctx, t.db, func(tx *sql.Tx) error {
		return fn(TxRepos{
			Invites: invrepo.NewPostgresRepository(tx),
			Users:   userrepo.NewPostgresRepository(tx),
		})
	})
}
