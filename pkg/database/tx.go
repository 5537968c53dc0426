package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TxRunner executes a function within a single database transaction.
// Entity mutations and their audit entries must commit together; any
// error from fn rolls the whole unit back.
type TxRunner struct {
	db *sqlx.DB
}

// NewTxRunner wraps a database handle.
func NewTxRunner(db *sqlx.DB) *TxRunner {
	return &TxRunner{db: db}
}

// WithinTx begins a transaction, runs fn against it and commits.
// fn receives an ExtContext so repository methods work against either
// the pooled handle or the transaction.
func (r *TxRunner) WithinTx(ctx context.Context, fn func(ext sqlx.ExtContext) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
