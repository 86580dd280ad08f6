package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	stock "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/domain"
)

// TxRunner begins, commits, and rolls back the single transaction that an
// orchestrator call runs in.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner constructs a runner over db.
func NewTxRunner(db *sql.DB) (*TxRunner, error) {
	if db == nil {
		return nil, errors.New("inspection postgres: nil db")
	}
	return &TxRunner{db: db}, nil
}

// RunInTx runs fn inside one transaction. Serialization failures and
// deadlocks surface as the retryable conflict sentinel.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if r == nil || r.db == nil {
		return errors.New("inspection postgres: runner not initialized")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("inspection postgres: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return mapConflict(err)
	}
	if err := tx.Commit(); err != nil {
		return mapConflict(fmt.Errorf("inspection postgres: commit: %w", err))
	}
	return nil
}

func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", stock.ErrTransactionConflict, pgErr.Message)
		}
	}
	return err
}
