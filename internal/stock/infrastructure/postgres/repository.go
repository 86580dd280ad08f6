package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	stock "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/domain"
)

// StockRepository persists stock items and movements.
type StockRepository struct {
	db *sql.DB
}

// NewStockRepository constructs a repository.
func NewStockRepository(db *sql.DB) *StockRepository {
	return &StockRepository{db: db}
}

// ApplyBatch runs the batch in its own transaction.
func (r *StockRepository) ApplyBatch(ctx context.Context, batch stock.Batch) (*stock.BatchOutcome, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("stock repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapTxError(err)
	}
	outcome, err := r.ApplyBatchTx(ctx, tx, batch)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, mapTxError(err)
	}
	return outcome, nil
}

// ApplyBatchTx adjusts every item and appends one movement per line inside
// the given transaction. Lines are assumed sorted by key so overlapping
// batches acquire row locks in the same order. Nothing is written when any
// line falls short.
func (r *StockRepository) ApplyBatchTx(ctx context.Context, tx *sql.Tx, batch stock.Batch) (*stock.BatchOutcome, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("stock repo: nil db")
	}
	if tx == nil {
		return nil, errors.New("stock repo: nil tx")
	}

	type planned struct {
		line        stock.Line
		newQuantity int
		created     bool
	}

	var shortfalls []stock.Shortfall
	plan := make([]planned, 0, len(batch.Lines))

	for _, line := range batch.Lines {
		var quantity int
		err := tx.QueryRowContext(ctx, `
SELECT quantity FROM stock_items
WHERE name = $1 AND category = $2
FOR UPDATE`, line.Name, line.Category).Scan(&quantity)
		created := false
		if errors.Is(err, sql.ErrNoRows) {
			if batch.Direction == stock.DirectionOut || !batch.AutoCreate {
				shortfalls = append(shortfalls, stock.Shortfall{
					Name: line.Name, Category: line.Category, Available: 0, Required: line.Quantity,
				})
				continue
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO stock_items (name, category, quantity, minimum, unit_cost, updated_at)
VALUES ($1, $2, 0, $3, 0, $4)`, line.Name, line.Category, stock.DefaultMinimum, batch.At); err != nil {
				return nil, mapTxError(err)
			}
			quantity = 0
			created = true
		} else if err != nil {
			return nil, mapTxError(err)
		}

		newQuantity := quantity + line.Quantity
		if batch.Direction == stock.DirectionOut {
			newQuantity = quantity - line.Quantity
			if newQuantity < 0 {
				shortfalls = append(shortfalls, stock.Shortfall{
					Name: line.Name, Category: line.Category, Available: quantity, Required: line.Quantity,
				})
				continue
			}
		}
		plan = append(plan, planned{line: line, newQuantity: newQuantity, created: created})
	}

	if len(shortfalls) > 0 {
		return nil, &stock.InsufficientStockError{Shortfalls: shortfalls}
	}

	outcome := &stock.BatchOutcome{}
	for _, p := range plan {
		if _, err := tx.ExecContext(ctx, `
UPDATE stock_items SET quantity = $1, updated_at = $2
WHERE name = $3 AND category = $4`, p.newQuantity, batch.At, p.line.Name, p.line.Category); err != nil {
			return nil, mapTxError(err)
		}
		movement := stock.Movement{
			ID:          stock.NewMovementID(),
			Name:        p.line.Name,
			Category:    p.line.Category,
			Direction:   batch.Direction,
			Quantity:    p.line.Quantity,
			Reason:      batch.Reason,
			Responsible: batch.Responsible,
			At:          batch.At,
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO stock_movements (id, name, category, direction, quantity, reason, responsible, at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			movement.ID, movement.Name, movement.Category, movement.Direction, movement.Quantity,
			movement.Reason, movement.Responsible, movement.At); err != nil {
			return nil, mapTxError(err)
		}
		outcome.Movements = append(outcome.Movements, movement)
		if p.created {
			outcome.CreatedDefault = append(outcome.CreatedDefault, p.line.Key())
		}
	}
	return outcome, nil
}

// GetItem fetches one inventory position.
func (r *StockRepository) GetItem(ctx context.Context, key stock.ItemKey) (*stock.StockItem, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("stock repo: nil db")
	}
	var item stock.StockItem
	var expiry sql.NullTime
	err := r.db.QueryRowContext(ctx, `
SELECT name, category, quantity, minimum, unit_cost, expiry, updated_at
FROM stock_items
WHERE name = $1 AND category = $2`, key.Name, key.Category).Scan(
		&item.Name, &item.Category, &item.Quantity, &item.Minimum, &item.UnitCost, &expiry, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, stock.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if expiry.Valid {
		item.Expiry = expiry.Time.UTC()
	}
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}

// ListItems returns the full inventory ordered by natural key.
func (r *StockRepository) ListItems(ctx context.Context) ([]stock.StockItem, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("stock repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT name, category, quantity, minimum, unit_cost, expiry, updated_at
FROM stock_items
ORDER BY name ASC, category ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []stock.StockItem
	for rows.Next() {
		var item stock.StockItem
		var expiry sql.NullTime
		if err := rows.Scan(&item.Name, &item.Category, &item.Quantity, &item.Minimum, &item.UnitCost, &expiry, &item.UpdatedAt); err != nil {
			return nil, err
		}
		if expiry.Valid {
			item.Expiry = expiry.Time.UTC()
		}
		item.UpdatedAt = item.UpdatedAt.UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListMovements returns the audit trail for one item, newest first.
func (r *StockRepository) ListMovements(ctx context.Context, key stock.ItemKey, limit int) ([]stock.Movement, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("stock repo: nil db")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, category, direction, quantity, reason, responsible, at
FROM stock_movements
WHERE name = $1 AND category = $2
ORDER BY at DESC
LIMIT $3`, key.Name, key.Category, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []stock.Movement
	for rows.Next() {
		var m stock.Movement
		var at time.Time
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.Direction, &m.Quantity, &m.Reason, &m.Responsible, &at); err != nil {
			return nil, err
		}
		m.At = at.UTC()
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

// mapTxError turns serialization and deadlock failures into the retryable
// conflict sentinel; other errors pass through.
func mapTxError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %s", stock.ErrTransactionConflict, pgErr.Code)
		}
	}
	return err
}
