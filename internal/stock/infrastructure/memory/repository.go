package memory

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"

	stock "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/domain"
)

// StockRepository is an in-memory stock store with the same batch semantics
// as the Postgres repository. Used by unit tests and tool dry runs.
type StockRepository struct {
	mu        sync.Mutex
	items     map[stock.ItemKey]stock.StockItem
	movements []stock.Movement
}

// NewStockRepository constructs an empty repository.
func NewStockRepository() *StockRepository {
	return &StockRepository{items: make(map[stock.ItemKey]stock.StockItem)}
}

// Seed inserts or replaces an item outside of batch accounting.
func (r *StockRepository) Seed(item stock.StockItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.Key().Canonical()] = item
}

// ApplyBatch applies the whole batch atomically under the repository lock.
func (r *StockRepository) ApplyBatch(ctx context.Context, batch stock.Batch) (*stock.BatchOutcome, error) {
	_ = ctx
	if r == nil {
		return nil, errors.New("stock memory repo: nil repository")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var shortfalls []stock.Shortfall
	type planned struct {
		line    stock.Line
		item    stock.StockItem
		created bool
	}
	plan := make([]planned, 0, len(batch.Lines))

	for _, line := range batch.Lines {
		key := line.Key()
		item, ok := r.items[key]
		created := false
		if !ok {
			if batch.Direction == stock.DirectionOut || !batch.AutoCreate {
				shortfalls = append(shortfalls, stock.Shortfall{
					Name: line.Name, Category: line.Category, Available: 0, Required: line.Quantity,
				})
				continue
			}
			item = stock.StockItem{Name: key.Name, Category: key.Category, Minimum: stock.DefaultMinimum}
			created = true
		}
		if batch.Direction == stock.DirectionOut {
			if item.Quantity < line.Quantity {
				shortfalls = append(shortfalls, stock.Shortfall{
					Name: line.Name, Category: line.Category, Available: item.Quantity, Required: line.Quantity,
				})
				continue
			}
			item.Quantity -= line.Quantity
		} else {
			item.Quantity += line.Quantity
		}
		item.UpdatedAt = batch.At
		plan = append(plan, planned{line: line, item: item, created: created})
	}

	if len(shortfalls) > 0 {
		return nil, &stock.InsufficientStockError{Shortfalls: shortfalls}
	}

	outcome := &stock.BatchOutcome{}
	for _, p := range plan {
		r.items[p.line.Key()] = p.item
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
		r.movements = append(r.movements, movement)
		outcome.Movements = append(outcome.Movements, movement)
		if p.created {
			outcome.CreatedDefault = append(outcome.CreatedDefault, p.line.Key())
		}
	}
	return outcome, nil
}

// ApplyBatchTx ignores the transaction handle; the repository lock already
// makes the batch atomic. Lets orchestrator tests share the port.
func (r *StockRepository) ApplyBatchTx(ctx context.Context, tx *sql.Tx, batch stock.Batch) (*stock.BatchOutcome, error) {
	_ = tx
	return r.ApplyBatch(ctx, batch)
}

// GetItem fetches one inventory position.
func (r *StockRepository) GetItem(ctx context.Context, key stock.ItemKey) (*stock.StockItem, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[key.Canonical()]
	if !ok {
		return nil, stock.ErrNotFound
	}
	copied := item
	return &copied, nil
}

// ListItems returns the inventory ordered by natural key.
func (r *StockRepository) ListItems(ctx context.Context) ([]stock.StockItem, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]stock.StockItem, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key().Less(items[j].Key()) })
	return items, nil
}

// Movements returns every movement recorded so far, oldest first.
func (r *StockRepository) Movements() []stock.Movement {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.Movement, len(r.movements))
	copy(out, r.movements)
	return out
}
