package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/azorean79/gestor-naval-pro-sub005/internal/observability/metrics"
	stock "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/domain"
)

// Repository applies whole batches atomically: either every line's quantity
// is adjusted and one movement row appended per line, or nothing is.
type Repository interface {
	ApplyBatch(ctx context.Context, batch stock.Batch) (*stock.BatchOutcome, error)
	// ApplyBatchTx joins a caller-owned transaction so stock adjustment can
	// commit together with other writes (inspection records, provisioning).
	ApplyBatchTx(ctx context.Context, tx *sql.Tx, batch stock.Batch) (*stock.BatchOutcome, error)
	GetItem(ctx context.Context, key stock.ItemKey) (*stock.StockItem, error)
	ListItems(ctx context.Context) ([]stock.StockItem, error)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Result summarizes a successful consume/replenish call.
type Result struct {
	Movements      []stock.Movement `json:"movements"`
	CreatedDefault []stock.ItemKey  `json:"created_default,omitempty"`
}

// Coordinator owns all writes to stock quantities and movements. It does not
// deduplicate repeated calls; submitting a batch exactly once is the caller's
// contract.
type Coordinator struct {
	repo   Repository
	clock  Clock
	logger *log.Logger
}

// CoordinatorOption customizes the coordinator.
type CoordinatorOption func(*Coordinator)

// WithClock assigns a clock.
func WithClock(clock Clock) CoordinatorOption {
	return func(c *Coordinator) { c.clock = clock }
}

// NewCoordinator constructs a stock coordinator.
func NewCoordinator(repo Repository, logger *log.Logger, opts ...CoordinatorOption) (*Coordinator, error) {
	if repo == nil {
		return nil, errors.New("stock: nil repository")
	}
	coordinator := &Coordinator{repo: repo, clock: systemClock{}, logger: logger}
	for _, opt := range opts {
		opt(coordinator)
	}
	return coordinator, nil
}

// Consume decrements every named item or fails with the full shortfall list.
func (c *Coordinator) Consume(ctx context.Context, lines []stock.Line, reason, responsible string) (*Result, error) {
	return c.apply(ctx, nil, stock.DirectionOut, lines, reason, responsible)
}

// ConsumeTx is Consume inside a caller-owned transaction.
func (c *Coordinator) ConsumeTx(ctx context.Context, tx *sql.Tx, lines []stock.Line, reason, responsible string) (*Result, error) {
	return c.apply(ctx, tx, stock.DirectionOut, lines, reason, responsible)
}

// Replenish increments every named item, creating missing items with the
// default minimum threshold.
func (c *Coordinator) Replenish(ctx context.Context, lines []stock.Line, reason, responsible string) (*Result, error) {
	return c.apply(ctx, nil, stock.DirectionIn, lines, reason, responsible)
}

// ReplenishTx is Replenish inside a caller-owned transaction.
func (c *Coordinator) ReplenishTx(ctx context.Context, tx *sql.Tx, lines []stock.Line, reason, responsible string) (*Result, error) {
	return c.apply(ctx, tx, stock.DirectionIn, lines, reason, responsible)
}

// Item returns one inventory position.
func (c *Coordinator) Item(ctx context.Context, key stock.ItemKey) (*stock.StockItem, error) {
	if c == nil || c.repo == nil {
		return nil, errors.New("stock: nil coordinator")
	}
	return c.repo.GetItem(ctx, key.Canonical())
}

// Items returns the full inventory.
func (c *Coordinator) Items(ctx context.Context) ([]stock.StockItem, error) {
	if c == nil || c.repo == nil {
		return nil, errors.New("stock: nil coordinator")
	}
	return c.repo.ListItems(ctx)
}

func (c *Coordinator) apply(ctx context.Context, tx *sql.Tx, direction stock.Direction, lines []stock.Line, reason, responsible string) (*Result, error) {
	if c == nil || c.repo == nil {
		return nil, errors.New("stock: nil coordinator")
	}
	op := "replenish"
	if direction == stock.DirectionOut {
		op = "consume"
	}
	start := c.clock.Now()

	normalized, err := normalizeLines(lines)
	if err != nil {
		metrics.ObserveStockOp(op, "invalid", c.clock.Now().Sub(start))
		return nil, err
	}

	batch := stock.Batch{
		Direction:   direction,
		Lines:       normalized,
		Reason:      reason,
		Responsible: responsible,
		At:          c.clock.Now(),
		AutoCreate:  direction == stock.DirectionIn,
	}

	var outcome *stock.BatchOutcome
	if tx != nil {
		outcome, err = c.repo.ApplyBatchTx(ctx, tx, batch)
	} else {
		outcome, err = c.repo.ApplyBatch(ctx, batch)
	}
	if err != nil {
		result := "error"
		var insufficient *stock.InsufficientStockError
		if errors.As(err, &insufficient) {
			result = "shortfall"
		} else if errors.Is(err, stock.ErrTransactionConflict) {
			result = "conflict"
		}
		metrics.ObserveStockOp(op, result, c.clock.Now().Sub(start))
		return nil, err
	}

	if c.logger != nil {
		c.logger.Printf("stock %s: %d lines reason=%q responsible=%q created=%d", op, len(batch.Lines), reason, responsible, len(outcome.CreatedDefault))
	}
	metrics.ObserveStockOp(op, "success", c.clock.Now().Sub(start))
	return &Result{Movements: outcome.Movements, CreatedDefault: outcome.CreatedDefault}, nil
}

// normalizeLines validates, merges duplicate keys, and sorts the batch so the
// repository can take row locks in a stable order.
func normalizeLines(lines []stock.Line) ([]stock.Line, error) {
	verr := &stock.ValidationError{}
	if len(lines) == 0 {
		verr.Add("lines", "at least one line required")
		return nil, verr.Err()
	}

	merged := make(map[stock.ItemKey]int, len(lines))
	for i, line := range lines {
		key := line.Key()
		if key.Name == "" {
			verr.Add(fmt.Sprintf("lines[%d].name", i), "name required")
			continue
		}
		if line.Quantity <= 0 {
			verr.Add(fmt.Sprintf("lines[%d].quantity", i), "quantity must be positive")
			continue
		}
		merged[key] += line.Quantity
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	keys := make([]stock.ItemKey, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	out := make([]stock.Line, 0, len(keys))
	for _, key := range keys {
		out = append(out, stock.Line{Name: key.Name, Category: key.Category, Quantity: merged[key]})
	}
	return out, nil
}
