package stock

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMinimum is assigned to items auto-created on replenish.
const DefaultMinimum = 1

// ItemKey is the natural key of a stock item.
type ItemKey struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Canonical trims the key fields; comparison is exact after trimming.
func (k ItemKey) Canonical() ItemKey {
	return ItemKey{Name: strings.TrimSpace(k.Name), Category: strings.TrimSpace(k.Category)}
}

func (k ItemKey) String() string {
	if k.Category == "" {
		return k.Name
	}
	return k.Name + "/" + k.Category
}

// Less orders keys for deterministic batch processing and lock acquisition.
func (k ItemKey) Less(other ItemKey) bool {
	if k.Name != other.Name {
		return k.Name < other.Name
	}
	return k.Category < other.Category
}

// StockItem is one inventory position. Quantity never goes negative; an
// operation that would make it negative fails entirely.
type StockItem struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Quantity int             `json:"quantity"`
	Minimum  int             `json:"minimum"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	// Expiry is the shelf-life limit of the stocked batch, zero when the
	// component does not expire.
	Expiry    time.Time `json:"expiry,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the item natural key.
func (i StockItem) Key() ItemKey {
	return ItemKey{Name: i.Name, Category: i.Category}
}

// Low reports whether the item should be flagged for replenishment. A zero
// minimum means the item is not tracked for alerting.
func (i StockItem) Low() bool {
	return i.Minimum > 0 && i.Quantity <= i.Minimum
}

// Value returns quantity times unit cost.
func (i StockItem) Value() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Line is one requested adjustment within a batch.
type Line struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Quantity int    `json:"quantity"`
}

// Key returns the line's item key.
func (l Line) Key() ItemKey {
	return ItemKey{Name: l.Name, Category: l.Category}.Canonical()
}
