package stock

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLowFlag(t *testing.T) {
	cases := []struct {
		quantity, minimum int
		want              bool
	}{
		{0, 1, true},
		{1, 1, true},
		{2, 1, false},
		{0, 0, false}, // zero minimum means not tracked
		{5, 10, true},
	}
	for _, tc := range cases {
		item := StockItem{Quantity: tc.quantity, Minimum: tc.minimum}
		if got := item.Low(); got != tc.want {
			t.Errorf("Low(quantity=%d minimum=%d) = %v, want %v", tc.quantity, tc.minimum, got, tc.want)
		}
	}
}

func TestItemKeyOrdering(t *testing.T) {
	a := ItemKey{Name: "Apito", Category: "Inspeção"}
	b := ItemKey{Name: "Apito", Category: "Spares"}
	c := ItemKey{Name: "Fachos", Category: "Inspeção"}
	if !a.Less(b) || !b.Less(c) || c.Less(a) {
		t.Fatal("item key ordering is not total")
	}
}

func TestItemValue(t *testing.T) {
	item := StockItem{Quantity: 3, UnitCost: decimal.RequireFromString("12.50")}
	if got := item.Value().String(); got != "37.5" {
		t.Fatalf("value = %s, want 37.5", got)
	}
}
