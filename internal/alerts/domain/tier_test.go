package alerts

import (
	"testing"
	"time"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		days int
		want Tier
	}{
		{-30, TierCritical},
		{-1, TierCritical},
		{0, TierCritical},
		{7, TierCritical},
		{8, TierUrgent},
		{30, TierUrgent},
		{31, TierAttention},
		{90, TierAttention},
		{91, TierNormal},
		{365, TierNormal},
	}
	for _, tc := range cases {
		if got := Classify(tc.days); got != tc.want {
			t.Errorf("Classify(%d) = %s, want %s", tc.days, got, tc.want)
		}
	}
}

func TestClassifyConsumableBoundaries(t *testing.T) {
	cases := []struct {
		days int
		want Tier
	}{
		{-1, TierCritical},
		{30, TierCritical},
		{31, TierUrgent},
		{60, TierUrgent},
		{61, TierAttention},
		{90, TierAttention},
		{91, TierNormal},
	}
	for _, tc := range cases {
		if got := ClassifyConsumable(tc.days); got != tc.want {
			t.Errorf("ClassifyConsumable(%d) = %s, want %s", tc.days, got, tc.want)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	for days := -100; days < 400; days++ {
		if Classify(days).Priority() > Classify(days+1).Priority() {
			t.Fatalf("Classify not monotonic at %d", days)
		}
		if ClassifyConsumable(days).Priority() > ClassifyConsumable(days+1).Priority() {
			t.Fatalf("ClassifyConsumable not monotonic at %d", days)
		}
	}
}

func TestRankOrdering(t *testing.T) {
	items := []AlertItem{
		{ID: "b", Tier: TierUrgent, DaysRemaining: 10},
		{ID: "a", Tier: TierCritical, DaysRemaining: 5},
		{ID: "d", Tier: TierCritical, DaysRemaining: -3},
		{ID: "c", Tier: TierCritical, DaysRemaining: 5},
	}
	Rank(items)

	wantOrder := []string{"d", "a", "c", "b"}
	for i, id := range wantOrder {
		if items[i].ID != id {
			t.Fatalf("rank[%d] = %s, want %s (full order %+v)", i, items[i].ID, id, items)
		}
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	if got := DaysUntil(now, now.AddDate(0, 0, 14)); got != 14 {
		t.Errorf("DaysUntil(+14d) = %d", got)
	}
	if got := DaysUntil(now, now.AddDate(0, 0, -5)); got != -5 {
		t.Errorf("DaysUntil(-5d) = %d", got)
	}
}
