package alerts

import (
	"sort"
	"time"
)

// Tier is the urgency classification of a pending deadline.
type Tier string

const (
	TierCritical  Tier = "critical"
	TierUrgent    Tier = "urgent"
	TierAttention Tier = "attention"
	TierNormal    Tier = "normal"
)

// Priority orders tiers for ranking; lower sorts first.
func (t Tier) Priority() int {
	switch t {
	case TierCritical:
		return 0
	case TierUrgent:
		return 1
	case TierAttention:
		return 2
	default:
		return 3
	}
}

// Equipment due-date windows (units and cylinders), in days.
const (
	equipmentCriticalDays  = 7
	equipmentUrgentDays    = 30
	equipmentAttentionDays = 90
)

// Consumable component windows are wider: replacement parts take longer to
// source than booking an inspection slot.
const (
	consumableCriticalDays  = 30
	consumableUrgentDays    = 60
	consumableAttentionDays = 90
)

// Classify maps days-remaining to a tier for units and cylinders. Total and
// monotonic: fewer days never yields a lower priority. Negative input means
// the deadline already passed and is always critical.
func Classify(daysRemaining int) Tier {
	switch {
	case daysRemaining <= equipmentCriticalDays:
		return TierCritical
	case daysRemaining <= equipmentUrgentDays:
		return TierUrgent
	case daysRemaining <= equipmentAttentionDays:
		return TierAttention
	default:
		return TierNormal
	}
}

// ClassifyConsumable maps days-remaining to a tier for consumable components.
func ClassifyConsumable(daysRemaining int) Tier {
	switch {
	case daysRemaining <= consumableCriticalDays:
		return TierCritical
	case daysRemaining <= consumableUrgentDays:
		return TierUrgent
	case daysRemaining <= consumableAttentionDays:
		return TierAttention
	default:
		return TierNormal
	}
}

// Category of the asset behind an alert.
type Category string

const (
	CategoryRaft      Category = "raft"
	CategoryCylinder  Category = "cylinder"
	CategoryComponent Category = "component"
)

// AlertItem is one ranked entry of the alert feed. Derived, never persisted.
type AlertItem struct {
	ID            string    `json:"id"`
	Category      Category  `json:"category"`
	Tier          Tier      `json:"tier"`
	DaysRemaining int       `json:"days_remaining"`
	// Expired distinguishes "already overdue" from "due soon" so operator
	// messaging can say vencida instead of a proxima.
	Expired bool      `json:"expired"`
	DueDate time.Time `json:"due_date,omitempty"`
	Message string    `json:"message"`
}

// Rank sorts alerts by tier priority, then days remaining ascending, then ID
// for deterministic output.
func Rank(items []AlertItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Tier.Priority() != items[j].Tier.Priority() {
			return items[i].Tier.Priority() < items[j].Tier.Priority()
		}
		if items[i].DaysRemaining != items[j].DaysRemaining {
			return items[i].DaysRemaining < items[j].DaysRemaining
		}
		return items[i].ID < items[j].ID
	})
}

// DaysUntil computes whole days from now to the deadline, negative when the
// deadline has passed.
func DaysUntil(now, due time.Time) int {
	return int(due.Sub(now).Hours() / 24)
}
