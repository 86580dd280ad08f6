package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	alerts "github.com/azorean79/gestor-naval-pro-sub005/internal/alerts/domain"
	stock "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/domain"
)

// UnitDue is the scheduling snapshot of one active unit.
type UnitDue struct {
	ID      string
	Serial  string
	NextDue time.Time
}

// CylinderDue is the scheduling snapshot of one cylinder.
type CylinderDue struct {
	ID       string
	Serial   string
	NextTest time.Time
}

// DueReader lists pending deadlines. Read-only.
type DueReader interface {
	ListUnitsDue(ctx context.Context) ([]UnitDue, error)
	ListCylindersDue(ctx context.Context) ([]CylinderDue, error)
}

// StockReader lists inventory positions. Read-only.
type StockReader interface {
	ListItems(ctx context.Context) ([]stock.StockItem, error)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Service builds the ranked alert feed across rafts, cylinders, and stock.
// Pure reads; safe for any number of concurrent callers.
type Service struct {
	due    DueReader
	stock  StockReader
	clock  Clock
	logger *log.Logger
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) { s.clock = clock }
}

// NewService constructs an alert service.
func NewService(due DueReader, stockReader StockReader, logger *log.Logger, opts ...ServiceOption) (*Service, error) {
	if due == nil {
		return nil, errors.New("alerts: nil due reader")
	}
	if stockReader == nil {
		return nil, errors.New("alerts: nil stock reader")
	}
	service := &Service{due: due, stock: stockReader, clock: systemClock{}, logger: logger}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Scan classifies everything with a pending deadline or a low stock level and
// returns the feed ranked by urgency.
func (s *Service) Scan(ctx context.Context) ([]alerts.AlertItem, error) {
	if s == nil {
		return nil, errors.New("alerts: nil service")
	}
	now := s.clock.Now()

	units, err := s.due.ListUnitsDue(ctx)
	if err != nil {
		return nil, err
	}
	cylinders, err := s.due.ListCylindersDue(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.stock.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	var feed []alerts.AlertItem
	for _, unit := range units {
		if unit.NextDue.IsZero() {
			continue
		}
		feed = append(feed, dueAlert(alerts.CategoryRaft, unit.ID, unit.Serial, "inspection", unit.NextDue, now))
	}
	for _, cylinder := range cylinders {
		if cylinder.NextTest.IsZero() {
			continue
		}
		feed = append(feed, dueAlert(alerts.CategoryCylinder, cylinder.ID, cylinder.Serial, "hydrostatic test", cylinder.NextTest, now))
	}
	for _, item := range items {
		if item.Low() {
			feed = append(feed, lowStockAlert(item))
		}
		if !item.Expiry.IsZero() {
			if alert, relevant := expiryAlert(item, now); relevant {
				feed = append(feed, alert)
			}
		}
	}

	alerts.Rank(feed)
	return feed, nil
}

func dueAlert(category alerts.Category, id, serial, what string, due, now time.Time) alerts.AlertItem {
	days := alerts.DaysUntil(now, due)
	expired := due.Before(now)
	message := fmt.Sprintf("%s %s: %s due in %d days", category, serial, what, days)
	if expired {
		message = fmt.Sprintf("%s %s: %s overdue since %s", category, serial, what, due.Format("2006-01-02"))
	}
	return alerts.AlertItem{
		ID:            id,
		Category:      category,
		Tier:          alerts.Classify(days),
		DaysRemaining: days,
		Expired:       expired,
		DueDate:       due,
		Message:       message,
	}
}

// lowStockAlert flags items at or below their minimum. Out-of-stock items are
// critical, the rest urgent; threshold crossing itself carries no date.
func lowStockAlert(item stock.StockItem) alerts.AlertItem {
	tier := alerts.TierUrgent
	if item.Quantity == 0 {
		tier = alerts.TierCritical
	}
	return alerts.AlertItem{
		ID:            "stock:" + item.Key().String(),
		Category:      alerts.CategoryComponent,
		Tier:          tier,
		DaysRemaining: 0,
		Message:       fmt.Sprintf("stock %s: %d on hand, minimum %d", item.Key(), item.Quantity, item.Minimum),
	}
}

func expiryAlert(item stock.StockItem, now time.Time) (alerts.AlertItem, bool) {
	days := alerts.DaysUntil(now, item.Expiry)
	tier := alerts.ClassifyConsumable(days)
	if tier == alerts.TierNormal {
		return alerts.AlertItem{}, false
	}
	expired := item.Expiry.Before(now)
	message := fmt.Sprintf("component %s: batch expires in %d days", item.Key(), days)
	if expired {
		message = fmt.Sprintf("component %s: batch expired on %s", item.Key(), item.Expiry.Format("2006-01-02"))
	}
	return alerts.AlertItem{
		ID:            "expiry:" + item.Key().String(),
		Category:      alerts.CategoryComponent,
		Tier:          tier,
		DaysRemaining: days,
		Expired:       expired,
		DueDate:       item.Expiry,
		Message:       message,
	}, true
}
