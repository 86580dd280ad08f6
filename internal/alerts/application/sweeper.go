package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	alerts "github.com/azorean79/gestor-naval-pro-sub005/internal/alerts/domain"
	"github.com/azorean79/gestor-naval-pro-sub005/internal/alerts/notify"
	"github.com/azorean79/gestor-naval-pro-sub005/internal/observability/metrics"
)

// Sweeper runs the alert scan on a cron schedule, publishes the per-tier
// gauges, and forwards the feed to an optional notifier.
type Sweeper struct {
	service  *Service
	notifier notify.Notifier
	schedule string
	timeout  time.Duration
	logger   *log.Logger
	cron     *cron.Cron
}

// SweeperOption customizes the sweeper.
type SweeperOption func(*Sweeper)

// WithNotifier attaches a notifier for sweep summaries.
func WithNotifier(notifier notify.Notifier) SweeperOption {
	return func(s *Sweeper) { s.notifier = notifier }
}

// WithSweepTimeout bounds a single sweep.
func WithSweepTimeout(timeout time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// NewSweeper constructs a sweeper. The schedule uses standard cron syntax.
func NewSweeper(service *Service, schedule string, logger *log.Logger, opts ...SweeperOption) (*Sweeper, error) {
	if service == nil {
		return nil, errors.New("alerts: nil service")
	}
	if schedule == "" {
		return nil, errors.New("alerts: empty sweep schedule")
	}
	sweeper := &Sweeper{
		service:  service,
		schedule: schedule,
		timeout:  time.Minute,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(sweeper)
	}
	return sweeper, nil
}

// Start registers the cron entry and begins sweeping. One sweep runs
// immediately so gauges are populated before the first tick.
func (s *Sweeper) Start() error {
	if s == nil {
		return errors.New("alerts: nil sweeper")
	}
	runner := cron.New()
	if _, err := runner.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}
	s.cron = runner
	runner.Start()
	go s.sweep()
	return nil
}

// Stop halts the cron runner and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s == nil || s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

func (s *Sweeper) sweep() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	feed, err := s.service.Scan(ctx)
	if err != nil {
		metrics.ObserveAlertSweep(metrics.ResultError, time.Since(start))
		if s.logger != nil {
			s.logger.Printf("alert sweep failed: %v", err)
		}
		return
	}

	counts := map[alerts.Tier]int{
		alerts.TierCritical:  0,
		alerts.TierUrgent:    0,
		alerts.TierAttention: 0,
		alerts.TierNormal:    0,
	}
	for _, item := range feed {
		counts[item.Tier]++
	}
	for tier, count := range counts {
		metrics.SetAlertItems(string(tier), count)
	}
	metrics.ObserveAlertSweep(metrics.ResultSuccess, time.Since(start))

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, feed); err != nil && s.logger != nil {
			s.logger.Printf("alert notify failed: %v", err)
		}
	}
	if s.logger != nil {
		s.logger.Printf("alert sweep done: %d items (%d critical, %d urgent)",
			len(feed), counts[alerts.TierCritical], counts[alerts.TierUrgent])
	}
}
