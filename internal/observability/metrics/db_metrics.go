package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "units_overdue",
			Help: "Active units with a next-due date in the past",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM units WHERE status = 'active' AND next_due < NOW()")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "units_due_30d",
			Help: "Active units due within the next 30 days",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM units WHERE status = 'active' AND next_due >= NOW() AND next_due < NOW() + INTERVAL '30 days'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "stock_low_items",
			Help: "Stock items at or below their minimum threshold",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM stock_items WHERE minimum > 0 AND quantity <= minimum")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
