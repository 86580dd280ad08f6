package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "naval_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	inspectionTotal   *prometheus.CounterVec
	inspectionLatency *prometheus.HistogramVec

	provisionTotal   *prometheus.CounterVec
	provisionLatency *prometheus.HistogramVec

	stockOpsTotal   *prometheus.CounterVec
	stockOpsLatency *prometheus.HistogramVec

	alertSweepTotal   *prometheus.CounterVec
	alertSweepLatency *prometheus.HistogramVec
	alertItems        *prometheus.GaugeVec

	certificateExportTotal   *prometheus.CounterVec
	certificateExportLatency *prometheus.HistogramVec

	configurationGapTotal prometheus.Counter
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		inspectionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "inspection_records_total",
				Help: "Total inspection record submissions by result",
			},
			[]string{"result"},
		)
		inspectionLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "inspection_record_latency_seconds",
				Help:    "Inspection record submission latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		provisionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "unit_provision_total",
				Help: "Total unit provisioning operations by result",
			},
			[]string{"result"},
		)
		provisionLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "unit_provision_latency_seconds",
				Help:    "Unit provisioning latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		stockOpsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "stock_operations_total",
				Help: "Total stock batch operations by op and result",
			},
			[]string{"op", "result"},
		)
		stockOpsLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "stock_operation_latency_seconds",
				Help:    "Stock batch operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "result"},
		)

		alertSweepTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_sweep_total",
				Help: "Total alert sweeps by result",
			},
			[]string{"result"},
		)
		alertSweepLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "alert_sweep_latency_seconds",
				Help:    "Alert sweep latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		alertItems = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "alert_items",
				Help: "Alert items by tier at the last sweep",
			},
			[]string{"tier"},
		)

		certificateExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "certificate_export_total",
				Help: "Total certificate exports by format and result",
			},
			[]string{"format", "result"},
		)
		certificateExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "certificate_export_latency_seconds",
				Help:    "Certificate export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		configurationGapTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "configuration_gap_total",
				Help: "Evaluations that fell back to the default brand periodicity",
			},
		)

		prometheus.MustRegister(
			inspectionTotal,
			inspectionLatency,
			provisionTotal,
			provisionLatency,
			stockOpsTotal,
			stockOpsLatency,
			alertSweepTotal,
			alertSweepLatency,
			alertItems,
			certificateExportTotal,
			certificateExportLatency,
			configurationGapTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveInspection records inspection submission duration and result.
func ObserveInspection(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if inspectionTotal != nil {
		inspectionTotal.WithLabelValues(result).Inc()
	}
	if inspectionLatency != nil {
		inspectionLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveProvision records unit provisioning duration and result.
func ObserveProvision(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if provisionTotal != nil {
		provisionTotal.WithLabelValues(result).Inc()
	}
	if provisionLatency != nil {
		provisionLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveStockOp records a stock batch operation by op and result.
func ObserveStockOp(op, result string, duration time.Duration) {
	if op == "" {
		op = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if stockOpsTotal != nil {
		stockOpsTotal.WithLabelValues(op, result).Inc()
	}
	if stockOpsLatency != nil {
		stockOpsLatency.WithLabelValues(op, result).Observe(duration.Seconds())
	}
}

// ObserveAlertSweep records sweep duration and result.
func ObserveAlertSweep(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if alertSweepTotal != nil {
		alertSweepTotal.WithLabelValues(result).Inc()
	}
	if alertSweepLatency != nil {
		alertSweepLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// SetAlertItems sets the per-tier alert gauge from the last sweep.
func SetAlertItems(tier string, count int) {
	if tier == "" {
		tier = "unknown"
	}
	if count < 0 {
		count = 0
	}
	if alertItems != nil {
		alertItems.WithLabelValues(tier).Set(float64(count))
	}
}

// ObserveCertificateExport records export duration by format and result.
func ObserveCertificateExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if certificateExportTotal != nil {
		certificateExportTotal.WithLabelValues(format, result).Inc()
	}
	if certificateExportLatency != nil {
		certificateExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncConfigurationGap counts an evaluation with an unmapped brand.
func IncConfigurationGap() {
	if configurationGapTotal != nil {
		configurationGapTotal.Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
