package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	alertapp "github.com/azorean79/gestor-naval-pro-sub005/internal/alerts/application"
	alertpg "github.com/azorean79/gestor-naval-pro-sub005/internal/alerts/infrastructure/postgres"
	alerthttp "github.com/azorean79/gestor-naval-pro-sub005/internal/alerts/interfaces/http"
	alertnotify "github.com/azorean79/gestor-naval-pro-sub005/internal/alerts/notify"
	"github.com/azorean79/gestor-naval-pro-sub005/internal/audit"
	"github.com/azorean79/gestor-naval-pro-sub005/internal/auth"
	unitsadapter "github.com/azorean79/gestor-naval-pro-sub005/internal/compliance/adapters/units"
	complianceapp "github.com/azorean79/gestor-naval-pro-sub005/internal/compliance/application"
	compliance "github.com/azorean79/gestor-naval-pro-sub005/internal/compliance/domain"
	catalogconfig "github.com/azorean79/gestor-naval-pro-sub005/internal/compliance/infrastructure/config"
	inspapp "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/application"
	insppg "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/infrastructure/postgres"
	insphttp "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/interfaces/http"
	masterdatapg "github.com/azorean79/gestor-naval-pro-sub005/internal/masterdata/infrastructure/postgres"
	"github.com/azorean79/gestor-naval-pro-sub005/internal/observability/metrics"
	stockapp "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/application"
	stockpg "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/infrastructure/postgres"
	stockhttp "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/interfaces/http"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(os.Stdout, "[gestor-naval] ", log.LstdFlags|log.Lmicroseconds)
	cfg := loadConfig()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Fatalf("ping database: %v", err)
	}

	metrics.Init(db, logger)

	catalog, err := catalogconfig.Load(cfg.CatalogConfigPath)
	if err != nil {
		logger.Fatalf("load rule catalog: %v", err)
	}

	// Masterdata
	vesselRepo := masterdatapg.NewVesselRepository(db)
	brandRepo := masterdatapg.NewBrandRepository(db)
	mergeBrandPeriodicities(&catalog, brandRepo, logger)

	// Audit
	auditRepo := audit.NewRepository(db)

	// Stock
	stockRepo := stockpg.NewStockRepository(db)
	coordinator, err := stockapp.NewCoordinator(stockRepo, logger)
	if err != nil {
		logger.Fatalf("init stock coordinator: %v", err)
	}

	// Inspection
	txRunner, err := insppg.NewTxRunner(db)
	if err != nil {
		logger.Fatalf("init tx runner: %v", err)
	}
	unitRepo, err := insppg.NewUnitRepository(db)
	if err != nil {
		logger.Fatalf("init unit repository: %v", err)
	}
	cylinderRepo, err := insppg.NewCylinderRepository(db)
	if err != nil {
		logger.Fatalf("init cylinder repository: %v", err)
	}
	recordRepo, err := insppg.NewRecordRepository(db)
	if err != nil {
		logger.Fatalf("init record repository: %v", err)
	}
	orchestrator, err := inspapp.NewOrchestrator(txRunner, unitRepo, cylinderRepo, recordRepo, coordinator, catalog, logger)
	if err != nil {
		logger.Fatalf("init inspection orchestrator: %v", err)
	}
	provisioner, err := inspapp.NewProvisioner(txRunner, unitRepo, cylinderRepo, coordinator, catalog, logger,
		inspapp.WithVesselChecker(vesselRepo))
	if err != nil {
		logger.Fatalf("init provisioner: %v", err)
	}

	// Compliance
	unitReader, err := unitsadapter.NewReader(unitRepo)
	if err != nil {
		logger.Fatalf("init unit reader: %v", err)
	}
	evaluator, err := complianceapp.NewService(unitReader, catalog, logger)
	if err != nil {
		logger.Fatalf("init compliance service: %v", err)
	}

	// Alerts
	dueReader, err := alertpg.NewDueReader(db)
	if err != nil {
		logger.Fatalf("init due reader: %v", err)
	}
	alertService, err := alertapp.NewService(dueReader, stockRepo, logger)
	if err != nil {
		logger.Fatalf("init alert service: %v", err)
	}
	var sweeperOpts []alertapp.SweeperOption
	if cfg.AlertWebhookURL != "" {
		sweeperOpts = append(sweeperOpts, alertapp.WithNotifier(alertnotify.NewWebhookNotifier(cfg.AlertWebhookURL)))
	}
	sweeper, err := alertapp.NewSweeper(alertService, cfg.AlertSweepSchedule, logger, sweeperOpts...)
	if err != nil {
		logger.Fatalf("init alert sweeper: %v", err)
	}
	if err := sweeper.Start(); err != nil {
		logger.Fatalf("start alert sweeper: %v", err)
	}
	defer sweeper.Stop()

	// HTTP
	inspectionHandler, err := insphttp.NewHandler(orchestrator, provisioner, evaluator, unitRepo, auditRepo)
	if err != nil {
		logger.Fatalf("init inspection handler: %v", err)
	}
	stockHandler, err := stockhttp.NewHandler(coordinator, auditRepo)
	if err != nil {
		logger.Fatalf("init stock handler: %v", err)
	}
	alertHandler, err := alerthttp.NewHandler(alertService)
	if err != nil {
		logger.Fatalf("init alert handler: %v", err)
	}

	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil))

	mux := http.NewServeMux()
	mux.Handle("/api/v1/inspections", inspectionHandler)
	mux.Handle("/api/v1/inspections/", inspectionHandler)
	mux.Handle("/api/v1/units", inspectionHandler)
	mux.Handle("/api/v1/units/", inspectionHandler)
	mux.Handle("/api/v1/cylinders/", inspectionHandler)
	mux.Handle("/api/v1/provisioning/units", inspectionHandler)
	mux.Handle("/api/v1/provisioning/cylinders", inspectionHandler)
	mux.Handle("/api/v1/stock", stockHandler)
	mux.Handle("/api/v1/stock/", stockHandler)
	mux.Handle("/api/v1/alerts", alertHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	logger.Printf("http listening on %s (catalog %s)", cfg.HTTPAddr, catalog.Version)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL        string
	HTTPAddr           string
	JWTSecret          string
	CatalogConfigPath  string
	AlertWebhookURL    string
	AlertSweepSchedule string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:        getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:           getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:          getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		CatalogConfigPath:  getenvDefault("CATALOG_CONFIG", ""),
		AlertWebhookURL:    getenvDefault("ALERT_WEBHOOK_URL", ""),
		AlertSweepSchedule: getenvDefault("ALERT_SWEEP_SCHEDULE", "0 7 * * *"),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

// mergeBrandPeriodicities overlays brand rows from the database onto the
// catalog's built-in periodicity table. A failed read keeps the defaults.
func mergeBrandPeriodicities(catalog *compliance.Catalog, brands *masterdatapg.BrandRepository, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rows, err := brands.List(ctx)
	if err != nil {
		logger.Printf("brand periodicity overlay skipped: %v", err)
		return
	}
	for _, brand := range rows {
		if brand.PeriodicityYears <= 0 {
			continue
		}
		catalog.Periodicities[compliance.CanonicalBrand(brand.Name)] = brand.PeriodicityYears
	}
	if len(rows) > 0 {
		logger.Printf("brand periodicity overlay applied: %d brands", len(rows))
	}
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
