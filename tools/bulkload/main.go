// Command bulkload imports reference data and fleet inventory from CSV files.
// It is meant for the initial migration of an existing fleet register: vessels
// and brands first, then units and the workshop stock.
//
// CSV layouts (header row required):
//
//	vessels: id,name,island,kind,client
//	brands:  name,manufacturer,periodicity_years
//	units:   serial,brand,model,vessel_id,manufacture_date,last_inspection
//	stock:   name,category,quantity
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	compliance "github.com/azorean79/gestor-naval-pro-sub005/internal/compliance/domain"
	catalogconfig "github.com/azorean79/gestor-naval-pro-sub005/internal/compliance/infrastructure/config"
	inspection "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/domain"
	insppg "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/infrastructure/postgres"
	masterdata "github.com/azorean79/gestor-naval-pro-sub005/internal/masterdata/domain"
	masterdatapg "github.com/azorean79/gestor-naval-pro-sub005/internal/masterdata/infrastructure/postgres"
	stockapp "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/application"
	stock "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/domain"
	stockpg "github.com/azorean79/gestor-naval-pro-sub005/internal/stock/infrastructure/postgres"
)

const dateLayout = "2006-01-02"

func main() {
	_ = godotenv.Load()

	var (
		kind        = flag.String("kind", "", "what to import: vessels, brands, units or stock")
		file        = flag.String("file", "", "path to the CSV file")
		responsible = flag.String("responsible", "bulkload", "name recorded on stock movements")
	)
	flag.Parse()

	if *kind == "" || *file == "" {
		log.Fatal("both -kind and -file are required")
	}
	dsn := getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", ""))
	if dsn == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	logger := log.New(os.Stdout, "[bulkload] ", log.LstdFlags)
	ctx := context.Background()

	var count int
	switch *kind {
	case "vessels":
		count, err = importVessels(ctx, db, f)
	case "brands":
		count, err = importBrands(ctx, db, f)
	case "units":
		count, err = importUnits(ctx, db, f)
	case "stock":
		count, err = importStock(ctx, db, f, logger, *responsible)
	default:
		log.Fatalf("unknown kind %q", *kind)
	}
	if err != nil {
		log.Fatalf("import %s: %v", *kind, err)
	}
	logger.Printf("imported %d %s from %s", count, *kind, *file)
}

func importVessels(ctx context.Context, db *sql.DB, r io.Reader) (int, error) {
	repo := masterdatapg.NewVesselRepository(db)
	return eachRow(r, 2, func(line int, fields []string) error {
		vessel := &masterdata.Vessel{
			ID:   fields[0],
			Name: fields[1],
		}
		if len(fields) > 2 {
			vessel.Island = fields[2]
		}
		if len(fields) > 3 {
			vessel.Kind = fields[3]
		}
		if len(fields) > 4 {
			vessel.Client = fields[4]
		}
		if err := vessel.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		return repo.Save(ctx, vessel)
	})
}

func importBrands(ctx context.Context, db *sql.DB, r io.Reader) (int, error) {
	repo := masterdatapg.NewBrandRepository(db)
	return eachRow(r, 3, func(line int, fields []string) error {
		years, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			return fmt.Errorf("line %d: periodicity_years: %w", line, err)
		}
		brand := &masterdata.Brand{
			Name:             fields[0],
			Manufacturer:     fields[1],
			PeriodicityYears: years,
		}
		if err := brand.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		return repo.Save(ctx, brand)
	})
}

func importUnits(ctx context.Context, db *sql.DB, r io.Reader) (int, error) {
	catalog, err := catalogconfig.Load("")
	if err != nil {
		return 0, err
	}
	repo, err := insppg.NewUnitRepository(db)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	return eachRow(r, 5, func(line int, fields []string) error {
		manufactured, err := time.Parse(dateLayout, strings.TrimSpace(fields[4]))
		if err != nil {
			return fmt.Errorf("line %d: manufacture_date: %w", line, err)
		}
		var lastInspection time.Time
		if len(fields) > 5 && strings.TrimSpace(fields[5]) != "" {
			lastInspection, err = time.Parse(dateLayout, strings.TrimSpace(fields[5]))
			if err != nil {
				return fmt.Errorf("line %d: last_inspection: %w", line, err)
			}
		}
		eval := compliance.Evaluate(catalog, manufactured, fields[1], lastInspection, now)
		unit := &inspection.Unit{
			ID:              inspection.NewUnitID(),
			Serial:          fields[0],
			Brand:           compliance.CanonicalBrand(fields[1]),
			Model:           fields[2],
			VesselID:        fields[3],
			ManufactureDate: manufactured,
			Status:          inspection.StatusActive,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := unit.SetSchedule(lastInspection, eval.NextDue); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := unit.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		return repo.Create(ctx, nil, unit)
	})
}

func importStock(ctx context.Context, db *sql.DB, r io.Reader, logger *log.Logger, responsible string) (int, error) {
	coordinator, err := stockapp.NewCoordinator(stockpg.NewStockRepository(db), logger)
	if err != nil {
		return 0, err
	}
	var lines []stock.Line
	count, err := eachRow(r, 3, func(line int, fields []string) error {
		quantity, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			return fmt.Errorf("line %d: quantity: %w", line, err)
		}
		lines = append(lines, stock.Line{Name: fields[0], Category: fields[1], Quantity: quantity})
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, nil
	}
	if _, err := coordinator.Replenish(ctx, lines, "bulk import", responsible); err != nil {
		return 0, err
	}
	return count, nil
}

// eachRow reads the CSV, skips the header, and calls fn per record. Records
// shorter than minFields are rejected with their line number.
func eachRow(r io.Reader, minFields int, fn func(line int, fields []string) error) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	count := 0
	for line := 0; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		if line == 0 {
			continue
		}
		if len(record) < minFields {
			return count, fmt.Errorf("line %d: expected at least %d fields, got %d", line+1, minFields, len(record))
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if err := fn(line+1, record); err != nil {
			return count, err
		}
		count++
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
