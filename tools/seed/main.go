// Command seed loads a YAML fixture of employees, stations, seismographs,
// inspection orders and catalogs into Postgres. It is meant for local and
// demo environments.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"gopkg.in/yaml.v3"

	inspection "seismic-network/internal/inspection/domain"
	inspectionpg "seismic-network/internal/inspection/infrastructure/postgres"
	masterdata "seismic-network/internal/masterdata/domain"
	masterdatapg "seismic-network/internal/masterdata/infrastructure/postgres"
	seismograph "seismic-network/internal/seismograph/domain"
	seismographpg "seismic-network/internal/seismograph/infrastructure/postgres"
)

type fixture struct {
	ReasonTypes []struct {
		ID          string `yaml:"id"`
		Description string `yaml:"description"`
	} `yaml:"reason_types"`
	StatusCodes []struct {
		Code        string `yaml:"code"`
		DisplayName string `yaml:"display_name"`
	} `yaml:"status_codes"`
	Employees []struct {
		ID      string `yaml:"id"`
		Name    string `yaml:"name"`
		Surname string `yaml:"surname"`
		Email   string `yaml:"email"`
		Phone   string `yaml:"phone"`
		Role    string `yaml:"role"`
	} `yaml:"employees"`
	Stations []struct {
		Code          string  `yaml:"code"`
		Name          string  `yaml:"name"`
		Latitude      float64 `yaml:"latitude"`
		Longitude     float64 `yaml:"longitude"`
		SeismographID string  `yaml:"seismograph_id"`
	} `yaml:"stations"`
	Seismographs []struct {
		ID            string    `yaml:"id"`
		SerialNumber  string    `yaml:"serial_number"`
		AcquiredAt    time.Time `yaml:"acquired_at"`
		StationCode   string    `yaml:"station_code"`
		ProvisionedAt time.Time `yaml:"provisioned_at"`
	} `yaml:"seismographs"`
	Orders []struct {
		Number        int       `yaml:"number"`
		EmittedAt     time.Time `yaml:"emitted_at"`
		CompletedAt   time.Time `yaml:"completed_at"`
		Status        string    `yaml:"status"`
		StationCode   string    `yaml:"station_code"`
		ResponsibleID string    `yaml:"responsible_id"`
	} `yaml:"orders"`
}

func main() {
	var (
		dsn  string
		path string
	)
	flag.StringVar(&dsn, "pg-dsn", envOrDefault("DATABASE_URL", ""), "Postgres DSN")
	flag.StringVar(&path, "fixture", envOrDefault("SEED_FIXTURE", "fixtures/seed.yaml"), "fixture file")
	flag.Parse()

	if dsn == "" {
		log.Fatal("DATABASE_URL or -pg-dsn is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read fixture: %v", err)
	}
	var fix fixture
	if err := yaml.Unmarshal(data, &fix); err != nil {
		log.Fatalf("parse fixture: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := seed(ctx, db, fix); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seed completed: %d employees, %d stations, %d seismographs, %d orders",
		len(fix.Employees), len(fix.Stations), len(fix.Seismographs), len(fix.Orders))
}

func seed(ctx context.Context, db *sql.DB, fix fixture) error {
	reasonTypes := masterdatapg.NewReasonTypeRepository(db)
	statusCodes := inspectionpg.NewStatusCodeRepository(db)
	employees := masterdatapg.NewEmployeeRepository(db)
	stations := masterdatapg.NewStationRepository(db)
	devices := seismographpg.NewRepository(db)
	orders := inspectionpg.NewOrderRepository(db)

	for _, rt := range fix.ReasonTypes {
		reasonType := masterdata.ReasonType{ID: rt.ID, Description: rt.Description}
		if err := reasonType.Validate(); err != nil {
			return fmt.Errorf("reason type %s: %w", rt.ID, err)
		}
		if err := reasonTypes.Save(ctx, &reasonType); err != nil {
			return fmt.Errorf("save reason type %s: %w", rt.ID, err)
		}
	}
	for _, sc := range fix.StatusCodes {
		code := inspection.StatusCode{Code: inspection.OrderStatus(sc.Code), DisplayName: sc.DisplayName}
		if !code.Code.Valid() {
			return fmt.Errorf("status code %s: unknown value", sc.Code)
		}
		if err := statusCodes.Save(ctx, code); err != nil {
			return fmt.Errorf("save status code %s: %w", sc.Code, err)
		}
	}
	for _, e := range fix.Employees {
		employee := masterdata.Employee{ID: e.ID, Name: e.Name, Surname: e.Surname, Email: e.Email, Phone: e.Phone, Role: e.Role}
		if err := employee.Validate(); err != nil {
			return fmt.Errorf("employee %s: %w", e.ID, err)
		}
		if err := employees.Save(ctx, &employee); err != nil {
			return fmt.Errorf("save employee %s: %w", e.ID, err)
		}
	}
	for _, s := range fix.Stations {
		station := masterdata.Station{Code: s.Code, Name: s.Name, Latitude: s.Latitude, Longitude: s.Longitude, SeismographID: s.SeismographID}
		if err := station.Validate(); err != nil {
			return fmt.Errorf("station %s: %w", s.Code, err)
		}
		if err := stations.Save(ctx, &station); err != nil {
			return fmt.Errorf("save station %s: %w", s.Code, err)
		}
	}
	for _, d := range fix.Seismographs {
		provisionedAt := d.ProvisionedAt
		if provisionedAt.IsZero() {
			provisionedAt = d.AcquiredAt
		}
		device, err := seismograph.New(d.ID, d.SerialNumber, d.AcquiredAt, d.StationCode, provisionedAt)
		if err != nil {
			return fmt.Errorf("seismograph %s: %w", d.ID, err)
		}
		if err := devices.Save(ctx, device); err != nil {
			return fmt.Errorf("save seismograph %s: %w", d.ID, err)
		}
	}
	for _, o := range fix.Orders {
		responsible, err := employees.Get(ctx, o.ResponsibleID)
		if err != nil {
			return fmt.Errorf("order %d responsible: %w", o.Number, err)
		}
		if responsible == nil {
			return fmt.Errorf("order %d: unknown responsible %s", o.Number, o.ResponsibleID)
		}
		order := inspection.Order{
			Number:      o.Number,
			EmittedAt:   o.EmittedAt,
			CompletedAt: o.CompletedAt,
			Status:      inspection.OrderStatus(o.Status),
			StationCode: o.StationCode,
			Responsible: *responsible,
		}
		if err := order.Validate(); err != nil {
			return fmt.Errorf("order %d: %w", o.Number, err)
		}
		if err := orders.Save(ctx, &order); err != nil {
			return fmt.Errorf("save order %d: %w", o.Number, err)
		}
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
