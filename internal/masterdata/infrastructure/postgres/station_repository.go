package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	masterdata "seismic-network/internal/masterdata/domain"
)

const defaultStationsTable = "stations"

// StationRepository is a Postgres implementation for stations.
type StationRepository struct {
	db    DBTX
	table string
}

// NewStationRepository constructs a repository.
func NewStationRepository(db DBTX, opts ...StationOption) *StationRepository {
	repo := &StationRepository{db: db, table: defaultStationsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// StationOption configures the repository.
type StationOption func(*StationRepository)

// WithStationTable overrides the default table name.
func WithStationTable(table string) StationOption {
	return func(repo *StationRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a station by code.
func (r *StationRepository) Get(ctx context.Context, code string) (*masterdata.Station, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("station repo: nil db")
	}
	if code == "" {
		return nil, errors.New("station repo: empty code")
	}

	query := fmt.Sprintf(`
SELECT code, name, latitude, longitude, seismograph_id
FROM %s
WHERE code = $1
LIMIT 1`, r.table)

	var station masterdata.Station
	if err := r.db.QueryRowContext(ctx, query, code).Scan(
		&station.Code,
		&station.Name,
		&station.Latitude,
		&station.Longitude,
		&station.SeismographID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &station, nil
}

// Save upserts a station.
func (r *StationRepository) Save(ctx context.Context, station *masterdata.Station) error {
	if r == nil || r.db == nil {
		return errors.New("station repo: nil db")
	}
	if station == nil {
		return errors.New("station repo: nil station")
	}
	if err := station.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	code, name, latitude, longitude, seismograph_id
) VALUES (
	$1, $2, $3, $4, $5
)
ON CONFLICT (code)
DO UPDATE SET
	name = EXCLUDED.name,
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	seismograph_id = EXCLUDED.seismograph_id`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		station.Code,
		station.Name,
		station.Latitude,
		station.Longitude,
		station.SeismographID,
	)
	return err
}
