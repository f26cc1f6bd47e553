package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	masterdata "seismic-network/internal/masterdata/domain"
	seismograph "seismic-network/internal/seismograph/domain"
)

const (
	defaultSeismographsTable = "seismographs"
	defaultStateChangesTable = "seismograph_state_changes"
)

// DBTX abstracts *sql.DB and *sql.Tx so the repository can run inside the
// closure transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository is a Postgres implementation for seismographs and their state
// change history.
type Repository struct {
	db           DBTX
	table        string
	historyTable string
}

// NewRepository constructs a repository.
func NewRepository(db DBTX, opts ...Option) *Repository {
	repo := &Repository{
		db:           db,
		table:        defaultSeismographsTable,
		historyTable: defaultStateChangesTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Option configures the repository.
type Option func(*Repository)

// WithTable overrides the seismographs table name.
func WithTable(table string) Option {
	return func(repo *Repository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithHistoryTable overrides the state changes table name.
func WithHistoryTable(table string) Option {
	return func(repo *Repository) {
		if table != "" {
			repo.historyTable = table
		}
	}
}

// Get loads a seismograph with its full history, oldest entry first.
func (r *Repository) Get(ctx context.Context, id string) (*seismograph.Seismograph, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("seismograph repo: nil db")
	}
	if id == "" {
		return nil, errors.New("seismograph repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, serial_number, acquired_at, station_code, status
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	return r.load(ctx, query, id)
}

// GetByStation loads the seismograph owned by a station.
func (r *Repository) GetByStation(ctx context.Context, stationCode string) (*seismograph.Seismograph, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("seismograph repo: nil db")
	}
	if stationCode == "" {
		return nil, errors.New("seismograph repo: empty station code")
	}

	query := fmt.Sprintf(`
SELECT id, serial_number, acquired_at, station_code, status
FROM %s
WHERE station_code = $1
LIMIT 1`, r.table)

	return r.load(ctx, query, stationCode)
}

// Save upserts the device row and every history entry, keyed by start
// instant. Used by provisioning and the seed tool; the closure transaction
// uses the finer-grained UpdateStatus/CloseCurrentEntry/AppendStateChange.
func (r *Repository) Save(ctx context.Context, device *seismograph.Seismograph) error {
	if r == nil || r.db == nil {
		return errors.New("seismograph repo: nil db")
	}
	if device == nil {
		return errors.New("seismograph repo: nil seismograph")
	}
	if err := device.Validate(time.Now().UTC()); err != nil {
		return err
	}
	current, err := device.Current()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id, serial_number, acquired_at, station_code, status, status_since
) VALUES (
	$1, $2, $3, $4, $5, $6
)
ON CONFLICT (id)
DO UPDATE SET
	serial_number = EXCLUDED.serial_number,
	acquired_at = EXCLUDED.acquired_at,
	station_code = EXCLUDED.station_code,
	status = EXCLUDED.status,
	status_since = EXCLUDED.status_since`, r.table)

	if _, err := r.db.ExecContext(
		ctx,
		query,
		device.ID,
		device.SerialNumber,
		device.AcquiredAt,
		device.StationCode,
		string(device.Status),
		current.StartAt,
	); err != nil {
		return err
	}

	for _, entry := range device.History {
		if err := r.upsertStateChange(ctx, device.ID, entry); err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatus persists the current status and its activation timestamp.
func (r *Repository) UpdateStatus(ctx context.Context, device *seismograph.Seismograph) error {
	if r == nil || r.db == nil {
		return errors.New("seismograph repo: nil db")
	}
	if device == nil {
		return errors.New("seismograph repo: nil seismograph")
	}
	current, err := device.Current()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
UPDATE %s
SET status = $2, status_since = $3
WHERE id = $1`, r.table)

	result, err := r.db.ExecContext(ctx, query, device.ID, string(device.Status), current.StartAt)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return seismograph.ErrNotFound
	}
	return nil
}

// CloseCurrentEntry sets the end timestamp of the open history entry.
func (r *Repository) CloseCurrentEntry(ctx context.Context, deviceID string, endAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("seismograph repo: nil db")
	}
	if deviceID == "" {
		return errors.New("seismograph repo: empty id")
	}
	if endAt.IsZero() {
		return errors.New("seismograph repo: zero end time")
	}

	query := fmt.Sprintf(`
UPDATE %s
SET end_at = $2
WHERE seismograph_id = $1 AND end_at IS NULL`, r.historyTable)

	result, err := r.db.ExecContext(ctx, query, deviceID, endAt.UTC())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return seismograph.ErrNoCurrentEntry
	}
	return nil
}

// AppendStateChange inserts a new history entry.
func (r *Repository) AppendStateChange(ctx context.Context, deviceID string, entry seismograph.StateChange) error {
	if r == nil || r.db == nil {
		return errors.New("seismograph repo: nil db")
	}
	if deviceID == "" {
		return errors.New("seismograph repo: empty id")
	}
	return r.upsertStateChange(ctx, deviceID, entry)
}

func (r *Repository) upsertStateChange(ctx context.Context, deviceID string, entry seismograph.StateChange) error {
	reasons, err := encodeReasons(entry.Reasons)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	seismograph_id, status, start_at, end_at, reasons, comment, responsible_id
) VALUES (
	$1, $2, $3, $4, $5, $6, $7
)
ON CONFLICT (seismograph_id, start_at)
DO UPDATE SET
	status = EXCLUDED.status,
	end_at = EXCLUDED.end_at,
	reasons = EXCLUDED.reasons,
	comment = EXCLUDED.comment,
	responsible_id = EXCLUDED.responsible_id`, r.historyTable)

	_, err = r.db.ExecContext(
		ctx,
		query,
		deviceID,
		string(entry.Status),
		entry.StartAt.UTC(),
		nullableTime(entry.EndAt),
		reasons,
		entry.Comment,
		nullableString(entry.ResponsibleID),
	)
	return err
}

func (r *Repository) load(ctx context.Context, query string, arg any) (*seismograph.Seismograph, error) {
	var device seismograph.Seismograph
	var status string
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&device.ID,
		&device.SerialNumber,
		&device.AcquiredAt,
		&device.StationCode,
		&status,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	device.AcquiredAt = device.AcquiredAt.UTC()
	device.Status = seismograph.Status(status)

	history, err := r.loadHistory(ctx, device.ID)
	if err != nil {
		return nil, err
	}
	device.History = history
	return &device, nil
}

func (r *Repository) loadHistory(ctx context.Context, deviceID string) (seismograph.History, error) {
	query := fmt.Sprintf(`
SELECT status, start_at, end_at, reasons, comment, responsible_id
FROM %s
WHERE seismograph_id = $1
ORDER BY start_at ASC`, r.historyTable)

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history seismograph.History
	for rows.Next() {
		var entry seismograph.StateChange
		var status string
		var endAt sql.NullTime
		var reasons []byte
		var responsibleID sql.NullString
		if err := rows.Scan(
			&status,
			&entry.StartAt,
			&endAt,
			&reasons,
			&entry.Comment,
			&responsibleID,
		); err != nil {
			return nil, err
		}
		entry.Status = seismograph.Status(status)
		entry.StartAt = entry.StartAt.UTC()
		if endAt.Valid {
			entry.EndAt = endAt.Time.UTC()
		}
		entry.ResponsibleID = responsibleID.String
		entry.Reasons, err = decodeReasons(reasons)
		if err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

// reasonRecord is the JSONB layout for one reason on a history row.
type reasonRecord struct {
	TypeID      string `json:"type_id"`
	Description string `json:"description"`
	Comment     string `json:"comment"`
}

func encodeReasons(reasons []masterdata.Reason) ([]byte, error) {
	if len(reasons) == 0 {
		return []byte("[]"), nil
	}
	records := make([]reasonRecord, len(reasons))
	for i, reason := range reasons {
		records[i] = reasonRecord{
			TypeID:      reason.Type.ID,
			Description: reason.Type.Description,
			Comment:     reason.Comment,
		}
	}
	return json.Marshal(records)
}

func decodeReasons(raw []byte) ([]masterdata.Reason, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var records []reasonRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	reasons := make([]masterdata.Reason, len(records))
	for i, record := range records {
		reasons[i] = masterdata.Reason{
			Type:    masterdata.ReasonType{ID: record.TypeID, Description: record.Description},
			Comment: record.Comment,
		}
	}
	return reasons, nil
}

func nullableTime(value time.Time) sql.NullTime {
	if value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value.UTC(), Valid: true}
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
