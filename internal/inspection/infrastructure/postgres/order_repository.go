package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	inspection "seismic-network/internal/inspection/domain"
)

const (
	defaultOrdersTable    = "inspection_orders"
	defaultEmployeesTable = "employees"
)

// DBTX abstracts *sql.DB and *sql.Tx so the repository can run inside the
// closure transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// OrderRepository is a Postgres implementation for inspection orders.
type OrderRepository struct {
	db             DBTX
	table          string
	employeesTable string
}

// NewOrderRepository constructs a repository.
func NewOrderRepository(db DBTX, opts ...OrderOption) *OrderRepository {
	repo := &OrderRepository{
		db:             db,
		table:          defaultOrdersTable,
		employeesTable: defaultEmployeesTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// OrderOption configures the repository.
type OrderOption func(*OrderRepository)

// WithOrderTable overrides the orders table name.
func WithOrderTable(table string) OrderOption {
	return func(repo *OrderRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithEmployeesTable overrides the joined employees table name.
func WithEmployeesTable(table string) OrderOption {
	return func(repo *OrderRepository) {
		if table != "" {
			repo.employeesTable = table
		}
	}
}

// Get loads an order by number.
func (r *OrderRepository) Get(ctx context.Context, number int) (*inspection.Order, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("order repo: nil db")
	}
	if number <= 0 {
		return nil, errors.New("order repo: non-positive number")
	}

	query := fmt.Sprintf(`
SELECT o.number, o.emitted_at, o.completed_at, o.status, o.closed_at, o.closure_observation, o.station_code,
       e.id, e.name, e.surname, e.email, e.phone, e.role
FROM %s o
JOIN %s e ON e.id = o.responsible_id
WHERE o.number = $1
LIMIT 1`, r.table, r.employeesTable)

	row := r.db.QueryRowContext(ctx, query, number)
	order, err := scanOrder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

// ListEligible returns the completely performed, not yet closed orders of a
// responsible, matched by name and surname case-insensitively. Ordering is
// completion time ascending; ties fall back to order number ascending.
func (r *OrderRepository) ListEligible(ctx context.Context, name, surname string) ([]inspection.Order, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("order repo: nil db")
	}
	if name == "" || surname == "" {
		return nil, errors.New("order repo: empty responsible identity")
	}

	query := fmt.Sprintf(`
SELECT o.number, o.emitted_at, o.completed_at, o.status, o.closed_at, o.closure_observation, o.station_code,
       e.id, e.name, e.surname, e.email, e.phone, e.role
FROM %s o
JOIN %s e ON e.id = o.responsible_id
WHERE LOWER(e.name) = LOWER($1)
  AND LOWER(e.surname) = LOWER($2)
  AND o.status = $3
ORDER BY o.completed_at ASC, o.number ASC`, r.table, r.employeesTable)

	rows, err := r.db.QueryContext(ctx, query, name, surname, string(inspection.StatusCompletelyPerformed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []inspection.Order
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// Update persists status, closure timestamp and closure observation, keyed by
// order number.
func (r *OrderRepository) Update(ctx context.Context, order *inspection.Order) error {
	if r == nil || r.db == nil {
		return errors.New("order repo: nil db")
	}
	if order == nil {
		return errors.New("order repo: nil order")
	}
	if err := order.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
UPDATE %s
SET status = $2, closed_at = $3, closure_observation = $4
WHERE number = $1`, r.table)

	result, err := r.db.ExecContext(
		ctx,
		query,
		order.Number,
		string(order.Status),
		nullableTime(order.ClosedAt),
		nullableString(order.ClosureObservation),
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return inspection.ErrNotFound
	}
	return nil
}

// Save upserts an order. Used by the seed tool; the close workflow only ever
// updates.
func (r *OrderRepository) Save(ctx context.Context, order *inspection.Order) error {
	if r == nil || r.db == nil {
		return errors.New("order repo: nil db")
	}
	if order == nil {
		return errors.New("order repo: nil order")
	}
	if err := order.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	number, emitted_at, completed_at, status, closed_at, closure_observation, station_code, responsible_id
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8
)
ON CONFLICT (number)
DO UPDATE SET
	emitted_at = EXCLUDED.emitted_at,
	completed_at = EXCLUDED.completed_at,
	status = EXCLUDED.status,
	closed_at = EXCLUDED.closed_at,
	closure_observation = EXCLUDED.closure_observation,
	station_code = EXCLUDED.station_code,
	responsible_id = EXCLUDED.responsible_id`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		order.Number,
		order.EmittedAt.UTC(),
		nullableTime(order.CompletedAt),
		string(order.Status),
		nullableTime(order.ClosedAt),
		nullableString(order.ClosureObservation),
		order.StationCode,
		order.Responsible.ID,
	)
	return err
}

func scanOrder(scan func(dest ...any) error) (*inspection.Order, error) {
	var order inspection.Order
	var status string
	var completedAt, closedAt sql.NullTime
	var observation sql.NullString
	if err := scan(
		&order.Number,
		&order.EmittedAt,
		&completedAt,
		&status,
		&closedAt,
		&observation,
		&order.StationCode,
		&order.Responsible.ID,
		&order.Responsible.Name,
		&order.Responsible.Surname,
		&order.Responsible.Email,
		&order.Responsible.Phone,
		&order.Responsible.Role,
	); err != nil {
		return nil, err
	}
	order.EmittedAt = order.EmittedAt.UTC()
	order.Status = inspection.OrderStatus(status)
	if completedAt.Valid {
		order.CompletedAt = completedAt.Time.UTC()
	}
	if closedAt.Valid {
		order.ClosedAt = closedAt.Time.UTC()
	}
	order.ClosureObservation = observation.String
	return &order, nil
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
