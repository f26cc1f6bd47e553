package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	masterdata "seismic-network/internal/masterdata/domain"
)

const defaultEmployeesTable = "employees"

// EmployeeRepository is a Postgres implementation for employees.
type EmployeeRepository struct {
	db    DBTX
	table string
}

// NewEmployeeRepository constructs a repository.
func NewEmployeeRepository(db DBTX, opts ...EmployeeOption) *EmployeeRepository {
	repo := &EmployeeRepository{db: db, table: defaultEmployeesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// EmployeeOption configures the repository.
type EmployeeOption func(*EmployeeRepository)

// WithEmployeeTable overrides the default table name.
func WithEmployeeTable(table string) EmployeeOption {
	return func(repo *EmployeeRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads an employee by id.
func (r *EmployeeRepository) Get(ctx context.Context, id string) (*masterdata.Employee, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("employee repo: nil db")
	}
	if id == "" {
		return nil, errors.New("employee repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, name, surname, email, phone, role
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var employee masterdata.Employee
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&employee.ID,
		&employee.Name,
		&employee.Surname,
		&employee.Email,
		&employee.Phone,
		&employee.Role,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &employee, nil
}

// ListByRole returns employees holding a role, ordered by surname then name.
func (r *EmployeeRepository) ListByRole(ctx context.Context, role string) ([]masterdata.Employee, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("employee repo: nil db")
	}
	if role == "" {
		return nil, errors.New("employee repo: empty role")
	}

	query := fmt.Sprintf(`
SELECT id, name, surname, email, phone, role
FROM %s
WHERE role = $1
ORDER BY surname ASC, name ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []masterdata.Employee
	for rows.Next() {
		var employee masterdata.Employee
		if err := rows.Scan(
			&employee.ID,
			&employee.Name,
			&employee.Surname,
			&employee.Email,
			&employee.Phone,
			&employee.Role,
		); err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	return employees, rows.Err()
}

// Save upserts an employee.
func (r *EmployeeRepository) Save(ctx context.Context, employee *masterdata.Employee) error {
	if r == nil || r.db == nil {
		return errors.New("employee repo: nil db")
	}
	if employee == nil {
		return errors.New("employee repo: nil employee")
	}
	if err := employee.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id, name, surname, email, phone, role
) VALUES (
	$1, $2, $3, $4, $5, $6
)
ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	surname = EXCLUDED.surname,
	email = EXCLUDED.email,
	phone = EXCLUDED.phone,
	role = EXCLUDED.role`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		employee.ID,
		employee.Name,
		employee.Surname,
		employee.Email,
		employee.Phone,
		employee.Role,
	)
	return err
}
