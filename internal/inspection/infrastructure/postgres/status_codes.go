package postgres

import (
	"context"
	"errors"
	"fmt"

	inspection "seismic-network/internal/inspection/domain"
)

const defaultStatusCodesTable = "order_status_codes"

// StatusCodeRepository serves the canonical order status values with their
// display names.
type StatusCodeRepository struct {
	db    DBTX
	table string
}

// NewStatusCodeRepository constructs a repository.
func NewStatusCodeRepository(db DBTX, opts ...StatusCodeOption) *StatusCodeRepository {
	repo := &StatusCodeRepository{db: db, table: defaultStatusCodesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// StatusCodeOption configures the repository.
type StatusCodeOption func(*StatusCodeRepository)

// WithStatusCodesTable overrides the default table name.
func WithStatusCodesTable(table string) StatusCodeOption {
	return func(repo *StatusCodeRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// List returns all status codes.
func (r *StatusCodeRepository) List(ctx context.Context) ([]inspection.StatusCode, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("status code repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT code, display_name
FROM %s
ORDER BY code ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []inspection.StatusCode
	for rows.Next() {
		var code inspection.StatusCode
		var raw string
		if err := rows.Scan(&raw, &code.DisplayName); err != nil {
			return nil, err
		}
		code.Code = inspection.OrderStatus(raw)
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Save upserts a status code. Used by the seed tool.
func (r *StatusCodeRepository) Save(ctx context.Context, code inspection.StatusCode) error {
	if r == nil || r.db == nil {
		return errors.New("status code repo: nil db")
	}
	if code.Code == "" || code.DisplayName == "" {
		return errors.New("status code repo: missing fields")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (code, display_name)
VALUES ($1, $2)
ON CONFLICT (code)
DO UPDATE SET display_name = EXCLUDED.display_name`, r.table)

	_, err := r.db.ExecContext(ctx, query, string(code.Code), code.DisplayName)
	return err
}
