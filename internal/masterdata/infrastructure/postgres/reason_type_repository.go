package postgres

import (
	"context"
	"errors"
	"fmt"

	masterdata "seismic-network/internal/masterdata/domain"
)

const defaultReasonTypesTable = "reason_types"

// ReasonTypeRepository is a Postgres implementation for reason types.
type ReasonTypeRepository struct {
	db    DBTX
	table string
}

// NewReasonTypeRepository constructs a repository.
func NewReasonTypeRepository(db DBTX, opts ...ReasonTypeOption) *ReasonTypeRepository {
	repo := &ReasonTypeRepository{db: db, table: defaultReasonTypesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ReasonTypeOption configures the repository.
type ReasonTypeOption func(*ReasonTypeRepository)

// WithReasonTypeTable overrides the default table name.
func WithReasonTypeTable(table string) ReasonTypeOption {
	return func(repo *ReasonTypeRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// List returns all reason types ordered by description.
func (r *ReasonTypeRepository) List(ctx context.Context) ([]masterdata.ReasonType, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reason type repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, description
FROM %s
ORDER BY description ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []masterdata.ReasonType
	for rows.Next() {
		var reasonType masterdata.ReasonType
		if err := rows.Scan(&reasonType.ID, &reasonType.Description); err != nil {
			return nil, err
		}
		types = append(types, reasonType)
	}
	return types, rows.Err()
}

// Save upserts a reason type.
func (r *ReasonTypeRepository) Save(ctx context.Context, reasonType *masterdata.ReasonType) error {
	if r == nil || r.db == nil {
		return errors.New("reason type repo: nil db")
	}
	if reasonType == nil {
		return errors.New("reason type repo: nil reason type")
	}
	if err := reasonType.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, description)
VALUES ($1, $2)
ON CONFLICT (id)
DO UPDATE SET description = EXCLUDED.description`, r.table)

	_, err := r.db.ExecContext(ctx, query, reasonType.ID, reasonType.Description)
	return err
}
