package postgres

import (
	"context"
	"database/sql"
	"errors"

	seismograph "seismic-network/internal/seismograph/domain"
)

// TransitionStore persists a status transition (close current entry, append
// the new one, update the device row) as one transaction.
type TransitionStore struct {
	db   *sql.DB
	opts []Option
}

// NewTransitionStore constructs a transition store.
func NewTransitionStore(db *sql.DB, opts ...Option) *TransitionStore {
	return &TransitionStore{db: db, opts: opts}
}

// PersistTransition writes the applied transition carried by the device.
func (s *TransitionStore) PersistTransition(ctx context.Context, device *seismograph.Seismograph) error {
	if s == nil || s.db == nil {
		return errors.New("transition store: nil db")
	}
	if device == nil {
		return errors.New("transition store: nil seismograph")
	}
	current, err := device.Current()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	repo := NewRepository(tx, s.opts...)
	if err := repo.CloseCurrentEntry(ctx, device.ID, current.StartAt); err != nil {
		return err
	}
	if err := repo.AppendStateChange(ctx, device.ID, *current); err != nil {
		return err
	}
	if err := repo.UpdateStatus(ctx, device); err != nil {
		return err
	}
	return tx.Commit()
}
