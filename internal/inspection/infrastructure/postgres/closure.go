package postgres

import (
	"context"
	"database/sql"
	"errors"

	inspection "seismic-network/internal/inspection/domain"
	seismograph "seismic-network/internal/seismograph/domain"
	seismographpg "seismic-network/internal/seismograph/infrastructure/postgres"
)

// ClosureStore persists an order closure and the matching seismograph
// transition as one transaction. Either the order row, the device status and
// both history rows are all written, or none of them are.
type ClosureStore struct {
	db         *sql.DB
	orderOpts  []OrderOption
	deviceOpts []seismographpg.Option
}

// NewClosureStore constructs a closure store.
func NewClosureStore(db *sql.DB, opts ...ClosureOption) *ClosureStore {
	store := &ClosureStore{db: db}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// ClosureOption configures the closure store.
type ClosureOption func(*ClosureStore)

// WithClosureOrderOptions forwards options to the transactional order
// repository.
func WithClosureOrderOptions(opts ...OrderOption) ClosureOption {
	return func(store *ClosureStore) {
		store.orderOpts = append(store.orderOpts, opts...)
	}
}

// WithClosureDeviceOptions forwards options to the transactional seismograph
// repository.
func WithClosureDeviceOptions(opts ...seismographpg.Option) ClosureOption {
	return func(store *ClosureStore) {
		store.deviceOpts = append(store.deviceOpts, opts...)
	}
}

// PersistClosure writes the closed order and, when the status machine
// reported a change, closes the previous history entry, appends the new
// current one and updates the device status. The device must already carry
// the applied transition.
func (s *ClosureStore) PersistClosure(ctx context.Context, order *inspection.Order, device *seismograph.Seismograph, statusChanged bool) error {
	if s == nil || s.db == nil {
		return errors.New("closure store: nil db")
	}
	if order == nil {
		return errors.New("closure store: nil order")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	orders := NewOrderRepository(tx, s.orderOpts...)
	if err := orders.Update(ctx, order); err != nil {
		return err
	}

	if statusChanged {
		if device == nil {
			return errors.New("closure store: nil seismograph")
		}
		current, err := device.Current()
		if err != nil {
			return err
		}
		devices := seismographpg.NewRepository(tx, s.deviceOpts...)
		if err := devices.CloseCurrentEntry(ctx, device.ID, current.StartAt); err != nil {
			return err
		}
		if err := devices.AppendStateChange(ctx, device.ID, *current); err != nil {
			return err
		}
		if err := devices.UpdateStatus(ctx, device); err != nil {
			return err
		}
	}

	return tx.Commit()
}
