package inspection

import (
	"context"
	"errors"
	"time"

	masterdata "seismic-network/internal/masterdata/domain"
)

// OrderStatus is the lifecycle status of an inspection order. The lifecycle
// only moves forward: InProgress, then CompletelyPerformed, then Closed.
type OrderStatus string

const (
	StatusInProgress          OrderStatus = "in_progress"
	StatusCompletelyPerformed OrderStatus = "completely_performed"
	StatusClosed              OrderStatus = "closed"
)

// Valid reports whether the status is a known value.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusInProgress, StatusCompletelyPerformed, StatusClosed:
		return true
	}
	return false
}

// Display returns the human-readable status name.
func (s OrderStatus) Display() string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case StatusCompletelyPerformed:
		return "Completely Performed"
	case StatusClosed:
		return "Closed"
	}
	return string(s)
}

// StatusCode pairs a canonical status value with its display name, as served
// by the status code lookup.
type StatusCode struct {
	Code        OrderStatus
	DisplayName string
}

// Order is an inspection work order on a station. CompletedAt stays zero
// until the field work is done; ClosedAt and ClosureObservation are written
// exactly once, when the order is closed.
type Order struct {
	Number             int
	EmittedAt          time.Time
	CompletedAt        time.Time
	Status             OrderStatus
	ClosedAt           time.Time
	ClosureObservation string
	StationCode        string
	Responsible        masterdata.Employee
}

// Validate checks order invariants.
func (o Order) Validate() error {
	if o.Number <= 0 {
		return errors.New("order: non-positive number")
	}
	if o.EmittedAt.IsZero() {
		return errors.New("order: zero emission time")
	}
	if !o.Status.Valid() {
		return errors.New("order: unknown status")
	}
	if o.StationCode == "" {
		return errors.New("order: empty station code")
	}
	return nil
}

// IsCompletelyPerformed reports whether the field work is done and the order
// is eligible for closure.
func (o Order) IsCompletelyPerformed() bool {
	return o.Status == StatusCompletelyPerformed
}

// BelongsTo reports whether the order is owned by the given responsible,
// compared by name and surname.
func (o Order) BelongsTo(employee masterdata.Employee) bool {
	return o.Responsible.SameIdentity(employee)
}

// Close records the closure timestamp and observation and moves the order to
// Closed. The eligibility precondition (status CompletelyPerformed) is the
// caller's responsibility; re-closing is rejected so closure data is never
// overwritten.
func (o *Order) Close(at time.Time, observation string) error {
	if o == nil {
		return errors.New("order: nil")
	}
	if o.Status == StatusClosed {
		return ErrAlreadyClosed
	}
	if at.IsZero() {
		return errors.New("order: zero closure time")
	}
	o.ClosedAt = at.UTC()
	o.ClosureObservation = observation
	o.Status = StatusClosed
	return nil
}

// Clone copies the order so callers can mutate a working copy and discard it
// if persistence fails.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

// OrderRepository manages order persistence.
type OrderRepository interface {
	Get(ctx context.Context, number int) (*Order, error)
	// ListEligible returns the completely performed, not yet closed orders
	// of the responsible identified by name and surname, ordered by
	// completion time ascending with order number as tie-break.
	ListEligible(ctx context.Context, name, surname string) ([]Order, error)
	Update(ctx context.Context, order *Order) error
	Save(ctx context.Context, order *Order) error
}
