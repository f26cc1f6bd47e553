package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"seismic-network/internal/audit"
	inspection "seismic-network/internal/inspection/domain"
	masterdata "seismic-network/internal/masterdata/domain"
	"seismic-network/internal/observability/metrics"
	seismograph "seismic-network/internal/seismograph/domain"
)

// Step is the position of a close-order session in its workflow. Each
// operation requires the previous step to have completed.
type Step string

const (
	StepIdle             Step = "idle"
	StepOrderChosen      Step = "order_chosen"
	StepObservationTaken Step = "observation_taken"
	StepReasonsTaken     Step = "reasons_taken"
	StepConfirmed        Step = "confirmed"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// OrderReader lists the orders a responsible may close.
type OrderReader interface {
	ListEligible(ctx context.Context, name, surname string) ([]inspection.Order, error)
}

// SeismographReader loads the seismograph owned by a station.
type SeismographReader interface {
	GetByStation(ctx context.Context, stationCode string) (*seismograph.Seismograph, error)
}

// ClosurePersister writes a closed order and the matching device transition
// atomically.
type ClosurePersister interface {
	PersistClosure(ctx context.Context, order *inspection.Order, device *seismograph.Seismograph, statusChanged bool) error
}

// RepairEvent describes a confirmed closure that sent a seismograph out of
// service.
type RepairEvent struct {
	SeismographID string
	StationCode   string
	NewStatus     string
	RegisteredAt  time.Time
	ClosedBy      string
	Reasons       []masterdata.Reason
}

// Notifier delivers repair events to interested parties. Fire-and-forget.
type Notifier interface {
	NotifyRepair(ctx context.Context, event RepairEvent)
}

// ClosureResult carries the outcome of a confirmed closure.
type ClosureResult struct {
	Order         *inspection.Order
	Seismograph   *seismograph.Seismograph
	StatusChanged bool
}

// Session drives one close-order workflow for one logged employee. Input is
// collected step by step and nothing is mutated until Confirm, which either
// applies and persists the whole closure or leaves every record untouched.
// A Session is not safe for concurrent use; it belongs to a single
// interactive flow.
type Session struct {
	id       string
	employee masterdata.Employee
	step     Step

	orders    OrderReader
	devices   SeismographReader
	persister ClosurePersister
	notifier  Notifier
	auditor   audit.Logger
	clock     Clock
	logger    *log.Logger

	eligible    []inspection.Order
	order       *inspection.Order
	observation string
	reasons     []masterdata.Reason
}

// SessionOption customizes a session.
type SessionOption func(*Session)

// WithSessionID assigns an externally generated id.
func WithSessionID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithClock overrides the default clock.
func WithClock(clock Clock) SessionOption {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithNotifier assigns a repair notifier.
func WithNotifier(notifier Notifier) SessionOption {
	return func(s *Session) {
		s.notifier = notifier
	}
}

// WithAuditLogger assigns an audit logger.
func WithAuditLogger(auditor audit.Logger) SessionOption {
	return func(s *Session) {
		s.auditor = auditor
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession constructs a close-order session for the logged employee.
func NewSession(employee masterdata.Employee, orders OrderReader, devices SeismographReader, persister ClosurePersister, opts ...SessionOption) (*Session, error) {
	if err := employee.Validate(); err != nil {
		return nil, err
	}
	if orders == nil {
		return nil, errors.New("close session: nil order reader")
	}
	if devices == nil {
		return nil, errors.New("close session: nil seismograph reader")
	}
	if persister == nil {
		return nil, errors.New("close session: nil persister")
	}
	session := &Session{
		employee:  employee,
		step:      StepIdle,
		orders:    orders,
		devices:   devices,
		persister: persister,
		clock:     systemClock{},
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(session)
	}
	return session, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Employee returns the logged employee driving the session.
func (s *Session) Employee() masterdata.Employee { return s.employee }

// Step returns the current workflow step.
func (s *Session) Step() Step { return s.step }

// ListEligibleOrders returns the completely performed, not yet closed orders
// of the logged employee, oldest completion first (order number breaks
// ties). The list is cached so a later SelectOrder can resolve by number.
func (s *Session) ListEligibleOrders(ctx context.Context) ([]inspection.Order, error) {
	if s == nil {
		return nil, errors.New("close session: nil")
	}
	orders, err := s.orders.ListEligible(ctx, s.employee.Name, s.employee.Surname)
	if err != nil {
		return nil, err
	}
	s.eligible = orders
	return orders, nil
}

// SelectOrder picks one of the previously listed orders and moves the
// session to OrderChosen.
func (s *Session) SelectOrder(number int) error {
	if s == nil {
		return errors.New("close session: nil")
	}
	if s.step != StepIdle {
		return &StepError{Op: "select order", Step: s.step}
	}
	for i := range s.eligible {
		if s.eligible[i].Number == number {
			order := s.eligible[i]
			s.order = &order
			s.step = StepOrderChosen
			return nil
		}
	}
	return fmt.Errorf("close session: order %d not in eligible list: %w", number, inspection.ErrNotFound)
}

// RecordObservation stores the closure observation verbatim and moves the
// session to ObservationTaken. Blank text is accepted here and rejected only
// at confirm time.
func (s *Session) RecordObservation(text string) error {
	if s == nil {
		return errors.New("close session: nil")
	}
	if s.step != StepOrderChosen {
		return &StepError{Op: "record observation", Step: s.step}
	}
	s.observation = text
	s.step = StepObservationTaken
	return nil
}

// SelectReasons stores the out-of-service reasons verbatim and moves the
// session to ReasonsTaken. An empty list is accepted here and rejected only
// at confirm time.
func (s *Session) SelectReasons(reasons []masterdata.Reason) error {
	if s == nil {
		return errors.New("close session: nil")
	}
	if s.step != StepObservationTaken {
		return &StepError{Op: "select reasons", Step: s.step}
	}
	s.reasons = reasons
	s.step = StepReasonsTaken
	return nil
}

// Confirm validates the collected input and performs the closure: the order
// is closed, the station's seismograph is sent out of service, both are
// persisted in one transaction, and the repair responsibles are notified.
// On any failure nothing is mutated and the session stays in its current
// step so the caller may correct and retry.
func (s *Session) Confirm(ctx context.Context) (*ClosureResult, error) {
	if s == nil {
		return nil, errors.New("close session: nil")
	}
	if s.step != StepReasonsTaken {
		return nil, &StepError{Op: "confirm", Step: s.step}
	}
	started := s.clock.Now()

	if err := s.validate(); err != nil {
		metrics.ObserveClosure(metrics.ResultValidationError, s.clock.Now().Sub(started))
		return nil, err
	}

	now := s.clock.Now().UTC()

	workOrder := s.order.Clone()
	if err := workOrder.Close(now, s.observation); err != nil {
		metrics.ObserveClosure(metrics.ResultError, s.clock.Now().Sub(started))
		return nil, err
	}

	device, err := s.devices.GetByStation(ctx, workOrder.StationCode)
	if err != nil {
		metrics.ObserveClosure(metrics.ResultError, s.clock.Now().Sub(started))
		return nil, err
	}
	if device == nil {
		metrics.ObserveClosure(metrics.ResultError, s.clock.Now().Sub(started))
		return nil, fmt.Errorf("close session: station %s: %w", workOrder.StationCode, seismograph.ErrNotFound)
	}

	workDevice := device.Clone()
	changed, err := workDevice.SendToRepair(now, s.reasons, s.observation, s.employee.ID)
	if err != nil {
		metrics.ObserveClosure(metrics.ResultError, s.clock.Now().Sub(started))
		return nil, err
	}
	metrics.ObserveTransition(string(seismograph.OpSendToRepair), changed)

	if err := s.persister.PersistClosure(ctx, workOrder, workDevice, changed); err != nil {
		metrics.ObserveClosure(metrics.ResultPersistenceError, s.clock.Now().Sub(started))
		return nil, &PersistenceError{Err: err}
	}

	s.order = workOrder
	s.step = StepConfirmed
	s.logClosure(ctx, workOrder, workDevice)
	s.notify(ctx, workOrder, workDevice, now)
	metrics.ObserveClosure(metrics.ResultSuccess, s.clock.Now().Sub(started))

	return &ClosureResult{
		Order:         workOrder,
		Seismograph:   workDevice,
		StatusChanged: changed,
	}, nil
}

// Cancel discards all collected input without touching any record. Legal
// from every step except Confirmed.
func (s *Session) Cancel() error {
	if s == nil {
		return errors.New("close session: nil")
	}
	if s.step == StepConfirmed {
		return &StepError{Op: "cancel", Step: s.step}
	}
	s.eligible = nil
	s.order = nil
	s.observation = ""
	s.reasons = nil
	s.step = StepIdle
	return nil
}

func (s *Session) validate() error {
	var missing []string
	if s.order == nil {
		missing = append(missing, "order")
	}
	if strings.TrimSpace(s.observation) == "" {
		missing = append(missing, "observation")
	}
	if len(s.reasons) == 0 {
		missing = append(missing, "reasons")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

func (s *Session) logClosure(ctx context.Context, order *inspection.Order, device *seismograph.Seismograph) {
	if s.auditor == nil {
		return
	}
	metadata, _ := json.Marshal(map[string]any{
		"order":       order.Number,
		"closed_at":   order.ClosedAt,
		"seismograph": device.ID,
		"status":      device.Status,
	})
	entry := audit.Entry{
		Actor:        s.employee.FullName(),
		Role:         s.employee.Role,
		Action:       "close_inspection_order",
		ResourceType: "inspection_order",
		ResourceID:   fmt.Sprintf("%d", order.Number),
		StationCode:  order.StationCode,
		Metadata:     metadata,
		CreatedAt:    order.ClosedAt,
	}
	if err := s.auditor.Log(ctx, entry); err != nil {
		s.logger.Printf("close session: audit error: %v", err)
	}
}

func (s *Session) notify(ctx context.Context, order *inspection.Order, device *seismograph.Seismograph, at time.Time) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyRepair(ctx, RepairEvent{
		SeismographID: device.ID,
		StationCode:   order.StationCode,
		NewStatus:     device.Status.Display(),
		RegisteredAt:  at,
		ClosedBy:      s.employee.FullName(),
		Reasons:       s.reasons,
	})
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
