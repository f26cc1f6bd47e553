package seismograph

import (
	"context"
	"errors"
	"time"

	masterdata "seismic-network/internal/masterdata/domain"
)

// Seismograph is the monitored instrument of a station. Its current status
// is derived state: it always equals the status of the open history entry.
type Seismograph struct {
	ID           string
	SerialNumber string
	AcquiredAt   time.Time
	StationCode  string
	Status       Status
	History      History
}

// New constructs a seismograph with its initial Online history entry open
// from the provisioning instant.
func New(id, serialNumber string, acquiredAt time.Time, stationCode string, provisionedAt time.Time) (*Seismograph, error) {
	if id == "" {
		return nil, errors.New("seismograph: empty id")
	}
	if serialNumber == "" {
		return nil, errors.New("seismograph: empty serial number")
	}
	if provisionedAt.IsZero() {
		return nil, errors.New("seismograph: zero provisioning time")
	}
	return &Seismograph{
		ID:           id,
		SerialNumber: serialNumber,
		AcquiredAt:   acquiredAt.UTC(),
		StationCode:  stationCode,
		Status:       StatusOnline,
		History: History{
			{Status: StatusOnline, StartAt: provisionedAt.UTC()},
		},
	}, nil
}

// Validate checks the structural invariants, including the history ledger.
func (s *Seismograph) Validate(now time.Time) error {
	if s == nil {
		return errors.New("seismograph: nil")
	}
	if s.ID == "" {
		return errors.New("seismograph: empty id")
	}
	if !s.Status.Valid() {
		return ErrUnknownStatus
	}
	if err := s.History.Check(now); err != nil {
		return err
	}
	idx, err := s.History.Current()
	if err != nil {
		return err
	}
	if s.History[idx].Status != s.Status {
		return errors.New("seismograph: current entry status diverges from device status")
	}
	return nil
}

// Current returns the open history entry.
func (s *Seismograph) Current() (*StateChange, error) {
	if s == nil {
		return nil, errors.New("seismograph: nil")
	}
	idx, err := s.History.Current()
	if err != nil {
		return nil, err
	}
	return &s.History[idx], nil
}

// SendToRepair transitions the seismograph out of service, recording the
// supplied reasons, comment and responsible. A seismograph already out of
// service is left untouched and the call reports no change.
func (s *Seismograph) SendToRepair(at time.Time, reasons []masterdata.Reason, comment string, responsibleID string) (bool, error) {
	transition, err := Transit(s.Status, OpSendToRepair)
	if err != nil {
		return false, err
	}
	if !transition.Changed {
		return false, nil
	}
	return true, s.apply(transition.Next, at, reasons, comment, responsibleID)
}

// SetOnline returns the seismograph to operation after a repair or a cleared
// inspection, recording the comment the transition table mandates. An online
// seismograph is left untouched and the call reports no change.
func (s *Seismograph) SetOnline(at time.Time, responsibleID string) (bool, error) {
	transition, err := Transit(s.Status, OpSetOnline)
	if err != nil {
		return false, err
	}
	if !transition.Changed {
		return false, nil
	}
	return true, s.apply(transition.Next, at, nil, transition.Comment, responsibleID)
}

// apply closes the open entry at the transition instant, switches the status
// and appends the new open entry.
func (s *Seismograph) apply(next Status, at time.Time, reasons []masterdata.Reason, comment string, responsibleID string) error {
	if at.IsZero() {
		return errors.New("seismograph: zero transition time")
	}
	idx, err := s.History.Current()
	if err != nil {
		return err
	}
	at = at.UTC()
	s.History[idx].EndAt = at
	s.Status = next
	s.History = append(s.History, StateChange{
		Status:        next,
		StartAt:       at,
		Reasons:       reasons,
		Comment:       comment,
		ResponsibleID: responsibleID,
	})
	return nil
}

// Clone deep-copies the seismograph so callers can mutate a working copy and
// discard it if persistence fails.
func (s *Seismograph) Clone() *Seismograph {
	if s == nil {
		return nil
	}
	clone := *s
	clone.History = s.History.Clone()
	return &clone
}

// Repository manages seismograph persistence.
type Repository interface {
	Get(ctx context.Context, id string) (*Seismograph, error)
	GetByStation(ctx context.Context, stationCode string) (*Seismograph, error)
	Save(ctx context.Context, device *Seismograph) error
}
