package application

import (
	"context"
	"errors"
	"log"
	"time"

	"seismic-network/internal/observability/metrics"
	seismograph "seismic-network/internal/seismograph/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// TransitionPersister writes an applied status transition.
type TransitionPersister interface {
	PersistTransition(ctx context.Context, device *seismograph.Seismograph) error
}

// Service serves seismograph status queries and the return-to-service
// operation.
type Service struct {
	devices   seismograph.Repository
	persister TransitionPersister
	clock     Clock
	logger    *log.Logger
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a seismograph service.
func NewService(devices seismograph.Repository, persister TransitionPersister, opts ...ServiceOption) (*Service, error) {
	if devices == nil {
		return nil, errors.New("seismograph service: nil repository")
	}
	if persister == nil {
		return nil, errors.New("seismograph service: nil persister")
	}
	service := &Service{
		devices:   devices,
		persister: persister,
		clock:     systemClock{},
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Get loads a seismograph with its full status history.
func (s *Service) Get(ctx context.Context, id string) (*seismograph.Seismograph, error) {
	if s == nil {
		return nil, errors.New("seismograph service: nil")
	}
	device, err := s.devices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, seismograph.ErrNotFound
	}
	return device, nil
}

// SetOnline returns a seismograph to operation, either after a completed
// repair or after a cleared inspection. An already online device is left
// untouched and the call reports no change.
func (s *Service) SetOnline(ctx context.Context, id, responsibleID string) (*seismograph.Seismograph, bool, error) {
	if s == nil {
		return nil, false, errors.New("seismograph service: nil")
	}
	device, err := s.devices.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if device == nil {
		return nil, false, seismograph.ErrNotFound
	}

	work := device.Clone()
	changed, err := work.SetOnline(s.clock.Now(), responsibleID)
	if err != nil {
		return nil, false, err
	}
	metrics.ObserveTransition(string(seismograph.OpSetOnline), changed)
	if !changed {
		return device, false, nil
	}

	if err := s.persister.PersistTransition(ctx, work); err != nil {
		return nil, false, err
	}
	s.logger.Printf("seismograph %s back online", work.ID)
	return work, true, nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
