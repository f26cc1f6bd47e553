package masterdata

import (
	"context"
	"errors"
)

// Station represents a seismological station. Each station owns exactly one
// seismograph, referenced by id.
type Station struct {
	Code          string
	Name          string
	Latitude      float64
	Longitude     float64
	SeismographID string
}

// Validate checks station invariants.
func (s Station) Validate() error {
	if s.Code == "" {
		return errors.New("station: empty code")
	}
	if s.Name == "" {
		return errors.New("station: empty name")
	}
	if s.SeismographID == "" {
		return errors.New("station: empty seismograph id")
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		return errors.New("station: latitude out of range")
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return errors.New("station: longitude out of range")
	}
	return nil
}

// StationRepository manages station persistence.
type StationRepository interface {
	Get(ctx context.Context, code string) (*Station, error)
	Save(ctx context.Context, station *Station) error
}
