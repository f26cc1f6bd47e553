package memory

import (
	"context"
	"sync"

	seismograph "seismic-network/internal/seismograph/domain"
)

// Repository is an in-memory seismograph repository.
type Repository struct {
	mu        sync.RWMutex
	data      map[string]*seismograph.Seismograph
	byStation map[string]string
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{
		data:      make(map[string]*seismograph.Seismograph),
		byStation: make(map[string]string),
	}
}

// Get loads a seismograph by id.
func (r *Repository) Get(ctx context.Context, id string) (*seismograph.Seismograph, error) {
	_ = ctx
	r.mu.RLock()
	device := r.data[id]
	r.mu.RUnlock()
	if device == nil {
		return nil, nil
	}
	return device.Clone(), nil
}

// GetByStation loads the seismograph owned by a station.
func (r *Repository) GetByStation(ctx context.Context, stationCode string) (*seismograph.Seismograph, error) {
	r.mu.RLock()
	id := r.byStation[stationCode]
	r.mu.RUnlock()
	if id == "" {
		return nil, nil
	}
	return r.Get(ctx, id)
}

// Save stores a deep copy of the seismograph.
func (r *Repository) Save(ctx context.Context, device *seismograph.Seismograph) error {
	_ = ctx
	if device == nil {
		return seismograph.ErrNotFound
	}
	clone := device.Clone()
	r.mu.Lock()
	r.data[clone.ID] = clone
	if clone.StationCode != "" {
		r.byStation[clone.StationCode] = clone.ID
	}
	r.mu.Unlock()
	return nil
}
