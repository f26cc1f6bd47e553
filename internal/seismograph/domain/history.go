package seismograph

import (
	"fmt"
	"time"

	masterdata "seismic-network/internal/masterdata/domain"
)

// StateChange is one bounded period during which a seismograph held a status.
// A zero EndAt marks the entry as current. Reasons are populated only for
// transitions into StatusOutOfService. ResponsibleID is empty for
// system-initiated entries.
type StateChange struct {
	Status        Status
	StartAt       time.Time
	EndAt         time.Time
	Reasons       []masterdata.Reason
	Comment       string
	ResponsibleID string
}

// IsCurrent reports whether the entry is still open.
func (c StateChange) IsCurrent() bool {
	return c.EndAt.IsZero()
}

// Clone deep-copies the entry.
func (c StateChange) Clone() StateChange {
	clone := c
	if len(c.Reasons) > 0 {
		clone.Reasons = make([]masterdata.Reason, len(c.Reasons))
		copy(clone.Reasons, c.Reasons)
	}
	return clone
}

// History is the append-only ordered sequence of state changes of one
// seismograph.
type History []StateChange

// Current returns the index of the unique open entry. The current entry is
// always the newest one, so the scan runs from the end.
func (h History) Current() (int, error) {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].IsCurrent() {
			return i, nil
		}
	}
	return -1, ErrNoCurrentEntry
}

// Check verifies the ledger invariant: exactly one open entry, every closed
// entry ends at or after its own start and no later than now.
func (h History) Check(now time.Time) error {
	open := 0
	for i, entry := range h {
		if !entry.Status.Valid() {
			return fmt.Errorf("history entry %d: %w (%q)", i, ErrUnknownStatus, entry.Status)
		}
		if entry.StartAt.IsZero() {
			return fmt.Errorf("history entry %d: zero start", i)
		}
		if entry.IsCurrent() {
			open++
			continue
		}
		if entry.EndAt.Before(entry.StartAt) {
			return fmt.Errorf("history entry %d: end before start", i)
		}
		if entry.EndAt.After(now) {
			return fmt.Errorf("history entry %d: end in the future", i)
		}
	}
	if open != 1 {
		return fmt.Errorf("history: %d open entries, want exactly 1", open)
	}
	return nil
}

// Clone deep-copies the history.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	clone := make(History, len(h))
	for i, entry := range h {
		clone[i] = entry.Clone()
	}
	return clone
}
