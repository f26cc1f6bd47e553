package masterdata

import (
	"context"
	"errors"
)

// ReasonType is a predefined cause for taking a seismograph out of service.
type ReasonType struct {
	ID          string
	Description string
}

// Validate checks reason type invariants.
func (t ReasonType) Validate() error {
	if t.ID == "" {
		return errors.New("reason type: empty id")
	}
	if t.Description == "" {
		return errors.New("reason type: empty description")
	}
	return nil
}

// Reason pairs a selected reason type with a free-text comment. It is
// immutable once built.
type Reason struct {
	Type    ReasonType
	Comment string
}

// NewReason builds a reason from a type and a comment.
func NewReason(reasonType ReasonType, comment string) (Reason, error) {
	if err := reasonType.Validate(); err != nil {
		return Reason{}, err
	}
	return Reason{Type: reasonType, Comment: comment}, nil
}

// ReasonTypeRepository manages reason type persistence.
type ReasonTypeRepository interface {
	List(ctx context.Context) ([]ReasonType, error)
	Save(ctx context.Context, reasonType *ReasonType) error
}
