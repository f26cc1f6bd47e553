package application

import (
	"fmt"
	"strings"
)

// ValidationError reports the fields still missing when confirm is
// requested. The session keeps its collected input so the caller can
// complete the data and retry.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "close order: missing " + strings.Join(e.Missing, ", ")
}

// StepError reports an operation requested out of workflow order.
type StepError struct {
	Op   string
	Step Step
}

func (e *StepError) Error() string {
	return fmt.Sprintf("close order: %s not allowed in step %s", e.Op, e.Step)
}

// PersistenceError wraps a storage failure during confirm. The in-memory
// order and seismograph are left untouched and the session stays in its
// current step.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "close order: persist failed: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
