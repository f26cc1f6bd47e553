package seismograph

// Status is the operational status of a seismograph.
type Status string

const (
	StatusOnline                Status = "online"
	StatusOutOfService          Status = "out_of_service"
	StatusDisabledForInspection Status = "disabled_for_inspection"
)

// Operation is a status change request.
type Operation string

const (
	OpSendToRepair Operation = "send_to_repair"
	OpSetOnline    Operation = "set_online"
)

// Fixed comments recorded when a seismograph returns online.
const (
	CommentRepairCompleted     = "repair completed"
	CommentClearedByInspection = "cleared by inspection"
)

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusOutOfService, StatusDisabledForInspection:
		return true
	}
	return false
}

// Display returns the human-readable status name used in notifications.
func (s Status) Display() string {
	switch s {
	case StatusOnline:
		return "Online"
	case StatusOutOfService:
		return "Out of Service"
	case StatusDisabledForInspection:
		return "Disabled for Inspection"
	}
	return string(s)
}

// Transition is the outcome of requesting an operation on a status.
type Transition struct {
	Next Status
	// Changed is false for requests that leave the status as-is. Those
	// requests append nothing to the history.
	Changed bool
	// Comment carries the fixed comment mandated for set-online
	// transitions; empty otherwise.
	Comment string
}

// Transit resolves the status transition table. It is a total function over
// the known statuses and operations: requests without effect come back with
// Changed == false rather than an error.
func Transit(current Status, op Operation) (Transition, error) {
	if !current.Valid() {
		return Transition{}, ErrUnknownStatus
	}
	switch op {
	case OpSendToRepair:
		if current == StatusOutOfService {
			return Transition{Next: current}, nil
		}
		return Transition{Next: StatusOutOfService, Changed: true}, nil
	case OpSetOnline:
		switch current {
		case StatusOnline:
			return Transition{Next: current}, nil
		case StatusDisabledForInspection:
			return Transition{Next: StatusOnline, Changed: true, Comment: CommentClearedByInspection}, nil
		case StatusOutOfService:
			return Transition{Next: StatusOnline, Changed: true, Comment: CommentRepairCompleted}, nil
		}
	}
	return Transition{}, ErrUnknownOperation
}
