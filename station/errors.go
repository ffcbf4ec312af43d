package station

import (
	"fmt"

	"workbenchd/unit"
)

// StateForbiddenError is returned when a requested state change is not in the
// transition table, or an operation is invoked outside its required state.
// Never retried; the caller must change the station's state first.
type StateForbiddenError struct {
	Current State
	Target  State
}

func (e *StateForbiddenError) Error() string {
	return fmt.Sprintf("state transition from %s to %s is forbidden", e.Current, e.Target)
}

// PreconditionError is returned when an operation is invoked while a required
// attachment (employee or unit) is missing. A caller error, never retried.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// EligibilityError is returned when a unit's status disqualifies it from
// being assigned to the station.
type EligibilityError struct {
	InternalID string
	Status     unit.Status
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("unit %s with status %q cannot be assigned to the station", e.InternalID, e.Status)
}
