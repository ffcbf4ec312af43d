package station

// State is the station's authority state. It gates which operations are
// legal at any moment.
type State string

const (
	// StateAwaitingLogin: no operator at the bench.
	StateAwaitingLogin State = "AwaitingLogin"
	// StateAuthorizedIdling: operator logged in, no unit on the bench.
	StateAuthorizedIdling State = "AuthorizedIdling"
	// StateUnitAssignedIdling: a unit is on the bench, no work in progress.
	StateUnitAssignedIdling State = "UnitAssignedIdling"
	// StateGatheringComponents: a composite unit is on the bench and is
	// missing required components.
	StateGatheringComponents State = "GatheringComponents"
	// StateOperationOngoing: a production stage is being recorded.
	StateOperationOngoing State = "OperationOngoing"
)

// transitionTable is the single source of truth for legal state changes.
// No mutation path bypasses it. UnitAssignedIdling -> AwaitingLogin covers
// logout with a unit still attached (the unit is detached first), and
// GatheringComponents -> AuthorizedIdling covers removing a unit mid-gather.
var transitionTable = map[State][]State{
	StateAwaitingLogin:       {StateAuthorizedIdling},
	StateAuthorizedIdling:    {StateAwaitingLogin, StateUnitAssignedIdling, StateGatheringComponents},
	StateUnitAssignedIdling:  {StateAuthorizedIdling, StateOperationOngoing, StateAwaitingLogin},
	StateGatheringComponents: {StateUnitAssignedIdling, StateAuthorizedIdling},
	StateOperationOngoing:    {StateUnitAssignedIdling},
}

// CanTransitionTo reports whether the table permits moving to next.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitionTable[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
