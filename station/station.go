package station

import (
	"context"
	"fmt"
	"log"
	"sync"

	"workbenchd/employee"
	"workbenchd/messenger"
	"workbenchd/unit"
)

// Storage persists unit records. Lookups are done by the routing layer; the
// station itself only ever pushes.
type Storage interface {
	PushUnit(ctx context.Context, u *unit.Unit, includeComponents bool) error
}

// Recorder is the handle to the video recording device.
type Recorder interface {
	// StartRecord blocks until the device acknowledges that recording began.
	StartRecord(ctx context.Context) error
	// EndRecord stops the ongoing recording.
	EndRecord(ctx context.Context) error
	// Filename returns the local path of the last finished recording, or ""
	// when no recording is available.
	Filename() string
}

// Publisher pushes files to content-addressed storage.
type Publisher interface {
	PublishFile(ctx context.Context, path string) (cid, link string, err error)
}

// PassportRenderer produces the unit's passport document file.
type PassportRenderer interface {
	Render(u *unit.Unit) (path string, err error)
}

// Anchorer schedules a ledger anchoring of a published artifact. The call
// only enqueues; delivery is asynchronous and failures never reach the
// station's callers.
type Anchorer interface {
	Anchor(cid, unitInternalID string) error
}

// Config holds the parameters needed to create a Station.
type Config struct {
	Number    int
	Storage   Storage
	Recorder  Recorder
	Publisher Publisher
	Passports PassportRenderer
	Anchorer  Anchorer
	Messenger *messenger.Hub
}

// Station is the singleton orchestrator of one physical workbench: at most
// one operator and one unit attached at a time, every state change validated
// against the transition table. All check-and-mutate sections run under an
// internal mutex; the mutex is never held across a collaborator await, so
// operations with side effects re-validate before committing.
type Station struct {
	mu       sync.Mutex
	number   int
	state    State
	employee *employee.Employee
	unit     *unit.Unit

	storage   Storage
	recorder  Recorder
	publisher Publisher
	passports PassportRenderer
	anchorer  Anchorer
	msg       *messenger.Hub
}

// New creates a station in the AwaitingLogin state.
func New(c Config) *Station {
	s := &Station{
		number:    c.Number,
		state:     StateAwaitingLogin,
		storage:   c.Storage,
		recorder:  c.Recorder,
		publisher: c.Publisher,
		passports: c.Passports,
		anchorer:  c.Anchorer,
		msg:       c.Messenger,
	}
	log.Printf("station %d initialized", s.number)
	return s
}

// State returns the current authority state.
func (s *Station) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Employee returns the attached operator, or nil.
func (s *Station) Employee() *employee.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.employee
}

// Unit returns the attached unit, or nil.
func (s *Station) Unit() *unit.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unit
}

// validateTransition must be called with the mutex held.
func (s *Station) validateTransition(next State) error {
	if !s.state.CanTransitionTo(next) {
		err := &StateForbiddenError{Current: s.state, Target: next}
		s.msg.Error(err.Error())
		return err
	}
	return nil
}

// switchState applies a table-approved transition. Must be called with the
// mutex held.
func (s *Station) switchState(next State) error {
	if !s.state.CanTransitionTo(next) {
		err := &StateForbiddenError{Current: s.state, Target: next}
		s.msg.Error(err.Error())
		return err
	}
	log.Printf("station %d state changed: %s -> %s", s.number, s.state, next)
	s.state = next
	return nil
}

// LogIn authorizes an operator at the station.
func (s *Station) LogIn(e *employee.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateTransition(StateAuthorizedIdling); err != nil {
		return err
	}

	if e.PassportCode == "" {
		e.PassportCode = employee.PassportCode(e.Name, e.Position)
	}
	s.employee = e
	if err := s.switchState(StateAuthorizedIdling); err != nil {
		s.employee = nil
		return err
	}

	log.Printf("employee %s logged in at station %d", e.Name, s.number)
	s.msg.Success(fmt.Sprintf("Authorized: %s %s.", e.Position, e.Name))
	return nil
}

// LogOut deauthorizes the operator. A unit still on the bench is detached
// first through the regular remove path.
func (s *Station) LogOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateTransition(StateAwaitingLogin); err != nil {
		return err
	}

	if s.state == StateUnitAssignedIdling {
		if err := s.removeUnitLocked(); err != nil {
			return err
		}
	}

	if s.employee == nil {
		err := &PreconditionError{Reason: "no employee is logged in at the station"}
		s.msg.Error(err.Reason)
		return err
	}

	name := s.employee.Name
	s.employee = nil
	if err := s.switchState(StateAwaitingLogin); err != nil {
		return err
	}

	log.Printf("employee %s logged out at station %d", name, s.number)
	s.msg.Success(fmt.Sprintf("%s logged out.", name))
	return nil
}

// CreateUnit constructs a new unit from the schema, announces its barcode
// label and persists the record. Allowed only while idling authorized.
func (s *Station) CreateUnit(ctx context.Context, schema *unit.Schema) (*unit.Unit, error) {
	s.mu.Lock()
	if s.state != StateAuthorizedIdling {
		err := &StateForbiddenError{Current: s.state, Target: StateAuthorizedIdling}
		s.mu.Unlock()
		s.msg.Error("Cannot create a new unit: the station is not in the AuthorizedIdling state.")
		return nil, err
	}
	s.mu.Unlock()

	u := unit.New(schema)
	s.msg.Info(fmt.Sprintf("Printing the barcode label for unit %s.", u.InternalID))

	if err := s.storage.PushUnit(ctx, u, true); err != nil {
		return nil, fmt.Errorf("persist new unit: %w", err)
	}

	log.Printf("unit %s created from schema %s", u.InternalID, schema.SchemaID)
	return u, nil
}

// AssignUnit attaches a unit to the station. Units mid-production or headed
// for revision are eligible directly; a built unit is eligible only while it
// has no published passport (the re-examination path). Otherwise the unit's
// component tree is searched for the first eligible descendant.
func (s *Station) AssignUnit(u *unit.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateTransition(StateUnitAssignedIdling); err != nil {
		return err
	}

	override := u.Status == unit.StatusBuilt && u.PassportCID == ""
	eligible := u.Status == unit.StatusProduction || u.Status == unit.StatusRevision

	if !override && !eligible {
		m := unit.FirstMatchingStatus(u, unit.StatusProduction, unit.StatusRevision)
		if m == nil {
			s.msg.Warning("Unit assembly is already complete. Cancelled.")
			return &EligibilityError{InternalID: u.InternalID, Status: u.Status}
		}
		u = m
	}

	s.unit = u

	next := StateUnitAssignedIdling
	if !u.ComponentsFilled() {
		log.Printf("unit %s is a composition with unsatisfied component requirements, gathering components", u.InternalID)
		next = StateGatheringComponents
	}
	if err := s.switchState(next); err != nil {
		s.unit = nil
		return err
	}

	log.Printf("unit %s assigned to station %d", u.InternalID, s.number)
	s.msg.Success(fmt.Sprintf("Unit %s placed on the station.", u.InternalID))
	return nil
}

// RemoveUnit detaches the unit from the station.
func (s *Station) RemoveUnit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeUnitLocked()
}

func (s *Station) removeUnitLocked() error {
	if err := s.validateTransition(StateAuthorizedIdling); err != nil {
		return err
	}
	if s.unit == nil {
		err := &PreconditionError{Reason: "no unit is assigned to the station"}
		s.msg.Error("Cannot remove a unit: no unit is assigned to the station.")
		return err
	}

	internalID := s.unit.InternalID
	s.unit = nil
	if err := s.switchState(StateAuthorizedIdling); err != nil {
		return err
	}

	s.msg.Success(fmt.Sprintf("Unit %s was removed from the station.", internalID))
	return nil
}

// StartOperation begins work on the assigned unit: the recorder must
// acknowledge before the station commits to OperationOngoing. The mutex is
// released while waiting for the device and the transition is re-validated
// on commit, so a conflicting concurrent operation cannot also succeed.
func (s *Station) StartOperation(ctx context.Context, additionalInfo map[string]string) error {
	s.mu.Lock()
	if err := s.validateTransition(StateOperationOngoing); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.unit == nil {
		s.mu.Unlock()
		s.msg.Error("No unit is assigned to the station.")
		return &PreconditionError{Reason: "no unit is assigned to the station"}
	}
	if s.employee == nil {
		s.mu.Unlock()
		s.msg.Error("No employee is logged in at the station.")
		return &PreconditionError{Reason: "no employee is logged in at the station"}
	}
	u := s.unit
	s.mu.Unlock()

	if err := s.recorder.StartRecord(ctx); err != nil {
		s.msg.Error("Failed to start the recording device.")
		return fmt.Errorf("start record: %w", err)
	}

	s.mu.Lock()
	if s.unit != u || s.employee == nil || !s.state.CanTransitionTo(StateOperationOngoing) {
		err := &StateForbiddenError{Current: s.state, Target: StateOperationOngoing}
		s.mu.Unlock()
		// Station changed while waiting for the device; wind the recording back.
		_ = s.recorder.EndRecord(ctx)
		s.msg.Error(err.Error())
		return err
	}
	if err := u.StartOperation(s.employee.Name, additionalInfo); err != nil {
		s.mu.Unlock()
		_ = s.recorder.EndRecord(ctx)
		s.msg.Error(err.Error())
		return &PreconditionError{Reason: err.Error()}
	}
	s.switchState(StateOperationOngoing)
	stage := u.CurrentStage()
	s.mu.Unlock()

	if stage != nil {
		s.msg.Info(fmt.Sprintf("Stage %q started on unit %s.", stage.Name, u.InternalID))
	}
	return nil
}

// AssignComponentToUnit attaches a component to the unit's composition while
// gathering. Filling the last slot persists the unit and moves the station
// back to UnitAssignedIdling.
func (s *Station) AssignComponentToUnit(ctx context.Context, component *unit.Unit) error {
	s.mu.Lock()
	if s.state != StateGatheringComponents || s.unit == nil {
		s.mu.Unlock()
		err := &PreconditionError{Reason: "components can only be assigned while the station is gathering components"}
		s.msg.Error(err.Reason)
		return err
	}
	u := s.unit
	if err := u.AssignComponent(component); err != nil {
		s.mu.Unlock()
		s.msg.Warning(err.Error())
		return err
	}
	filled := u.ComponentsFilled()
	s.mu.Unlock()

	s.msg.Success(fmt.Sprintf("Component %s assigned to unit %s.", component.InternalID, u.InternalID))
	if !filled {
		return nil
	}

	if err := s.storage.PushUnit(ctx, u, true); err != nil {
		return fmt.Errorf("persist composite unit: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateGatheringComponents || s.unit != u {
		err := &StateForbiddenError{Current: s.state, Target: StateUnitAssignedIdling}
		s.msg.Error(err.Error())
		return err
	}
	return s.switchState(StateUnitAssignedIdling)
}

// EndOperation closes the ongoing production stage. Video evidence is best
// effort: a failing recorder or publisher degrades to a stage record with no
// video references and a warning for the operator, never a hard failure.
func (s *Station) EndOperation(ctx context.Context, additionalInfo map[string]string, premature bool) error {
	s.mu.Lock()
	if err := s.validateTransition(StateUnitAssignedIdling); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.unit == nil {
		s.mu.Unlock()
		s.msg.Error("No unit is assigned to the station.")
		return &PreconditionError{Reason: "no unit is assigned to the station"}
	}
	u := s.unit
	s.mu.Unlock()

	log.Printf("ending operation on unit %s", u.InternalID)
	videoHashes, overrideTimestamp := s.endRecord(ctx)

	s.mu.Lock()
	if err := u.EndOperation(videoHashes, additionalInfo, premature, overrideTimestamp); err != nil {
		s.mu.Unlock()
		s.msg.Error(err.Error())
		return &PreconditionError{Reason: err.Error()}
	}
	s.mu.Unlock()

	if err := s.storage.PushUnit(ctx, u, false); err != nil {
		return fmt.Errorf("persist unit after operation: %w", err)
	}

	s.mu.Lock()
	err := s.switchState(StateUnitAssignedIdling)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.msg.Success(fmt.Sprintf("Stage on unit %s is complete.", u.InternalID))
	return nil
}

// endRecord stops the device and publishes the recording. Either step may
// fail; the operation continues without video evidence.
func (s *Station) endRecord(ctx context.Context) ([]string, string) {
	overrideTimestamp := unit.Timestamp()

	if err := s.recorder.EndRecord(ctx); err != nil {
		log.Printf("failed to end record: %v", err)
		s.msg.Warning("Stage is complete, but saving the video failed. Contact the administrator.")
		return nil, overrideTimestamp
	}
	overrideTimestamp = unit.Timestamp()

	file := s.recorder.Filename()
	if file == "" {
		return nil, overrideTimestamp
	}

	_, link, err := s.publisher.PublishFile(ctx, file)
	if err != nil {
		log.Printf("failed to publish record: %v", err)
		s.msg.Warning("Stage is complete, but publishing the video failed. The recording is kept locally. Contact the administrator.")
		return nil, overrideTimestamp
	}
	return []string{link}, overrideTimestamp
}

// UploadUnitPassport finalizes the unit's assembly: render the passport,
// publish it, announce the retrieval QR tag and security seal, schedule a
// ledger anchoring of the artifact id and persist the unit. Publish failure
// is fatal to this operation and skips the anchoring.
func (s *Station) UploadUnitPassport(ctx context.Context) error {
	s.mu.Lock()
	if s.unit == nil {
		s.mu.Unlock()
		s.msg.Error("No unit is assigned to the station.")
		return &PreconditionError{Reason: "no unit is assigned to the station"}
	}
	if s.employee == nil {
		s.mu.Unlock()
		s.msg.Error("No employee is logged in at the station.")
		return &PreconditionError{Reason: "no employee is logged in at the station"}
	}
	u := s.unit
	s.mu.Unlock()

	path, err := s.passports.Render(u)
	if err != nil {
		return fmt.Errorf("render passport: %w", err)
	}

	cid, link, err := s.publisher.PublishFile(ctx, path)
	if err != nil {
		s.msg.Error("Failed to publish the unit passport.")
		return fmt.Errorf("publish passport: %w", err)
	}

	s.mu.Lock()
	u.PassportCID = cid
	s.mu.Unlock()

	s.msg.Info(fmt.Sprintf("Printing the QR tag with the unit certificate link: %s.", link))
	s.msg.Info("Printing the security seal tag.")

	if err := s.anchorer.Anchor(cid, u.InternalID); err != nil {
		// Anchoring is fire-and-forget: never surfaced to the caller.
		log.Printf("schedule passport anchoring: %v", err)
	}

	if err := s.storage.PushUnit(ctx, u, true); err != nil {
		return fmt.Errorf("persist unit passport: %w", err)
	}

	log.Printf("passport of unit %s published under %s", u.InternalID, cid)
	return nil
}

// Shutdown winds the station back to AwaitingLogin through the same
// validated operations used during normal work: end an ongoing operation
// prematurely, remove the unit, log the operator out. Each step is best
// effort and the sequence is idempotent.
func (s *Station) Shutdown(ctx context.Context) {
	log.Printf("station %d shutdown sequence initiated", s.number)
	s.msg.Warning("Station shutdown sequence initiated.")

	if s.State() == StateOperationOngoing {
		log.Printf("ending ongoing operation prematurely: station shutdown")
		info := map[string]string{"Ended reason": "unfinished when the station shutdown sequence initiated"}
		if err := s.EndOperation(ctx, info, true); err != nil {
			log.Printf("shutdown: end operation: %v", err)
		}
	}

	switch s.State() {
	case StateUnitAssignedIdling, StateGatheringComponents:
		if err := s.RemoveUnit(); err != nil {
			log.Printf("shutdown: remove unit: %v", err)
		}
	}

	if s.State() == StateAuthorizedIdling {
		if err := s.LogOut(); err != nil {
			log.Printf("shutdown: log out: %v", err)
		}
	}

	log.Printf("station %d shutdown sequence complete", s.number)
}
