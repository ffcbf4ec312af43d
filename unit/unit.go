package unit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Unit is a physical item (or sub-assembly) moving through production. Its
// backing record lives in external storage; the station attaches and mutates
// it through the methods below, never by writing fields directly.
type Unit struct {
	UUID         string    `bson:"uuid" json:"uuid"`
	InternalID   string    `bson:"internal_id" json:"internal_id"`
	Name         string    `bson:"name" json:"name"`
	SchemaID     string    `bson:"schema_id" json:"schema_id"`
	Status       Status    `bson:"status" json:"status"`
	PassportCID  string    `bson:"passport_ipfs_cid,omitempty" json:"passport_ipfs_cid,omitempty"`
	ComponentIDs []string  `bson:"component_ids,omitempty" json:"component_ids,omitempty"`
	CreationTime time.Time `bson:"creation_time" json:"creation_time"`

	// Hydrated by the store, persisted in their own collections.
	Schema     *Schema `bson:"-" json:"-"`
	Components []*Unit `bson:"-" json:"components,omitempty"`
	Biography  []Stage `bson:"-" json:"biography,omitempty"`
}

// New constructs a unit from a production schema. The biography is seeded
// with one pending stage per schema stage.
func New(schema *Schema) *Unit {
	u := &Unit{
		UUID:         uuid.NewString(),
		InternalID:   NewInternalID(),
		Name:         schema.UnitName,
		SchemaID:     schema.SchemaID,
		Status:       StatusProduction,
		CreationTime: time.Now(),
		Schema:       schema,
	}
	for _, bp := range schema.ProductionStages {
		u.Biography = append(u.Biography, Stage{
			ID:             uuid.NewString(),
			StageID:        bp.StageID,
			Name:           bp.Name,
			Description:    bp.Description,
			Equipment:      bp.Equipment,
			Workplace:      bp.Workplace,
			ParentUnitUUID: u.UUID,
			CreationTime:   time.Now(),
		})
	}
	return u
}

// ComponentsFilled reports whether every required component schema has an
// assigned component unit. Units with non-composite schemas are always filled.
func (u *Unit) ComponentsFilled() bool {
	if u.Schema == nil || !u.Schema.IsComposite() {
		return true
	}
	return len(u.Components) >= len(u.Schema.RequiredComponents)
}

// AssignComponent attaches a component unit to the composition.
func (u *Unit) AssignComponent(component *Unit) error {
	if u.Schema == nil || !u.Schema.IsComposite() {
		return fmt.Errorf("unit %s is not composite, cannot assign components", u.InternalID)
	}
	if u.ComponentsFilled() {
		return fmt.Errorf("unit %s already has all components assigned", u.InternalID)
	}

	required := false
	for _, sid := range u.Schema.RequiredComponents {
		if sid == component.SchemaID {
			required = true
			break
		}
	}
	if !required {
		return fmt.Errorf("component schema %s is not required by unit %s", component.SchemaID, u.InternalID)
	}
	for _, c := range u.Components {
		if c.SchemaID == component.SchemaID {
			return fmt.Errorf("component schema %s is already assigned to unit %s", component.SchemaID, u.InternalID)
		}
	}

	u.Components = append(u.Components, component)
	u.ComponentIDs = append(u.ComponentIDs, component.InternalID)
	return nil
}

// NextPendingStage returns the first incomplete biography stage, or nil.
func (u *Unit) NextPendingStage() *Stage {
	for i := range u.Biography {
		if !u.Biography[i].Completed {
			return &u.Biography[i]
		}
	}
	return nil
}

// CurrentStage returns the stage with an open work session, or nil.
func (u *Unit) CurrentStage() *Stage {
	for i := range u.Biography {
		if u.Biography[i].InProgress() {
			return &u.Biography[i]
		}
	}
	return nil
}

// StartOperation opens a work session on the next pending stage.
func (u *Unit) StartOperation(employeeName string, additionalInfo map[string]string) error {
	st := u.NextPendingStage()
	if st == nil {
		return fmt.Errorf("unit %s has no pending stages", u.InternalID)
	}
	st.EmployeeName = employeeName
	st.SessionStart = Timestamp()
	st.AdditionalInfo = mergeInfo(st.AdditionalInfo, additionalInfo)
	return nil
}

// EndOperation closes the open work session with whatever video evidence was
// obtained. A premature end re-queues a fresh copy of the stage so the work
// can be redone; a normal end of the last stage marks the unit built.
func (u *Unit) EndOperation(videoHashes []string, additionalInfo map[string]string, premature bool, overrideTimestamp string) error {
	idx := -1
	for i := range u.Biography {
		if u.Biography[i].InProgress() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("unit %s has no ongoing operation", u.InternalID)
	}

	st := &u.Biography[idx]
	if overrideTimestamp == "" {
		overrideTimestamp = Timestamp()
	}
	st.SessionEnd = overrideTimestamp
	st.VideoHashes = videoHashes
	st.AdditionalInfo = mergeInfo(st.AdditionalInfo, additionalInfo)
	st.EndedPrematurely = premature
	st.Completed = true

	if premature {
		redo := Stage{
			ID:             uuid.NewString(),
			StageID:        st.StageID,
			Name:           st.Name,
			Description:    st.Description,
			Equipment:      st.Equipment,
			Workplace:      st.Workplace,
			ParentUnitUUID: u.UUID,
			CreationTime:   time.Now(),
		}
		u.Biography = append(u.Biography[:idx+1], append([]Stage{redo}, u.Biography[idx+1:]...)...)
		return nil
	}

	if u.NextPendingStage() == nil && u.Status == StatusProduction {
		u.Status = StatusBuilt
	}
	return nil
}

// FirstMatchingStatus walks the unit and its component tree depth-first and
// returns the first unit whose status is one of the wanted set, or nil.
func FirstMatchingStatus(u *Unit, wanted ...Status) *Unit {
	for _, s := range wanted {
		if u.Status == s {
			return u
		}
	}
	for _, c := range u.Components {
		if m := FirstMatchingStatus(c, wanted...); m != nil {
			return m
		}
	}
	return nil
}

func mergeInfo(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
