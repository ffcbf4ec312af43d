package unit

import "time"

// Status is the lifecycle status of a unit.
type Status string

const (
	// StatusProduction marks a unit with pending production stages.
	StatusProduction Status = "production"
	// StatusBuilt marks a unit whose every production stage is complete.
	StatusBuilt Status = "built"
	// StatusRevision marks a finished unit sent back for rework.
	StatusRevision Status = "revision"
)

// IsValid checks if the status is a known Status.
func (s Status) IsValid() bool {
	switch s {
	case StatusProduction, StatusBuilt, StatusRevision:
		return true
	}
	return false
}

// TimestampFormat is the fixed human-readable timestamp layout used across
// unit biographies and passports.
const TimestampFormat = "02-01-2006 15:04:05"

// Timestamp formats the current moment with TimestampFormat.
func Timestamp() string {
	return time.Now().Format(TimestampFormat)
}

// StageBlueprint describes one production stage of a schema.
type StageBlueprint struct {
	StageID         string   `bson:"stage_id" json:"stage_id" yaml:"stage_id"`
	Name            string   `bson:"name" json:"name" yaml:"name"`
	Type            string   `bson:"type" json:"type" yaml:"type"`
	Description     string   `bson:"description" json:"description" yaml:"description"`
	Equipment       []string `bson:"equipment,omitempty" json:"equipment,omitempty" yaml:"equipment,omitempty"`
	Workplace       string   `bson:"workplace" json:"workplace" yaml:"workplace"`
	DurationSeconds int      `bson:"duration_seconds" json:"duration_seconds" yaml:"duration_seconds"`
}

// Schema is a production schema: what the unit is and how it is assembled.
type Schema struct {
	SchemaID           string           `bson:"schema_id" json:"schema_id"`
	UnitName           string           `bson:"unit_name" json:"unit_name"`
	SchemaType         string           `bson:"schema_type" json:"schema_type"`
	ParentSchemaID     string           `bson:"parent_schema_id,omitempty" json:"parent_schema_id,omitempty"`
	RequiredComponents []string         `bson:"required_components_schema_ids,omitempty" json:"required_components_schema_ids,omitempty"`
	ProductionStages   []StageBlueprint `bson:"production_stages" json:"production_stages"`
}

// IsComposite reports whether the schema requires component units.
func (s *Schema) IsComposite() bool {
	return len(s.RequiredComponents) > 0
}

// Stage is one entry of a unit's biography: a stage blueprint plus the record
// of the work session that fulfilled it.
type Stage struct {
	ID               string            `bson:"id" json:"id"`
	StageID          string            `bson:"stage_id" json:"stage_id"`
	Name             string            `bson:"name" json:"name"`
	Description      string            `bson:"description" json:"description"`
	Equipment        []string          `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Workplace        string            `bson:"workplace" json:"workplace"`
	ParentUnitUUID   string            `bson:"parent_unit_uuid" json:"parent_unit_uuid"`
	EmployeeName     string            `bson:"employee_name,omitempty" json:"employee_name,omitempty"`
	SessionStart     string            `bson:"session_start_time,omitempty" json:"session_start_time,omitempty"`
	SessionEnd       string            `bson:"session_end_time,omitempty" json:"session_end_time,omitempty"`
	VideoHashes      []string          `bson:"video_hashes,omitempty" json:"video_hashes,omitempty"`
	AdditionalInfo   map[string]string `bson:"additional_info,omitempty" json:"additional_info,omitempty"`
	EndedPrematurely bool              `bson:"ended_prematurely" json:"ended_prematurely"`
	Completed        bool              `bson:"completed" json:"completed"`
	CreationTime     time.Time         `bson:"creation_time" json:"creation_time"`
}

// InProgress reports whether a work session has been opened on the stage but
// not yet closed.
func (st *Stage) InProgress() bool {
	return st.SessionStart != "" && !st.Completed
}
