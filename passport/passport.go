// Package passport renders unit passports as YAML documents, the
// component tree nested inside the composite unit's own passport.
package passport

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"workbenchd/unit"
)

// stageRecord is one biography entry of the rendered passport.
type stageRecord struct {
	Name             string            `yaml:"name"`
	EmployeeName     string            `yaml:"employee_name,omitempty"`
	SessionStartTime string            `yaml:"session_start_time,omitempty"`
	SessionEndTime   string            `yaml:"session_end_time,omitempty"`
	VideoHashes      []string          `yaml:"video_hashes,omitempty"`
	AdditionalInfo   map[string]string `yaml:"additional_info,omitempty"`
	EndedPrematurely bool              `yaml:"ended_prematurely"`
}

// document is the passport body, components nested recursively.
type document struct {
	UnitUUID       string        `yaml:"unit_uuid"`
	UnitInternalID string        `yaml:"unit_internal_id"`
	UnitName       string        `yaml:"unit_name"`
	SchemaID       string        `yaml:"schema_id"`
	Status         string        `yaml:"status"`
	CreationTime   string        `yaml:"creation_time"`
	Biography      []stageRecord `yaml:"production_stages,omitempty"`
	Components     []document    `yaml:"components,omitempty"`
}

// Renderer writes passport files into a target directory.
type Renderer struct {
	dir string
}

// NewRenderer creates a renderer, ensuring the target directory exists.
func NewRenderer(dir string) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create passport dir: %w", err)
	}
	return &Renderer{dir: dir}, nil
}

// Render produces the unit's passport YAML file and returns its path.
func (r *Renderer) Render(u *unit.Unit) (string, error) {
	doc := buildDocument(u)
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return "", fmt.Errorf("marshal passport: %w", err)
	}

	path := filepath.Join(r.dir, fmt.Sprintf("unit-passport-%s.yaml", u.UUID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write passport: %w", err)
	}
	return path, nil
}

func buildDocument(u *unit.Unit) document {
	doc := document{
		UnitUUID:       u.UUID,
		UnitInternalID: u.InternalID,
		UnitName:       u.Name,
		SchemaID:       u.SchemaID,
		Status:         string(u.Status),
		CreationTime:   u.CreationTime.Format(unit.TimestampFormat),
	}
	for _, st := range u.Biography {
		if !st.Completed {
			continue
		}
		doc.Biography = append(doc.Biography, stageRecord{
			Name:             st.Name,
			EmployeeName:     st.EmployeeName,
			SessionStartTime: st.SessionStart,
			SessionEndTime:   st.SessionEnd,
			VideoHashes:      st.VideoHashes,
			AdditionalInfo:   st.AdditionalInfo,
			EndedPrematurely: st.EndedPrematurely,
		})
	}
	for _, c := range u.Components {
		doc.Components = append(doc.Components, buildDocument(c))
	}
	return doc
}
