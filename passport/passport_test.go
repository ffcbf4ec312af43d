package passport

import (
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"workbenchd/unit"
)

func builtUnit(t *testing.T) *unit.Unit {
	t.Helper()
	u := unit.New(&unit.Schema{
		SchemaID: "sch-1",
		UnitName: "device",
		ProductionStages: []unit.StageBlueprint{
			{StageID: "st-1", Name: "assemble"},
		},
	})
	if err := u.StartOperation("Alex Ferro", nil); err != nil {
		t.Fatal(err)
	}
	if err := u.EndOperation([]string{"https://gateway/ipfs/QmVid"}, nil, false, ""); err != nil {
		t.Fatal(err)
	}
	return u
}

func TestRenderWritesPassport(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(dir)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	u := builtUnit(t)
	path, err := r.Render(u)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(path, dir) {
		t.Errorf("passport written outside target dir: %q", path)
	}
	if !strings.Contains(path, u.UUID) {
		t.Errorf("path %q does not carry the unit uuid", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc["unit_internal_id"] != u.InternalID {
		t.Errorf("unit_internal_id = %v", doc["unit_internal_id"])
	}
	stages, ok := doc["production_stages"].([]interface{})
	if !ok || len(stages) != 1 {
		t.Fatalf("production_stages = %v", doc["production_stages"])
	}
	stage := stages[0].(map[string]interface{})
	if stage["employee_name"] != "Alex Ferro" {
		t.Errorf("employee_name = %v", stage["employee_name"])
	}
}

func TestRenderSkipsPendingStages(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(dir)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	u := unit.New(&unit.Schema{
		SchemaID: "sch-1",
		UnitName: "device",
		ProductionStages: []unit.StageBlueprint{
			{StageID: "st-1", Name: "assemble"},
			{StageID: "st-2", Name: "test"},
		},
	})
	path, err := r.Render(u)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	data, _ := os.ReadFile(path)
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, present := doc["production_stages"]; present {
		t.Error("pending stages leaked into the passport")
	}
}

func TestRenderNestsComponents(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(dir)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	parent := unit.New(&unit.Schema{
		SchemaID:           "sch-c",
		UnitName:           "composite",
		RequiredComponents: []string{"sch-a"},
	})
	comp := unit.New(&unit.Schema{SchemaID: "sch-a", UnitName: "part"})
	if err := parent.AssignComponent(comp); err != nil {
		t.Fatal(err)
	}

	path, err := r.Render(parent)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	data, _ := os.ReadFile(path)
	var doc struct {
		Components []struct {
			UnitInternalID string `yaml:"unit_internal_id"`
		} `yaml:"components"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Components) != 1 || doc.Components[0].UnitInternalID != comp.InternalID {
		t.Errorf("components = %+v", doc.Components)
	}
}
