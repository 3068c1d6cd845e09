package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lockplane/sqlbatch/internal/runner"
)

func sampleStatus() *runner.BatchStatus {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &runner.BatchStatus{
		RunID:      "5f0c6d8e-7b4a-4c1e-9d3f-2a1b0c9d8e7f",
		Target:     "TEST",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Scripts: []runner.ScriptStatus{
			{Name: "a.sql", OutputPath: "/scripts/TEST/a.txt"},
			{Name: "b.sql", OutputPath: "/scripts/TEST/b.txt", Failed: true, WriteErr: errors.New("disk full")},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseFormat(%q) = %q; want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.json")

	if err := Write(path, sampleStatus(), FormatJSON); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}

	var got Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Report is not valid JSON: %v", err)
	}

	if got.Outcome != runner.HasErrors {
		t.Errorf("Expected outcome %q, got %q", runner.HasErrors, got.Outcome)
	}
	if len(got.Failed) != 1 || got.Failed[0] != "b.sql" {
		t.Errorf("Expected failed [b.sql], got %v", got.Failed)
	}
	if len(got.Scripts) != 2 {
		t.Fatalf("Expected 2 scripts, got %d", len(got.Scripts))
	}
	if got.Scripts[1].WriteError != "disk full" {
		t.Errorf("Expected write error for b.sql, got %q", got.Scripts[1].WriteError)
	}
	if got.Scripts[0].WriteError != "" {
		t.Errorf("Expected no write error for a.sql, got %q", got.Scripts[0].WriteError)
	}
}

func TestWriteYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	if err := Write(path, sampleStatus(), FormatYAML); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("Report is not valid YAML: %v", err)
	}
	if got["run_id"] != "5f0c6d8e-7b4a-4c1e-9d3f-2a1b0c9d8e7f" {
		t.Errorf("Expected run_id to round trip, got %v", got["run_id"])
	}
	if got["outcome"] != "has-errors" {
		t.Errorf("Expected outcome has-errors, got %v", got["outcome"])
	}
}

func TestMarshalUnknownFormat(t *testing.T) {
	if _, err := Marshal(sampleStatus(), Format("toml")); err == nil {
		t.Fatal("Expected error for unknown format")
	}
}
