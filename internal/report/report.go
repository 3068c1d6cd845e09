// Package report serialises the status of a batch run for other tools.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lockplane/sqlbatch/internal/runner"
)

// Format selects the report encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml. An empty name means json.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported report format %q (expected json or yaml)", name)
	}
}

// Report is the serialised form of a runner.BatchStatus.
type Report struct {
	RunID      string          `json:"run_id" yaml:"run_id"`
	Target     string          `json:"target" yaml:"target"`
	Outcome    runner.Outcome  `json:"outcome" yaml:"outcome"`
	StartedAt  time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time       `json:"finished_at" yaml:"finished_at"`
	Failed     []string        `json:"failed,omitempty" yaml:"failed,omitempty"`
	Scripts    []ScriptSummary `json:"scripts" yaml:"scripts"`
}

type ScriptSummary struct {
	Name       string `json:"name" yaml:"name"`
	OutputPath string `json:"output_path" yaml:"output_path"`
	Failed     bool   `json:"failed" yaml:"failed"`
	WriteError string `json:"write_error,omitempty" yaml:"write_error,omitempty"`
}

// FromStatus builds a Report from status.
func FromStatus(status *runner.BatchStatus) Report {
	r := Report{
		RunID:      status.RunID,
		Target:     status.Target,
		Outcome:    status.Outcome(),
		StartedAt:  status.StartedAt,
		FinishedAt: status.FinishedAt,
		Failed:     status.FailedScripts(),
		Scripts:    make([]ScriptSummary, 0, len(status.Scripts)),
	}
	for _, s := range status.Scripts {
		summary := ScriptSummary{Name: s.Name, OutputPath: s.OutputPath, Failed: s.Failed}
		if s.WriteErr != nil {
			summary.WriteError = s.WriteErr.Error()
		}
		r.Scripts = append(r.Scripts, summary)
	}
	return r
}

// Marshal encodes the report of status in format.
func Marshal(status *runner.BatchStatus, format Format) ([]byte, error) {
	r := FromStatus(status)
	switch format {
	case FormatYAML:
		return yaml.Marshal(r)
	case FormatJSON, "":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

// Write stores the report of status at path.
func Write(path string, status *runner.BatchStatus, format Format) error {
	data, err := Marshal(status, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
