package runner

import (
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Outcome is the overall result of a completed batch.
type Outcome string

const (
	AllSucceeded Outcome = "all-succeeded"
	HasErrors    Outcome = "has-errors"
)

// ScriptStatus is the per-script entry of a batch.
type ScriptStatus struct {
	Name       string
	SourcePath string
	OutputPath string
	// Failed is set when the script raised a server error or exception, or when its
	// output could not be written.
	Failed bool
	// WriteErr is non-nil when the output file could not be written.
	WriteErr error
}

// BatchStatus collects the per-script results of one run, in execution order.
type BatchStatus struct {
	RunID      string
	Target     string
	StartedAt  time.Time
	FinishedAt time.Time
	Scripts    []ScriptStatus
}

// Outcome reports AllSucceeded iff no script failed.
func (s *BatchStatus) Outcome() Outcome {
	if s.Succeeded() {
		return AllSucceeded
	}
	return HasErrors
}

// Succeeded reports whether every script succeeded.
func (s *BatchStatus) Succeeded() bool {
	for _, script := range s.Scripts {
		if script.Failed {
			return false
		}
	}
	return true
}

// FailedScripts returns the names of failed scripts, sorted.
func (s *BatchStatus) FailedScripts() []string {
	var names []string
	for _, script := range s.Scripts {
		if script.Failed {
			names = append(names, script.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Failed reports whether the named script failed in this run.
func (s *BatchStatus) Failed(name string) bool {
	for _, script := range s.Scripts {
		if script.Name == name {
			return script.Failed
		}
	}
	return false
}

// WriteErrors joins every output write failure, or returns nil.
func (s *BatchStatus) WriteErrors() error {
	var result *multierror.Error
	for _, script := range s.Scripts {
		if script.WriteErr != nil {
			result = multierror.Append(result, script.WriteErr)
		}
	}
	return result.ErrorOrNil()
}
