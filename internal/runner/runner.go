// Package runner executes an ordered set of scripts against one target and records
// the captured output of each script next to its source.
package runner

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lockplane/sqlbatch/internal/database"
	"github.com/lockplane/sqlbatch/internal/output"
	"github.com/lockplane/sqlbatch/internal/scripts"
	"github.com/lockplane/sqlbatch/internal/sqlexec"
	"github.com/lockplane/sqlbatch/internal/target"
)

var (
	ErrNoScriptsSelected = errors.New("no scripts selected")
	ErrNoTargetSelected  = errors.New("no target selected")
	ErrDuplicateScript   = errors.New("duplicate script name")
)

// Session executes whole scripts over one connection.
type Session interface {
	ExecBatch(ctx context.Context, script string) ([]sqlexec.Notification, error)
	Close() error
}

// Connector opens a session against a resolved target.
type Connector func(ctx context.Context, t target.Target) (Session, error)

// Runner runs batches. The zero value is not usable; build one with New.
type Runner struct {
	Targets *target.Registry
	Connect Connector
	Output  output.Writer
	Log     logrus.FieldLogger
}

// New returns a Runner that connects with sqlexec and logs server notices to log.
func New(targets *target.Registry, log logrus.FieldLogger) *Runner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{
		Targets: targets,
		Connect: SQLConnector(log),
		Log:     log,
	}
}

// SQLConnector opens a sqlexec.Session for a target. Postgres notices raised by the
// scripts are logged at info level.
func SQLConnector(log logrus.FieldLogger) Connector {
	return func(ctx context.Context, t target.Target) (Session, error) {
		opts := database.Options{
			OnNotice: func(severity, message string) {
				log.WithFields(logrus.Fields{"target": t.Name, "severity": severity}).Info(message)
			},
		}
		session, err := sqlexec.Open(ctx, t.Type, t.URL, opts)
		if err != nil {
			return nil, fmt.Errorf("connect to %s (%s): %w", t.Name, t.Redacted(), err)
		}
		return session, nil
	}
}

func (r *Runner) log() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

// Run executes set in order against targetName and writes one output file per
// script. A failing script does not stop the batch. The returned error is non-nil
// only when the run was rejected before anything executed.
func (r *Runner) Run(ctx context.Context, set []scripts.Script, targetName string) (*BatchStatus, error) {
	if len(set) == 0 {
		return nil, ErrNoScriptsSelected
	}
	if strings.TrimSpace(targetName) == "" {
		return nil, ErrNoTargetSelected
	}
	seen := make(map[string]bool, len(set))
	for _, s := range set {
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScript, s.Name)
		}
		seen[s.Name] = true
	}

	t, err := r.Targets.Resolve(targetName)
	if err != nil {
		return nil, err
	}

	status := &BatchStatus{
		RunID:     uuid.NewString(),
		Target:    t.Name,
		StartedAt: time.Now(),
		Scripts:   make([]ScriptStatus, 0, len(set)),
	}
	log := r.log().WithFields(logrus.Fields{"run_id": status.RunID, "target": t.Name})
	log.WithField("scripts", len(set)).Info("Starting batch")

	var session Session
	defer func() {
		if session == nil {
			return
		}
		if err := session.Close(); err != nil {
			log.WithError(err).Warn("Failed to close connection")
		}
	}()

	for _, script := range set {
		var result executionResult

		if err := ctx.Err(); err != nil {
			result.fail(fmt.Sprintf("batch cancelled before %s started: %v", script.Name, err))
		} else {
			if session == nil {
				session, err = r.Connect(ctx, t)
				if err != nil {
					session = nil
					log.WithError(err).Error("Failed to connect")
					result.fail(err.Error())
				}
			}
			if session != nil {
				result = r.execute(ctx, session, script)
				if result.broken {
					// Reconnect for the next script rather than reuse a dead connection
					if err := session.Close(); err != nil {
						log.WithError(err).Debug("Failed to close broken connection")
					}
					session = nil
				}
			}
		}

		entry := ScriptStatus{
			Name:       script.Name,
			SourcePath: script.Path,
			OutputPath: r.Output.Path(script.Path, t.Name),
			Failed:     result.failed,
		}
		if err := r.Output.Write(output.Record{ScriptName: script.Name, Path: entry.OutputPath, Text: result.text()}); err != nil {
			entry.Failed = true
			entry.WriteErr = err
			log.WithField("script", script.Name).WithError(err).Error("Failed to write output")
		}
		status.Scripts = append(status.Scripts, entry)

		scriptLog := log.WithFields(logrus.Fields{"script": script.Name, "failed": entry.Failed, "rows": result.rows})
		if entry.Failed {
			scriptLog.Warn("Script finished with errors")
		} else {
			scriptLog.Info("Script finished")
		}
	}

	status.FinishedAt = time.Now()
	log.WithFields(logrus.Fields{
		"outcome": status.Outcome(),
		"failed":  len(status.FailedScripts()),
	}).Info("Batch complete")

	return status, nil
}

func (r *Runner) execute(ctx context.Context, session Session, script scripts.Script) executionResult {
	var result executionResult

	text, err := os.ReadFile(script.Path)
	if err != nil {
		result.fail(err.Error())
		return result
	}

	notes, err := session.ExecBatch(ctx, string(text))
	for _, note := range notes {
		result.add(fmt.Sprintf("(%d row(s) affected)", note.RowsAffected))
		result.rows += note.RowsAffected
	}
	if err == nil {
		return result
	}

	var batchErr *sqlexec.BatchError
	if errors.As(err, &batchErr) {
		for _, serverErr := range batchErr.Errors {
			result.add(serverErr.Header())
			result.add(serverErr.Message)
		}
		result.failed = true
		return result
	}

	result.fail(err.Error())
	result.broken = errors.Is(err, driver.ErrBadConn)
	return result
}

// ReadOutput returns the captured output of the script called name for targetName.
func (r *Runner) ReadOutput(set []scripts.Script, targetName, name string) (string, error) {
	if err := target.ValidateName(targetName); err != nil {
		return "", err
	}
	script, ok := scripts.Lookup(set, name)
	if !ok {
		return "", fmt.Errorf("%w: no script named %q", output.ErrNotFound, name)
	}
	return r.Output.Read(script.Path, targetName)
}

// executionResult is the output of a single script. Each script gets a fresh one.
type executionResult struct {
	lines  []string
	rows   int64
	failed bool
	broken bool
}

func (r *executionResult) add(line string) {
	r.lines = append(r.lines, line)
}

func (r *executionResult) fail(message string) {
	r.add(message)
	r.failed = true
}

func (r *executionResult) text() string {
	if len(r.lines) == 0 {
		return ""
	}
	return strings.Join(r.lines, "\n") + "\n"
}
