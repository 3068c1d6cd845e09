// Package output maps scripts to their captured-output files and writes them.
//
// For a script D/NAME.sql run against target T the output lives at D/T/NAME.txt.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lockplane/sqlbatch/internal/config"
)

var (
	// ErrOutputWriteFailed wraps any I/O failure while persisting an output file.
	ErrOutputWriteFailed = errors.New("output write failed")
	// ErrNotFound is returned when no captured output exists for a script.
	ErrNotFound = errors.New("output not found")
)

// Record is the captured output of one script for one target.
type Record struct {
	ScriptName string
	Path       string
	Text       string
}

// Writer derives output paths and persists records.
type Writer struct {
	// Extension replaces the script extension; defaults to ".txt".
	Extension string
}

// Path returns <dir(sourcePath)>/<targetName>/<base without extension><ext>.
func (w Writer) Path(sourcePath, targetName string) string {
	dir, file := filepath.Split(sourcePath)
	base := strings.TrimSuffix(file, filepath.Ext(file))
	return filepath.Join(dir, targetName, base+w.ext())
}

func (w Writer) ext() string {
	if w.Extension == "" {
		return config.DefaultOutputExtension
	}
	return w.Extension
}

// Write stores rec.Text at rec.Path, creating missing directories and replacing any
// previous content. The file is written to a temporary name first and renamed into
// place, so readers never observe a partial file.
func (w Writer) Write(rec Record) error {
	dir := filepath.Dir(rec.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOutputWriteFailed, rec.ScriptName, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(rec.Path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOutputWriteFailed, rec.ScriptName, err)
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.WriteString(rec.Text)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %w", ErrOutputWriteFailed, rec.ScriptName, err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %w", ErrOutputWriteFailed, rec.ScriptName, err)
	}

	if err := os.Rename(tmpName, rec.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %w", ErrOutputWriteFailed, rec.ScriptName, err)
	}
	return nil
}

// Read returns the captured output for sourcePath and targetName.
func (w Writer) Read(sourcePath, targetName string) (string, error) {
	path := w.Path(sourcePath, targetName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", err
	}
	return string(data), nil
}
