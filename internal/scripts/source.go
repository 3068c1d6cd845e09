// Package scripts discovers the SQL scripts that make up a batch.
package scripts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lockplane/sqlbatch/internal/config"
)

// ErrDirectoryUnavailable is returned when the script directory cannot be listed.
var ErrDirectoryUnavailable = errors.New("script directory unavailable")

// Script is one script file of a batch. Name is the file's base name and is unique
// within the batch.
type Script struct {
	Name string
	Path string
}

// Source enumerates scripts with a given extension.
type Source struct {
	// Extension is matched case-insensitively, including the leading dot.
	Extension string
}

// Discover lists dir with the default script extension.
func Discover(dir string) ([]Script, error) {
	return Source{Extension: config.DefaultScriptExtension}.Discover(dir)
}

// Discover returns every regular file directly inside dir whose extension matches,
// sorted by name. Subdirectories are not searched.
func (s Source) Discover(dir string) ([]Script, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDirectoryUnavailable, dir, err)
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}

	ext := strings.ToLower(s.Extension)
	if ext == "" {
		ext = config.DefaultScriptExtension
	}

	var found []Script
	for _, entry := range entries {
		if !isRegular(absDir, entry) {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) != ext {
			continue
		}
		found = append(found, Script{
			Name: entry.Name(),
			Path: filepath.Join(absDir, entry.Name()),
		})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Name < found[j].Name
	})
	return found, nil
}

// isRegular reports whether entry is a file, following symlinks.
func isRegular(dir string, entry os.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}

// Names returns the script names in order.
func Names(set []Script) []string {
	names := make([]string, len(set))
	for i, s := range set {
		names[i] = s.Name
	}
	return names
}

// Lookup finds a script by name.
func Lookup(set []Script, name string) (Script, bool) {
	for _, s := range set {
		if s.Name == name {
			return s, true
		}
	}
	return Script{}, false
}
