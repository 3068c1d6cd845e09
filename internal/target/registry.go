// Package target holds the registry of named execution targets.
//
// A handful of targets are compiled in; sqlbatch.toml may add targets or replace the
// URL of a built-in one, and a .env.<target> file may override the URL again.
package target

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/lockplane/sqlbatch/internal/config"
	"github.com/lockplane/sqlbatch/internal/database"
	"github.com/lockplane/sqlbatch/internal/strutil"
)

// ErrUnknownTarget is returned when resolving a name that is not registered.
var ErrUnknownTarget = errors.New("unknown target")

// Target is a named connection destination.
type Target struct {
	Name string
	URL  string
	Type database.Type
	// Source records where the URL came from: "builtin", "config" or "dotenv".
	Source string
}

// Redacted returns the URL with any password masked, for display.
func (t Target) Redacted() string {
	if adoPasswordPattern.MatchString(t.URL) {
		return adoPasswordPattern.ReplaceAllString(t.URL, "${1}=xxxxx")
	}
	u, err := url.Parse(t.URL)
	if err != nil || u.User == nil {
		return t.URL
	}
	return u.Redacted()
}

var adoPasswordPattern = regexp.MustCompile(`(?i)\b(password|pwd)=[^;]*`)

var builtins = []Target{
	{Name: "TEST", URL: "sqlserver://sa:sa@localhost?database=TEST"},
	{Name: "TESTAfter", URL: "sqlserver://sa:sa@localhost?database=TESTAfter"},
}

// Registry maps target names to connection descriptors. It is read-only once built.
type Registry struct {
	targets map[string]Target
	config  *config.Config
}

// NewRegistry builds the registry from the built-in targets overlaid with cfg.
// cfg may be nil.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}

	r := &Registry{
		targets: make(map[string]Target, len(builtins)+len(cfg.Targets)),
		config:  cfg,
	}

	for _, t := range builtins {
		t.Type = database.DetectType(t.URL)
		t.Source = "builtin"
		r.targets[t.Name] = t
	}

	for name, tc := range cfg.Targets {
		if err := ValidateName(name); err != nil {
			return nil, err
		}

		t, exists := r.targets[name]
		t.Name = name
		if tc.DatabaseURL != "" {
			t.URL = tc.DatabaseURL
			t.Source = "config"
		} else if !exists {
			t.Source = "config"
		}

		if tc.Type != "" {
			dbType, err := database.ParseType(tc.Type)
			if err != nil {
				return nil, fmt.Errorf("target %q: %w", name, err)
			}
			t.Type = dbType
		} else {
			t.Type = database.DetectType(t.URL)
		}
		r.targets[name] = t
	}

	if cfg.DefaultTarget != "" {
		if _, ok := r.targets[cfg.DefaultTarget]; !ok {
			return nil, fmt.Errorf("default_target: %w", r.unknown(cfg.DefaultTarget))
		}
	}

	return r, nil
}

// List returns the registered target names in sorted order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the configured default target, or "" when none is set.
func (r *Registry) Default() string {
	return r.config.DefaultTarget
}

// Resolve returns the target registered under name with any .env.<name> override applied.
func (r *Registry) Resolve(name string) (Target, error) {
	t, ok := r.targets[name]
	if !ok {
		return Target{}, r.unknown(name)
	}

	dotenvURL, found, err := r.config.DotenvURL(name)
	if err != nil {
		return Target{}, err
	}
	if found {
		t.URL = dotenvURL
		t.Source = "dotenv"
		if r.config.Targets[name].Type == "" {
			t.Type = database.DetectType(dotenvURL)
		}
	}

	if t.URL == "" {
		return Target{}, fmt.Errorf("target %q has no database_url and %s not found", name, r.config.DotenvPath(name))
	}
	return t, nil
}

func (r *Registry) unknown(name string) error {
	if suggestion, _ := strutil.FindClosest(name, r.List(), strutil.SuggestionMaxDistance); suggestion != "" {
		return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownTarget, name, suggestion)
	}
	return fmt.Errorf("%w %q (available: %s)", ErrUnknownTarget, name, strings.Join(r.List(), ", "))
}

// ValidateName reports whether name can be used as a target. Target names become a
// directory name in the output layout, so they must be a single path element.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("target name is empty")
	case name == "." || name == "..":
		return fmt.Errorf("invalid target name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("invalid target name %q: must not contain path separators", name)
	}
	return nil
}
