package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the configuration file looked up from the working directory upwards.
const FileName = "sqlbatch.toml"

const (
	DefaultScriptExtension = ".sql"
	DefaultOutputExtension = ".txt"
)

// TargetConfig describes a single named target from sqlbatch.toml.
type TargetConfig struct {
	DatabaseURL string `toml:"database_url"`
	// Type overrides detection from the URL scheme.
	Type string `toml:"type"`
}

type Config struct {
	DefaultTarget   string                  `toml:"default_target"`
	ScriptExtension string                  `toml:"script_extension"`
	OutputExtension string                  `toml:"output_extension"`
	Targets         map[string]TargetConfig `toml:"targets"`
	ConfigFilePath  string                  `toml:"-"`
}

// LoadConfig finds sqlbatch.toml in the working directory or a parent directory,
// stopping at the project root. A missing file yields an empty config.
func LoadConfig() (*Config, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(startDir)
}

// LoadConfigFrom is LoadConfig starting from dir instead of the working directory.
func LoadConfigFrom(startDir string) (*Config, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			return LoadConfigFile(configPath)
		}

		if isProjectRoot(dir) {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return &Config{}, nil
}

// LoadConfigFile reads, validates and decodes the config file at path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	config.ConfigFilePath = absPath
	return &config, nil
}

// ConfigDir is the directory holding the config file, or "" when none was found.
func (c *Config) ConfigDir() string {
	if c == nil || c.ConfigFilePath == "" {
		return ""
	}
	return filepath.Dir(c.ConfigFilePath)
}

// ScriptExt returns the script extension with its leading dot, lowercased.
func (c *Config) ScriptExt() string {
	if c == nil || c.ScriptExtension == "" {
		return DefaultScriptExtension
	}
	return normalizeExt(c.ScriptExtension)
}

// OutputExt returns the output file extension with its leading dot.
func (c *Config) OutputExt() string {
	if c == nil || c.OutputExtension == "" {
		return DefaultOutputExtension
	}
	return normalizeExt(c.OutputExtension)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// isProjectRoot checks if the directory is a project root based on common markers
func isProjectRoot(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	return false
}
