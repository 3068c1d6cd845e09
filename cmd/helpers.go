package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lockplane/sqlbatch/internal/config"
	"github.com/lockplane/sqlbatch/internal/output"
	"github.com/lockplane/sqlbatch/internal/scripts"
	"github.com/lockplane/sqlbatch/internal/target"
)

// environment is what every command needs from configuration.
type environment struct {
	config   *config.Config
	registry *target.Registry
}

func loadEnvironment() (*environment, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadConfigFile(configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	registry, err := target.NewRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid target configuration: %w", err)
	}

	return &environment{config: cfg, registry: registry}, nil
}

func (e *environment) discover(dir string) ([]scripts.Script, error) {
	return scripts.Source{Extension: e.config.ScriptExt()}.Discover(dir)
}

func (e *environment) writer() output.Writer {
	return output.Writer{Extension: e.config.OutputExt()}
}

// newLogger builds the logger used for progress messages. Logs go to w (stderr) so
// that stdout only carries tables and captured output.
func newLogger(w io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(w)

	switch strings.ToLower(logFormat) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected text or json)", logFormat)
	}

	logger.SetLevel(logrus.InfoLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger, nil
}
