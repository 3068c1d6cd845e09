package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/lockplane/sqlbatch/internal/strutil"
)

var version = getVersion()

var (
	configPath string
	verbose    bool
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "sqlbatch",
	Short: "Run a directory of SQL scripts against a named target",
	Long: `sqlbatch runs every .sql script in a directory, in name order, against one
named target and captures what the server reports for each script (row counts and
errors) into <dir>/<target>/<script>.txt.`,
	Version:            version,
	SilenceUsage:       true,
	SilenceErrors:      true,
	DisableSuggestions: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to sqlbatch.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errBatchFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		if hint := unknownCommandHint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(1)
	}
}

var unknownCommandPattern = regexp.MustCompile(`unknown command "([^"]+)"`)

// unknownCommandHint suggests the closest subcommand when err is cobra's
// unknown-command error.
func unknownCommandHint(err error) string {
	m := unknownCommandPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return ""
	}

	var names []string
	for _, c := range rootCmd.Commands() {
		if c.IsAvailableCommand() {
			names = append(names, c.Name())
		}
	}

	suggestion, _ := strutil.FindClosest(m[1], names, strutil.SuggestionMaxDistance)
	if suggestion == "" {
		return "Run 'sqlbatch --help' for usage."
	}
	return fmt.Sprintf("Did you mean %q?", suggestion)
}
