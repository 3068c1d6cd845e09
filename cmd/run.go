package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lockplane/sqlbatch/internal/picker"
	"github.com/lockplane/sqlbatch/internal/report"
	"github.com/lockplane/sqlbatch/internal/runner"
	"github.com/lockplane/sqlbatch/internal/target"
)

// errBatchFailed is returned when a run completed but at least one script failed.
var errBatchFailed = errors.New("batch has errors")

var (
	runTarget       string
	runPick         bool
	runReport       string
	runReportFormat string
)

var runCmd = &cobra.Command{
	Use:   "run <dir>",
	Short: "Run every script in a directory against a target",
	Long: `Run every script in <dir> (non-recursive, sorted by name) against one target over a
single connection. Each script's row counts and errors are written to
<dir>/<target>/<script>.txt. A failing script does not stop the batch.

The target is chosen from:
  1. --target flag
  2. the interactive picker, with --pick
  3. default_target from sqlbatch.toml`,
	Example: `  # Run against the built-in TEST target
  sqlbatch run ./scripts --target TEST

  # Choose the target interactively and keep a JSON report
  sqlbatch run ./scripts --pick --report run.json`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runTarget, "target", "t", "", "Target to run against")
	runCmd.Flags().BoolVar(&runPick, "pick", false, "Choose the target interactively when --target is not given")
	runCmd.Flags().StringVar(&runReport, "report", "", "Write a run report to this file")
	runCmd.Flags().StringVar(&runReportFormat, "report-format", "json", "Report format: json or yaml")
}

func runRun(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(runReportFormat)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	set, err := env.discover(args[0])
	if err != nil {
		return err
	}
	logger.WithField("dir", args[0]).Debugf("Discovered %d script(s)", len(set))

	targetName, err := chooseTarget(cmd, env.registry)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	r := runner.New(env.registry, logger)
	r.Output = env.writer()

	status, err := r.Run(ctx, set, targetName)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), status)

	if runReport != "" {
		if err := report.Write(runReport, status, format); err != nil {
			return err
		}
		logger.WithField("path", runReport).Info("Wrote run report")
	}

	if err := status.WriteErrors(); err != nil {
		logger.WithError(err).Error("Some outputs could not be written")
	}

	if !status.Succeeded() {
		failed := status.FailedScripts()
		fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d script(s) failed: %s\n",
			len(failed), len(status.Scripts), strings.Join(failed, ", "))
		return errBatchFailed
	}
	return nil
}

// chooseTarget returns the target name to run against. An empty result is passed
// through so that the runner rejects it.
func chooseTarget(cmd *cobra.Command, registry *target.Registry) (string, error) {
	if name := strings.TrimSpace(runTarget); name != "" {
		return name, nil
	}
	if !runPick {
		return registry.Default(), nil
	}

	var items []picker.Item
	for _, name := range registry.List() {
		item := picker.Item{Name: name}
		if t, err := registry.Resolve(name); err == nil {
			item.Detail = string(t.Type)
		}
		items = append(items, item)
	}
	return picker.Run(items, registry.Default(), cmd.InOrStdin(), cmd.ErrOrStderr())
}

func printSummary(w io.Writer, status *runner.BatchStatus) {
	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"SCRIPT", "STATUS", "OUTPUT"})

	for _, s := range status.Scripts {
		state := "ok"
		if s.Failed {
			state = "FAILED"
		}
		table.Append([]string{s.Name, state, relativeOutput(s)})
	}
	table.Render()

	fmt.Fprintf(w, "Target %s: %s (run %s)\n", status.Target, status.Outcome(), status.RunID)
}

// relativeOutput shortens an output path to <target>/<file> for display.
func relativeOutput(s runner.ScriptStatus) string {
	if s.OutputPath == "" {
		return ""
	}
	rel, err := filepath.Rel(filepath.Dir(s.SourcePath), s.OutputPath)
	if err != nil {
		return s.OutputPath
	}
	return rel
}
