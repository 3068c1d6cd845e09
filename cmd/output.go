package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lockplane/sqlbatch/internal/runner"
)

var outputTarget string

var outputCmd = &cobra.Command{
	Use:   "output <dir> <script>",
	Short: "Print the captured output of a script for a target",
	Example: `  sqlbatch output ./scripts 001_seed.sql --target TEST`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}

		targetName := strings.TrimSpace(outputTarget)
		if targetName == "" {
			targetName = env.registry.Default()
		}
		if targetName == "" {
			return runner.ErrNoTargetSelected
		}

		set, err := env.discover(args[0])
		if err != nil {
			return err
		}

		r := &runner.Runner{Targets: env.registry, Output: env.writer()}
		text, err := r.ReadOutput(set, targetName, args[1])
		if err != nil {
			return err
		}

		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	},
}

func init() {
	rootCmd.AddCommand(outputCmd)

	outputCmd.Flags().StringVarP(&outputTarget, "target", "t", "", "Target whose output to show (default: default_target)")
}
