package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockplane/sqlbatch/internal/scripts"
)

var scriptsCmd = &cobra.Command{
	Use:   "scripts <dir>",
	Short: "List the scripts a run would execute, in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}

		set, err := env.discover(args[0])
		if err != nil {
			return err
		}

		for _, name := range scripts.Names(set) {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scriptsCmd)
}
