package cmd

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the available targets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetAutoWrapText(false)
		table.SetAutoFormatHeaders(false)
		table.SetHeader([]string{"NAME", "TYPE", "URL", "SOURCE", "DEFAULT"})

		for _, name := range env.registry.List() {
			row := []string{name, "", "", "", ""}
			if t, err := env.registry.Resolve(name); err == nil {
				row[1] = string(t.Type)
				row[2] = t.Redacted()
				row[3] = t.Source
			} else {
				row[2] = err.Error()
			}
			if name == env.registry.Default() {
				row[4] = "*"
			}
			table.Append(row)
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
