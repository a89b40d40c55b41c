package commands

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(unitsCmd)
}

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "Prints every unit known to the QA service.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client, _ := createClient(ctx)

		units, err := client.Units(ctx)
		if err != nil {
			fatal("failed to fetch units", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Unit", "Active"})
		for _, unit := range units {
			t.AppendRow(table.Row{unit.Name, unit.Active})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
