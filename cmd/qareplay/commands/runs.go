package commands

import (
	"os"

	"qareplay/services/archive"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var runsArchive *string
var runsShow *int64

func init() {
	runsArchive = runsCmd.Flags().String("archive", "archive.db", "The archive database to read.")
	runsShow = runsCmd.Flags().Int64("run", 0, "Show the per-test rows of one recorded run.")
	rootCmd.AddCommand(runsCmd)
}

var runsCmd = &cobra.Command{
	Use:   "runs [--archive archive.db] [--run id]",
	Short: "Lists archived comparison runs.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		store, err := archive.Open(*runsArchive)
		if err != nil {
			fatal("failed to open archive", err)
		}
		defer store.Close()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)

		if *runsShow != 0 {
			results, err := store.RunResults(ctx, *runsShow)
			if err != nil {
				fatal("failed to read run results", err)
			}
			t.AppendHeader(table.Row{"Test", "Previous Result", "New Result", "Equal"})
			for _, result := range results {
				t.AppendRow(table.Row{result.Test, result.PreviousValue, result.NewValue, result.Equal})
			}
		} else {
			runs, err := store.ListRuns(ctx)
			if err != nil {
				fatal("failed to list runs", err)
			}
			t.AppendHeader(table.Row{"Run", "Recorded", "Previous Session", "New Session"})
			for _, run := range runs {
				t.AppendRow(table.Row{run.Id, run.CreatedAt.Format("2006-01-02 15:04"), run.PreviousSession, run.NewSession})
			}
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
