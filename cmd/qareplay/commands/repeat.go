package commands

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"qareplay/lib/notify"
	"qareplay/lib/qaclient"
	"qareplay/services/archive"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var repeatNum *int
var repeatCsv *string
var repeatArchive *string
var repeatNotify *bool

func init() {
	repeatNum = repeatCmd.Flags().IntP("num-sessions", "n", 1, "How many of the most recent sessions to replay.")
	repeatCsv = repeatCmd.Flags().String("csv", "", "Write the comparison tables to this CSV file.")
	repeatArchive = repeatCmd.Flags().String("archive", "", "Record the comparison results in this archive database.")
	repeatNotify = repeatCmd.Flags().Bool("notify", false, "Email the comparison results to the configured recipients.")
	rootCmd.AddCommand(repeatCmd)
}

var repeatCmd = &cobra.Command{
	Use:   "repeat [-n N] [--csv out.csv] [--archive archive.db] [--notify]",
	Short: "Replays the most recent QA sessions and compares old and new results.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client, cfg := createClient(ctx)

		comparisons, err := client.Repeat(ctx, *repeatNum)
		if err != nil {
			fatal("failed to repeat sessions", err)
		}

		for _, comparison := range comparisons {
			renderComparison(comparison)
		}

		if *repeatCsv != "" {
			err = writeCsv(*repeatCsv, comparisons)
			if err != nil {
				fatal("failed to write csv", err)
			}
			slog.Info("wrote comparison csv", "path", *repeatCsv)
		}

		if *repeatArchive != "" {
			assignment, err := client.Assignment(ctx)
			if err != nil {
				fatal("failed to resolve assignment", err)
			}
			store, err := archive.Open(*repeatArchive)
			if err != nil {
				fatal("failed to open archive", err)
			}
			defer store.Close()
			for _, comparison := range comparisons {
				_, err = store.RecordComparison(ctx, assignment.Name, comparison)
				if err != nil {
					fatal("failed to archive comparison", err)
				}
			}
			slog.Info("archived comparisons", "path", *repeatArchive, "count", len(comparisons))
		}

		if *repeatNotify {
			if !cfg.Smtp.Configured() || len(cfg.NotifyTo) == 0 {
				fatal("notify requested", fmt.Errorf("smtp or notify_to is not configured"))
			}
			err = notify.Send(
				cfg.Smtp,
				cfg.NotifyTo,
				fmt.Sprintf("QA consistency check: %d session(s) replayed", len(comparisons)),
				renderText(comparisons),
			)
			if err != nil {
				fatal("failed to send notification", err)
			}
			slog.Info("sent notification", "to", cfg.NotifyTo)
		}
	},
}

func renderComparison(comparison qaclient.Comparison) {
	fmt.Printf("Previous session: %s (%s)\n", comparison.PreviousSession.Url, comparison.PreviousSession.WorkCompleted)
	fmt.Printf("New session:      %s (%s)\n", comparison.NewSession.Url, comparison.NewSession.WorkCompleted)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Test", "Previous Result", "New Result", "Equal"})
	for _, row := range comparison.Rows {
		t.AppendRow(table.Row{row.Test, row.Previous, row.New, row.Equal})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func writeCsv(path string, comparisons []qaclient.Comparison) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, comparison := range comparisons {
		err = w.WriteAll(comparison.Table())
		if err != nil {
			return err
		}
		// blank line between sessions
		err = w.Write([]string{})
		if err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func renderText(comparisons []qaclient.Comparison) string {
	var out strings.Builder
	for _, comparison := range comparisons {
		for _, row := range comparison.Table() {
			out.WriteString(strings.Join(row, "\t"))
			out.WriteString("\n")
		}
		out.WriteString("\n")
	}
	return out.String()
}
