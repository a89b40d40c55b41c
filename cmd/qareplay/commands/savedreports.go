package commands

import (
	"log/slog"
	"os"

	"qareplay/lib/qaclient"

	"github.com/spf13/cobra"
)

var savedReportsUser *string
var savedReportsFormat *string

func init() {
	savedReportsUser = savedReportsCmd.Flags().String("user", "", "Only run reports created by this username.")
	savedReportsFormat = savedReportsCmd.Flags().String("format", "pdf", "Report format: pdf, xlsx or csv.")
	rootCmd.AddCommand(savedReportsCmd)
}

var savedReportsCmd = &cobra.Command{
	Use:   "saved-reports [--user username] [--format pdf]",
	Short: "Runs every saved report and writes the results to disk.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client, _ := createClient(ctx)

		reports, err := client.SavedReports(ctx, *savedReportsUser)
		if err != nil {
			fatal("failed to list saved reports", err)
		}

		for _, report := range reports {
			slog.Info("running report", "title", report.Title)
			filename, content, err := client.RunSavedReport(ctx, report, qaclient.ReportFormat(*savedReportsFormat))
			if err != nil {
				fatal("failed to run report", err)
			}
			err = os.WriteFile(filename, content, 0644)
			if err != nil {
				fatal("failed to write report", err)
			}
			slog.Info("wrote report", "path", filename, "bytes", len(content))
		}
	},
}
