package commands

import (
	"fmt"
	"log/slog"
	"os"

	"qareplay/lib/qaclient"

	"github.com/spf13/cobra"
)

var reportSession *string
var reportFormat *string

func init() {
	reportSession = reportCmd.Flags().String("session", "", "Session URL to report on. Defaults to the assignment's most recent session.")
	reportFormat = reportCmd.Flags().String("format", "pdf", "Report format: pdf, xlsx or csv.")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [--session url] [--format pdf]",
	Short: "Generates and downloads a report for one QA session.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client, _ := createClient(ctx)

		sessionUrl := *reportSession
		if sessionUrl == "" {
			session, err := client.LastSession(ctx)
			if err != nil {
				fatal("failed to fetch last session", err)
			}
			if session == nil {
				fatal("no session to report on", fmt.Errorf("assignment has no completed sessions"))
			}
			sessionUrl = session.Url
		}

		filename, content, err := client.SessionReport(ctx, sessionUrl, qaclient.ReportFormat(*reportFormat))
		if err != nil {
			fatal("failed to download report", err)
		}
		if filename == "" {
			filename = fmt.Sprintf("report.%s", *reportFormat)
		}

		err = os.WriteFile(filename, content, 0644)
		if err != nil {
			fatal("failed to write report", err)
		}
		slog.Info("wrote report", "path", filename, "bytes", len(content))
	},
}
