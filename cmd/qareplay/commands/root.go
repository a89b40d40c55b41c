package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var debugHttp *bool

var rootCmd = &cobra.Command{
	Use:   "qareplay",
	Short: "qareplay replays historical QA sessions and compares old and new results.",
}

func init() {
	debugHttp = rootCmd.PersistentFlags().Bool("debug-http", false, "Dump every HTTP exchange to .dev/resty/qareplay.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}
