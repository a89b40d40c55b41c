package commands

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"qareplay/lib/qaclient"

	"github.com/antzucaro/matchr"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var resultsCsv *string

func init() {
	resultsCsv = resultsCmd.Flags().String("csv", "", "Write the results to this CSV file.")
	rootCmd.AddCommand(resultsCmd)
}

var resultsCmd = &cobra.Command{
	Use:   "results <unit name> <test name>",
	Short: "Prints every recorded result of one test on one unit, newest first.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		unitName, testName := args[0], args[1]
		client, _ := createClient(ctx)

		instances, err := client.TestResults(ctx, unitName, testName)
		if err != nil {
			fatal("failed to fetch test results", err)
		}
		if len(instances) == 0 {
			suggestUnit(cmd, client, unitName)
			return
		}

		if *resultsCsv != "" {
			err = writeResultsCsv(*resultsCsv, instances)
			if err != nil {
				fatal("failed to write csv", err)
			}
			slog.Info("wrote results csv", "path", *resultsCsv)
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Date", "Value"})
		for _, instance := range instances {
			t.AppendRow(table.Row{instance.WorkCompleted, instanceDisplayValue(instance)})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

// suggestUnit points out the closest known unit name when a filter
// matched nothing, since an exact-name filter is easy to typo.
func suggestUnit(cmd *cobra.Command, client *qaclient.Client, unitName string) {
	fmt.Println("No results found.")

	units, err := client.Units(cmd.Context())
	if err != nil || len(units) == 0 {
		return
	}

	best := units[0].Name
	bestScore := 0.0
	for _, unit := range units {
		score := matchr.JaroWinkler(unitName, unit.Name, false)
		if score > bestScore {
			bestScore = score
			best = unit.Name
		}
	}
	if best != unitName {
		fmt.Printf("Did you mean unit %q?\n", best)
	}
}

func instanceDisplayValue(instance qaclient.TestInstance) any {
	if instance.Value != nil {
		return *instance.Value
	}
	if instance.StringValue != "" {
		return instance.StringValue
	}
	if instance.DateValue != nil {
		return *instance.DateValue
	}
	if instance.DatetimeValue != nil {
		return *instance.DatetimeValue
	}
	return ""
}

func writeResultsCsv(path string, instances []qaclient.TestInstance) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, instance := range instances {
		err = w.Write([]string{instance.WorkCompleted, fmt.Sprint(instanceDisplayValue(instance))})
		if err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
