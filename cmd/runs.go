package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"decayscope/pkg/decay"
	"decayscope/pkg/report"
	"decayscope/pkg/storage"
)

// runsCmd browses audit runs saved with `audit --db`.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored audit runs, or dump one run's records",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("dbpath")
		if dbPath == "" {
			dbPath = "decayscope.sqlite"
		}
		limit, _ := cmd.Flags().GetInt("limit")
		runID, _ := cmd.Flags().GetInt64("id")
		csvPath, _ := cmd.Flags().GetString("csv")

		db, err := storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()

		if runID > 0 {
			records, err := db.GetRunRecords(ctx, runID)
			if err != nil {
				return err
			}
			rep := decay.Report{Records: records, FlaggedURLs: len(records)}
			if csvPath != "" {
				if err := exportCSV(csvPath, rep); err != nil {
					return err
				}
				fmt.Printf("CSV written to %s\n", csvPath)
				return nil
			}
			return printStoredRecords(records)
		}

		runs, err := db.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No stored runs.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSITE\tRECENT\tPRIOR\tANALYZED\tFLAGGED\tCLICKS LOST\tWHEN")
		for _, r := range runs {
			fmt.Fprintf(w, "%d\t%s\t%s..%s\t%s..%s\t%d\t%d\t%d\t%s\n",
				r.ID, r.Site,
				r.RecentStart, r.RecentEnd, r.PriorStart, r.PriorEnd,
				r.AnalyzedURLs, r.FlaggedURLs, r.ClicksLost,
				r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func printStoredRecords(records []decay.Record) error {
	if len(records) == 0 {
		fmt.Println("Run has no flagged records.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "URL\tCLICKS\tPRIOR\tDELTA\tDELTA%\tPOS\tPRIOR POS\tSCORE")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\t%s\t%.1f\n",
			r.URL, r.ClicksRecent, r.ClicksPast, r.ClickDelta,
			report.FormatPct(r.ClickPctChange),
			report.FormatPosition(r.PositionRecent), report.FormatPosition(r.PositionPast),
			r.DecayScore)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: decayscope.sqlite in CWD)")
	runsCmd.Flags().Int("limit", 0, "Maximum number of runs to list")
	runsCmd.Flags().Int64("id", 0, "Dump the records of this run instead of listing runs")
	runsCmd.Flags().String("csv", "", "With --id, write the records to this CSV file")
}
