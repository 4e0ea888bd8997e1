package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"decayscope/internal/utils"
	"decayscope/pkg/decay"
	"decayscope/pkg/gsc"
	"decayscope/pkg/inspect"
	"decayscope/pkg/metrics"
	"decayscope/pkg/report"
	"decayscope/pkg/storage"
)

// auditCmd runs the full pipeline: windows -> two fetches -> decay engine
// -> ranked report.
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit a property for content decay",
	Long: `Fetches per-page search analytics for two year-over-year windows and
ranks the URLs whose click traffic decayed past the configured thresholds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		site, _ := cmd.Flags().GetString("site")
		if site == "" {
			return fmt.Errorf("please provide a property to audit (-s flag), e.g. sc-domain:example.com")
		}

		proxy, _ := rootCmd.PersistentFlags().GetString("proxy")
		allowPartial, _ := cmd.Flags().GetBool("allow-partial")
		csvPath, _ := cmd.Flags().GetString("csv")
		sections, _ := cmd.Flags().GetBool("sections")
		inspectTop, _ := cmd.Flags().GetInt("inspect")
		useDB, _ := cmd.Flags().GetBool("db")
		dbPath, _ := cmd.Flags().GetString("dbpath")
		if dbPath == "" {
			dbPath = "decayscope.sqlite"
		}

		windowCfg := decay.WindowConfig{
			ReportLagDays:    viper.GetInt("audit.report_lag_days"),
			WindowLengthDays: viper.GetInt("audit.window_length_days"),
			YoYOffsetDays:    viper.GetInt("audit.yoy_offset_days"),
			YoYExtraLagDays:  viper.GetInt("audit.yoy_extra_lag_days"),
		}
		if cmd.Flags().Changed("lag") {
			windowCfg.ReportLagDays, _ = cmd.Flags().GetInt("lag")
		}
		if cmd.Flags().Changed("window") {
			windowCfg.WindowLengthDays, _ = cmd.Flags().GetInt("window")
		}
		if cmd.Flags().Changed("offset") {
			windowCfg.YoYOffsetDays, _ = cmd.Flags().GetInt("offset")
		}

		thresholds := decay.Thresholds{
			MinClickLoss:  viper.GetInt("audit.min_click_loss"),
			MinPctDecline: viper.GetFloat64("audit.min_pct_decline"),
		}
		if cmd.Flags().Changed("min-click-loss") {
			thresholds.MinClickLoss, _ = cmd.Flags().GetInt("min-click-loss")
		}
		if cmd.Flags().Changed("min-pct-decline") {
			thresholds.MinPctDecline, _ = cmd.Flags().GetFloat64("min-pct-decline")
		}

		weights := decay.Weights{
			Clicks:   viper.GetFloat64("audit.click_weight"),
			Position: viper.GetFloat64("audit.position_weight"),
		}

		// Bad window parameters are rejected before any fetch happens.
		windows, err := windowCfg.Calculate(time.Now())
		if err != nil {
			return err
		}

		token, err := accessToken()
		if err != nil {
			return err
		}
		client, err := gsc.NewClient(token, proxy)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		recentSet, priorSet, err := fetchBothWindows(ctx, client, site, windows, allowPartial)
		if err != nil {
			return err
		}

		utils.Log.Debugf("Recent window: %d URLs, %d clicks, %d impressions",
			len(recentSet), recentSet.TotalClicks(), recentSet.TotalImpressions())
		utils.Log.Debugf("Prior window: %d URLs, %d clicks, %d impressions",
			len(priorSet), priorSet.TotalClicks(), priorSet.TotalImpressions())

		if len(recentSet) == 0 && len(priorSet) == 0 {
			utils.Log.Info("No data available for either window; nothing to compare.")
		}

		rep := decay.FilterAndRank(decay.Join(recentSet, priorSet, weights), thresholds)
		report.WriteTable(os.Stdout, rep, windows, site)

		if sections && rep.FlaggedURLs > 0 {
			fmt.Println()
			report.WriteSections(os.Stdout, report.Sections(rep.Records))
		}

		if csvPath != "" {
			if err := exportCSV(csvPath, rep); err != nil {
				return err
			}
			utils.Log.Info("CSV report written to ", csvPath)
		}

		if useDB {
			db, err := storage.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			runID, err := db.SaveRun(ctx, storage.Run{
				Site:              site,
				RecentStart:       windows.Recent.StartDate(),
				RecentEnd:         windows.Recent.EndDate(),
				PriorStart:        windows.Prior.StartDate(),
				PriorEnd:          windows.Prior.EndDate(),
				AnalyzedURLs:      rep.AnalyzedURLs,
				FlaggedURLs:       rep.FlaggedURLs,
				ClicksLost:        rep.ClicksLost,
				MeanPositionDelta: rep.MeanPositionDelta,
			}, rep.Records)
			if err != nil {
				return err
			}
			utils.Log.Info("Saved audit run #", runID, " to ", dbPath)
		}

		if inspectTop > 0 {
			inspectFlagged(ctx, rep, inspectTop, proxy)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringP("site", "s", "", "Property to audit, e.g. sc-domain:example.com or https://example.com/")
	auditCmd.Flags().Int("lag", 3, "Days of fresh data to skip (Search Console reporting delay)")
	auditCmd.Flags().Int("window", 90, "Window length in days")
	auditCmd.Flags().Int("offset", 365, "Year-over-year offset in days")
	auditCmd.Flags().Int("min-click-loss", 10, "Minimum absolute click loss to flag a URL")
	auditCmd.Flags().Float64("min-pct-decline", 20, "Minimum click decline percentage to flag a URL")
	auditCmd.Flags().Bool("allow-partial", false, "Continue with an empty window when one fetch fails")
	auditCmd.Flags().String("csv", "", "Write the flagged records to this CSV file")
	auditCmd.Flags().Bool("sections", false, "Print a per-host breakdown of the flagged URLs")
	auditCmd.Flags().Int("inspect", 0, "Live-check the top N flagged URLs (status, title, noindex)")
	auditCmd.Flags().Bool("db", false, "Save the run to the database")
	auditCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: decayscope.sqlite in CWD)")
}

// fetchBothWindows issues the two independent queries concurrently. The
// engine only starts once both sets are materialized.
func fetchBothWindows(ctx context.Context, client *gsc.Client, site string, windows decay.Windows, allowPartial bool) (metrics.Set, metrics.Set, error) {
	var (
		wg                  sync.WaitGroup
		recentSet, priorSet metrics.Set
		recentErr, priorErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		recentSet, recentErr = client.FetchSearchAnalytics(ctx, site, windows.Recent.Start, windows.Recent.End)
	}()
	go func() {
		defer wg.Done()
		priorSet, priorErr = client.FetchSearchAnalytics(ctx, site, windows.Prior.Start, windows.Prior.End)
	}()
	wg.Wait()

	for _, fetchErr := range []error{recentErr, priorErr} {
		if fetchErr == nil {
			continue
		}
		if !allowPartial {
			return nil, nil, fetchErr
		}
		utils.Log.Warn("Continuing with a partial result: ", fetchErr)
	}
	return recentSet, priorSet, nil
}

func exportCSV(path string, rep decay.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return report.WriteCSV(f, rep)
}

func inspectFlagged(ctx context.Context, rep decay.Report, top int, proxy string) {
	inspector, err := inspect.New(proxy)
	if err != nil {
		utils.Log.Warn("Inspection skipped: ", err)
		return
	}

	if top > len(rep.Records) {
		top = len(rep.Records)
	}

	fmt.Println()
	for _, r := range rep.Records[:top] {
		res, err := inspector.Inspect(ctx, r.URL)
		if err != nil {
			utils.Log.Warnf("Could not inspect %s: %v", r.URL, err)
			continue
		}

		line := fmt.Sprintf("[%d] %s", res.StatusCode, res.URL)
		if res.Title != "" {
			line += "  " + res.Title
		}
		if res.NoIndex {
			line += "  [noindex]"
		}
		if res.Canonical != "" {
			line += "  canonical=" + res.Canonical
		}
		fmt.Println(line)
	}
}
