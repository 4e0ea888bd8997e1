package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"decayscope/pkg/decay"
)

// windowsCmd prints the date windows an audit would compare, without
// touching the API. Handy for sanity-checking lag/offset overrides.
var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "Show the date windows an audit would compare",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := decay.WindowConfig{
			ReportLagDays:    viper.GetInt("audit.report_lag_days"),
			WindowLengthDays: viper.GetInt("audit.window_length_days"),
			YoYOffsetDays:    viper.GetInt("audit.yoy_offset_days"),
			YoYExtraLagDays:  viper.GetInt("audit.yoy_extra_lag_days"),
		}
		if cmd.Flags().Changed("lag") {
			cfg.ReportLagDays, _ = cmd.Flags().GetInt("lag")
		}
		if cmd.Flags().Changed("window") {
			cfg.WindowLengthDays, _ = cmd.Flags().GetInt("window")
		}
		if cmd.Flags().Changed("offset") {
			cfg.YoYOffsetDays, _ = cmd.Flags().GetInt("offset")
		}

		windows, err := cfg.Calculate(time.Now())
		if err != nil {
			return err
		}

		fmt.Printf("Recent window: %s\n", windows.Recent)
		fmt.Printf("Prior window:  %s\n", windows.Prior)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(windowsCmd)
	windowsCmd.Flags().Int("lag", 3, "Days of fresh data to skip (Search Console reporting delay)")
	windowsCmd.Flags().Int("window", 90, "Window length in days")
	windowsCmd.Flags().Int("offset", 365, "Year-over-year offset in days")
}
