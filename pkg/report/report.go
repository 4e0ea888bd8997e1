// Package report renders decay reports for humans and exports. All
// formatting lives here; the engine only ever hands over raw numbers.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"decayscope/pkg/decay"
)

// FormatPct renders a percentage with one decimal, e.g. "-42.5%".
func FormatPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// FormatPosition renders an average position, or "-" when the URL had no
// data in that window (position 0 is "absent", not rank zero).
func FormatPosition(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}

// WriteTable prints the ranked decay records followed by the summary block.
func WriteTable(out io.Writer, rep decay.Report, windows decay.Windows, site string) {
	fmt.Fprintf(out, "Site:    %s\n", site)
	fmt.Fprintf(out, "Recent:  %s\n", windows.Recent)
	fmt.Fprintf(out, "Prior:   %s\n\n", windows.Prior)

	if rep.FlaggedURLs == 0 {
		fmt.Fprintf(out, "No decaying URLs found (%d analyzed).\n", rep.AnalyzedURLs)
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "URL\tCLICKS\tPRIOR\tDELTA\tDELTA%\tPOS\tPRIOR POS\tSCORE\t")
	for _, r := range rep.Records {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\t%s\t%.1f\t\n",
			r.URL, r.ClicksRecent, r.ClicksPast, r.ClickDelta,
			FormatPct(r.ClickPctChange),
			FormatPosition(r.PositionRecent), FormatPosition(r.PositionPast),
			r.DecayScore)
	}
	w.Flush()

	fmt.Fprintf(out, "\nURLs analyzed:       %d\n", rep.AnalyzedURLs)
	fmt.Fprintf(out, "URLs flagged:        %d\n", rep.FlaggedURLs)
	fmt.Fprintf(out, "Clicks lost:         %d\n", rep.ClicksLost)
	fmt.Fprintf(out, "Mean position delta: %.2f\n", rep.MeanPositionDelta)
}

var csvHeader = []string{
	"url",
	"clicks_recent", "clicks_past", "click_delta", "click_pct_change",
	"impressions_recent", "impressions_past", "impression_delta", "impression_pct_change",
	"position_recent", "position_past", "position_delta",
	"decay_score",
}

// WriteCSV exports the flagged records, one row per URL.
func WriteCSV(out io.Writer, rep decay.Report) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rep.Records {
		row := []string{
			r.URL,
			strconv.Itoa(r.ClicksRecent),
			strconv.Itoa(r.ClicksPast),
			strconv.Itoa(r.ClickDelta),
			strconv.FormatFloat(r.ClickPctChange, 'f', 2, 64),
			strconv.Itoa(r.ImpressionsRecent),
			strconv.Itoa(r.ImpressionsPast),
			strconv.Itoa(r.ImpressionDelta),
			strconv.FormatFloat(r.ImpressionPctChange, 'f', 2, 64),
			strconv.FormatFloat(r.PositionRecent, 'f', 2, 64),
			strconv.FormatFloat(r.PositionPast, 'f', 2, 64),
			strconv.FormatFloat(r.PositionDelta, 'f', 2, 64),
			strconv.FormatFloat(r.DecayScore, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
