package decay

import (
	"sort"

	"decayscope/pkg/metrics"
)

// Weights control the linear blend behind the decay score.
type Weights struct {
	Clicks   float64
	Position float64
}

// DefaultWeights favor raw click loss over rank movement.
func DefaultWeights() Weights {
	return Weights{Clicks: 0.7, Position: 0.3}
}

// Thresholds decide which records make it into the final report.
type Thresholds struct {
	// MinClickLoss is the minimum absolute click drop.
	MinClickLoss int
	// MinPctDecline is the minimum relative click drop, in percent.
	MinPctDecline float64
}

// DefaultThresholds flag pages that lost at least 10 clicks and at least
// 20% of their baseline traffic.
func DefaultThresholds() Thresholds {
	return Thresholds{MinClickLoss: 10, MinPctDecline: 20}
}

// Record compares one URL across the two audit windows.
// A position of 0 means the URL had no data in that window, not rank zero.
type Record struct {
	URL string `json:"url"`

	ClicksRecent      int     `json:"clicks_recent"`
	ClicksPast        int     `json:"clicks_past"`
	ImpressionsRecent int     `json:"impressions_recent"`
	ImpressionsPast   int     `json:"impressions_past"`
	PositionRecent    float64 `json:"position_recent"`
	PositionPast      float64 `json:"position_past"`

	ClickDelta          int     `json:"click_delta"`
	ClickPctChange      float64 `json:"click_pct_change"`
	ImpressionDelta     int     `json:"impression_delta"`
	ImpressionPctChange float64 `json:"impression_pct_change"`
	// PositionDelta is positive when the average rank worsened.
	PositionDelta float64 `json:"position_delta"`
	DecayScore    float64 `json:"decay_score"`
}

// Report is the filtered, ranked output of one audit run. It is built once
// and never mutated afterwards.
type Report struct {
	Records []Record

	// AnalyzedURLs counts every URL seen in either window.
	AnalyzedURLs int
	// FlaggedURLs counts the retained records.
	FlaggedURLs int
	// ClicksLost is the sum of click deltas over retained records.
	ClicksLost int
	// MeanPositionDelta averages rank movement over retained records.
	MeanPositionDelta float64
}

// Join builds one Record per URL appearing in either window (outer union,
// so pages that vanished entirely stay visible). Metrics missing on one
// side default to zero. The result is sorted by URL so identical inputs
// always produce identical output.
func Join(recent, past metrics.Set, w Weights) []Record {
	recentByURL := recent.ByURL()
	pastByURL := past.ByURL()

	urls := make([]string, 0, len(recentByURL)+len(pastByURL))
	for u := range recentByURL {
		urls = append(urls, u)
	}
	for u := range pastByURL {
		if _, ok := recentByURL[u]; !ok {
			urls = append(urls, u)
		}
	}
	sort.Strings(urls)

	records := make([]Record, 0, len(urls))
	for _, u := range urls {
		cur := recentByURL[u]
		prev := pastByURL[u]

		r := Record{
			URL:               u,
			ClicksRecent:      cur.Clicks,
			ClicksPast:        prev.Clicks,
			ImpressionsRecent: cur.Impressions,
			ImpressionsPast:   prev.Impressions,
			PositionRecent:    cur.Position,
			PositionPast:      prev.Position,
		}
		r.ClickDelta = r.ClicksRecent - r.ClicksPast
		r.ClickPctChange = pctChange(r.ClickDelta, r.ClicksPast)
		r.ImpressionDelta = r.ImpressionsRecent - r.ImpressionsPast
		r.ImpressionPctChange = pctChange(r.ImpressionDelta, r.ImpressionsPast)
		r.PositionDelta = r.PositionRecent - r.PositionPast
		r.DecayScore = abs(float64(r.ClickDelta))*w.Clicks + r.PositionDelta*w.Position

		records = append(records, r)
	}
	return records
}

// pctChange reports zero on a zero baseline. A page with no prior traffic
// cannot decay, so new pages stay at 0% instead of blowing up the ranking.
func pctChange(delta, base int) float64 {
	if base == 0 {
		return 0
	}
	return float64(delta) / float64(base) * 100
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// FilterAndRank keeps records that cleared both decline thresholds and had
// a prior-period baseline, sorts them by decay score (ties: bigger click
// loss first, then URL), and computes the summary aggregates.
func FilterAndRank(records []Record, th Thresholds) Report {
	rep := Report{AnalyzedURLs: len(records)}

	var kept []Record
	for _, r := range records {
		if r.ClicksPast <= 0 {
			continue
		}
		if r.ClickDelta > -th.MinClickLoss {
			continue
		}
		if r.ClickPctChange > -th.MinPctDecline {
			continue
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].DecayScore != kept[j].DecayScore {
			return kept[i].DecayScore > kept[j].DecayScore
		}
		if kept[i].ClickDelta != kept[j].ClickDelta {
			return kept[i].ClickDelta < kept[j].ClickDelta
		}
		return kept[i].URL < kept[j].URL
	})

	rep.Records = kept
	rep.FlaggedURLs = len(kept)
	for _, r := range kept {
		rep.ClicksLost += r.ClickDelta
		rep.MeanPositionDelta += r.PositionDelta
	}
	if len(kept) > 0 {
		rep.MeanPositionDelta /= float64(len(kept))
	}
	return rep
}
