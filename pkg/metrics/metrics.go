package metrics

// Row holds one URL's aggregated search metrics for a single date window.
type Row struct {
	URL         string
	Clicks      int
	Impressions int
	CTR         float64
	Position    float64
}

// Set is the complete per-URL snapshot returned for one (site, date range)
// query. URLs are unique within a set; row order follows the API response.
type Set []Row

// ByURL indexes the set by URL for joining against another window.
func (s Set) ByURL() map[string]Row {
	m := make(map[string]Row, len(s))
	for _, r := range s {
		m[r.URL] = r
	}
	return m
}

// TotalClicks sums clicks across all rows.
func (s Set) TotalClicks() int {
	total := 0
	for _, r := range s {
		total += r.Clicks
	}
	return total
}

// TotalImpressions sums impressions across all rows.
func (s Set) TotalImpressions() int {
	total := 0
	for _, r := range s {
		total += r.Impressions
	}
	return total
}
