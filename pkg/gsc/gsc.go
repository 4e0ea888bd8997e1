package gsc

import (
	"context"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"decayscope/pkg/metrics"
)

const (
	dateLayout = "2006-01-02"

	// ROW_LIMIT is the maximum page size the Search Analytics API accepts.
	ROW_LIMIT = 25000
)

// Site is one Search Console property visible to the token.
type Site struct {
	URL             string `json:"url"`
	PermissionLevel string `json:"permission_level"`
}

// HasFullAccess reports whether the property can actually be audited.
// Restricted users get heavily sampled data.
func (s Site) HasFullAccess() bool {
	return s.PermissionLevel == "siteOwner" || s.PermissionLevel == "siteFullUser"
}

// ListSites returns every property the token can see.
func (c *Client) ListSites(ctx context.Context) ([]Site, error) {
	status, body, err := c.send(ctx, "GET", "/sites", nil)
	if err != nil {
		return nil, &FetchError{Op: "list sites", Err: err}
	}
	if status != 200 {
		return nil, &FetchError{Op: "list sites", StatusCode: status}
	}

	var sites []Site
	for _, entry := range gjson.Get(body, "siteEntry").Array() {
		sites = append(sites, Site{
			URL:             gjson.Get(entry.Raw, "siteUrl").Str,
			PermissionLevel: gjson.Get(entry.Raw, "permissionLevel").Str,
		})
	}
	return sites, nil
}

const analyticsQuery = `{"startDate":"","endDate":"","dimensions":["page"],"rowLimit":0,"startRow":0}`

// FetchSearchAnalytics returns per-page metrics for one site and date
// range (both ends inclusive). Large properties are paged transparently.
// On failure the returned set is empty and the error must be surfaced to
// the caller, never papered over.
func (c *Client) FetchSearchAnalytics(ctx context.Context, site string, start, end time.Time) (metrics.Set, error) {
	endpoint := "/sites/" + url.PathEscape(site) + "/searchAnalytics/query"

	query, _ := sjson.Set(analyticsQuery, "startDate", start.Format(dateLayout))
	query, _ = sjson.Set(query, "endDate", end.Format(dateLayout))
	query, _ = sjson.Set(query, "rowLimit", ROW_LIMIT)

	var set metrics.Set
	startRow := 0
	for {
		pageQuery, _ := sjson.Set(query, "startRow", startRow)

		status, body, err := c.send(ctx, "POST", endpoint, []byte(pageQuery))
		if err != nil {
			return nil, &FetchError{Site: site, Op: "search analytics query", Err: err}
		}
		if status != 200 {
			return nil, &FetchError{Site: site, Op: "search analytics query", StatusCode: status}
		}

		rows := gjson.Get(body, "rows").Array()
		for _, row := range rows {
			set = append(set, metrics.Row{
				URL:         gjson.Get(row.Raw, "keys.0").Str,
				Clicks:      int(gjson.Get(row.Raw, "clicks").Int()),
				Impressions: int(gjson.Get(row.Raw, "impressions").Int()),
				CTR:         gjson.Get(row.Raw, "ctr").Float(),
				Position:    gjson.Get(row.Raw, "position").Float(),
			})
		}

		// A short page means we've drained the property.
		if len(rows) < ROW_LIMIT {
			break
		}
		startRow += ROW_LIMIT
	}
	return set, nil
}
