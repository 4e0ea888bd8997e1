package report

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/weppos/publicsuffix-go/publicsuffix"

	"decayscope/pkg/decay"
)

// Section aggregates flagged records by host. For sc-domain properties a
// single audit spans subdomains, and knowing which section of the site is
// bleeding traffic is the first question anyway.
type Section struct {
	Host string
	// Label is the host part relative to the registrable domain, or
	// "apex" for the bare domain itself.
	Label      string
	URLs       int
	ClicksLost int
}

// Sections groups records by host, sorted by clicks lost (worst first).
func Sections(records []decay.Record) []Section {
	byHost := make(map[string]*Section)
	for _, r := range records {
		host := hostOf(r.URL)
		if host == "" {
			continue
		}
		s, ok := byHost[host]
		if !ok {
			s = &Section{Host: host, Label: sectionLabel(host)}
			byHost[host] = s
		}
		s.URLs++
		s.ClicksLost += r.ClickDelta
	}

	out := make([]Section, 0, len(byHost))
	for _, s := range byHost {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClicksLost != out[j].ClicksLost {
			return out[i].ClicksLost < out[j].ClicksLost
		}
		return out[i].Host < out[j].Host
	})
	return out
}

// WriteSections prints the per-host breakdown.
func WriteSections(out io.Writer, sections []Section) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HOST\tSECTION\tURLS\tCLICKS LOST\t")
	for _, s := range sections {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t\n", s.Host, s.Label, s.URLs, s.ClicksLost)
	}
	w.Flush()
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func sectionLabel(host string) string {
	domain, err := publicsuffix.Domain(host)
	if err != nil || domain == "" || domain == host {
		return "apex"
	}
	return strings.TrimSuffix(host, "."+domain)
}
