// Package inspect performs live checks against decayed URLs to surface
// the usual suspects: dead pages, accidental noindex, canonical swaps.
package inspect

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"
)

const (
	USER_AGENT = "Mozilla/5.0 (X11; Linux x86_64; rv:83.0) Gecko/20100101 Firefox/83.0"

	// maxBodyBytes caps how much HTML we parse per page.
	maxBodyBytes = 1 << 20
)

// Result summarizes one live check.
type Result struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Title      string `json:"title"`
	NoIndex    bool   `json:"noindex"`
	// Canonical is set when the page declares a canonical target other
	// than itself.
	Canonical string `json:"canonical,omitempty"`
}

// Inspector fetches pages with retries. It is safe for sequential reuse.
type Inspector struct {
	client *retryablehttp.Client
}

// New builds an inspector, optionally routed through a proxy.
func New(proxy string) (*Inspector, error) {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = 2

	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %v", err)
		}
		retryClient.HTTPClient.Transport = &http.Transport{
			Proxy:           http.ProxyURL(proxyURL),
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Inspector{client: retryClient}, nil
}

// Inspect fetches one page and reports its status, title and indexability
// signals. Non-2xx responses are results, not errors; only transport
// failures error out.
func (in *Inspector) Inspect(ctx context.Context, pageURL string) (Result, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", USER_AGENT)
	req.Header.Set("Accept-Language", "en")

	resp, err := in.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	res := Result{URL: pageURL, StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return res, nil
	}

	res.Title = htmlTitle(string(body))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return res, nil
	}

	robots, _ := doc.Find(`meta[name="robots"]`).Attr("content")
	res.NoIndex = strings.Contains(strings.ToLower(robots), "noindex")

	if canonical, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		if canonical != "" && canonical != pageURL {
			res.Canonical = canonical
		}
	}
	return res, nil
}

// htmlTitle extracts the first <title> text in document order.
func htmlTitle(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}
	title, _ := traverseTitle(doc)
	return strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
}

func traverseTitle(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil {
			return n.FirstChild.Data, true
		}
		return "", true
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result, ok := traverseTitle(c); ok {
			return result, ok
		}
	}
	return "", false
}
