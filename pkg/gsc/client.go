package gsc

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

const (
	API_BASE   = "https://searchconsole.googleapis.com/webmasters/v3"
	USER_AGENT = "decayscope (+https://github.com/decayscope)"
)

// Client talks to the Search Console API with an OAuth2 bearer token.
// Token acquisition and refresh happen outside this package.
type Client struct {
	http    *retryablehttp.Client
	token   string
	baseURL string
}

// NewClient builds a client around the given access token. An optional
// proxy is applied to all outbound requests (useful for debugging).
func NewClient(token, proxy string) (*Client, error) {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = 5

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

	return &Client{http: retryClient, token: token, baseURL: API_BASE}, nil
}

// TokenFromFile extracts the access token from a token.json written by an
// external OAuth2 flow. Both the google-auth ("token") and the raw OAuth2
// ("access_token") field names are accepted.
func TokenFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	for _, key := range []string{"token", "access_token"} {
		if tok := gjson.GetBytes(data, key).Str; tok != "" {
			return tok, nil
		}
	}
	return "", fmt.Errorf("no access token found in %s", path)
}

func (c *Client) send(ctx context.Context, method, endpoint string, body []byte) (int, string, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return 0, "", err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", USER_AGENT)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(respBody), nil
}
