package inspect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newInspector(t *testing.T) *Inspector {
	t.Helper()
	in, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	in.client.RetryMax = 0
	return in
}

func TestInspectHealthyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<title>  Pricing Guide
			</title>
			<meta name="robots" content="index, follow">
		</head><body></body></html>`))
	}))
	defer srv.Close()

	res, err := newInspector(t).Inspect(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != 200 {
		t.Errorf("status: want 200, got %d", res.StatusCode)
	}
	if res.Title != "Pricing Guide" {
		t.Errorf("title: want %q, got %q", "Pricing Guide", res.Title)
	}
	if res.NoIndex {
		t.Error("page is indexable, NoIndex must be false")
	}
	if res.Canonical != "" {
		t.Errorf("no canonical declared, got %q", res.Canonical)
	}
}

func TestInspectPrefersHeadTitleOverSVGLabel(t *testing.T) {
	// Inline SVGs carry their own <title> elements; the page title in
	// <head> comes first in document order and must win.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<title>Pricing Guide</title>
		</head><body>
			<svg viewBox="0 0 24 24"><title>cart icon</title></svg>
		</body></html>`))
	}))
	defer srv.Close()

	res, err := newInspector(t).Inspect(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "Pricing Guide" {
		t.Errorf("title: want %q, got %q", "Pricing Guide", res.Title)
	}
}

func TestInspectNoIndexAndCanonical(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<title>Old Post</title>
			<meta name="robots" content="NOINDEX, nofollow">
			<link rel="canonical" href="https://example.com/new-post">
		</head></html>`))
	}))
	defer srv.Close()

	res, err := newInspector(t).Inspect(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if !res.NoIndex {
		t.Error("expected NoIndex to be detected (case-insensitive)")
	}
	if res.Canonical != "https://example.com/new-post" {
		t.Errorf("canonical: got %q", res.Canonical)
	}
}

func TestInspectDeadPageIsAResultNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	res, err := newInspector(t).Inspect(context.Background(), srv.URL+"/gone")
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != 404 {
		t.Fatalf("status: want 404, got %d", res.StatusCode)
	}
}
