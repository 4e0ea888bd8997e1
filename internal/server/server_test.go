package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"decayscope/pkg/storage"
)

func testServer(t *testing.T, user, pass string) *httptest.Server {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "decayscope.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.SaveRun(context.Background(), storage.Run{
		Site:        "sc-domain:example.com",
		RecentStart: "2026-05-23", RecentEnd: "2026-08-20",
		PriorStart: "2025-05-23", PriorEnd: "2025-08-20",
		FlaggedURLs: 2,
	}, nil); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(New(db, user, pass).handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestServerOpenWhenNoCredsConfigured(t *testing.T) {
	srv := testServer(t, "", "")

	resp, err := http.Get(srv.URL + "/api/runs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status: want 200, got %d", resp.StatusCode)
	}
	var runs []storage.Run
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Site != "sc-domain:example.com" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestServerRejectsBadCreds(t *testing.T) {
	srv := testServer(t, "admin", "hunter2")

	for _, tt := range []struct {
		name       string
		user, pass string
		withAuth   bool
	}{
		{"no credentials", "", "", false},
		{"wrong password", "admin", "wrong", true},
		{"wrong user", "guest", "hunter2", true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", srv.URL+"/api/runs", nil)
			if tt.withAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()

			if resp.StatusCode != 401 {
				t.Fatalf("status: want 401, got %d", resp.StatusCode)
			}
			if resp.Header.Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate header")
			}
		})
	}
}

func TestServerAcceptsGoodCreds(t *testing.T) {
	srv := testServer(t, "admin", "hunter2")

	req, _ := http.NewRequest("GET", srv.URL+"/api/stats", nil)
	req.SetBasicAuth("admin", "hunter2")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status: want 200, got %d", resp.StatusCode)
	}
	var stats []storage.SiteStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 || stats[0].RunCount != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestServerRejectsMissingRunParam(t *testing.T) {
	srv := testServer(t, "", "")

	resp, err := http.Get(srv.URL + "/api/records")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != 400 {
		t.Fatalf("status: want 400, got %d", resp.StatusCode)
	}
}
