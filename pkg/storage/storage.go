// Package storage persists audit runs so they can be compared, re-exported
// and served later. The engine itself never touches it.
package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"decayscope/pkg/decay"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS audit_runs (
  id                  INTEGER PRIMARY KEY,
  site                TEXT NOT NULL,
  recent_start        TEXT NOT NULL,
  recent_end          TEXT NOT NULL,
  prior_start         TEXT NOT NULL,
  prior_end           TEXT NOT NULL,
  analyzed_urls       INTEGER NOT NULL,
  flagged_urls        INTEGER NOT NULL,
  clicks_lost         INTEGER NOT NULL,
  mean_position_delta REAL NOT NULL,
  created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_site ON audit_runs(site, created_at);
CREATE TABLE IF NOT EXISTS decay_records (
  id                    INTEGER PRIMARY KEY,
  run_id                INTEGER NOT NULL REFERENCES audit_runs(id),
  url                   TEXT NOT NULL,
  clicks_recent         INTEGER NOT NULL,
  clicks_past           INTEGER NOT NULL,
  impressions_recent    INTEGER NOT NULL,
  impressions_past      INTEGER NOT NULL,
  position_recent       REAL NOT NULL,
  position_past         REAL NOT NULL,
  click_delta           INTEGER NOT NULL,
  click_pct_change      REAL NOT NULL,
  impression_delta      INTEGER NOT NULL,
  impression_pct_change REAL NOT NULL,
  position_delta        REAL NOT NULL,
  decay_score           REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_run ON decay_records(run_id);
	`); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Run is one stored audit: the windows it compared plus its summary.
type Run struct {
	ID          int64  `json:"id"`
	Site        string `json:"site"`
	RecentStart string `json:"recent_start"`
	RecentEnd   string `json:"recent_end"`
	PriorStart  string `json:"prior_start"`
	PriorEnd    string `json:"prior_end"`

	AnalyzedURLs      int     `json:"analyzed_urls"`
	FlaggedURLs       int     `json:"flagged_urls"`
	ClicksLost        int     `json:"clicks_lost"`
	MeanPositionDelta float64 `json:"mean_position_delta"`

	CreatedAt time.Time `json:"created_at"`
}

// SaveRun stores one audit run and its flagged records atomically and
// returns the new run id.
func (d *DB) SaveRun(ctx context.Context, run Run, records []decay.Record) (int64, error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO audit_runs(site, recent_start, recent_end, prior_start, prior_end, analyzed_urls, flagged_urls, clicks_lost, mean_position_delta) VALUES(?,?,?,?,?,?,?,?,?)`,
		run.Site, run.RecentStart, run.RecentEnd, run.PriorStart, run.PriorEnd,
		run.AnalyzedURLs, run.FlaggedURLs, run.ClicksLost, run.MeanPositionDelta)
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, r := range records {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO decay_records(run_id, url, clicks_recent, clicks_past, impressions_recent, impressions_past, position_recent, position_past, click_delta, click_pct_change, impression_delta, impression_pct_change, position_delta, decay_score) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			runID, r.URL, r.ClicksRecent, r.ClicksPast, r.ImpressionsRecent, r.ImpressionsPast,
			r.PositionRecent, r.PositionPast, r.ClickDelta, r.ClickPctChange,
			r.ImpressionDelta, r.ImpressionPctChange, r.PositionDelta, r.DecayScore)
		if err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, site, recent_start, recent_end, prior_start, prior_end, analyzed_urls, flagged_urls, clicks_lost, mean_position_delta, created_at FROM audit_runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Site, &r.RecentStart, &r.RecentEnd, &r.PriorStart, &r.PriorEnd,
			&r.AnalyzedURLs, &r.FlaggedURLs, &r.ClicksLost, &r.MeanPositionDelta, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = parseSQLiteTime(createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunRecords returns the stored records of one run in their ranked order.
func (d *DB) GetRunRecords(ctx context.Context, runID int64) ([]decay.Record, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT url, clicks_recent, clicks_past, impressions_recent, impressions_past, position_recent, position_past, click_delta, click_pct_change, impression_delta, impression_pct_change, position_delta, decay_score FROM decay_records WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []decay.Record
	for rows.Next() {
		var r decay.Record
		if err := rows.Scan(&r.URL, &r.ClicksRecent, &r.ClicksPast, &r.ImpressionsRecent, &r.ImpressionsPast,
			&r.PositionRecent, &r.PositionPast, &r.ClickDelta, &r.ClickPctChange,
			&r.ImpressionDelta, &r.ImpressionPctChange, &r.PositionDelta, &r.DecayScore); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// SiteStats summarizes stored runs per site.
type SiteStats struct {
	Site      string    `json:"site"`
	RunCount  int       `json:"run_count"`
	LastRunAt time.Time `json:"last_run_at"`
}

func (d *DB) GetSiteStats(ctx context.Context) ([]SiteStats, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT site, COUNT(*), MAX(created_at) FROM audit_runs GROUP BY site ORDER BY site`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []SiteStats
	for rows.Next() {
		var s SiteStats
		var last string
		if err := rows.Scan(&s.Site, &s.RunCount, &last); err != nil {
			return nil, err
		}
		s.LastRunAt = parseSQLiteTime(last)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// parseSQLiteTime handles both CURRENT_TIMESTAMP and RFC3339 encodings.
func parseSQLiteTime(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
