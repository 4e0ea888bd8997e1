package decay

import (
	"errors"
	"testing"
	"time"
)

func date(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCalculateDefaultWindows(t *testing.T) {
	w, err := DefaultWindowConfig().Calculate(date("2026-08-23"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := w.Recent.EndDate(); got != "2026-08-20" {
		t.Errorf("recent end: want 2026-08-20, got %s", got)
	}
	if got := w.Recent.StartDate(); got != "2026-05-23" {
		t.Errorf("recent start: want 2026-05-23, got %s", got)
	}
	if got := w.Prior.EndDate(); got != "2025-08-20" {
		t.Errorf("prior end: want 2025-08-20, got %s", got)
	}
	if got := w.Prior.StartDate(); got != "2025-05-23" {
		t.Errorf("prior start: want 2025-05-23, got %s", got)
	}
}

func TestCalculateWindowLengthsMatch(t *testing.T) {
	cfg := WindowConfig{ReportLagDays: 1, WindowLengthDays: 28, YoYOffsetDays: 365, YoYExtraLagDays: 7}
	w, err := cfg.Calculate(date("2026-03-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recentLen := w.Recent.End.Sub(w.Recent.Start)
	priorLen := w.Prior.End.Sub(w.Prior.Start)
	if recentLen != priorLen {
		t.Fatalf("window lengths differ: recent %v, prior %v", recentLen, priorLen)
	}
	if days := int(recentLen.Hours()/24) + 1; days != 28 {
		t.Fatalf("expected 28-day windows, got %d", days)
	}
}

func TestCalculateExtraLagShiftsPriorWindow(t *testing.T) {
	base := WindowConfig{ReportLagDays: 1, WindowLengthDays: 30, YoYOffsetDays: 365}
	shifted := base
	shifted.YoYExtraLagDays = 10

	today := date("2026-06-15")
	w1, err := base.Calculate(today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w2, err := shifted.Calculate(today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w1.Recent != w2.Recent {
		t.Fatal("extra lag must not move the recent window")
	}
	if got := w1.Prior.End.Sub(w2.Prior.End); got != 10*24*time.Hour {
		t.Fatalf("expected prior end shifted back 10 days, got %v", got)
	}
}

func TestCalculateRejectsBadConfigs(t *testing.T) {
	today := date("2026-08-23")

	tests := []struct {
		name    string
		cfg     WindowConfig
		overlap bool
	}{
		{"zero length", WindowConfig{ReportLagDays: 1, WindowLengthDays: 0, YoYOffsetDays: 365}, false},
		{"negative length", WindowConfig{ReportLagDays: 1, WindowLengthDays: -5, YoYOffsetDays: 365}, false},
		{"negative lag", WindowConfig{ReportLagDays: -1, WindowLengthDays: 90, YoYOffsetDays: 365}, false},
		{"negative extra lag", WindowConfig{ReportLagDays: 1, WindowLengthDays: 90, YoYOffsetDays: 365, YoYExtraLagDays: -2}, false},
		{"offset shorter than window", WindowConfig{ReportLagDays: 1, WindowLengthDays: 90, YoYOffsetDays: 60}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Calculate(today)
			if err == nil {
				t.Fatal("expected an error, got none")
			}
			if tt.overlap && !errors.Is(err, ErrOverlappingWindows) {
				t.Fatalf("expected ErrOverlappingWindows, got %v", err)
			}
		})
	}
}

func TestCalculateOffsetEqualToWindowLengthIsAllowed(t *testing.T) {
	cfg := WindowConfig{ReportLagDays: 1, WindowLengthDays: 90, YoYOffsetDays: 90}
	w, err := cfg.Calculate(date("2026-08-23"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Prior.End.Before(w.Recent.Start) {
		t.Fatalf("windows touch or overlap: prior ends %s, recent starts %s",
			w.Prior.EndDate(), w.Recent.StartDate())
	}
}
