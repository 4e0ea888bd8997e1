package decay

import (
	"errors"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ErrOverlappingWindows is returned when the year-over-year offset is too
// small to keep the comparison window clear of the recent one.
var ErrOverlappingWindows = errors.New("comparison window overlaps the recent window")

// WindowConfig controls how the two audit windows are derived from "today".
type WindowConfig struct {
	// ReportLagDays skips the most recent days, where Search Console data
	// is still incomplete.
	ReportLagDays int
	// WindowLengthDays is the length of both windows, inclusive of both ends.
	WindowLengthDays int
	// YoYOffsetDays is how far back the comparison window sits.
	YoYOffsetDays int
	// YoYExtraLagDays shifts the whole comparison window further back,
	// keeping both windows the same length.
	YoYExtraLagDays int
}

// DefaultWindowConfig compares the last 90 full days against the same
// calendar window one year earlier.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		ReportLagDays:    3,
		WindowLengthDays: 90,
		YoYOffsetDays:    365,
	}
}

// Window is an inclusive date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// StartDate returns the window start formatted for the Search Console API.
func (w Window) StartDate() string { return w.Start.Format(dateLayout) }

// EndDate returns the window end formatted for the Search Console API.
func (w Window) EndDate() string { return w.End.Format(dateLayout) }

func (w Window) String() string {
	return w.StartDate() + " to " + w.EndDate()
}

// Windows holds the two ranges an audit compares.
type Windows struct {
	Recent Window
	Prior  Window
}

// Calculate derives the recent and comparison windows from today.
// It has no side effects and rejects configurations that would produce
// empty or overlapping windows.
func (c WindowConfig) Calculate(today time.Time) (Windows, error) {
	if c.WindowLengthDays <= 0 {
		return Windows{}, fmt.Errorf("window length must be positive, got %d", c.WindowLengthDays)
	}
	if c.ReportLagDays < 0 {
		return Windows{}, fmt.Errorf("report lag must not be negative, got %d", c.ReportLagDays)
	}
	if c.YoYExtraLagDays < 0 {
		return Windows{}, fmt.Errorf("extra comparison lag must not be negative, got %d", c.YoYExtraLagDays)
	}
	if c.YoYOffsetDays+c.YoYExtraLagDays < c.WindowLengthDays {
		return Windows{}, fmt.Errorf("%w: offset %d days < window length %d days",
			ErrOverlappingWindows, c.YoYOffsetDays+c.YoYExtraLagDays, c.WindowLengthDays)
	}

	recentEnd := today.AddDate(0, 0, -c.ReportLagDays)
	recentStart := recentEnd.AddDate(0, 0, -(c.WindowLengthDays - 1))

	shift := c.YoYOffsetDays + c.YoYExtraLagDays
	return Windows{
		Recent: Window{Start: recentStart, End: recentEnd},
		Prior: Window{
			Start: recentStart.AddDate(0, 0, -shift),
			End:   recentEnd.AddDate(0, 0, -shift),
		},
	}, nil
}
