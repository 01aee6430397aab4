// Package timespec parses the --since/--until and --days flags used to
// select recorded rounds.
package timespec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse parses a time specification into Unix milliseconds, relative to
// the current time. See ParseAt.
func Parse(spec string) (int64, error) {
	return ParseAt(spec, time.Now())
}

// ParseAt accepts a Go duration ("90s", "1h30m"), meaning that long before
// now, or an RFC3339 timestamp.
func ParseAt(spec string, now time.Time) (int64, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty time specification")
	}
	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t.UnixMilli(), nil
	}
	if d, err := time.ParseDuration(spec); err == nil {
		return now.Add(-d).UnixMilli(), nil
	}
	return 0, fmt.Errorf("invalid time specification: %s (use duration like '1h30m' or RFC3339 like '2025-10-29T13:00:00Z')", spec)
}

// ParseRange parses --since and --until. Zero means unbounded. since must
// be before until when both are given.
func ParseRange(since, until string) (int64, int64, error) {
	return ParseRangeAt(since, until, time.Now())
}

// ParseRangeAt is ParseRange relative to now.
func ParseRangeAt(since, until string, now time.Time) (int64, int64, error) {
	var sinceMS, untilMS int64
	var err error

	if since != "" {
		if sinceMS, err = ParseAt(since, now); err != nil {
			return 0, 0, fmt.Errorf("invalid --since: %w", err)
		}
	}
	if until != "" {
		if untilMS, err = ParseAt(until, now); err != nil {
			return 0, 0, fmt.Errorf("invalid --until: %w", err)
		}
	}
	if sinceMS > 0 && untilMS > 0 && sinceMS >= untilMS {
		return 0, 0, fmt.Errorf("--since must be before --until")
	}
	return sinceMS, untilMS, nil
}

// ParseDays parses a day range: "N" (one day), "N..M", "N.." or "..M".
// Days are 1-based; an open upper end is returned as 0.
func ParseDays(spec string) (since, until int, err error) {
	if spec == "" {
		return 0, 0, nil
	}
	lo, hi, isRange := strings.Cut(spec, "..")
	if !isRange {
		day, err := parseDay(spec)
		if err != nil {
			return 0, 0, err
		}
		return day, day, nil
	}

	if lo != "" {
		if since, err = parseDay(lo); err != nil {
			return 0, 0, err
		}
	}
	if hi != "" {
		if until, err = parseDay(hi); err != nil {
			return 0, 0, err
		}
	}
	if until > 0 && since > until {
		return 0, 0, fmt.Errorf("invalid day range %s: start is after end", spec)
	}
	return since, until, nil
}

func parseDay(s string) (int, error) {
	day, err := strconv.Atoi(s)
	if err != nil || day < 1 {
		return 0, fmt.Errorf("invalid day %q (days start at 1)", s)
	}
	return day, nil
}
