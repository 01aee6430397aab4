package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAt(t *testing.T) {
	now := time.Date(2025, 10, 29, 13, 0, 0, 0, time.UTC)

	ms, err := ParseAt("1h30m", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-90*time.Minute).UnixMilli(), ms)

	ms, err = ParseAt("2025-10-29T12:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-time.Hour).UnixMilli(), ms)

	_, err = ParseAt("", now)
	assert.Error(t, err)
	_, err = ParseAt("yesterday", now)
	assert.Error(t, err)
}

func TestParseRangeAt(t *testing.T) {
	now := time.Date(2025, 10, 29, 13, 0, 0, 0, time.UTC)

	since, until, err := ParseRangeAt("2h", "1h", now)
	require.NoError(t, err)
	assert.Less(t, since, until)

	since, until, err = ParseRangeAt("", "", now)
	require.NoError(t, err)
	assert.Zero(t, since)
	assert.Zero(t, until)

	_, _, err = ParseRangeAt("1h", "2h", now)
	assert.ErrorContains(t, err, "--since must be before --until")

	_, _, err = ParseRangeAt("bad", "", now)
	assert.ErrorContains(t, err, "invalid --since")
	_, _, err = ParseRangeAt("", "bad", now)
	assert.ErrorContains(t, err, "invalid --until")
}

func TestParseDays(t *testing.T) {
	tests := []struct {
		spec      string
		since     int
		until     int
		wantError bool
	}{
		{spec: "", since: 0, until: 0},
		{spec: "7", since: 7, until: 7},
		{spec: "3..9", since: 3, until: 9},
		{spec: "3..", since: 3, until: 0},
		{spec: "..9", since: 0, until: 9},
		{spec: "9..3", wantError: true},
		{spec: "0", wantError: true},
		{spec: "x..4", wantError: true},
		{spec: "2..y", wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			since, until, err := ParseDays(tt.spec)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.since, since)
			assert.Equal(t, tt.until, until)
		})
	}
}
