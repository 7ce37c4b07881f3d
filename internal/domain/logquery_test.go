package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildLogFilterParsesBounds(t *testing.T) {
	filter := BuildLogFilter("u-1", "2020-03-01", "2020-12-31", "5")

	require.Equal(t, "u-1", filter.UserID)
	require.NotNil(t, filter.From)
	require.Equal(t, time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC), *filter.From)
	require.NotNil(t, filter.To)
	require.Equal(t, time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC), *filter.To)
	require.Equal(t, 5, filter.Limit)
}

func TestBuildLogFilterIgnoresInvalidDates(t *testing.T) {
	filter := BuildLogFilter("u-1", "not-a-date", "also bad", "")

	require.Nil(t, filter.From)
	require.Nil(t, filter.To)
	require.Zero(t, filter.Limit)
}

func TestBuildLogFilterLimitLeniency(t *testing.T) {
	cases := map[string]int{
		"":     0,
		"0":    0,
		"-3":   0,
		"two":  0,
		"2":    2,
		" 10 ": 10,
		"3.5":  0,
		"1e2":  0,
	}

	for raw, want := range cases {
		filter := BuildLogFilter("u-1", "", "", raw)
		require.Equal(t, want, filter.Limit, "limit=%q", raw)
	}
}

func TestParseDateAcceptsRFC3339(t *testing.T) {
	ts, ok := ParseDate("2021-01-01T10:30:00Z")
	require.True(t, ok)
	require.Equal(t, time.Date(2021, time.January, 1, 10, 30, 0, 0, time.UTC), ts)

	_, ok = ParseDate("")
	require.False(t, ok)
}
