package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDateRange_ToDateDayIncluded(t *testing.T) {
	from, to, err := ParseDateRange("2026-04-01", "2026-04-30")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), *from)
	// April 30 belongs to the range: the exclusive bound is May 1.
	require.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), *to)
}

func TestParseDateRange_SingleDay(t *testing.T) {
	from, to, err := ParseDateRange("2026-04-15", "2026-04-15")
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, to.Sub(*from))
}

func TestParseDateRange_Invalid(t *testing.T) {
	_, _, err := ParseDateRange("2026-04-15", "2026-04-14")
	require.Error(t, err)

	_, _, err = ParseDateRange("15-04-2026", "2026-04-30")
	require.Error(t, err)

	from, to, err := ParseDateRange("", "")
	require.NoError(t, err)
	require.Nil(t, from)
	require.Nil(t, to)
}
