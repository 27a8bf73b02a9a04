package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDepartureTime(t *testing.T) {
	want := time.Date(2026, 3, 14, 8, 30, 0, 0, time.UTC)

	for _, in := range []string{"2026-03-14T08:30:00Z", "2026-03-14T09:30:00+01:00", "2026-03-14 08:30", "2026-03-14 08:30:42"} {
		got, err := ParseDepartureTime(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s -> %s", in, got)
	}

	for _, in := range []string{"", "tomorrow", "2026-13-40 25:00", "08:00 AM"} {
		_, err := ParseDepartureTime(in)
		assert.Error(t, err, in)
	}
}

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 0, HaversineKm(6.5244, 3.3792, 6.5244, 3.3792), 1e-9)
	// Lagos -> Ibadan, roughly 114 km as the crow flies.
	assert.InDelta(t, 114, HaversineKm(6.5244, 3.3792, 7.3775, 3.9470), 5)
}

func TestComputeFare(t *testing.T) {
	assert.Equal(t, int64(50000), ComputeFare(50000, 200, 0))
	assert.Equal(t, int64(52050), ComputeFare(50000, 200, 10.25))
	assert.Equal(t, int64(50000), ComputeFare(50000, 200, -3))
}

func TestFormatMinor(t *testing.T) {
	assert.Equal(t, "NGN 1,500.00", FormatMinor("ngn", 150000))
	assert.Equal(t, "NGN 0.05", FormatMinor("NGN", 5))
	assert.Equal(t, "-NGN 12.30", FormatMinor("NGN", -1230))
}

func TestSafeFilenamePart(t *testing.T) {
	assert.Equal(t, "NA", SafeFilenamePart("  "))
	assert.Equal(t, "SKT_2026_A", SafeFilenamePart("SKT/2026 A"))
}
