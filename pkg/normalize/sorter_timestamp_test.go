package normalize

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAbsoluteTime(t *testing.T) {
	tests := []struct {
		name string
		ts   int64
		want time.Time
	}{
		{"one second", int64(time.Second), time.Date(2001, 1, 1, 0, 0, 1, 0, time.UTC)},
		{"one day", int64(24 * time.Hour), time.Date(2001, 1, 2, 0, 0, 0, 0, time.UTC)},
		// 2019-06-15T12:00:00Z
		{"mid 2019", 582292800 * int64(time.Second), time.Date(2019, 6, 15, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToAbsoluteTime(tt.ts)
			require.True(t, ok)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestToAbsoluteTime_ZeroIsUnknown(t *testing.T) {
	got, ok := ToAbsoluteTime(0)
	assert.False(t, ok)
	assert.True(t, got.IsZero())
	assert.False(t, got.Equal(PlatformEpoch))

	_, ok = FromNullTimestamp(sql.NullInt64{})
	assert.False(t, ok)
}

func TestToAbsoluteTime_Monotonic(t *testing.T) {
	offsets := []int64{-5, 1, 2, 1_000, 1_000_000_000, 600_000_000_000_000_000, 600_000_000_000_000_001}
	var prev time.Time
	for i, ts := range offsets {
		got, ok := ToAbsoluteTime(ts)
		require.True(t, ok)
		if i > 0 {
			assert.False(t, got.Before(prev), "offset %d went backwards", ts)
		}
		prev = got
	}
}

func TestFromNullTimestamp(t *testing.T) {
	got, ok := FromNullTimestamp(sql.NullInt64{Int64: int64(time.Hour), Valid: true})
	require.True(t, ok)
	assert.Equal(t, 1, got.Hour())
}
