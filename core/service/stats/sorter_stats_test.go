package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorter/core/domain"
	"sorter/pkg/normalize"
)

func at(year int, month time.Month, day int) int64 {
	return int64(time.Date(year, month, day, 12, 0, 0, 0, time.UTC).Sub(normalize.PlatformEpoch))
}

func msg(ts int64, text string) domain.RawMessageRecord {
	return domain.RawMessageRecord{Text: text, Timestamp: ts}
}

func TestBuild_Empty(t *testing.T) {
	st := Build(nil)
	assert.Equal(t, 0, st.TotalMessages)
	assert.Nil(t, st.FirstDate)
	assert.Nil(t, st.LastDate)
	assert.Empty(t, st.ByYear)
}

func TestBuild_UnorderedInput(t *testing.T) {
	messages := []domain.RawMessageRecord{
		msg(at(2019, 3, 1), "b"),
		msg(at(2016, 5, 2), "a"),
		msg(at(2021, 8, 9), "c"),
		msg(at(2019, 1, 1), "d"),
	}

	st := Build(messages)

	require.NotNil(t, st.FirstDate)
	require.NotNil(t, st.LastDate)
	assert.Equal(t, 2016, st.FirstDate.Year())
	assert.Equal(t, 2021, st.LastDate.Year())
	assert.Equal(t, 4, st.TotalMessages)
	assert.Equal(t, map[int]int{2016: 1, 2019: 2, 2021: 1}, st.ByYear)

	year, ok := st.FirstYear()
	assert.True(t, ok)
	assert.Equal(t, 2016, year)
}

func TestBuild_UnknownTimestamps(t *testing.T) {
	st := Build([]domain.RawMessageRecord{msg(0, "x"), msg(at(2020, 2, 2), "y"), msg(0, "z")})

	assert.Equal(t, 3, st.TotalMessages)
	assert.Equal(t, 1, st.DatedMessages())
	assert.Equal(t, 2020, st.FirstDate.Year())

	st = Build([]domain.RawMessageRecord{msg(0, "x")})
	assert.Equal(t, 1, st.TotalMessages)
	assert.Nil(t, st.FirstDate)
	_, ok := st.FirstYear()
	assert.False(t, ok)
}

func TestRecentTexts(t *testing.T) {
	messages := []domain.RawMessageRecord{msg(1, "a"), msg(2, "b"), msg(3, "c")}

	assert.Equal(t, []string{"b", "c"}, RecentTexts(messages, 2))
	assert.Equal(t, []string{"a", "b", "c"}, RecentTexts(messages, 10))
	assert.Nil(t, RecentTexts(messages, 0))
	assert.Nil(t, RecentTexts(nil, 5))
}

func TestShareBetween(t *testing.T) {
	st := domain.MessageStats{ByYear: map[int]int{2017: 1, 2018: 2, 2019: 3, 2022: 4}}

	assert.InDelta(t, 0.5, ShareBetween(st, 2018, 2020), 1e-9)
	assert.InDelta(t, 0.0, ShareBetween(st, 2030, 2031), 1e-9)
	assert.InDelta(t, 0.0, ShareBetween(domain.MessageStats{}, 2018, 2020), 1e-9)
}

func TestRecency(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	w := domain.DefaultRecencyWindows()
	ago := func(d time.Duration) *time.Time { ts := now.Add(-d); return &ts }
	const day = 24 * time.Hour

	tests := []struct {
		name string
		last *time.Time
		want domain.Recency
	}{
		{"none", nil, domain.RecencyUnknown},
		{"six months", ago(180 * day), domain.RecencyRecent},
		{"eighteen months", ago(540 * day), domain.RecencySomewhatRecent},
		{"thirty months", ago(900 * day), domain.RecencyStale},
		{"four years", ago(4 * 365 * day), domain.RecencyOld},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.MessageStats{LastDate: tt.last}.Recency(now, w))
		})
	}
}
