// Package stats derives per-contact engagement statistics from message history.
package stats

import (
	"time"

	"sorter/core/domain"
	"sorter/pkg/normalize"
)

// Build aggregates messages into MessageStats. Input order is not assumed.
// Messages with an unknown timestamp count toward the total only.
func Build(messages []domain.RawMessageRecord) domain.MessageStats {
	st := domain.MessageStats{
		TotalMessages: len(messages),
		ByYear:        make(map[int]int),
	}
	if len(messages) == 0 {
		return st
	}

	var first, last time.Time
	seen := false
	for _, m := range messages {
		ts, ok := normalize.ToAbsoluteTime(m.Timestamp)
		if !ok {
			continue
		}
		if !seen || ts.Before(first) {
			first = ts
		}
		if !seen || ts.After(last) {
			last = ts
		}
		seen = true
		st.ByYear[ts.UTC().Year()]++
	}

	if seen {
		st.FirstDate = &first
		st.LastDate = &last
	}
	return st
}

// RecentTexts returns the texts of the last n messages of a history that is
// sorted oldest first.
func RecentTexts(messages []domain.RawMessageRecord, n int) []string {
	if n <= 0 || len(messages) == 0 {
		return nil
	}
	start := len(messages) - n
	if start < 0 {
		start = 0
	}
	texts := make([]string, 0, len(messages)-start)
	for _, m := range messages[start:] {
		texts = append(texts, m.Text)
	}
	return texts
}

// ShareBetween returns the fraction of dated messages in years [from, to].
func ShareBetween(st domain.MessageStats, from, to int) float64 {
	total := st.DatedMessages()
	if total == 0 {
		return 0
	}
	n := 0
	for year, c := range st.ByYear {
		if year >= from && year <= to {
			n += c
		}
	}
	return float64(n) / float64(total)
}
