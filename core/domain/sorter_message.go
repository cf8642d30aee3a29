package domain

import "time"

// Handle is the platform's row for one phone number or email address,
// together with its aggregated message counters.
type Handle struct {
	RowID            int64
	Identifier       string
	TotalMessages    int
	SentMessages     int
	ReceivedMessages int
	LastActivityAt   *time.Time
}

// RawMessageRecord is one message read from the message store.
type RawMessageRecord struct {
	Text      string
	Timestamp int64 // nanoseconds since 2001-01-01 UTC, 0 when unknown
	IsFromMe  bool
	HandleID  int64
}

// SavedContactInfo is the address-book name pair for an identifier.
type SavedContactInfo struct {
	FirstName string
	LastName  string
}

// MessageStats is the per-contact aggregate derived from its messages.
type MessageStats struct {
	FirstDate     *time.Time
	LastDate      *time.Time
	TotalMessages int
	ByYear        map[int]int
}

// FirstYear returns the calendar year of the first dated message.
func (s MessageStats) FirstYear() (int, bool) {
	if s.FirstDate == nil {
		return 0, false
	}
	return s.FirstDate.UTC().Year(), true
}

// DatedMessages sums the year histogram.
func (s MessageStats) DatedMessages() int {
	n := 0
	for _, c := range s.ByYear {
		n += c
	}
	return n
}

// Recency classifies how long ago the contact was last active.
type Recency string

const (
	RecencyUnknown        Recency = "unknown"
	RecencyRecent         Recency = "recent"
	RecencySomewhatRecent Recency = "somewhat-recent"
	RecencyStale          Recency = "stale"
	RecencyOld            Recency = "old"
)

// RecencyWindows are the calendar lookbacks, in years, that bound each
// recency bucket.
type RecencyWindows struct {
	RecentYears         int `yaml:"recent_years"`
	SomewhatRecentYears int `yaml:"somewhat_recent_years"`
	StaleYears          int `yaml:"stale_years"`
}

// DefaultRecencyWindows returns the 1/2/3 year windows.
func DefaultRecencyWindows() RecencyWindows {
	return RecencyWindows{
		RecentYears:         1,
		SomewhatRecentYears: 2,
		StaleYears:          3,
	}
}

// RecencyOf buckets last relative to now.
func RecencyOf(last *time.Time, now time.Time, w RecencyWindows) Recency {
	if last == nil {
		return RecencyUnknown
	}
	switch {
	case last.After(now.AddDate(-w.RecentYears, 0, 0)):
		return RecencyRecent
	case last.After(now.AddDate(-w.SomewhatRecentYears, 0, 0)):
		return RecencySomewhatRecent
	case !last.Before(now.AddDate(-w.StaleYears, 0, 0)):
		return RecencyStale
	default:
		return RecencyOld
	}
}

// Recency buckets the last message date relative to now.
func (s MessageStats) Recency(now time.Time, w RecencyWindows) Recency {
	return RecencyOf(s.LastDate, now, w)
}
