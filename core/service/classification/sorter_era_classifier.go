package classification

import (
	"fmt"
	"strings"

	"sorter/core/domain"
	"sorter/core/service/stats"
)

// Result is a classifier decision. A nil Category means no rule produced a
// category; Reason always explains the outcome.
type Result struct {
	Category *domain.CategoryID
	Reason   string
	Source   domain.AssignmentSource
}

// Assignment converts the result into a contact assignment.
func (r Result) Assignment(contactID string) domain.CategoryAssignment {
	return domain.CategoryAssignment{
		ContactID: contactID,
		Category:  r.Category,
		Reason:    r.Reason,
		Source:    r.Source,
	}
}

// Reasons for outcomes that do not carry a year or count.
const (
	ReasonNoMessages   = "no messages"
	ReasonUndetermined = "could not determine category"
)

// =============================================================================
// Era Classifier
// =============================================================================

// EraClassifier places a contact in era A or era B from message content and
// first-contact year.
type EraClassifier struct {
	cfg       *Config
	keywordsA []string
	keywordsB []string
}

// NewEraClassifier creates a new era classifier. cfg must already be valid.
func NewEraClassifier(cfg *Config) *EraClassifier {
	return &EraClassifier{
		cfg:       cfg,
		keywordsA: lowerAll(cfg.EraA.Keywords),
		keywordsB: lowerAll(cfg.EraB.Keywords),
	}
}

// RecentLimit is the number of trailing messages whose text is inspected.
func (c *EraClassifier) RecentLimit() int {
	return c.cfg.RecentMessageLimit
}

// Classify evaluates the decision table in order; the first matching rule wins.
func (c *EraClassifier) Classify(recentTexts []string, st domain.MessageStats) Result {
	if len(recentTexts) == 0 && st.TotalMessages == 0 {
		return c.none(ReasonNoMessages)
	}

	// Keyword signal overrides any temporal evidence.
	text := strings.ToLower(strings.Join(recentTexts, " "))
	hasA := containsAny(text, c.keywordsA)
	hasB := containsAny(text, c.keywordsB)
	switch {
	case hasA && !hasB:
		return c.era(c.cfg.EraA, fmt.Sprintf("content mentions %s topics", c.cfg.EraA.Label))
	case hasB && !hasA:
		return c.era(c.cfg.EraB, fmt.Sprintf("content mentions %s topics", c.cfg.EraB.Label))
	}

	year, ok := st.FirstYear()
	if !ok {
		return c.none(ReasonUndetermined)
	}

	b1, b2 := c.cfg.HighSchoolGradYear, c.cfg.CollegeGradYear
	shareA := stats.ShareBetween(st, b1, b2)

	switch {
	case year < b1:
		if shareA > c.cfg.EraAShareThreshold {
			return c.era(c.cfg.EraA, fmt.Sprintf("first contact in %d, but %.0f%% of messages in %s era",
				year, shareA*100, c.cfg.EraA.Label))
		}
		return c.era(c.cfg.EraB, fmt.Sprintf("first contact in %d (%s era)", year, c.cfg.EraB.Label))

	case year <= b2:
		return c.era(c.cfg.EraA, fmt.Sprintf("first contact in %d (%s era)", year, c.cfg.EraA.Label))

	default:
		// Only reachable with a histogram broader than the first-contact date,
		// e.g. stats merged from several handles.
		if shareA > c.cfg.PostEraShareThreshold {
			return c.era(c.cfg.EraA, fmt.Sprintf("first contact in %d, %.0f%% of messages in %s era",
				year, shareA*100, c.cfg.EraA.Label))
		}
		return c.none(fmt.Sprintf("first contact in %d (post-era, no affiliation)", year))
	}
}

func (c *EraClassifier) era(e Era, reason string) Result {
	return Result{Category: domain.CategoryPtr(e.Category), Reason: reason, Source: domain.SourceEra}
}

func (c *EraClassifier) none(reason string) Result {
	return Result{Reason: reason, Source: domain.SourceEra}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
