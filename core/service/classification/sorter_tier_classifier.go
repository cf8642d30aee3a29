package classification

import (
	"fmt"
	"strings"
	"time"

	"sorter/core/domain"
)

// Tier is an engagement bucket derived from volume and recency only.
type Tier string

const (
	TierHighEngagementRecent  Tier = "high-engagement-recent"
	TierHighEngagementStale   Tier = "high-engagement-stale"
	TierMediumEngagement      Tier = "medium-engagement"
	TierMediumEngagementStale Tier = "medium-engagement-stale"
	TierLowEngagement         Tier = "low-engagement"
	TierArchiveCandidate      Tier = "archive-candidate"
)

// AllTiers returns the closed tier vocabulary.
func AllTiers() []Tier {
	return []Tier{
		TierHighEngagementRecent,
		TierHighEngagementStale,
		TierMediumEngagement,
		TierMediumEngagementStale,
		TierLowEngagement,
		TierArchiveCandidate,
	}
}

// TierInput is what the tier policy looks at.
type TierInput struct {
	Identifier      string
	MessageCount    int
	LastMessageDate *time.Time
}

// TierResult carries the chosen tier next to the mapped category.
type TierResult struct {
	Result
	Tier Tier
}

// =============================================================================
// Activity-Tier Classifier
// =============================================================================

// TierClassifier buckets contacts by message volume and recency.
type TierClassifier struct {
	cfg TierConfig
	now func() time.Time
}

// NewTierClassifier creates a tier classifier. now is injected so decisions
// are reproducible; nil uses time.Now.
func NewTierClassifier(cfg TierConfig, now func() time.Time) *TierClassifier {
	if now == nil {
		now = time.Now
	}
	return &TierClassifier{cfg: cfg, now: now}
}

// IsSystemIdentifier reports whether the identifier belongs to a
// business/system namespace.
func (c *TierClassifier) IsSystemIdentifier(identifier string) bool {
	lower := strings.ToLower(identifier)
	for _, p := range c.cfg.SystemPatterns {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// Classify walks the ordered chain; the first matching band wins.
func (c *TierClassifier) Classify(in TierInput) TierResult {
	if c.IsSystemIdentifier(in.Identifier) {
		return c.result(TierArchiveCandidate, "business/system identifier")
	}

	n := in.MessageCount
	recency := domain.RecencyOf(in.LastMessageDate, c.now(), c.cfg.Windows)
	recent := recency == domain.RecencyRecent
	somewhatRecent := recent || recency == domain.RecencySomewhatRecent
	old := recency == domain.RecencyOld || recency == domain.RecencyUnknown

	switch {
	case n >= c.cfg.HighMin && recent:
		return c.result(TierHighEngagementRecent, fmt.Sprintf("%d msgs, recent activity", n))
	case n >= c.cfg.HighMin:
		return c.result(TierHighEngagementStale, fmt.Sprintf("%d msgs but no recent activity", n))
	case n >= c.cfg.MediumMin && recent:
		return c.result(TierMediumEngagement, fmt.Sprintf("%d msgs, recent activity", n))
	case n >= c.cfg.MediumMin && somewhatRecent:
		return c.result(TierMediumEngagement, fmt.Sprintf("%d msgs, somewhat recent", n))
	case n >= c.cfg.MediumMin:
		return c.result(TierMediumEngagementStale, fmt.Sprintf("%d msgs but old", n))
	case n >= c.cfg.LowMin && recent:
		return c.result(TierLowEngagement, fmt.Sprintf("%d msgs, recent, possible new contact", n))
	case n < c.cfg.LowMin || old:
		return c.result(TierArchiveCandidate, fmt.Sprintf("low engagement (%d msgs) or old", n))
	default:
		return c.result(TierLowEngagement, fmt.Sprintf("%d msgs, default bucket", n))
	}
}

func (c *TierClassifier) result(t Tier, reason string) TierResult {
	res := TierResult{
		Result: Result{Reason: reason, Source: domain.SourceTier},
		Tier:   t,
	}
	if cat, ok := c.cfg.Categories[t]; ok && cat != "" {
		res.Category = domain.CategoryPtr(cat)
	}
	return res
}
