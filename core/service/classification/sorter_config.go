// Package classification implements the rule-based contact classifiers.
//
// Two policies run in order:
//
//	Era:  keyword signal, then first-contact year against the graduation boundaries
//	Tier: message volume and recency, for contacts the era policy left open
//
// Every decision carries a reason string and is fully determined by its inputs.
package classification

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"sorter/core/domain"
	"sorter/pkg/apperr"
)

// =============================================================================
// Configuration
// =============================================================================

// Era describes one life-phase category and the vocabulary that signals it.
type Era struct {
	Label    string            `yaml:"label"`
	Category domain.CategoryID `yaml:"category"`
	Keywords []string          `yaml:"keywords"`
}

// Config holds every tunable of both classifiers.
type Config struct {
	// EraA is the college era, bounded by the two graduation years.
	EraA Era `yaml:"era_a"`
	// EraB is the high school era, before HighSchoolGradYear.
	EraB Era `yaml:"era_b"`

	HighSchoolGradYear int `yaml:"high_school_grad_year"` // Default: 2018
	CollegeGradYear    int `yaml:"college_grad_year"`     // Default: 2020

	RecentMessageLimit    int     `yaml:"recent_message_limit"`     // Default: 10
	EraAShareThreshold    float64 `yaml:"era_a_share_threshold"`    // Default: 0.40
	PostEraShareThreshold float64 `yaml:"post_era_share_threshold"` // Default: 0.20

	Tiers TierConfig `yaml:"tiers"`
}

// TierConfig holds the activity-tier thresholds.
type TierConfig struct {
	HighMin   int `yaml:"high_min"`   // Default: 500
	MediumMin int `yaml:"medium_min"` // Default: 100
	LowMin    int `yaml:"low_min"`    // Default: 20

	Windows domain.RecencyWindows `yaml:"windows"`

	// SystemPatterns are identifier substrings of business/system handles.
	SystemPatterns []string `yaml:"system_patterns"`

	Categories map[Tier]domain.CategoryID `yaml:"categories"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		EraA: Era{
			Label:    "Purdue",
			Category: domain.CategoryPurdue,
			Keywords: []string{
				"purdue", "boiler", "west lafayette", "campus", "dorm", "class", "professor",
				"exam", "midterm", "final", "homework", "study", "library", "lecture",
				"corec", "pmu", "walc", "rawls", "krannert", "neil armstrong",
				"cs ", "engineering", "major", "freshman", "sophomore", "junior", "senior",
				"internship", "career fair", "frat", "sorority", "rush",
			},
		},
		EraB: Era{
			Label:    "high school",
			Category: domain.CategoryHighSchool,
			Keywords: []string{
				"high school", "homecoming", "prom", "sat", "act", "college app",
				"graduation", "senior year", "junior year", "ap class", "varsity",
				"jv", "driver", "permit", "license", "parent", "grounded",
			},
		},
		HighSchoolGradYear:    2018,
		CollegeGradYear:       2020,
		RecentMessageLimit:    10,
		EraAShareThreshold:    0.40,
		PostEraShareThreshold: 0.20,
		Tiers: TierConfig{
			HighMin:        500,
			MediumMin:      100,
			LowMin:         20,
			Windows:        domain.DefaultRecencyWindows(),
			SystemPatterns: []string{"urn:", "p:+"},
			Categories: map[Tier]domain.CategoryID{
				TierHighEngagementRecent:  domain.CategoryMidYielding,
				TierHighEngagementStale:   domain.CategoryOutOfReach,
				TierMediumEngagement:      domain.CategoryNotHighYielding,
				TierMediumEngagementStale: domain.CategoryOutOfReach,
				TierLowEngagement:         domain.CategoryNotHighYielding,
				TierArchiveCandidate:      domain.CategoryArchived,
			},
		},
	}
}

// LoadConfig reads a YAML rules file over the defaults. Keys absent from the
// file keep their default values; lists present in the file replace the
// default list entirely.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeConfigError, "read rules file", http.StatusInternalServerError).WithDetail("path", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeConfigError, "parse rules file", http.StatusInternalServerError).WithDetail("path", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.HighSchoolGradYear > c.CollegeGradYear {
		add("high_school_grad_year %d is after college_grad_year %d", c.HighSchoolGradYear, c.CollegeGradYear)
	}
	if c.RecentMessageLimit <= 0 {
		add("recent_message_limit must be positive")
	}
	if c.EraAShareThreshold < 0 || c.EraAShareThreshold > 1 {
		add("era_a_share_threshold %.2f not in [0,1]", c.EraAShareThreshold)
	}
	if c.PostEraShareThreshold < 0 || c.PostEraShareThreshold > 1 {
		add("post_era_share_threshold %.2f not in [0,1]", c.PostEraShareThreshold)
	}

	for _, era := range []Era{c.EraA, c.EraB} {
		if era.Category == "" {
			add("era %q has no category", era.Label)
		} else if !era.Category.IsKnown() {
			add("era %q maps to unknown category %q", era.Label, era.Category)
		}
		if len(era.Keywords) == 0 {
			add("era %q has no keywords", era.Label)
		}
	}
	if c.EraA.Category == c.EraB.Category && c.EraA.Category != "" {
		add("both eras map to category %q", c.EraA.Category)
	}
	seen := make(map[string]bool, len(c.EraA.Keywords))
	for _, kw := range c.EraA.Keywords {
		seen[strings.ToLower(kw)] = true
	}
	for _, kw := range c.EraB.Keywords {
		if seen[strings.ToLower(kw)] {
			add("keyword %q appears in both eras", kw)
		}
	}

	t := c.Tiers
	if t.LowMin <= 0 || t.LowMin > t.MediumMin || t.MediumMin > t.HighMin {
		add("tier thresholds must satisfy 0 < low_min <= medium_min <= high_min")
	}
	w := t.Windows
	if w.RecentYears <= 0 || w.RecentYears > w.SomewhatRecentYears || w.SomewhatRecentYears > w.StaleYears {
		add("recency windows must satisfy 0 < recent <= somewhat_recent <= stale")
	}
	for _, tier := range AllTiers() {
		switch id := t.Categories[tier]; {
		case id == "":
			add("tier %q has no category", tier)
		case !id.IsKnown():
			add("tier %q maps to unknown category %q", tier, id)
		}
	}

	if len(problems) > 0 {
		return apperr.ConfigError("invalid classification config: " + strings.Join(problems, "; "))
	}
	return nil
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
