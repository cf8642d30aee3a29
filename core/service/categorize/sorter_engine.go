// Package categorize runs the classifiers and the duplicate resolver over a
// contact batch and writes one merged assignment per contact.
package categorize

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-pkgz/pool"
	"github.com/rs/zerolog"

	"sorter/core/domain"
	"sorter/core/port/out"
	"sorter/core/service/classification"
	"sorter/core/service/dedupe"
	"sorter/core/service/stats"
	"sorter/pkg/metrics"
)

// =============================================================================
// Configuration
// =============================================================================

// Config holds engine settings.
type Config struct {
	Workers int
	// TierFallback runs the tier policy for contacts the era policy left open.
	TierFallback bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Workers:      4,
		TierFallback: true,
	}
}

// Plan is the in-memory outcome of a batch, before any write.
type Plan struct {
	// Assignments holds at most one entry per contact, sorted by contact id.
	Assignments []domain.CategoryAssignment
	Duplicates  []domain.DuplicateGroup
	// Skipped lists contacts whose history could not be read.
	Skipped []string
}

// Counts tallies planned assignments by category, "none" for nil.
func (p *Plan) Counts() map[string]int {
	counts := make(map[string]int)
	for _, a := range p.Assignments {
		if a.Category == nil {
			counts[categoryKey("")]++
			continue
		}
		counts[string(*a.Category)]++
	}
	return counts
}

// =============================================================================
// Engine
// =============================================================================

// Engine classifies contacts in parallel and resolves duplicates.
type Engine struct {
	history out.MessageHistory
	era     *classification.EraClassifier
	tier    *classification.TierClassifier
	cfg     Config
	rec     *metrics.Recorder
	log     zerolog.Logger
}

// NewEngine creates a new Engine. rec may be nil.
func NewEngine(
	history out.MessageHistory,
	era *classification.EraClassifier,
	tier *classification.TierClassifier,
	cfg Config,
	rec *metrics.Recorder,
	log zerolog.Logger,
) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Engine{
		history: history,
		era:     era,
		tier:    tier,
		cfg:     cfg,
		rec:     rec,
		log:     log.With().Str("component", "categorize").Logger(),
	}
}

// ClassifyOne loads the history of one contact and runs both policies.
func (e *Engine) ClassifyOne(ctx context.Context, c *domain.Contact) (domain.CategoryAssignment, error) {
	messages, err := e.history.MessagesFor(ctx, c.Identifier)
	if err != nil {
		return domain.CategoryAssignment{}, err
	}

	st := stats.Build(messages)
	res := e.era.Classify(stats.RecentTexts(messages, e.era.RecentLimit()), st)
	if res.Category != nil || !e.cfg.TierFallback || e.tier == nil {
		return res.Assignment(c.ID), nil
	}

	last := c.LastMessageDate
	if last == nil {
		last = st.LastDate
	}
	tr := e.tier.Classify(classification.TierInput{
		Identifier:      c.Identifier,
		MessageCount:    c.MessageCount,
		LastMessageDate: last,
	})
	return tr.Assignment(c.ID), nil
}

// classifyWorker implements pool.Worker for contacts.
type classifyWorker struct {
	engine *Engine
	mu     sync.Mutex
	out    map[string]domain.CategoryAssignment
	failed []string
}

// Do implements pool.Worker interface. Failures are recorded, never returned,
// so one bad history cannot stop the group.
func (w *classifyWorker) Do(ctx context.Context, c *domain.Contact) error {
	a, err := w.engine.ClassifyOne(ctx, c)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.engine.log.Warn().Err(err).Str("contact_id", c.ID).Msg("skipping contact, history unavailable")
		if w.engine.rec != nil {
			w.engine.rec.HistoryFailures.Inc()
		}
		w.failed = append(w.failed, c.ID)
		return nil
	}
	w.out[c.ID] = a
	return nil
}

// Plan classifies candidates and, when population is non-empty, resolves
// duplicates across population. An archival decision replaces the
// classification of the same contact so each contact is written once.
func (e *Engine) Plan(ctx context.Context, candidates, population []*domain.Contact) (*Plan, error) {
	start := time.Now()
	worker := &classifyWorker{engine: e, out: make(map[string]domain.CategoryAssignment, len(candidates))}

	if len(candidates) > 0 {
		wg := pool.New[*domain.Contact](e.cfg.Workers, worker).WithContinueOnError()
		if err := wg.Go(ctx); err != nil {
			return nil, err
		}
		for _, c := range candidates {
			if c != nil {
				wg.Submit(c)
			}
		}
		if err := wg.Close(ctx); err != nil {
			return nil, err
		}
	}

	merged := worker.out
	groups := dedupe.Resolve(population)
	for _, a := range dedupe.Archivals(groups) {
		merged[a.ContactID] = a
	}

	plan := &Plan{
		Assignments: make([]domain.CategoryAssignment, 0, len(merged)),
		Duplicates:  groups,
		Skipped:     worker.failed,
	}
	for _, a := range merged {
		plan.Assignments = append(plan.Assignments, a)
	}
	sort.Slice(plan.Assignments, func(i, j int) bool {
		return plan.Assignments[i].ContactID < plan.Assignments[j].ContactID
	})
	sort.Strings(plan.Skipped)

	e.log.Info().
		Int("candidates", len(candidates)).
		Int("population", len(population)).
		Int("assignments", len(plan.Assignments)).
		Int("duplicate_groups", len(groups)).
		Int("skipped", len(plan.Skipped)).
		Dur("elapsed", time.Since(start)).
		Msg("plan ready")

	return plan, nil
}

// =============================================================================
// Apply
// =============================================================================

// ApplyReport summarizes the write phase.
type ApplyReport struct {
	Written         int            `json:"written"`
	Failed          []string       `json:"failed,omitempty"`
	PublishFailures int            `json:"publishFailures"`
	Counts          map[string]int `json:"counts"`
}

// Apply writes every planned assignment. A failed write is reported and the
// batch continues; only context cancellation stops it early.
func (e *Engine) Apply(
	ctx context.Context,
	plan *Plan,
	writer out.AssignmentWriter,
	publisher out.AssignmentPublisher,
	runID string,
) (*ApplyReport, error) {
	report := &ApplyReport{Counts: make(map[string]int)}
	if publisher == nil {
		publisher = out.NoopPublisher{}
	}

	for _, a := range plan.Assignments {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := writer.UpdateCategory(ctx, a); err != nil {
			e.log.Error().Err(err).Str("contact_id", a.ContactID).Msg("assignment write failed")
			if e.rec != nil {
				e.rec.WriteFailures.Inc()
			}
			report.Failed = append(report.Failed, a.ContactID)
			continue
		}

		report.Written++
		category := ""
		if a.Category != nil {
			category = string(*a.Category)
		}
		report.Counts[categoryKey(category)]++
		e.rec.ObserveAssignment(string(a.Source), category)

		if err := publisher.PublishAssignment(ctx, out.NewAssignmentEvent(runID, a, time.Now().UTC())); err != nil {
			e.log.Warn().Err(err).Str("contact_id", a.ContactID).Msg("assignment event not published")
			if e.rec != nil {
				e.rec.PublishFailures.Inc()
			}
			report.PublishFailures++
		}
	}

	e.log.Info().
		Int("written", report.Written).
		Int("failed", len(report.Failed)).
		Msg("assignments applied")

	return report, nil
}

func categoryKey(category string) string {
	if category == "" {
		return "none"
	}
	return category
}
