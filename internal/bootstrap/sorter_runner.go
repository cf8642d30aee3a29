package bootstrap

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sorter/adapter/out/persistence"
	"sorter/core/domain"
	"sorter/core/port/out"
	"sorter/core/service/categorize"
	"sorter/core/service/classification"
	"sorter/core/service/extraction"
	"sorter/pkg/apperr"
	"sorter/pkg/metrics"
)

// ErrNoContactStore is returned by steps that need DATABASE_URL.
var ErrNoContactStore = apperr.New(apperr.CodeConfigError, "contact store not configured (set DATABASE_URL)", http.StatusServiceUnavailable)

// Runner executes the batch steps behind the CLI commands and the scheduler.
type Runner struct {
	OpenStore   func() (out.MessageStore, error)
	AddressBook out.AddressBook
	Contacts    out.ContactRepository
	Settings    out.SettingsRepository
	File        out.ContactFile
	Publisher   out.AssignmentPublisher
	Runs        out.RunStore

	Rules   *classification.Config
	Engine  categorize.Config
	Writer  persistence.WriterConfig
	Metrics *metrics.Recorder
	Log     zerolog.Logger
	Now     func() time.Time
}

// ClassifyOptions selects the classify mode.
type ClassifyOptions struct {
	// FromFile classifies the interchange file instead of the contact store.
	FromFile bool
	// OutPath receives the planned assignments as JSON in file mode.
	OutPath string
	// DryRun plans without writing anything.
	DryRun bool
}

// ClassifyOutcome is what a classify or dedupe step produced.
type ClassifyOutcome struct {
	Plan    *categorize.Plan
	Applied *categorize.ApplyReport
	// Counts holds the per-category totals of the store after the step.
	Counts map[domain.CategoryID]int
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Runner) observe(step string, start time.Time, err error) {
	if r.Metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.Metrics.RunDuration.WithLabelValues(step, status).Observe(time.Since(start).Seconds())
}

// =============================================================================
// Extract / Upload
// =============================================================================

// Extract reads the message store and address book and writes the
// interchange file.
func (r *Runner) Extract(ctx context.Context) (res *extraction.Result, err error) {
	start := time.Now()
	defer func() { r.observe("extract", start, err) }()

	store, err := r.OpenStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	res, err = extraction.NewExtractor(store, r.AddressBook, r.Log).Extract(ctx)
	if err != nil {
		return nil, err
	}

	if r.Metrics != nil {
		r.Metrics.ContactsExtracted.Add(float64(len(res.Contacts)))
		r.Metrics.HandlesSkipped.WithLabelValues(string(extraction.SkipShortCode)).Add(float64(res.Summary.SkippedShortCodes))
		r.Metrics.HandlesSkipped.WithLabelValues(string(extraction.SkipBot)).Add(float64(res.Summary.SkippedBots))
		r.Metrics.HandlesSkipped.WithLabelValues(string(extraction.SkipLowActivity)).Add(float64(res.Summary.SkippedLowActivity))
	}

	if r.File != nil {
		if err := r.File.Write(ctx, res.Contacts); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Upload seeds the category vocabulary and upserts the interchange file.
func (r *Runner) Upload(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { r.observe("upload", start, err) }()

	if r.Contacts == nil || r.Settings == nil {
		return 0, ErrNoContactStore
	}
	contacts, err := r.File.Read(ctx)
	if err != nil {
		return 0, err
	}
	return r.upload(ctx, contacts)
}

func (r *Runner) upload(ctx context.Context, contacts []domain.ExtractedContact) (int, error) {
	if err := r.Settings.EnsureDefaults(ctx, domain.DefaultCategories()); err != nil {
		return 0, err
	}
	n, err := r.Contacts.Upsert(ctx, contacts)
	if err != nil {
		return 0, err
	}
	r.Log.Info().Int("contacts", n).Msg("contacts uploaded")
	return n, nil
}

// =============================================================================
// Classify / Dedupe
// =============================================================================

func (r *Runner) engine(history out.MessageHistory) *categorize.Engine {
	era := classification.NewEraClassifier(r.Rules)
	tier := classification.NewTierClassifier(r.Rules.Tiers, r.now)
	return categorize.NewEngine(history, era, tier, r.Engine, r.Metrics, r.Log)
}

// Classify assigns categories to uncategorized contacts and resolves
// duplicates in the same pass.
func (r *Runner) Classify(ctx context.Context, runID string, opts ClassifyOptions) (outcome *ClassifyOutcome, err error) {
	start := time.Now()
	defer func() { r.observe("classify", start, err) }()

	var candidates, population []*domain.Contact
	if opts.FromFile {
		extracted, err := r.File.Read(ctx)
		if err != nil {
			return nil, err
		}
		for i := range extracted {
			c := domain.NewContact(extracted[i])
			candidates = append(candidates, c)
			population = append(population, c)
		}
	} else {
		if r.Contacts == nil {
			return nil, ErrNoContactStore
		}
		if candidates, err = r.Contacts.List(ctx, domain.ContactFilter{Category: domain.CategoryPtr(domain.CategoryUncategorized)}); err != nil {
			return nil, err
		}
		if population, err = r.Contacts.List(ctx, domain.ContactFilter{ExcludeCategory: domain.CategoryPtr(domain.CategoryArchived)}); err != nil {
			return nil, err
		}
	}

	store, err := r.OpenStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	plan, err := r.engine(store).Plan(ctx, candidates, population)
	if err != nil {
		return nil, err
	}
	outcome = &ClassifyOutcome{Plan: plan}

	switch {
	case opts.DryRun:
		return outcome, nil
	case opts.FromFile:
		if opts.OutPath != "" {
			if err := writeAssignments(opts.OutPath, plan.Assignments); err != nil {
				return nil, err
			}
		}
		return outcome, nil
	}

	return r.apply(ctx, runID, outcome)
}

// Dedupe archives duplicates across every non-archived store contact.
func (r *Runner) Dedupe(ctx context.Context, runID string, dryRun bool) (outcome *ClassifyOutcome, err error) {
	start := time.Now()
	defer func() { r.observe("dedupe", start, err) }()

	if r.Contacts == nil {
		return nil, ErrNoContactStore
	}
	population, err := r.Contacts.List(ctx, domain.ContactFilter{ExcludeCategory: domain.CategoryPtr(domain.CategoryArchived)})
	if err != nil {
		return nil, err
	}

	plan, err := r.engine(nil).Plan(ctx, nil, population)
	if err != nil {
		return nil, err
	}
	outcome = &ClassifyOutcome{Plan: plan}
	if dryRun {
		return outcome, nil
	}
	return r.apply(ctx, runID, outcome)
}

func (r *Runner) apply(ctx context.Context, runID string, outcome *ClassifyOutcome) (*ClassifyOutcome, error) {
	writer := persistence.NewResilientWriter(r.Contacts, r.Writer, r.Log)
	applied, err := r.engine(nil).Apply(ctx, outcome.Plan, writer, r.Publisher, runID)
	outcome.Applied = applied
	if err != nil {
		return outcome, err
	}

	counts, err := r.Contacts.CountByCategory(ctx)
	if err != nil {
		return outcome, err
	}
	outcome.Counts = counts
	return outcome, nil
}

func writeAssignments(path string, assignments []domain.CategoryAssignment) error {
	if assignments == nil {
		assignments = []domain.CategoryAssignment{}
	}
	data, err := json.MarshalIndent(assignments, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// =============================================================================
// Categories
// =============================================================================

// Categories returns the vocabulary in the saved display order. Without a
// contact store the defaults are returned.
func (r *Runner) Categories(ctx context.Context) ([]domain.Category, error) {
	if r.Settings == nil {
		return domain.DefaultCategories(), nil
	}
	categories, err := r.Settings.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		categories = domain.DefaultCategories()
	}
	settings, err := r.Settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return domain.OrderCategories(categories, settings.CategoryOrder), nil
}

// =============================================================================
// Run
// =============================================================================

// NewRunID returns a fresh run id.
func NewRunID() string {
	return uuid.NewString()
}

// Run executes extract, upload and classify as one recorded run.
func (r *Runner) Run(ctx context.Context) (*domain.RunReport, error) {
	report := &domain.RunReport{
		RunID:     NewRunID(),
		Command:   "run",
		Status:    domain.RunRunning,
		StartedAt: r.now().UTC(),
	}
	log := r.Log.With().Str("run_id", report.RunID).Logger()
	log.Info().Msg("run started")

	err := r.runSteps(ctx, report)
	report.Finish(r.now().UTC(), err)

	if r.Runs != nil {
		if saveErr := r.Runs.SaveRun(ctx, report); saveErr != nil {
			log.Warn().Err(saveErr).Msg("run report not saved")
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		return report, err
	}

	if r.Metrics != nil {
		r.Metrics.LastRunCompletedAt.Set(float64(report.FinishedAt.Unix()))
	}
	log.Info().
		Int("extracted", report.Extracted).
		Int("uploaded", report.Uploaded).
		Int("classified", report.Classified).
		Int("duplicates", report.Duplicates).
		Int("failed", report.Failed).
		Msg("run finished")
	return report, nil
}

func (r *Runner) runSteps(ctx context.Context, report *domain.RunReport) error {
	if r.Contacts == nil || r.Settings == nil {
		return ErrNoContactStore
	}

	res, err := r.Extract(ctx)
	if err != nil {
		return err
	}
	report.Extracted = len(res.Contacts)

	if report.Uploaded, err = r.upload(ctx, res.Contacts); err != nil {
		return err
	}

	outcome, err := r.Classify(ctx, report.RunID, ClassifyOptions{})
	if outcome != nil {
		report.Duplicates = len(outcome.Plan.Duplicates)
		if outcome.Applied != nil {
			report.Classified = outcome.Applied.Written
			report.Failed = len(outcome.Applied.Failed)
		}
		if outcome.Counts != nil {
			report.Counts = make(map[string]int, len(outcome.Counts))
			for id, n := range outcome.Counts {
				report.Counts[string(id)] = n
			}
		}
	}
	return err
}
