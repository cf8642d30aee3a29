package out

import (
	"context"
	"time"

	"sorter/core/domain"
)

// AssignmentPublisher defines the outbound port that announces category
// assignments to downstream consumers.
type AssignmentPublisher interface {
	PublishAssignment(ctx context.Context, event *AssignmentEvent) error
}

// AssignmentEvent is the message published for every written assignment.
type AssignmentEvent struct {
	RunID     string                  `json:"run_id"`
	ContactID string                  `json:"contact_id"`
	Category  string                  `json:"category,omitempty"`
	Reason    string                  `json:"reason"`
	Source    domain.AssignmentSource `json:"source"`
	Timestamp time.Time               `json:"timestamp"`
}

// NewAssignmentEvent builds the event for an assignment.
func NewAssignmentEvent(runID string, a domain.CategoryAssignment, at time.Time) *AssignmentEvent {
	ev := &AssignmentEvent{
		RunID:     runID,
		ContactID: a.ContactID,
		Reason:    a.Reason,
		Source:    a.Source,
		Timestamp: at,
	}
	if a.Category != nil {
		ev.Category = string(*a.Category)
	}
	return ev
}

// NoopPublisher discards events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishAssignment(context.Context, *AssignmentEvent) error { return nil }

// RunStore keeps the most recent run report.
type RunStore interface {
	SaveRun(ctx context.Context, report *domain.RunReport) error
	LastRun(ctx context.Context) (*domain.RunReport, error)
}
