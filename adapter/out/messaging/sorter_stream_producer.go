// Package messaging provides the Redis adapters for assignment events and
// run status.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"sorter/core/domain"
	"sorter/core/port/out"
	"sorter/pkg/apperr"
)

const (
	// StreamContactsCategorized receives one entry per written assignment.
	StreamContactsCategorized = "contacts:categorized"

	lastRunKey = "sorter:runs:last"
	runTTL     = 30 * 24 * time.Hour
)

// RedisProducer implements out.AssignmentPublisher and out.RunStore using
// Redis Streams and a plain key.
type RedisProducer struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisProducer creates a new RedisProducer. An empty stream falls back
// to StreamContactsCategorized.
func NewRedisProducer(client *redis.Client, stream string) *RedisProducer {
	if stream == "" {
		stream = StreamContactsCategorized
	}
	return &RedisProducer{client: client, stream: stream, maxLen: 100000}
}

// Stream returns the stream events are published to.
func (p *RedisProducer) Stream() string {
	return p.stream
}

// PublishAssignment publishes an assignment event.
func (p *RedisProducer) PublishAssignment(ctx context.Context, event *out.AssignmentEvent) error {
	values, err := eventValues(event)
	if err != nil {
		return apperr.PublishFailed(p.stream, err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		ID:     "*",
		Values: values,
	}).Err()
	if err != nil {
		return apperr.PublishFailed(p.stream, err)
	}
	return nil
}

// eventValues builds the stream entry: the JSON payload plus the contact id
// for consumers that filter without decoding.
func eventValues(event *out.AssignmentEvent) (map[string]interface{}, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return map[string]interface{}{
		"contact_id": event.ContactID,
		"data":       string(data),
	}, nil
}

// =============================================================================
// Run Status
// =============================================================================

// SaveRun stores the report as the most recent run.
func (p *RedisProducer) SaveRun(ctx context.Context, report *domain.RunReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	if err := p.client.Set(ctx, lastRunKey, data, runTTL).Err(); err != nil {
		return fmt.Errorf("failed to save run report: %w", err)
	}
	return nil
}

// LastRun returns the most recent run, or nil when none is stored.
func (p *RedisProducer) LastRun(ctx context.Context) (*domain.RunReport, error) {
	data, err := p.client.Get(ctx, lastRunKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run report: %w", err)
	}

	var report domain.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode run report: %w", err)
	}
	return &report, nil
}

var (
	_ out.AssignmentPublisher = (*RedisProducer)(nil)
	_ out.RunStore            = (*RedisProducer)(nil)
)
