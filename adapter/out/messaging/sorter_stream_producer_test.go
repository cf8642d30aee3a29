package messaging

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorter/core/domain"
	"sorter/core/port/out"
	"sorter/pkg/apperr"
)

func sampleEvent() *out.AssignmentEvent {
	return out.NewAssignmentEvent("run-1", domain.CategoryAssignment{
		ContactID: "contact-6",
		Category:  domain.CategoryPtr(domain.CategoryArchived),
		Reason:    "duplicate of contact-5",
		Source:    domain.SourceDuplicate,
	}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestEventValues(t *testing.T) {
	values, err := eventValues(sampleEvent())
	require.NoError(t, err)
	assert.Equal(t, "contact-6", values["contact_id"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &decoded))
	assert.Equal(t, "archived", decoded["category"])
	assert.Equal(t, "duplicate", decoded["source"])
	assert.Equal(t, "2026-01-02T03:04:05Z", decoded["timestamp"])
}

func TestEventValues_NilCategoryOmitted(t *testing.T) {
	ev := out.NewAssignmentEvent("run-1", domain.CategoryAssignment{
		ContactID: "contact-1", Reason: "no messages", Source: domain.SourceEra,
	}, time.Now())
	values, err := eventValues(ev)
	require.NoError(t, err)
	assert.NotContains(t, values["data"], `"category"`)
}

func TestNewRedisProducer_DefaultStream(t *testing.T) {
	p := NewRedisProducer(nil, "")
	assert.Equal(t, StreamContactsCategorized, p.Stream())
}

func TestRedisProducer_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	err := NewRedisProducer(client, "").PublishAssignment(context.Background(), sampleEvent())
	assert.True(t, apperr.HasCode(err, apperr.CodePublishFailed))
}

func TestRedisProducer_Live(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	stream := "test:contacts:categorized"
	client.Del(ctx, stream, lastRunKey)

	p := NewRedisProducer(client, stream)
	require.NoError(t, p.PublishAssignment(ctx, sampleEvent()))

	entries, err := client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "contact-6", entries[0].Values["contact_id"])

	none, err := p.LastRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	report := &domain.RunReport{RunID: "run-1", Command: "run", StartedAt: time.Now().UTC()}
	report.Finish(time.Now().UTC(), nil)
	require.NoError(t, p.SaveRun(ctx, report))

	got, err := p.LastRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, domain.RunSucceeded, got.Status)
}
