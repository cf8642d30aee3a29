package http

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"sorter/core/domain"
	"sorter/pkg/apperr"
)

type fakeSettings struct {
	categories []domain.Category
	order      []domain.CategoryID
	err        error
}

func (f *fakeSettings) EnsureDefaults(context.Context, []domain.Category) error { return nil }

func (f *fakeSettings) Categories(context.Context) ([]domain.Category, error) {
	return f.categories, f.err
}

func (f *fakeSettings) GetSettings(context.Context) (*domain.Settings, error) {
	return &domain.Settings{CategoryOrder: f.order}, nil
}

type fakeContacts struct {
	counts map[domain.CategoryID]int
	byID   map[string]*domain.Contact
}

func (f *fakeContacts) Upsert(context.Context, []domain.ExtractedContact) (int, error) { return 0, nil }
func (f *fakeContacts) GetByID(_ context.Context, id string) (*domain.Contact, error) {
	if c, ok := f.byID[id]; ok {
		return c, nil
	}
	return nil, apperr.NotFound("contact " + id)
}
func (f *fakeContacts) List(context.Context, domain.ContactFilter) ([]*domain.Contact, error) {
	return nil, nil
}
func (f *fakeContacts) UpdateCategory(context.Context, domain.CategoryAssignment) error { return nil }
func (f *fakeContacts) CountByCategory(context.Context) (map[domain.CategoryID]int, error) {
	return f.counts, nil
}

type fakeRuns struct {
	last *domain.RunReport
}

func (f *fakeRuns) SaveRun(_ context.Context, r *domain.RunReport) error { f.last = r; return nil }
func (f *fakeRuns) LastRun(context.Context) (*domain.RunReport, error)   { return f.last, nil }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func get(t *testing.T, h Registrar, path string) (int, envelope, string) {
	t.Helper()
	app := NewApp(zerolog.Nop(), true, h)
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(body, &env))
	}
	return resp.StatusCode, env, string(body)
}

func TestStatusHandler_CategoriesOrdered(t *testing.T) {
	settings := &fakeSettings{
		categories: domain.DefaultCategories()[:3],
		order:      []domain.CategoryID{domain.CategoryMidYielding, domain.CategoryUncategorized},
	}
	contacts := &fakeContacts{counts: map[domain.CategoryID]int{domain.CategoryUncategorized: 7}}
	h := NewStatusHandler(settings, contacts, nil, nil)

	status, env, _ := get(t, h, "/categories")
	require.Equal(t, 200, status)
	assert.True(t, env.Success)

	var views []CategoryView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 3)
	assert.Equal(t, domain.CategoryMidYielding, views[0].ID)
	assert.Equal(t, domain.CategoryUncategorized, views[1].ID)
	assert.Equal(t, 7, views[1].Count)
	assert.Equal(t, domain.CategoryHighYielding, views[2].ID)
}

func TestStatusHandler_CategoriesStoreError(t *testing.T) {
	h := NewStatusHandler(&fakeSettings{err: errors.New("boom")}, nil, nil, nil)
	status, env, _ := get(t, h, "/categories")
	assert.Equal(t, 500, status)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)

	status, env, _ = get(t, NewStatusHandler(nil, nil, nil, nil), "/categories")
	assert.Equal(t, 503, status)
	assert.Equal(t, "STORE_NOT_CONFIGURED", env.Error.Code)
}

func TestStatusHandler_Contact(t *testing.T) {
	contact := domain.NewContact(domain.ExtractedContact{ID: "contact-1", Identifier: "+13175551234", MessageCount: 60})
	contact.CategoryID = domain.CategoryPurdue
	h := NewStatusHandler(nil, &fakeContacts{byID: map[string]*domain.Contact{"contact-1": contact}}, nil, nil)

	status, env, _ := get(t, h, "/contacts/contact-1")
	require.Equal(t, 200, status)
	var got domain.Contact
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "contact-1", got.ID)
	assert.Equal(t, domain.CategoryPurdue, got.CategoryID)

	status, env, _ = get(t, h, "/contacts/contact-404")
	assert.Equal(t, 404, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env, _ = get(t, NewStatusHandler(nil, nil, nil, nil), "/contacts/contact-1")
	assert.Equal(t, 503, status)
	assert.Equal(t, "STORE_NOT_CONFIGURED", env.Error.Code)
}

func TestStatusHandler_LastRun(t *testing.T) {
	runs := &fakeRuns{}
	h := NewStatusHandler(nil, nil, runs, nil)

	status, env, _ := get(t, h, "/runs/last")
	assert.Equal(t, 404, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	report := &domain.RunReport{RunID: "run-1", Command: "classify", StartedAt: time.Now().UTC(), Classified: 4}
	report.Finish(time.Now().UTC(), nil)
	require.NoError(t, runs.SaveRun(context.Background(), report))

	status, env, _ = get(t, h, "/runs/last")
	require.Equal(t, 200, status)
	var got domain.RunReport
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 4, got.Classified)
}

func TestStatusHandler_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "sorter_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	status, _, body := get(t, NewStatusHandler(nil, nil, nil, reg), "/metrics")
	assert.Equal(t, 200, status)
	assert.Contains(t, body, "sorter_test_total 1")
}

type fakeDB struct {
	stats sql.DBStats
	err   error
}

func (f *fakeDB) PingContext(context.Context) error { return f.err }
func (f *fakeDB) Stats() sql.DBStats                { return f.stats }

func readiness(t *testing.T, h *HealthHandler) (int, Readiness) {
	t.Helper()
	app := NewApp(zerolog.Nop(), true, h)
	resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
	require.NoError(t, err)
	var r Readiness
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	return resp.StatusCode, r
}

func TestHealthHandler(t *testing.T) {
	status, _, body := get(t, NewHealthHandler(nil, nil), "/health")
	assert.Equal(t, 200, status)
	assert.Contains(t, body, `"status":"ok"`)

	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	code, r := readiness(t, NewHealthHandler(db, nil))
	assert.Equal(t, 200, code)
	assert.True(t, r.Ready)
	assert.Equal(t, StoreUp, r.ContactDB.State)
	require.NotNil(t, r.ContactDB.Pool)
	assert.Equal(t, StoreNotConfigured, r.EventStream.State)

	require.NoError(t, db.Close())
	code, r = readiness(t, NewHealthHandler(db, nil))
	assert.Equal(t, 503, code)
	assert.False(t, r.Ready)
	assert.Equal(t, StoreDown, r.ContactDB.State)
	assert.NotEmpty(t, r.ContactDB.Error)
}

func TestHealthHandler_NothingConfiguredIsReady(t *testing.T) {
	code, r := readiness(t, NewHealthHandler(nil, nil))
	assert.Equal(t, 200, code)
	assert.True(t, r.Ready)
	assert.Equal(t, StoreNotConfigured, r.ContactDB.State)
}

func TestHealthHandler_SaturatedPoolNotReady(t *testing.T) {
	db := &fakeDB{stats: sql.DBStats{MaxOpenConnections: 10, OpenConnections: 10, InUse: 10}}
	code, r := readiness(t, NewHealthHandler(db, nil))
	assert.Equal(t, 503, code)
	assert.Equal(t, StoreDegraded, r.ContactDB.State)
	assert.Equal(t, "unhealthy", string(r.ContactDB.Pool.Status))

	down := &fakeDB{err: errors.New("connection refused")}
	code, r = readiness(t, NewHealthHandler(down, nil))
	assert.Equal(t, 503, code)
	assert.Equal(t, "connection refused", r.ContactDB.Error)
}
