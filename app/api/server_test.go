package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartyg/competitionnotify/app/competition"
	"github.com/smartyg/competitionnotify/app/console"
	"github.com/smartyg/competitionnotify/app/database"
	"github.com/smartyg/competitionnotify/app/notify"
)

const testKey = "secret"

type fakeStatus struct{}

func (fakeStatus) Snapshot() ([]competition.Competition, time.Time) {
	return make([]competition.Competition, 2), time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
}

func (fakeStatus) Running() int { return 1 }

type fixture struct {
	router        *gin.Engine
	notifications *database.NotificationRepo
	processed     *database.ProcessedRepo
}

func newFixture(t *testing.T, apiKey string) *fixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	processed := database.NewProcessedRepository(db)
	notifications := database.NewNotificationRepository(db, 0)

	c := console.New()
	require.NoError(t, c.Register(console.NotificationsModule(notifications)))

	handler := NewHandler(processed, notifications,
		notify.NewFeedGenerator("http://localhost:8080", "https://inschrijven.schaatsen.nl", "test"),
		c, fakeStatus{}, "test")

	return &fixture{
		router:        NewServer(handler, apiKey),
		notifications: notifications,
		processed:     processed,
	}
}

func (f *fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthAndStats(t *testing.T) {
	f := newFixture(t, "")

	w := f.do("GET", "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decodeJSON(t, w)
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, 0, health["processed"])

	w = f.do("GET", "/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeJSON(t, w)
	assert.EqualValues(t, 2, stats["discovered"])
	assert.EqualValues(t, 1, stats["running_tasks"])
}

func TestNotificationsFeed(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.notifications.Enqueue(context.Background(), uuid.New(), nil, "<p>open</p>")
	require.NoError(t, err)

	w := f.do("GET", "/feeds/notifications", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Feed-Items"))

	feed, err := gofeed.NewParser().ParseString(w.Body.String())
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "<p>open</p>", feed.Items[0].Content)
}

func TestAPIDisabledWithoutKey(t *testing.T) {
	f := newFixture(t, "")

	w := f.do("GET", "/api/processed", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIRequiresKey(t *testing.T) {
	f := newFixture(t, testKey)

	w := f.do("GET", "/api/processed", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do("GET", "/api/processed", "", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do("GET", "/api/processed", "", map[string]string{"Authorization": "Bearer " + testKey})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decodeJSON(t, w)["count"])

	w = f.do("GET", "/api/processed?limit=abc", "", map[string]string{"X-API-Key": testKey})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIGetNotification(t *testing.T) {
	f := newFixture(t, testKey)
	auth := map[string]string{"X-API-Key": testKey}

	id, err := f.notifications.Enqueue(context.Background(), uuid.New(), []uuid.UUID{uuid.New()}, "body")
	require.NoError(t, err)

	w := f.do("GET", "/api/notifications/"+id.String(), "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body", decodeJSON(t, w)["body"])

	w = f.do("GET", "/api/notifications/"+uuid.NewString(), "", auth)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do("GET", "/api/notifications/nope", "", auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIConsole(t *testing.T) {
	f := newFixture(t, testKey)
	auth := map[string]string{"X-API-Key": testKey}

	w := f.do("POST", "/api/console/notifications/count", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeJSON(t, w)
	assert.EqualValues(t, 200, out["response"])
	assert.EqualValues(t, 0, out["data"])

	w = f.do("POST", "/api/console/notifications/pending", `{"limit": 5}`, auth)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do("POST", "/api/console/missing/count", "", auth)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do("POST", "/api/console/notifications/explode", "", auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do("POST", "/api/console/notifications/pending", `{"limit":`, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do("POST", "/api/console/notifications/get", `{"id": 12}`, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, "")

	w := f.do("GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
