package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workplus/workplus/internal/capture"
	"github.com/workplus/workplus/internal/config"
	"github.com/workplus/workplus/internal/database"
	"github.com/workplus/workplus/internal/metrics"
	"github.com/workplus/workplus/internal/models"
	"github.com/workplus/workplus/internal/status"
	"github.com/workplus/workplus/internal/upload"
)

type fixedStatus status.Snapshot

func (f fixedStatus) Snapshot() status.Snapshot { return status.Snapshot(f) }

func newTestServer(t *testing.T, rec metrics.Recorder) (*httptest.Server, *database.Repository, *upload.FailedQueue) {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.BaseDir = base

	db, err := database.Connect(filepath.Join(base, "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })
	repo := database.NewRepository(db)

	queue := upload.NewFailedQueue(cfg.ScreenshotDir(), cfg.FailedDir())

	st := fixedStatus{
		Status:     status.Offline,
		Since:      time.Now().Add(-time.Minute),
		LastIdle:   95 * time.Second,
		LastSample: time.Now(),
	}

	h := NewHandler(zerolog.Nop(), cfg, st, queue, repo)
	srv := httptest.NewServer(NewServer(zerolog.Nop(), cfg, h, rec).Handler())
	t.Cleanup(srv.Close)

	return srv, repo, queue
}

func getJSON(t *testing.T, url string, into any) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if into != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, metrics.Noop())

	var body map[string]string
	resp := getJSON(t, srv.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestStatus(t *testing.T) {
	srv, _, _ := newTestServer(t, metrics.Noop())

	var body map[string]any
	resp := getJSON(t, srv.URL+"/api/status", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "offline", body["status"])
	assert.EqualValues(t, 95, body["idle_seconds"])
	assert.Equal(t, "30s", body["idle_threshold"])

	resp, err := http.Post(srv.URL+"/api/status", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestQueue(t *testing.T) {
	srv, _, queue := newTestServer(t, metrics.Noop())

	require.NoError(t, os.MkdirAll(queue.Dir(), 0o755))
	name := capture.FileName(time.Now())
	require.NoError(t, os.WriteFile(filepath.Join(queue.Dir(), name), []byte("png"), 0o644))

	var body struct {
		Depth   int `json:"depth"`
		Entries []struct {
			File string `json:"file"`
		} `json:"entries"`
	}
	getJSON(t, srv.URL+"/api/queue", &body)
	assert.Equal(t, 1, body.Depth)
	require.Len(t, body.Entries, 1)
	assert.Equal(t, name, body.Entries[0].File)
}

func TestTransitions(t *testing.T) {
	srv, repo, _ := newTestServer(t, metrics.Noop())

	now := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.RecordTransition(&models.StatusEvent{
			Timestamp: now.Add(time.Duration(i) * time.Minute),
			Status:    "offline",
			Previous:  "online",
		}))
	}

	var events []models.StatusEvent
	getJSON(t, srv.URL+"/api/transitions?limit=2", &events)
	assert.Len(t, events, 2)

	resp := getJSON(t, srv.URL+"/api/transitions?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrors(t *testing.T) {
	srv, repo, _ := newTestServer(t, metrics.Noop())

	require.NoError(t, repo.RecordError(models.ComponentCapture, "grabber failed"))

	var logs []models.ErrorLog
	resp := getJSON(t, srv.URL+"/api/errors", &logs)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, logs, 1)
	assert.Equal(t, "capture", logs[0].Component)
	assert.Equal(t, "grabber failed", logs[0].Message)
}

func TestReport(t *testing.T) {
	srv, repo, _ := newTestServer(t, metrics.Noop())

	require.NoError(t, repo.RecordTransition(&models.StatusEvent{
		Timestamp: time.Now().Add(-time.Minute),
		Status:    "online",
		Previous:  models.StatusStopped,
	}))

	var report models.Report
	resp := getJSON(t, srv.URL+"/api/report?period=day", &report)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "day", report.Period.Type)
	assert.Equal(t, "online", report.Status)

	resp = getJSON(t, srv.URL+"/api/report?period=decade", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSummaryFragment(t *testing.T) {
	srv, repo, _ := newTestServer(t, metrics.Noop())
	require.NoError(t, repo.RecordTransition(&models.StatusEvent{
		Timestamp: time.Now().Add(-10 * time.Minute),
		Status:    "online",
		Previous:  models.StatusStopped,
	}))

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/summary?period=today", nil)
	require.NoError(t, err)
	req.Header.Set("HX-Request", "true")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
	assert.Contains(t, string(body), `<span class="name">online</span>`)
}

func TestIndexAndNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t, metrics.Noop())

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, metrics.NewProvider(prometheus.NewRegistry()))

	getJSON(t, srv.URL+"/health", nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `workplus_http_request_duration_seconds_count{method="GET",path="/health",status="200"} 1`)
}

func TestServerAddress(t *testing.T) {
	cfg := config.Default()
	cfg.Web.Host = "localhost"
	cfg.Web.Port = 18080

	s := NewServer(zerolog.Nop(), cfg, NewHandler(zerolog.Nop(), cfg, fixedStatus{}, nil, nil), metrics.Noop())
	assert.Equal(t, "localhost:18080", s.GetAddress())
}
