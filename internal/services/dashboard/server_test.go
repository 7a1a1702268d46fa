package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tx-code/subwatch/internal/domain/observation"
	"github.com/tx-code/subwatch/internal/domain/schedule"
	"github.com/tx-code/subwatch/internal/repository/file"
	"github.com/tx-code/subwatch/internal/services/monitor"
)

type stubClock struct{}

func (stubClock) Now() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

type stubMonitor struct {
	status  monitor.Status
	ok      bool
	err     error
	invoked int
}

func (m *stubMonitor) Status() monitor.Status { return m.status }
func (m *stubMonitor) CheckNow(context.Context) (bool, error) {
	m.invoked++
	return m.ok, m.err
}

func newTestServer(t *testing.T, m *stubMonitor) (*Server, *file.StateStore, *file.ObservationLog) {
	t.Helper()
	dir := t.TempDir()
	defaults := schedule.DefaultState("https://www.reddit.com/r/CNC/", 10, dir, true, stubClock{}.Now())
	store := file.NewStateStore(filepath.Join(dir, "config.json"), defaults, stubClock{}, zap.NewNop())
	history := file.NewObservationLog(dir)
	return New(zap.NewNop(), m, store, history), store, history
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestGetStatus(t *testing.T) {
	m := &stubMonitor{status: monitor.Status{URL: "https://www.reddit.com/r/CNC/", TotalChecks: 7, SuccessRate: 85.7}}
	s, _, _ := newTestServer(t, m)

	w := doRequest(s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got monitor.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, 7, got.TotalChecks)
	require.InDelta(t, 85.7, got.SuccessRate, 1e-9)
}

func TestCheckNowConflictWhenInFlight(t *testing.T) {
	m := &stubMonitor{err: monitor.ErrCheckInFlight}
	s, _, _ := newTestServer(t, m)

	w := doRequest(s, http.MethodPost, "/api/check-now", "")
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, 1, m.invoked)
}

func TestCheckNowSuccess(t *testing.T) {
	m := &stubMonitor{ok: true}
	s, _, _ := newTestServer(t, m)

	w := doRequest(s, http.MethodPost, "/api/check-now", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"success":true`)
}

func TestPutConfigValid(t *testing.T) {
	s, store, _ := newTestServer(t, &stubMonitor{})

	w := doRequest(s, http.MethodPut, "/api/config", `{"monitor":{"interval_minutes":5}}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 5, store.State().Monitor.IntervalMinutes)
	// Untouched settings survive the partial update.
	require.Equal(t, "https://www.reddit.com/r/CNC/", store.State().Monitor.URL)
}

func TestPutConfigInvalidURL(t *testing.T) {
	s, store, _ := newTestServer(t, &stubMonitor{})

	w := doRequest(s, http.MethodPut, "/api/config", `{"monitor":{"url":"ftp://example.com"}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "http/https")
	require.Equal(t, "https://www.reddit.com/r/CNC/", store.State().Monitor.URL)
}

func TestPutConfigMalformedBody(t *testing.T) {
	s, _, _ := newTestServer(t, &stubMonitor{})
	w := doRequest(s, http.MethodPut, "/api/config", `{"monitor":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetHistory(t *testing.T) {
	s, _, history := newTestServer(t, &stubMonitor{})
	online := 150
	for i := 0; i < 3; i++ {
		_, err := history.Append(&observation.Observation{
			Timestamp:   stubClock{}.Now(),
			Subreddit:   "CNC",
			OnlineCount: &online,
			Success:     true,
		})
		require.NoError(t, err)
	}

	w := doRequest(s, http.MethodGet, "/api/history?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"count":2`)
}

func TestGetHistoryRejectsBadLimit(t *testing.T) {
	s, _, _ := newTestServer(t, &stubMonitor{})
	w := doRequest(s, http.MethodGet, "/api/history?limit=zero", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTargets(t *testing.T) {
	s, _, _ := newTestServer(t, &stubMonitor{})
	w := doRequest(s, http.MethodGet, "/api/urls", "")
	require.Equal(t, http.StatusOK, w.Code)

	var targets []Target
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &targets))
	require.Len(t, targets, 6)
}
