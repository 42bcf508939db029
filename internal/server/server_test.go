package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairrank/pairrank/internal/model"
	"github.com/pairrank/pairrank/internal/registry"
	"github.com/pairrank/pairrank/internal/server"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	reg := registry.New(nil)
	srv := server.New(server.ServerConfig{
		Registry:            reg,
		Logger:              logger,
		Port:                0,
		ReadTimeout:         5 * time.Second,
		WriteTimeout:        5 * time.Second,
		Version:             "test",
		MaxRequestBodyBytes: 1 << 20,
		CORSAllowedOrigins:  []string{"https://example.com"},
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target))
}

func TestHealth_EphemeralMode(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status model.HealthStatus
	decodeBody(t, resp, &status)
	assert.Equal(t, "ok", status.Status)
	assert.True(t, status.MemoryMode)
	assert.False(t, status.DBConnected)
}

func TestAddComparison_ThenListTasksAndRankings(t *testing.T) {
	ts := newTestServer(t)
	listID := "list-0001"

	resp := postJSON(t, ts, "/api/comparisons/add", map[string]string{
		"list_id":           listID,
		"task_a_content":    "write tests",
		"task_b_content":    "write docs",
		"winner_content":    "write tests",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	tasksResp, err := http.Post(ts.URL+"/api/tasks", "application/json",
		bytes.NewReader([]byte(`{"list_id":"`+listID+`"}`)))
	require.NoError(t, err)
	var items []model.Item
	decodeBody(t, tasksResp, &items)
	assert.Len(t, items, 2)

	rankResp := postJSON(t, ts, "/api/rankings", map[string]string{"list_id": listID})
	var rankings model.Rankings
	decodeBody(t, rankResp, &rankings)
	require.Len(t, rankings.Entries, 2)
	assert.Equal(t, "write tests", rankings.Entries[0].Content)
	assert.Equal(t, 1, rankings.Entries[0].Rank)
}

func TestAddComparison_ShortListID_Returns400(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts, "/api/comparisons/add", map[string]string{
		"list_id":        "short",
		"task_a_content": "a",
		"task_b_content": "b",
		"winner_content": "a",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "INVALID_ARGUMENT", body["error"])
}

func TestAddComparison_InvalidWinner_Returns400(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts, "/api/comparisons/add", map[string]string{
		"list_id":        "list-0002",
		"task_a_content": "a",
		"task_b_content": "b",
		"winner_content": "c",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteTask_NonExistentIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts, "/api/tasks/delete", map[string]string{
		"list_id": "list-0003",
		"content": "never existed",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]bool
	decodeBody(t, resp, &body)
	assert.True(t, body["ok"])
}

func TestComparisonsContent_FullLogInTimeOrder(t *testing.T) {
	ts := newTestServer(t)
	listID := "list-0004"

	postJSON(t, ts, "/api/comparisons/add", map[string]string{
		"list_id": listID, "task_a_content": "a", "task_b_content": "b", "winner_content": "a",
	}).Body.Close()
	postJSON(t, ts, "/api/comparisons/add", map[string]string{
		"list_id": listID, "task_a_content": "b", "task_b_content": "c", "winner_content": "c",
	}).Body.Close()

	resp := postJSON(t, ts, "/api/comparisons/content", map[string]string{"list_id": listID})
	var body struct {
		Comparisons []model.Comparison `json:"comparisons"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Comparisons, 2)
	assert.Equal(t, "a", body.Comparisons[0].TaskA)
	assert.Equal(t, "b", body.Comparisons[1].TaskA)
}

func TestCORS_ReflectsAllowedOrigin(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.com")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORS_RejectsDisallowedOrigin(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example.com")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRequestID_EchoedAndGenerated(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, "client-supplied-id", resp.Header.Get("X-Request-ID"))

	resp2, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	assert.NotEmpty(t, resp2.Header.Get("X-Request-ID"))
}

func TestUnknownRoute_Returns404(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/nonexistent")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
