package dashsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smallbiznis/zyra/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDashboardServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "correct-horse" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"type":"unauthorized","message":"unauthorized"}}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "tok-1", Path: "/"})
		_, _ = w.Write([]byte(`{"user":{"id":"1"}}`))
	})
	mux.HandleFunc("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie(sessionCookieName); err != nil || ck.Value != "tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"type":"unauthorized","message":"unauthorized"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(sampleSnapshot())
	})
	mux.HandleFunc("/api/products/optimize-all", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"type":"conflict","message":"optimization already running, please wait"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	t.Cleanup(c.http.CloseIdleConnections)
	return c
}

func TestClientLoginAndDashboard(t *testing.T) {
	srv := newDashboardServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.Dashboard(ctx)
	assert.True(t, IsUnauthorized(err))

	require.NoError(t, c.Login(ctx, "a@x.com", "correct-horse"))
	assert.Equal(t, "tok-1", c.SessionToken())

	snap, err := c.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.ToolCount("seo"))
}

func TestClientRestoresSession(t *testing.T) {
	srv := newDashboardServer(t)
	c := newTestClient(t, srv)

	c.SetSessionToken("tok-1")
	_, err := c.Dashboard(context.Background())
	assert.NoError(t, err)
}

func TestClientDecodesErrorEnvelope(t *testing.T) {
	srv := newDashboardServer(t)
	c := newTestClient(t, srv)

	err := c.Login(context.Background(), "a@x.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "unauthorized", apiErr.Type)

	_, err = c.OptimizeAll(context.Background())
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "conflict", apiErr.Type)
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := NewClient("localhost:8080")
	assert.Error(t, err)
}

type capturedRequest struct {
	path          string
	correlationID string
	body          map[string]any
}

func newCaptureServer(t *testing.T) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()
	seen := make(chan capturedRequest, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := capturedRequest{path: r.URL.Path, correlationID: r.Header.Get(correlation.Header)}
		_ = json.NewDecoder(r.Body).Decode(&req.body)
		seen <- req
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestClientLogActivity(t *testing.T) {
	srv, seen := newCaptureServer(t)
	c := newTestClient(t, srv)
	ctx := correlation.ContextWithCorrelationID(context.Background(), "cid-1")

	err := c.LogActivity(ctx, LogActivityRequest{
		Action:      "export_report",
		Description: "Exported the weekly report",
		Metadata:    map[string]any{"format": "csv"},
	})
	require.NoError(t, err)

	req := <-seen
	assert.Equal(t, "/api/dashboard/log-activity", req.path)
	assert.Equal(t, "cid-1", req.correlationID)
	assert.Equal(t, "export_report", req.body["action"])
	assert.NotContains(t, req.body, "toolUsed")
	assert.Equal(t, map[string]any{"format": "csv"}, req.body["metadata"])
}

func TestClientUpdateUsageGeneratesCorrelationID(t *testing.T) {
	srv, seen := newCaptureServer(t)
	c := newTestClient(t, srv)

	require.NoError(t, c.UpdateUsage(context.Background(), "emailsSent", 3))

	req := <-seen
	assert.Equal(t, "/api/dashboard/update-usage", req.path)
	assert.NotEmpty(t, req.correlationID)
	assert.Equal(t, "emailsSent", req.body["field"])
	assert.Equal(t, float64(3), req.body["increment"])
}
