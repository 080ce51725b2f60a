package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/smallbiznis/zyra/internal/dashsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zyra", "session")

	_, err := loadSession(path)
	assert.ErrorIs(t, err, errNotLoggedIn)

	require.NoError(t, saveSession(path, "tok-1"))
	token, err := loadSession(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	assert.Error(t, saveSession(path, ""))
}

func TestTrackRequiresLogin(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"track", "seo-optimizer", "--session-file", filepath.Join(t.TempDir(), "missing")})

	err := cmd.Execute()
	assert.ErrorIs(t, err, errNotLoggedIn)
}

type fakeDashboard struct {
	*httptest.Server
	optimizeCalls atomic.Int32
	bodies        chan map[string]any
}

func newFakeDashboard(t *testing.T) *fakeDashboard {
	t.Helper()
	f := &fakeDashboard{bodies: make(chan map[string]any, 4)}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"id":"1","email":"a@x.com"}}`))
	})
	mux.HandleFunc("/api/products/optimize-all", func(w http.ResponseWriter, r *http.Request) {
		f.optimizeCalls.Add(1)
		_, _ = w.Write([]byte(`{"optimized":3,"duplicatesRemoved":1}`))
	})
	capture := func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("_sid"); err != nil || ck.Value != "tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"type":"unauthorized","message":"unauthorized"}}`))
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.bodies <- body
		w.WriteHeader(http.StatusNoContent)
	}
	mux.HandleFunc("/api/dashboard/log-activity", capture)
	mux.HandleFunc("/api/dashboard/update-usage", capture)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func runCmd(t *testing.T, srv *httptest.Server, session string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(append(args, "--server", srv.URL, "--session-file", session))
	err := cmd.Execute()
	return out.String(), err
}

func TestOptimizeAllWindowSpansInvocations(t *testing.T) {
	srv := newFakeDashboard(t)
	session := filepath.Join(t.TempDir(), "session")
	require.NoError(t, saveSession(session, "tok-1"))

	out, err := runCmd(t, srv.Server, session, "optimize-all")
	require.NoError(t, err)
	assert.Contains(t, out, "optimized 3 products, removed 1 duplicates")
	assert.FileExists(t, session+".optimize-all")

	_, err = runCmd(t, srv.Server, session, "optimize-all")
	assert.ErrorIs(t, err, dashsync.ErrPleaseWait)
	assert.Equal(t, int32(1), srv.optimizeCalls.Load())
}

func TestLogAndUsageCommands(t *testing.T) {
	srv := newFakeDashboard(t)
	session := filepath.Join(t.TempDir(), "session")
	require.NoError(t, saveSession(session, "tok-1"))

	_, err := runCmd(t, srv.Server, session, "log", "export_report", "Exported the weekly report", "--tool", "reports", "--meta", "format=csv")
	require.NoError(t, err)
	body := <-srv.bodies
	assert.Equal(t, "export_report", body["action"])
	assert.Equal(t, "reports", body["toolUsed"])
	assert.Equal(t, map[string]any{"format": "csv"}, body["metadata"])

	out, err := runCmd(t, srv.Server, session, "usage", "emailsSent", "--increment", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "emailsSent incremented by 4")
	body = <-srv.bodies
	assert.Equal(t, float64(4), body["increment"])
}

func TestExpiredSessionSuggestsLogin(t *testing.T) {
	srv := newFakeDashboard(t)
	session := filepath.Join(t.TempDir(), "session")
	require.NoError(t, saveSession(session, "stale"))

	_, err := runCmd(t, srv.Server, session, "usage", "emailsSent")
	require.True(t, dashsync.IsUnauthorized(err))
	assert.Contains(t, errorMessage(err), "zyractl login")
	assert.NotContains(t, errorMessage(errNotLoggedIn), "session missing")
}
