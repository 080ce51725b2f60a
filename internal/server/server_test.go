package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	aiprovider "github.com/smallbiznis/zyra/internal/aitext/provider"
	aiservice "github.com/smallbiznis/zyra/internal/aitext/service"
	authrepository "github.com/smallbiznis/zyra/internal/auth/repository"
	authservice "github.com/smallbiznis/zyra/internal/auth/service"
	"github.com/smallbiznis/zyra/internal/auth/session"
	billingdomain "github.com/smallbiznis/zyra/internal/billing/domain"
	billingprovider "github.com/smallbiznis/zyra/internal/billing/provider"
	billingservice "github.com/smallbiznis/zyra/internal/billing/service"
	"github.com/smallbiznis/zyra/internal/clock"
	"github.com/smallbiznis/zyra/internal/config"
	"github.com/smallbiznis/zyra/internal/migration"
	notificationservice "github.com/smallbiznis/zyra/internal/notification/service"
	"github.com/smallbiznis/zyra/internal/observability"
	productdomain "github.com/smallbiznis/zyra/internal/product/domain"
	productrepository "github.com/smallbiznis/zyra/internal/product/repository"
	productservice "github.com/smallbiznis/zyra/internal/product/service"
	"github.com/smallbiznis/zyra/internal/ratelimit"
	"github.com/smallbiznis/zyra/internal/usagestats/liveevents"
	sqlstore "github.com/smallbiznis/zyra/internal/usagestats/repository/sql"
	usageservice "github.com/smallbiznis/zyra/internal/usagestats/service"
	"github.com/smallbiznis/zyra/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServer struct {
	t       *testing.T
	engine  *gin.Engine
	limiter *ratelimit.Limiter
}

// newTestServer wires every service against one in-memory SQLite database
// with the offline AI and billing providers.
func newTestServer(t *testing.T, limiter *ratelimit.Limiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.Run(conn, "sqlite"))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	clk := clock.SystemClock{}
	cfg := config.Config{HTTPAddr: ":0"}
	catalog := config.NewStaticCatalogHolder(config.DefaultCatalog())
	hub := liveevents.NewHub()

	users, sessions := authrepository.New(conn)
	authsvc := authservice.New(authservice.Params{
		Log:         log,
		Repo:        users,
		SessionRepo: sessions,
		GenID:       node,
		Clock:       clk,
	})
	usage := usageservice.New(usageservice.Params{
		Store:   sqlstore.New(conn),
		Log:     log,
		Clock:   clk,
		Catalog: catalog,
		Hub:     hub,
	})

	srv := NewServer(ServerParams{
		Gin:      NewEngine(observability.Config{}, nil),
		Cfg:      cfg,
		Log:      log,
		Authsvc:  authsvc,
		Sessions: session.NewManager(cfg),
		Usagesvc: usage,
		ProductSvc: productservice.New(productservice.Params{
			DB:      conn,
			Log:     log,
			GenID:   node,
			Repo:    productrepository.Provide(),
			Clock:   clk,
			Catalog: catalog,
			Usage:   usage,
		}),
		AISvc: aiservice.New(aiservice.Params{
			Generator: aiprovider.NewLocal(),
			Usage:     usage,
			Log:       log,
		}),
		BillingSvc: billingservice.New(billingservice.Params{
			DB:       conn,
			Log:      log,
			GenID:    node,
			Clock:    clk,
			Catalog:  catalog,
			Provider: billingprovider.NewLocal(clk),
			Usage:    usage,
		}),
		NotificationSvc: notificationservice.New(notificationservice.Params{
			DB:    conn,
			Log:   log,
			GenID: node,
			Clock: clk,
		}),
		LiveEvents: hub,
		Limiter:    limiter,
	})

	return &testServer{t: t, engine: srv.Engine(), limiter: limiter}
}

func newTestLimiter(t *testing.T, ratePerMin, burst int64) *ratelimit.Limiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return ratelimit.NewLimiter(config.Config{AI: config.AIConfig{RatePerMin: ratePerMin, Burst: burst}}, client)
}

func (ts *testServer) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

type registered struct {
	cookie *http.Cookie
	userID snowflake.ID
}

func (ts *testServer) register(email string) registered {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/register", map[string]string{
		"email":       email,
		"password":    "correct-horse",
		"displayName": "Ada",
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decode(ts.t, rec, &body)
	id, err := snowflake.ParseString(body.User.ID)
	require.NoError(ts.t, err)

	for _, c := range rec.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			return registered{cookie: c, userID: id}
		}
	}
	ts.t.Fatal("session cookie not set")
	return registered{}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Errors  []struct {
			Field string `json:"field"`
			Code  string `json:"code"`
		} `json:"errors"`
	} `json:"error"`
}

func TestRegisterSeedsDashboard(t *testing.T) {
	ts := newTestServer(t, nil)
	user := ts.register("a@x.com")

	rec := ts.do(http.MethodGet, "/api/dashboard", nil, user.cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Profile    map[string]any `json:"profile"`
		UsageStats struct {
			TotalRevenue      int64 `json:"totalRevenue"`
			ProductsOptimized int64 `json:"productsOptimized"`
		} `json:"usageStats"`
		ActivityLogs []struct {
			Action string `json:"action"`
		} `json:"activityLogs"`
		ToolsAccess     []any `json:"toolsAccess"`
		RealtimeMetrics []any `json:"realtimeMetrics"`
	}
	decode(t, rec, &body)

	assert.Equal(t, "a@x.com", body.User.Email)
	assert.NotNil(t, body.Profile)
	assert.GreaterOrEqual(t, body.UsageStats.TotalRevenue, int64(10000))
	assert.Less(t, body.UsageStats.TotalRevenue, int64(60000))
	assert.Zero(t, body.UsageStats.ProductsOptimized)
	require.NotEmpty(t, body.ActivityLogs)
	assert.Equal(t, usageservice.ActionUserLogin, body.ActivityLogs[0].Action)
}

func TestDashboardRequiresSession(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "unauthorized", body.Error.Type)

	rec = ts.do(http.MethodGet, "/api/dashboard", nil, &http.Cookie{Name: session.DefaultCookieName, Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.register("dup@x.com")

	rec := ts.do(http.MethodPost, "/api/register", map[string]string{
		"email":    "DUP@x.com",
		"password": "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/register", map[string]string{
		"email":    "short@x.com",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "validation_error", body.Error.Type)
	require.Len(t, body.Error.Errors, 1)
	assert.Equal(t, "password", body.Error.Errors[0].Field)
}

func TestLogoutEndsSession(t *testing.T) {
	ts := newTestServer(t, nil)
	user := ts.register("bye@x.com")

	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/me", nil, user.cookie).Code)
	require.Equal(t, http.StatusNoContent, ts.do(http.MethodPost, "/api/logout", nil, user.cookie).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/me", nil, user.cookie).Code)
}

func TestLoginSetsCookie(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.register("login@x.com")

	rec := ts.do(http.MethodPost, "/api/login", map[string]string{
		"email":    "login@x.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Result().Cookies())

	rec = ts.do(http.MethodPost, "/api/login", map[string]string{
		"email":    "login@x.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTrackToolAccessCounts(t *testing.T) {
	ts := newTestServer(t, nil)
	user := ts.register("tools@x.com")

	for i := 0; i < 2; i++ {
		rec := ts.do(http.MethodPost, "/api/dashboard/track-tool-access", map[string]string{"toolName": "seo"}, user.cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := ts.do(http.MethodGet, "/api/dashboard", nil, user.cookie)
	var body struct {
		ToolsAccess []struct {
			ToolName    string `json:"toolName"`
			AccessCount int64  `json:"accessCount"`
		} `json:"toolsAccess"`
	}
	decode(t, rec, &body)
	require.Len(t, body.ToolsAccess, 1)
	assert.Equal(t, "seo", body.ToolsAccess[0].ToolName)
	assert.Equal(t, int64(2), body.ToolsAccess[0].AccessCount)
}

func TestUpdateUsage(t *testing.T) {
	ts := newTestServer(t, nil)
	user := ts.register("usage@x.com")

	rec := ts.do(http.MethodPost, "/api/dashboard/update-usage", map[string]any{"field": "emailsSent", "increment": 3}, user.cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stats struct {
		EmailsSent int64 `json:"emailsSent"`
	}
	decode(t, rec, &stats)
	assert.Equal(t, int64(3), stats.EmailsSent)

	rec = ts.do(http.MethodPost, "/api/dashboard/update-usage", map[string]any{"field": "bogus"}, user.cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	require.Len(t, body.Error.Errors, 1)
	assert.Equal(t, "invalid_field", body.Error.Errors[0].Code)
	assert.Equal(t, "field", body.Error.Errors[0].Field)
}

func TestLogActivityAndRefreshMetrics(t *testing.T) {
	ts := newTestServer(t, nil)
	user := ts.register("feed@x.com")

	rec := ts.do(http.MethodPost, "/api/dashboard/log-activity", map[string]any{
		"action":      "email_campaign",
		"description": "Sent spring sale",
		"toolUsed":    "email",
		"metadata":    map[string]any{"recipients": 120},
	}, user.cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/api/dashboard/refresh-metrics", nil, user.cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var metrics struct {
		RealtimeMetrics []struct {
			MetricName string `json:"metricName"`
		} `json:"realtimeMetrics"`
	}
	decode(t, rec, &metrics)
	assert.Len(t, metrics.RealtimeMetrics, 4)
}

func TestOptimizeAllDeduplicates(t *testing.T) {
	ts := newTestServer(t, nil)
	user := ts.register("shop@x.com")

	for _, p := range []map[string]any{
		{"name": "foo bar", "category": "Electronics", "price": 1000},
		{"name": "Foo Bar", "category": "electronics", "price": 1200},
	} {
		rec := ts.do(http.MethodPost, "/api/products", p, user.cookie)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		time.Sleep(2 * time.Millisecond)
	}

	rec := ts.do(http.MethodPost, "/api/products/optimize-all", nil, user.cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result productdomain.OptimizeAllResult
	decode(t, rec, &result)
	assert.Equal(t, 1, result.Optimized)
	assert.Equal(t, 1, result.DuplicatesRemoved)

	rec = ts.do(http.MethodGet, "/api/products", nil, user.cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var list productdomain.ListResponse
	decode(t, rec, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Foo Bar", list.Items[0].Name)
	assert.True(t, list.Items[0].IsOptimized)
}

func TestOptimizeAllRejectsConcurrentRun(t *testing.T) {
	limiter := newTestLimiter(t, 60, 10)
	ts := newTestServer(t, limiter)
	user := ts.register("busy@x.com")

	token, ok, err := limiter.TryLockOptimizeAll(context.Background(), user.userID.String())
	require.NoError(t, err)
	require.True(t, ok)

	rec := ts.do(http.MethodPost, "/api/products/optimize-all", nil, user.cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.NoError(t, limiter.ReleaseOptimizeAll(context.Background(), user.userID.String(), token))
	rec = ts.do(http.MethodPost, "/api/products/optimize-all", nil, user.cookie)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestProductOwnership(t *testing.T) {
	ts := newTestServer(t, nil)
	owner := ts.register("owner@x.com")
	other := ts.register("other@x.com")

	rec := ts.do(http.MethodPost, "/api/products", map[string]any{"name": "Lamp", "category": "home", "price": 4500}, owner.cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created productdomain.Response
	decode(t, rec, &created)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/products/"+created.ID, nil, other.cookie).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/products/"+created.ID, nil, other.cookie).Code)

	rec = ts.do(http.MethodPatch, "/api/products/"+created.ID, map[string]any{"price": 5000}, owner.cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/products/"+created.ID, nil, owner.cookie).Code)
}

func TestGenerateDescription(t *testing.T) {
	ts := newTestServer(t, nil)
	user := ts.register("copy@x.com")

	rec := ts.do(http.MethodPost, "/api/generate-description", map[string]string{
		"productName": "Blue Mug",
		"category":    "home",
		"brandVoice":  "pirate",
	}, user.cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/generate-description", map[string]string{
		"productName": "Blue Mug",
		"category":    "home",
		"features":    "ceramic, dishwasher safe",
		"audience":    "coffee lovers",
		"brandVoice":  "casual",
	}, user.cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Description string `json:"description"`
	}
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.Description)

	rec = ts.do(http.MethodGet, "/api/dashboard", nil, user.cookie)
	var body struct {
		UsageStats struct {
			AIGenerationsUsed int64 `json:"aiGenerationsUsed"`
		} `json:"usageStats"`
	}
	decode(t, rec, &body)
	assert.Equal(t, int64(1), body.UsageStats.AIGenerationsUsed)
}

func TestOptimizeSEOScoreInRange(t *testing.T) {
	ts := newTestServer(t, nil)
	user := ts.register("seo@x.com")

	rec := ts.do(http.MethodPost, "/api/optimize-seo", map[string]string{
		"currentTitle": "Blue Mug",
		"keywords":     "coffee, ceramic",
		"category":     "home",
	}, user.cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		OptimizedTitle string   `json:"optimizedTitle"`
		Keywords       []string `json:"keywords"`
		SEOScore       int      `json:"seoScore"`
	}
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.OptimizedTitle)
	assert.NotEmpty(t, resp.Keywords)
	assert.GreaterOrEqual(t, resp.SEOScore, 0)
	assert.LessOrEqual(t, resp.SEOScore, 100)
}

func TestAIRateLimit(t *testing.T) {
	ts := newTestServer(t, newTestLimiter(t, 1, 1))
	user := ts.register("limited@x.com")

	body := map[string]string{"productName": "Mug", "category": "home", "brandVoice": "sales"}
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/generate-description", body, user.cookie).Code)

	rec := ts.do(http.MethodPost, "/api/generate-description", body, user.cookie)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestBillingFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	user := ts.register("pay@x.com")

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/subscription", nil, user.cookie).Code)

	rec := ts.do(http.MethodGet, "/api/subscription/plans", nil, user.cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var plans struct {
		Plans []config.Plan `json:"plans"`
	}
	decode(t, rec, &plans)
	assert.NotEmpty(t, plans.Plans)

	rec = ts.do(http.MethodPost, "/api/subscription", map[string]string{"plan": "platinum"}, user.cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/subscription", map[string]string{"plan": "growth"}, user.cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sub billingdomain.Subscription
	decode(t, rec, &sub)
	assert.Equal(t, "growth", sub.PlanCode)

	rec = ts.do(http.MethodPost, "/api/subscription", map[string]string{"plan": "growth"}, user.cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodGet, "/api/invoices", nil, user.cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var invoices struct {
		Invoices []billingdomain.Invoice `json:"invoices"`
	}
	decode(t, rec, &invoices)
	require.Len(t, invoices.Invoices, 1)

	rec = ts.do(http.MethodGet, fmt.Sprintf("/api/invoices/%s/pdf", invoices.Invoices[0].ID), nil, user.cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = ts.do(http.MethodPost, "/api/subscription/cancel", nil, user.cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &sub)
	assert.Equal(t, billingdomain.StatusCanceled, sub.Status)
}

func TestPaymentMethods(t *testing.T) {
	ts := newTestServer(t, nil)
	user := ts.register("card@x.com")

	rec := ts.do(http.MethodPost, "/api/payment-methods", map[string]string{"token": "tok_visa_4242"}, user.cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first billingdomain.PaymentMethod
	decode(t, rec, &first)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "4242", first.Last4)

	rec = ts.do(http.MethodPost, "/api/payment-methods", map[string]string{"token": "tok_amex_0005"}, user.cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var second billingdomain.PaymentMethod
	decode(t, rec, &second)
	assert.False(t, second.IsDefault)

	rec = ts.do(http.MethodPatch, "/api/payment-methods/"+second.ID.String()+"/default", nil, user.cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/payment-methods/"+first.ID.String(), nil, user.cookie).Code)

	rec = ts.do(http.MethodGet, "/api/payment-methods", nil, user.cookie)
	var list struct {
		PaymentMethods []billingdomain.PaymentMethod `json:"paymentMethods"`
	}
	decode(t, rec, &list)
	require.Len(t, list.PaymentMethods, 1)
	assert.True(t, list.PaymentMethods[0].IsDefault)
}

func TestNotificationsFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	user := ts.register("inbox@x.com")

	rec := ts.do(http.MethodPost, "/api/notifications", map[string]string{"title": "Welcome", "message": "Hello"}, user.cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rec, &created)

	rec = ts.do(http.MethodGet, "/api/notifications?unread=true", nil, user.cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items       []any `json:"items"`
		UnreadCount int64 `json:"unreadCount"`
	}
	decode(t, rec, &list)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, int64(1), list.UnreadCount)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPatch, "/api/notifications/"+created.ID, map[string]any{}, user.cookie).Code)
	require.Equal(t, http.StatusOK, ts.do(http.MethodPatch, "/api/notifications/"+created.ID, map[string]any{"read": true}, user.cookie).Code)

	rec = ts.do(http.MethodPost, "/api/notifications/read-all", nil, user.cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/notifications/"+created.ID, nil, user.cookie).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/notifications/"+created.ID, nil, user.cookie).Code)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{productdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{productdomain.ErrOptimizeInFlight, http.StatusConflict, "conflict"},
		{productdomain.ErrInvalidName, http.StatusBadRequest, "validation_error"},
		{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{ErrServiceUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{fmt.Errorf("%w: card declined", billingdomain.ErrUpstream), http.StatusInternalServerError, "upstream_error"},
		{fmt.Errorf("usagestats.increment: %w", errors.New("disk full")), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, payload := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.kind, payload.Type, tc.err.Error())
	}

	_, payload := mapError(fmt.Errorf("usagestats.increment: %w", errors.New("disk full")))
	assert.NotContains(t, payload.Message, "disk full")
}
