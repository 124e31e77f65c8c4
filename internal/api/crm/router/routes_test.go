package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	crmmodels "github.com/soringifei/lapiqure-sub001/internal/api/crm/models"
	crmvc "github.com/soringifei/lapiqure-sub001/internal/api/crm/service"
	"github.com/soringifei/lapiqure-sub001/internal/api/middleware"
	apirouter "github.com/soringifei/lapiqure-sub001/internal/api/router"
	"github.com/soringifei/lapiqure-sub001/internal/global"
	"github.com/soringifei/lapiqure-sub001/internal/metrics"
	"github.com/soringifei/lapiqure-sub001/internal/utility"
)

const testSecret = "routes-secret"

type stubSource struct {
	mu  sync.Mutex
	err error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) LoadCustomers(context.Context, int) ([]crmmodels.CrmCustomer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	now := time.Now().UnixMilli()
	return []crmmodels.CrmCustomer{
		{CustomerId: "c1", Name: "Alice", TotalSpent: 8000, LastPurchaseAt: now - 2*24*3600*1000},
		{CustomerId: "c2", Email: "bob@example.com", TotalSpent: 300, LastPurchaseAt: now - 200*24*3600*1000},
	}, nil
}

func (s *stubSource) LoadOrders(context.Context, int) ([]crmmodels.CrmOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return []crmmodels.CrmOrder{
		{OrderId: "o1", CustomerId: "c1", TotalAmount: 5000},
		{OrderId: "o2", CustomerId: "c1", TotalAmount: 3000},
		{OrderId: "o3", CustomerId: "c2", TotalAmount: 300},
	}, nil
}

type envelope struct {
	Code    interface{}     `json:"code"`
	Message string          `json:"message"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T, src crmvc.InsightSource, verifier middleware.TokenVerifier) *fiber.App {
	t.Helper()
	global.InitValidator()

	cache := utility.NewMemoryCache(0)
	t.Cleanup(func() { _ = cache.Close() })
	m := metrics.New()
	svc := crmvc.NewCrmInsightsService(src, cache, m, crmvc.InsightsOptions{CacheTTL: time.Minute})

	app := fiber.New()
	r := apirouter.NewRouter(app, cache, m)
	require.NoError(t, r.SetupRoutes(NewRegister(Deps{Insights: svc, Verifier: verifier})))
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return resp.StatusCode, env
}

func TestGetInsights_OK(t *testing.T) {
	app := newTestApp(t, &stubSource{}, nil)

	status, env := call(t, app, "GET", "/api/v1/crm/insights?segmentLimit=5", "")
	require.Equal(t, 200, status)
	assert.Equal(t, "success", env.Status)

	var data struct {
		Degraded     bool `json:"degraded"`
		TopCustomers []struct {
			CustomerID string `json:"customerId"`
			Label      string `json:"label"`
			Tier       string `json:"tier"`
		} `json:"topCustomers"`
		AtRisk []struct {
			CustomerID string `json:"customerId"`
		} `json:"atRisk"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.False(t, data.Degraded)
	require.Len(t, data.TopCustomers, 2)
	assert.Equal(t, "Alice", data.TopCustomers[0].Label)
	assert.Equal(t, "bob@example.com", data.TopCustomers[1].Label)
}

func TestGetInsights_DegradedStill200(t *testing.T) {
	app := newTestApp(t, &stubSource{err: errors.New("mongo down")}, nil)

	status, env := call(t, app, "GET", "/api/v1/crm/insights", "")
	require.Equal(t, 200, status)

	var data struct {
		Degraded     bool              `json:"degraded"`
		HighValue    []json.RawMessage `json:"highValue"`
		TopCustomers []json.RawMessage `json:"topCustomers"`
		Summary      struct {
			TotalCustomers int `json:"totalCustomers"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.Degraded)
	assert.NotNil(t, data.HighValue)
	assert.Empty(t, data.TopCustomers)
	assert.Equal(t, 0, data.Summary.TotalCustomers)
}

func TestGetInsights_InvalidQuery(t *testing.T) {
	app := newTestApp(t, &stubSource{}, nil)

	status, env := call(t, app, "GET", "/api/v1/crm/insights?segmentLimit=1000", "")
	assert.Equal(t, 400, status)
	assert.Equal(t, "error", env.Status)
}

func TestListScores(t *testing.T) {
	app := newTestApp(t, &stubSource{}, nil)

	status, env := call(t, app, "GET", "/api/v1/crm/insights/scores?tier=platinum&limit=10", "")
	require.Equal(t, 200, status)
	var page struct {
		Items []struct {
			CustomerID string `json:"customerId"`
		} `json:"items"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c1", page.Items[0].CustomerID)

	status, _ = call(t, app, "GET", "/api/v1/crm/insights/scores?tier=diamond", "")
	assert.Equal(t, 400, status)
}

func TestGetCustomerScore(t *testing.T) {
	app := newTestApp(t, &stubSource{}, nil)

	status, env := call(t, app, "GET", "/api/v1/crm/insights/customers/c2", "")
	require.Equal(t, 200, status)
	var item struct {
		CustomerID string  `json:"customerId"`
		ChurnRisk  float64 `json:"churnRisk"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, "c2", item.CustomerID)
	assert.Equal(t, 1.0, item.ChurnRisk)

	status, _ = call(t, app, "GET", "/api/v1/crm/insights/customers/nobody", "")
	assert.Equal(t, 404, status)
}

func TestRefreshAndDigest(t *testing.T) {
	app := newTestApp(t, &stubSource{}, nil)

	status, env := call(t, app, "POST", "/api/v1/crm/insights/refresh", "")
	require.Equal(t, 200, status)
	var res struct {
		Customers int `json:"customers"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 2, res.Customers)

	// chưa cấu hình SMTP
	status, _ = call(t, app, "POST", "/api/v1/crm/insights/digest", "")
	assert.Equal(t, 400, status)
}

func TestRoutes_RequireAuth(t *testing.T) {
	app := newTestApp(t, &stubSource{}, middleware.NewJWTVerifier(testSecret))

	status, _ := call(t, app, "GET", "/api/v1/crm/insights", "")
	assert.Equal(t, 401, status)

	tok, err := middleware.SignServiceToken(testSecret, "dashboard", time.Minute)
	require.NoError(t, err)
	status, _ = call(t, app, "GET", "/api/v1/crm/insights", tok)
	assert.Equal(t, 200, status)

	// health không cần token
	status, _ = call(t, app, "GET", "/api/v1/system/health", "")
	assert.Equal(t, 200, status)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, &stubSource{}, nil)
	_, _ = call(t, app, "GET", "/api/v1/crm/insights", "")

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "crm_insights_computations_total")
}
