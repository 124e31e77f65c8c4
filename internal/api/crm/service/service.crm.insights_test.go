package crmvc

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	crmdto "github.com/soringifei/lapiqure-sub001/internal/api/crm/dto"
	crmmodels "github.com/soringifei/lapiqure-sub001/internal/api/crm/models"
	"github.com/soringifei/lapiqure-sub001/internal/api/crm/scoring"
	"github.com/soringifei/lapiqure-sub001/internal/common"
	"github.com/soringifei/lapiqure-sub001/internal/utility"
)

var testNow = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

const dayMs = int64(24 * time.Hour / time.Millisecond)

type fakeSource struct {
	mu        sync.Mutex
	customers []crmmodels.CrmCustomer
	orders    []crmmodels.CrmOrder
	err       error
	calls     int
	lastLimit int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) LoadCustomers(_ context.Context, limit int) ([]crmmodels.CrmCustomer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.customers, nil
}

func (f *fakeSource) LoadOrders(_ context.Context, _ int) ([]crmmodels.CrmOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func sampleSource() *fakeSource {
	now := testNow.UnixMilli()
	return &fakeSource{
		customers: []crmmodels.CrmCustomer{
			{CustomerId: "c1", Name: "Alice", TotalSpent: 5000, LastPurchaseAt: now - dayMs},
			{CustomerId: "c2", Email: "bob@example.com", TotalSpent: 1500, LastPurchaseAt: now - 100*dayMs},
			{CustomerId: "c3", TotalSpent: 0},
		},
		orders: []crmmodels.CrmOrder{
			{OrderId: "o1", CustomerId: "c1", TotalAmount: 4000},
			{OrderId: "o2", CustomerId: "c1", TotalAmount: 3000},
			{OrderId: "o3", CustomerId: "c1", TotalAmount: 3000},
			{OrderId: "o4", CustomerId: "c2", TotalAmount: 2000},
			{OrderId: "o5", CustomerId: "ghost", TotalAmount: 999},
		},
	}
}

func newTestService(src InsightSource) (*CrmInsightsService, *utility.MemoryCache) {
	cache := utility.NewMemoryCache(0)
	svc := NewCrmInsightsService(src, cache, nil, InsightsOptions{CacheTTL: time.Minute})
	svc.now = func() time.Time { return testNow }
	return svc, cache
}

func TestGetInsights_BuildsLabeledPayload(t *testing.T) {
	svc, _ := newTestService(sampleSource())

	res, err := svc.GetInsights(context.Background(), crmdto.CrmInsightsQuery{})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.False(t, res.Degraded)
	assert.Equal(t, testNow.UnixMilli(), res.GeneratedAt)
	assert.Equal(t, "fake", res.Source)
	assert.Equal(t, 3, res.Summary.TotalCustomers)
	assert.Equal(t, 1, res.Summary.TierCounts[scoring.TierPlatinum])
	assert.Equal(t, 1, res.Summary.TierCounts[scoring.TierSilver])
	assert.Equal(t, 1, res.Summary.TierCounts[scoring.TierProspect])

	require.Len(t, res.TopCustomers, 3)
	assert.Equal(t, "c1", res.TopCustomers[0].CustomerID)
	assert.Equal(t, "Alice", res.TopCustomers[0].Label)
	assert.Equal(t, 3, res.TopCustomers[0].Frequency)
	assert.Equal(t, 15000.0, res.TopCustomers[0].Clv)
	assert.Equal(t, "bob@example.com", res.TopCustomers[1].Label)
	assert.Equal(t, "c3", res.TopCustomers[2].Label)

	require.Len(t, res.HighValue, 1)
	assert.Equal(t, "c1", res.HighValue[0].CustomerID)
	require.Len(t, res.AtRisk, 1)
	assert.Equal(t, "c2", res.AtRisk[0].CustomerID)

	assert.Equal(t, 1, res.Segments.Champions.Count)
	assert.Equal(t, 1, res.Segments.Dormant.Count)
	assert.Equal(t, "c3", res.Segments.Dormant.Items[0].CustomerID)
}

func TestGetInsights_SegmentLimit(t *testing.T) {
	svc, _ := newTestService(sampleSource())

	res, err := svc.GetInsights(context.Background(), crmdto.CrmInsightsQuery{SegmentLimit: 1})
	require.NoError(t, err)
	assert.Len(t, res.TopCustomers, 1)
	// count vẫn là tổng số, chỉ items bị cắt
	assert.Equal(t, 2, res.Segments.NewCustomers.Count)
	assert.Len(t, res.Segments.NewCustomers.Items, 1)
}

func TestGetInsights_UsesCache(t *testing.T) {
	src := sampleSource()
	svc, _ := newTestService(src)
	ctx := context.Background()

	_, err := svc.GetInsights(ctx, crmdto.CrmInsightsQuery{})
	require.NoError(t, err)
	_, err = svc.GetInsights(ctx, crmdto.CrmInsightsQuery{})
	require.NoError(t, err)

	assert.Equal(t, 1, src.callCount())
	assert.Equal(t, 200, src.lastLimit)
}

func TestGetInsights_DegradesOnSourceError(t *testing.T) {
	src := sampleSource()
	src.setErr(errors.New("connection refused"))
	svc, cache := newTestService(src)
	ctx := context.Background()

	res, err := svc.GetInsights(ctx, crmdto.CrmInsightsQuery{})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Degraded)
	assert.Equal(t, 0, res.Summary.TotalCustomers)
	assert.NotNil(t, res.HighValue)
	assert.Empty(t, res.HighValue)
	assert.NotNil(t, res.AtRisk)
	assert.NotNil(t, res.Growth)
	assert.NotNil(t, res.TopCustomers)
	assert.NotNil(t, res.Segments.Champions.Items)
	assert.Equal(t, 0, res.Summary.TierCounts[scoring.TierGold])
	assert.Equal(t, 0, cache.Len(), "payload degraded không được cache")

	// nguồn hồi phục -> lượt sau tính bình thường
	src.setErr(nil)
	res, err = svc.GetInsights(ctx, crmdto.CrmInsightsQuery{})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Equal(t, 3, res.Summary.TotalCustomers)
}

func TestGetInsights_EmptySource(t *testing.T) {
	svc, _ := newTestService(&fakeSource{})

	res, err := svc.GetInsights(context.Background(), crmdto.CrmInsightsQuery{})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Empty(t, res.TopCustomers)
	assert.NotNil(t, res.TopCustomers)
	assert.Equal(t, 0, res.Summary.TotalCustomers)
}

func TestListScores_TierFilterAndPaging(t *testing.T) {
	svc, _ := newTestService(sampleSource())
	ctx := context.Background()

	page, err := svc.ListScores(ctx, crmdto.CrmInsightScoresQuery{Tier: "Platinum, silver"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c1", page.Items[0].CustomerID)
	assert.Equal(t, "c2", page.Items[1].CustomerID)

	page, err = svc.ListScores(ctx, crmdto.CrmInsightScoresQuery{Page: 2, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c2", page.Items[0].CustomerID)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, int64(3), page.TotalPage)

	_, err = svc.ListScores(ctx, crmdto.CrmInsightScoresQuery{Tier: "diamond"})
	require.Error(t, err)
	assert.Equal(t, common.StatusBadRequest, common.StatusOf(err))
}

func TestListScores_SourceErrorIsReturned(t *testing.T) {
	src := sampleSource()
	src.setErr(errors.New("boom"))
	svc, _ := newTestService(src)

	_, err := svc.ListScores(context.Background(), crmdto.CrmInsightScoresQuery{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrSourceUnavailable))
	assert.Equal(t, common.StatusServiceUnavailable, common.StatusOf(err))
}

func TestGetCustomerScore(t *testing.T) {
	svc, _ := newTestService(sampleSource())
	ctx := context.Background()

	item, err := svc.GetCustomerScore(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", item.Label)
	assert.Equal(t, 100, item.Recency)
	assert.Equal(t, 0.5, item.ChurnRisk)

	_, err = svc.GetCustomerScore(ctx, "ghost")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	_, err = svc.GetCustomerScore(ctx, "  ")
	assert.True(t, errors.Is(err, common.ErrRequiredField))
}

func TestRefresh_RecomputesAndStores(t *testing.T) {
	src := sampleSource()
	svc, cache := newTestService(src)
	ctx := context.Background()

	_, err := svc.GetInsights(ctx, crmdto.CrmInsightsQuery{})
	require.NoError(t, err)

	src.mu.Lock()
	src.customers = src.customers[:1]
	src.mu.Unlock()

	res, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Customers)
	assert.Equal(t, 2, src.callCount())
	assert.Equal(t, 1, cache.Len())

	insights, err := svc.GetInsights(ctx, crmdto.CrmInsightsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, insights.Summary.TotalCustomers)
	assert.Equal(t, 2, src.callCount())
}

func TestInvalidate(t *testing.T) {
	svc, cache := newTestService(sampleSource())
	ctx := context.Background()

	_, err := svc.GetInsights(ctx, crmdto.CrmInsightsQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	require.NoError(t, svc.Invalidate(ctx))
	assert.Equal(t, 0, cache.Len())
}

func TestGetInsights_ConcurrentMissesComputeOnce(t *testing.T) {
	src := sampleSource()
	svc, _ := newTestService(src)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.GetInsights(context.Background(), crmdto.CrmInsightsQuery{})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, src.callCount())
}

type fakeSender struct {
	recipients []string
	subject    string
	html       string
	err        error
}

func (f *fakeSender) Send(_ context.Context, recipients []string, subject, html string) error {
	f.recipients = recipients
	f.subject = subject
	f.html = html
	return f.err
}

func TestSendDigest(t *testing.T) {
	src := sampleSource()
	src.customers[0].Name = "<script>alert(1)</script>"
	svc, _ := newTestService(src)
	ctx := context.Background()

	sender := &fakeSender{}
	res, err := svc.SendDigest(ctx, sender, []string{"ops@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Recipients)
	assert.Len(t, res.RunId, 36)
	assert.Equal(t, 1, res.AtRisk)
	assert.Equal(t, 1, res.HighValue)

	assert.Equal(t, "[CRM] Tổng hợp khách hàng 2026-01-01", sender.subject)
	assert.Contains(t, sender.html, "bob@example.com")
	assert.False(t, strings.Contains(sender.html, "<script>"), "nhãn khách phải được escape")
	assert.Contains(t, sender.html, "&lt;script&gt;")
}

func TestSendDigest_Disabled(t *testing.T) {
	svc, _ := newTestService(sampleSource())

	_, err := svc.SendDigest(context.Background(), &fakeSender{}, nil)
	assert.True(t, errors.Is(err, common.ErrDigestDisabled))

	_, err = svc.SendDigest(context.Background(), nil, []string{"a@b.c"})
	assert.True(t, errors.Is(err, common.ErrDigestDisabled))
}

func TestSendDigest_SenderError(t *testing.T) {
	svc, _ := newTestService(sampleSource())

	_, err := svc.SendDigest(context.Background(), &fakeSender{err: errors.New("smtp down")}, []string{"a@b.c"})
	require.Error(t, err)
	assert.Equal(t, 502, common.StatusOf(err))
}
