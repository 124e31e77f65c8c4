package crmvc

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	basemodels "github.com/soringifei/lapiqure-sub001/internal/api/base/models"
	crmdto "github.com/soringifei/lapiqure-sub001/internal/api/crm/dto"
	"github.com/soringifei/lapiqure-sub001/internal/api/crm/scoring"
	"github.com/soringifei/lapiqure-sub001/internal/common"
	"github.com/soringifei/lapiqure-sub001/internal/logger"
	"github.com/soringifei/lapiqure-sub001/internal/metrics"
	"github.com/soringifei/lapiqure-sub001/internal/utility"
)

// InsightsCacheKey key lưu kết quả tính gần nhất
const InsightsCacheKey = "crm:insights:snapshot"

// InsightsOptions giới hạn đọc dữ liệu + thời gian sống cache
type InsightsOptions struct {
	CustomerLimit int
	OrderLimit    int
	SegmentLimit  int
	CacheTTL      time.Duration
}

// DefaultInsightsOptions 200 khách, 500 đơn, 10 mục mỗi danh sách, cache 5 phút
func DefaultInsightsOptions() InsightsOptions {
	return InsightsOptions{CustomerLimit: 200, OrderLimit: 500, SegmentLimit: crmdto.DefaultSegmentLimit, CacheTTL: 5 * time.Minute}
}

// insightsSnapshot kết quả 1 lượt tính, được cache nguyên khối
type insightsSnapshot struct {
	Scores      []scoring.CustomerScore `json:"scores"`
	Labels      map[string]string       `json:"labels"`
	GeneratedAt int64                   `json:"generatedAt"`
	Source      string                  `json:"source"`
}

// CrmInsightsService tính điểm khách hàng cho dashboard, cache do caller truyền vào
type CrmInsightsService struct {
	source  InsightSource
	cache   utility.Cache
	metrics *metrics.Insights
	opts    InsightsOptions
	now     func() time.Time

	computeMu sync.Mutex // 1 lượt tính tại 1 thời điểm, các request còn lại đợi rồi đọc cache
}

// NewCrmInsightsService tạo service. m có thể nil.
func NewCrmInsightsService(source InsightSource, cache utility.Cache, m *metrics.Insights, opts InsightsOptions) *CrmInsightsService {
	def := DefaultInsightsOptions()
	if opts.CustomerLimit <= 0 {
		opts.CustomerLimit = def.CustomerLimit
	}
	if opts.OrderLimit <= 0 {
		opts.OrderLimit = def.OrderLimit
	}
	if opts.SegmentLimit <= 0 {
		opts.SegmentLimit = def.SegmentLimit
	}
	return &CrmInsightsService{
		source:  source,
		cache:   cache,
		metrics: m,
		opts:    opts,
		now:     time.Now,
	}
}

func (s *CrmInsightsService) log(ctx context.Context) *logrus.Entry {
	return logger.WithContext(ctx).WithFields(logrus.Fields{"module": "insights", "source": s.source.Name()})
}

// GetInsights payload đầy đủ cho dashboard. Không đọc được nguồn -> payload rỗng Degraded=true, không trả lỗi.
func (s *CrmInsightsService) GetInsights(ctx context.Context, q crmdto.CrmInsightsQuery) (*crmdto.CrmInsightsResponse, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		s.log(ctx).WithError(err).Warn("📉 [INSIGHTS] Không đọc được dữ liệu khách hàng, trả payload rỗng")
		return crmdto.NewEmptyInsightsResponse(s.now().UnixMilli(), s.source.Name()), nil
	}

	limit := q.SegmentLimit
	if limit <= 0 {
		limit = s.opts.SegmentLimit
	}
	if limit > crmdto.MaxSegmentLimit {
		limit = crmdto.MaxSegmentLimit
	}
	return buildInsightsResponse(snap, limit), nil
}

// ListScores danh sách xếp hạng có phân trang, lọc theo tier (vd "platinum,gold")
func (s *CrmInsightsService) ListScores(ctx context.Context, q crmdto.CrmInsightScoresQuery) (*basemodels.PaginateResult[crmdto.CrmInsightItem], error) {
	tiers, err := parseTierFilter(q.Tier)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]crmdto.CrmInsightItem, 0, len(snap.Scores))
	for _, sc := range snap.Scores {
		if len(tiers) > 0 && !tiers[sc.Tier] {
			continue
		}
		items = append(items, labeled(sc, snap.Labels))
	}
	return basemodels.PaginateSlice(items, q.Page, q.Limit), nil
}

// GetCustomerScore điểm của 1 khách, không có trong lượt tính -> common.ErrNotFound
func (s *CrmInsightsService) GetCustomerScore(ctx context.Context, customerId string) (*crmdto.CrmInsightItem, error) {
	customerId = strings.TrimSpace(customerId)
	if customerId == "" {
		return nil, common.ErrRequiredField
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for _, sc := range snap.Scores {
		if sc.CustomerID == customerId {
			item := labeled(sc, snap.Labels)
			return &item, nil
		}
	}
	return nil, common.ErrNotFound
}

// Invalidate xoá kết quả đang cache (sau khi nhập dữ liệu hàng loạt)
func (s *CrmInsightsService) Invalidate(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx, InsightsCacheKey); err != nil {
		return common.NewError(common.ErrCodeInsightsCache, "Không xoá được cache insights", common.StatusInternalServerError, err)
	}
	return nil
}

// Refresh xoá cache rồi tính lại ngay, trả về summary của lượt mới
func (s *CrmInsightsService) Refresh(ctx context.Context) (*crmdto.CrmInsightsRefreshResult, error) {
	if err := s.Invalidate(ctx); err != nil {
		return nil, err
	}

	s.computeMu.Lock()
	defer s.computeMu.Unlock()
	snap, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	return &crmdto.CrmInsightsRefreshResult{
		Customers:   len(snap.Scores),
		GeneratedAt: snap.GeneratedAt,
		Source:      snap.Source,
		Summary:     scoring.Summarize(snap.Scores),
	}, nil
}

// snapshot đọc cache, miss thì tính lại (giữ computeMu, đọc lại cache trước khi tính)
func (s *CrmInsightsService) snapshot(ctx context.Context) (*insightsSnapshot, error) {
	if snap, ok := s.fromCache(ctx); ok {
		s.metrics.CacheHit()
		return snap, nil
	}
	s.metrics.CacheMiss()

	s.computeMu.Lock()
	defer s.computeMu.Unlock()
	if snap, ok := s.fromCache(ctx); ok {
		return snap, nil
	}
	return s.compute(ctx)
}

func (s *CrmInsightsService) fromCache(ctx context.Context) (*insightsSnapshot, bool) {
	var snap insightsSnapshot
	found, err := s.cache.Get(ctx, InsightsCacheKey, &snap)
	if err != nil {
		s.log(ctx).WithError(err).Warn("Đọc cache insights thất bại, tính lại")
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &snap, true
}

// compute đọc nguồn + tính điểm với 1 mốc now duy nhất. Caller giữ computeMu.
// Lỗi nguồn không được cache.
func (s *CrmInsightsService) compute(ctx context.Context) (*insightsSnapshot, error) {
	started := time.Now()
	now := s.now()

	customers, err := s.source.LoadCustomers(ctx, s.opts.CustomerLimit)
	if err != nil {
		return nil, s.sourceFailed(started, err)
	}
	orders, err := s.source.LoadOrders(ctx, s.opts.OrderLimit)
	if err != nil {
		return nil, s.sourceFailed(started, err)
	}

	snap := buildSnapshot(customers, orders, now.UnixMilli(), s.source.Name())
	s.metrics.ObserveComputation(metrics.OutcomeOK, started, len(snap.Scores))
	if err := s.cache.Set(ctx, InsightsCacheKey, snap, s.opts.CacheTTL); err != nil {
		s.log(ctx).WithError(err).Warn("Ghi cache insights thất bại")
	}
	s.log(ctx).WithFields(logrus.Fields{
		"customers":   len(customers),
		"orders":      len(orders),
		"duration_ms": time.Since(started).Milliseconds(),
	}).Debug("📊 [INSIGHTS] Đã tính điểm khách hàng")
	return snap, nil
}

func (s *CrmInsightsService) sourceFailed(started time.Time, err error) error {
	s.metrics.ObserveComputation(metrics.OutcomeDegraded, started, 0)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return common.NewError(common.ErrCodeInsightsSource, common.ErrSourceUnavailable.Error(), common.StatusServiceUnavailable, err)
}
