// Package worker - Các worker chạy nền theo chu kỳ.
// InsightsRefreshWorker tính lại điểm khách hàng định kỳ và làm nóng cache để dashboard không phải đợi.
package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	crmdto "github.com/soringifei/lapiqure-sub001/internal/api/crm/dto"
	"github.com/soringifei/lapiqure-sub001/internal/logger"
)

const (
	DefaultRefreshInterval = 15 * time.Minute
	MinRefreshInterval     = time.Minute
	defaultWarmup          = 30 * time.Second
)

// InsightsRefresher phần của CrmInsightsService worker cần dùng
type InsightsRefresher interface {
	Refresh(ctx context.Context) (*crmdto.CrmInsightsRefreshResult, error)
}

// InsightsRefreshWorker worker tính lại điểm khách hàng định kỳ.
type InsightsRefreshWorker struct {
	refresher InsightsRefresher
	interval  time.Duration
	warmup    time.Duration // chờ trước lượt đầu, tránh chạy đúng lúc startup
}

// NewInsightsRefreshWorker tạo worker mới. interval < 1 phút -> 15 phút.
func NewInsightsRefreshWorker(refresher InsightsRefresher, interval time.Duration) *InsightsRefreshWorker {
	if interval < MinRefreshInterval {
		interval = DefaultRefreshInterval
	}
	return &InsightsRefreshWorker{refresher: refresher, interval: interval, warmup: defaultWarmup}
}

// Start chạy worker trong vòng lặp, dừng khi ctx bị hủy.
func (w *InsightsRefreshWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()
	log.WithFields(logrus.Fields{
		"interval": w.interval.String(),
		"warmup":   w.warmup.String(),
	}).Info("📊 [INSIGHTS_REFRESH] Starting Insights Refresh Worker...")

	if !sleepCtx(ctx, w.warmup) {
		log.Info("📊 [INSIGHTS_REFRESH] Insights Refresh Worker stopped")
		return
	}
	w.runOnce(ctx, log)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("📊 [INSIGHTS_REFRESH] Insights Refresh Worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx, log)
		}
	}
}

// runOnce 1 lượt tính lại; panic được bắt để lượt sau vẫn chạy
func (w *InsightsRefreshWorker) runOnce(ctx context.Context, log *logrus.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("📊 [INSIGHTS_REFRESH] Panic khi xử lý, sẽ tiếp tục lần chạy tiếp theo")
		}
	}()

	jobCtx := context.WithValue(ctx, logger.JobKey, "insights_refresh")
	started := time.Now()
	res, err := w.refresher.Refresh(jobCtx)
	if err != nil {
		log.WithError(err).Warn("📊 [INSIGHTS_REFRESH] Tính lại thất bại, lượt sau thử lại")
		return
	}
	log.WithFields(logrus.Fields{
		"customers":   res.Customers,
		"source":      res.Source,
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("📊 [INSIGHTS_REFRESH] Đã làm mới điểm khách hàng")
}

// sleepCtx chờ d, trả false nếu ctx bị hủy trước
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
