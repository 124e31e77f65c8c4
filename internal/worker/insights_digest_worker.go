package worker

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	crmdto "github.com/soringifei/lapiqure-sub001/internal/api/crm/dto"
	crmvc "github.com/soringifei/lapiqure-sub001/internal/api/crm/service"
	"github.com/soringifei/lapiqure-sub001/internal/common"
	"github.com/soringifei/lapiqure-sub001/internal/logger"
)

const DefaultDigestInterval = 24 * time.Hour

// DigestBuilder phần của CrmInsightsService worker cần dùng
type DigestBuilder interface {
	SendDigest(ctx context.Context, sender crmvc.DigestSender, recipients []string) (*crmdto.CrmInsightsDigestResult, error)
}

// InsightsDigestWorker gửi email tổng hợp khách nguy cơ rời bỏ + giá trị cao theo chu kỳ.
type InsightsDigestWorker struct {
	digest     DigestBuilder
	sender     crmvc.DigestSender
	recipients []string
	interval   time.Duration
	timeout    time.Duration
}

// NewInsightsDigestWorker tạo worker mới. interval < 1 giờ -> 24 giờ.
func NewInsightsDigestWorker(digest DigestBuilder, sender crmvc.DigestSender, recipients []string, interval time.Duration) *InsightsDigestWorker {
	if interval < time.Hour {
		interval = DefaultDigestInterval
	}
	return &InsightsDigestWorker{
		digest:     digest,
		sender:     sender,
		recipients: recipients,
		interval:   interval,
		timeout:    time.Minute,
	}
}

// Enabled true khi có sender và người nhận
func (w *InsightsDigestWorker) Enabled() bool {
	return w.sender != nil && len(w.recipients) > 0
}

// Start chạy worker trong vòng lặp, không cấu hình SMTP thì thoát ngay.
func (w *InsightsDigestWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()
	if !w.Enabled() {
		log.Info("📧 [INSIGHTS_DIGEST] Chưa cấu hình SMTP hoặc người nhận, bỏ qua worker")
		return
	}

	log.WithFields(logrus.Fields{
		"interval":   w.interval.String(),
		"recipients": len(w.recipients),
	}).Info("📧 [INSIGHTS_DIGEST] Starting Insights Digest Worker...")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("📧 [INSIGHTS_DIGEST] Insights Digest Worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx, log)
		}
	}
}

func (w *InsightsDigestWorker) runOnce(ctx context.Context, log *logrus.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("📧 [INSIGHTS_DIGEST] Panic khi gửi email, sẽ thử lại lần chạy tiếp theo")
		}
	}()

	jobCtx, cancel := context.WithTimeout(context.WithValue(ctx, logger.JobKey, "insights_digest"), w.timeout)
	defer cancel()

	res, err := w.digest.SendDigest(jobCtx, w.sender, w.recipients)
	switch {
	case errors.Is(err, common.ErrDigestDisabled):
		log.Debug("📧 [INSIGHTS_DIGEST] Digest bị tắt")
	case err != nil:
		log.WithError(err).Warn("📧 [INSIGHTS_DIGEST] Gửi email tổng hợp thất bại")
	default:
		log.WithFields(logrus.Fields{
			"at_risk":    res.AtRisk,
			"high_value": res.HighValue,
		}).Info("📧 [INSIGHTS_DIGEST] Đã gửi email tổng hợp")
	}
}
