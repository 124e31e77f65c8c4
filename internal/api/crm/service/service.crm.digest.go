package crmvc

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	crmdto "github.com/soringifei/lapiqure-sub001/internal/api/crm/dto"
	"github.com/soringifei/lapiqure-sub001/internal/api/crm/scoring"
	"github.com/soringifei/lapiqure-sub001/internal/common"
	"github.com/soringifei/lapiqure-sub001/internal/metrics"
)

// DigestSender kênh gửi email tổng hợp (SMTP)
type DigestSender interface {
	Send(ctx context.Context, recipients []string, subject, html string) error
}

const digestSubjectFormat = "[CRM] Tổng hợp khách hàng %s"

var digestTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{
	"percent": func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	"money":   func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2>Tổng hợp khách hàng</h2>
<p>Tính lúc {{.GeneratedAtText}}</p>
<ul>
  <li>Tổng khách: <b>{{.Summary.TotalCustomers}}</b></li>
  <li>Điểm RFM trung bình: <b>{{.Summary.AverageRfmScore}}</b></li>
  <li>Tổng CLV ước tính: <b>{{money .Summary.TotalClv}}</b></li>
  <li>Nguy cơ rời bỏ: <b>{{.Summary.ChurnRiskCount}}</b> khách</li>
</ul>
<h3>Khách có nguy cơ rời bỏ</h3>
{{if .AtRisk}}<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Khách</th><th>Recency (ngày)</th><th>Churn</th><th>Hạng</th></tr>
{{range .AtRisk}}<tr><td>{{.Label}}</td><td>{{.Recency}}</td><td>{{percent .ChurnRisk}}</td><td>{{.Tier}}</td></tr>
{{end}}</table>{{else}}<p>Không có.</p>{{end}}
<h3>Khách giá trị cao</h3>
{{if .HighValue}}<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Khách</th><th>CLV</th><th>RFM</th><th>Hạng</th></tr>
{{range .HighValue}}<tr><td>{{.Label}}</td><td>{{money .Clv}}</td><td>{{.RfmScore}}</td><td>{{.Tier}}</td></tr>
{{end}}</table>{{else}}<p>Không có.</p>{{end}}
</body></html>`))

type digestView struct {
	*crmdto.CrmInsightDigest
	GeneratedAtText string
}

// BuildDigest gom khách nguy cơ rời bỏ + giá trị cao từ lượt tính hiện tại
func (s *CrmInsightsService) BuildDigest(ctx context.Context, limit int) (*crmdto.CrmInsightDigest, error) {
	if limit <= 0 {
		limit = s.opts.SegmentLimit
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &crmdto.CrmInsightDigest{
		GeneratedAt: snap.GeneratedAt,
		Summary:     scoring.Summarize(snap.Scores),
		AtRisk:      topLabeled(scoring.FilterChurnRisk(snap.Scores), snap.Labels, limit),
		HighValue:   topLabeled(scoring.FilterHighValue(snap.Scores), snap.Labels, limit),
	}, nil
}

// RenderDigestHTML dựng HTML email; nhãn khách được escape bởi html/template
func RenderDigestHTML(d *crmdto.CrmInsightDigest) (string, error) {
	var buf bytes.Buffer
	view := digestView{
		CrmInsightDigest: d,
		GeneratedAtText:  time.UnixMilli(d.GeneratedAt).UTC().Format("2006-01-02 15:04 UTC"),
	}
	if err := digestTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

// SendDigest dựng digest và gửi qua sender. Chưa cấu hình sender/người nhận -> common.ErrDigestDisabled.
func (s *CrmInsightsService) SendDigest(ctx context.Context, sender DigestSender, recipients []string) (*crmdto.CrmInsightsDigestResult, error) {
	if sender == nil || len(recipients) == 0 {
		s.metrics.DigestSend(metrics.OutcomeSkipped)
		return nil, common.ErrDigestDisabled
	}

	runId := uuid.NewString()
	digest, err := s.BuildDigest(ctx, 0)
	if err != nil {
		s.metrics.DigestSend(metrics.OutcomeFailed)
		return nil, err
	}
	html, err := RenderDigestHTML(digest)
	if err != nil {
		s.metrics.DigestSend(metrics.OutcomeFailed)
		return nil, common.NewError(common.ErrCodeInsightsDigest, "Không dựng được nội dung email", common.StatusInternalServerError, err)
	}

	subject := fmt.Sprintf(digestSubjectFormat, time.UnixMilli(digest.GeneratedAt).UTC().Format("2006-01-02"))
	if err := sender.Send(ctx, recipients, subject, html); err != nil {
		s.metrics.DigestSend(metrics.OutcomeFailed)
		s.log(ctx).WithError(err).WithField("run_id", runId).Warn("📧 [INSIGHTS] Gửi email tổng hợp thất bại")
		return nil, common.NewError(common.ErrCodeInsightsDigest, "Gửi email tổng hợp thất bại", common.StatusBadGateway, err)
	}

	s.metrics.DigestSend(metrics.OutcomeSent)
	s.log(ctx).WithFields(logrus.Fields{
		"run_id":     runId,
		"recipients": len(recipients),
		"at_risk":    len(digest.AtRisk),
		"high_value": len(digest.HighValue),
	}).Info("📧 [INSIGHTS] Đã gửi email tổng hợp")

	return &crmdto.CrmInsightsDigestResult{
		RunId:      runId,
		Recipients: len(recipients),
		AtRisk:     len(digest.AtRisk),
		HighValue:  len(digest.HighValue),
		SentAt:     s.now().UnixMilli(),
	}, nil
}
