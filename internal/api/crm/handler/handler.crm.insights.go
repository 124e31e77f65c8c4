// Package crmhdl - Handler báo cáo điểm khách hàng (RFM, CLV, churn, hạng, nhóm hành vi).
package crmhdl

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	basehdl "github.com/soringifei/lapiqure-sub001/internal/api/base/handler"
	crmdto "github.com/soringifei/lapiqure-sub001/internal/api/crm/dto"
	crmvc "github.com/soringifei/lapiqure-sub001/internal/api/crm/service"
	"github.com/soringifei/lapiqure-sub001/internal/logger"
)

// digestTimeout giới hạn thời gian gửi email khi gọi trực tiếp qua API
const digestTimeout = 30 * time.Second

// CrmInsightsHandler xử lý API /crm/insights.
type CrmInsightsHandler struct {
	basehdl.BaseHandler
	InsightsService *crmvc.CrmInsightsService
	Sender          crmvc.DigestSender // nil khi chưa cấu hình SMTP
	Recipients      []string
}

// NewCrmInsightsHandler tạo CrmInsightsHandler mới.
func NewCrmInsightsHandler(svc *crmvc.CrmInsightsService, sender crmvc.DigestSender, recipients []string) *CrmInsightsHandler {
	return &CrmInsightsHandler{InsightsService: svc, Sender: sender, Recipients: recipients}
}

// HandleGetInsights xử lý GET /crm/insights: payload dashboard.
// Luôn 200: lỗi đọc dữ liệu trả payload rỗng với degraded=true. Query: segmentLimit.
func (h *CrmInsightsHandler) HandleGetInsights(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var q crmdto.CrmInsightsQuery
		if err := h.ParseRequestQuery(c, &q); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		result, err := h.InsightsService.GetInsights(logger.ContextFromRequest(c), q)
		h.HandleResponse(c, result, err)
		return nil
	})
}

// HandleListScores xử lý GET /crm/insights/scores: danh sách xếp hạng. Query: tier=platinum,gold page limit.
func (h *CrmInsightsHandler) HandleListScores(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var q crmdto.CrmInsightScoresQuery
		if err := h.ParseRequestQuery(c, &q); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		result, err := h.InsightsService.ListScores(logger.ContextFromRequest(c), q)
		h.HandleResponse(c, result, err)
		return nil
	})
}

// HandleGetCustomerScore xử lý GET /crm/insights/customers/:customerId
func (h *CrmInsightsHandler) HandleGetCustomerScore(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var p crmdto.CrmInsightCustomerParams
		if err := h.ParseRequestParams(c, &p); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		result, err := h.InsightsService.GetCustomerScore(logger.ContextFromRequest(c), p.CustomerId)
		h.HandleResponse(c, result, err)
		return nil
	})
}

// HandleRefresh xử lý POST /crm/insights/refresh: xoá cache và tính lại ngay.
func (h *CrmInsightsHandler) HandleRefresh(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		result, err := h.InsightsService.Refresh(logger.ContextFromRequest(c))
		h.HandleResponse(c, result, err)
		return nil
	})
}

// HandleSendDigest xử lý POST /crm/insights/digest: gửi email tổng hợp ngay.
func (h *CrmInsightsHandler) HandleSendDigest(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		ctx, cancel := context.WithTimeout(logger.ContextFromRequest(c), digestTimeout)
		defer cancel()
		result, err := h.InsightsService.SendDigest(ctx, h.Sender, h.Recipients)
		h.HandleResponse(c, result, err)
		return nil
	})
}
