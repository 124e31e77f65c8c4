// Package router đăng ký các route thuộc domain CRM: báo cáo điểm khách hàng.
package router

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	crmhdl "github.com/soringifei/lapiqure-sub001/internal/api/crm/handler"
	crmvc "github.com/soringifei/lapiqure-sub001/internal/api/crm/service"
	"github.com/soringifei/lapiqure-sub001/internal/api/middleware"
	apirouter "github.com/soringifei/lapiqure-sub001/internal/api/router"
)

// Deps phụ thuộc của các route CRM, dựng trong cmd/server
type Deps struct {
	Insights   *crmvc.CrmInsightsService
	Verifier   middleware.TokenVerifier // nil = AUTH_MODE=none
	Sender     crmvc.DigestSender       // nil = chưa cấu hình SMTP
	Recipients []string
}

// NewRegister trả về hàm đăng ký tất cả route CRM lên v1.
func NewRegister(deps Deps) apirouter.RegisterFunc {
	return func(v1 fiber.Router, _ *apirouter.Router) error {
		if deps.Insights == nil {
			return errors.New("crm router: thiếu CrmInsightsService")
		}
		h := crmhdl.NewCrmInsightsHandler(deps.Insights, deps.Sender, deps.Recipients)

		authMiddleware := middleware.AuthMiddleware(deps.Verifier)
		readMiddlewares := []fiber.Handler{authMiddleware}

		// GET /crm/insights: payload dashboard. Query: segmentLimit
		apirouter.RegisterRouteWithMiddleware(v1, "/crm/insights", fiber.MethodGet, "/", readMiddlewares, h.HandleGetInsights)
		// GET /crm/insights/scores: Query: tier=platinum,gold page limit
		apirouter.RegisterRouteWithMiddleware(v1, "/crm/insights", fiber.MethodGet, "/scores", readMiddlewares, h.HandleListScores)
		// GET /crm/insights/customers/:customerId
		apirouter.RegisterRouteWithMiddleware(v1, "/crm/insights", fiber.MethodGet, "/customers/:customerId", readMiddlewares, h.HandleGetCustomerScore)

		// POST /crm/insights/refresh: xoá cache, tính lại
		apirouter.RegisterRouteWithMiddleware(v1, "/crm/insights", fiber.MethodPost, "/refresh",
			[]fiber.Handler{authMiddleware, middleware.AuditMiddleware("crm.insights.refresh")}, h.HandleRefresh)
		// POST /crm/insights/digest: gửi email tổng hợp ngay
		apirouter.RegisterRouteWithMiddleware(v1, "/crm/insights", fiber.MethodPost, "/digest",
			[]fiber.Handler{authMiddleware, middleware.AuditMiddleware("crm.insights.digest")}, h.HandleSendDigest)

		return nil
	}
}
