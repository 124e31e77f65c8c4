package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	basehdl "github.com/soringifei/lapiqure-sub001/internal/api/base/handler"
	"github.com/soringifei/lapiqure-sub001/internal/metrics"
	"github.com/soringifei/lapiqure-sub001/internal/utility"
)

// RoutePrefix chứa các prefix cho API routes
type RoutePrefix struct {
	V1 string
}

// NewRoutePrefix tạo RoutePrefix với /api/v1
func NewRoutePrefix() RoutePrefix {
	return RoutePrefix{V1: "/api/v1"}
}

// Router quản lý việc định tuyến cho API, giữ các phụ thuộc dùng chung cho route system
type Router struct {
	app     *fiber.App
	cache   utility.Cache
	metrics *metrics.Insights
}

// NewRouter tạo Router. cache/metrics có thể nil.
func NewRouter(app *fiber.App, cache utility.Cache, m *metrics.Insights) *Router {
	return &Router{app: app, cache: cache, metrics: m}
}

// RegisterFunc hàm đăng ký route của 1 domain
type RegisterFunc func(v1 fiber.Router, r *Router) error

// RegisterRouteWithMiddleware đăng ký 1 route trong group prefix.
// Middleware chạy theo thứ tự trong slice rồi mới tới handler, và chỉ gắn vào đúng route này
// (không dùng group.Use để middleware của route này không lan sang route khác cùng prefix).
func RegisterRouteWithMiddleware(router fiber.Router, prefix string, method string, path string, middlewares []fiber.Handler, handler fiber.Handler) {
	routeGroup := router.Group(prefix)

	chain := make([]fiber.Handler, 0, len(middlewares)+1)
	chain = append(chain, middlewares...)
	chain = append(chain, handler)
	first, rest := chain[0], chain[1:]

	switch method {
	case fiber.MethodGet:
		routeGroup.Get(path, first, rest...)
	case fiber.MethodPost:
		routeGroup.Post(path, first, rest...)
	case fiber.MethodPut:
		routeGroup.Put(path, first, rest...)
	case fiber.MethodDelete:
		routeGroup.Delete(path, first, rest...)
	}
}

// registerSystemRoutes /system/health và /metrics (không cần xác thực), /metrics có cả ở gốc
func (r *Router) registerSystemRoutes(v1 fiber.Router) {
	systemHandler := basehdl.NewSystemHandler(r.cache)
	RegisterRouteWithMiddleware(v1, "/system", fiber.MethodGet, "/health", nil, systemHandler.HandleHealth)
	metricsHandler := adaptor.HTTPHandler(r.metrics.Handler())
	v1.Get("/metrics", metricsHandler)
	r.app.Get("/metrics", metricsHandler) // đường dẫn mặc định của Prometheus scraper
}

// SetupRoutes đăng ký route system rồi tới từng domain
func (r *Router) SetupRoutes(regs ...RegisterFunc) error {
	prefix := NewRoutePrefix()
	v1 := r.app.Group(prefix.V1)
	r.registerSystemRoutes(v1)
	for _, reg := range regs {
		if err := reg(v1, r); err != nil {
			return err
		}
	}
	return nil
}
