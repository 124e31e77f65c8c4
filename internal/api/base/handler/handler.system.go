package basehdl

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/soringifei/lapiqure-sub001/internal/common"
	"github.com/soringifei/lapiqure-sub001/internal/global"
	"github.com/soringifei/lapiqure-sub001/internal/utility"
)

// SystemHandler xử lý các route liên quan đến system operations
type SystemHandler struct {
	BaseHandler
	cache utility.Cache
}

// NewSystemHandler tạo SystemHandler, cache có thể nil
func NewSystemHandler(cache utility.Cache) *SystemHandler {
	return &SystemHandler{cache: cache}
}

// HandleHealth kiểm tra tình trạng hệ thống
// @Summary Kiểm tra tình trạng hệ thống
// @Description Kiểm tra trạng thái của API, MongoDB và cache
// @Produce json
// @Success 200 {object} map[string]interface{} "Hệ thống hoạt động bình thường"
// @Failure 503 {object} map[string]interface{} "Hệ thống đang gặp sự cố"
// @Router /system/health [get]
func (h *SystemHandler) HandleHealth(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	services := fiber.Map{"api": "ok"}
	healthData := fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"services":  services,
	}
	healthy := true

	// nil khi chưa kết nối (test, script)
	if global.MongoDB_Session != nil {
		if err := global.MongoDB_Session.Ping(ctx, nil); err != nil {
			healthy = false
			services["database"] = "error"
			healthData["database_error"] = err.Error()
		} else {
			services["database"] = "ok"
		}
	} else {
		services["database"] = "not_initialized"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			healthy = false
			services["cache"] = "error"
			healthData["cache_error"] = err.Error()
		} else {
			services["cache"] = "ok"
		}
	}

	if !healthy {
		healthData["status"] = "degraded"
		return JSONResponse(c, common.StatusServiceUnavailable, fiber.Map{
			"code":    common.StatusServiceUnavailable,
			"message": "Hệ thống đang gặp sự cố",
			"data":    healthData,
			"status":  "error",
		})
	}

	return JSONResponse(c, common.StatusOK, fiber.Map{
		"code":    common.StatusOK,
		"message": common.MsgSuccess,
		"data":    healthData,
		"status":  "success",
	})
}
