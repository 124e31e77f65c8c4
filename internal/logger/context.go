package logger

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// ContextKey là type cho context keys
type ContextKey string

const (
	RequestIDKey ContextKey = "requestID"
	UserIDKey    ContextKey = "userID"
	JobKey       ContextKey = "job"
)

// WithContext trả về logger entry kèm các field lấy từ context
func WithContext(ctx context.Context) *logrus.Entry {
	entry := GetAppLogger().WithContext(ctx)
	if v := ctx.Value(RequestIDKey); v != nil {
		entry = entry.WithField("request_id", v)
	}
	if v := ctx.Value(UserIDKey); v != nil {
		entry = entry.WithField("user_id", v)
	}
	if v := ctx.Value(JobKey); v != nil {
		entry = entry.WithField("job", v)
	}
	return entry
}

// RequestID lấy request id do middleware requestid gắn (Locals hoặc header)
func RequestID(c fiber.Ctx) string {
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		return rid
	}
	if rid := c.Get("X-Request-ID"); rid != "" {
		return rid
	}
	return c.GetRespHeader("X-Request-ID")
}

// WithRequest trả về logger entry với thông tin request Fiber
func WithRequest(c fiber.Ctx) *logrus.Entry {
	entry := GetAppLogger().WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"ip":     c.IP(),
	})
	if rid := RequestID(c); rid != "" {
		entry = entry.WithField("request_id", rid)
	}
	if uid, ok := c.Locals("userID").(string); ok && uid != "" {
		entry = entry.WithField("user_id", uid)
	}
	return entry
}

// ContextFromRequest chuyển request id / user id của Fiber sang context.Context cho tầng service
func ContextFromRequest(c fiber.Ctx) context.Context {
	var ctx context.Context = c.Context()
	if rid := RequestID(c); rid != "" {
		ctx = context.WithValue(ctx, RequestIDKey, rid)
	}
	if uid, ok := c.Locals("userID").(string); ok && uid != "" {
		ctx = context.WithValue(ctx, UserIDKey, uid)
	}
	return ctx
}

// WithModule trả về logger entry với module name (ví dụ: "insights", "digest")
func WithModule(module string) *logrus.Entry {
	return GetAppLogger().WithField("module", module)
}
