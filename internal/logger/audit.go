package logger

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// LogAction ghi một hành động audit (refresh báo cáo, gửi digest...) vào audit.log
func LogAction(action string, c fiber.Ctx, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	if rid := RequestID(c); rid != "" {
		details["request_id"] = rid
	}

	userID, _ := c.Locals("userID").(string)
	authKind, _ := c.Locals("authKind").(string)

	GetAuditLogger().WithFields(logrus.Fields{
		"action":     action,
		"user_id":    userID,
		"auth_kind":  authKind,
		"ip":         c.IP(),
		"user_agent": c.Get("User-Agent"),
		"details":    details,
		"timestamp":  time.Now().UnixMilli(),
	}).Info("Audit log")
}
