package basehdl

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v3"

	"github.com/soringifei/lapiqure-sub001/internal/common"
	"github.com/soringifei/lapiqure-sub001/internal/global"
	"github.com/soringifei/lapiqure-sub001/internal/logger"
)

// BaseHandler các helper dùng chung cho domain handler: bắt panic, parse + validate input, trả response chuẩn
type BaseHandler struct{}

// JSONResponse trả về JSON response với Content-Type: application/json; charset=utf-8
func JSONResponse(c fiber.Ctx, statusCode int, data interface{}) error {
	c.Set("Content-Type", "application/json; charset=utf-8")
	return c.Status(statusCode).JSON(data)
}

// SafeHandler bọc handler với recover, panic được trả về 500 thay vì làm rơi kết nối
func (h *BaseHandler) SafeHandler(c fiber.Ctx, handler func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithRequest(c).WithField("stack", string(debug.Stack())).Errorf("Panic trong handler: %v", r)
			h.HandleResponse(c, nil, common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Lỗi hệ thống không mong muốn: %v", r),
				common.StatusInternalServerError,
				nil,
			))
			err = nil
		}
	}()
	return handler()
}

// HandleResponse xử lý và chuẩn hóa response trả về cho client: {code, message, data, status}
func (h *BaseHandler) HandleResponse(c fiber.Ctx, data interface{}, err error) {
	if err != nil {
		HandleErrorResponse(c, err)
		return
	}
	_ = JSONResponse(c, common.StatusOK, fiber.Map{
		"code":    common.StatusOK,
		"message": common.MsgSuccess,
		"data":    data,
		"status":  "success",
	})
}

// HandleErrorResponse lỗi *common.Error giữ nguyên code/status, lỗi khác -> 500
func HandleErrorResponse(c fiber.Ctx, err error) {
	var customErr *common.Error
	if errors.As(err, &customErr) {
		body := fiber.Map{
			"code":    customErr.Code.Code,
			"message": customErr.Message,
			"status":  "error",
		}
		// lỗi gốc (driver, SMTP...) chỉ ghi log, không trả cho client
		if customErr.Details != nil {
			if _, isErr := customErr.Details.(error); !isErr {
				body["details"] = customErr.Details
			}
		}
		if customErr.StatusCode >= common.StatusInternalServerError {
			logger.WithRequest(c).WithError(err).WithField("code", customErr.Code.Code).Error("Request lỗi")
		}
		_ = JSONResponse(c, customErr.StatusCode, body)
		return
	}

	logger.WithRequest(c).WithError(err).Error("Request lỗi không xác định")
	_ = JSONResponse(c, common.StatusInternalServerError, fiber.Map{
		"code":    common.ErrCodeInternalServer.Code,
		"message": common.MsgInternalError,
		"status":  "error",
	})
}

func validationError(err error) error {
	return common.NewError(common.ErrCodeValidationInput, fmt.Sprintf("Dữ liệu không hợp lệ: %v", err), common.StatusBadRequest, nil)
}

func (h *BaseHandler) validate(input interface{}) error {
	if global.Validate == nil {
		return nil
	}
	if err := global.Validate.Struct(input); err != nil {
		return validationError(err)
	}
	return nil
}

// ParseRequestQuery bind query string vào struct (tag `query`) rồi validate
func (h *BaseHandler) ParseRequestQuery(c fiber.Ctx, out interface{}) error {
	if err := c.Bind().Query(out); err != nil {
		return common.NewError(common.ErrCodeValidationFormat, fmt.Sprintf("Query không đúng định dạng: %v", err), common.StatusBadRequest, nil)
	}
	return h.validate(out)
}

// ParseRequestParams bind route params vào struct (tag `uri`) rồi validate
func (h *BaseHandler) ParseRequestParams(c fiber.Ctx, out interface{}) error {
	if err := c.Bind().URI(out); err != nil {
		return common.NewError(common.ErrCodeValidationFormat, fmt.Sprintf("Tham số không đúng định dạng: %v", err), common.StatusBadRequest, nil)
	}
	return h.validate(out)
}
