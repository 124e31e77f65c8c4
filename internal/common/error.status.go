package common

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// HTTP status dùng trong Error.StatusCode
const (
	StatusOK                  = 200
	StatusBadRequest          = 400
	StatusUnauthorized        = 401
	StatusForbidden           = 403
	StatusNotFound            = 404
	StatusConflict            = 409
	StatusTooManyRequests     = 429
	StatusInternalServerError = 500
	StatusBadGateway          = 502
	StatusServiceUnavailable  = 503
)

// Thông điệp chuẩn trả về client
const (
	MsgSuccess            = "Thao tác thành công"
	MsgBadRequest         = "Yêu cầu không hợp lệ"
	MsgUnauthorized       = "Vui lòng đăng nhập"
	MsgForbidden          = "Không có quyền truy cập"
	MsgNotFound           = "Không tìm thấy dữ liệu"
	MsgInternalError      = "Lỗi hệ thống"
	MsgServiceUnavailable = "Dịch vụ không khả dụng"
	MsgValidationError    = "Dữ liệu không hợp lệ"
)

// ErrorCode định nghĩa mã lỗi chi tiết
type ErrorCode struct {
	Code        string // Mã lỗi (ví dụ: AUTH_001)
	Category    string
	SubCategory string
	Description string
}

var (
	ErrCodeInternalServer = ErrorCode{Code: "SYS_001", Category: "System", SubCategory: "Internal", Description: "Lỗi hệ thống nội bộ"}

	ErrCodeAuth      = ErrorCode{Code: "AUTH", Category: "Authentication", SubCategory: "General", Description: "Lỗi xác thực chung"}
	ErrCodeAuthToken = ErrorCode{Code: "AUTH_001", Category: "Authentication", SubCategory: "Token", Description: "Lỗi liên quan đến token"}
	ErrCodeAuthRole  = ErrorCode{Code: "AUTH_003", Category: "Authentication", SubCategory: "Role", Description: "Tài khoản không có quyền xem báo cáo khách hàng"}

	ErrCodeValidationInput  = ErrorCode{Code: "VAL_001", Category: "Validation", SubCategory: "Input", Description: "Lỗi dữ liệu đầu vào"}
	ErrCodeValidationFormat = ErrorCode{Code: "VAL_002", Category: "Validation", SubCategory: "Format", Description: "Lỗi định dạng dữ liệu"}

	ErrCodeDatabase           = ErrorCode{Code: "DB", Category: "Database", SubCategory: "General", Description: "Lỗi cơ sở dữ liệu chung"}
	ErrCodeDatabaseConnection = ErrorCode{Code: "DB_001", Category: "Database", SubCategory: "Connection", Description: "Lỗi kết nối cơ sở dữ liệu"}
	ErrCodeDatabaseQuery      = ErrorCode{Code: "DB_002", Category: "Database", SubCategory: "Query", Description: "Lỗi truy vấn dữ liệu"}

	ErrCodeBusinessOperation = ErrorCode{Code: "BIZ_002", Category: "Business", SubCategory: "Operation", Description: "Lỗi thao tác nghiệp vụ"}

	// Lỗi của phần tính điểm khách hàng
	ErrCodeInsightsSource = ErrorCode{Code: "INS_001", Category: "Insights", SubCategory: "Source", Description: "Không đọc được dữ liệu khách hàng/đơn hàng"}
	ErrCodeInsightsCache  = ErrorCode{Code: "INS_002", Category: "Insights", SubCategory: "Cache", Description: "Lỗi bộ nhớ đệm báo cáo"}
	ErrCodeInsightsDigest = ErrorCode{Code: "INS_003", Category: "Insights", SubCategory: "Digest", Description: "Không gửi được email tổng hợp"}
)

// Error định nghĩa cấu trúc lỗi chi tiết
type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    any // lỗi gốc hoặc thông tin thêm
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap trả về lỗi gốc nếu Details là error
func (e *Error) Unwrap() error {
	if err, ok := e.Details.(error); ok {
		return err
	}
	return nil
}

// Is so khớp theo mã lỗi + message để errors.Is nhận ra các sentinel
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code.Code == t.Code.Code && e.Message == t.Message
}

// NewError tạo một error mới với đầy đủ thông tin
func NewError(code ErrorCode, message string, statusCode int, details any) error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

var (
	ErrTokenInvalid = NewError(ErrCodeAuthToken, "Token không hợp lệ", StatusUnauthorized, nil)
	ErrTokenMissing = NewError(ErrCodeAuthToken, "Thiếu token xác thực", StatusUnauthorized, nil)
	ErrForbidden    = NewError(ErrCodeAuthRole, MsgForbidden, StatusForbidden, nil)

	ErrInvalidInput  = NewError(ErrCodeValidationInput, "Dữ liệu đầu vào không hợp lệ", StatusBadRequest, nil)
	ErrInvalidFormat = NewError(ErrCodeValidationFormat, "Định dạng dữ liệu không hợp lệ", StatusBadRequest, nil)
	ErrRequiredField = NewError(ErrCodeValidationInput, "Thiếu thông tin bắt buộc", StatusBadRequest, nil)

	ErrNotFound   = NewError(ErrCodeDatabaseQuery, MsgNotFound, StatusNotFound, nil)
	ErrConnection = NewError(ErrCodeDatabaseConnection, "Lỗi kết nối cơ sở dữ liệu", StatusServiceUnavailable, nil)

	ErrSourceUnavailable = NewError(ErrCodeInsightsSource, "Không đọc được dữ liệu khách hàng", StatusServiceUnavailable, nil)
	ErrDigestDisabled    = NewError(ErrCodeInsightsDigest, "Chưa cấu hình SMTP hoặc danh sách người nhận", StatusBadRequest, nil)
)

var (
	ErrMongoNetwork   = NewError(ErrCodeDatabaseConnection, "Lỗi mạng khi kết nối MongoDB", StatusServiceUnavailable, nil)
	ErrMongoTimeout   = NewError(ErrCodeDatabaseConnection, "Kết nối MongoDB bị timeout", StatusServiceUnavailable, nil)
	ErrMongoQuery     = NewError(ErrCodeDatabaseQuery, "Lỗi truy vấn MongoDB", StatusInternalServerError, nil)
	ErrMongoDuplicate = NewError(ErrCodeDatabaseQuery, "Dữ liệu trùng lặp trong MongoDB", StatusConflict, nil)
)

// ConvertMongoError chuyển đổi lỗi MongoDB sang lỗi hệ thống
func ConvertMongoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}

	switch {
	case mongo.IsDuplicateKeyError(err):
		return ErrMongoDuplicate
	case mongo.IsNetworkError(err):
		return ErrMongoNetwork
	case mongo.IsTimeout(err):
		return ErrMongoTimeout
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return NewError(ErrCodeDatabaseQuery, ErrMongoQuery.Error(), StatusInternalServerError, err)
	}

	return NewError(ErrCodeDatabase, "Lỗi kết nối cơ sở dữ liệu", StatusInternalServerError, err)
}

// StatusOf trả về HTTP status tương ứng với err, mặc định 500
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.StatusCode > 0 {
		return e.StatusCode
	}
	return StatusInternalServerError
}
