package global

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// InitValidator khởi tạo và đăng ký các custom validator
func InitValidator() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("no_xss", validateNoXSS)
	_ = Validate.RegisterValidation("no_sql_injection", validateNoSQLInjection)
	_ = Validate.RegisterValidation("csv_oneof", validateCSVOneOf)
}

// validateNoXSS kiểm tra XSS
func validateNoXSS(fl validator.FieldLevel) bool {
	dangerousPatterns := []string{
		"<script",
		"javascript:",
		"onerror=",
		"onload=",
		"onclick=",
		"eval(",
		"document.cookie",
		"<iframe",
		"<object",
		"<embed",
	}

	value := strings.ToLower(fl.Field().String())
	for _, pattern := range dangerousPatterns {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}

// validateNoSQLInjection chặn các mẫu injection phổ biến trong tham số tự do (customerId...)
func validateNoSQLInjection(fl validator.FieldLevel) bool {
	patterns := []string{"'", ";", "--", "/*", "*/", "$where", "$ne", "$gt", " OR 1=1", "UNION "}

	value := strings.ToUpper(fl.Field().String())
	for _, p := range patterns {
		if strings.Contains(value, strings.ToUpper(p)) {
			return false
		}
	}
	return true
}

// validateCSVOneOf kiểm tra từng phần tử của chuỗi "a,b" nằm trong danh sách param.
// Ví dụ: validate:"omitempty,csv_oneof=platinum gold silver prospect"
func validateCSVOneOf(fl validator.FieldLevel) bool {
	allowed := make(map[string]bool)
	for _, p := range strings.Fields(fl.Param()) {
		allowed[strings.ToLower(p)] = true
	}

	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return true
	}
	for _, v := range strings.Split(value, ",") {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if !allowed[v] {
			return false
		}
	}
	return true
}
