package logger

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// FilterHook đánh dấu entry không khớp bộ lọc module / level / method.
// AsyncHook bỏ qua các entry đã đánh dấu.
type FilterHook struct {
	mu       sync.RWMutex
	modules  map[string]bool
	logTypes map[string]bool
	methods  map[string]bool
}

// NewFilterHook tạo một filter hook mới với cấu hình
func NewFilterHook(cfg *LogConfig) *FilterHook {
	h := &FilterHook{}
	h.UpdateFilters(cfg)
	return h
}

// UpdateFilters cập nhật filters từ config mới (có thể gọi runtime)
func (h *FilterHook) UpdateFilters(cfg *LogConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.modules = parseFilter(cfg.FilterModules)
	h.logTypes = parseFilter(cfg.FilterLogTypes)
	h.methods = parseFilter(cfg.FilterMethods)
}

// parseFilter: "a,b" -> {a,b}; rỗng hoặc "*" -> nil (cho phép tất cả)
func parseFilter(s string) map[string]bool {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return nil
	}
	out := make(map[string]bool)
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out[strings.ToLower(v)] = true
		}
	}
	if len(out) == 0 || out["*"] {
		return nil
	}
	return out
}

func (h *FilterHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *FilterHook) Fire(entry *logrus.Entry) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !allowed(h.logTypes, entry.Level.String()) ||
		!allowedField(h.modules, entry.Data["module"]) ||
		!allowedField(h.methods, entry.Data["method"]) {
		entry.Data[filteredKey] = true
	}
	return nil
}

func allowed(set map[string]bool, v string) bool {
	return set == nil || set[strings.ToLower(v)]
}

// entry không mang field thì không bị lọc theo field đó
func allowedField(set map[string]bool, raw interface{}) bool {
	v, ok := raw.(string)
	if !ok || v == "" {
		return true
	}
	return allowed(set, v)
}
