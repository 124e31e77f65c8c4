// Package models chứa các kiểu dùng chung cho layer repository/base (kết quả phân trang).
package models

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 200
)

// PaginateResult đại diện cho kết quả phân trang
type PaginateResult[T any] struct {
	Page      int64 `json:"page" bson:"page"`
	Limit     int64 `json:"limit" bson:"limit"`
	ItemCount int64 `json:"itemCount" bson:"itemCount"` // số mục trong trang hiện tại
	Items     []T   `json:"items" bson:"items"`
	Total     int64 `json:"total" bson:"total"`
	TotalPage int64 `json:"totalPage" bson:"totalPage"`
}

// NormalizePage: page >= 1, 0 < limit <= MaxPageLimit
func NormalizePage(page, limit int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// NewPaginateResult dựng kết quả từ 1 trang items và tổng số bản ghi
func NewPaginateResult[T any](items []T, page, limit, total int64) *PaginateResult[T] {
	if items == nil {
		items = []T{}
	}
	var totalPage int64
	if total > 0 && limit > 0 {
		totalPage = (total + limit - 1) / limit
	}
	return &PaginateResult[T]{
		Items:     items,
		Page:      page,
		Limit:     limit,
		ItemCount: int64(len(items)),
		Total:     total,
		TotalPage: totalPage,
	}
}

// PaginateSlice cắt 1 trang từ danh sách đã có sẵn trong bộ nhớ
func PaginateSlice[T any](all []T, page, limit int64) *PaginateResult[T] {
	page, limit = NormalizePage(page, limit)
	total := int64(len(all))

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	items := make([]T, end-start)
	copy(items, all[start:end])
	return NewPaginateResult(items, page, limit, total)
}
