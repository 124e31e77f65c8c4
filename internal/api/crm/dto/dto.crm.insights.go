// Package dto - DTO cho domain CRM (insights: điểm RFM, CLV, churn, hạng, nhóm hành vi).
package dto

import (
	"github.com/soringifei/lapiqure-sub001/internal/api/crm/scoring"
)

const (
	DefaultSegmentLimit = 10
	MaxSegmentLimit     = 100
)

// CrmInsightsQuery query cho GET /crm/insights
type CrmInsightsQuery struct {
	SegmentLimit int `query:"segmentLimit" validate:"omitempty,min=1,max=100"` // số khách tối đa mỗi danh sách
}

// CrmInsightScoresQuery query cho GET /crm/insights/scores
type CrmInsightScoresQuery struct {
	Tier  string `query:"tier" validate:"omitempty,max=64,csv_oneof=platinum gold silver prospect"` // vd: platinum,gold
	Page  int64  `query:"page" validate:"omitempty,min=1"`
	Limit int64  `query:"limit" validate:"omitempty,min=1,max=200"`
}

// CrmInsightCustomerParams param cho GET /crm/insights/customers/:customerId
type CrmInsightCustomerParams struct {
	CustomerId string `uri:"customerId" validate:"required,max=128,no_xss,no_sql_injection"`
}

// CrmInsightItem điểm của 1 khách kèm nhãn hiển thị
type CrmInsightItem struct {
	scoring.CustomerScore
	Label string `json:"label"` // name, không có thì email, cuối cùng là customerId
}

// CrmInsightSegment 1 nhóm hành vi: tổng số + top items
type CrmInsightSegment struct {
	Count int              `json:"count"`
	Items []CrmInsightItem `json:"items"`
}

// CrmInsightSegments 5 nhóm hành vi
type CrmInsightSegments struct {
	Champions    CrmInsightSegment `json:"champions"`
	Loyal        CrmInsightSegment `json:"loyal"`
	AtRisk       CrmInsightSegment `json:"atRisk"`
	Dormant      CrmInsightSegment `json:"dormant"`
	NewCustomers CrmInsightSegment `json:"newCustomers"`
}

// CrmInsightsResponse payload cho dashboard. Degraded=true khi không đọc được dữ liệu nguồn:
// khi đó mọi danh sách rỗng, mọi bộ đếm = 0.
type CrmInsightsResponse struct {
	Summary      scoring.Summary    `json:"summary"`
	HighValue    []CrmInsightItem   `json:"highValue"`
	AtRisk       []CrmInsightItem   `json:"atRisk"`
	Growth       []CrmInsightItem   `json:"growth"`
	Segments     CrmInsightSegments `json:"segments"`
	TopCustomers []CrmInsightItem   `json:"topCustomers"`
	GeneratedAt  int64              `json:"generatedAt"` // Unix ms, cũng là "now" của lượt tính
	Source       string             `json:"source"`
	Degraded     bool               `json:"degraded"`
}

// CrmInsightDigest nội dung email tổng hợp gửi định kỳ
type CrmInsightDigest struct {
	GeneratedAt int64
	Summary     scoring.Summary
	AtRisk      []CrmInsightItem
	HighValue   []CrmInsightItem
}

// NewEmptySegment nhóm rỗng (Items không nil để JSON ra [])
func NewEmptySegment() CrmInsightSegment {
	return CrmInsightSegment{Items: []CrmInsightItem{}}
}

// NewEmptyInsightsResponse payload rỗng hợp lệ cho trạng thái degraded
func NewEmptyInsightsResponse(generatedAt int64, source string) *CrmInsightsResponse {
	return &CrmInsightsResponse{
		Summary:   scoring.EmptySummary(),
		HighValue: []CrmInsightItem{},
		AtRisk:    []CrmInsightItem{},
		Growth:    []CrmInsightItem{},
		Segments: CrmInsightSegments{
			Champions:    NewEmptySegment(),
			Loyal:        NewEmptySegment(),
			AtRisk:       NewEmptySegment(),
			Dormant:      NewEmptySegment(),
			NewCustomers: NewEmptySegment(),
		},
		TopCustomers: []CrmInsightItem{},
		GeneratedAt:  generatedAt,
		Source:       source,
		Degraded:     true,
	}
}

// CrmInsightsRefreshResult kết quả POST /crm/insights/refresh
type CrmInsightsRefreshResult struct {
	Customers   int             `json:"customers"`
	GeneratedAt int64           `json:"generatedAt"`
	Source      string          `json:"source"`
	Summary     scoring.Summary `json:"summary"`
}

// CrmInsightsDigestResult kết quả POST /crm/insights/digest
type CrmInsightsDigestResult struct {
	RunId      string `json:"runId"` // khớp với field run_id trong log
	Recipients int    `json:"recipients"`
	AtRisk     int    `json:"atRisk"`
	HighValue  int    `json:"highValue"`
	SentAt     int64  `json:"sentAt"`
}
