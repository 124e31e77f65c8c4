package crmvc

import (
	"fmt"
	"strings"

	crmdto "github.com/soringifei/lapiqure-sub001/internal/api/crm/dto"
	crmmodels "github.com/soringifei/lapiqure-sub001/internal/api/crm/models"
	"github.com/soringifei/lapiqure-sub001/internal/api/crm/scoring"
	"github.com/soringifei/lapiqure-sub001/internal/common"
)

// buildSnapshot chuyển model sang đầu vào scoring, tính điểm và gom nhãn hiển thị theo customerId
func buildSnapshot(customers []crmmodels.CrmCustomer, orders []crmmodels.CrmOrder, nowMs int64, source string) *insightsSnapshot {
	in := make([]scoring.Customer, 0, len(customers))
	labels := make(map[string]string, len(customers))
	for i := range customers {
		in = append(in, customers[i].ToScoringInput())
		labels[customers[i].CustomerId] = customers[i].DisplayLabel()
	}
	ords := make([]scoring.Order, 0, len(orders))
	for i := range orders {
		ords = append(ords, orders[i].ToScoringInput())
	}

	return &insightsSnapshot{
		Scores:      scoring.ComputeScores(in, ords, nowMs),
		Labels:      labels,
		GeneratedAt: nowMs,
		Source:      source,
	}
}

func labeled(sc scoring.CustomerScore, labels map[string]string) crmdto.CrmInsightItem {
	label := labels[sc.CustomerID]
	if label == "" {
		label = sc.CustomerID
	}
	return crmdto.CrmInsightItem{CustomerScore: sc, Label: label}
}

// topLabeled lấy tối đa limit phần tử đầu, gắn nhãn. Luôn trả slice không nil.
func topLabeled(scores []scoring.CustomerScore, labels map[string]string, limit int) []crmdto.CrmInsightItem {
	n := len(scores)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]crmdto.CrmInsightItem, 0, n)
	for _, sc := range scores[:n] {
		out = append(out, labeled(sc, labels))
	}
	return out
}

func segmentOf(scores []scoring.CustomerScore, labels map[string]string, limit int) crmdto.CrmInsightSegment {
	return crmdto.CrmInsightSegment{Count: len(scores), Items: topLabeled(scores, labels, limit)}
}

func buildInsightsResponse(snap *insightsSnapshot, limit int) *crmdto.CrmInsightsResponse {
	segs := scoring.SegmentByBehavior(snap.Scores)
	return &crmdto.CrmInsightsResponse{
		Summary:   scoring.Summarize(snap.Scores),
		HighValue: topLabeled(scoring.FilterHighValue(snap.Scores), snap.Labels, limit),
		AtRisk:    topLabeled(scoring.FilterChurnRisk(snap.Scores), snap.Labels, limit),
		Growth:    topLabeled(scoring.FilterGrowthOpportunities(snap.Scores), snap.Labels, limit),
		Segments: crmdto.CrmInsightSegments{
			Champions:    segmentOf(segs.Champions, snap.Labels, limit),
			Loyal:        segmentOf(segs.Loyal, snap.Labels, limit),
			AtRisk:       segmentOf(segs.AtRisk, snap.Labels, limit),
			Dormant:      segmentOf(segs.Dormant, snap.Labels, limit),
			NewCustomers: segmentOf(segs.NewCustomers, snap.Labels, limit),
		},
		TopCustomers: topLabeled(snap.Scores, snap.Labels, limit),
		GeneratedAt:  snap.GeneratedAt,
		Source:       snap.Source,
	}
}

// parseTierFilter "platinum,gold" -> set. Chuỗi rỗng -> nil (không lọc).
func parseTierFilter(raw string) (map[scoring.Tier]bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	out := make(map[scoring.Tier]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		t, ok := scoring.ParseTier(part)
		if !ok {
			return nil, common.NewError(common.ErrCodeValidationInput, fmt.Sprintf("Tier không hợp lệ: %s", part), common.StatusBadRequest, nil)
		}
		out[t] = true
	}
	return out, nil
}
