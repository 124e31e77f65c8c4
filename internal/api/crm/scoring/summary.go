package scoring

// Summary số liệu tổng cho thẻ dashboard
type Summary struct {
	TotalCustomers   int            `json:"totalCustomers"`
	AverageRfmScore  float64        `json:"averageRfmScore"`
	TotalClv         float64        `json:"totalClv"`
	AverageChurnRisk float64        `json:"averageChurnRisk"`
	TierCounts       map[Tier]int   `json:"tierCounts"`
	SegmentCounts    map[string]int `json:"segmentCounts"`
	HighValueCount   int            `json:"highValueCount"`
	ChurnRiskCount   int            `json:"churnRiskCount"`
	GrowthCount      int            `json:"growthCount"`
}

// Counts đếm số khách mỗi nhóm, key theo tên JSON của nhóm
func (s Segments) Counts() map[string]int {
	return map[string]int{
		"champions":    len(s.Champions),
		"loyal":        len(s.Loyal),
		"atRisk":       len(s.AtRisk),
		"dormant":      len(s.Dormant),
		"newCustomers": len(s.NewCustomers),
	}
}

// EmptySummary summary với mọi bộ đếm = 0 (đủ key cho UI)
func EmptySummary() Summary {
	tiers := make(map[Tier]int, len(AllTiers))
	for _, t := range AllTiers {
		tiers[t] = 0
	}
	return Summary{
		TierCounts:    tiers,
		SegmentCounts: Segments{}.Counts(),
	}
}

// Summarize tổng hợp từ danh sách điểm. Danh sách rỗng -> EmptySummary.
func Summarize(scores []CustomerScore) Summary {
	sum := EmptySummary()
	if len(scores) == 0 {
		return sum
	}

	var rfmTotal, churnTotal, clvTotal float64
	for _, s := range scores {
		rfmTotal += s.RfmScore
		churnTotal += s.ChurnRisk
		clvTotal += s.Clv
		sum.TierCounts[s.Tier]++
	}

	n := float64(len(scores))
	sum.TotalCustomers = len(scores)
	sum.AverageRfmScore = Round2(rfmTotal / n)
	sum.AverageChurnRisk = Round2(churnTotal / n)
	sum.TotalClv = Round2(clvTotal)
	sum.SegmentCounts = SegmentByBehavior(scores).Counts()
	sum.HighValueCount = len(FilterHighValue(scores))
	sum.ChurnRiskCount = len(FilterChurnRisk(scores))
	sum.GrowthCount = len(FilterGrowthOpportunities(scores))
	return sum
}
