package scoring

import "sort"

const (
	churnRiskFilterMin   = 0.3
	churnRiskFilterRfm   = 30
	highValueClvMin      = 5000
	growthFrequencyBelow = 5
	growthRfmMin         = 50
	atRiskChurnMin       = 0.5
	dormantRecencyMin    = 180
	newCustomerMaxOrders = 2
)

// Segments 5 nhóm hành vi, có thể chồng lên nhau (1 khách vừa dormant vừa atRisk)
type Segments struct {
	Champions    []CustomerScore `json:"champions"`
	Loyal        []CustomerScore `json:"loyal"`
	AtRisk       []CustomerScore `json:"atRisk"`
	Dormant      []CustomerScore `json:"dormant"`
	NewCustomers []CustomerScore `json:"newCustomers"`
}

func filter(scores []CustomerScore, keep func(CustomerScore) bool) []CustomerScore {
	out := make([]CustomerScore, 0)
	for _, s := range scores {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// FilterChurnRisk khách còn giá trị (rfm > 30) nhưng churnRisk > 0.3, giảm dần theo churnRisk
func FilterChurnRisk(scores []CustomerScore) []CustomerScore {
	out := filter(scores, func(s CustomerScore) bool {
		return s.ChurnRisk > churnRiskFilterMin && s.RfmScore > churnRiskFilterRfm
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChurnRisk > out[j].ChurnRisk })
	return out
}

// FilterHighValue khách có clv > 5000, giảm dần theo clv
func FilterHighValue(scores []CustomerScore) []CustomerScore {
	out := filter(scores, func(s CustomerScore) bool { return s.Clv > highValueClvMin })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Clv > out[j].Clv })
	return out
}

// FilterGrowthOpportunities khách tương tác tốt (rfm > 50) nhưng mua ít (< 5 đơn), giảm dần theo nextPurchaseProbability
func FilterGrowthOpportunities(scores []CustomerScore) []CustomerScore {
	out := filter(scores, func(s CustomerScore) bool {
		return s.Frequency < growthFrequencyBelow && s.RfmScore > growthRfmMin
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NextPurchaseProbability > out[j].NextPurchaseProbability
	})
	return out
}

// SegmentByBehavior chia danh sách điểm thành 5 nhóm, giữ thứ tự đầu vào trong mỗi nhóm
func SegmentByBehavior(scores []CustomerScore) Segments {
	return Segments{
		Champions: filter(scores, func(s CustomerScore) bool { return s.RfmScore >= tierPlatinumMin }),
		Loyal: filter(scores, func(s CustomerScore) bool {
			return s.RfmScore >= tierGoldMin && s.RfmScore < tierPlatinumMin
		}),
		AtRisk:       filter(scores, func(s CustomerScore) bool { return s.ChurnRisk > atRiskChurnMin }),
		Dormant:      filter(scores, func(s CustomerScore) bool { return s.Recency > dormantRecencyMin }),
		NewCustomers: filter(scores, func(s CustomerScore) bool { return s.Frequency <= newCustomerMaxOrders }),
	}
}
