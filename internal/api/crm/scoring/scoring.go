// Package scoring - Tính điểm RFM, CLV, nguy cơ rời bỏ và hạng khách hàng từ danh sách khách + đơn hàng.
// Thuần tính toán: không I/O, không trạng thái dùng chung. nowMs = thời điểm tính (Unix ms), caller chụp 1 lần cho mỗi lượt.
package scoring

import (
	"math"
	"sort"
)

const (
	msPerDay = 24 * 60 * 60 * 1000

	// maxRecencyDays là trần chuẩn hoá recency, không phải giá trị lớn nhất thực tế
	maxRecencyDays = 365
	clvMultiplier  = 3

	churnHighDays   = 180
	churnMediumDays = 90

	tierPlatinumMin = 75
	tierGoldMin     = 60
	tierSilverMin   = 40
)

// Tier hạng khách hàng theo rfmScore
type Tier string

const (
	TierPlatinum Tier = "platinum"
	TierGold     Tier = "gold"
	TierSilver   Tier = "silver"
	TierProspect Tier = "prospect"
)

// AllTiers theo thứ tự từ cao xuống thấp
var AllTiers = []Tier{TierPlatinum, TierGold, TierSilver, TierProspect}

// Customer đầu vào. LastPurchaseAt <= 0 nghĩa là chưa từng mua.
type Customer struct {
	ID             string
	TotalSpent     float64
	LastPurchaseAt int64
}

// Order đầu vào. Mọi đơn được đưa vào đều tính cho frequency.
type Order struct {
	ID          string
	CustomerID  string
	TotalAmount float64
}

// CustomerScore kết quả tính cho 1 khách
type CustomerScore struct {
	CustomerID              string  `json:"customerId"`
	Recency                 int     `json:"recency"` // số ngày từ lần mua gần nhất, [0, 365]
	Frequency               int     `json:"frequency"`
	Monetary                float64 `json:"monetary"`
	RfmScore                float64 `json:"rfmScore"` // [0, 100]
	Clv                     float64 `json:"clv"`
	Tier                    Tier    `json:"tier"`
	ChurnRisk               float64 `json:"churnRisk"` // 0 | 0.5 | 1
	NextPurchaseProbability float64 `json:"nextPurchaseProbability"`
}

// ComputeScores trả về đúng 1 bản ghi cho mỗi khách đầu vào, sắp giảm dần theo rfmScore.
// Khách bằng điểm giữ nguyên thứ tự đầu vào. Đơn của khách không có trong danh sách bị bỏ qua.
func ComputeScores(customers []Customer, orders []Order, nowMs int64) []CustomerScore {
	scores := make([]CustomerScore, 0, len(customers))
	if len(customers) == 0 {
		return scores
	}

	orderCount := make(map[string]int, len(customers))
	for _, o := range orders {
		orderCount[o.CustomerID]++
	}

	maxFrequency := 1
	maxMonetary := 1.0
	for _, c := range customers {
		if n := orderCount[c.ID]; n > maxFrequency {
			maxFrequency = n
		}
		if m := monetaryOf(c); m > maxMonetary {
			maxMonetary = m
		}
	}

	for _, c := range customers {
		recency := RecencyDays(c.LastPurchaseAt, nowMs)
		frequency := orderCount[c.ID]
		monetary := monetaryOf(c)

		rScore := float64(maxRecencyDays-recency) / maxRecencyDays * 100
		fScore := float64(frequency) / float64(maxFrequency) * 100
		mScore := monetary / maxMonetary * 100
		rfm := Round2((rScore + fScore + mScore) / 3)

		avgOrderValue := 0.0
		if frequency > 0 {
			avgOrderValue = monetary / float64(frequency)
		}
		churn := ChurnRiskFor(recency)

		scores = append(scores, CustomerScore{
			CustomerID:              c.ID,
			Recency:                 recency,
			Frequency:               frequency,
			Monetary:                finiteOrZero(c.TotalSpent),
			RfmScore:                rfm,
			Clv:                     Round2(avgOrderValue * float64(frequency) * clvMultiplier),
			Tier:                    TierFor(rfm),
			ChurnRisk:               churn,
			NextPurchaseProbability: Round2(math.Max(0, 1-churn-float64(recency)/1000)),
		})
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].RfmScore > scores[j].RfmScore })
	return scores
}

// monetaryOf: tổng chi tiêu âm (hoàn tiền, dữ liệu lỗi), NaN hoặc Inf được coi là 0 khi tính điểm
func monetaryOf(c Customer) float64 {
	if c.TotalSpent < 0 || math.IsNaN(c.TotalSpent) || math.IsInf(c.TotalSpent, 0) {
		return 0
	}
	return c.TotalSpent
}

// finiteOrZero: json không encode được NaN/Inf
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// RecencyDays số ngày tròn (làm tròn xuống) từ lastPurchaseAt tới nowMs, kẹp trong [0, 365].
// Chưa có ngày mua -> 365.
func RecencyDays(lastPurchaseAt, nowMs int64) int {
	if lastPurchaseAt <= 0 {
		return maxRecencyDays
	}
	diff := nowMs - lastPurchaseAt
	if diff <= 0 {
		return 0
	}
	days := diff / msPerDay
	if days > maxRecencyDays {
		return maxRecencyDays
	}
	return int(days)
}

// ChurnRiskFor: >180 ngày -> 1, >90 ngày -> 0.5, còn lại 0
func ChurnRiskFor(recency int) float64 {
	switch {
	case recency > churnHighDays:
		return 1
	case recency > churnMediumDays:
		return 0.5
	default:
		return 0
	}
}

// TierFor xếp hạng theo rfmScore, bằng ngưỡng thì lên hạng cao hơn
func TierFor(rfmScore float64) Tier {
	switch {
	case rfmScore >= tierPlatinumMin:
		return TierPlatinum
	case rfmScore >= tierGoldMin:
		return TierGold
	case rfmScore >= tierSilverMin:
		return TierSilver
	default:
		return TierProspect
	}
}

// ParseTier trả về Tier hợp lệ, ok=false nếu không nhận ra
func ParseTier(s string) (Tier, bool) {
	for _, t := range AllTiers {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Round2 làm tròn 2 chữ số thập phân
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
