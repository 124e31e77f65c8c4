package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nowMs cố định cho mọi test: 2024-06-01 00:00:00 UTC
const nowMs int64 = 1717200000000

func daysAgo(d float64) int64 {
	return nowMs - int64(d*msPerDay)
}

func ordersFor(customerID string, n int) []Order {
	out := make([]Order, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Order{ID: fmt.Sprintf("%s-o%d", customerID, i), CustomerID: customerID, TotalAmount: 100})
	}
	return out
}

func TestComputeScores_SingleCustomerScenario(t *testing.T) {
	customers := []Customer{{ID: "c1", TotalSpent: 10000, LastPurchaseAt: daysAgo(30)}}
	orders := ordersFor("c1", 1)

	scores := ComputeScores(customers, orders, nowMs)
	require.Len(t, scores, 1)

	s := scores[0]
	assert.Equal(t, "c1", s.CustomerID)
	assert.Equal(t, 30, s.Recency)
	assert.Equal(t, 1, s.Frequency)
	assert.Equal(t, 10000.0, s.Monetary)
	assert.Equal(t, 97.26, s.RfmScore)
	assert.Equal(t, TierPlatinum, s.Tier)
	assert.Equal(t, 0.0, s.ChurnRisk)
	assert.Equal(t, 30000.0, s.Clv)
	assert.Equal(t, 0.97, s.NextPurchaseProbability)
}

func TestComputeScores_EmptyInput(t *testing.T) {
	scores := ComputeScores(nil, nil, nowMs)
	assert.NotNil(t, scores)
	assert.Empty(t, scores)

	assert.Empty(t, FilterChurnRisk(scores))
	assert.Empty(t, FilterHighValue(scores))
	assert.Empty(t, FilterGrowthOpportunities(scores))

	seg := SegmentByBehavior(scores)
	assert.Empty(t, seg.Champions)
	assert.Empty(t, seg.Loyal)
	assert.Empty(t, seg.AtRisk)
	assert.Empty(t, seg.Dormant)
	assert.Empty(t, seg.NewCustomers)

	// JSON phải ra mảng rỗng, không phải null
	b, err := json.Marshal(seg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"champions":[],"loyal":[],"atRisk":[],"dormant":[],"newCustomers":[]}`, string(b))
}

func TestComputeScores_NoOrdersNoPurchaseDate(t *testing.T) {
	scores := ComputeScores([]Customer{{ID: "ghost", TotalSpent: 0}}, nil, nowMs)
	require.Len(t, scores, 1)

	s := scores[0]
	assert.Equal(t, 365, s.Recency)
	assert.Equal(t, 0, s.Frequency)
	assert.Equal(t, 0.0, s.Clv)
	assert.Equal(t, 1.0, s.ChurnRisk)
	assert.Equal(t, 0.0, s.RfmScore)
	assert.Equal(t, TierProspect, s.Tier)
	assert.Equal(t, 0.0, s.NextPurchaseProbability)
}

func TestComputeScores_OrdersOfUnknownCustomersIgnored(t *testing.T) {
	customers := []Customer{
		{ID: "a", TotalSpent: 500, LastPurchaseAt: daysAgo(10)},
		{ID: "b", TotalSpent: 200, LastPurchaseAt: daysAgo(100)},
	}
	orders := append(ordersFor("a", 2), ordersFor("stranger", 40)...)

	scores := ComputeScores(customers, orders, nowMs)
	require.Len(t, scores, 2)

	byID := map[string]CustomerScore{}
	for _, s := range scores {
		byID[s.CustomerID] = s
	}
	assert.Equal(t, 2, byID["a"].Frequency)
	assert.Equal(t, 0, byID["b"].Frequency)
	// maxFrequency = 2 (không tính 40 đơn của khách lạ) nên fScore của a = 100
	assert.Equal(t, Round2((float64(365-10)/365*100+100+100)/3), byID["a"].RfmScore)
}

func TestComputeScores_SortedDescendingStable(t *testing.T) {
	customers := []Customer{
		{ID: "low", TotalSpent: 10},
		{ID: "tie-1", TotalSpent: 500, LastPurchaseAt: daysAgo(20)},
		{ID: "high", TotalSpent: 1000, LastPurchaseAt: daysAgo(1)},
		{ID: "tie-2", TotalSpent: 500, LastPurchaseAt: daysAgo(20)},
	}
	orders := append(ordersFor("high", 3), append(ordersFor("tie-1", 1), ordersFor("tie-2", 1)...)...)

	scores := ComputeScores(customers, orders, nowMs)
	ids := make([]string, 0, len(scores))
	for i, s := range scores {
		ids = append(ids, s.CustomerID)
		if i > 0 {
			assert.GreaterOrEqual(t, scores[i-1].RfmScore, s.RfmScore)
		}
	}
	assert.Equal(t, []string{"high", "tie-1", "tie-2", "low"}, ids)
}

func TestComputeScores_Properties(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		n := rnd.Intn(60)
		customers := make([]Customer, 0, n)
		var orders []Order
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("c%d", i)
			c := Customer{ID: id, TotalSpent: float64(rnd.Intn(20000))}
			switch rnd.Intn(4) {
			case 0: // chưa mua
			case 1:
				c.LastPurchaseAt = nowMs + int64(rnd.Intn(5))*msPerDay // ngày tương lai (lệch đồng hồ)
			default:
				c.LastPurchaseAt = daysAgo(float64(rnd.Intn(800)) + rnd.Float64())
			}
			customers = append(customers, c)
			orders = append(orders, ordersFor(id, rnd.Intn(8))...)
		}

		scores := ComputeScores(customers, orders, nowMs)
		require.Len(t, scores, len(customers), "phải giữ nguyên số lượng khách")

		seen := map[string]bool{}
		for _, s := range scores {
			assert.False(t, seen[s.CustomerID], "trùng khách %s", s.CustomerID)
			seen[s.CustomerID] = true

			assert.True(t, s.Recency >= 0 && s.Recency <= 365, "recency ngoài [0,365]: %d", s.Recency)
			assert.True(t, s.RfmScore >= 0 && s.RfmScore <= 100, "rfmScore ngoài [0,100]: %v", s.RfmScore)
			assert.Contains(t, []float64{0, 0.5, 1}, s.ChurnRisk)
			assert.True(t, s.NextPurchaseProbability >= 0 && s.NextPurchaseProbability <= 1)
			assert.Equal(t, TierFor(s.RfmScore), s.Tier)
		}

		seg := SegmentByBehavior(scores)
		for _, s := range append(append([]CustomerScore{}, seg.Champions...), seg.Loyal...) {
			assert.GreaterOrEqual(t, s.RfmScore, 60.0)
		}
		for _, s := range seg.Dormant {
			assert.Greater(t, s.Recency, 180)
		}
	}
}

func TestComputeScores_Idempotent(t *testing.T) {
	customers := []Customer{
		{ID: "a", TotalSpent: 1200, LastPurchaseAt: daysAgo(45)},
		{ID: "b", TotalSpent: 1200, LastPurchaseAt: daysAgo(45)},
		{ID: "c", TotalSpent: 90, LastPurchaseAt: daysAgo(200)},
	}
	orders := append(ordersFor("a", 2), ordersFor("b", 2)...)

	first, err := json.Marshal(ComputeScores(customers, orders, nowMs))
	require.NoError(t, err)
	second, err := json.Marshal(ComputeScores(customers, orders, nowMs))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestComputeScores_MonetaryMonotonic(t *testing.T) {
	base := []Customer{
		{ID: "target", TotalSpent: 100, LastPurchaseAt: daysAgo(60)},
		{ID: "other", TotalSpent: 800, LastPurchaseAt: daysAgo(5)},
	}
	orders := append(ordersFor("target", 2), ordersFor("other", 4)...)

	rfmOf := func(spent float64) float64 {
		cs := append([]Customer{}, base...)
		cs[0].TotalSpent = spent
		for _, s := range ComputeScores(cs, orders, nowMs) {
			if s.CustomerID == "target" {
				return s.RfmScore
			}
		}
		t.Fatal("không tìm thấy khách target")
		return 0
	}

	prev := rfmOf(0)
	for _, spent := range []float64{50, 100, 400, 800, 801, 5000} {
		cur := rfmOf(spent)
		if cur < prev {
			t.Errorf("rfmScore giảm khi tăng totalSpent lên %v: %v -> %v", spent, prev, cur)
		}
		prev = cur
	}
}

func TestComputeScores_NegativeMonetaryClamped(t *testing.T) {
	customers := []Customer{
		{ID: "refund", TotalSpent: -5000, LastPurchaseAt: daysAgo(1)},
		{ID: "normal", TotalSpent: 100, LastPurchaseAt: daysAgo(1)},
	}
	scores := ComputeScores(customers, ordersFor("refund", 1), nowMs)

	for _, s := range scores {
		assert.GreaterOrEqual(t, s.RfmScore, 0.0)
		assert.GreaterOrEqual(t, s.Clv, 0.0)
		if s.CustomerID == "refund" {
			assert.Equal(t, -5000.0, s.Monetary, "monetary vẫn giữ nguyên giá trị gốc")
			assert.Equal(t, 0.0, s.Clv)
		}
	}
}

func TestComputeScores_NonFiniteMonetary(t *testing.T) {
	customers := []Customer{
		{ID: "inf", TotalSpent: math.Inf(1), LastPurchaseAt: daysAgo(1)},
		{ID: "nan", TotalSpent: math.NaN(), LastPurchaseAt: daysAgo(1)},
		{ID: "normal", TotalSpent: 5, LastPurchaseAt: daysAgo(1)},
	}
	scores := ComputeScores(customers, ordersFor("normal", 1), nowMs)
	require.Len(t, scores, 3)

	for _, s := range scores {
		assert.False(t, math.IsNaN(s.RfmScore), s.CustomerID)
		assert.False(t, math.IsInf(s.Monetary, 0), s.CustomerID)
		assert.False(t, math.IsNaN(s.Monetary), s.CustomerID)
	}
	assert.Equal(t, "normal", scores[0].CustomerID)

	_, err := json.Marshal(scores)
	assert.NoError(t, err)
}

func TestRecencyDays(t *testing.T) {
	cases := []struct {
		name string
		last int64
		want int
	}{
		{"chưa mua", 0, 365},
		{"giá trị âm", -1, 365},
		{"hôm nay", nowMs, 0},
		{"tương lai", nowMs + 3*msPerDay, 0},
		{"làm tròn xuống", daysAgo(30.9), 30},
		{"quá 1 năm", daysAgo(400), 365},
		{"đúng 365", daysAgo(365), 365},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RecencyDays(tc.last, nowMs))
		})
	}
}

func TestChurnRiskFor(t *testing.T) {
	assert.Equal(t, 0.0, ChurnRiskFor(0))
	assert.Equal(t, 0.0, ChurnRiskFor(90))
	assert.Equal(t, 0.5, ChurnRiskFor(91))
	assert.Equal(t, 0.5, ChurnRiskFor(180))
	assert.Equal(t, 1.0, ChurnRiskFor(181))
	assert.Equal(t, 1.0, ChurnRiskFor(365))
}

func TestTierFor_BoundariesGoUp(t *testing.T) {
	assert.Equal(t, TierPlatinum, TierFor(100))
	assert.Equal(t, TierPlatinum, TierFor(75))
	assert.Equal(t, TierGold, TierFor(74.99))
	assert.Equal(t, TierGold, TierFor(60))
	assert.Equal(t, TierSilver, TierFor(59.99))
	assert.Equal(t, TierSilver, TierFor(40))
	assert.Equal(t, TierProspect, TierFor(39.99))
	assert.Equal(t, TierProspect, TierFor(0))
}

func TestParseTier(t *testing.T) {
	tier, ok := ParseTier("gold")
	assert.True(t, ok)
	assert.Equal(t, TierGold, tier)

	_, ok = ParseTier("diamond")
	assert.False(t, ok)
}
