package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberhollow/aicore/internal/events"
	"github.com/emberhollow/aicore/internal/sim"
)

func newTestSystem() (*System, *events.Bus) {
	bus := events.NewBus()
	s := NewSystem(DefaultConfig(), bus)
	s.AddMarket(MarketSpec{ID: "m1", Name: "Riverside", Supply: map[string]int{"bread": 3}})
	s.AddMerchant(MerchantSpec{
		ID: "t1", Name: "Odo", MarketID: "m1", Gold: 100,
		Inventory: map[string]int{"bread": 10},
	})
	return s, bus
}

func winterClear() *sim.WorldState {
	return &sim.WorldState{Season: sim.SeasonWinter, Weather: sim.WeatherClear}
}

func TestAddValidation(t *testing.T) {
	s, _ := newTestSystem()
	assert.False(t, s.AddMarket(MarketSpec{}), "missing market id must fail")
	assert.False(t, s.AddMarket(MarketSpec{ID: "m1"}), "duplicate market id must fail")
	assert.False(t, s.AddMerchant(MerchantSpec{MarketID: "m1"}), "missing merchant id must fail")
	assert.False(t, s.AddMerchant(MerchantSpec{ID: "t2", MarketID: "nowhere"}),
		"unknown market must fail")
}

// Bread at supply 3 in winter: 5 base × 1.5 scarcity × 1.4 winter food,
// floored to whole gold.
func TestWinterBreadScenario(t *testing.T) {
	s, _ := newTestSystem()
	s.Update(0, winterClear())

	price, ok := s.Price("m1", "bread")
	require.True(t, ok)
	assert.Equal(t, 10, price)
}

func TestPriceDeterministic(t *testing.T) {
	s, _ := newTestSystem()
	s.Update(0, winterClear())

	a, _ := s.Price("m1", "bread")
	b, _ := s.Price("m1", "bread")
	assert.Equal(t, a, b)
}

func TestScarcityRaisesPrice(t *testing.T) {
	s, _ := newTestSystem()
	m, _ := s.Market("m1")

	prev := 1 << 30
	for _, supply := range []int{3, 10, 30, 70, 150} {
		m.Supply["bread"] = supply
		price, ok := s.Price("m1", "bread")
		require.True(t, ok)
		assert.Less(t, price, prev, "supply %d must price below the scarcer tier", supply)
		prev = price
	}
}

func TestSpecializationBonus(t *testing.T) {
	s, _ := newTestSystem()
	s.AddMarket(MarketSpec{
		ID: "bakery", Specialization: CategoryFood,
		Supply: map[string]int{"bread": 3},
	})

	plain, _ := s.Price("m1", "bread")
	special, _ := s.Price("bakery", "bread")
	assert.Greater(t, special, plain)
}

func TestReputationDiscount(t *testing.T) {
	s, _ := newTestSystem()
	s.Update(0, winterClear())
	mer, _ := s.Merchant("t1")
	mer.Reputation = map[string]float64{"alice": 100}

	res := s.BuyFromMerchant("t1", "bread", 1, "alice", 1000)
	require.True(t, res.Success)
	assert.Equal(t, 8, res.UnitPrice, "100 reputation takes a fifth off 10.5 gold, floored")
}

func TestUnknownGoodAndMarketRejected(t *testing.T) {
	s, _ := newTestSystem()
	_, ok := s.Price("m1", "moonrock")
	assert.False(t, ok)
	_, ok = s.Price("atlantis", "bread")
	assert.False(t, ok)
}

func TestBuyFailuresLeaveStateUntouched(t *testing.T) {
	s, _ := newTestSystem()
	s.Update(0, winterClear())
	mer, _ := s.Merchant("t1")
	m, _ := s.Market("m1")

	check := func(res Result, reason string) {
		t.Helper()
		assert.False(t, res.Success)
		assert.Equal(t, reason, res.Reason)
		assert.Equal(t, 10, mer.Inventory["bread"])
		assert.Equal(t, 100, mer.Gold)
		assert.Equal(t, 3, m.Supply["bread"])
	}

	check(s.BuyFromMerchant("ghost", "bread", 1, "alice", 100), ReasonMerchantNotFound)
	check(s.BuyFromMerchant("t1", "moonrock", 1, "alice", 100), ReasonUnknownGood)
	check(s.BuyFromMerchant("t1", "bread", 50, "alice", 100), ReasonInsufficientStock)
	check(s.BuyFromMerchant("t1", "bread", 2, "alice", 5), ReasonInsufficientGold)
}

func TestBuySucceedsAndMutatesOnce(t *testing.T) {
	s, bus := newTestSystem()
	s.Update(0, winterClear())
	mer, _ := s.Merchant("t1")
	m, _ := s.Market("m1")

	var purchases int
	bus.AddListener(func(ev events.Event) {
		if ev.Name == events.Purchase {
			purchases++
		}
	})

	res := s.BuyFromMerchant("t1", "bread", 2, "alice", 50)
	require.True(t, res.Success)
	assert.Equal(t, 10, res.UnitPrice)
	assert.Equal(t, 20, res.Total)
	assert.Equal(t, 8, mer.Inventory["bread"])
	assert.Equal(t, 120, mer.Gold)
	assert.Equal(t, 1, m.Supply["bread"])
	assert.Equal(t, 1, purchases)
	assert.Equal(t, []int{10}, s.PriceHistory("m1", "bread", 5))
}

func TestSellToMerchant(t *testing.T) {
	s, _ := newTestSystem()
	s.Update(0, winterClear())
	mer, _ := s.Merchant("t1")
	m, _ := s.Market("m1")

	// 10 gold market price × 0.8 sell factor = 8 per loaf.
	res := s.SellToMerchant("t1", "bread", 3, "alice")
	require.True(t, res.Success)
	assert.Equal(t, 8, res.UnitPrice)
	assert.Equal(t, 76, mer.Gold)
	assert.Equal(t, 13, mer.Inventory["bread"])
	assert.Equal(t, 6, m.Supply["bread"])
}

func TestSellFailsWhenMerchantBroke(t *testing.T) {
	s, _ := newTestSystem()
	s.Update(0, winterClear())
	mer, _ := s.Merchant("t1")
	mer.Gold = 5
	m, _ := s.Market("m1")

	res := s.SellToMerchant("t1", "bread", 3, "alice")
	assert.False(t, res.Success)
	assert.Equal(t, ReasonMerchantBroke, res.Reason)
	assert.Equal(t, 5, mer.Gold)
	assert.Equal(t, 10, mer.Inventory["bread"])
	assert.Equal(t, 3, m.Supply["bread"])
}

func TestNegotiation(t *testing.T) {
	s, _ := newTestSystem()
	s.Update(0, winterClear()) // reference price 10

	res, ok := s.Negotiate("t1", "bread", 9, "alice")
	require.True(t, ok)
	assert.True(t, res.Accepted)
	assert.Equal(t, 9.0, res.Price)

	res, ok = s.Negotiate("t1", "bread", 5, "alice")
	require.True(t, ok)
	assert.False(t, res.Accepted)
	assert.Equal(t, 7.5, res.Counter, "counter is the average of proposal and reference")

	_, ok = s.Negotiate("ghost", "bread", 9, "alice")
	assert.False(t, ok)
}

func TestRestockRefillsMerchantAndEmits(t *testing.T) {
	s, bus := newTestSystem()
	mer, _ := s.Merchant("t1")
	mer.Restock = map[string]int{"bread": 15}
	m, _ := s.Market("m1")

	var restocked bool
	bus.AddListener(func(ev events.Event) {
		if ev.Name == events.MarketRestocked {
			restocked = true
		}
	})

	s.Update(DefaultConfig().RestockInterval, winterClear())
	assert.True(t, restocked)
	assert.Equal(t, 15, mer.Inventory["bread"], "merchant topped up to baseline")
	assert.Equal(t, 8, m.Supply["bread"], "3 + 10 regenerated − 5 taken")
}

func TestMerchantTravelsRoute(t *testing.T) {
	s, _ := newTestSystem()
	s.AddMarket(MarketSpec{ID: "m2"})
	s.AddMerchant(MerchantSpec{
		ID: "wanderer", MarketID: "m1", Route: []string{"m1", "m2"},
	})
	mer, _ := s.Merchant("wanderer")

	s.Update(DefaultConfig().TravelSeconds, winterClear())
	assert.Equal(t, "m2", mer.MarketID)

	s.Update(DefaultConfig().TravelSeconds, winterClear())
	assert.Equal(t, "m1", mer.MarketID, "route loops")
}

func TestSerializeRoundTrip(t *testing.T) {
	s, _ := newTestSystem()
	s.Update(0, winterClear())
	s.BuyFromMerchant("t1", "bread", 1, "alice", 100)

	snap := s.Serialize()
	restored, _ := func() (*System, *events.Bus) {
		bus := events.NewBus()
		return NewSystem(DefaultConfig(), bus), bus
	}()
	restored.Deserialize(snap)

	mer, ok := restored.Merchant("t1")
	require.True(t, ok)
	assert.Equal(t, 9, mer.Inventory["bread"])
	assert.Equal(t, 1.0, mer.Reputation["alice"])
	m, ok := restored.Market("m1")
	require.True(t, ok)
	assert.Equal(t, 2, m.Supply["bread"])
	assert.Equal(t, []int{10}, restored.PriceHistory("m1", "bread", 5))
}
