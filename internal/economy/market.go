package economy

// demandFactor maps a supply tier to its scarcity multiplier. Scarce goods
// command a premium; gluts drag the price down.
func demandFactor(supply int) float64 {
	switch {
	case supply <= 5:
		return 1.5
	case supply <= 20:
		return 1.2
	case supply <= 50:
		return 1.0
	case supply <= 100:
		return 0.8
	default:
		return 0.6
	}
}

const priceHistoryCap = 32

// PriceRing is a fixed-capacity record of recent trade prices for one good.
type PriceRing struct {
	Prices []int `json:"prices"`
	Head   int   `json:"head"`
}

func (r *PriceRing) record(price int) {
	if len(r.Prices) < priceHistoryCap {
		r.Prices = append(r.Prices, price)
		r.Head = len(r.Prices) % priceHistoryCap
		return
	}
	r.Prices[r.Head] = price
	r.Head = (r.Head + 1) % priceHistoryCap
}

// Recent returns up to n prices, newest last.
func (r *PriceRing) Recent(n int) []int {
	if n > len(r.Prices) {
		n = len(r.Prices)
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		idx := ((r.Head - n + i) % len(r.Prices) + len(r.Prices)) % len(r.Prices)
		out = append(out, r.Prices[idx])
	}
	return out
}

// Market is one trading hub: per-good supply, an optional specialization
// category and a price history per good.
type Market struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Specialization Category              `json:"specialization,omitempty"`
	Supply         map[string]int        `json:"supply"`
	History        map[string]*PriceRing `json:"history,omitempty"`

	// Transient restock countdown, re-armed after load.
	RestockTimer float64 `json:"-"`
}

// MarketSpec describes a market to add.
type MarketSpec struct {
	ID             string
	Name           string
	Specialization Category
	Supply         map[string]int
}

func (m *Market) recordPrice(goodID string, price int) {
	if m.History == nil {
		m.History = make(map[string]*PriceRing)
	}
	ring, ok := m.History[goodID]
	if !ok {
		ring = &PriceRing{}
		m.History[goodID] = ring
	}
	ring.record(price)
}
