package economy

// Merchant is one trader: stock, gold, a market it currently works, an
// optional circuit of markets and per-counterpart reputation.
type Merchant struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	MarketID     string         `json:"market_id"`
	HomeMarketID string         `json:"home_market_id"`
	Gold         int            `json:"gold"`
	Inventory    map[string]int `json:"inventory"`

	// Baseline stock levels the periodic restock refills toward.
	Restock map[string]int `json:"restock,omitempty"`

	// Route is an ordered circuit of market ids the merchant travels.
	Route      []string `json:"route,omitempty"`
	RouteIndex int      `json:"route_index,omitempty"`

	// Reputation per counterpart id, clamped to [0, 100]. Good standing
	// earns a discount.
	Reputation map[string]float64 `json:"reputation,omitempty"`

	// Transient travel countdown, re-armed after load.
	TravelTimer float64 `json:"-"`
}

// MerchantSpec describes a merchant to add.
type MerchantSpec struct {
	ID        string
	Name      string
	MarketID  string
	Gold      int
	Inventory map[string]int
	Restock   map[string]int
	Route     []string
}

func (m *Merchant) reputationOf(counterpartID string) float64 {
	if m.Reputation == nil {
		return 0
	}
	return m.Reputation[counterpartID]
}

func (m *Merchant) adjustReputation(counterpartID string, delta float64) {
	if counterpartID == "" {
		return
	}
	if m.Reputation == nil {
		m.Reputation = make(map[string]float64)
	}
	v := m.Reputation[counterpartID] + delta
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	m.Reputation[counterpartID] = v
}
