package economy

import (
	"log/slog"
	"math"
	"sort"

	"github.com/emberhollow/aicore/internal/events"
	"github.com/emberhollow/aicore/internal/sim"
)

// Transaction failure reasons.
const (
	ReasonMerchantNotFound  = "merchant_not_found"
	ReasonInsufficientStock = "insufficient_stock"
	ReasonInsufficientGold  = "insufficient_gold"
	ReasonMerchantBroke     = "merchant_broke"
	ReasonUnknownGood       = "unknown_good"
)

// Result is the outcome of a buy or sell. On failure no state was touched.
type Result struct {
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
	UnitPrice int    `json:"unit_price,omitempty"`
	Total     int    `json:"total,omitempty"`
}

// NegotiationResult is the outcome of a haggle.
type NegotiationResult struct {
	Accepted bool    `json:"accepted"`
	Price    float64 `json:"price"`           // agreed price when accepted
	Counter  float64 `json:"counter,omitempty"` // merchant's counter otherwise
}

// Config holds economy tuning.
type Config struct {
	SpecializationBonus float64 `yaml:"specialization_bonus"` // price mult when the good matches the market's trade
	SellFactor          float64 `yaml:"sell_factor"`          // fraction of buy price a merchant pays
	NegotiationBand     float64 `yaml:"negotiation_band"`     // accepted fraction around the reference price
	RestockInterval     float64 `yaml:"restock_interval"`     // seconds between restocks
	RestockSupply       int     `yaml:"restock_supply"`       // market supply regenerated per restock
	TravelSeconds       float64 `yaml:"travel_seconds"`       // time between route hops
	TradeReputation     float64 `yaml:"trade_reputation"`     // reputation earned per completed trade
}

// DefaultConfig returns the shipped economy tuning.
func DefaultConfig() Config {
	return Config{
		SpecializationBonus: 1.15,
		SellFactor:          0.8,
		NegotiationBand:     0.15,
		RestockInterval:     300,
		RestockSupply:       10,
		TravelSeconds:       600,
		TradeReputation:     1,
	}
}

// System owns every market and merchant. Pricing is deterministic: fixed
// supply, season, weather, events and reputation always yield the same
// price.
type System struct {
	cfg Config
	bus *events.Bus

	markets       map[string]*Market
	marketOrder   []string
	merchants     map[string]*Merchant
	merchantOrder []string

	goods map[string]Good

	// Environment cache, synced from the world snapshot each tick.
	season       sim.Season
	weather      sim.Weather
	activeEvents []string
}

// NewSystem creates the economy with the default goods catalog.
func NewSystem(cfg Config, bus *events.Bus) *System {
	return &System{
		cfg:       cfg,
		bus:       bus,
		markets:   make(map[string]*Market),
		merchants: make(map[string]*Merchant),
		goods:     DefaultGoodsTable(),
		season:    sim.SeasonSpring,
		weather:   sim.WeatherClear,
	}
}

// SetGoodsTable overrides or extends the goods catalog (from config).
func (s *System) SetGoodsTable(table map[string]Good) {
	for name, g := range table {
		s.goods[name] = g
	}
}

// AddMarket registers a market. A missing id fails with a warning.
func (s *System) AddMarket(spec MarketSpec) bool {
	if spec.ID == "" {
		slog.Warn("economy: market missing id")
		return false
	}
	if _, exists := s.markets[spec.ID]; exists {
		slog.Warn("economy: duplicate market id", "id", spec.ID)
		return false
	}
	supply := spec.Supply
	if supply == nil {
		supply = make(map[string]int)
	}
	s.markets[spec.ID] = &Market{
		ID:             spec.ID,
		Name:           spec.Name,
		Specialization: spec.Specialization,
		Supply:         supply,
		History:        make(map[string]*PriceRing),
		RestockTimer:   s.cfg.RestockInterval,
	}
	s.marketOrder = append(s.marketOrder, spec.ID)
	return true
}

// AddMerchant registers a merchant. A missing id or unknown market fails
// with a warning.
func (s *System) AddMerchant(spec MerchantSpec) bool {
	if spec.ID == "" {
		slog.Warn("economy: merchant missing id")
		return false
	}
	if _, exists := s.merchants[spec.ID]; exists {
		slog.Warn("economy: duplicate merchant id", "id", spec.ID)
		return false
	}
	if _, ok := s.markets[spec.MarketID]; !ok {
		slog.Warn("economy: merchant references unknown market", "id", spec.ID, "market", spec.MarketID)
		return false
	}
	inv := spec.Inventory
	if inv == nil {
		inv = make(map[string]int)
	}
	s.merchants[spec.ID] = &Merchant{
		ID:           spec.ID,
		Name:         spec.Name,
		MarketID:     spec.MarketID,
		HomeMarketID: spec.MarketID,
		Gold:         spec.Gold,
		Inventory:    inv,
		Restock:      spec.Restock,
		Route:        spec.Route,
		TravelTimer:  s.cfg.TravelSeconds,
	}
	s.merchantOrder = append(s.merchantOrder, spec.ID)
	return true
}

// Market returns a market by id.
func (s *System) Market(id string) (*Market, bool) {
	m, ok := s.markets[id]
	return m, ok
}

// Merchant returns a merchant by id.
func (s *System) Merchant(id string) (*Merchant, bool) {
	m, ok := s.merchants[id]
	return m, ok
}

// Update advances restock timers and merchant travel, and refreshes the
// pricing environment from the world snapshot.
func (s *System) Update(dt float64, world *sim.WorldState) {
	s.season = world.Season
	s.weather = world.Weather
	s.activeEvents = world.ActiveEvents

	for _, id := range s.marketOrder {
		m := s.markets[id]
		m.RestockTimer -= dt
		if m.RestockTimer <= 0 {
			m.RestockTimer += s.cfg.RestockInterval
			s.restock(m)
		}
	}

	for _, id := range s.merchantOrder {
		mer := s.merchants[id]
		if len(mer.Route) < 2 {
			continue
		}
		mer.TravelTimer -= dt
		if mer.TravelTimer <= 0 {
			mer.TravelTimer += s.cfg.TravelSeconds
			mer.RouteIndex = (mer.RouteIndex + 1) % len(mer.Route)
			next := mer.Route[mer.RouteIndex]
			if _, ok := s.markets[next]; ok {
				mer.MarketID = next
			}
		}
	}
}

// restock regenerates market supply and tops local merchants back up toward
// their baselines, drawing from that supply.
func (s *System) restock(m *Market) {
	for goodID := range s.goods {
		m.Supply[goodID] += s.cfg.RestockSupply
	}

	for _, id := range s.merchantOrder {
		mer := s.merchants[id]
		if mer.MarketID != m.ID || mer.Restock == nil {
			continue
		}
		for goodID, want := range mer.Restock {
			have := mer.Inventory[goodID]
			if have >= want {
				continue
			}
			take := want - have
			if take > m.Supply[goodID] {
				take = m.Supply[goodID]
			}
			if take <= 0 {
				continue
			}
			mer.Inventory[goodID] += take
			m.Supply[goodID] -= take
		}
	}

	s.bus.Emit(events.MarketRestocked, map[string]any{"marketId": m.ID})
}

// Price quotes the current price of a good at a market, without any
// counterpart discount. Deterministic for fixed market and world state.
func (s *System) Price(marketID, goodID string) (int, bool) {
	m, ok := s.markets[marketID]
	if !ok {
		slog.Warn("economy: price for unknown market", "market", marketID)
		return 0, false
	}
	if _, ok := s.goods[goodID]; !ok {
		slog.Warn("economy: price for unknown good", "good", goodID)
		return 0, false
	}
	return s.priceFor(m, goodID, 0), true
}

// priceFor computes the multiplicative price stack:
// base × demand(supply) × specialization × season × weather × events ×
// reputation discount, floored to whole gold with a minimum of 1.
func (s *System) priceFor(m *Market, goodID string, reputation float64) int {
	good := s.goods[goodID]
	price := good.BasePrice
	price *= demandFactor(m.Supply[goodID])
	if m.Specialization != "" && m.Specialization == good.Category {
		price *= s.cfg.SpecializationBonus
	}
	price *= modifierFor(seasonalModifiers[s.season], good.Category)
	price *= modifierFor(weatherModifiers[s.weather], good.Category)
	for _, ev := range s.activeEvents {
		price *= modifierFor(eventModifiers[ev], good.Category)
	}
	price *= 1 - reputation*0.002

	p := int(math.Floor(price))
	if p < 1 {
		p = 1
	}
	return p
}

// BuyFromMerchant purchases qty of a good. All validation happens before any
// mutation: a failed call leaves merchant inventory, gold and market supply
// untouched.
func (s *System) BuyFromMerchant(merchantID, goodID string, qty int, buyerID string, buyerGold int) Result {
	mer, ok := s.merchants[merchantID]
	if !ok {
		return Result{Reason: ReasonMerchantNotFound}
	}
	if _, ok := s.goods[goodID]; !ok {
		slog.Warn("economy: buy of unknown good", "good", goodID)
		return Result{Reason: ReasonUnknownGood}
	}
	if qty <= 0 || mer.Inventory[goodID] < qty {
		return Result{Reason: ReasonInsufficientStock}
	}

	m := s.markets[mer.MarketID]
	unit := s.priceFor(m, goodID, mer.reputationOf(buyerID))
	total := unit * qty
	if buyerGold < total {
		return Result{Reason: ReasonInsufficientGold}
	}

	mer.Inventory[goodID] -= qty
	mer.Gold += total
	if m.Supply[goodID] >= qty {
		m.Supply[goodID] -= qty
	} else {
		m.Supply[goodID] = 0
	}
	m.recordPrice(goodID, unit)
	mer.adjustReputation(buyerID, s.cfg.TradeReputation)

	s.bus.Emit(events.Purchase, map[string]any{
		"merchantId": merchantID, "buyerId": buyerID, "goodId": goodID,
		"qty": qty, "unitPrice": unit, "total": total,
	})
	return Result{Success: true, UnitPrice: unit, Total: total}
}

// SellToMerchant sells qty of a good to a merchant at a discount off the
// market price. Fails atomically when the merchant cannot pay.
func (s *System) SellToMerchant(merchantID, goodID string, qty int, sellerID string) Result {
	mer, ok := s.merchants[merchantID]
	if !ok {
		return Result{Reason: ReasonMerchantNotFound}
	}
	if _, ok := s.goods[goodID]; !ok {
		slog.Warn("economy: sale of unknown good", "good", goodID)
		return Result{Reason: ReasonUnknownGood}
	}
	if qty <= 0 {
		return Result{Reason: ReasonInsufficientStock}
	}

	m := s.markets[mer.MarketID]
	unit := int(math.Floor(float64(s.priceFor(m, goodID, mer.reputationOf(sellerID))) * s.cfg.SellFactor))
	if unit < 1 {
		unit = 1
	}
	total := unit * qty
	if mer.Gold < total {
		return Result{Reason: ReasonMerchantBroke}
	}

	mer.Gold -= total
	mer.Inventory[goodID] += qty
	m.Supply[goodID] += qty
	m.recordPrice(goodID, unit)
	mer.adjustReputation(sellerID, s.cfg.TradeReputation)

	s.bus.Emit(events.Sale, map[string]any{
		"merchantId": merchantID, "sellerId": sellerID, "goodId": goodID,
		"qty": qty, "unitPrice": unit, "total": total,
	})
	return Result{Success: true, UnitPrice: unit, Total: total}
}

// Negotiate haggles over one unit of a good. Proposals inside the
// reputation-widened band around the reference price are accepted outright;
// anything else draws a counter-offer halfway between proposal and
// reference.
func (s *System) Negotiate(merchantID, goodID string, proposal float64, counterpartID string) (NegotiationResult, bool) {
	mer, ok := s.merchants[merchantID]
	if !ok {
		slog.Warn("economy: negotiation with unknown merchant", "merchant", merchantID)
		return NegotiationResult{}, false
	}
	if _, ok := s.goods[goodID]; !ok {
		slog.Warn("economy: negotiation over unknown good", "good", goodID)
		return NegotiationResult{}, false
	}

	m := s.markets[mer.MarketID]
	reference := float64(s.priceFor(m, goodID, mer.reputationOf(counterpartID)))
	band := s.cfg.NegotiationBand + mer.reputationOf(counterpartID)*0.001

	low := reference * (1 - band)
	high := reference * (1 + band)
	if proposal >= low && proposal <= high {
		return NegotiationResult{Accepted: true, Price: proposal}, true
	}
	return NegotiationResult{Counter: (proposal + reference) / 2}, true
}

// PriceHistory returns up to n recent trade prices for a good at a market,
// newest last.
func (s *System) PriceHistory(marketID, goodID string, n int) []int {
	m, ok := s.markets[marketID]
	if !ok || m.History == nil {
		return nil
	}
	ring, ok := m.History[goodID]
	if !ok {
		return nil
	}
	return ring.Recent(n)
}

// Snapshot is the serializable form of the economy.
type Snapshot struct {
	Version       int        `json:"version"`
	Markets       []Market   `json:"markets"`
	Merchants     []Merchant `json:"merchants"`
	MarketOrder   []string   `json:"market_order"`
	MerchantOrder []string   `json:"merchant_order"`
}

const snapshotVersion = 1

// Serialize copies all market and merchant state into a plain snapshot.
func (s *System) Serialize() Snapshot {
	snap := Snapshot{
		Version:       snapshotVersion,
		MarketOrder:   append([]string(nil), s.marketOrder...),
		MerchantOrder: append([]string(nil), s.merchantOrder...),
	}
	for _, id := range s.marketOrder {
		snap.Markets = append(snap.Markets, copyMarket(s.markets[id]))
	}
	for _, id := range s.merchantOrder {
		snap.Merchants = append(snap.Merchants, copyMerchant(s.merchants[id]))
	}
	sort.Slice(snap.Markets, func(i, j int) bool { return snap.Markets[i].ID < snap.Markets[j].ID })
	sort.Slice(snap.Merchants, func(i, j int) bool { return snap.Merchants[i].ID < snap.Merchants[j].ID })
	return snap
}

// Deserialize rebuilds live state from a snapshot.
func (s *System) Deserialize(snap Snapshot) {
	s.markets = make(map[string]*Market, len(snap.Markets))
	s.marketOrder = append([]string(nil), snap.MarketOrder...)
	s.merchants = make(map[string]*Merchant, len(snap.Merchants))
	s.merchantOrder = append([]string(nil), snap.MerchantOrder...)

	for i := range snap.Markets {
		m := copyMarket(&snap.Markets[i])
		m.RestockTimer = s.cfg.RestockInterval
		s.markets[m.ID] = &m
	}
	for i := range snap.Merchants {
		mer := copyMerchant(&snap.Merchants[i])
		mer.TravelTimer = s.cfg.TravelSeconds
		s.merchants[mer.ID] = &mer
	}
}

// copyMarket and copyMerchant detach snapshots from live maps so that a
// serialized state cannot be mutated through the original.
func copyMarket(m *Market) Market {
	cp := *m
	cp.Supply = make(map[string]int, len(m.Supply))
	for k, v := range m.Supply {
		cp.Supply[k] = v
	}
	cp.History = make(map[string]*PriceRing, len(m.History))
	for k, ring := range m.History {
		r := *ring
		r.Prices = append([]int(nil), ring.Prices...)
		cp.History[k] = &r
	}
	return cp
}

func copyMerchant(m *Merchant) Merchant {
	cp := *m
	cp.Inventory = make(map[string]int, len(m.Inventory))
	for k, v := range m.Inventory {
		cp.Inventory[k] = v
	}
	if m.Restock != nil {
		cp.Restock = make(map[string]int, len(m.Restock))
		for k, v := range m.Restock {
			cp.Restock[k] = v
		}
	}
	if m.Reputation != nil {
		cp.Reputation = make(map[string]float64, len(m.Reputation))
		for k, v := range m.Reputation {
			cp.Reputation[k] = v
		}
	}
	cp.Route = append([]string(nil), m.Route...)
	return cp
}
