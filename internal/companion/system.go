package companion

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/emberhollow/aicore/internal/bt"
	"github.com/emberhollow/aicore/internal/events"
	"github.com/emberhollow/aicore/internal/geom"
	"github.com/emberhollow/aicore/internal/nav"
	"github.com/emberhollow/aicore/internal/sim"
)

// HostileInfo is a combatant companions may engage, supplied by the
// orchestrator each tick.
type HostileInfo struct {
	ID       string
	Position geom.Vec2
	Alive    bool
}

// AttackHandler receives companion attacks; the orchestrator routes them to
// the enemy system.
type AttackHandler func(attackerID, targetID string, damage float64)

// Config holds companion tuning.
type Config struct {
	FollowDistance    float64 `yaml:"follow_distance"`
	MaxFollowDistance float64 `yaml:"max_follow_distance"`
	DefendRadius      float64 `yaml:"defend_radius"`
	BondRange         float64 `yaml:"bond_range"`
	BondGainPerSec    float64 `yaml:"bond_gain_per_sec"`
	BondDecayPerSec   float64 `yaml:"bond_decay_per_sec"`
	GatherSeconds     float64 `yaml:"gather_seconds"`
	ScoutRadius       float64 `yaml:"scout_radius"`
	PatrolRadius      float64 `yaml:"patrol_radius"`
	AttackCooldown    float64 `yaml:"attack_cooldown"`
	WaypointTolerance float64 `yaml:"waypoint_tolerance"`
}

// DefaultConfig returns the shipped companion tuning.
func DefaultConfig() Config {
	return Config{
		FollowDistance:    3,
		MaxFollowDistance: 40,
		DefendRadius:      12,
		BondRange:         15,
		BondGainPerSec:    0.05,
		BondDecayPerSec:   0.01,
		GatherSeconds:     3,
		ScoutRadius:       20,
		PatrolRadius:      8,
		AttackCooldown:    1.2,
		WaypointTolerance: 0.75,
	}
}

// System owns every registered companion.
type System struct {
	cfg        Config
	bus        *events.Bus
	pathfinder *nav.Pathfinder
	rng        *rand.Rand

	companions map[string]*Companion
	order      []string
	activeID   string // the one companion currently bonding

	kinds map[string]Kind

	tree     *bt.Tree
	onAttack AttackHandler

	// Per-tick derived inputs.
	hostiles []HostileInfo
	player   sim.PlayerState
}

// NewSystem creates the companion system with the default type table.
func NewSystem(cfg Config, bus *events.Bus, pf *nav.Pathfinder, seed int64) *System {
	s := &System{
		cfg:        cfg,
		bus:        bus,
		pathfinder: pf,
		rng:        rand.New(rand.NewSource(seed)),
		companions: make(map[string]*Companion),
		kinds:      DefaultKindTable(),
	}
	s.tree = buildCompanionTree()
	return s
}

// SetKindTable overrides or extends the companion catalog (from config).
func (s *System) SetKindTable(table map[string]Kind) {
	for name, k := range table {
		s.kinds[name] = k
	}
}

// SetAttackHandler wires companion attacks to the enemy system.
func (s *System) SetAttackHandler(h AttackHandler) { s.onAttack = h }

// Register adds a companion. A missing id or unknown type fails with a
// warning.
func (s *System) Register(spec Spec) bool {
	if spec.ID == "" {
		slog.Warn("companion: registration missing id")
		return false
	}
	if _, exists := s.companions[spec.ID]; exists {
		slog.Warn("companion: duplicate id", "id", spec.ID)
		return false
	}
	kind, ok := s.kinds[spec.Type]
	if !ok {
		slog.Warn("companion: unknown type", "type", spec.Type)
		return false
	}

	c := &Companion{
		ID:       spec.ID,
		Type:     spec.Type,
		Kind:     kind,
		OwnerID:  spec.OwnerID,
		Position: spec.Position,
		Health:   kind.MaxHealth,
		Alive:    true,
		Command:  Command{Kind: CommandFollow},
		board:    bt.NewBlackboard(),
	}
	s.companions[spec.ID] = c
	s.order = append(s.order, spec.ID)
	if s.activeID == "" {
		s.activeID = spec.ID
	}
	return true
}

// Unregister removes a companion immediately.
func (s *System) Unregister(id string) {
	c, ok := s.companions[id]
	if !ok {
		return
	}
	c.clearMovement()
	delete(s.companions, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.activeID == id {
		s.activeID = ""
		if len(s.order) > 0 {
			s.activeID = s.order[0]
		}
	}
}

// Companion returns a registered companion by id.
func (s *System) Companion(id string) (*Companion, bool) {
	c, ok := s.companions[id]
	return c, ok
}

// Count returns the number of registered companions.
func (s *System) Count() int { return len(s.companions) }

// SetActive marks which companion is currently out with the player; only it
// gains bonding.
func (s *System) SetActive(id string) bool {
	if _, ok := s.companions[id]; !ok {
		slog.Warn("companion: unknown active id", "id", id)
		return false
	}
	s.activeID = id
	return true
}

// ActiveID returns the currently active companion's id.
func (s *System) ActiveID() string { return s.activeID }

// IssueCommand validates and applies an order. Unknown kinds and commands
// the type is not capable of fail with a warning. Issuing any command
// resets movement and target state.
func (s *System) IssueCommand(id string, cmd Command) bool {
	c, ok := s.companions[id]
	if !ok {
		slog.Warn("companion: command to unknown companion", "id", id)
		return false
	}

	switch cmd.Kind {
	case CommandAttack, CommandDefend:
		if !c.Kind.CombatCapable {
			slog.Warn("companion: not combat capable", "id", id, "type", c.Type)
			return false
		}
	case CommandGather:
		if !c.Kind.CanGather {
			slog.Warn("companion: cannot gather", "id", id, "type", c.Type)
			return false
		}
	case CommandFollow, CommandStay, CommandScout, CommandPatrol, CommandReturn:
	default:
		slog.Warn("companion: unknown command", "id", id, "kind", string(cmd.Kind))
		return false
	}

	c.Command = cmd
	c.TargetID = cmd.TargetID
	c.GatherTimer = 0
	c.clearMovement()
	c.board.Clear()
	return true
}

// Update advances every companion one tick in registration order.
func (s *System) Update(dt float64, world *sim.WorldState, hostiles []HostileInfo) {
	s.hostiles = hostiles
	s.player = world.Player

	var dead []string
	for _, id := range s.order {
		c := s.companions[id]
		if c == nil {
			continue
		}
		if !c.Alive {
			dead = append(dead, id)
			continue
		}

		if c.Cooldown > 0 {
			c.Cooldown -= dt
		}
		s.updateBonding(c, dt)
		s.enforceLeash(c)

		ctx := &bt.Context{Agent: c, World: world, System: s, DT: dt, Board: c.board}
		s.tree.Tick(ctx)
	}

	for _, id := range dead {
		s.Unregister(id)
	}
}

// updateBonding grows the bond while this is the active companion near the
// player, and lets it fade otherwise.
func (s *System) updateBonding(c *Companion, dt float64) {
	near := c.Position.Dist(s.player.Position) <= s.cfg.BondRange
	if c.ID == s.activeID && near {
		c.Bonding = geom.Clamp(c.Bonding+s.cfg.BondGainPerSec*dt, 0, 100)
	} else {
		c.Bonding = geom.Clamp(c.Bonding-s.cfg.BondDecayPerSec*dt, 0, 100)
	}
}

// enforceLeash teleports a follower that fell too far behind to a random
// point near the player, so a companion is never permanently lost.
func (s *System) enforceLeash(c *Companion) {
	if c.Command.Kind != CommandFollow {
		return
	}
	if c.Position.Dist(s.player.Position) <= s.cfg.MaxFollowDistance {
		return
	}
	angle := s.rng.Float64() * 2 * math.Pi
	radius := 1 + s.rng.Float64()*2
	c.Position = s.player.Position.Add(geom.FromAngle(angle).Scale(radius))
	c.clearMovement()
	slog.Debug("companion leashed to player", "id", c.ID)
}

// ApplyDamage hurts a companion and emits the damage/death events.
func (s *System) ApplyDamage(id string, amount float64, sourceID string) bool {
	c, ok := s.companions[id]
	if !ok {
		slog.Warn("companion: damage to unknown companion", "id", id)
		return false
	}
	if !c.Alive || amount <= 0 {
		return false
	}

	c.Health -= amount
	s.bus.Emit(events.CompanionDamaged, map[string]any{
		"companionId": id, "sourceId": sourceID, "damage": amount, "health": c.Health,
	})

	if c.Health <= 0 {
		c.Health = 0
		c.Alive = false
		c.clearMovement()
		s.bus.Emit(events.CompanionDied, map[string]any{"companionId": id, "killerId": sourceID})
		return true
	}

	// A combat-capable companion defends itself.
	if c.Kind.CombatCapable && c.TargetID == "" {
		c.TargetID = sourceID
	}
	return true
}

// hostilePosition resolves a hostile id against this tick's list.
func (s *System) hostilePosition(id string) (geom.Vec2, bool) {
	for _, h := range s.hostiles {
		if h.ID == id {
			if !h.Alive {
				return geom.Vec2{}, false
			}
			return h.Position, true
		}
	}
	return geom.Vec2{}, false
}

// nearestHostile finds the closest live hostile within range of a point.
func (s *System) nearestHostile(from geom.Vec2, within float64) (HostileInfo, bool) {
	best := HostileInfo{}
	bestDist := math.Inf(1)
	for _, h := range s.hostiles {
		if !h.Alive {
			continue
		}
		if d := from.Dist(h.Position); d <= within && d < bestDist {
			best = h
			bestDist = d
		}
	}
	return best, bestDist <= within
}

// strike lands one hit if the cooldown allows.
func (s *System) strike(c *Companion, targetID string) {
	if c.Cooldown > 0 {
		return
	}
	c.Cooldown = s.cfg.AttackCooldown
	if s.onAttack != nil {
		s.onAttack(c.ID, targetID, c.Kind.AttackDamage)
	}
}

// moveToward advances a companion along a path to dest.
func (s *System) moveToward(c *Companion, dest geom.Vec2, dt float64) {
	if len(c.Path) == 0 || c.PathIndex >= len(c.Path) ||
		c.Path[len(c.Path)-1].Dist(dest) > s.cfg.WaypointTolerance*2 {
		res := s.pathfinder.FindPath(c.Position, dest, nav.Options{})
		if !res.OK {
			return
		}
		c.Path = res.Path
		c.PathIndex = 0
	}

	step := c.Kind.Speed * dt
	for step > 0 && c.PathIndex < len(c.Path) {
		wp := c.Path[c.PathIndex]
		d := c.Position.Dist(wp)
		if d <= s.cfg.WaypointTolerance {
			c.PathIndex++
			continue
		}
		move := step
		if move > d {
			move = d
		}
		dir := wp.Sub(c.Position).Normalized()
		c.Position = c.Position.Add(dir.Scale(move))
		c.Facing = dir.Angle()
		step -= move
	}
	if c.PathIndex >= len(c.Path) {
		c.clearMovement()
	}
}

// Snapshot is the serializable form of the companion system.
type Snapshot struct {
	Version    int         `json:"version"`
	Companions []Companion `json:"companions"`
	Order      []string    `json:"order"`
	ActiveID   string      `json:"active_id,omitempty"`
}

const snapshotVersion = 1

// Serialize copies all companion state into a plain snapshot.
func (s *System) Serialize() Snapshot {
	snap := Snapshot{
		Version:  snapshotVersion,
		Order:    append([]string(nil), s.order...),
		ActiveID: s.activeID,
	}
	for _, id := range s.order {
		snap.Companions = append(snap.Companions, *s.companions[id])
	}
	return snap
}

// Deserialize rebuilds live state from a snapshot.
func (s *System) Deserialize(snap Snapshot) {
	s.companions = make(map[string]*Companion, len(snap.Companions))
	s.order = append([]string(nil), snap.Order...)
	s.activeID = snap.ActiveID

	for _, rec := range snap.Companions {
		c := rec
		c.board = bt.NewBlackboard()
		c.clearMovement()
		c.GatherTimer = 0
		c.Cooldown = 0
		s.companions[c.ID] = &c
	}
}
