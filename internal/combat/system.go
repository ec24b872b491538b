package combat

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/emberhollow/aicore/internal/bt"
	"github.com/emberhollow/aicore/internal/events"
	"github.com/emberhollow/aicore/internal/faction"
	"github.com/emberhollow/aicore/internal/geom"
	"github.com/emberhollow/aicore/internal/nav"
	"github.com/emberhollow/aicore/internal/perception"
	"github.com/emberhollow/aicore/internal/sim"
)

// TargetInfo is a potential combat target supplied by the orchestrator each
// tick (live NPCs plus the player).
type TargetInfo struct {
	ID       string
	Faction  string
	Position geom.Vec2
	Alive    bool
}

// AttackHandler receives attacks landed on non-enemy targets (player, NPCs).
// The orchestrator wires it to the owning subsystem.
type AttackHandler func(attackerID, targetID string, damage float64)

// Config holds combat tuning.
type Config struct {
	ThreatDecayRate   float64 `yaml:"threat_decay_rate"` // threat lost per second
	FormationSpacing  float64 `yaml:"formation_spacing"`
	GuardReturnRange  float64 `yaml:"guard_return_range"` // distance from post that triggers a return
	PatrolRadius      float64 `yaml:"patrol_radius"` // default patrol route size
	WaypointTolerance float64 `yaml:"waypoint_tolerance"`
}

// DefaultConfig returns the shipped combat tuning.
func DefaultConfig() Config {
	return Config{
		ThreatDecayRate:   0.5,
		FormationSpacing:  2.5,
		GuardReturnRange:  5,
		PatrolRadius:      8,
		WaypointTolerance: 0.75,
	}
}

// System owns every registered enemy and its groups.
type System struct {
	cfg        Config
	bus        *events.Bus
	relations  *faction.Table
	pathfinder *nav.Pathfinder
	senses     *perception.Engine
	rng        *rand.Rand

	enemies map[string]*Enemy
	order   []string // registration order for the update pass
	groups  map[string]*Group

	catalog map[string]Stats // enemy type → archetype stats

	tree     *bt.Tree
	onAttack AttackHandler

	// Per-tick derived inputs.
	targets    []TargetInfo
	difficulty float64
}

// NewSystem creates the enemy combat system.
func NewSystem(cfg Config, bus *events.Bus, relations *faction.Table, pf *nav.Pathfinder, senses *perception.Engine, seed int64) *System {
	s := &System{
		cfg:        cfg,
		bus:        bus,
		relations:  relations,
		pathfinder: pf,
		senses:     senses,
		rng:        rand.New(rand.NewSource(seed)),
		enemies:    make(map[string]*Enemy),
		groups:     make(map[string]*Group),
		catalog:    make(map[string]Stats),
		difficulty: 1.0,
	}
	s.tree = buildEnemyTree()
	return s
}

// SetCatalog installs the enemy-type stat table (from config).
func (s *System) SetCatalog(catalog map[string]Stats) {
	s.catalog = catalog
}

// SetAttackHandler wires attacks on non-enemy targets to their owner.
func (s *System) SetAttackHandler(h AttackHandler) { s.onAttack = h }

// Register adds an enemy. A missing id fails with a warning, never a panic.
func (s *System) Register(spec Spec) bool {
	if spec.ID == "" {
		slog.Warn("combat: enemy registration missing id")
		return false
	}
	if _, exists := s.enemies[spec.ID]; exists {
		slog.Warn("combat: duplicate enemy id", "id", spec.ID)
		return false
	}

	stats := DefaultStats()
	if cat, ok := s.catalog[spec.Type]; ok {
		stats = cat
	}
	if spec.Stats != nil {
		stats = *spec.Stats
	}

	e := &Enemy{
		ID:            spec.ID,
		Type:          spec.Type,
		Faction:       spec.Faction,
		Stats:         stats,
		Position:      spec.Position,
		SpawnPos:      spec.Position,
		Health:        stats.MaxHealth,
		Alive:         true,
		State:         StateIdle,
		GuardPosition: spec.GuardPosition,
		Patrol:        spec.Patrol,
		board:         bt.NewBlackboard(),
		threat:        make(map[string]*ThreatEntry),
	}
	if len(e.Patrol) == 0 && e.GuardPosition == nil {
		e.Patrol = defaultPatrol(e.SpawnPos, s.cfg.PatrolRadius)
	}

	s.enemies[spec.ID] = e
	s.order = append(s.order, spec.ID)
	return true
}

// Unregister removes an enemy immediately: path state cleared, group
// membership dropped (with succession), threat and memories purged.
func (s *System) Unregister(id string) {
	e, ok := s.enemies[id]
	if !ok {
		return
	}
	e.clearMovement()
	if e.GroupID != "" {
		s.removeFromGroup(e)
	}
	for _, other := range s.enemies {
		other.dropThreat(id)
		if other.TargetID == id {
			other.TargetID = ""
		}
	}
	if s.senses != nil {
		s.senses.DropOwner(id)
		s.senses.DropTarget(id)
	}
	delete(s.enemies, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Enemy returns a registered enemy by id.
func (s *System) Enemy(id string) (*Enemy, bool) {
	e, ok := s.enemies[id]
	return e, ok
}

// Count returns the number of registered enemies.
func (s *System) Count() int { return len(s.enemies) }

// Living returns the ids and positions of live enemies, for the
// orchestrator's wildlife-threat and companion-hostile lists.
func (s *System) Living() []struct {
	ID       string
	Position geom.Vec2
} {
	out := make([]struct {
		ID       string
		Position geom.Vec2
	}, 0, len(s.order))
	for _, id := range s.order {
		if e := s.enemies[id]; e != nil && e.Alive {
			out = append(out, struct {
				ID       string
				Position geom.Vec2
			}{e.ID, e.Position})
		}
	}
	return out
}

// Update advances every enemy one tick, in registration order. targets is
// the orchestrator-built list of live NPCs and the player.
func (s *System) Update(dt float64, world *sim.WorldState, targets []TargetInfo) {
	s.targets = targets
	s.difficulty = world.Difficulty()

	var dead []string
	for _, id := range s.order {
		e := s.enemies[id]
		if e == nil {
			continue
		}
		if !e.Alive {
			dead = append(dead, id)
			continue
		}

		e.decayThreat(s.cfg.ThreatDecayRate, dt)
		if e.AttackCooldown > 0 {
			e.AttackCooldown -= dt
		}

		// Drop targets that no longer exist or died.
		if e.TargetID != "" {
			if _, ok := s.targetPosition(e.TargetID); !ok {
				e.dropThreat(e.TargetID)
				e.TargetID = ""
			}
		}

		ctx := &bt.Context{Agent: e, World: world, System: s, DT: dt, Board: e.board}
		s.tree.Tick(ctx)
	}

	// Deferred removal keeps the pass stable while groups mutate.
	for _, id := range dead {
		s.Unregister(id)
	}
}

// ApplyDamage applies damage to an enemy from a source (player or NPC id).
// Damage received adds full threat and triggers reactive aggro when idle.
func (s *System) ApplyDamage(id string, amount float64, sourceID string) bool {
	e, ok := s.enemies[id]
	if !ok {
		slog.Warn("combat: damage to unknown enemy", "id", id)
		return false
	}
	if !e.Alive || amount <= 0 {
		return false
	}

	e.Health -= amount
	e.addThreat(sourceID, amount)

	if e.TargetID == "" && sourceID != "" {
		s.acquireTarget(e, sourceID)
	}

	s.bus.Emit(events.EnemyDamaged, map[string]any{
		"enemyId": id, "sourceId": sourceID, "damage": amount, "health": e.Health,
	})

	if e.Health <= 0 {
		e.Health = 0
		e.Alive = false
		e.State = StateIdle
		e.clearMovement()
		s.bus.Emit(events.EnemyDied, map[string]any{"enemyId": id, "killerId": sourceID})
	}
	return true
}

// acquireTarget locks an enemy onto a target, alerts the group's bookkeeping
// and calls nearby same-faction idle allies for help.
func (s *System) acquireTarget(e *Enemy, targetID string) {
	e.TargetID = targetID
	s.bus.Emit(events.EnemyAggro, map[string]any{"enemyId": e.ID, "targetId": targetID})

	for _, ally := range s.enemies {
		if ally.ID == e.ID || !ally.Alive || ally.Faction != e.Faction {
			continue
		}
		if ally.TargetID != "" {
			continue
		}
		if ally.Position.Dist(e.Position) > e.Stats.CallForHelpRange {
			continue
		}
		ally.TargetID = targetID
		s.bus.Emit(events.EnemyAggro, map[string]any{"enemyId": ally.ID, "targetId": targetID, "via": e.ID})
	}

	if s.senses != nil {
		var allies []perception.Ally
		for _, ally := range s.enemies {
			if ally.ID != e.ID && ally.Alive && ally.Faction == e.Faction {
				allies = append(allies, perception.Ally{ID: ally.ID, Position: ally.Position})
			}
		}
		s.senses.ShareThreatWithAllies(e.ID, allies, targetID, e.Stats.CallForHelpRange)
	}
}

// scanForThreats runs a vision check against this tick's hostile targets and
// acquires one: the highest-threat known target when visible, otherwise the
// first seen. Returns whether a target was acquired.
func (s *System) scanForThreats(e *Enemy) bool {
	var candidates []perception.Target
	for _, t := range s.targets {
		if !t.Alive || !s.relations.IsHostile(e.Faction, t.Faction) {
			continue
		}
		candidates = append(candidates, perception.Target{ID: t.ID, Type: t.Faction, Position: t.Position})
	}
	if len(candidates) == 0 || s.senses == nil {
		return false
	}

	opts := perception.VisionOptions{
		BaseRange:  e.Stats.DetectionRange,
		FOVDegrees: e.Stats.FOVDegrees,
		Facing:     e.Facing,
	}
	seen := s.senses.CheckVision(e.ID, e.Position, candidates, opts)
	if len(seen) == 0 {
		return false
	}

	pick := seen[0].ID
	if byThreat := e.highestThreat(); byThreat != "" {
		for _, t := range seen {
			if t.ID == byThreat {
				pick = byThreat
				break
			}
		}
	}
	s.acquireTarget(e, pick)
	return true
}

// attack lands one hit on the current target if the cooldown allows.
func (s *System) attack(e *Enemy, targetID string) {
	if e.AttackCooldown > 0 {
		return
	}
	// Cooldown shortens and damage grows as difficulty rises.
	e.AttackCooldown = 1.0 / (e.Stats.AttackSpeed * s.difficulty)
	damage := e.Stats.AttackDamage * s.difficulty

	// Track our own aggression so retargeting favors the current fight.
	e.addThreat(targetID, 0.5*damage)

	if other, ok := s.enemies[targetID]; ok {
		s.ApplyDamage(other.ID, damage, e.ID)
		return
	}
	if s.onAttack != nil {
		s.onAttack(e.ID, targetID, damage)
	}
}

// targetPosition resolves a target id against this tick's target list and
// other enemies.
func (s *System) targetPosition(id string) (geom.Vec2, bool) {
	if id == "" {
		return geom.Vec2{}, false
	}
	for _, t := range s.targets {
		if t.ID == id {
			if !t.Alive {
				return geom.Vec2{}, false
			}
			return t.Position, true
		}
	}
	if e, ok := s.enemies[id]; ok && e.Alive {
		return e.Position, true
	}
	return geom.Vec2{}, false
}

// moveToward advances an enemy along a path to dest, requesting one from the
// pathfinder when needed. A failed query leaves the enemy in place; it will
// retry next tick.
func (s *System) moveToward(e *Enemy, dest geom.Vec2, dt float64) {
	if len(e.Path) == 0 || e.PathIndex >= len(e.Path) ||
		e.Path[len(e.Path)-1].Dist(dest) > s.cfg.WaypointTolerance*2 {
		res := s.pathfinder.FindPath(e.Position, dest, nav.Options{})
		if !res.OK {
			return
		}
		e.Path = res.Path
		e.PathIndex = 0
	}

	step := e.Stats.Speed * dt
	for step > 0 && e.PathIndex < len(e.Path) {
		wp := e.Path[e.PathIndex]
		d := e.Position.Dist(wp)
		if d <= s.cfg.WaypointTolerance {
			e.PathIndex++
			continue
		}
		move := step
		if move > d {
			move = d
		}
		dir := wp.Sub(e.Position).Normalized()
		e.Position = e.Position.Add(dir.Scale(move))
		e.Facing = dir.Angle()
		step -= move
	}
	if e.PathIndex >= len(e.Path) {
		e.clearMovement()
	}
}

// moveAway steps an enemy directly away from a point (fleeing ignores paths).
func (s *System) moveAway(e *Enemy, from geom.Vec2, dt float64) {
	dir := e.Position.Sub(from).Normalized()
	if dir == (geom.Vec2{}) {
		dir = geom.FromAngle(s.rng.Float64() * 2 * math.Pi)
	}
	e.Position = e.Position.Add(dir.Scale(e.Stats.Speed * dt))
	e.Facing = dir.Angle()
}
