package wildlife

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

// ThreatInfo is something animals react to: the player, enemies, or anything
// else the orchestrator flags as dangerous to wildlife.
type ThreatInfo struct {
	ID       string
	Kind     string // "player", "enemy", ...
	Position geom.Vec2
}

// AttackHandler receives attacks landed on non-animal targets. The
// orchestrator wires it to the owning subsystem.
type AttackHandler func(attackerID, targetID string, damage float64)

// Config holds wildlife tuning.
type Config struct {
	Flock             FlockConfig `yaml:"flock"`
	WanderRadius      float64     `yaml:"wander_radius"`
	FleeDistance      float64     `yaml:"flee_distance"`
	AttackCooldown    float64     `yaml:"attack_cooldown"` // seconds between bites
	WaypointTolerance float64     `yaml:"waypoint_tolerance"`
}

// DefaultConfig returns the shipped wildlife tuning.
func DefaultConfig() Config {
	return Config{
		Flock:             DefaultFlockConfig(),
		WanderRadius:      10,
		FleeDistance:      25,
		AttackCooldown:    1.5,
		WaypointTolerance: 0.75,
	}
}

// System owns every registered animal and its herds.
type System struct {
	cfg        Config
	bus        *events.Bus
	pathfinder *nav.Pathfinder
	rng        *rand.Rand

	animals map[string]*Animal
	order   []string
	herds   map[string]*Herd

	species map[string]Species

	tree     *bt.Tree
	onAttack AttackHandler

	// Per-tick derived inputs.
	threats   []ThreatInfo
	cooldowns map[string]float64
}

// NewSystem creates the wildlife system with the default species table.
func NewSystem(cfg Config, bus *events.Bus, pf *nav.Pathfinder, seed int64) *System {
	s := &System{
		cfg:        cfg,
		bus:        bus,
		pathfinder: pf,
		rng:        rand.New(rand.NewSource(seed)),
		animals:    make(map[string]*Animal),
		herds:      make(map[string]*Herd),
		species:    DefaultSpeciesTable(),
		cooldowns:  make(map[string]float64),
	}
	s.tree = buildAnimalTree()
	return s
}

// SetSpeciesTable overrides or extends the species catalog (from config).
func (s *System) SetSpeciesTable(table map[string]Species) {
	for name, sp := range table {
		s.species[name] = sp
	}
}

// SetAttackHandler wires predator attacks on non-animal targets to their
// owner.
func (s *System) SetAttackHandler(h AttackHandler) { s.onAttack = h }

// Register adds an animal. A missing id or unknown species fails with a
// warning.
func (s *System) Register(spec Spec) bool {
	if spec.ID == "" {
		slog.Warn("wildlife: registration missing id")
		return false
	}
	if _, exists := s.animals[spec.ID]; exists {
		slog.Warn("wildlife: duplicate id", "id", spec.ID)
		return false
	}
	sp, ok := s.species[spec.Species]
	if !ok {
		slog.Warn("wildlife: unknown species", "species", spec.Species)
		return false
	}

	a := &Animal{
		ID:       spec.ID,
		Species:  spec.Species,
		Stats:    sp,
		Position: spec.Position,
		Spawn:    spec.Position,
		Health:   sp.MaxHealth,
		Alive:    true,
		State:    StateIdle,
		board:    bt.NewBlackboard(),
	}
	s.animals[spec.ID] = a
	s.order = append(s.order, spec.ID)

	// An explicit herd id groups any species; the herd archetype just makes
	// it the default behavior.
	if spec.HerdID != "" {
		s.joinHerd(a, spec.HerdID)
	}
	return true
}

// Unregister removes an animal immediately: path state cleared, herd
// membership dropped with leader succession.
func (s *System) Unregister(id string) {
	a, ok := s.animals[id]
	if !ok {
		return
	}
	a.clearMovement()
	if a.HerdID != "" {
		s.leaveHerd(a)
	}
	for _, other := range s.animals {
		if other.TargetID == id {
			other.TargetID = ""
		}
	}
	delete(s.animals, id)
	delete(s.cooldowns, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Animal returns a registered animal by id.
func (s *System) Animal(id string) (*Animal, bool) {
	a, ok := s.animals[id]
	return a, ok
}

// Herd returns a herd by id.
func (s *System) Herd(id string) (*Herd, bool) {
	h, ok := s.herds[id]
	return h, ok
}

// Count returns the number of registered animals.
func (s *System) Count() int { return len(s.animals) }

// joinHerd adds an animal to a herd, creating it on first use. The first
// member leads.
func (s *System) joinHerd(a *Animal, herdID string) {
	h, ok := s.herds[herdID]
	if !ok {
		h = &Herd{ID: herdID, LeaderID: a.ID, Target: a.Position}
		s.herds[herdID] = h
	}
	h.Members = append(h.Members, a.ID)
	a.HerdID = herdID
}

// leaveHerd drops an animal from its herd. A departing leader hands off to
// the first live remaining member; an empty herd is dissolved.
func (s *System) leaveHerd(a *Animal) {
	h, ok := s.herds[a.HerdID]
	a.HerdID = ""
	if !ok {
		return
	}
	for i, id := range h.Members {
		if id == a.ID {
			h.Members = append(h.Members[:i], h.Members[i+1:]...)
			break
		}
	}
	if len(h.Members) == 0 {
		delete(s.herds, h.ID)
		return
	}
	if h.LeaderID == a.ID {
		h.LeaderID = ""
		for _, id := range h.Members {
			if m, ok := s.animals[id]; ok && m.Alive {
				h.LeaderID = id
				break
			}
		}
		if h.LeaderID == "" {
			h.LeaderID = h.Members[0]
		}
	}
}

// active reports whether a species is awake at this hour.
func active(pattern ActivityPattern, world *sim.WorldState) bool {
	switch pattern {
	case ActivityDiurnal:
		return !world.IsNight()
	case ActivityNocturnal:
		return world.IsNight()
	case ActivityCrepuscular:
		// Dawn and dusk windows.
		return (world.Hour >= 5 && world.Hour < 8) || (world.Hour >= 17 && world.Hour < 20)
	default:
		return true
	}
}

// hibernating reports whether a species sleeps through the current season.
func hibernating(sp Species, world *sim.WorldState) bool {
	return sp.CanHibernate && world.Season == sp.HibernateSeason
}

// Update advances every animal one tick in registration order. threats is
// the orchestrator-built danger list (player, enemies).
func (s *System) Update(dt float64, world *sim.WorldState, threats []ThreatInfo) {
	s.threats = threats

	// Herd leaders drift the shared target before members move.
	for _, h := range s.herds {
		s.driftHerdTarget(h)
	}

	var dead []string
	for _, id := range s.order {
		a := s.animals[id]
		if a == nil {
			continue
		}
		if !a.Alive {
			dead = append(dead, id)
			continue
		}

		if cd := s.cooldowns[id]; cd > 0 {
			s.cooldowns[id] = cd - dt
		}

		// Hibernation and off-hours suppress the whole decision tree.
		if hibernating(a.Stats, world) {
			a.State = StateHibernate
			a.TargetID = ""
			a.clearMovement()
			continue
		}
		if !active(a.Stats.Activity, world) && a.TargetID == "" {
			a.State = StateRest
			a.clearMovement()
			continue
		}

		ctx := &bt.Context{Agent: a, World: world, System: s, DT: dt, Board: a.board}
		s.tree.Tick(ctx)
	}

	for _, id := range dead {
		s.Unregister(id)
	}
}

// driftHerdTarget rolls a new shared wander goal when the herd's leader has
// reached the current one.
func (s *System) driftHerdTarget(h *Herd) {
	leader, ok := s.animals[h.LeaderID]
	if !ok || !leader.Alive {
		return
	}
	if leader.Position.Dist(h.Target) > s.cfg.WaypointTolerance*2 {
		return
	}
	h.Target = leader.Spawn.Add(geom.Vec2{
		X: (s.rng.Float64()*2 - 1) * s.cfg.WanderRadius,
		Y: (s.rng.Float64()*2 - 1) * s.cfg.WanderRadius,
	})
}

// ApplyDamage hurts an animal. Neutral and aggressive species counter-attack
// the source; passive and herd species bolt.
func (s *System) ApplyDamage(id string, amount float64, sourceID string) bool {
	a, ok := s.animals[id]
	if !ok {
		slog.Warn("wildlife: damage to unknown animal", "id", id)
		return false
	}
	if !a.Alive || amount <= 0 {
		return false
	}

	a.Health -= amount
	if a.Health <= 0 {
		a.Health = 0
		a.Alive = false
		a.TargetID = ""
		a.clearMovement()
		return true
	}

	switch a.Stats.Archetype {
	case ArchetypeNeutral, ArchetypeAggressive:
		a.TargetID = sourceID
		a.State = StateAttack
	default:
		a.State = StateFlee
	}
	return true
}

// nearestThreat finds the closest danger within range of an animal.
func (s *System) nearestThreat(a *Animal, within float64) (ThreatInfo, bool) {
	best := ThreatInfo{}
	bestDist := math.Inf(1)
	for _, t := range s.threats {
		d := a.Position.Dist(t.Position)
		if d <= within && d < bestDist {
			best = t
			bestDist = d
		}
	}
	return best, bestDist <= within
}

// findPrey scans for the closest detectable prey: animals of a listed
// species, or a listed external threat kind (e.g. the player).
func (s *System) findPrey(a *Animal) (string, geom.Vec2, bool) {
	preys := func(kind string) bool {
		for _, p := range a.Stats.PreyTypes {
			if p == kind {
				return true
			}
		}
		return false
	}

	bestID := ""
	var bestPos geom.Vec2
	bestDist := a.Stats.DetectionRange
	for _, id := range s.order {
		other := s.animals[id]
		if other == nil || other.ID == a.ID || !other.Alive || !preys(other.Species) {
			continue
		}
		if d := a.Position.Dist(other.Position); d <= bestDist {
			bestID, bestPos, bestDist = other.ID, other.Position, d
		}
	}
	for _, t := range s.threats {
		if !preys(t.Kind) {
			continue
		}
		if d := a.Position.Dist(t.Position); d <= bestDist {
			bestID, bestPos, bestDist = t.ID, t.Position, d
		}
	}
	return bestID, bestPos, bestID != ""
}

// targetPosition resolves a target id against animals and this tick's threat
// list.
func (s *System) targetPosition(id string) (geom.Vec2, bool) {
	if other, ok := s.animals[id]; ok && other.Alive {
		return other.Position, true
	}
	for _, t := range s.threats {
		if t.ID == id {
			return t.Position, true
		}
	}
	return geom.Vec2{}, false
}

// bite lands one hit on the current target if the cooldown allows.
func (s *System) bite(a *Animal, targetID string) {
	if s.cooldowns[a.ID] > 0 {
		return
	}
	s.cooldowns[a.ID] = s.cfg.AttackCooldown

	if other, ok := s.animals[targetID]; ok {
		s.ApplyDamage(other.ID, a.Stats.AttackDamage, a.ID)
		return
	}
	if s.onAttack != nil {
		s.onAttack(a.ID, targetID, a.Stats.AttackDamage)
	}
}

// moveToward advances an animal along a path to dest.
func (s *System) moveToward(a *Animal, dest geom.Vec2, dt float64) {
	if len(a.Path) == 0 || a.PathIndex >= len(a.Path) ||
		a.Path[len(a.Path)-1].Dist(dest) > s.cfg.WaypointTolerance*2 {
		res := s.pathfinder.FindPath(a.Position, dest, nav.Options{})
		if !res.OK {
			return
		}
		a.Path = res.Path
		a.PathIndex = 0
	}

	step := a.Stats.Speed * dt
	for step > 0 && a.PathIndex < len(a.Path) {
		wp := a.Path[a.PathIndex]
		d := a.Position.Dist(wp)
		if d <= s.cfg.WaypointTolerance {
			a.PathIndex++
			continue
		}
		move := step
		if move > d {
			move = d
		}
		dir := wp.Sub(a.Position).Normalized()
		a.Position = a.Position.Add(dir.Scale(move))
		a.Facing = dir.Angle()
		step -= move
	}
	if a.PathIndex >= len(a.Path) {
		a.clearMovement()
	}
}

// moveAway steps an animal directly away from a point.
func (s *System) moveAway(a *Animal, from geom.Vec2, dt float64) {
	dir := a.Position.Sub(from).Normalized()
	if dir == (geom.Vec2{}) {
		dir = geom.FromAngle(s.rng.Float64() * 2 * math.Pi)
	}
	a.Position = a.Position.Add(dir.Scale(a.Stats.Speed * dt))
	a.Facing = dir.Angle()
}

// herdNeighbors returns the live members of an animal's herd.
func (s *System) herdNeighbors(a *Animal) []*Animal {
	h, ok := s.herds[a.HerdID]
	if !ok {
		return nil
	}
	out := make([]*Animal, 0, len(h.Members))
	for _, id := range h.Members {
		if m, ok := s.animals[id]; ok && m.Alive {
			out = append(out, m)
		}
	}
	return out
}
