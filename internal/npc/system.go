package npc

import (
	"log/slog"
	"math/rand"

	"github.com/emberhollow/aicore/internal/bt"
	"github.com/emberhollow/aicore/internal/events"
	"github.com/emberhollow/aicore/internal/geom"
	"github.com/emberhollow/aicore/internal/nav"
	"github.com/emberhollow/aicore/internal/sim"
)

// Config holds NPC tuning.
type Config struct {
	MemoryCapacity         int     `yaml:"memory_capacity"`
	SocialInteractionRange float64 `yaml:"social_interaction_range"`
	SocialRelationStep     float64 `yaml:"social_relation_step"`
	CriticalNeedLevel      float64 `yaml:"critical_need_level"`
	NeedDecayPerHour       float64 `yaml:"need_decay_per_hour"`
	WaypointTolerance      float64 `yaml:"waypoint_tolerance"`
}

// DefaultConfig returns the shipped NPC tuning.
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:         100,
		SocialInteractionRange: 10,
		SocialRelationStep:     2,
		CriticalNeedLevel:      0.15,
		NeedDecayPerHour:       0.04,
		WaypointTolerance:      0.75,
	}
}

// System owns every registered NPC and the relationship graph.
type System struct {
	cfg        Config
	bus        *events.Bus
	pathfinder *nav.Pathfinder
	rng        *rand.Rand

	npcs  map[string]*NPC
	order []string

	// relationships[a][b] == relationships[b][a], always.
	relationships map[string]map[string]float64

	clock float64 // sim seconds since start
	tree  *bt.Tree
}

// NewSystem creates the NPC social system.
func NewSystem(cfg Config, bus *events.Bus, pf *nav.Pathfinder, seed int64) *System {
	if cfg.MemoryCapacity <= 0 {
		cfg.MemoryCapacity = DefaultConfig().MemoryCapacity
	}
	s := &System{
		cfg:           cfg,
		bus:           bus,
		pathfinder:    pf,
		rng:           rand.New(rand.NewSource(seed)),
		npcs:          make(map[string]*NPC),
		relationships: make(map[string]map[string]float64),
	}
	s.tree = buildNPCTree()
	return s
}

// Register adds an NPC. A missing id fails with a warning.
func (s *System) Register(spec Spec) bool {
	if spec.ID == "" {
		slog.Warn("npc: registration missing id")
		return false
	}
	if _, exists := s.npcs[spec.ID]; exists {
		slog.Warn("npc: duplicate id", "id", spec.ID)
		return false
	}

	personality := randomPersonality(s.rng)
	if spec.Personality != nil {
		personality = *spec.Personality
	}
	schedule := DefaultSchedule()
	if spec.Schedule != nil {
		schedule = *spec.Schedule
	}

	n := &NPC{
		ID:          spec.ID,
		Name:        spec.Name,
		Profession:  spec.Profession,
		Faction:     "villagers",
		Position:    spec.Position,
		HomePos:     spec.HomePos,
		WorkPos:     spec.WorkPos,
		Health:      100,
		MaxHealth:   100,
		Alive:       true,
		Speed:       2,
		Mood:        0.5,
		Personality: personality,
		Schedule:    schedule,
		Needs:       Needs{Hunger: 1, Energy: 1, Social: 1},
		Activity:    ActivityWander,
		board:       bt.NewBlackboard(),
	}
	s.npcs[spec.ID] = n
	s.order = append(s.order, spec.ID)
	return true
}

// Unregister removes an NPC and its movement state. Relationships involving
// it are dropped on both sides.
func (s *System) Unregister(id string) {
	n, ok := s.npcs[id]
	if !ok {
		return
	}
	n.clearMovement()
	delete(s.npcs, id)
	delete(s.relationships, id)
	for _, row := range s.relationships {
		delete(row, id)
	}
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// NPC returns a registered NPC by id.
func (s *System) NPC(id string) (*NPC, bool) {
	n, ok := s.npcs[id]
	return n, ok
}

// Count returns the number of registered NPCs.
func (s *System) Count() int { return len(s.npcs) }

// Living returns the ids and positions of live NPCs, for the orchestrator's
// enemy target list.
func (s *System) Living() []struct {
	ID       string
	Position geom.Vec2
} {
	out := make([]struct {
		ID       string
		Position geom.Vec2
	}, 0, len(s.order))
	for _, id := range s.order {
		if n := s.npcs[id]; n != nil && n.Alive {
			out = append(out, struct {
				ID       string
				Position geom.Vec2
			}{n.ID, n.Position})
		}
	}
	return out
}

// Update advances every NPC one tick in registration order.
func (s *System) Update(dt float64, world *sim.WorldState) {
	s.clock += dt
	hourly := s.cfg.NeedDecayPerHour * dt / 3600

	for _, id := range s.order {
		n := s.npcs[id]
		if n == nil || !n.Alive {
			continue
		}

		// Needs erode with time; sleeping restores energy, eating hunger.
		n.Needs.Hunger = geom.Clamp(n.Needs.Hunger-hourly, 0, 1)
		n.Needs.Energy = geom.Clamp(n.Needs.Energy-hourly, 0, 1)
		n.Needs.Social = geom.Clamp(n.Needs.Social-hourly*0.5, 0, 1)

		// Mood drifts slowly toward the needs baseline, biased by how
		// friendly a disposition the NPC has. Never snaps.
		n.Mood = geom.Clamp(n.Mood*0.95+n.Needs.baseline()*n.Personality.Friendliness*0.05, 0, 1)

		ctx := &bt.Context{Agent: n, World: world, System: s, DT: dt, Board: n.board}
		s.tree.Tick(ctx)
	}
}

// ApplyDamage hurts an NPC (from enemy attacks routed by the orchestrator).
func (s *System) ApplyDamage(id string, amount float64, sourceID string) bool {
	n, ok := s.npcs[id]
	if !ok || !n.Alive || amount <= 0 {
		return false
	}
	n.Health -= amount
	if n.Health <= 0 {
		n.Health = 0
		n.Alive = false
		n.clearMovement()
	}
	s.AddMemory(id, "attacked by "+sourceID, 0.9, sourceID)
	return true
}

// socialize picks a random other NPC in range, nudges the mutual bond and
// satisfies the social need.
func (s *System) socialize(n *NPC) bool {
	var nearby []*NPC
	for _, id := range s.order {
		other := s.npcs[id]
		if other == nil || other.ID == n.ID || !other.Alive {
			continue
		}
		if n.Position.Dist(other.Position) <= s.cfg.SocialInteractionRange {
			nearby = append(nearby, other)
		}
	}
	if len(nearby) == 0 {
		return false
	}
	partner := nearby[s.rng.Intn(len(nearby))]
	s.ModifyRelationship(n.ID, partner.ID, s.cfg.SocialRelationStep)
	n.Needs.Social = geom.Clamp(n.Needs.Social+0.1, 0, 1)
	partner.Needs.Social = geom.Clamp(partner.Needs.Social+0.05, 0, 1)
	return true
}

// moveToward advances an NPC along a path to dest.
func (s *System) moveToward(n *NPC, dest geom.Vec2, dt float64) {
	if len(n.Path) == 0 || n.PathIndex >= len(n.Path) ||
		n.Path[len(n.Path)-1].Dist(dest) > s.cfg.WaypointTolerance*2 {
		res := s.pathfinder.FindPath(n.Position, dest, nav.Options{})
		if !res.OK {
			return
		}
		n.Path = res.Path
		n.PathIndex = 0
	}

	step := n.Speed * dt
	for step > 0 && n.PathIndex < len(n.Path) {
		wp := n.Path[n.PathIndex]
		d := n.Position.Dist(wp)
		if d <= s.cfg.WaypointTolerance {
			n.PathIndex++
			continue
		}
		move := step
		if move > d {
			move = d
		}
		n.Position = n.Position.Add(wp.Sub(n.Position).Normalized().Scale(move))
		step -= move
	}
	if n.PathIndex >= len(n.Path) {
		n.clearMovement()
	}
}

// Snapshot is the serializable form of the NPC system.
type Snapshot struct {
	Version       int                           `json:"version"`
	NPCs          []NPC                         `json:"npcs"`
	Order         []string                      `json:"order"`
	Relationships map[string]map[string]float64 `json:"relationships"`
	Clock         float64                       `json:"clock"`
}

const snapshotVersion = 1

// Serialize copies all NPC state into a plain snapshot.
func (s *System) Serialize() Snapshot {
	snap := Snapshot{
		Version:       snapshotVersion,
		Order:         append([]string(nil), s.order...),
		Relationships: make(map[string]map[string]float64, len(s.relationships)),
		Clock:         s.clock,
	}
	for _, id := range s.order {
		snap.NPCs = append(snap.NPCs, *s.npcs[id])
	}
	for a, row := range s.relationships {
		cp := make(map[string]float64, len(row))
		for b, v := range row {
			cp[b] = v
		}
		snap.Relationships[a] = cp
	}
	return snap
}

// Deserialize rebuilds live state from a snapshot.
func (s *System) Deserialize(snap Snapshot) {
	s.npcs = make(map[string]*NPC, len(snap.NPCs))
	s.order = append([]string(nil), snap.Order...)
	s.relationships = make(map[string]map[string]float64, len(snap.Relationships))
	s.clock = snap.Clock

	for _, rec := range snap.NPCs {
		n := rec
		n.board = bt.NewBlackboard()
		n.clearMovement()
		s.npcs[n.ID] = &n
	}
	for a, row := range snap.Relationships {
		for b, v := range row {
			s.setRelation(a, b, v)
			s.setRelation(b, a, v)
		}
	}
}
