package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberhollow/aicore/internal/events"
	"github.com/emberhollow/aicore/internal/faction"
	"github.com/emberhollow/aicore/internal/geom"
	"github.com/emberhollow/aicore/internal/nav"
	"github.com/emberhollow/aicore/internal/perception"
	"github.com/emberhollow/aicore/internal/sim"
)

func newTestSystem(bus *events.Bus) *System {
	if bus == nil {
		bus = events.NewBus()
	}
	senses := perception.NewEngine(perception.DefaultConfig(), bus, 7)
	senses.SetEnvironment(sim.WeatherClear, 12)
	return NewSystem(DefaultConfig(), bus, faction.DefaultTable(), nav.NewPathfinder(1, 7), senses, 7)
}

func world() *sim.WorldState {
	return &sim.WorldState{
		Player:  sim.PlayerState{Position: geom.Vec2{X: 100, Y: 100}, Health: 100},
		Hour:    12,
		Season:  sim.SeasonSummer,
		Weather: sim.WeatherClear,
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestSystem(nil)
	assert.False(t, s.Register(Spec{}), "missing id must fail")
	assert.True(t, s.Register(Spec{ID: "e1", Faction: "bandits"}))
	assert.False(t, s.Register(Spec{ID: "e1", Faction: "bandits"}), "duplicate id must fail")
}

func TestAliveMatchesHealthAfterDamage(t *testing.T) {
	s := newTestSystem(nil)
	s.Register(Spec{ID: "e1", Faction: "bandits"})

	s.ApplyDamage("e1", 30, "player")
	e, _ := s.Enemy("e1")
	assert.True(t, e.Alive)
	assert.Equal(t, 70.0, e.Health)

	s.ApplyDamage("e1", 80, "player")
	assert.False(t, e.Alive)
	assert.Equal(t, 0.0, e.Health)
}

func TestReactiveAggro(t *testing.T) {
	s := newTestSystem(nil)
	s.Register(Spec{ID: "e1", Faction: "bandits"})

	s.ApplyDamage("e1", 5, "player")
	e, _ := s.Enemy("e1")
	assert.Equal(t, "player", e.TargetID)
	assert.Equal(t, 5.0, e.Threat("player"))
}

// Scenario from the design brief: a wounded enemy flees from its attacker on
// the next behavior evaluation.
func TestFleeScenario(t *testing.T) {
	s := newTestSystem(nil)
	stats := DefaultStats()
	stats.MaxHealth = 50
	stats.FleeHealthPercent = 0.3
	s.Register(Spec{ID: "e1", Faction: "bandits", Position: geom.Vec2{X: 10, Y: 10}, Stats: &stats})

	s.ApplyDamage("e1", 40, "player")
	e, _ := s.Enemy("e1")
	require.True(t, e.Alive)
	assert.Equal(t, 10.0, e.Health)
	assert.Equal(t, "player", e.TargetID)

	w := world()
	w.Player.Position = geom.Vec2{X: 12, Y: 10}
	before := e.Position
	s.Update(0.1, w, []TargetInfo{{ID: "player", Faction: "player", Position: w.Player.Position, Alive: true}})

	assert.Equal(t, StateFlee, e.State)
	assert.Greater(t, before.Dist(w.Player.Position), 0.0)
	assert.Greater(t, e.Position.Dist(w.Player.Position), before.Dist(w.Player.Position), "must move away from attacker")
}

func TestThreatDecayComposition(t *testing.T) {
	e := &Enemy{ID: "e"}
	e.addThreat("p", 10)
	e.decayThreat(1, 2)
	e.decayThreat(1, 3)

	e2 := &Enemy{ID: "e2"}
	e2.addThreat("p", 10)
	e2.decayThreat(1, 5)

	assert.Equal(t, e2.Threat("p"), e.Threat("p"))

	// Threat never goes negative; fully decayed entries vanish.
	e.decayThreat(1, 100)
	assert.Equal(t, 0.0, e.Threat("p"))
}

func TestCoordinatedAttackScenario(t *testing.T) {
	bus := events.NewBus()
	coordinated := 0
	bus.AddListener(func(ev events.Event) {
		if ev.Name == events.CoordinatedAttack {
			coordinated++
		}
	})
	s := newTestSystem(bus)
	for _, id := range []string{"a", "b", "c"} {
		s.Register(Spec{ID: id, Faction: "bandits", Position: geom.Vec2{X: 1}})
	}
	require.True(t, s.CreateGroup("pack", []string{"a", "b", "c"}))
	require.True(t, s.CoordinateGroupAttack("pack", "player"))

	for _, id := range []string{"a", "b", "c"} {
		e, _ := s.Enemy(id)
		assert.Equal(t, "player", e.TargetID)
	}
	g, _ := s.GroupOf("pack")
	assert.Equal(t, FormationSurround, g.Formation)
	assert.Equal(t, 1, coordinated)
}

func TestFormationLineSpacing(t *testing.T) {
	s := newTestSystem(nil)
	for _, id := range []string{"lead", "m1", "m2"} {
		s.Register(Spec{ID: id, Faction: "bandits"})
	}
	require.True(t, s.CreateGroup("g", []string{"lead", "m1", "m2"}))
	require.True(t, s.SetGroupFormation("g", FormationLine))

	m1, _ := s.Enemy("m1")
	m2, _ := s.Enemy("m2")
	require.NotNil(t, m1.FormationSlot)
	require.NotNil(t, m2.FormationSlot)

	lead, _ := s.Enemy("lead")
	d1 := m1.FormationSlot.Dist(lead.Position)
	d2 := m2.FormationSlot.Dist(lead.Position)
	assert.InDelta(t, d1, d2, 1e-9, "first two slots sit symmetrically about the leader")
	assert.Greater(t, m1.FormationSlot.Dist(*m2.FormationSlot), d1, "slots on opposite sides")
}

func TestUnknownFormationRejected(t *testing.T) {
	s := newTestSystem(nil)
	s.Register(Spec{ID: "a", Faction: "bandits"})
	s.CreateGroup("g", []string{"a"})
	assert.False(t, s.SetGroupFormation("g", Formation("wedge")))
}

func TestLeaderSuccession(t *testing.T) {
	s := newTestSystem(nil)
	for _, id := range []string{"lead", "m1", "m2"} {
		s.Register(Spec{ID: id, Faction: "bandits"})
	}
	s.CreateGroup("g", []string{"lead", "m1", "m2"})

	s.Unregister("lead")
	g, ok := s.GroupOf("g")
	require.True(t, ok)
	assert.Equal(t, "m1", g.LeaderID)
	assert.Len(t, g.Members, 2)

	s.Unregister("m1")
	s.Unregister("m2")
	_, ok = s.GroupOf("g")
	assert.False(t, ok, "empty group is deleted")
}

func TestCallForHelp(t *testing.T) {
	s := newTestSystem(nil)
	s.Register(Spec{ID: "victim", Faction: "bandits", Position: geom.Vec2{}})
	s.Register(Spec{ID: "near", Faction: "bandits", Position: geom.Vec2{X: 10}})
	s.Register(Spec{ID: "far", Faction: "bandits", Position: geom.Vec2{X: 500}})
	s.Register(Spec{ID: "other", Faction: "undead", Position: geom.Vec2{X: 5}})

	s.ApplyDamage("victim", 5, "player")

	near, _ := s.Enemy("near")
	far, _ := s.Enemy("far")
	other, _ := s.Enemy("other")
	assert.Equal(t, "player", near.TargetID)
	assert.Equal(t, "", far.TargetID)
	assert.Equal(t, "", other.TargetID, "different faction is not alerted")
}

func TestAttackCooldownScalesWithDifficulty(t *testing.T) {
	s := newTestSystem(nil)
	stats := DefaultStats()
	stats.AttackSpeed = 2
	s.Register(Spec{ID: "e1", Faction: "bandits", Stats: &stats})
	e, _ := s.Enemy("e1")
	e.TargetID = "player"

	w := world()
	w.DifficultyMultiplier = 2
	w.Player.Position = geom.Vec2{X: 1}

	hits := 0
	s.SetAttackHandler(func(attackerID, targetID string, damage float64) {
		hits++
		assert.Equal(t, stats.AttackDamage*2, damage, "damage scales with difficulty")
	})
	s.Update(0.01, w, []TargetInfo{{ID: "player", Faction: "player", Position: w.Player.Position, Alive: true}})

	require.Equal(t, 1, hits)
	assert.InDelta(t, 1.0/(2*2), e.AttackCooldown, 1e-9)
}

func TestScanAcquiresHostileAndAlertsAllies(t *testing.T) {
	bus := events.NewBus()
	aggro := 0
	bus.AddListener(func(ev events.Event) {
		if ev.Name == events.EnemyAggro {
			aggro++
		}
	})
	s := newTestSystem(bus)
	stats := DefaultStats()
	stats.FOVDegrees = 360
	s.Register(Spec{ID: "e1", Faction: "bandits", Position: geom.Vec2{}, Stats: &stats})

	w := world()
	w.Player.Position = geom.Vec2{X: 5}
	s.Update(0.1, w, []TargetInfo{{ID: "player", Faction: "player", Position: w.Player.Position, Alive: true}})

	e, _ := s.Enemy("e1")
	assert.Equal(t, "player", e.TargetID)
	assert.GreaterOrEqual(t, aggro, 1)
}

func TestDeadEnemyRemovedAfterPass(t *testing.T) {
	s := newTestSystem(nil)
	s.Register(Spec{ID: "e1", Faction: "bandits"})
	s.ApplyDamage("e1", 1000, "player")

	s.Update(0.1, world(), nil)
	assert.Equal(t, 0, s.Count())
}

func TestSerializeRoundTrip(t *testing.T) {
	s := newTestSystem(nil)
	s.Register(Spec{ID: "e1", Faction: "bandits", Position: geom.Vec2{X: 3, Y: 4}})
	s.Register(Spec{ID: "e2", Faction: "bandits"})
	s.CreateGroup("g", []string{"e1", "e2"})
	s.ApplyDamage("e1", 10, "player")

	snap := s.Serialize()
	restored := newTestSystem(nil)
	restored.Deserialize(snap)

	e, ok := restored.Enemy("e1")
	require.True(t, ok)
	assert.Equal(t, 90.0, e.Health)
	assert.Equal(t, "player", e.TargetID)
	assert.Equal(t, 10.0, e.Threat("player"))

	g, ok := restored.GroupOf("g")
	require.True(t, ok)
	assert.Equal(t, "e1", g.LeaderID)
}
