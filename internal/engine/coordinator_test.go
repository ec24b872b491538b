package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberhollow/aicore/internal/combat"
	"github.com/emberhollow/aicore/internal/companion"
	"github.com/emberhollow/aicore/internal/economy"
	"github.com/emberhollow/aicore/internal/events"
	"github.com/emberhollow/aicore/internal/geom"
	"github.com/emberhollow/aicore/internal/npc"
	"github.com/emberhollow/aicore/internal/sim"
	"github.com/emberhollow/aicore/internal/wildlife"
)

func newCoordinator() *Coordinator {
	return NewCoordinator(events.NewBus(), DefaultOptions())
}

func noonWorld(playerPos geom.Vec2) *sim.WorldState {
	return &sim.WorldState{
		Player: sim.PlayerState{Position: playerPos, Health: 100},
		Hour:   12, Season: sim.SeasonSummer, Weather: sim.WeatherClear,
	}
}

func TestUpdateWithoutWorldIsHarmless(t *testing.T) {
	c := newCoordinator()
	c.Update(0.1, nil) // must not panic
}

func TestEnemyAttackOnPlayerReachesHandler(t *testing.T) {
	c := newCoordinator()
	require.True(t, c.Enemies.Register(combat.Spec{
		ID: "e1", Faction: "bandits", Position: geom.Vec2{},
	}))

	var hits int
	var attacker string
	c.SetPlayerDamageHandler(func(attackerID string, damage float64) {
		hits++
		attacker = attackerID
	})

	w := noonWorld(geom.Vec2{X: 1})
	for i := 0; i < 5; i++ {
		c.Update(0.2, w)
	}

	assert.Greater(t, hits, 0, "adjacent hostile must land a hit within a second")
	assert.Equal(t, "e1", attacker)
}

func TestEnemyAttackOnNPCRoutesToNPCSystem(t *testing.T) {
	c := newCoordinator()
	require.True(t, c.Enemies.Register(combat.Spec{
		ID: "e1", Faction: "bandits", Position: geom.Vec2{},
	}))
	require.True(t, c.NPCs.Register(npc.Spec{ID: "n1", Position: geom.Vec2{X: 1}}))
	n, _ := c.NPCs.NPC("n1")

	// Keep the player out of sight so the NPC is the only candidate.
	w := noonWorld(geom.Vec2{X: 500})
	for i := 0; i < 5; i++ {
		c.Update(0.2, w)
	}

	assert.Less(t, n.Health, 100.0, "the bandit's hits must reach the villager")
}

func TestCompanionAttackRoutesToEnemySystem(t *testing.T) {
	c := newCoordinator()
	require.True(t, c.Enemies.Register(combat.Spec{
		ID: "e1", Faction: "undead", Position: geom.Vec2{X: 1},
	}))
	require.True(t, c.Companions.Register(companion.Spec{ID: "dog1", Type: "dog"}))
	require.True(t, c.Companions.IssueCommand("dog1", companion.Command{
		Kind: companion.CommandAttack, TargetID: "e1",
	}))
	e, _ := c.Enemies.Enemy("e1")

	w := noonWorld(geom.Vec2{X: 200})
	for i := 0; i < 10; i++ {
		c.Update(0.2, w)
	}

	assert.Less(t, e.Health, e.Stats.MaxHealth)
}

func TestWildlifeFearsEnemies(t *testing.T) {
	c := newCoordinator()
	require.True(t, c.Enemies.Register(combat.Spec{
		ID: "e1", Faction: "undead", Position: geom.Vec2{X: 55},
	}))
	require.True(t, c.Wildlife.Register(wildlife.Spec{
		ID: "d1", Species: "deer", Position: geom.Vec2{X: 50},
	}))
	deer, _ := c.Wildlife.Animal("d1")

	c.Update(0.2, noonWorld(geom.Vec2{X: 500}))
	assert.Equal(t, wildlife.StateFlee, deer.State)
}

func TestSnapshotRoundTripAcrossSubsystems(t *testing.T) {
	c := newCoordinator()
	c.NPCs.Register(npc.Spec{ID: "n1", Name: "Mara"})
	c.NPCs.Register(npc.Spec{ID: "n2", Name: "Tom"})
	c.NPCs.ModifyRelationship("n1", "n2", 25)
	c.Enemies.Register(combat.Spec{ID: "e1", Faction: "bandits"})
	c.Wildlife.Register(wildlife.Spec{ID: "d1", Species: "deer"})
	c.Companions.Register(companion.Spec{ID: "dog1", Type: "dog"})
	c.Economy.AddMarket(economy.MarketSpec{ID: "m1", Supply: map[string]int{"bread": 3}})

	snap := c.Serialize()
	restored := newCoordinator()
	require.NoError(t, restored.Deserialize(snap))

	assert.Equal(t, 25.0, restored.NPCs.Relationship("n2", "n1"))
	_, ok := restored.Enemies.Enemy("e1")
	assert.True(t, ok)
	_, ok = restored.Wildlife.Animal("d1")
	assert.True(t, ok)
	_, ok = restored.Companions.Companion("dog1")
	assert.True(t, ok)
	_, ok = restored.Economy.Market("m1")
	assert.True(t, ok)
}

func TestNewerSnapshotRefused(t *testing.T) {
	c := newCoordinator()
	err := c.Deserialize(Snapshot{Version: 99})
	assert.Error(t, err)
}
