// Package engine wires the AI subsystems together and drives them with a
// tick loop. The Coordinator owns update ordering and cross-subsystem
// routing; nothing here holds hidden global state.
package engine

import (
	"log/slog"

	"github.com/emberhollow/aicore/internal/combat"
	"github.com/emberhollow/aicore/internal/companion"
	"github.com/emberhollow/aicore/internal/economy"
	"github.com/emberhollow/aicore/internal/events"
	"github.com/emberhollow/aicore/internal/faction"
	"github.com/emberhollow/aicore/internal/nav"
	"github.com/emberhollow/aicore/internal/npc"
	"github.com/emberhollow/aicore/internal/perception"
	"github.com/emberhollow/aicore/internal/sim"
	"github.com/emberhollow/aicore/internal/wildlife"
)

// PlayerDamageHandler receives attacks that land on the player. The game
// layer supplies it; the core never mutates player state directly.
type PlayerDamageHandler func(attackerID string, damage float64)

// Options bundles per-subsystem tuning for the Coordinator constructor.
type Options struct {
	Seed       int64
	CellSize   float64
	Perception perception.Config
	Combat     combat.Config
	NPC        npc.Config
	Wildlife   wildlife.Config
	Companion  companion.Config
	Economy    economy.Config
}

// DefaultOptions returns the shipped tuning for every subsystem.
func DefaultOptions() Options {
	return Options{
		Seed:       1,
		CellSize:   1.0,
		Perception: perception.DefaultConfig(),
		Combat:     combat.DefaultConfig(),
		NPC:        npc.DefaultConfig(),
		Wildlife:   wildlife.DefaultConfig(),
		Companion:  companion.DefaultConfig(),
		Economy:    economy.DefaultConfig(),
	}
}

// Coordinator owns every subsystem and sequences their updates. All
// cross-subsystem traffic (attack routing, derived target lists) flows
// through it.
type Coordinator struct {
	Bus        *events.Bus
	Relations  *faction.Table
	Pathfinder *nav.Pathfinder
	Senses     *perception.Engine
	NPCs       *npc.System
	Enemies    *combat.System
	Wildlife   *wildlife.System
	Companions *companion.System
	Economy    *economy.System

	onPlayerDamage PlayerDamageHandler
}

// NewCoordinator constructs and wires every subsystem. The bus may be shared
// with the caller; pass nil to create a private one.
func NewCoordinator(bus *events.Bus, opts Options) *Coordinator {
	if bus == nil {
		bus = events.NewBus()
	}
	pf := nav.NewPathfinder(opts.CellSize, opts.Seed)
	senses := perception.NewEngine(opts.Perception, bus, opts.Seed)
	relations := faction.DefaultTable()

	c := &Coordinator{
		Bus:        bus,
		Relations:  relations,
		Pathfinder: pf,
		Senses:     senses,
		NPCs:       npc.NewSystem(opts.NPC, bus, pf, opts.Seed),
		Enemies:    combat.NewSystem(opts.Combat, bus, relations, pf, senses, opts.Seed),
		Wildlife:   wildlife.NewSystem(opts.Wildlife, bus, pf, opts.Seed),
		Companions: companion.NewSystem(opts.Companion, bus, pf, opts.Seed),
		Economy:    economy.NewSystem(opts.Economy, bus),
	}

	c.Enemies.SetAttackHandler(c.routeEnemyAttack)
	c.Wildlife.SetAttackHandler(c.routeEnemyAttack)
	c.Companions.SetAttackHandler(c.routeCompanionAttack)
	return c
}

// SetPlayerDamageHandler wires player damage out to the game layer.
func (c *Coordinator) SetPlayerDamageHandler(h PlayerDamageHandler) {
	c.onPlayerDamage = h
}

// routeEnemyAttack delivers an enemy or predator hit to whichever subsystem
// owns the target.
func (c *Coordinator) routeEnemyAttack(attackerID, targetID string, damage float64) {
	if targetID == "player" {
		if c.onPlayerDamage != nil {
			c.onPlayerDamage(attackerID, damage)
		}
		return
	}
	if _, ok := c.NPCs.NPC(targetID); ok {
		c.NPCs.ApplyDamage(targetID, damage, attackerID)
		return
	}
	if _, ok := c.Companions.Companion(targetID); ok {
		c.Companions.ApplyDamage(targetID, damage, attackerID)
		return
	}
	if _, ok := c.Wildlife.Animal(targetID); ok {
		c.Wildlife.ApplyDamage(targetID, damage, attackerID)
		return
	}
	slog.Warn("engine: attack on unknown target", "attacker", attackerID, "target", targetID)
}

// routeCompanionAttack delivers a companion hit; companions fight enemies
// and hostile wildlife.
func (c *Coordinator) routeCompanionAttack(attackerID, targetID string, damage float64) {
	if _, ok := c.Enemies.Enemy(targetID); ok {
		c.Enemies.ApplyDamage(targetID, damage, attackerID)
		return
	}
	if _, ok := c.Wildlife.Animal(targetID); ok {
		c.Wildlife.ApplyDamage(targetID, damage, attackerID)
		return
	}
	slog.Warn("engine: companion attack on unknown target", "attacker", attackerID, "target", targetID)
}

// Update advances the whole AI core one tick. Order is fixed: perception
// environment first, then NPCs, enemies (fed live NPC and player targets),
// wildlife, companions, economy.
func (c *Coordinator) Update(dt float64, world *sim.WorldState) {
	if world == nil {
		slog.Warn("engine: update without world state")
		return
	}

	c.Senses.SetEnvironment(world.Weather, world.Hour)
	c.Senses.Update(dt)

	c.NPCs.Update(dt, world)
	c.Enemies.Update(dt, world, c.buildEnemyTargets(world))
	c.Wildlife.Update(dt, world, c.buildWildlifeThreats(world))
	c.Companions.Update(dt, world, c.buildCompanionHostiles())
	c.Economy.Update(dt, world)
}

// buildEnemyTargets derives the combat target list: the player plus every
// live NPC.
func (c *Coordinator) buildEnemyTargets(world *sim.WorldState) []combat.TargetInfo {
	targets := []combat.TargetInfo{{
		ID:       "player",
		Faction:  "player",
		Position: world.Player.Position,
		Alive:    world.Player.Health > 0,
	}}
	for _, n := range c.NPCs.Living() {
		targets = append(targets, combat.TargetInfo{
			ID:       n.ID,
			Faction:  "villagers",
			Position: n.Position,
			Alive:    true,
		})
	}
	return targets
}

// buildWildlifeThreats derives what animals fear: the player and every live
// enemy.
func (c *Coordinator) buildWildlifeThreats(world *sim.WorldState) []wildlife.ThreatInfo {
	threats := []wildlife.ThreatInfo{{
		ID:       "player",
		Kind:     "player",
		Position: world.Player.Position,
	}}
	for _, e := range c.Enemies.Living() {
		threats = append(threats, wildlife.ThreatInfo{
			ID:       e.ID,
			Kind:     "enemy",
			Position: e.Position,
		})
	}
	return threats
}

// buildCompanionHostiles derives what companions may engage: live enemies.
func (c *Coordinator) buildCompanionHostiles() []companion.HostileInfo {
	var hostiles []companion.HostileInfo
	for _, e := range c.Enemies.Living() {
		hostiles = append(hostiles, companion.HostileInfo{
			ID:       e.ID,
			Position: e.Position,
			Alive:    true,
		})
	}
	return hostiles
}
