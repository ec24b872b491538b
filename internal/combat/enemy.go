// Package combat provides the enemy AI: per-enemy state machines driven by a
// shared behavior tree, threat tables for target arbitration, and group
// tactics with geometric formations.
package combat

import (
	"github.com/emberhollow/aicore/internal/bt"
	"github.com/emberhollow/aicore/internal/geom"
)

// State is an enemy's current behavior state.
type State string

const (
	StateIdle    State = "idle"
	StatePatrol  State = "patrol"
	StateAlert   State = "alert"
	StateChase   State = "chase"
	StateAttack  State = "attack"
	StateFlee    State = "flee"
	StateRetreat State = "retreat"
	StateGuard   State = "guard"
	StateRegroup State = "regroup"

	// Reserved states: declared for forward compatibility, no transition
	// currently reaches them.
	StateFlank  State = "flank"
	StateAmbush State = "ambush"
)

// Stats holds an enemy archetype's combat numbers.
type Stats struct {
	MaxHealth         float64 `json:"max_health" yaml:"max_health"`
	Speed             float64 `json:"speed" yaml:"speed"` // units/second
	AttackRange       float64 `json:"attack_range" yaml:"attack_range"`
	AttackDamage      float64 `json:"attack_damage" yaml:"attack_damage"`
	AttackSpeed       float64 `json:"attack_speed" yaml:"attack_speed"` // attacks/second at difficulty 1
	DetectionRange    float64 `json:"detection_range" yaml:"detection_range"`
	HearingRange      float64 `json:"hearing_range" yaml:"hearing_range"`
	FOVDegrees        float64 `json:"fov_degrees" yaml:"fov_degrees"`
	FleeHealthPercent float64 `json:"flee_health_percent" yaml:"flee_health_percent"`
	CallForHelpRange  float64 `json:"call_for_help_range" yaml:"call_for_help_range"`
}

// DefaultStats returns a baseline melee archetype.
func DefaultStats() Stats {
	return Stats{
		MaxHealth:         100,
		Speed:             3,
		AttackRange:       2,
		AttackDamage:      10,
		AttackSpeed:       1,
		DetectionRange:    15,
		HearingRange:      40,
		FOVDegrees:        180,
		FleeHealthPercent: 0.2,
		CallForHelpRange:  30,
	}
}

// Enemy is one registered combatant. All resumable behavior-tree progress
// (target, path, cooldowns) lives here, never in the shared tree.
type Enemy struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Faction string    `json:"faction"`
	Stats   Stats     `json:"stats"`

	Position geom.Vec2 `json:"position"`
	Facing   float64   `json:"facing"`
	SpawnPos geom.Vec2 `json:"spawn_pos"`

	Health float64 `json:"health"`
	Alive  bool    `json:"alive"`
	State  State   `json:"state"`

	TargetID      string     `json:"target_id,omitempty"`
	GuardPosition *geom.Vec2 `json:"guard_position,omitempty"`
	GroupID       string     `json:"group_id,omitempty"`

	Patrol      []geom.Vec2 `json:"patrol,omitempty"`
	PatrolIndex int         `json:"patrol_index,omitempty"`

	// Transient movement/combat state — rebuilt, not persisted.
	Path           []geom.Vec2 `json:"-"`
	PathIndex      int         `json:"-"`
	AttackCooldown float64     `json:"-"` // seconds until next attack
	FormationSlot  *geom.Vec2  `json:"-"`

	board  *bt.Blackboard
	threat map[string]*ThreatEntry
}

// Spec describes an enemy to register.
type Spec struct {
	ID            string
	Type          string
	Faction       string
	Position      geom.Vec2
	Stats         *Stats // nil uses the type's catalog entry or defaults
	GuardPosition *geom.Vec2
	Patrol        []geom.Vec2
}

// HealthFraction returns health/maxHealth.
func (e *Enemy) HealthFraction() float64 {
	if e.Stats.MaxHealth <= 0 {
		return 0
	}
	return e.Health / e.Stats.MaxHealth
}

// Board returns the enemy's blackboard.
func (e *Enemy) Board() *bt.Blackboard { return e.board }

// clearMovement drops any in-progress path.
func (e *Enemy) clearMovement() {
	e.Path = nil
	e.PathIndex = 0
}

// defaultPatrol builds a small square route around the spawn point for
// enemies registered without one.
func defaultPatrol(spawn geom.Vec2, radius float64) []geom.Vec2 {
	return []geom.Vec2{
		{X: spawn.X + radius, Y: spawn.Y},
		{X: spawn.X, Y: spawn.Y + radius},
		{X: spawn.X - radius, Y: spawn.Y},
		{X: spawn.X, Y: spawn.Y - radius},
	}
}
