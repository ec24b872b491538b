// Package companion drives player-allied creatures: a small command set,
// bonding that grows with attention, and a leash that keeps a follower from
// being lost.
package companion

import (
	"github.com/emberhollow/aicore/internal/bt"
	"github.com/emberhollow/aicore/internal/geom"
)

// CommandKind is one of the orders a companion understands.
type CommandKind string

const (
	CommandFollow CommandKind = "follow"
	CommandStay   CommandKind = "stay"
	CommandAttack CommandKind = "attack"
	CommandDefend CommandKind = "defend"
	CommandGather CommandKind = "gather"
	CommandScout  CommandKind = "scout"
	CommandPatrol CommandKind = "patrol"
	CommandReturn CommandKind = "return"
)

// Command is an order plus its parameters. Attack names a target; gather
// and patrol name a position.
type Command struct {
	Kind     CommandKind `json:"kind"`
	TargetID string      `json:"target_id,omitempty"`
	Position geom.Vec2   `json:"position"`
}

// Kind is one entry in the data-driven companion-type table.
type Kind struct {
	Name          string  `json:"name" yaml:"name"`
	MaxHealth     float64 `json:"max_health" yaml:"max_health"`
	Speed         float64 `json:"speed" yaml:"speed"`
	AttackDamage  float64 `json:"attack_damage" yaml:"attack_damage"`
	AttackRange   float64 `json:"attack_range" yaml:"attack_range"`
	CombatCapable bool    `json:"combat_capable" yaml:"combat_capable"`
	CanGather     bool    `json:"can_gather" yaml:"can_gather"`
}

// DefaultKindTable is the shipped companion catalog. Config may extend or
// override it.
func DefaultKindTable() map[string]Kind {
	return map[string]Kind{
		"dog": {
			Name: "dog", MaxHealth: 60, Speed: 5,
			AttackDamage: 8, AttackRange: 1.5, CombatCapable: true,
		},
		"hawk": {
			Name: "hawk", MaxHealth: 25, Speed: 9,
			AttackDamage: 4, AttackRange: 1, CombatCapable: true,
		},
		"mule": {
			Name: "mule", MaxHealth: 90, Speed: 3,
			CanGather: true,
		},
		"golem": {
			Name: "golem", MaxHealth: 200, Speed: 2.5,
			AttackDamage: 20, AttackRange: 2, CombatCapable: true, CanGather: true,
		},
		"cat": {
			Name: "cat", MaxHealth: 30, Speed: 6,
		},
	}
}

// Companion is one registered allied creature.
type Companion struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	Kind    Kind    `json:"kind"`
	OwnerID string  `json:"owner_id"`
	Bonding float64 `json:"bonding"` // 0–100

	Position geom.Vec2 `json:"position"`
	Facing   float64   `json:"facing"`
	Health   float64   `json:"health"`
	Alive    bool      `json:"alive"`

	Command  Command `json:"command"`
	TargetID string  `json:"target_id,omitempty"`

	// Transient state, rebuilt after load.
	Path        []geom.Vec2 `json:"-"`
	PathIndex   int         `json:"-"`
	GatherTimer float64     `json:"-"`
	Cooldown    float64     `json:"-"`

	board *bt.Blackboard
}

// Spec describes a companion to register. Type must name a table entry.
type Spec struct {
	ID       string
	Type     string
	OwnerID  string
	Position geom.Vec2
}

func (c *Companion) clearMovement() {
	c.Path = nil
	c.PathIndex = 0
}
