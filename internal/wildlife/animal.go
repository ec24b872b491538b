// Package wildlife simulates ambient animals: passive grazers that bolt,
// territorial neutrals, predators that hunt prey species, and herds that
// flock around a leader.
package wildlife

import (
	"github.com/emberhollow/aicore/internal/bt"
	"github.com/emberhollow/aicore/internal/geom"
	"github.com/emberhollow/aicore/internal/sim"
)

// Archetype selects the decision strategy for a species.
type Archetype string

const (
	ArchetypePassive    Archetype = "passive"
	ArchetypeNeutral    Archetype = "neutral"
	ArchetypeAggressive Archetype = "aggressive"
	ArchetypeHerd       Archetype = "herd"
)

// ActivityPattern gates when a species is awake.
type ActivityPattern string

const (
	ActivityDiurnal     ActivityPattern = "diurnal"
	ActivityNocturnal   ActivityPattern = "nocturnal"
	ActivityCrepuscular ActivityPattern = "crepuscular"
	ActivityAlways      ActivityPattern = "always"
)

// State is what an animal is currently doing.
type State string

const (
	StateIdle      State = "idle"
	StateGraze     State = "graze"
	StateFlee      State = "flee"
	StateHunt      State = "hunt"
	StateAttack    State = "attack"
	StateFlock     State = "flock"
	StateRest      State = "rest"
	StateHibernate State = "hibernate"
)

// Species is one entry in the data-driven animal table.
type Species struct {
	Name            string          `json:"name" yaml:"name"`
	Archetype       Archetype       `json:"archetype" yaml:"archetype"`
	Activity        ActivityPattern `json:"activity" yaml:"activity"`
	MaxHealth       float64         `json:"max_health" yaml:"max_health"`
	Speed           float64         `json:"speed" yaml:"speed"`
	DetectionRange  float64         `json:"detection_range" yaml:"detection_range"`
	AttackRange     float64         `json:"attack_range" yaml:"attack_range"`
	AttackDamage    float64         `json:"attack_damage" yaml:"attack_damage"`
	TerritoryRadius float64         `json:"territory_radius" yaml:"territory_radius"`
	CanHibernate    bool            `json:"can_hibernate" yaml:"can_hibernate"`
	HibernateSeason sim.Season      `json:"hibernate_season,omitempty" yaml:"hibernate_season,omitempty"`
	PreyTypes       []string        `json:"prey_types,omitempty" yaml:"prey_types,omitempty"`
}

// DefaultSpeciesTable is the shipped animal catalog. Config may extend or
// override it.
func DefaultSpeciesTable() map[string]Species {
	return map[string]Species{
		"deer": {
			Name: "deer", Archetype: ArchetypePassive, Activity: ActivityDiurnal,
			MaxHealth: 40, Speed: 6, DetectionRange: 18,
		},
		"rabbit": {
			Name: "rabbit", Archetype: ArchetypePassive, Activity: ActivityCrepuscular,
			MaxHealth: 10, Speed: 7, DetectionRange: 12,
		},
		"boar": {
			Name: "boar", Archetype: ArchetypeNeutral, Activity: ActivityDiurnal,
			MaxHealth: 70, Speed: 4, DetectionRange: 14,
			AttackRange: 1.5, AttackDamage: 12, TerritoryRadius: 10,
		},
		"bear": {
			Name: "bear", Archetype: ArchetypeNeutral, Activity: ActivityDiurnal,
			MaxHealth: 150, Speed: 4.5, DetectionRange: 20,
			AttackRange: 2, AttackDamage: 25, TerritoryRadius: 15,
			CanHibernate: true, HibernateSeason: sim.SeasonWinter,
		},
		"wolf": {
			Name: "wolf", Archetype: ArchetypeAggressive, Activity: ActivityNocturnal,
			MaxHealth: 60, Speed: 5.5, DetectionRange: 25,
			AttackRange: 1.5, AttackDamage: 15,
			PreyTypes: []string{"deer", "rabbit", "sheep", "player"},
		},
		"fox": {
			Name: "fox", Archetype: ArchetypeAggressive, Activity: ActivityCrepuscular,
			MaxHealth: 25, Speed: 6, DetectionRange: 16,
			AttackRange: 1, AttackDamage: 6,
			PreyTypes: []string{"rabbit"},
		},
		"sheep": {
			Name: "sheep", Archetype: ArchetypeHerd, Activity: ActivityDiurnal,
			MaxHealth: 30, Speed: 3, DetectionRange: 12,
		},
		"bison": {
			Name: "bison", Archetype: ArchetypeHerd, Activity: ActivityDiurnal,
			MaxHealth: 120, Speed: 4, DetectionRange: 16,
		},
	}
}

// Animal is one registered creature.
type Animal struct {
	ID      string    `json:"id"`
	Species string    `json:"species"`
	Stats   Species   `json:"stats"`
	HerdID  string    `json:"herd_id,omitempty"`
	State   State     `json:"state"`
	Spawn   geom.Vec2 `json:"spawn"`

	Position geom.Vec2 `json:"position"`
	Facing   float64   `json:"facing"` // radians
	Health   float64   `json:"health"`
	Alive    bool      `json:"alive"`
	TargetID string    `json:"target_id,omitempty"`

	// Transient movement state, rebuilt after load.
	Path      []geom.Vec2 `json:"-"`
	PathIndex int         `json:"-"`

	board *bt.Blackboard
}

// Spec describes an animal to register. Species must name a table entry.
type Spec struct {
	ID       string
	Species  string
	Position geom.Vec2
	HerdID   string
}

func (a *Animal) clearMovement() {
	a.Path = nil
	a.PathIndex = 0
}

// Herd groups animals that flock together. Members defer to the leader's
// wander target.
type Herd struct {
	ID       string    `json:"id"`
	LeaderID string    `json:"leader_id"`
	Members  []string  `json:"members"`
	Target   geom.Vec2 `json:"target"`
}
