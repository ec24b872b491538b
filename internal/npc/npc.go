// Package npc provides the villager AI: personality-biased mood, hourly
// schedules, scored long-term memory, and symmetric relationships.
package npc

import (
	"math/rand"

	"github.com/emberhollow/aicore/internal/bt"
	"github.com/emberhollow/aicore/internal/geom"
)

// Personality holds five independent traits in [0,1].
type Personality struct {
	Bravery      float64 `json:"bravery"`
	Friendliness float64 `json:"friendliness"`
	WorkEthic    float64 `json:"work_ethic"`
	Curiosity    float64 `json:"curiosity"`
	Sociability  float64 `json:"sociability"`
}

// randomPersonality rolls all five traits.
func randomPersonality(rng *rand.Rand) Personality {
	return Personality{
		Bravery:      rng.Float64(),
		Friendliness: rng.Float64(),
		WorkEthic:    rng.Float64(),
		Curiosity:    rng.Float64(),
		Sociability:  rng.Float64(),
	}
}

// Activity is what an NPC is doing, scheduled or forced.
type Activity string

const (
	ActivitySleep     Activity = "sleep"
	ActivityWork      Activity = "work"
	ActivityEat       Activity = "eat"
	ActivitySocialize Activity = "socialize"
	ActivityWander    Activity = "wander"
	ActivityShelter   Activity = "shelter"
	ActivityFestival  Activity = "festival"
	ActivityEmergency Activity = "emergency"
)

// Schedule maps each hour of the day to a default activity.
type Schedule [24]Activity

// DefaultSchedule is the villager routine: sleep nights, work days, meals
// and an evening of socializing.
func DefaultSchedule() Schedule {
	var s Schedule
	for h := 0; h < 24; h++ {
		switch {
		case h < 6 || h >= 22:
			s[h] = ActivitySleep
		case h == 7 || h == 12 || h == 18:
			s[h] = ActivityEat
		case h >= 19 && h < 22:
			s[h] = ActivitySocialize
		default:
			s[h] = ActivityWork
		}
	}
	return s
}

// Needs tracks satisfaction levels in [0,1]; low values demand attention.
type Needs struct {
	Hunger float64 `json:"hunger"`
	Energy float64 `json:"energy"`
	Social float64 `json:"social"`
}

// lowest returns the most pressing need's value.
func (n Needs) lowest() float64 {
	low := n.Hunger
	if n.Energy < low {
		low = n.Energy
	}
	if n.Social < low {
		low = n.Social
	}
	return low
}

// baseline is the average satisfaction, used for mood convergence.
func (n Needs) baseline() float64 {
	return (n.Hunger + n.Energy + n.Social) / 3
}

// NPC is one registered villager.
type NPC struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Profession string `json:"profession"`
	Faction    string `json:"faction"`

	Position geom.Vec2 `json:"position"`
	HomePos  geom.Vec2 `json:"home_pos"`
	WorkPos  geom.Vec2 `json:"work_pos"`

	Health    float64 `json:"health"`
	MaxHealth float64 `json:"max_health"`
	Alive     bool    `json:"alive"`
	Speed     float64 `json:"speed"`

	Mood        float64     `json:"mood"` // 0–1
	Personality Personality `json:"personality"`
	Schedule    Schedule    `json:"schedule"`
	Needs       Needs       `json:"needs"`
	Activity    Activity    `json:"activity"`

	Memories []MemoryEvent `json:"memories,omitempty"`

	// Transient movement state.
	Path      []geom.Vec2 `json:"-"`
	PathIndex int         `json:"-"`

	board *bt.Blackboard
}

// Spec describes an NPC to register. A nil Personality is rolled randomly.
type Spec struct {
	ID          string
	Name        string
	Profession  string
	Position    geom.Vec2
	HomePos     geom.Vec2
	WorkPos     geom.Vec2
	Personality *Personality
	Schedule    *Schedule
}

func (n *NPC) clearMovement() {
	n.Path = nil
	n.PathIndex = 0
}
