// Package sim defines the per-tick world snapshot contract between the AI
// core and the surrounding game layer. The game supplies one WorldState per
// tick; everything the subsystems know about the outside world comes from it.
package sim

import "github.com/emberhollow/aicore/internal/geom"

// Season identifies the current in-game season.
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

// Weather identifies the current in-game weather.
type Weather string

const (
	WeatherClear Weather = "clear"
	WeatherRain  Weather = "rain"
	WeatherStorm Weather = "storm"
	WeatherSnow  Weather = "snow"
	WeatherFog   Weather = "fog"
)

// PlayerState is the slice of player data the AI core needs.
type PlayerState struct {
	Position geom.Vec2 `json:"position"`
	Health   float64   `json:"health"`
}

// WorldState is the snapshot supplied by the game layer each tick.
type WorldState struct {
	Player               PlayerState `json:"player"`
	Hour                 int         `json:"hour"` // 0–23
	Season               Season      `json:"season"`
	Weather              Weather     `json:"weather"`
	ActiveEvents         []string    `json:"active_events,omitempty"`
	DifficultyMultiplier float64     `json:"difficulty_multiplier"`
}

// IsNight reports whether the hour falls in the night window.
func (w *WorldState) IsNight() bool {
	return w.Hour >= 20 || w.Hour < 6
}

// HasEvent reports whether a named world event is active.
func (w *WorldState) HasEvent(name string) bool {
	for _, e := range w.ActiveEvents {
		if e == name {
			return true
		}
	}
	return false
}

// Difficulty returns the difficulty multiplier, defaulting to 1.0 when the
// game layer leaves it unset.
func (w *WorldState) Difficulty() float64 {
	if w.DifficultyMultiplier <= 0 {
		return 1.0
	}
	return w.DifficultyMultiplier
}
