// Package perception provides vision and hearing checks with environmental
// modifiers, plus the decaying memory store agents build from what they
// perceive. Alarm spreads through a faction by copying memories to allies,
// not by direct sensing.
package perception

import (
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/emberhollow/aicore/internal/events"
	"github.com/emberhollow/aicore/internal/geom"
	"github.com/emberhollow/aicore/internal/sim"
)

// Source records how a memory was acquired.
type Source string

const (
	SourceVision  Source = "vision"
	SourceHearing Source = "hearing"
	SourceWarning Source = "warning"
)

// MemoryEntry is one agent's knowledge of one target.
type MemoryEntry struct {
	OwnerID      string    `json:"owner_id"`
	TargetID     string    `json:"target_id"`
	TargetType   string    `json:"target_type"`
	LastKnownPos geom.Vec2 `json:"last_known_pos"`
	Source       Source    `json:"source"`
	Confidence   float64   `json:"confidence"` // 1.0 on sighting, decays to 0
	Age          float64   `json:"age"`        // seconds since last refresh
	Sightings    int       `json:"sightings"`
	ThreatLevel  float64   `json:"threat_level"`
	Friendly     bool      `json:"friendly"`
}

// Target is an entity offered to a vision check.
type Target struct {
	ID       string
	Type     string
	Position geom.Vec2
	Friendly bool
}

// Sound is an entity noise offered to a hearing check.
type Sound struct {
	ID       string // id of the entity making the sound
	Type     string // footstep, run, combat, ...
	Position geom.Vec2
}

// Heard is a detected sound with its localized (approximate) position.
type Heard struct {
	Sound
	Priority  int
	ApproxPos geom.Vec2
	Distance  float64
}

// soundProfile carries the base range and priority of a sound type.
type soundProfile struct {
	rng      float64
	priority int
}

var soundProfiles = map[string]soundProfile{
	"footstep":     {20, 1},
	"conversation": {30, 1},
	"run":          {40, 2},
	"door":         {25, 2},
	"combat":       {80, 5},
	"scream":       {100, 6},
	"explosion":    {150, 8},
}

// VisionOptions tunes one vision check.
type VisionOptions struct {
	BaseRange  float64
	FOVDegrees float64 // 0 or >=360 disables field-of-view gating
	Facing     float64 // radians
	// LineOfSight, when set, must return true for the target to be seen.
	LineOfSight func(from, to geom.Vec2) bool
}

// HearingOptions tunes one hearing check.
type HearingOptions struct {
	BaseRange float64
}

// Config holds memory tuning.
type Config struct {
	DecayRate      float64 `yaml:"decay_rate"`      // confidence lost per second
	MemoryDuration float64 `yaml:"memory_duration"` // seconds before an entry is purged regardless
}

// DefaultConfig returns the shipped memory tuning.
func DefaultConfig() Config {
	return Config{DecayRate: 1.0 / 30.0, MemoryDuration: 120}
}

// Engine runs perception checks and owns all agents' memories.
type Engine struct {
	cfg Config
	bus *events.Bus
	rng *rand.Rand

	weatherVision  float64
	weatherHearing float64
	night          bool

	// owner id → target id → entry
	memories map[string]map[string]*MemoryEntry
}

// NewEngine creates a perception engine. The bus receives memoryCreated and
// memoryExpired events.
func NewEngine(cfg Config, bus *events.Bus, seed int64) *Engine {
	if cfg.DecayRate <= 0 {
		cfg.DecayRate = DefaultConfig().DecayRate
	}
	if cfg.MemoryDuration <= 0 {
		cfg.MemoryDuration = DefaultConfig().MemoryDuration
	}
	return &Engine{
		cfg:            cfg,
		bus:            bus,
		rng:            rand.New(rand.NewSource(seed)),
		weatherVision:  1.0,
		weatherHearing: 1.0,
		memories:       make(map[string]map[string]*MemoryEntry),
	}
}

// SetEnvironment syncs weather and time-of-day modifiers from the snapshot.
func (e *Engine) SetEnvironment(weather sim.Weather, hour int) {
	switch weather {
	case sim.WeatherRain:
		e.weatherVision, e.weatherHearing = 0.7, 0.6
	case sim.WeatherStorm:
		e.weatherVision, e.weatherHearing = 0.5, 0.4
	case sim.WeatherSnow:
		e.weatherVision, e.weatherHearing = 0.6, 0.8
	case sim.WeatherFog:
		e.weatherVision, e.weatherHearing = 0.3, 1.0
	default:
		e.weatherVision, e.weatherHearing = 1.0, 1.0
	}
	e.night = hour >= 20 || hour < 6
}

const nightVisionModifier = 0.5

// CheckVision returns the targets the perceiver can currently see and
// refreshes its memory of each.
func (e *Engine) CheckVision(perceiverID string, pos geom.Vec2, targets []Target, opts VisionOptions) []Target {
	if perceiverID == "" {
		slog.Warn("perception: vision check with empty perceiver id")
		return nil
	}

	effective := opts.BaseRange * e.weatherVision
	if e.night {
		effective *= nightVisionModifier
	}

	var seen []Target
	for _, t := range targets {
		if t.ID == "" || t.ID == perceiverID {
			continue
		}
		dist := pos.Dist(t.Position)
		if dist > effective {
			continue
		}
		if opts.FOVDegrees > 0 && opts.FOVDegrees < 360 {
			diff := geom.NormalizeAngle(geom.Bearing(pos, t.Position) - opts.Facing)
			if math.Abs(diff) > (opts.FOVDegrees*math.Pi/180)/2 {
				continue
			}
		}
		if opts.LineOfSight != nil && !opts.LineOfSight(pos, t.Position) {
			continue
		}
		seen = append(seen, t)
		e.remember(perceiverID, t.ID, t.Type, t.Position, SourceVision, t.Friendly)
	}
	return seen
}

// CheckHearing returns the sounds the perceiver detects, sorted by priority
// descending. Heard-only entities get an approximate position: the true
// position perturbed proportionally to distance.
func (e *Engine) CheckHearing(perceiverID string, pos geom.Vec2, sounds []Sound, opts HearingOptions) []Heard {
	if perceiverID == "" {
		slog.Warn("perception: hearing check with empty perceiver id")
		return nil
	}

	var heard []Heard
	for _, s := range sounds {
		prof, ok := soundProfiles[s.Type]
		if !ok {
			slog.Warn("perception: unknown sound type", "type", s.Type)
			continue
		}
		effective := math.Min(opts.BaseRange, prof.rng) * e.weatherHearing
		dist := pos.Dist(s.Position)
		if dist > effective {
			continue
		}

		// Imperfect localization: offset grows with distance.
		jitter := dist * 0.2
		approx := s.Position.Add(geom.Vec2{
			X: (e.rng.Float64()*2 - 1) * jitter,
			Y: (e.rng.Float64()*2 - 1) * jitter,
		})
		heard = append(heard, Heard{Sound: s, Priority: prof.priority, ApproxPos: approx, Distance: dist})

		if s.ID != "" && s.ID != perceiverID {
			e.remember(perceiverID, s.ID, s.Type, approx, SourceHearing, false)
		}
	}

	sort.SliceStable(heard, func(i, j int) bool { return heard[i].Priority > heard[j].Priority })
	return heard
}

// remember creates or refreshes a memory entry; confidence resets to 1.0 on
// every refresh.
func (e *Engine) remember(ownerID, targetID, targetType string, pos geom.Vec2, src Source, friendly bool) {
	row, ok := e.memories[ownerID]
	if !ok {
		row = make(map[string]*MemoryEntry)
		e.memories[ownerID] = row
	}

	entry, exists := row[targetID]
	if !exists {
		entry = &MemoryEntry{
			OwnerID:    ownerID,
			TargetID:   targetID,
			TargetType: targetType,
			Friendly:   friendly,
		}
		row[targetID] = entry
		if e.bus != nil {
			e.bus.Emit(events.MemoryCreated, map[string]any{
				"ownerId": ownerID, "targetId": targetID, "source": string(src),
			})
		}
	}
	entry.LastKnownPos = pos
	entry.Source = src
	entry.Confidence = 1.0
	entry.Age = 0
	entry.Sightings++
}

// Update ages every memory and purges invalid entries, emitting an expiry
// event for each. dt is seconds.
func (e *Engine) Update(dt float64) {
	for owner, row := range e.memories {
		for target, entry := range row {
			entry.Age += dt
			entry.Confidence -= e.cfg.DecayRate * dt
			if entry.Confidence <= 0 || entry.Age > e.cfg.MemoryDuration {
				delete(row, target)
				if e.bus != nil {
					e.bus.Emit(events.MemoryExpired, map[string]any{
						"ownerId": owner, "targetId": target,
					})
				}
			}
		}
		if len(row) == 0 {
			delete(e.memories, owner)
		}
	}
}

// Ally identifies a faction mate eligible for a warning.
type Ally struct {
	ID       string
	Position geom.Vec2
}

// ShareThreatWithAllies copies the perceiver's memory of targetID into each
// in-range ally's memory with source warning.
func (e *Engine) ShareThreatWithAllies(perceiverID string, allies []Ally, targetID string, shareRange float64) {
	src, ok := e.GetMemory(perceiverID, targetID)
	if !ok {
		return
	}
	origin := src.LastKnownPos
	for _, ally := range allies {
		if ally.ID == perceiverID || ally.ID == "" {
			continue
		}
		if ally.Position.Dist(origin) > shareRange {
			continue
		}
		e.remember(ally.ID, targetID, src.TargetType, src.LastKnownPos, SourceWarning, src.Friendly)
		if ent, ok := e.GetMemory(ally.ID, targetID); ok {
			ent.ThreatLevel = src.ThreatLevel
		}
	}
}

// GetMemory returns the owner's live memory of a target. Entries at or below
// zero confidence are never returned.
func (e *Engine) GetMemory(ownerID, targetID string) (*MemoryEntry, bool) {
	if row, ok := e.memories[ownerID]; ok {
		if entry, ok := row[targetID]; ok && entry.Confidence > 0 {
			return entry, true
		}
	}
	return nil, false
}

// MemoriesOf returns all live memories for one owner.
func (e *Engine) MemoriesOf(ownerID string) []*MemoryEntry {
	row := e.memories[ownerID]
	out := make([]*MemoryEntry, 0, len(row))
	for _, entry := range row {
		if entry.Confidence > 0 {
			out = append(out, entry)
		}
	}
	return out
}

// DropOwner removes all memories held by an agent (on unregister).
func (e *Engine) DropOwner(ownerID string) {
	delete(e.memories, ownerID)
}

// DropTarget removes every agent's memory of a target (on unregister).
func (e *Engine) DropTarget(targetID string) {
	for owner, row := range e.memories {
		delete(row, targetID)
		if len(row) == 0 {
			delete(e.memories, owner)
		}
	}
}

// Snapshot is the serializable form of the memory store.
type Snapshot struct {
	Entries []MemoryEntry `json:"entries"`
}

// Serialize flattens all live entries into a snapshot.
func (e *Engine) Serialize() Snapshot {
	var snap Snapshot
	for _, row := range e.memories {
		for _, entry := range row {
			snap.Entries = append(snap.Entries, *entry)
		}
	}
	return snap
}

// Deserialize replaces the memory store from a snapshot.
func (e *Engine) Deserialize(snap Snapshot) {
	e.memories = make(map[string]map[string]*MemoryEntry)
	for _, entry := range snap.Entries {
		cp := entry
		row, ok := e.memories[cp.OwnerID]
		if !ok {
			row = make(map[string]*MemoryEntry)
			e.memories[cp.OwnerID] = row
		}
		row[cp.TargetID] = &cp
	}
}
