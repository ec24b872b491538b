// Package config loads the simulation's YAML configuration: subsystem
// tuning plus the enemy, species, companion and goods catalogs. Every field
// has a code default; a missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emberhollow/aicore/internal/combat"
	"github.com/emberhollow/aicore/internal/companion"
	"github.com/emberhollow/aicore/internal/economy"
	"github.com/emberhollow/aicore/internal/engine"
	"github.com/emberhollow/aicore/internal/npc"
	"github.com/emberhollow/aicore/internal/perception"
	"github.com/emberhollow/aicore/internal/wildlife"
)

// Config is the full simulation configuration.
type Config struct {
	Seed       int64   `yaml:"seed"`
	CellSize   float64 `yaml:"cell_size"`
	LogLevel   string  `yaml:"log_level"`
	DBPath     string  `yaml:"db_path"`
	StreamAddr string  `yaml:"stream_addr"`
	TickMillis int     `yaml:"tick_millis"`
	Speed      float64 `yaml:"speed"`

	Perception perception.Config `yaml:"perception"`
	Combat     combat.Config     `yaml:"combat"`
	NPC        npc.Config        `yaml:"npc"`
	Wildlife   wildlife.Config   `yaml:"wildlife"`
	Companion  companion.Config  `yaml:"companion"`
	Economy    economy.Config    `yaml:"economy"`

	// Catalog overrides, merged over the shipped tables.
	EnemyTypes     map[string]combat.Stats     `yaml:"enemy_types"`
	Species        map[string]wildlife.Species `yaml:"species"`
	CompanionTypes map[string]companion.Kind   `yaml:"companion_types"`
	Goods          map[string]economy.Good     `yaml:"goods"`
}

// Default returns the shipped configuration.
func Default() Config {
	return Config{
		Seed:       42,
		CellSize:   1.0,
		LogLevel:   "info",
		DBPath:     "data/aiworld.db",
		StreamAddr: ":8080",
		TickMillis: 100,
		Speed:      1.0,
		Perception: perception.DefaultConfig(),
		Combat:     combat.DefaultConfig(),
		NPC:        npc.DefaultConfig(),
		Wildlife:   wildlife.DefaultConfig(),
		Companion:  companion.DefaultConfig(),
		Economy:    economy.DefaultConfig(),
		EnemyTypes: DefaultEnemyTypes(),
	}
}

// DefaultEnemyTypes is the shipped enemy archetype catalog.
func DefaultEnemyTypes() map[string]combat.Stats {
	base := combat.DefaultStats()

	brute := base
	brute.MaxHealth = 220
	brute.Speed = 2
	brute.AttackDamage = 25
	brute.AttackSpeed = 0.5
	brute.FleeHealthPercent = 0.1

	archer := base
	archer.MaxHealth = 60
	archer.AttackRange = 12
	archer.AttackDamage = 8
	archer.DetectionRange = 25
	archer.FleeHealthPercent = 0.35

	skirmisher := base
	skirmisher.Speed = 4.5
	skirmisher.MaxHealth = 70

	return map[string]combat.Stats{
		"grunt":      base,
		"brute":      brute,
		"archer":     archer,
		"skirmisher": skirmisher,
	}
}

// Load reads a YAML file over the defaults. A missing file returns the
// defaults; a malformed one is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// TickInterval returns the tick period as a duration.
func (c Config) TickInterval() time.Duration {
	if c.TickMillis <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.TickMillis) * time.Millisecond
}

// EngineOptions translates the config into coordinator options.
func (c Config) EngineOptions() engine.Options {
	return engine.Options{
		Seed:       c.Seed,
		CellSize:   c.CellSize,
		Perception: c.Perception,
		Combat:     c.Combat,
		NPC:        c.NPC,
		Wildlife:   c.Wildlife,
		Companion:  c.Companion,
		Economy:    c.Economy,
	}
}

// Apply installs the catalog overrides on a wired coordinator.
func (c Config) Apply(coord *engine.Coordinator) {
	if len(c.EnemyTypes) > 0 {
		coord.Enemies.SetCatalog(c.EnemyTypes)
	}
	if len(c.Species) > 0 {
		coord.Wildlife.SetSpeciesTable(c.Species)
	}
	if len(c.CompanionTypes) > 0 {
		coord.Companions.SetKindTable(c.CompanionTypes)
	}
	if len(c.Goods) > 0 {
		coord.Economy.SetGoodsTable(c.Goods)
	}
}
