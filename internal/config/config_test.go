package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Seed, cfg.Seed)
	assert.Equal(t, Default().NPC.MemoryCapacity, cfg.NPC.MemoryCapacity)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
seed: 7
log_level: debug
combat:
  threat_decay_rate: 1.25
enemy_types:
  ghoul:
    max_health: 45
    speed: 3.5
    attack_damage: 12
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 1.25, cfg.Combat.ThreatDecayRate)
	assert.Equal(t, 45.0, cfg.EnemyTypes["ghoul"].MaxHealth)
	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Economy.SellFactor, cfg.Economy.SellFactor)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
