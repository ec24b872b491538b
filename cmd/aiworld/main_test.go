package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberhollow/aicore/internal/config"
	"github.com/emberhollow/aicore/internal/engine"
	"github.com/emberhollow/aicore/internal/events"
)

func TestSeedDemoWorld(t *testing.T) {
	cfg := config.Default()
	coord := engine.NewCoordinator(events.NewBus(), cfg.EngineOptions())
	cfg.Apply(coord)

	var hits []string
	coord.SetPlayerDamageHandler(func(attackerID string, damage float64) {
		hits = append(hits, attackerID)
	})

	seedDemoWorld(coord)

	assert.Equal(t, 3, coord.Enemies.Count())
	assert.Equal(t, 3, coord.NPCs.Count())
	assert.Equal(t, 4, coord.Wildlife.Count())
	assert.Equal(t, 1, coord.Companions.Count())

	herd, ok := coord.Wildlife.Herd("deer-herd")
	require.True(t, ok, "the deer herd must form")
	assert.Len(t, herd.Members, 3)

	_, ok = coord.Economy.Merchant("merchant-ada")
	assert.True(t, ok)

	assert.Empty(t, hits, "nothing attacks the player before the first tick")
}
