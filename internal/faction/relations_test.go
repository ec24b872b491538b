package faction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStanceSymmetry(t *testing.T) {
	tab := NewTable()
	assert.True(t, tab.SetStance("bandits", "villagers", Hostile))

	assert.Equal(t, Hostile, tab.StanceBetween("bandits", "villagers"))
	assert.Equal(t, Hostile, tab.StanceBetween("villagers", "bandits"))
}

func TestUnknownPairIsNeutral(t *testing.T) {
	tab := NewTable()
	assert.Equal(t, Neutral, tab.StanceBetween("cats", "dogs"))
	assert.False(t, tab.IsHostile("cats", "dogs"))
}

func TestSelfIsFriendly(t *testing.T) {
	tab := NewTable()
	assert.Equal(t, Friendly, tab.StanceBetween("guards", "guards"))
}

func TestEmptyNameRejected(t *testing.T) {
	tab := NewTable()
	assert.False(t, tab.SetStance("", "villagers", Hostile))
}

func TestSerializeRoundTrip(t *testing.T) {
	tab := DefaultTable()
	snap := tab.Serialize()

	restored := NewTable()
	restored.Deserialize(snap)

	assert.Equal(t, Hostile, restored.StanceBetween("villagers", "bandits"))
	assert.Equal(t, Friendly, restored.StanceBetween("player", "guards"))
}
