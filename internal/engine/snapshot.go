package engine

import (
	"fmt"

	"github.com/emberhollow/aicore/internal/combat"
	"github.com/emberhollow/aicore/internal/companion"
	"github.com/emberhollow/aicore/internal/economy"
	"github.com/emberhollow/aicore/internal/faction"
	"github.com/emberhollow/aicore/internal/npc"
	"github.com/emberhollow/aicore/internal/perception"
	"github.com/emberhollow/aicore/internal/wildlife"
)

// Snapshot is the versioned envelope aggregating every subsystem's state.
// It is what the save system persists and restores.
type Snapshot struct {
	Version    int                 `json:"version"`
	Factions   faction.Snapshot    `json:"factions"`
	Perception perception.Snapshot `json:"perception"`
	Enemies    combat.Snapshot     `json:"enemies"`
	NPCs       npc.Snapshot        `json:"npcs"`
	Wildlife   wildlife.Snapshot   `json:"wildlife"`
	Companions companion.Snapshot  `json:"companions"`
	Economy    economy.Snapshot    `json:"economy"`
}

const snapshotVersion = 1

// Serialize collects every subsystem snapshot into one envelope.
func (c *Coordinator) Serialize() Snapshot {
	return Snapshot{
		Version:    snapshotVersion,
		Factions:   c.Relations.Serialize(),
		Perception: c.Senses.Serialize(),
		Enemies:    c.Enemies.Serialize(),
		NPCs:       c.NPCs.Serialize(),
		Wildlife:   c.Wildlife.Serialize(),
		Companions: c.Companions.Serialize(),
		Economy:    c.Economy.Serialize(),
	}
}

// Deserialize restores every subsystem from an envelope. An envelope from a
// newer format is refused rather than half-loaded.
func (c *Coordinator) Deserialize(snap Snapshot) error {
	if snap.Version > snapshotVersion {
		return fmt.Errorf("snapshot version %d is newer than supported %d", snap.Version, snapshotVersion)
	}
	c.Relations.Deserialize(snap.Factions)
	c.Senses.Deserialize(snap.Perception)
	c.Enemies.Deserialize(snap.Enemies)
	c.NPCs.Deserialize(snap.NPCs)
	c.Wildlife.Deserialize(snap.Wildlife)
	c.Companions.Deserialize(snap.Companions)
	c.Economy.Deserialize(snap.Economy)
	return nil
}
