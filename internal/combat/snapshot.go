package combat

import (
	"sort"

	"github.com/emberhollow/aicore/internal/bt"
)

// EnemyRecord is the persisted form of one enemy. Paths, cooldowns and
// formation slots are derived state and deliberately absent.
type EnemyRecord struct {
	Enemy  Enemy         `json:"enemy"`
	Threat []ThreatEntry `json:"threat,omitempty"`
}

// Snapshot is the serializable form of the combat system.
type Snapshot struct {
	Version int           `json:"version"`
	Enemies []EnemyRecord `json:"enemies"`
	Groups  []Group       `json:"groups,omitempty"`
	Order   []string      `json:"order"`
}

const snapshotVersion = 1

// Serialize copies all enemies and groups into a plain snapshot.
func (s *System) Serialize() Snapshot {
	snap := Snapshot{Version: snapshotVersion, Order: append([]string(nil), s.order...)}
	for _, id := range s.order {
		e := s.enemies[id]
		rec := EnemyRecord{Enemy: *e}
		for _, entry := range e.threat {
			rec.Threat = append(rec.Threat, *entry)
		}
		sort.Slice(rec.Threat, func(i, j int) bool { return rec.Threat[i].TargetID < rec.Threat[j].TargetID })
		snap.Enemies = append(snap.Enemies, rec)
	}

	var groupIDs []string
	for id := range s.groups {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)
	for _, id := range groupIDs {
		snap.Groups = append(snap.Groups, *s.groups[id])
	}
	return snap
}

// Deserialize rebuilds the system's live state from a snapshot.
func (s *System) Deserialize(snap Snapshot) {
	s.enemies = make(map[string]*Enemy, len(snap.Enemies))
	s.groups = make(map[string]*Group, len(snap.Groups))
	s.order = append([]string(nil), snap.Order...)

	for _, rec := range snap.Enemies {
		e := rec.Enemy
		e.board = bt.NewBlackboard()
		e.threat = make(map[string]*ThreatEntry, len(rec.Threat))
		e.clearMovement()
		for _, entry := range rec.Threat {
			cp := entry
			e.threat[cp.TargetID] = &cp
		}
		s.enemies[e.ID] = &e
	}
	for _, g := range snap.Groups {
		cp := g
		cp.Members = append([]string(nil), g.Members...)
		s.groups[cp.ID] = &cp
	}
}
