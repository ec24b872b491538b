package wildlife

import (
	"sort"

	"github.com/emberhollow/aicore/internal/bt"
)

// Snapshot is the serializable form of the wildlife system. Transient path
// state is not persisted.
type Snapshot struct {
	Version int      `json:"version"`
	Animals []Animal `json:"animals"`
	Herds   []Herd   `json:"herds"`
	Order   []string `json:"order"`
}

const snapshotVersion = 1

// Serialize copies all animal and herd state into a plain snapshot.
func (s *System) Serialize() Snapshot {
	snap := Snapshot{
		Version: snapshotVersion,
		Order:   append([]string(nil), s.order...),
	}
	for _, id := range s.order {
		snap.Animals = append(snap.Animals, *s.animals[id])
	}
	for _, h := range s.herds {
		cp := *h
		cp.Members = append([]string(nil), h.Members...)
		snap.Herds = append(snap.Herds, cp)
	}
	sort.Slice(snap.Herds, func(i, j int) bool { return snap.Herds[i].ID < snap.Herds[j].ID })
	return snap
}

// Deserialize rebuilds live state from a snapshot.
func (s *System) Deserialize(snap Snapshot) {
	s.animals = make(map[string]*Animal, len(snap.Animals))
	s.order = append([]string(nil), snap.Order...)
	s.herds = make(map[string]*Herd, len(snap.Herds))
	s.cooldowns = make(map[string]float64)

	for _, rec := range snap.Animals {
		a := rec
		a.board = bt.NewBlackboard()
		a.clearMovement()
		s.animals[a.ID] = &a
	}
	for _, rec := range snap.Herds {
		h := rec
		h.Members = append([]string(nil), rec.Members...)
		s.herds[h.ID] = &h
	}
}
