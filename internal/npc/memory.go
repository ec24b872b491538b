package npc

// MemoryEvent is one remembered experience.
type MemoryEvent struct {
	Timestamp   float64 `json:"timestamp"` // sim-clock seconds
	Description string  `json:"description"`
	Importance  float64 `json:"importance"` // 0–1
	AboutID     string  `json:"about_id,omitempty"`
}

const secondsPerDay = 86400

// memoryScore ranks an entry for eviction: important-and-recent survive.
func memoryScore(m MemoryEvent, now float64) float64 {
	age := now - m.Timestamp
	if age < 0 {
		age = 0
	}
	return m.Importance * (1 - age/secondsPerDay)
}

// AddMemory records an experience for an NPC, evicting the lowest-scoring
// entry when the buffer is over capacity.
func (s *System) AddMemory(npcID, description string, importance float64, aboutID string) bool {
	n, ok := s.npcs[npcID]
	if !ok {
		return false
	}
	n.Memories = append(n.Memories, MemoryEvent{
		Timestamp:   s.clock,
		Description: description,
		Importance:  importance,
		AboutID:     aboutID,
	})

	for len(n.Memories) > s.cfg.MemoryCapacity {
		evict := 0
		worst := memoryScore(n.Memories[0], s.clock)
		for i := 1; i < len(n.Memories); i++ {
			if sc := memoryScore(n.Memories[i], s.clock); sc < worst {
				worst = sc
				evict = i
			}
		}
		n.Memories = append(n.Memories[:evict], n.Memories[evict+1:]...)
	}
	return true
}

// MemoriesOf returns an NPC's memory buffer.
func (s *System) MemoriesOf(npcID string) []MemoryEvent {
	if n, ok := s.npcs[npcID]; ok {
		return n.Memories
	}
	return nil
}
