// Package faction tracks stances between factions. The table is symmetric:
// setting bandits vs villagers hostile makes villagers vs bandits hostile too.
package faction

import "log/slog"

// Stance is the disposition between two factions.
type Stance string

const (
	Hostile  Stance = "hostile"
	Neutral  Stance = "neutral"
	Friendly Stance = "friendly"
)

// Table holds the symmetric stance matrix keyed by faction name.
type Table struct {
	stances map[string]map[string]Stance
}

// NewTable creates an empty relation table. Unknown pairs are neutral.
func NewTable() *Table {
	return &Table{stances: make(map[string]map[string]Stance)}
}

// DefaultTable seeds the stances the base game ships with.
func DefaultTable() *Table {
	t := NewTable()
	t.SetStance("bandits", "villagers", Hostile)
	t.SetStance("bandits", "player", Hostile)
	t.SetStance("bandits", "guards", Hostile)
	t.SetStance("undead", "villagers", Hostile)
	t.SetStance("undead", "player", Hostile)
	t.SetStance("undead", "guards", Hostile)
	t.SetStance("undead", "bandits", Hostile)
	t.SetStance("guards", "villagers", Friendly)
	t.SetStance("guards", "player", Friendly)
	t.SetStance("villagers", "player", Friendly)
	t.SetStance("wildlife", "player", Neutral)
	return t
}

// SetStance records the stance in both directions. Empty faction names are
// rejected with a warning.
func (t *Table) SetStance(a, b string, s Stance) bool {
	if a == "" || b == "" {
		slog.Warn("faction table: empty faction name", "a", a, "b", b)
		return false
	}
	t.set(a, b, s)
	t.set(b, a, s)
	return true
}

func (t *Table) set(a, b string, s Stance) {
	row, ok := t.stances[a]
	if !ok {
		row = make(map[string]Stance)
		t.stances[a] = row
	}
	row[b] = s
}

// StanceBetween returns the stance between two factions. A faction is
// friendly to itself; unknown pairs are neutral.
func (t *Table) StanceBetween(a, b string) Stance {
	if a == b {
		return Friendly
	}
	if row, ok := t.stances[a]; ok {
		if s, ok := row[b]; ok {
			return s
		}
	}
	return Neutral
}

// IsHostile reports whether two factions are hostile to each other.
func (t *Table) IsHostile(a, b string) bool {
	return t.StanceBetween(a, b) == Hostile
}

// IsFriendly reports whether two factions are friendly to each other.
func (t *Table) IsFriendly(a, b string) bool {
	return t.StanceBetween(a, b) == Friendly
}

// Snapshot is the serializable form of the table.
type Snapshot struct {
	Stances map[string]map[string]Stance `json:"stances"`
}

// Serialize copies the matrix into a plain snapshot.
func (t *Table) Serialize() Snapshot {
	out := Snapshot{Stances: make(map[string]map[string]Stance, len(t.stances))}
	for a, row := range t.stances {
		cp := make(map[string]Stance, len(row))
		for b, s := range row {
			cp[b] = s
		}
		out.Stances[a] = cp
	}
	return out
}

// Deserialize replaces the matrix from a snapshot, re-symmetrizing entries.
func (t *Table) Deserialize(snap Snapshot) {
	t.stances = make(map[string]map[string]Stance)
	for a, row := range snap.Stances {
		for b, s := range row {
			t.set(a, b, s)
			t.set(b, a, s)
		}
	}
}
