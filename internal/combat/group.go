package combat

import (
	"log/slog"
	"math"

	"github.com/emberhollow/aicore/internal/events"
	"github.com/emberhollow/aicore/internal/geom"
)

// Formation is a geometric placement rule for group members.
type Formation string

const (
	FormationLine          Formation = "line"
	FormationCircle        Formation = "circle"
	FormationSurround      Formation = "surround"
	FormationProtectLeader Formation = "protect_leader"
)

// Group is a set of enemies fighting together under one leader.
type Group struct {
	ID        string    `json:"id"`
	LeaderID  string    `json:"leader_id"`
	Members   []string  `json:"members"` // leader is always a member
	Formation Formation `json:"formation,omitempty"`
	TargetID  string    `json:"target_id,omitempty"`
}

// CreateGroup forms a group from registered enemies. The first valid member
// becomes leader.
func (s *System) CreateGroup(groupID string, memberIDs []string) bool {
	if groupID == "" {
		slog.Warn("combat: group with empty id")
		return false
	}
	if _, exists := s.groups[groupID]; exists {
		slog.Warn("combat: duplicate group id", "group", groupID)
		return false
	}

	g := &Group{ID: groupID}
	for _, id := range memberIDs {
		e, ok := s.enemies[id]
		if !ok || !e.Alive {
			continue
		}
		if e.GroupID != "" {
			s.removeFromGroup(e)
		}
		g.Members = append(g.Members, id)
		e.GroupID = groupID
	}
	if len(g.Members) == 0 {
		slog.Warn("combat: group has no valid members", "group", groupID)
		return false
	}
	g.LeaderID = g.Members[0]
	s.groups[groupID] = g
	return true
}

// GroupOf returns a group by id.
func (s *System) GroupOf(groupID string) (*Group, bool) {
	g, ok := s.groups[groupID]
	return g, ok
}

// SetGroupFormation assigns a formation and computes a slot for every member.
func (s *System) SetGroupFormation(groupID string, f Formation) bool {
	g, ok := s.groups[groupID]
	if !ok {
		slog.Warn("combat: unknown group", "group", groupID)
		return false
	}
	switch f {
	case FormationLine, FormationCircle, FormationSurround, FormationProtectLeader:
	default:
		slog.Warn("combat: unknown formation", "formation", string(f))
		return false
	}
	g.Formation = f
	s.placeFormation(g)
	return true
}

// CoordinateGroupAttack assigns every member the same target and surrounds it.
func (s *System) CoordinateGroupAttack(groupID, targetID string) bool {
	g, ok := s.groups[groupID]
	if !ok {
		slog.Warn("combat: unknown group", "group", groupID)
		return false
	}
	if targetID == "" {
		slog.Warn("combat: coordinated attack without target", "group", groupID)
		return false
	}

	g.TargetID = targetID
	g.Formation = FormationSurround
	for _, id := range g.Members {
		if e, ok := s.enemies[id]; ok && e.Alive {
			e.TargetID = targetID
			e.clearMovement()
		}
	}
	s.placeFormation(g)

	s.bus.Emit(events.CoordinatedAttack, map[string]any{
		"groupId": groupID, "targetId": targetID, "members": len(g.Members),
	})
	return true
}

// placeFormation computes each member's formation slot from the current rule.
func (s *System) placeFormation(g *Group) {
	leader, ok := s.enemies[g.LeaderID]
	if !ok {
		return
	}

	// Non-leader members in stable order.
	var members []*Enemy
	for _, id := range g.Members {
		if id == g.LeaderID {
			continue
		}
		if e, ok := s.enemies[id]; ok && e.Alive {
			members = append(members, e)
		}
	}
	if len(members) == 0 {
		return
	}

	spacing := s.cfg.FormationSpacing
	switch g.Formation {
	case FormationLine:
		// Evenly spaced along the perpendicular of the leader's facing.
		perp := geom.FromAngle(leader.Facing + math.Pi/2)
		for i, m := range members {
			// 1, -1, 2, -2, ... slots on alternating sides.
			slot := float64(i/2 + 1)
			if i%2 == 1 {
				slot = -slot
			}
			pos := leader.Position.Add(perp.Scale(slot * spacing))
			m.FormationSlot = &pos
		}
	case FormationCircle:
		// Equal angular increments around the members' centroid.
		centroid := leader.Position
		for _, m := range members {
			centroid = centroid.Add(m.Position)
		}
		centroid = centroid.Scale(1 / float64(len(members)+1))
		step := 2 * math.Pi / float64(len(members))
		for i, m := range members {
			pos := centroid.Add(geom.FromAngle(float64(i) * step).Scale(spacing * 2))
			m.FormationSlot = &pos
		}
	case FormationSurround:
		// Distributed around the target's position.
		center, ok := s.targetPosition(g.TargetID)
		if !ok {
			center = leader.Position
		}
		step := 2 * math.Pi / float64(len(members)+1)
		for i, m := range members {
			pos := center.Add(geom.FromAngle(float64(i+1) * step).Scale(spacing * 2))
			m.FormationSlot = &pos
		}
		leaderSlot := center.Add(geom.FromAngle(0).Scale(spacing * 2))
		leader.FormationSlot = &leaderSlot
	case FormationProtectLeader:
		// Tight radial ring around the leader.
		step := 2 * math.Pi / float64(len(members))
		for i, m := range members {
			pos := leader.Position.Add(geom.FromAngle(float64(i) * step).Scale(spacing))
			m.FormationSlot = &pos
		}
	}
}

// removeFromGroup detaches an enemy from its group, promoting a successor
// when the leader leaves and deleting the group when it empties.
func (s *System) removeFromGroup(e *Enemy) {
	g, ok := s.groups[e.GroupID]
	e.GroupID = ""
	e.FormationSlot = nil
	if !ok {
		return
	}

	for i, id := range g.Members {
		if id == e.ID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			break
		}
	}

	if len(g.Members) == 0 {
		delete(s.groups, g.ID)
		return
	}

	if g.LeaderID == e.ID {
		// Succession: first surviving member takes over.
		for _, id := range g.Members {
			if m, ok := s.enemies[id]; ok && m.Alive {
				g.LeaderID = m.ID
				return
			}
		}
		// Nobody alive; the group dissolves.
		delete(s.groups, g.ID)
	}
}
