package npc

import (
	"log/slog"

	"github.com/emberhollow/aicore/internal/events"
	"github.com/emberhollow/aicore/internal/geom"
)

// RelationStatus buckets a relationship value.
type RelationStatus string

const (
	StatusEnemy        RelationStatus = "enemy"
	StatusRival        RelationStatus = "rival"
	StatusStranger     RelationStatus = "stranger"
	StatusAcquaintance RelationStatus = "acquaintance"
	StatusFriend       RelationStatus = "friend"
	StatusCloseFriend  RelationStatus = "close_friend"
	StatusBestFriend   RelationStatus = "best_friend"
)

// StatusFor maps a relationship value to its bucket.
func StatusFor(value float64) RelationStatus {
	switch {
	case value < -50:
		return StatusEnemy
	case value < 0:
		return StatusRival
	case value < 20:
		return StatusStranger
	case value < 40:
		return StatusAcquaintance
	case value < 60:
		return StatusFriend
	case value < 80:
		return StatusCloseFriend
	default:
		return StatusBestFriend
	}
}

// Relationship returns the value between two agents (0 when unknown).
func (s *System) Relationship(a, b string) float64 {
	if row, ok := s.relationships[a]; ok {
		return row[b]
	}
	return 0
}

// ModifyRelationship shifts the bond between two agents. Both directions are
// updated identically and clamped to [-100, 100].
func (s *System) ModifyRelationship(a, b string, delta float64) bool {
	if a == "" || b == "" || a == b {
		slog.Warn("npc: invalid relationship pair", "a", a, "b", b)
		return false
	}
	value := geom.Clamp(s.Relationship(a, b)+delta, -100, 100)
	s.setRelation(a, b, value)
	s.setRelation(b, a, value)

	s.bus.Emit(events.RelationshipChanged, map[string]any{
		"a": a, "b": b, "value": value, "status": string(StatusFor(value)),
	})
	return true
}

func (s *System) setRelation(a, b string, value float64) {
	row, ok := s.relationships[a]
	if !ok {
		row = make(map[string]float64)
		s.relationships[a] = row
	}
	row[b] = value
}

// Interaction kinds the player can have with an NPC.
const (
	InteractionHelp         = "help"
	InteractionAttack       = "attack"
	InteractionTradeFair    = "trade_fair"
	InteractionTradeUnfair  = "trade_unfair"
	InteractionQuestSuccess = "quest_success"
	InteractionQuestFailure = "quest_failure"
	InteractionConversation = "conversation"
)

// RecordPlayerInteraction applies the fixed relationship delta for a player
// interaction and remembers it when notable.
func (s *System) RecordPlayerInteraction(npcID, kind string, magnitude float64) bool {
	if _, ok := s.npcs[npcID]; !ok {
		slog.Warn("npc: interaction with unknown npc", "id", npcID)
		return false
	}
	if magnitude <= 0 {
		magnitude = 1
	}

	var delta float64
	var importance float64
	switch kind {
	case InteractionHelp:
		delta, importance = 5*magnitude, 0.6
	case InteractionAttack:
		delta, importance = -20*magnitude, 0.9
	case InteractionTradeFair:
		delta, importance = 2, 0.2
	case InteractionTradeUnfair:
		delta, importance = -1, 0.3
	case InteractionQuestSuccess:
		delta, importance = 10, 0.7
	case InteractionQuestFailure:
		delta, importance = -5, 0.5
	case InteractionConversation:
		delta, importance = 1, 0.1
	default:
		slog.Warn("npc: unknown interaction kind", "kind", kind)
		return false
	}

	s.ModifyRelationship(npcID, "player", delta)
	if importance >= 0.5 {
		s.AddMemory(npcID, "player "+kind, importance, "player")
	}
	return true
}
