package combat

import (
	"github.com/emberhollow/aicore/internal/bt"
	"github.com/emberhollow/aicore/internal/perception"
	"github.com/emberhollow/aicore/internal/sim"
)

// buildEnemyTree constructs the shared decision tree. Priority, highest
// first: flee → attack → chase → investigate → formation slot → guard post →
// patrol → scan for threats → idle. The tree holds no per-agent state.
func buildEnemyTree() *bt.Tree {
	return &bt.Tree{Root: &bt.Selector{Children: []bt.Node{
		&bt.Sequence{Children: []bt.Node{
			&bt.Check{Fn: shouldFlee},
			&bt.Action{Fn: doFlee},
		}},
		&bt.Sequence{Children: []bt.Node{
			&bt.Check{Fn: targetInAttackRange},
			&bt.Action{Fn: doAttack},
		}},
		&bt.Sequence{Children: []bt.Node{
			&bt.Check{Fn: hasTarget},
			&bt.Action{Fn: doChase},
		}},
		&bt.Sequence{Children: []bt.Node{
			&bt.Check{Fn: hasSuspiciousMemory},
			&bt.Action{Fn: doInvestigate},
		}},
		&bt.Sequence{Children: []bt.Node{
			&bt.Check{Fn: outOfFormation},
			&bt.Action{Fn: doRegroup},
		}},
		&bt.Sequence{Children: []bt.Node{
			&bt.Check{Fn: awayFromGuardPost},
			&bt.Action{Fn: doReturnToPost},
		}},
		&bt.Sequence{Children: []bt.Node{
			&bt.Check{Fn: hasPatrolRoute},
			&bt.Action{Fn: doPatrol},
		}},
		&bt.Action{Fn: doScan},
		&bt.Action{Fn: doIdle},
	}}}
}

func unpack(ctx *bt.Context) (*Enemy, *System, *sim.WorldState) {
	return ctx.Agent.(*Enemy), ctx.System.(*System), ctx.World.(*sim.WorldState)
}

func shouldFlee(ctx *bt.Context) bool {
	e, _, _ := unpack(ctx)
	return e.HealthFraction() < e.Stats.FleeHealthPercent
}

// doFlee runs from the current target's known position. Without a target to
// flee from, the enemy retreats to its spawn instead.
func doFlee(ctx *bt.Context) bt.Status {
	e, s, _ := unpack(ctx)
	if pos, ok := s.targetPosition(e.TargetID); ok {
		e.State = StateFlee
		s.moveAway(e, pos, ctx.DT)
		return bt.Running
	}
	e.State = StateRetreat
	if e.Position.Dist(e.SpawnPos) <= s.cfg.WaypointTolerance {
		return bt.Success
	}
	s.moveToward(e, e.SpawnPos, ctx.DT)
	return bt.Running
}

func targetInAttackRange(ctx *bt.Context) bool {
	e, s, _ := unpack(ctx)
	pos, ok := s.targetPosition(e.TargetID)
	return ok && e.Position.Dist(pos) <= e.Stats.AttackRange
}

func doAttack(ctx *bt.Context) bt.Status {
	e, s, _ := unpack(ctx)
	e.State = StateAttack
	e.clearMovement()
	if pos, ok := s.targetPosition(e.TargetID); ok {
		e.Facing = pos.Sub(e.Position).Angle()
	}
	s.attack(e, e.TargetID)
	return bt.Running
}

func hasTarget(ctx *bt.Context) bool {
	e, _, _ := unpack(ctx)
	return e.TargetID != ""
}

func doChase(ctx *bt.Context) bt.Status {
	e, s, _ := unpack(ctx)
	pos, ok := s.targetPosition(e.TargetID)
	if !ok {
		e.TargetID = ""
		return bt.Failure
	}
	e.State = StateChase
	s.moveToward(e, pos, ctx.DT)
	return bt.Running
}

// hasSuspiciousMemory checks for a heard or warned-about hostile the enemy
// has not yet confirmed visually.
func hasSuspiciousMemory(ctx *bt.Context) bool {
	e, s, _ := unpack(ctx)
	if s.senses == nil {
		return false
	}
	for _, m := range s.senses.MemoriesOf(e.ID) {
		if m.Source != perception.SourceVision && !m.Friendly {
			return true
		}
	}
	return false
}

func doInvestigate(ctx *bt.Context) bt.Status {
	e, s, _ := unpack(ctx)
	var best *perception.MemoryEntry
	for _, m := range s.senses.MemoriesOf(e.ID) {
		if m.Source == perception.SourceVision || m.Friendly {
			continue
		}
		if best == nil || m.Confidence > best.Confidence {
			best = m
		}
	}
	if best == nil {
		return bt.Failure
	}
	e.State = StateAlert
	if e.Position.Dist(best.LastKnownPos) <= s.cfg.WaypointTolerance*2 {
		return bt.Success
	}
	s.moveToward(e, best.LastKnownPos, ctx.DT)
	return bt.Running
}

func outOfFormation(ctx *bt.Context) bool {
	e, s, _ := unpack(ctx)
	return e.FormationSlot != nil && e.Position.Dist(*e.FormationSlot) > s.cfg.WaypointTolerance*2
}

func doRegroup(ctx *bt.Context) bt.Status {
	e, s, _ := unpack(ctx)
	e.State = StateRegroup
	s.moveToward(e, *e.FormationSlot, ctx.DT)
	return bt.Running
}

func awayFromGuardPost(ctx *bt.Context) bool {
	e, s, _ := unpack(ctx)
	return e.GuardPosition != nil && e.Position.Dist(*e.GuardPosition) > s.cfg.GuardReturnRange
}

func doReturnToPost(ctx *bt.Context) bt.Status {
	e, s, _ := unpack(ctx)
	e.State = StateGuard
	if e.TargetID == "" {
		s.scanForThreats(e)
	}
	s.moveToward(e, *e.GuardPosition, ctx.DT)
	return bt.Running
}

func hasPatrolRoute(ctx *bt.Context) bool {
	e, _, _ := unpack(ctx)
	return len(e.Patrol) > 0
}

func doPatrol(ctx *bt.Context) bt.Status {
	e, s, _ := unpack(ctx)
	e.State = StatePatrol
	// Patrolling is done with eyes open; a spotted hostile is chased from the
	// next evaluation onward.
	if e.TargetID == "" {
		s.scanForThreats(e)
	}
	wp := e.Patrol[e.PatrolIndex%len(e.Patrol)]
	if e.Position.Dist(wp) <= s.cfg.WaypointTolerance {
		e.PatrolIndex = (e.PatrolIndex + 1) % len(e.Patrol)
		return bt.Running
	}
	s.moveToward(e, wp, ctx.DT)
	return bt.Running
}

// doScan looks for hostile targets by faction and acquires one.
func doScan(ctx *bt.Context) bt.Status {
	e, s, _ := unpack(ctx)
	if !s.scanForThreats(e) {
		return bt.Failure
	}
	e.State = StateAlert
	return bt.Success
}

func doIdle(ctx *bt.Context) bt.Status {
	e, _, _ := unpack(ctx)
	e.State = StateIdle
	return bt.Success
}
