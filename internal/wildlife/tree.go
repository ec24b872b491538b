package wildlife

import (
	"github.com/emberhollow/aicore/internal/bt"
	"github.com/emberhollow/aicore/internal/geom"
	"github.com/emberhollow/aicore/internal/sim"
)

// buildAnimalTree constructs the shared wildlife decision tree. One tree
// serves every archetype; checks gate the branches that only apply to some.
func buildAnimalTree() *bt.Tree {
	return &bt.Tree{Root: &bt.Selector{Children: []bt.Node{
		&bt.Sequence{Children: []bt.Node{
			&bt.Check{Fn: shouldFlee},
			&bt.Action{Fn: doFlee},
		}},
		&bt.Sequence{Children: []bt.Node{
			&bt.Check{Fn: hasTarget},
			&bt.Action{Fn: doAttack},
		}},
		&bt.Sequence{Children: []bt.Node{
			&bt.Check{Fn: isAggressive},
			&bt.Action{Fn: doHunt},
		}},
		&bt.Sequence{Children: []bt.Node{
			&bt.Check{Fn: isNeutral},
			&bt.Action{Fn: doGuardTerritory},
		}},
		&bt.Sequence{Children: []bt.Node{
			&bt.Check{Fn: inHerd},
			&bt.Action{Fn: doFlock},
		}},
		&bt.Action{Fn: doGraze},
	}}}
}

func unpack(ctx *bt.Context) (*Animal, *System, *sim.WorldState) {
	return ctx.Agent.(*Animal), ctx.System.(*System), ctx.World.(*sim.WorldState)
}

// shouldFlee is true for skittish archetypes with a danger in detection
// range, and for any animal already mid-flight.
func shouldFlee(ctx *bt.Context) bool {
	a, s, _ := unpack(ctx)
	skittish := a.Stats.Archetype == ArchetypePassive || a.Stats.Archetype == ArchetypeHerd
	if skittish {
		if _, ok := s.nearestThreat(a, a.Stats.DetectionRange); ok {
			return true
		}
	}
	if a.State != StateFlee {
		return false
	}
	_, ok := s.nearestThreat(a, s.cfg.FleeDistance)
	return ok
}

func doFlee(ctx *bt.Context) bt.Status {
	a, s, _ := unpack(ctx)
	a.State = StateFlee
	a.TargetID = ""
	threat, ok := s.nearestThreat(a, s.cfg.FleeDistance)
	if !ok {
		a.State = StateIdle
		return bt.Success
	}
	s.moveAway(a, threat.Position, ctx.DT)
	return bt.Running
}

func hasTarget(ctx *bt.Context) bool {
	a, _, _ := unpack(ctx)
	return a.TargetID != ""
}

// doAttack closes on the current target and bites when in range. A target
// that vanished or escaped detection range is dropped.
func doAttack(ctx *bt.Context) bt.Status {
	a, s, _ := unpack(ctx)
	pos, ok := s.targetPosition(a.TargetID)
	if !ok || a.Position.Dist(pos) > a.Stats.DetectionRange*1.5 {
		a.TargetID = ""
		a.State = StateIdle
		return bt.Failure
	}

	a.State = StateAttack
	if a.Position.Dist(pos) <= a.Stats.AttackRange {
		a.Facing = geom.Bearing(a.Position, pos)
		s.bite(a, a.TargetID)
		return bt.Running
	}
	s.moveToward(a, pos, ctx.DT)
	return bt.Running
}

func isAggressive(ctx *bt.Context) bool {
	a, _, _ := unpack(ctx)
	return a.Stats.Archetype == ArchetypeAggressive
}

// doHunt scans for prey; without any, the predator prowls.
func doHunt(ctx *bt.Context) bt.Status {
	a, s, _ := unpack(ctx)
	if id, _, ok := s.findPrey(a); ok {
		a.TargetID = id
		a.State = StateHunt
		return bt.Success
	}
	return wander(a, s, ctx.DT)
}

func isNeutral(ctx *bt.Context) bool {
	a, _, _ := unpack(ctx)
	return a.Stats.Archetype == ArchetypeNeutral
}

// doGuardTerritory counter-targets any danger that wanders inside the
// territory around the spawn point; otherwise the animal grazes.
func doGuardTerritory(ctx *bt.Context) bt.Status {
	a, s, _ := unpack(ctx)
	for _, t := range s.threats {
		if a.Spawn.Dist(t.Position) <= a.Stats.TerritoryRadius {
			a.TargetID = t.ID
			a.State = StateAttack
			return bt.Success
		}
	}
	return wander(a, s, ctx.DT)
}

func inHerd(ctx *bt.Context) bool {
	a, _, _ := unpack(ctx)
	return a.HerdID != ""
}

// doFlock moves a herd member toward the shared target, offset by the boids
// vector over its neighbors.
func doFlock(ctx *bt.Context) bt.Status {
	a, s, _ := unpack(ctx)
	h, ok := s.herds[a.HerdID]
	if !ok {
		return bt.Failure
	}
	a.State = StateFlock

	offset := flockVector(a, s.herdNeighbors(a), s.cfg.Flock)
	goal := h.Target.Add(offset)
	if a.Position.Dist(goal) <= s.cfg.WaypointTolerance {
		return bt.Running
	}

	dir := goal.Sub(a.Position).Normalized()
	a.Position = a.Position.Add(dir.Scale(a.Stats.Speed * ctx.DT))
	a.Facing = dir.Angle()
	return bt.Running
}

// doGraze drifts around the spawn point.
func doGraze(ctx *bt.Context) bt.Status {
	a, s, _ := unpack(ctx)
	a.State = StateGraze
	return wander(a, s, ctx.DT)
}

func wander(a *Animal, s *System, dt float64) bt.Status {
	if len(a.Path) == 0 {
		goal := a.Spawn.Add(geom.Vec2{
			X: (s.rng.Float64()*2 - 1) * s.cfg.WanderRadius,
			Y: (s.rng.Float64()*2 - 1) * s.cfg.WanderRadius,
		})
		s.moveToward(a, goal, dt)
		return bt.Running
	}
	s.moveToward(a, a.Path[len(a.Path)-1], dt)
	return bt.Running
}
