package npc

import (
	"github.com/emberhollow/aicore/internal/bt"
	"github.com/emberhollow/aicore/internal/geom"
	"github.com/emberhollow/aicore/internal/sim"
)

// buildNPCTree constructs the shared villager decision tree. Override order:
// critical-need emergency, then bad-weather shelter, then festival
// participation, then the scheduled activity for the current hour.
func buildNPCTree() *bt.Tree {
	return &bt.Tree{Root: &bt.Selector{Children: []bt.Node{
		&bt.Sequence{Children: []bt.Node{
			&bt.Check{Fn: hasCriticalNeed},
			&bt.Action{Fn: doEmergency},
		}},
		&bt.Sequence{Children: []bt.Node{
			&bt.Check{Fn: weatherIsDangerous},
			&bt.Action{Fn: doShelter},
		}},
		&bt.Sequence{Children: []bt.Node{
			&bt.Check{Fn: festivalActive},
			&bt.Action{Fn: doFestival},
		}},
		&bt.Action{Fn: doScheduled},
	}}}
}

func unpack(ctx *bt.Context) (*NPC, *System, *sim.WorldState) {
	return ctx.Agent.(*NPC), ctx.System.(*System), ctx.World.(*sim.WorldState)
}

func hasCriticalNeed(ctx *bt.Context) bool {
	n, s, _ := unpack(ctx)
	return n.Needs.lowest() < s.cfg.CriticalNeedLevel
}

// doEmergency addresses the most pressing need directly, overriding the
// schedule.
func doEmergency(ctx *bt.Context) bt.Status {
	n, s, _ := unpack(ctx)
	n.Activity = ActivityEmergency
	switch {
	case n.Needs.Hunger <= n.Needs.Energy && n.Needs.Hunger <= n.Needs.Social:
		return eat(n, s, ctx.DT)
	case n.Needs.Energy <= n.Needs.Social:
		return sleep(n, s, ctx.DT)
	default:
		if s.socialize(n) {
			return bt.Success
		}
		return wander(n, s, ctx.DT)
	}
}

func weatherIsDangerous(ctx *bt.Context) bool {
	_, _, w := unpack(ctx)
	return w.Weather == sim.WeatherStorm || w.Weather == sim.WeatherSnow
}

func doShelter(ctx *bt.Context) bt.Status {
	n, s, _ := unpack(ctx)
	n.Activity = ActivityShelter
	if n.Position.Dist(n.HomePos) <= s.cfg.WaypointTolerance {
		return bt.Success
	}
	s.moveToward(n, n.HomePos, ctx.DT)
	return bt.Running
}

func festivalActive(ctx *bt.Context) bool {
	_, _, w := unpack(ctx)
	return w.HasEvent("festival")
}

func doFestival(ctx *bt.Context) bt.Status {
	n, s, _ := unpack(ctx)
	n.Activity = ActivityFestival
	if s.socialize(n) {
		return bt.Success
	}
	return wander(n, s, ctx.DT)
}

// doScheduled runs the activity the schedule names for the current hour.
func doScheduled(ctx *bt.Context) bt.Status {
	n, s, w := unpack(ctx)
	activity := n.Schedule[((w.Hour%24)+24)%24]
	n.Activity = activity
	switch activity {
	case ActivitySleep:
		return sleep(n, s, ctx.DT)
	case ActivityEat:
		return eat(n, s, ctx.DT)
	case ActivityWork:
		if n.Position.Dist(n.WorkPos) > s.cfg.WaypointTolerance {
			s.moveToward(n, n.WorkPos, ctx.DT)
			return bt.Running
		}
		return bt.Success
	case ActivitySocialize:
		if s.socialize(n) {
			return bt.Success
		}
		return wander(n, s, ctx.DT)
	default:
		return wander(n, s, ctx.DT)
	}
}

func sleep(n *NPC, s *System, dt float64) bt.Status {
	if n.Position.Dist(n.HomePos) > s.cfg.WaypointTolerance {
		s.moveToward(n, n.HomePos, dt)
		return bt.Running
	}
	n.Needs.Energy = geom.Clamp(n.Needs.Energy+dt/3600, 0, 1)
	return bt.Running
}

func eat(n *NPC, s *System, dt float64) bt.Status {
	if n.Position.Dist(n.HomePos) > s.cfg.WaypointTolerance {
		s.moveToward(n, n.HomePos, dt)
		return bt.Running
	}
	n.Needs.Hunger = geom.Clamp(n.Needs.Hunger+dt/600, 0, 1)
	return bt.Running
}

func wander(n *NPC, s *System, dt float64) bt.Status {
	// Drift around home; a new goal is rolled whenever the last one is
	// reached or pathing failed.
	if len(n.Path) == 0 {
		offset := geom.Vec2{
			X: (s.rng.Float64()*2 - 1) * 6,
			Y: (s.rng.Float64()*2 - 1) * 6,
		}
		goal := n.HomePos.Add(offset)
		s.moveToward(n, goal, dt)
		return bt.Running
	}
	s.moveToward(n, n.Path[len(n.Path)-1], dt)
	return bt.Running
}
