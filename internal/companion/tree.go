package companion

import (
	"math"

	"github.com/emberhollow/aicore/internal/bt"
	"github.com/emberhollow/aicore/internal/events"
	"github.com/emberhollow/aicore/internal/geom"
	"github.com/emberhollow/aicore/internal/sim"
)

// buildCompanionTree dispatches on the current command. Each branch owns one
// order; follow is the fallback.
func buildCompanionTree() *bt.Tree {
	return &bt.Tree{Root: &bt.Selector{Children: []bt.Node{
		command(CommandStay, doStay),
		command(CommandAttack, doAttack),
		command(CommandDefend, doDefend),
		command(CommandGather, doGather),
		command(CommandScout, doScout),
		command(CommandPatrol, doPatrol),
		command(CommandReturn, doReturn),
		&bt.Action{Fn: doFollow},
	}}}
}

func command(kind CommandKind, fn func(*bt.Context) bt.Status) bt.Node {
	return &bt.Sequence{Children: []bt.Node{
		&bt.Check{Fn: func(ctx *bt.Context) bool {
			return ctx.Agent.(*Companion).Command.Kind == kind
		}},
		&bt.Action{Fn: fn},
	}}
}

func unpack(ctx *bt.Context) (*Companion, *System, *sim.WorldState) {
	return ctx.Agent.(*Companion), ctx.System.(*System), ctx.World.(*sim.WorldState)
}

func doStay(ctx *bt.Context) bt.Status {
	c, _, _ := unpack(ctx)
	c.clearMovement()
	return bt.Running
}

// doFollow trails the player at a respectful distance.
func doFollow(ctx *bt.Context) bt.Status {
	c, s, w := unpack(ctx)
	if c.Position.Dist(w.Player.Position) <= s.cfg.FollowDistance {
		return bt.Running
	}
	s.moveToward(c, w.Player.Position, ctx.DT)
	return bt.Running
}

// doAttack closes on the ordered target and strikes. A dead or vanished
// target ends the order.
func doAttack(ctx *bt.Context) bt.Status {
	c, s, _ := unpack(ctx)
	pos, ok := s.hostilePosition(c.TargetID)
	if !ok {
		c.Command = Command{Kind: CommandFollow}
		c.TargetID = ""
		return bt.Success
	}
	if c.Position.Dist(pos) <= c.Kind.AttackRange {
		c.Facing = geom.Bearing(c.Position, pos)
		s.strike(c, c.TargetID)
		return bt.Running
	}
	s.moveToward(c, pos, ctx.DT)
	return bt.Running
}

// doDefend hovers near the player and engages whatever hostile comes
// closest to them.
func doDefend(ctx *bt.Context) bt.Status {
	c, s, w := unpack(ctx)
	if h, ok := s.nearestHostile(w.Player.Position, s.cfg.DefendRadius); ok {
		if c.Position.Dist(h.Position) <= c.Kind.AttackRange {
			c.Facing = geom.Bearing(c.Position, h.Position)
			s.strike(c, h.ID)
		} else {
			s.moveToward(c, h.Position, ctx.DT)
		}
		return bt.Running
	}
	if c.Position.Dist(w.Player.Position) > s.cfg.DefendRadius {
		s.moveToward(c, w.Player.Position, ctx.DT)
	}
	return bt.Running
}

// doGather travels to the ordered spot, works the timer down, reports the
// haul and heads back.
func doGather(ctx *bt.Context) bt.Status {
	c, s, _ := unpack(ctx)
	if c.Position.Dist(c.Command.Position) > s.cfg.WaypointTolerance {
		s.moveToward(c, c.Command.Position, ctx.DT)
		return bt.Running
	}
	c.GatherTimer += ctx.DT
	if c.GatherTimer < s.cfg.GatherSeconds {
		return bt.Running
	}
	s.bus.Emit(events.ItemGathered, map[string]any{
		"companionId": c.ID, "position": c.Command.Position,
	})
	c.Command = Command{Kind: CommandReturn}
	c.GatherTimer = 0
	return bt.Success
}

// doScout sweeps random points around the player, rolling a fresh one each
// time the current is reached.
func doScout(ctx *bt.Context) bt.Status {
	c, s, w := unpack(ctx)
	goal, ok := boardVec(c.board, "scout_goal")
	if !ok || c.Position.Dist(goal) <= s.cfg.WaypointTolerance {
		angle := s.rng.Float64() * 2 * math.Pi
		radius := s.cfg.ScoutRadius * (0.5 + s.rng.Float64()*0.5)
		goal = w.Player.Position.Add(geom.FromAngle(angle).Scale(radius))
		setBoardVec(c.board, "scout_goal", goal)
	}
	s.moveToward(c, goal, ctx.DT)
	return bt.Running
}

// doPatrol loops a square around the ordered position.
func doPatrol(ctx *bt.Context) bt.Status {
	c, s, _ := unpack(ctx)
	r := s.cfg.PatrolRadius
	center := c.Command.Position
	waypoints := []geom.Vec2{
		center.Add(geom.Vec2{X: r}),
		center.Add(geom.Vec2{Y: r}),
		center.Add(geom.Vec2{X: -r}),
		center.Add(geom.Vec2{Y: -r}),
	}

	i := int(c.board.GetFloat("patrol_index")) % len(waypoints)
	if c.Position.Dist(waypoints[i]) <= s.cfg.WaypointTolerance {
		i = (i + 1) % len(waypoints)
		c.board.Set("patrol_index", float64(i))
	}
	s.moveToward(c, waypoints[i], ctx.DT)
	return bt.Running
}

// doReturn heads back to the player, then resumes following.
func doReturn(ctx *bt.Context) bt.Status {
	c, s, w := unpack(ctx)
	if c.Position.Dist(w.Player.Position) <= s.cfg.FollowDistance {
		c.Command = Command{Kind: CommandFollow}
		return bt.Success
	}
	s.moveToward(c, w.Player.Position, ctx.DT)
	return bt.Running
}

func boardVec(b *bt.Blackboard, key string) (geom.Vec2, bool) {
	v, ok := b.Get(key)
	if !ok {
		return geom.Vec2{}, false
	}
	vec, ok := v.(geom.Vec2)
	return vec, ok
}

func setBoardVec(b *bt.Blackboard, key string, v geom.Vec2) {
	b.Set(key, v)
}
