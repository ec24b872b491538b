// Package bt provides a stateless behavior tree evaluator. A tree is built
// once per agent archetype and shared; all resumable progress (paths, target
// ids, cooldowns) lives on the agent record, so the same tree can be
// re-evaluated every tick without allocation.
package bt

// Status is the result of evaluating a node.
type Status int

const (
	Success Status = iota
	Failure
	Running
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Running:
		return "running"
	}
	return "unknown"
}

// Context carries the per-evaluation inputs. Agent and System are untyped so
// each subsystem can pass its own record and itself without an import cycle.
type Context struct {
	Agent  any
	World  any
	System any
	DT     float64 // seconds

	Board *Blackboard
}

// Node is a single node in a behavior tree.
type Node interface {
	Tick(ctx *Context) Status
}

// Selector returns the first child result that is not Failure (logical OR).
type Selector struct {
	Children []Node
}

func (s *Selector) Tick(ctx *Context) Status {
	for _, c := range s.Children {
		switch st := c.Tick(ctx); st {
		case Success, Running:
			return st
		}
	}
	return Failure
}

// Sequence runs children until one is not Success (logical AND).
type Sequence struct {
	Children []Node
}

func (s *Sequence) Tick(ctx *Context) Status {
	for _, c := range s.Children {
		switch st := c.Tick(ctx); st {
		case Failure, Running:
			return st
		}
	}
	return Success
}

// Check is a pure predicate leaf.
type Check struct {
	Fn func(ctx *Context) bool
}

func (c *Check) Tick(ctx *Context) Status {
	if c.Fn(ctx) {
		return Success
	}
	return Failure
}

// Action is a leaf with side effects.
type Action struct {
	Fn func(ctx *Context) Status
}

func (a *Action) Tick(ctx *Context) Status {
	return a.Fn(ctx)
}

// Inverter negates its child's result; Running passes through.
type Inverter struct {
	Child Node
}

func (i *Inverter) Tick(ctx *Context) Status {
	switch i.Child.Tick(ctx) {
	case Success:
		return Failure
	case Failure:
		return Success
	}
	return Running
}

// Tree wraps a root node.
type Tree struct {
	Root Node
}

// Tick evaluates the tree once. A nil root fails.
func (t *Tree) Tick(ctx *Context) Status {
	if t == nil || t.Root == nil {
		return Failure
	}
	return t.Root.Tick(ctx)
}
