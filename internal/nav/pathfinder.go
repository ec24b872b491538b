// Package nav provides point-to-point path queries over an open 2D world.
// The world is discretized into a coarse square grid; cells carry a terrain
// traversal cost sampled from a noise field, and registered circular
// obstacles block cells outright. A failed query is a normal outcome: the
// caller retries next tick rather than treating it as fatal.
package nav

import (
	"container/heap"
	"log/slog"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/emberhollow/aicore/internal/geom"
)

// Options tunes a single path query.
type Options struct {
	MaxIterations int     // A* node expansion budget; 0 uses the default
	AgentRadius   float64 // extra clearance added to every obstacle
}

// Result is the outcome of a path query. OK=false means no path was found
// within budget; callers should retry next tick.
type Result struct {
	OK   bool
	Path []geom.Vec2
}

type obstacle struct {
	pos    geom.Vec2
	radius float64
}

// Pathfinder answers path queries and tracks obstacles.
type Pathfinder struct {
	cellSize  float64
	costNoise opensimplex.Noise
	obstacles map[string]obstacle

	maxIterations int
}

// NewPathfinder creates a pathfinder. cellSize controls grid granularity
// (world units per cell); seed fixes the terrain cost field.
func NewPathfinder(cellSize float64, seed int64) *Pathfinder {
	if cellSize <= 0 {
		cellSize = 1.0
	}
	return &Pathfinder{
		cellSize:      cellSize,
		costNoise:     opensimplex.NewNormalized(seed),
		obstacles:     make(map[string]obstacle),
		maxIterations: 4096,
	}
}

// AddObstacle registers or updates a circular obstacle.
func (p *Pathfinder) AddObstacle(id string, pos geom.Vec2, radius float64) bool {
	if id == "" {
		slog.Warn("pathfinder: obstacle with empty id ignored")
		return false
	}
	p.obstacles[id] = obstacle{pos: pos, radius: radius}
	return true
}

// RemoveObstacle drops an obstacle. Removing an unknown id is a no-op.
func (p *Pathfinder) RemoveObstacle(id string) {
	delete(p.obstacles, id)
}

// blocked reports whether a world point lies inside any obstacle.
func (p *Pathfinder) blocked(pt geom.Vec2, clearance float64) bool {
	for _, o := range p.obstacles {
		if pt.Dist(o.pos) < o.radius+clearance {
			return true
		}
	}
	return false
}

// terrainCost samples the movement cost multiplier at a world point, in
// [1, 3]. Rough terrain is pathable but expensive.
func (p *Pathfinder) terrainCost(pt geom.Vec2) float64 {
	n := p.costNoise.Eval2(pt.X*0.05, pt.Y*0.05) // normalized to [0,1]
	return 1 + 2*n
}

type cell struct{ cx, cy int }

func (p *Pathfinder) cellOf(pt geom.Vec2) cell {
	return cell{
		cx: int(math.Floor(pt.X / p.cellSize)),
		cy: int(math.Floor(pt.Y / p.cellSize)),
	}
}

func (p *Pathfinder) center(c cell) geom.Vec2 {
	return geom.Vec2{
		X: (float64(c.cx) + 0.5) * p.cellSize,
		Y: (float64(c.cy) + 0.5) * p.cellSize,
	}
}

// FindPath computes a path from start to end. The returned path starts at
// the first step after start and ends exactly at end.
func (p *Pathfinder) FindPath(start, end geom.Vec2, opts Options) Result {
	clearance := opts.AgentRadius
	if p.blocked(end, clearance) {
		return Result{OK: false}
	}

	// Unobstructed straight line: skip the grid entirely.
	if p.lineClear(start, end, clearance) {
		return Result{OK: true, Path: []geom.Vec2{end}}
	}

	budget := opts.MaxIterations
	if budget <= 0 {
		budget = p.maxIterations
	}

	startCell := p.cellOf(start)
	endCell := p.cellOf(end)

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &node{c: startCell, g: 0, f: p.heuristic(startCell, endCell)})

	gScore := map[cell]float64{startCell: 0}
	cameFrom := map[cell]cell{}
	closed := map[cell]bool{}

	for open.Len() > 0 && budget > 0 {
		budget--
		cur := heap.Pop(open).(*node)
		if closed[cur.c] {
			continue
		}
		closed[cur.c] = true

		if cur.c == endCell {
			return Result{OK: true, Path: p.reconstruct(cameFrom, cur.c, end)}
		}

		for _, nb := range p.neighbors(cur.c, clearance) {
			step := p.cellSize
			if nb.cx != cur.c.cx && nb.cy != cur.c.cy {
				step *= math.Sqrt2
			}
			g := gScore[cur.c] + step*p.terrainCost(p.center(nb))
			if prev, seen := gScore[nb]; seen && g >= prev {
				continue
			}
			gScore[nb] = g
			cameFrom[nb] = cur.c
			heap.Push(open, &node{c: nb, g: g, f: g + p.heuristic(nb, endCell)})
		}
	}

	return Result{OK: false}
}

func (p *Pathfinder) heuristic(a, b cell) float64 {
	dx := float64(a.cx - b.cx)
	dy := float64(a.cy - b.cy)
	return math.Hypot(dx, dy) * p.cellSize
}

func (p *Pathfinder) neighbors(c cell, clearance float64) []cell {
	out := make([]cell, 0, 8)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nb := cell{c.cx + dx, c.cy + dy}
			if p.blocked(p.center(nb), clearance) {
				continue
			}
			out = append(out, nb)
		}
	}
	return out
}

func (p *Pathfinder) reconstruct(cameFrom map[cell]cell, last cell, end geom.Vec2) []geom.Vec2 {
	var cells []cell
	for c, ok := last, true; ok; c, ok = cameFrom[c], true {
		cells = append(cells, c)
		if _, more := cameFrom[c]; !more {
			break
		}
	}
	// Reverse, drop the start cell, and snap the final point to the exact goal.
	path := make([]geom.Vec2, 0, len(cells))
	for i := len(cells) - 2; i >= 0; i-- {
		path = append(path, p.center(cells[i]))
	}
	if len(path) == 0 {
		return []geom.Vec2{end}
	}
	path[len(path)-1] = end
	return path
}

// lineClear samples the segment between two points for obstacles.
func (p *Pathfinder) lineClear(a, b geom.Vec2, clearance float64) bool {
	dist := a.Dist(b)
	if dist == 0 {
		return true
	}
	steps := int(dist/(p.cellSize*0.5)) + 1
	dir := b.Sub(a).Scale(1 / float64(steps))
	pt := a
	for i := 0; i <= steps; i++ {
		if p.blocked(pt, clearance) {
			return false
		}
		pt = pt.Add(dir)
	}
	return true
}

type node struct {
	c    cell
	g, f float64
}

type nodeHeap []*node

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)         { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
