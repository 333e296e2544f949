package planner

import (
	"container/heap"
	"math"

	"github.com/fenwicklabs/turtlefleet/pkg/blocks"
	"github.com/fenwicklabs/turtlefleet/pkg/world"
)

// pad is the margin added to the start/dest bounding box in each axis before
// building the cost grid, so the search has room to route around obstacles
// near the straight line between the two points.
const pad = 5

// grid is a dense, bounded 3D cost array built from a World snapshot. Index
// (x,y,z) in grid space corresponds to world coordinate (x,y,z)+origin.
type grid struct {
	origin  world.Coord
	w, h, d int
	cost    []blocks.Cost
}

func newGrid(start, dest world.Coord) *grid {
	minC := world.Coord{
		X: minInt(start.X, dest.X) - pad,
		Y: minInt(start.Y, dest.Y) - pad,
		Z: minInt(start.Z, dest.Z) - pad,
	}
	maxC := world.Coord{
		X: maxInt(start.X, dest.X) + pad,
		Y: maxInt(start.Y, dest.Y) + pad,
		Z: maxInt(start.Z, dest.Z) + pad,
	}
	g := &grid{
		origin: minC,
		w:      maxC.X - minC.X + 1,
		h:      maxC.Y - minC.Y + 1,
		d:      maxC.Z - minC.Z + 1,
	}
	g.cost = make([]blocks.Cost, g.w*g.h*g.d)
	for i := range g.cost {
		g.cost[i] = blocks.Walkable
	}
	return g
}

func (g *grid) idx(c world.Coord) int {
	return (c.X*g.h+c.Y)*g.d + c.Z
}

func (g *grid) inBounds(c world.Coord) bool {
	return c.X >= 0 && c.X < g.w && c.Y >= 0 && c.Y < g.h && c.Z >= 0 && c.Z < g.d
}

func (g *grid) costAt(c world.Coord) blocks.Cost {
	return g.cost[g.idx(c)]
}

func (g *grid) setCost(c world.Coord, cost blocks.Cost) {
	g.cost[g.idx(c)] = cost
}

func (g *grid) toLocal(c world.Coord) world.Coord {
	return world.Coord{X: c.X - g.origin.X, Y: c.Y - g.origin.Y, Z: c.Z - g.origin.Z}
}

func (g *grid) toWorld(c world.Coord) world.Coord {
	return world.Coord{X: c.X + g.origin.X, Y: c.Y + g.origin.Y, Z: c.Z + g.origin.Z}
}

func buildGrid(snapshot []world.Cell, start, dest world.Coord) *grid {
	g := newGrid(start, dest)
	for _, cell := range snapshot {
		local := g.toLocal(cell.Coord)
		if g.inBounds(local) {
			g.setCost(local, cell.Cost)
		}
	}
	return g
}

// FindPath runs a weighted A* search over the cost grid derived from
// snapshot, allowing 26-connected movement (diagonal steps in all three
// axes), with an Euclidean-distance heuristic. It returns the full dense
// path including the start cell, or nil if dest is unreachable.
func FindPath(snapshot []world.Cell, start, dest world.Coord) []world.Coord {
	g := buildGrid(snapshot, start, dest)
	startLocal := g.toLocal(start)
	destLocal := g.toLocal(dest)

	if !g.inBounds(startLocal) || !g.inBounds(destLocal) {
		return nil
	}
	if g.costAt(destLocal) == blocks.Impassable {
		return nil
	}

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &searchNode{coord: startLocal, g: 0, f: euclidean(startLocal, destLocal)})

	gScore := map[world.Coord]float64{startLocal: 0}
	cameFrom := map[world.Coord]world.Coord{}
	closed := map[world.Coord]bool{}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*searchNode)
		if closed[cur.coord] {
			continue
		}
		closed[cur.coord] = true

		if cur.coord == destLocal {
			return reconstruct(cameFrom, startLocal, destLocal, g)
		}

		for _, n := range neighbors26(cur.coord) {
			if !g.inBounds(n) || closed[n] {
				continue
			}
			stepCost := g.costAt(n)
			if stepCost == blocks.Impassable {
				continue
			}
			tentative := gScore[cur.coord] + float64(stepCost)*stepWeight(cur.coord, n)
			if existing, ok := gScore[n]; !ok || tentative < existing {
				gScore[n] = tentative
				cameFrom[n] = cur.coord
				heap.Push(open, &searchNode{coord: n, g: tentative, f: tentative + euclidean(n, destLocal)})
			}
		}
	}
	return nil
}

func reconstruct(cameFrom map[world.Coord]world.Coord, start, dest world.Coord, g *grid) []world.Coord {
	var localPath []world.Coord
	cur := dest
	for cur != start {
		localPath = append(localPath, cur)
		prev, ok := cameFrom[cur]
		if !ok {
			break
		}
		cur = prev
	}
	localPath = append(localPath, start)

	out := make([]world.Coord, len(localPath))
	for i, c := range localPath {
		out[len(localPath)-1-i] = g.toWorld(c)
	}
	return out
}

// stepWeight scales a step's grid cost by the distance traveled, so a
// diagonal step through a cost-2 cell is penalized more than an axis-aligned
// step through the same cell.
func stepWeight(a, b world.Coord) float64 {
	return euclidean(a, b)
}

func euclidean(a, b world.Coord) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	dz := float64(a.Z - b.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func neighbors26(c world.Coord) []world.Coord {
	out := make([]world.Coord, 0, 26)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				out = append(out, world.Coord{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz})
			}
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// searchNode is a single A* open-set entry.
type searchNode struct {
	coord world.Coord
	g, f  float64
	index int
}

// nodeHeap is a container/heap min-heap ordered by f-score, the conventional
// way to implement A*'s priority queue in Go without a third-party library.
type nodeHeap []*searchNode

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *nodeHeap) Push(x interface{}) {
	n := x.(*searchNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
