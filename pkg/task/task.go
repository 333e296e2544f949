// Package task implements the Task Planner: parsing operator command
// strings, selecting and invoking the Path Planner, and composing mining
// commands on top of generated waypoints.
package task

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fenwicklabs/turtlefleet/pkg/fleet"
	"github.com/fenwicklabs/turtlefleet/pkg/planner"
	"github.com/fenwicklabs/turtlefleet/pkg/world"
)

// Metrics receives task-planner instrumentation. Implemented by
// pkg/observability; a nil Metrics is a valid no-op.
type Metrics interface {
	ObserveCommand(kind string)
	ObservePathPlanning(d time.Duration, found bool)
}

// Planner composes the Fleet Store and World Model into the operator-facing
// command language: goto/mine/mineall plus verbatim passthrough.
type Planner struct {
	fleet   *fleet.Store
	world   *world.World
	metrics Metrics
	log     *slog.Logger
}

// New builds a Task Planner over the given fleet and world. metrics may be
// nil.
func New(f *fleet.Store, w *world.World, metrics Metrics, log *slog.Logger) *Planner {
	if log == nil {
		log = slog.Default()
	}
	return &Planner{fleet: f, world: w, metrics: metrics, log: log}
}

// ErrNoAgentsAvailable is returned by ProcessChat when the fleet is empty.
var ErrNoAgentsAvailable = fmt.Errorf("task: no agents available")

// ErrNotFound is returned by a mine/mineall command addressed to a block
// name with no matching coordinate in the World Model.
type ErrNotFound struct{ Name string }

func (e ErrNotFound) Error() string { return fmt.Sprintf("task: block %q not found", e.Name) }

// Process parses an operator-submitted command batch (comma- or
// newline-separated, whitespace-trimmed, empties discarded) and runs each
// sub-command against the given agent in order.
func (p *Planner) Process(id fleet.AgentID, batch string) error {
	// Each sub-command plans from the agent's live status, not from the
	// position earlier sub-commands of this batch will leave it at.
	for _, cmd := range splitBatch(batch) {
		if err := p.dispatch(id, cmd); err != nil {
			return err
		}
	}
	return nil
}

// ProcessChat resolves an agent via the fleet's pick_best_available policy,
// then runs the batch against it, returning the chosen agent id.
func (p *Planner) ProcessChat(batch string) (fleet.AgentID, error) {
	id, ok := p.fleet.PickBestAvailable()
	if !ok {
		return "", ErrNoAgentsAvailable
	}
	return id, p.Process(id, batch)
}

func splitBatch(batch string) []string {
	replaced := strings.ReplaceAll(batch, "\n", ",")
	parts := strings.Split(replaced, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (p *Planner) dispatch(id fleet.AgentID, command string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "goto":
		p.observe("goto")
		return p.handleGoto(id, fields)
	case "mine":
		if len(fields) == 2 {
			p.observe("mine")
			return p.handleMine(id, fields[1])
		}
		return p.handlePassthrough(id, command)
	case "mineall":
		if len(fields) == 2 {
			p.observe("mineall")
			return p.handleMineAll(id, fields[1])
		}
		return p.handlePassthrough(id, command)
	default:
		return p.handlePassthrough(id, command)
	}
}

func (p *Planner) observe(kind string) {
	if p.metrics != nil {
		p.metrics.ObserveCommand(kind)
	}
}

func (p *Planner) handleGoto(id fleet.AgentID, fields []string) error {
	if len(fields) != 4 {
		return fmt.Errorf("task: goto requires exactly 3 coordinates, got %d", len(fields)-1)
	}
	dest, err := parseCoord(fields[1], fields[2], fields[3])
	if err != nil {
		return err
	}

	status, err := p.fleet.GetStatus(id)
	if err != nil {
		return err
	}
	start := world.Coord{X: status.X, Y: status.Y, Z: status.Z}

	cmds := p.planRoute(start, dest)
	return p.fleet.AppendCommands(id, cmds)
}

func (p *Planner) handleMine(id fleet.AgentID, name string) error {
	status, err := p.fleet.GetStatus(id)
	if err != nil {
		return err
	}
	start := world.Coord{X: status.X, Y: status.Y, Z: status.Z}

	target, ok := nearest(p.world.FindByName(name), start)
	if !ok {
		return ErrNotFound{Name: name}
	}

	// planRoute returns nil on NoPath; the trailing mine is still appended
	// against the stated target coordinate regardless, matching find_and_mine's
	// single-target contract (§7 treats NoPath as "emits nothing" for the
	// route itself, not for a command addressed directly to a known coord).
	cmds := p.planRoute(start, target)
	cmds = append(cmds, planner.MineCommand(target))
	return p.fleet.AppendCommands(id, cmds)
}

func (p *Planner) handleMineAll(id fleet.AgentID, name string) error {
	status, err := p.fleet.GetStatus(id)
	if err != nil {
		return err
	}
	pos := world.Coord{X: status.X, Y: status.Y, Z: status.Z}

	targets := p.world.FindByName(name)
	if len(targets) == 0 {
		return ErrNotFound{Name: name}
	}
	sortByDistance(targets, pos)

	var cmds []string
	for _, target := range targets {
		cmds = append(cmds, p.planRoute(pos, target)...)
		cmds = append(cmds, planner.MineCommand(target))
		pos = target
	}
	return p.fleet.AppendCommands(id, cmds)
}

func (p *Planner) handlePassthrough(id fleet.AgentID, command string) error {
	p.observe("passthrough")
	return p.fleet.AppendCommands(id, []string{command})
}

// planRoute runs the Path Planner against a fresh World snapshot and
// compresses the result into goto commands. An unreachable destination
// yields no commands, not an error: the caller still appends any trailing
// mine command against the stated target.
func (p *Planner) planRoute(start, dest world.Coord) []string {
	began := time.Now()
	snapshot := p.world.Snapshot()
	path := planner.FindPath(snapshot, start, dest)
	found := path != nil
	if p.metrics != nil {
		p.metrics.ObservePathPlanning(time.Since(began), found)
	}
	if !found {
		p.log.Warn("path planning found no route", "start", start, "dest", dest)
		return nil
	}
	return planner.CompressToCommands(path)
}

func parseCoord(xs, ys, zs string) (world.Coord, error) {
	x, err := strconv.Atoi(xs)
	if err != nil {
		return world.Coord{}, fmt.Errorf("task: invalid x coordinate %q: %w", xs, err)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return world.Coord{}, fmt.Errorf("task: invalid y coordinate %q: %w", ys, err)
	}
	z, err := strconv.Atoi(zs)
	if err != nil {
		return world.Coord{}, fmt.Errorf("task: invalid z coordinate %q: %w", zs, err)
	}
	return world.Coord{X: x, Y: y, Z: z}, nil
}

// nearest returns the coordinate in coords with the smallest Euclidean
// distance from pos, breaking ties lexicographically on (x,y,z).
func nearest(coords []world.Coord, pos world.Coord) (world.Coord, bool) {
	if len(coords) == 0 {
		return world.Coord{}, false
	}
	sortByDistance(coords, pos)
	return coords[0], true
}

// sortByDistance sorts coords ascending by Euclidean distance from pos,
// breaking ties lexicographically on (x,y,z) for determinism.
func sortByDistance(coords []world.Coord, pos world.Coord) {
	sort.Slice(coords, func(i, j int) bool {
		di, dj := sqDist(coords[i], pos), sqDist(coords[j], pos)
		if di != dj {
			return di < dj
		}
		return lexLess(coords[i], coords[j])
	})
}

func sqDist(a, b world.Coord) int {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}

func lexLess(a, b world.Coord) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}
