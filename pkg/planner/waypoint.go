// Package planner builds paths across the world's sparse cost grid and
// reduces them to the waypoint commands the fleet queue actually carries.
package planner

import (
	"fmt"

	"github.com/fenwicklabs/turtlefleet/pkg/world"
)

// Compress reduces a dense, 26-connected cell path into the subsequence of
// cells at which the direction of travel changes, plus the final cell. The
// starting cell p[0] is never included: the agent is already there. Paths
// shorter than two cells compress to nothing.
func Compress(path []world.Coord) []world.Coord {
	if len(path) < 2 {
		return nil
	}

	out := make([]world.Coord, 0, len(path))
	prevStep := step(path[0], path[1])
	for i := 2; i < len(path); i++ {
		s := step(path[i-1], path[i])
		if s != prevStep {
			out = append(out, path[i-1])
			prevStep = s
		}
	}
	out = append(out, path[len(path)-1])
	return out
}

type stepVec struct{ dx, dy, dz int }

func step(a, b world.Coord) stepVec {
	return stepVec{b.X - a.X, b.Y - a.Y, b.Z - a.Z}
}

// GotoCommand renders a waypoint as the queue command string the agent
// firmware understands.
func GotoCommand(c world.Coord) string {
	return fmt.Sprintf("goto %d %d %d", c.X, c.Y, c.Z)
}

// MineCommand renders a mining target as its queue command string.
func MineCommand(c world.Coord) string {
	return fmt.Sprintf("mine %d %d %d", c.X, c.Y, c.Z)
}

// CompressToCommands is the end-to-end helper Task Planner uses: compress a
// raw A* path and render each waypoint as a goto command.
func CompressToCommands(path []world.Coord) []string {
	waypoints := Compress(path)
	cmds := make([]string, len(waypoints))
	for i, c := range waypoints {
		cmds[i] = GotoCommand(c)
	}
	return cmds
}
