package planner

import (
	"testing"

	"github.com/fenwicklabs/turtlefleet/pkg/world"
)

func TestCompress_EmptyForShortPaths(t *testing.T) {
	if got := Compress(nil); got != nil {
		t.Errorf("Compress(nil) = %v, want nil", got)
	}
	if got := Compress([]world.Coord{{X: 1}}); got != nil {
		t.Errorf("Compress(single cell) = %v, want nil", got)
	}
}

func TestCompress_StraightLineYieldsOneWaypoint(t *testing.T) {
	path := []world.Coord{{X: 0}, {X: 1}, {X: 2}, {X: 3}, {X: 4}}
	got := Compress(path)
	if len(got) != 1 {
		t.Fatalf("expected exactly one waypoint for a monotonic sub-path, got %v", got)
	}
	if got[0] != (world.Coord{X: 4}) {
		t.Errorf("expected final waypoint to be the endpoint, got %v", got[0])
	}
}

func TestCompress_DirectionChangeEmitsWaypointAtTurn(t *testing.T) {
	// Travels +X twice, then +Y twice: one waypoint at the turn, one at the end.
	path := []world.Coord{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0},
		{X: 2, Y: 1}, {X: 2, Y: 2},
	}
	got := Compress(path)
	want := []world.Coord{{X: 2, Y: 0}, {X: 2, Y: 2}}
	if len(got) != len(want) {
		t.Fatalf("Compress() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("waypoint %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCompress_DoesNotIncludeStart(t *testing.T) {
	path := []world.Coord{{X: 0}, {X: 1}}
	got := Compress(path)
	for _, c := range got {
		if c == (world.Coord{X: 0}) {
			t.Error("compressed path must never include the starting cell")
		}
	}
}

func TestGotoCommand_Format(t *testing.T) {
	if got := GotoCommand(world.Coord{X: -1, Y: 2, Z: 3}); got != "goto -1 2 3" {
		t.Errorf("GotoCommand() = %q", got)
	}
}

func TestMineCommand_Format(t *testing.T) {
	if got := MineCommand(world.Coord{X: 1, Y: 2, Z: 3}); got != "mine 1 2 3" {
		t.Errorf("MineCommand() = %q", got)
	}
}

func TestFindPath_StraightOpenSpace(t *testing.T) {
	path := FindPath(nil, world.Coord{}, world.Coord{X: 3})
	if path == nil {
		t.Fatal("expected a path through open space")
	}
	if path[0] != (world.Coord{}) {
		t.Errorf("path must start at the start coordinate, got %v", path[0])
	}
	if path[len(path)-1] != (world.Coord{X: 3}) {
		t.Errorf("path must end at dest, got %v", path[len(path)-1])
	}
}

func TestFindPath_RoutesAroundWall(t *testing.T) {
	// A lava wall spanning the Y/Z plane at X=1, except for a gap at Y=2.
	var snapshot []world.Cell
	for y := -3; y <= 3; y++ {
		for z := -3; z <= 3; z++ {
			if y == 2 {
				continue
			}
			snapshot = append(snapshot, world.Cell{Coord: world.Coord{X: 1, Y: y, Z: z}, Cost: 0})
		}
	}

	path := FindPath(snapshot, world.Coord{X: 0}, world.Coord{X: 2})
	if path == nil {
		t.Fatal("expected a path through the gap in the wall")
	}
	for _, c := range path {
		if c.X == 1 && c.Y != 2 {
			t.Fatalf("path crossed the impassable wall at %v", c)
		}
	}
}

func TestFindPath_UnreachableDestReturnsNil(t *testing.T) {
	// Seal the destination in a full shell of lava.
	var snapshot []world.Cell
	dest := world.Coord{X: 5, Y: 5, Z: 5}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				snapshot = append(snapshot, world.Cell{
					Coord: world.Coord{X: dest.X + dx, Y: dest.Y + dy, Z: dest.Z + dz},
					Cost:  0,
				})
			}
		}
	}

	path := FindPath(snapshot, world.Coord{}, dest)
	if path != nil {
		t.Errorf("expected no path to a fully sealed destination, got %v", path)
	}
}

func TestFindPath_PrefersCheaperOpenRouteOverExpensiveBlock(t *testing.T) {
	snapshot := []world.Cell{
		{Coord: world.Coord{X: 1, Y: 0, Z: 0}, Cost: 10},
	}
	path := FindPath(snapshot, world.Coord{}, world.Coord{X: 2})
	if path == nil {
		t.Fatal("expected a path")
	}
	for _, c := range path {
		if c == (world.Coord{X: 1, Y: 0, Z: 0}) {
			t.Error("A* should route around an expensive cell when a free diagonal detour exists")
		}
	}
}
