// Package blocks classifies world block names into the display color and
// pathfinding cost the rest of the system needs to render and traverse them.
package blocks

import "strings"

// Cost is a traversal weight for a single grid cell. Zero means impassable;
// one means free/walkable air; anything higher is traversable but penalized
// by the path planner (e.g. a block the agent would have to dig through).
type Cost int

const (
	// Impassable marks a cell the path planner must never cross.
	Impassable Cost = 0
	// Walkable is the default cost for free air and unrecognized names.
	Walkable Cost = 1
)

// rule is a single entry in the classification table. Rules are evaluated
// in order and the first substring match wins — order is significant and
// part of the documented contract (e.g. "lava_ore" classifies as ore).
type rule struct {
	substr string
	color  string
	cost   Cost
}

var rules = []rule{
	{"grass", "#55a630", 5},
	{"ore", "#37eb34", 10},
	{"dirt", "#967969", 5},
	{"stone", "#808080", 8},
	{"lava", "#eb3434", Impassable},
}

const defaultColor = "#808080"

// Classify maps a block name to its display color and traversal cost.
// Matching is case-sensitive substring matching against an ordered rule
// table; names matching none of the rules are treated as free/walkable air.
func Classify(name string) (color string, cost Cost) {
	for _, r := range rules {
		if strings.Contains(name, r.substr) {
			return r.color, r.cost
		}
	}
	return defaultColor, Walkable
}
