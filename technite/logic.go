package technite

import (
	"math/rand/v2"

	"github.com/czx-lab/aquinas/algo/random"
)

type (
	// Logic decides the next task of every technite once per round.
	Logic interface {
		ProcessTechnites(g *Grid, ts *Technites)
	}

	// LogicFunc adapts a function to Logic.
	LogicFunc func(g *Grid, ts *Technites)

	// Idle leaves every technite without a task.
	Idle struct{}
)

var (
	_ Logic = LogicFunc(nil)
	_ Logic = Idle{}
)

func (f LogicFunc) ProcessTechnites(g *Grid, ts *Technites) {
	f(g, ts)
}

func (Idle) ProcessTechnites(*Grid, *Technites) {}

// NotAChoice rates a candidate that must not be picked.
const NotAChoice = 0

// Candidates lists the cells around and in the stack of loc, in evaluation order.
func Candidates(g *Grid, loc CellID) []RelativeCell {
	var out []RelativeCell
	if int(loc.Stack) < len(g.nodes) {
		for i := range g.nodes[loc.Stack].Neighbors {
			for d := int8(-1); d <= 1; d++ {
				out = append(out, RelativeCell{NeighborIndex: uint8(i), HeightDelta: d})
			}
		}
	}
	return append(out,
		RelativeCell{NeighborIndex: ThisStack, HeightDelta: -1},
		RelativeCell{NeighborIndex: ThisStack, HeightDelta: 1},
	)
}

// Choose rates every candidate around loc and picks one at random, weighted by rating.
// ok is false if every rating was NotAChoice.
func Choose(rng *rand.Rand, g *Grid, loc CellID, rate func(rel RelativeCell, cell CellID) int) (RelativeCell, bool) {
	candidates := Candidates(g, loc)
	pool := random.NewWeightPool[RelativeCell, int](len(candidates))
	for _, rel := range candidates {
		if cell, ok := g.Neighbor(loc, rel); ok {
			pool.Add(rel, rate(rel, cell))
		}
	}
	return pool.Pick(rng)
}
