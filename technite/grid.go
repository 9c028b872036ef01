package technite

import (
	"errors"
	"fmt"

	"github.com/czx-lab/aquinas/xlog"
	"go.uber.org/zap"
)

// Content is what fills one grid cell.
type Content uint8

const (
	ContentUnknown Content = iota
	ContentGranite
	ContentEarth
	ContentGrass
	ContentRock
	ContentSand
	ContentSnow
	ContentFoundation
	ContentRoad
	ContentLava
	ContentTechnite
	ContentWater
	ContentClear

	// ContentUndefined marks cells no delta has reached yet. It never travels on the wire.
	ContentUndefined
)

// NumContentTypes is the number of content types the server knows.
const NumContentTypes = int(ContentUndefined)

var contentNames = [...]string{
	"Unknown", "Granite", "Earth", "Grass", "Rock", "Sand", "Snow",
	"Foundation", "Road", "Lava", "Technite", "Water", "Clear", "Undefined",
}

func (c Content) String() string {
	if int(c) < len(contentNames) {
		return contentNames[c]
	}
	return fmt.Sprintf("Content(%d)", c)
}

// IsSolid reports whether c can support a technite standing on or next to it.
func (c Content) IsSolid(includeTechnites bool) bool {
	switch c {
	case ContentEarth, ContentFoundation, ContentGranite, ContentGrass,
		ContentRoad, ContentRock, ContentSand, ContentSnow:
		return true
	case ContentTechnite:
		return includeTechnites
	}
	return false
}

var (
	ErrGridNotReady = errors.New("grid not initialized")
	ErrDeltaRange   = errors.New("grid delta out of range")
)

type (
	Cell struct {
		Content Content
		// faction of the technite in this cell
		TechniteFaction uint8
	}

	// CellID addresses one cell by stack and layer. Layers outside the stack are the floor or ceiling.
	CellID struct {
		Stack uint32
		Layer int
	}

	// Grid is the client copy of the world volume: a graph of cell stacks with per-cell content.
	Grid struct {
		HeightPerLayer float32
		LayersPerStack int
		MatterYield    []uint8

		nodes   []GridNode
		pending []GridNode
		stacks  [][]Cell
		floor   Cell
		ceiling Cell
	}
)

func NewGrid() *Grid {
	return &Grid{ceiling: Cell{Content: ContentClear}}
}

// Configure starts a session with the server's grid dimensions.
func (g *Grid) Configure(c GridConfig) {
	g.HeightPerLayer = c.HeightPerLayer
	g.LayersPerStack = int(c.NumLayersPerStack)
	xlog.Log(xlog.Common, "grid: configured",
		zap.Float32("heightPerLayer", c.HeightPerLayer), zap.Int32("layersPerStack", c.NumLayersPerStack))

	if len(c.MatterYieldByContentType) != NumContentTypes {
		xlog.Log(xlog.ProgramFatal, "grid: matter yield vector does not match content types",
			zap.Int("received", len(c.MatterYieldByContentType)), zap.Int("supported", NumContentTypes))
		return
	}
	g.MatterYield = c.MatterYieldByContentType
}

// AddNodes buffers a node chunk. The graph is complete once the last chunk arrives.
func (g *Grid) AddNodes(c NodeChunk) {
	g.pending = append(g.pending, c.Nodes...)
	if c.IsLast {
		g.nodes = g.pending
		g.pending = nil
		xlog.Log(xlog.Common, "grid: received last node chunk", zap.Int("nodes", len(g.nodes)))
	}
}

// SetupWorld sets the content below the lowest layer.
func (g *Grid) SetupWorld(w WorldInfo) {
	g.floor = Cell{Content: Content(w.CoreContent)}
	g.ceiling = Cell{Content: ContentClear}
}

// Nodes returns the completed stack graph.
func (g *Grid) Nodes() []GridNode {
	return g.nodes
}

// Ready reports whether deltas can be applied.
func (g *Grid) Ready() bool {
	return len(g.nodes) > 0 && g.LayersPerStack > 0
}

func (g *Grid) create() {
	if g.stacks != nil {
		return
	}

	g.stacks = make([][]Cell, len(g.nodes))
	for i := range g.stacks {
		stack := make([]Cell, g.LayersPerStack)
		for l := range stack {
			stack[l].Content = ContentUndefined
		}
		g.stacks[i] = stack
	}
}

// ApplyDelta applies run-length encoded content and faction updates to a range of stacks.
// Cell at of a field lies in stack at%NodeCount+NodeOffset, layer at/NodeCount.
func (g *Grid) ApplyDelta(d GridDelta) error {
	if !g.Ready() {
		return ErrGridNotReady
	}
	g.create()

	if d.NodeCount == 0 || uint64(d.NodeOffset)+uint64(d.NodeCount) > uint64(len(g.stacks)) {
		return fmt.Errorf("%w: nodes [%d,%d) of %d", ErrDeltaRange, d.NodeOffset, uint64(d.NodeOffset)+uint64(d.NodeCount), len(g.stacks))
	}

	if err := g.applyField(d, d.ContentBlocks, func(c *Cell, v uint8) {
		if v != 0 || c.Content == ContentUndefined {
			c.Content = Content(v)
		}
	}); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if err := g.applyField(d, d.TechniteFactionBlocks, func(c *Cell, v uint8) {
		if v != 0 {
			c.TechniteFaction = v - 1
		}
	}); err != nil {
		return fmt.Errorf("technite factions: %w", err)
	}
	return nil
}

func (g *Grid) applyField(d GridDelta, blocks []GridDeltaBlock, apply func(c *Cell, v uint8)) error {
	if len(blocks) == 0 {
		return nil
	}

	total := uint64(d.NodeCount) * uint64(g.LayersPerStack)
	var at uint64
	for _, b := range blocks {
		if at+uint64(b.Repetition) > total {
			return fmt.Errorf("%w: %d cells in a range of %d", ErrDeltaRange, at+uint64(b.Repetition), total)
		}
		for range b.Repetition {
			stack := at%uint64(d.NodeCount) + uint64(d.NodeOffset)
			layer := at / uint64(d.NodeCount)
			apply(&g.stacks[stack][layer], b.Value)
			at++
		}
	}
	if at != total {
		xlog.Log(xlog.Unusual, "grid: delta does not cover its range", zap.Uint64("cells", at), zap.Uint64("expected", total))
	}
	return nil
}

// Cell returns the cell at id. Layers below zero are the floor, layers above the stack the ceiling.
func (g *Grid) Cell(id CellID) Cell {
	switch {
	case id.Layer < 0:
		return g.floor
	case id.Layer >= g.LayersPerStack:
		return g.ceiling
	case int(id.Stack) >= len(g.stacks):
		return Cell{Content: ContentUndefined}
	}
	return g.stacks[id.Stack][id.Layer]
}

// Neighbor resolves a relative target from id.
func (g *Grid) Neighbor(id CellID, rel RelativeCell) (CellID, bool) {
	if !rel.Valid() {
		return CellID{}, false
	}
	if rel.NeighborIndex == ThisStack {
		return CellID{Stack: id.Stack, Layer: id.Layer + int(rel.HeightDelta)}, true
	}
	if int(id.Stack) >= len(g.nodes) {
		return CellID{}, false
	}

	neighbors := g.nodes[id.Stack].Neighbors
	if int(rel.NeighborIndex) >= len(neighbors) {
		return CellID{}, false
	}
	return CellID{Stack: neighbors[rel.NeighborIndex], Layer: id.Layer + int(rel.HeightDelta)}, true
}

// Flush drops all session data.
func (g *Grid) Flush() {
	*g = *NewGrid()
}
