package technite

import (
	"errors"
	"fmt"

	"github.com/czx-lab/aquinas/xlog"
	"go.uber.org/zap"
)

type Task uint8

const (
	TaskNone Task = iota
	TaskConsumeSurroundingCell
	TaskGnawAtSurroundingCell
	TaskGrowTo
	TaskTransferEnergyTo
	TaskTransferMatterTo
	TaskSelfTransformToType
	TaskScan
)

type TaskResult uint8

const (
	ResultNothingToDo TaskResult = iota
	ResultBadCommand
	ResultCannotEatThis
	ResultCannotGnawAtThis
	ResultCannotStandThere
	ResultTechniteLacksResources
	ResultNoTechniteAtDestination
	ResultMoreWorkNeeded
	ResultOperationWindowMissed
	ResultAgain
	ResultSuccess
)

// ThisStack is the neighbor index of a target in the technite's own stack.
const ThisStack = 0xF

// maxLogPerRound limits per-technite log lines each round.
const maxLogPerRound = 3

var ErrInvalidTask = errors.New("invalid task")

type (
	// RelativeCell addresses a cell next to a technite: a neighbor stack (or ThisStack)
	// and a height delta of -1, 0 or +1.
	RelativeCell struct {
		NeighborIndex uint8
		HeightDelta   int8
	}

	// Status is the decoded one-byte technite state.
	Status struct {
		Lit bool
		TTL uint8
	}

	Technite struct {
		Location      CellID
		Resources     TechniteResources
		LastResources TechniteResources
		LastResult    TaskResult
		Status        Status

		nextTask      Task
		taskTarget    RelativeCell
		taskParameter uint8
		color         *Color
		preserved     bool
		removed       bool
	}

	// RoundStats summarizes the technite changes of one round.
	RoundStats struct {
		Created      int
		Died         int
		WindowMissed int
	}

	// Technites tracks the technites owned by the local faction.
	Technites struct {
		byLocation map[CellID]*Technite
		// all holds the technites confirmed this round in server order
		all   []*Technite
		check []*Technite
		round RoundStats
		// open is set from Reset or the first state until Cleanup
		open bool
	}
)

// Self targets the technite's own cell.
var Self = RelativeCell{NeighborIndex: ThisStack}

func (r RelativeCell) Valid() bool {
	return r.NeighborIndex <= ThisStack && r.HeightDelta >= -1 && r.HeightDelta <= 1
}

// Compress packs r into one byte: neighbor index in the low nibble, height delta + 1 above it.
func (r RelativeCell) Compress() uint8 {
	return r.NeighborIndex&0xF | uint8(r.HeightDelta+1)<<4
}

// DecodeLocation unpacks a wire location: stack in the upper 24 bits, layer in the lowest 8.
func DecodeLocation(v uint32) CellID {
	return CellID{Stack: v >> 8, Layer: int(v & 0xFF)}
}

// EncodeLocation is the inverse of DecodeLocation.
func EncodeLocation(id CellID) uint32 {
	return id.Stack<<8 | uint32(id.Layer)&0xFF
}

func DecodeStatus(b uint8) Status {
	return Status{Lit: b&0x80 != 0, TTL: b & 0x7F}
}

func (t *Technite) String() string {
	return fmt.Sprintf("%d.%d (ttl=%d lit=%v) {energy=%d matter=%d}",
		t.Location.Stack, t.Location.Layer, t.Status.TTL, t.Status.Lit, t.Resources.Energy, t.Resources.Matter)
}

// NextTask returns the task set for this round.
func (t *Technite) NextTask() (Task, RelativeCell, uint8) {
	return t.nextTask, t.taskTarget, t.taskParameter
}

// SetNextTask replaces the task the technite executes next round.
func (t *Technite) SetNextTask(g *Grid, task Task, target RelativeCell, parameter uint8) error {
	if cell, ok := g.Neighbor(t.Location, target); !ok || cell.Layer < 0 || cell.Layer >= g.LayersPerStack {
		return fmt.Errorf("%w: %v targets invalid cell %+v", ErrInvalidTask, t, target)
	}

	switch task {
	case TaskSelfTransformToType:
		if int(parameter) >= len(g.MatterYield) || g.MatterYield[parameter] == 0 {
			return fmt.Errorf("%w: %s is not a transformation output", ErrInvalidTask, Content(parameter))
		}
	case TaskTransferEnergyTo, TaskTransferMatterTo:
		if parameter == 0 {
			return fmt.Errorf("%w: task %d requires a non-zero parameter", ErrInvalidTask, task)
		}
	}

	t.nextTask, t.taskTarget, t.taskParameter = task, target, parameter
	return nil
}

// SetColor assigns a custom display color.
func (t *Technite) SetColor(r, g, b uint8) {
	t.color = &Color{R: r, G: g, B: b}
}

func (t *Technite) UnsetColor() {
	t.color = nil
}

func (t *Technite) instruction() TechniteInstruction {
	return TechniteInstruction{
		NextTask:      uint8(t.nextTask),
		TaskTarget:    t.taskTarget.Compress(),
		TaskParameter: t.taskParameter,
	}
}

func (t *Technite) importState(s TechniteState) {
	t.taskParameter = 0
	t.LastResources = t.Resources
	t.Resources = s.Resources
	t.LastResult = TaskResult(s.TaskResult)
	t.Status = DecodeStatus(s.State)
	t.preserved = true

	if t.LastResult != ResultMoreWorkNeeded {
		t.nextTask = TaskNone
	}
}

func NewTechnites() *Technites {
	return &Technites{byLocation: make(map[CellID]*Technite)}
}

// All returns the technites in server order.
func (ts *Technites) All() []*Technite {
	return ts.all
}

func (ts *Technites) Len() int {
	return len(ts.all)
}

// Find returns the technite at loc.
func (ts *Technites) Find(loc CellID) *Technite {
	return ts.byLocation[loc]
}

// Reset starts a round: every known technite is presumed dead until a state confirms it.
func (ts *Technites) Reset() {
	ts.check = ts.check[:0]
	for _, t := range ts.all {
		t.preserved = false
		ts.check = append(ts.check, t)
	}
	ts.all = ts.all[:0]
	ts.round = RoundStats{}
	ts.open = true
}

// CreateOrUpdate merges one state received from the server.
func (ts *Technites) CreateOrUpdate(g *Grid, s TechniteState) *Technite {
	ts.open = true
	loc := DecodeLocation(s.Location)
	content := g.Cell(loc).Content

	if t, ok := ts.byLocation[loc]; ok {
		// a higher TTL in the same cell is a new technite
		if t.Status.TTL >= DecodeStatus(s.State).TTL {
			t.importState(s)
			ts.confirm(content, t)
			return t
		}
		t.removed = true
		delete(ts.byLocation, loc)
	}

	t := &Technite{Location: loc}
	t.importState(s)
	ts.byLocation[loc] = t

	if ts.round.Created++; ts.round.Created <= maxLogPerRound {
		xlog.Log(xlog.Low, "technite: created", zap.Stringer("technite", t))
	}
	ts.confirm(content, t)
	return t
}

func (ts *Technites) confirm(content Content, t *Technite) {
	ts.all = append(ts.all, t)
	if t.LastResult == ResultOperationWindowMissed {
		ts.round.WindowMissed++
	}
	if content != ContentTechnite && content != ContentUndefined {
		xlog.Log(xlog.Unusual, "technite: unexpected cell content",
			zap.Stringer("content", content), zap.Stringer("technite", t))
	}
}

// Cleanup ends a round: technites not confirmed since Reset died.
// It returns the round statistics and starts counting anew. ok is false if no round was open.
func (ts *Technites) Cleanup() (stats RoundStats, ok bool) {
	if !ts.open {
		return RoundStats{}, false
	}
	ts.open = false

	for _, t := range ts.check {
		if t.preserved {
			continue
		}

		if ts.round.Died++; ts.round.Died <= maxLogPerRound {
			xlog.Log(xlog.Low, "technite: died", zap.Stringer("technite", t))
		}
		if !t.removed {
			delete(ts.byLocation, t.Location)
		}
	}
	ts.check = ts.check[:0]

	stats = ts.round
	ts.round = RoundStats{}
	if stats.Died > 0 {
		xlog.Log(xlog.Common, "technite: died this round", zap.Int("count", stats.Died))
	}
	if stats.Created > 0 {
		xlog.Log(xlog.Common, "technite: created this round", zap.Int("count", stats.Created))
	}
	if stats.WindowMissed > 0 {
		xlog.Log(xlog.Unusual, "technite: missed operation window", zap.Int("count", stats.WindowMissed))
	}
	return stats, true
}

// Flush forgets every technite.
func (ts *Technites) Flush() {
	clear(ts.byLocation)
	ts.all = nil
	ts.check = nil
	ts.round = RoundStats{}
	ts.open = false
}
