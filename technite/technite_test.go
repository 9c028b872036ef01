package technite

import (
	"errors"
	"testing"
)

func state(loc CellID, ttl uint8, result TaskResult) TechniteState {
	return TechniteState{
		Location:   EncodeLocation(loc),
		Resources:  TechniteResources{Energy: ttl, Matter: 1},
		TaskResult: uint8(result),
		State:      0x80 | ttl,
	}
}

func TestCompressedValues(t *testing.T) {
	if got := DecodeLocation(0x012345_07); got != (CellID{Stack: 0x012345, Layer: 7}) {
		t.Errorf("DecodeLocation = %+v", got)
	}
	if got := EncodeLocation(CellID{Stack: 9, Layer: 3}); got != 9<<8|3 {
		t.Errorf("EncodeLocation = %#x", got)
	}
	if got := DecodeStatus(0x85); !got.Lit || got.TTL != 5 {
		t.Errorf("DecodeStatus(0x85) = %+v", got)
	}
	if got := DecodeStatus(0x7F); got.Lit || got.TTL != 127 {
		t.Errorf("DecodeStatus(0x7F) = %+v", got)
	}

	tests := []struct {
		rel  RelativeCell
		want uint8
	}{
		{RelativeCell{NeighborIndex: 2, HeightDelta: -1}, 0x02},
		{RelativeCell{NeighborIndex: 2, HeightDelta: 0}, 0x12},
		{RelativeCell{NeighborIndex: 5, HeightDelta: 1}, 0x25},
		{Self, 0x1F},
	}
	for _, tt := range tests {
		if got := tt.rel.Compress(); got != tt.want {
			t.Errorf("%+v.Compress() = %#x, want %#x", tt.rel, got, tt.want)
		}
	}
}

func TestTechnitesRounds(t *testing.T) {
	g := testGrid(t, 4, 3)
	ts := NewTechnites()
	a, b := CellID{0, 1}, CellID{2, 1}

	ts.Reset()
	ta := ts.CreateOrUpdate(g, state(a, 10, ResultNothingToDo))
	ts.CreateOrUpdate(g, state(b, 10, ResultOperationWindowMissed))
	if got, ok := ts.Cleanup(); !ok || got != (RoundStats{Created: 2, WindowMissed: 1}) {
		t.Fatalf("round 1 = %+v", got)
	}
	if got, ok := ts.Cleanup(); ok || got != (RoundStats{}) {
		t.Fatalf("second cleanup = %+v, %v, want a closed round", got, ok)
	}
	if ts.Len() != 2 || ts.Find(a) != ta {
		t.Fatalf("round 1: len %d, find %v", ts.Len(), ts.Find(a))
	}

	// a is aging, b is gone
	ts.Reset()
	if got := ts.CreateOrUpdate(g, state(a, 9, ResultSuccess)); got != ta {
		t.Fatal("aging technite was recreated")
	}
	if got, ok := ts.Cleanup(); !ok || got != (RoundStats{Died: 1}) {
		t.Fatalf("round 2 = %+v", got)
	}
	if ts.Find(b) != nil || ts.Len() != 1 {
		t.Fatalf("round 2: dead technite still tracked, len %d", ts.Len())
	}
	if ta.LastResources.Energy != 10 || ta.Resources.Energy != 9 {
		t.Fatalf("resources = %+v, last %+v", ta.Resources, ta.LastResources)
	}

	// a higher ttl in the same cell is a new technite
	ts.Reset()
	tn := ts.CreateOrUpdate(g, state(a, 20, ResultNothingToDo))
	if tn == ta {
		t.Fatal("rejuvenated technite was reused")
	}
	if got, ok := ts.Cleanup(); !ok || got != (RoundStats{Created: 1, Died: 1}) {
		t.Fatalf("round 3 = %+v", got)
	}
	if ts.Find(a) != tn {
		t.Fatal("replacement lost from map")
	}

	ts.Flush()
	if ts.Len() != 0 || ts.Find(a) != nil {
		t.Fatal("flush kept technites")
	}
}

func TestTechniteTasks(t *testing.T) {
	g := testGrid(t, 4, 3)
	ts := NewTechnites()
	ts.Reset()
	tc := ts.CreateOrUpdate(g, state(CellID{1, 1}, 10, ResultNothingToDo))

	tests := []struct {
		name   string
		task   Task
		target RelativeCell
		param  uint8
		ok     bool
	}{
		{"Grow", TaskGrowTo, RelativeCell{NeighborIndex: 0, HeightDelta: 1}, 0, true},
		{"Transform", TaskSelfTransformToType, Self, uint8(ContentRock), true},
		{"TransformNoYield", TaskSelfTransformToType, Self, uint8(ContentLava), false},
		{"TransformOutOfRange", TaskSelfTransformToType, Self, 200, false},
		{"TransferWithoutAmount", TaskTransferEnergyTo, RelativeCell{NeighborIndex: 1}, 0, false},
		{"Transfer", TaskTransferMatterTo, RelativeCell{NeighborIndex: 1}, 3, true},
		{"MissingNeighbor", TaskGrowTo, RelativeCell{NeighborIndex: 7}, 0, false},
		{"Up", TaskGrowTo, RelativeCell{NeighborIndex: ThisStack, HeightDelta: 1}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tc.SetNextTask(g, tt.task, tt.target, tt.param)
			if tt.ok != (err == nil) {
				t.Fatalf("SetNextTask err = %v, want ok %v", err, tt.ok)
			}
			if err != nil && !errors.Is(err, ErrInvalidTask) {
				t.Fatalf("err = %v, want ErrInvalidTask", err)
			}
		})
	}

	t.Run("OutsideStack", func(t *testing.T) {
		top := ts.CreateOrUpdate(g, state(CellID{3, 2}, 10, ResultNothingToDo))
		if err := top.SetNextTask(g, TaskGrowTo, RelativeCell{NeighborIndex: ThisStack, HeightDelta: 1}, 0); err == nil {
			t.Fatal("target above the stack accepted")
		}
	})

	t.Run("Export", func(t *testing.T) {
		if err := tc.SetNextTask(g, TaskConsumeSurroundingCell, RelativeCell{NeighborIndex: 1, HeightDelta: -1}, 4); err != nil {
			t.Fatal(err)
		}
		want := TechniteInstruction{NextTask: uint8(TaskConsumeSurroundingCell), TaskTarget: 0x01, TaskParameter: 4}
		if got := tc.instruction(); got != want {
			t.Fatalf("instruction = %+v, want %+v", got, want)
		}
	})

	t.Run("ImportKeepsUnfinishedTask", func(t *testing.T) {
		if err := tc.SetNextTask(g, TaskGnawAtSurroundingCell, RelativeCell{NeighborIndex: 0}, 0); err != nil {
			t.Fatal(err)
		}
		tc.importState(state(tc.Location, 9, ResultMoreWorkNeeded))
		if task, _, _ := tc.NextTask(); task != TaskGnawAtSurroundingCell {
			t.Fatalf("task = %d after MoreWorkNeeded", task)
		}
		tc.importState(state(tc.Location, 8, ResultSuccess))
		if task, _, _ := tc.NextTask(); task != TaskNone {
			t.Fatalf("task = %d after Success", task)
		}
	})
}
