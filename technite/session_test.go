package technite

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/czx-lab/aquinas/network"
	"github.com/czx-lab/aquinas/network/tcp"
	"github.com/czx-lab/aquinas/wire"
)

type sent struct {
	channel network.ChannelID
	payload []byte
}

// recorder is a network.Session that keeps every frame it is asked to send.
type recorder struct {
	mu     sync.Mutex
	buf    *wire.ByteBuffer
	frames []sent
	auth   bool
	closed bool
}

var _ network.Session = (*recorder)(nil)

func newRecorder() *recorder {
	return &recorder{buf: wire.NewByteBuffer(256)}
}

func (r *recorder) Transfer(fill func(b *wire.ByteBuffer) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf.Clear()
	if err := fill(r.buf); err != nil {
		return err
	}
	data := r.buf.Bytes()
	for len(data) >= wire.HeaderSize {
		size := int(binary.LittleEndian.Uint32(data[4:]))
		r.frames = append(r.frames, sent{
			channel: network.ChannelID(binary.LittleEndian.Uint32(data)),
			payload: append([]byte(nil), data[wire.HeaderSize:wire.HeaderSize+size]...),
		})
		data = data[wire.HeaderSize+size:]
	}
	return nil
}

func (r *recorder) Authenticate()       { r.auth = true }
func (r *recorder) Authenticated() bool { return r.auth }
func (r *recorder) Close()              { r.closed = true }

func decode[T any](t *testing.T, codec *wire.Codec[T], f sent) T {
	t.Helper()
	v, err := codec.Decode(f.payload)
	if err != nil {
		t.Fatalf("decode channel %d: %v", f.channel, err)
	}
	return v
}

func TestProtocolString(t *testing.T) {
	if got := ProtocolString(); got != "Aquinas v1.0.12" {
		t.Fatalf("ProtocolString = %q", got)
	}
}

func TestSessionInstructTechnites(t *testing.T) {
	const count = MaxPerChunk + 1

	var rounds []RoundStats
	s := NewSession(LogicFunc(func(g *Grid, ts *Technites) {
		for i, tc := range ts.All() {
			if err := tc.SetNextTask(g, TaskScan, Self, 0); err != nil {
				t.Errorf("SetNextTask: %v", err)
			}
			if i%2 == 0 {
				tc.SetColor(uint8(i), 1, 2)
			}
		}
	}))
	s.OnRound = func(rs RoundStats) { rounds = append(rounds, rs) }

	rec := newRecorder()
	if err := s.Connected(rec); err != nil {
		t.Fatal(err)
	}
	if !rec.Authenticated() || len(rec.frames) != 1 || rec.frames[0].channel != ChannelReady {
		t.Fatalf("connect sent %+v, authenticated %v", rec.frames, rec.Authenticated())
	}
	if got := decode(t, TextCodec, rec.frames[0]); got != ProtocolString() {
		t.Fatalf("ready = %q", got)
	}
	rec.frames = nil

	s.onGridConfig(rec, GridConfig{HeightPerLayer: 1, NumLayersPerStack: 2, MatterYieldByContentType: make([]uint8, NumContentTypes)})
	states := make([]TechniteState, count)
	for i := range states {
		states[i] = state(CellID{Stack: uint32(i)}, 5, ResultNothingToDo)
	}
	s.onStateChunk(rec, TechniteStateChunk{Flags: IsFirst, States: states[:100]})
	s.onStateChunk(rec, TechniteStateChunk{Flags: IsLast, States: states[100:]})
	if len(rounds) != 1 || rounds[0].Created != count {
		t.Fatalf("rounds = %+v", rounds)
	}

	s.onInstructTechnites(rec)
	if len(rounds) != 1 {
		t.Fatalf("rounds = %+v, want the round reported once", rounds)
	}
	if len(rec.frames) != 3 {
		t.Fatalf("sent %d frames, want 3", len(rec.frames))
	}

	colors := decode(t, ColorChunkCodec, rec.frames[0])
	if rec.frames[0].channel != ChannelTechniteColorChunk || colors.Offset != 0 || len(colors.Colors) != (count+1)/2 {
		t.Fatalf("color chunk: offset %d, %d colors", colors.Offset, len(colors.Colors))
	}
	for j, c := range colors.Colors {
		if c.Index != uint32(2*j) || c.R != uint8(2*j) || c.G != 1 || c.B != 2 {
			t.Fatalf("color %d = %+v", j, c)
		}
	}

	offsets := []uint32{0, MaxPerChunk}
	lens := []int{MaxPerChunk, 1}
	for i, f := range rec.frames[1:] {
		chunk := decode(t, InstructionChunkCodec, f)
		if f.channel != ChannelTechniteInstructionChunk || chunk.Offset != offsets[i] || len(chunk.Instructions) != lens[i] {
			t.Fatalf("instruction chunk %d: offset %d, %d entries", i, chunk.Offset, len(chunk.Instructions))
		}
		want := TechniteInstruction{NextTask: uint8(TaskScan), TaskTarget: Self.Compress()}
		if chunk.Instructions[0] != want {
			t.Fatalf("instruction = %+v, want %+v", chunk.Instructions[0], want)
		}
	}

	rec.frames = nil
	if err := s.RequestNextRound(rec); err != nil {
		t.Fatal(err)
	}
	if len(rec.frames) != 1 || rec.frames[0].channel != ChannelRequestNextRound || len(rec.frames[0].payload) != 0 {
		t.Fatalf("request next round sent %+v", rec.frames)
	}
}

func TestSessionIdleWithoutTechnites(t *testing.T) {
	s := NewSession(nil)
	rec := newRecorder()
	s.onInstructTechnites(rec)
	if len(rec.frames) != 0 {
		t.Fatalf("sent %d frames for an empty round", len(rec.frames))
	}

	s.onError(rec, "bad client")
	if !rec.closed {
		t.Fatal("error message did not close the session")
	}
}

func readFrame(t *testing.T, r io.Reader) sent {
	t.Helper()
	var header [wire.HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		t.Fatalf("read header: %v", err)
	}
	f := sent{
		channel: network.ChannelID(binary.LittleEndian.Uint32(header[:])),
		payload: make([]byte, binary.LittleEndian.Uint32(header[4:])),
	}
	if _, err := io.ReadFull(r, f.payload); err != nil {
		t.Fatalf("read payload: %v", err)
	}
	return f
}

func writeFrame[T any](t *testing.T, w io.Writer, channel network.ChannelID, codec *wire.Codec[T], v T) {
	t.Helper()
	b := wire.NewByteBuffer(64)
	codec.EncodePacket(uint32(channel), v, b)
	if _, err := w.Write(b.Bytes()); err != nil {
		t.Fatalf("write channel %d: %v", channel, err)
	}
}

func TestSessionOverConn(t *testing.T) {
	s := NewSession(nil)
	r := network.NewRegistry()
	s.Register(r)
	r.Freeze()

	local, peer := net.Pipe()
	t.Cleanup(func() { peer.Close() })
	conn := tcp.NewConn(local, r, &tcp.ConnConf{Hooks: s.Hooks()})
	done := make(chan error, 1)
	go func() { done <- conn.Run() }()

	ready := readFrame(t, peer)
	if ready.channel != ChannelReady {
		t.Fatalf("first frame on channel %d", ready.channel)
	}
	if got := decode(t, TextCodec, ready); got != ProtocolString() {
		t.Fatalf("ready = %q", got)
	}

	writeFrame(t, peer, ChannelGridConfig, GridConfigCodec, GridConfig{
		HeightPerLayer:           1,
		NumLayersPerStack:        2,
		MatterYieldByContentType: make([]uint8, NumContentTypes),
	})
	writeFrame(t, peer, ChannelNodeChunk, NodeChunkCodec, NodeChunk{IsLast: true, Nodes: []GridNode{
		{Neighbors: []uint32{1}}, {Neighbors: []uint32{0}},
	}})
	writeFrame(t, peer, ChannelGridDelta, GridDeltaCodec, GridDelta{
		NodeCount:     2,
		ContentBlocks: []GridDeltaBlock{{Repetition: 2, Value: uint8(ContentTechnite)}, {Repetition: 2, Value: uint8(ContentClear)}},
	})
	writeFrame(t, peer, ChannelTechniteStateChunk, StateChunkCodec, TechniteStateChunk{
		Flags:  IsFirst | IsLast,
		States: []TechniteState{state(CellID{0, 0}, 3, ResultNothingToDo), state(CellID{1, 0}, 3, ResultNothingToDo)},
	})
	if _, err := peer.Write([]byte{byte(ChannelInstructTechnites), 0, 0, 0, 0, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}

	f := readFrame(t, peer)
	chunk := decode(t, InstructionChunkCodec, f)
	if f.channel != ChannelTechniteInstructionChunk || len(chunk.Instructions) != 2 {
		t.Fatalf("response on channel %d with %d instructions", f.channel, len(chunk.Instructions))
	}
	s.Inspect(func(g *Grid, ts *Technites) {
		if ts.Len() != 2 || g.Cell(CellID{1, 0}).Content != ContentTechnite {
			t.Errorf("state: %d technites, cell %s", ts.Len(), g.Cell(CellID{1, 0}).Content)
		}
	})

	writeFrame(t, peer, ChannelError, TextCodec, "shutting down")
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("connection did not close after an error message")
	}
	s.Inspect(func(g *Grid, ts *Technites) {
		if ts.Len() != 0 || g.Ready() {
			t.Error("session state survived the connection")
		}
	})
}

func TestSessionReportsRoundOnce(t *testing.T) {
	tests := []struct {
		name  string
		flags ChunkFlags
	}{
		{"ClosedByLastChunk", IsFirst | IsLast},
		{"ClosedByInstruct", IsFirst},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rounds []RoundStats
			s := NewSession(nil)
			s.OnRound = func(rs RoundStats) { rounds = append(rounds, rs) }
			rec := newRecorder()

			s.onStateChunk(rec, TechniteStateChunk{Flags: tt.flags, States: []TechniteState{state(CellID{0, 0}, 3, ResultNothingToDo)}})
			s.onInstructTechnites(rec)
			s.onInstructTechnites(rec)

			if len(rounds) != 1 || rounds[0] != (RoundStats{Created: 1}) {
				t.Fatalf("rounds = %+v, want one round with one created technite", rounds)
			}
		})
	}
}
