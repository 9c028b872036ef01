package technite

import (
	"sync"

	"github.com/czx-lab/aquinas/network"
	"github.com/czx-lab/aquinas/network/tcp"
	"github.com/czx-lab/aquinas/xlog"
	"go.uber.org/zap"
)

// Session holds the game state of one server session and answers its channels.
type Session struct {
	sync.Mutex

	grid      *Grid
	technites *Technites
	logic     Logic
	// OnRound receives the statistics of every completed round
	OnRound func(RoundStats)
}

func NewSession(logic Logic) *Session {
	if logic == nil {
		logic = Idle{}
	}
	return &Session{
		grid:      NewGrid(),
		technites: NewTechnites(),
		logic:     logic,
	}
}

// Register installs a handler for every inbound channel. Only Error is accepted before Ready was sent.
func (s *Session) Register(r *network.Registry) {
	network.Register(r, ChannelError, TextCodec, s.onError, false)
	network.Register(r, ChannelTechniteStateChunk, StateChunkCodec, s.onStateChunk, true)
	r.RegisterSignal(ChannelInstructTechnites, s.onInstructTechnites, true)
	network.Register(r, ChannelNodeChunk, NodeChunkCodec, s.onNodeChunk, true)
	network.Register(r, ChannelGridConfig, GridConfigCodec, s.onGridConfig, true)
	network.Register(r, ChannelGridDelta, GridDeltaCodec, s.onGridDelta, true)
	network.Register(r, ChannelWorldInfo, WorldInfoCodec, s.onWorldInfo, true)
}

// Hooks connects the session to a connection's lifecycle.
func (s *Session) Hooks() tcp.Hooks {
	return tcp.Hooks{
		OnConnected: func(c *tcp.Conn) {
			if err := s.Connected(c); err != nil {
				xlog.Log(xlog.ClientFatal, "session: send ready", zap.Error(err))
				c.Close()
			}
		},
		OnClose: func(*tcp.Conn) {
			s.Flush()
		},
	}
}

// Connected announces the protocol version and authenticates the connection.
func (s *Session) Connected(ns network.Session) error {
	if err := ReadyChannel.Send(ns, ProtocolString()); err != nil {
		return err
	}
	ns.Authenticate()
	return nil
}

// Flush drops the grid and technites of the ended session.
func (s *Session) Flush() {
	s.Lock()
	defer s.Unlock()

	s.grid.Flush()
	s.technites.Flush()
}

// RequestNextRound asks the server to start the next round early.
func (s *Session) RequestNextRound(ns network.Session) error {
	return RequestNextRoundChannel.Send(ns)
}

// Inspect runs fn with exclusive access to the session state.
func (s *Session) Inspect(fn func(g *Grid, ts *Technites)) {
	s.Lock()
	defer s.Unlock()

	fn(s.grid, s.technites)
}

func (s *Session) onError(ns network.Session, msg string) {
	xlog.Log(xlog.ProgramFatal, "server error", zap.String("message", msg))
	ns.Close()
}

func (s *Session) onStateChunk(_ network.Session, c TechniteStateChunk) {
	s.Lock()
	defer s.Unlock()

	xlog.Log(xlog.Common, "session: technite state chunk", zap.Int("technites", len(c.States)))
	if c.Flags.Has(IsFirst) {
		s.technites.Reset()
	}
	for _, st := range c.States {
		s.technites.CreateOrUpdate(s.grid, st)
	}
	if c.Flags.Has(IsLast) {
		s.endRound()
	}
}

func (s *Session) endRound() {
	stats, ok := s.technites.Cleanup()
	if ok && s.OnRound != nil {
		s.OnRound(stats)
	}
}

func (s *Session) onInstructTechnites(ns network.Session) {
	s.Lock()
	defer s.Unlock()

	s.endRound()
	s.logic.ProcessTechnites(s.grid, s.technites)

	if err := s.sendColors(ns); err != nil {
		xlog.Log(xlog.ClientFatal, "session: send colors", zap.Error(err))
		return
	}
	if err := s.sendInstructions(ns); err != nil {
		xlog.Log(xlog.ClientFatal, "session: send instructions", zap.Error(err))
	}
}

func (s *Session) sendColors(ns network.Session) error {
	var colors []Color
	for i, t := range s.technites.All() {
		if t.color != nil {
			c := *t.color
			c.Index = uint32(i)
			colors = append(colors, c)
		}
	}
	if len(colors) == 0 {
		return nil
	}

	xlog.Log(xlog.Common, "session: sending color chunks", zap.Int("chunks", chunkCount(len(colors))))
	for offset := 0; offset < len(colors); offset += MaxPerChunk {
		end := min(offset+MaxPerChunk, len(colors))
		chunk := TechniteColorChunk{Offset: uint32(offset), Colors: colors[offset:end]}
		if err := ColorChunkChannel.Send(ns, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) sendInstructions(ns network.Session) error {
	all := s.technites.All()
	xlog.Log(xlog.Common, "session: sending instruction chunks", zap.Int("chunks", chunkCount(len(all))))

	for offset := 0; offset < len(all); offset += MaxPerChunk {
		end := min(offset+MaxPerChunk, len(all))
		chunk := TechniteInstructionChunk{
			Offset:       uint32(offset),
			Instructions: make([]TechniteInstruction, 0, end-offset),
		}
		for _, t := range all[offset:end] {
			chunk.Instructions = append(chunk.Instructions, t.instruction())
		}
		if err := InstructionChunkChannel.Send(ns, chunk); err != nil {
			return err
		}
	}
	return nil
}

func chunkCount(n int) int {
	return (n + MaxPerChunk - 1) / MaxPerChunk
}

func (s *Session) onNodeChunk(_ network.Session, c NodeChunk) {
	s.Lock()
	defer s.Unlock()

	s.grid.AddNodes(c)
}

func (s *Session) onGridConfig(_ network.Session, c GridConfig) {
	s.Lock()
	defer s.Unlock()

	s.grid.Configure(c)
}

func (s *Session) onGridDelta(_ network.Session, d GridDelta) {
	s.Lock()
	defer s.Unlock()

	if err := s.grid.ApplyDelta(d); err != nil {
		xlog.Log(xlog.Unusual, "session: drop grid delta", zap.Error(err))
	}
}

func (s *Session) onWorldInfo(_ network.Session, w WorldInfo) {
	s.Lock()
	defer s.Unlock()

	s.grid.SetupWorld(w)
}
