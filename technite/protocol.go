package technite

import (
	"github.com/czx-lab/aquinas/network"
	"github.com/czx-lab/aquinas/wire"
)

// Channels of the Aquinas protocol. The order is part of the protocol version.
const (
	ChannelUnused network.ChannelID = iota
	// c2s: protocol string
	ChannelReady
	// s2c: error message
	ChannelError
	// s2c: TechniteStateChunk
	ChannelTechniteStateChunk
	// s2c: signal
	ChannelInstructTechnites
	// c2s: TechniteInstructionChunk
	ChannelTechniteInstructionChunk
	// s2c: NodeChunk, complete before the first GridDelta
	ChannelNodeChunk
	// s2c: GridConfig
	ChannelGridConfig
	// s2c: GridDelta
	ChannelGridDelta
	// s2c: WorldInfo
	ChannelWorldInfo
	// c2s: signal
	ChannelRequestNextRound
	// c2s: TechniteColorChunk
	ChannelTechniteColorChunk

	ChannelCount
)

const (
	protocolName  = "Aquinas"
	protocolMajor = 1
	protocolMinor = 0

	// MaxPerChunk bounds the entries of one instruction or color chunk.
	MaxPerChunk = 10000
)

// ProtocolString is sent on ChannelReady.
func ProtocolString() string {
	return network.ProtocolString(protocolName, protocolMajor, protocolMinor, ChannelCount)
}

type ChunkFlags uint8

const (
	IsFirst ChunkFlags = 1 << iota
	IsLast
)

type (
	TechniteResources struct {
		Energy, Matter uint8
	}

	WorldInfo struct {
		CoreContent uint8
	}

	TechniteState struct {
		Location   uint32
		Resources  TechniteResources
		TaskResult uint8
		State      uint8
	}

	Color struct {
		Index   uint32
		R, G, B uint8
	}

	TechniteColorChunk struct {
		Offset uint32
		Colors []Color
	}

	TechniteStateChunk struct {
		Flags  ChunkFlags
		States []TechniteState
	}

	TechniteInstruction struct {
		NextTask      uint8
		TaskTarget    uint8
		TaskParameter uint8
	}

	TechniteInstructionChunk struct {
		Offset       uint32
		Instructions []TechniteInstruction
	}

	GridDeltaBlock struct {
		Repetition uint32
		Value      uint8
	}

	GridDelta struct {
		NodeOffset            uint32
		NodeCount             uint32
		ContentBlocks         []GridDeltaBlock
		StructureCountBlocks  []GridDeltaBlock
		TechniteFactionBlocks []GridDeltaBlock
	}

	Vec3 struct {
		X, Y, Z float32
	}

	GridNode struct {
		Neighbors      []uint32
		StackBase      Vec3
		StackDirection Vec3
	}

	GridConfig struct {
		HeightPerLayer           float32
		NumLayersPerStack        int32
		MatterYieldByContentType []uint8
	}

	NodeChunk struct {
		IsLast bool
		Nodes  []GridNode
	}
)

// Has reports whether every bit of f is set.
func (c ChunkFlags) Has(f ChunkFlags) bool {
	return c&f == f
}

var (
	resourcesSchema = wire.Record("TechniteResources",
		wire.Field("energy", wire.Uint8(), func(r *TechniteResources) *uint8 { return &r.Energy }),
		wire.Field("matter", wire.Uint8(), func(r *TechniteResources) *uint8 { return &r.Matter }),
	)

	stateSchema = wire.Record("TechniteState",
		wire.Field("location", wire.Uint32(), func(s *TechniteState) *uint32 { return &s.Location }),
		wire.Field("resources", resourcesSchema, func(s *TechniteState) *TechniteResources { return &s.Resources }),
		wire.Field("taskResult", wire.Uint8(), func(s *TechniteState) *uint8 { return &s.TaskResult }),
		wire.Field("state", wire.Uint8(), func(s *TechniteState) *uint8 { return &s.State }),
	)

	colorSchema = wire.Record("Color",
		wire.Field("index", wire.Uint32(), func(c *Color) *uint32 { return &c.Index }),
		wire.Field("r", wire.Uint8(), func(c *Color) *uint8 { return &c.R }),
		wire.Field("g", wire.Uint8(), func(c *Color) *uint8 { return &c.G }),
		wire.Field("b", wire.Uint8(), func(c *Color) *uint8 { return &c.B }),
	)

	instructionSchema = wire.Record("TechniteInstruction",
		wire.Field("nextTask", wire.Uint8(), func(i *TechniteInstruction) *uint8 { return &i.NextTask }),
		wire.Field("taskTarget", wire.Uint8(), func(i *TechniteInstruction) *uint8 { return &i.TaskTarget }),
		wire.Field("taskParameter", wire.Uint8(), func(i *TechniteInstruction) *uint8 { return &i.TaskParameter }),
	)

	deltaBlockSchema = wire.Record("GridDeltaBlock",
		wire.Field("repetition", wire.Uint32(), func(b *GridDeltaBlock) *uint32 { return &b.Repetition }),
		wire.Field("value", wire.Uint8(), func(b *GridDeltaBlock) *uint8 { return &b.Value }),
	)

	vec3Schema = wire.Record("Vec3",
		wire.Field("x", wire.Float32(), func(v *Vec3) *float32 { return &v.X }),
		wire.Field("y", wire.Float32(), func(v *Vec3) *float32 { return &v.Y }),
		wire.Field("z", wire.Float32(), func(v *Vec3) *float32 { return &v.Z }),
	)

	gridNodeSchema = wire.Record("GridNode",
		wire.Field("neighbors", wire.Array(wire.Uint32()), func(n *GridNode) *[]uint32 { return &n.Neighbors }),
		wire.Field("stackBase", vec3Schema, func(n *GridNode) *Vec3 { return &n.StackBase }),
		wire.Field("stackDirection", vec3Schema, func(n *GridNode) *Vec3 { return &n.StackDirection }),
	)
)

// Compiled codecs, one per channel payload.
var (
	TextCodec = wire.MustCompile(wire.String())

	WorldInfoCodec = wire.MustCompile(wire.Record("WorldInfo",
		wire.Field("coreContent", wire.Uint8(), func(w *WorldInfo) *uint8 { return &w.CoreContent }),
	))

	StateChunkCodec = wire.MustCompile(wire.Record("TechniteStateChunk",
		wire.Field("flags", wire.Enum("TechniteChunkFlags", IsFirst, IsLast), func(c *TechniteStateChunk) *ChunkFlags { return &c.Flags }),
		wire.Field("states", wire.Array(stateSchema), func(c *TechniteStateChunk) *[]TechniteState { return &c.States }),
	))

	ColorChunkCodec = wire.MustCompile(wire.Record("TechniteColorChunk",
		wire.Field("offset", wire.Uint32(), func(c *TechniteColorChunk) *uint32 { return &c.Offset }),
		wire.Field("colors", wire.Array(colorSchema), func(c *TechniteColorChunk) *[]Color { return &c.Colors }),
	))

	InstructionChunkCodec = wire.MustCompile(wire.Record("TechniteInstructionChunk",
		wire.Field("offset", wire.Uint32(), func(c *TechniteInstructionChunk) *uint32 { return &c.Offset }),
		wire.Field("instructions", wire.Array(instructionSchema), func(c *TechniteInstructionChunk) *[]TechniteInstruction { return &c.Instructions }),
	))

	GridDeltaCodec = wire.MustCompile(wire.Record("GridDelta",
		wire.Field("nodeOffset", wire.Uint32(), func(d *GridDelta) *uint32 { return &d.NodeOffset }),
		wire.Field("nodeCount", wire.Uint32(), func(d *GridDelta) *uint32 { return &d.NodeCount }),
		wire.Field("contentBlocks", wire.Array(deltaBlockSchema), func(d *GridDelta) *[]GridDeltaBlock { return &d.ContentBlocks }),
		wire.Field("structureCountBlocks", wire.Array(deltaBlockSchema), func(d *GridDelta) *[]GridDeltaBlock { return &d.StructureCountBlocks }),
		wire.Field("techniteFactionBlocks", wire.Array(deltaBlockSchema), func(d *GridDelta) *[]GridDeltaBlock { return &d.TechniteFactionBlocks }),
	))

	GridConfigCodec = wire.MustCompile(wire.Record("GridConfig",
		wire.Field("heightPerLayer", wire.Float32(), func(c *GridConfig) *float32 { return &c.HeightPerLayer }),
		wire.Field("numLayersPerStack", wire.Int32(), func(c *GridConfig) *int32 { return &c.NumLayersPerStack }),
		wire.Field("matterYieldByContentType", wire.Array(wire.Uint8()), func(c *GridConfig) *[]uint8 { return &c.MatterYieldByContentType }),
	))

	NodeChunkCodec = wire.MustCompile(wire.Record("NodeChunk",
		wire.Field("isLast", wire.Bool(), func(c *NodeChunk) *bool { return &c.IsLast }),
		wire.Field("nodes", wire.Array(gridNodeSchema), func(c *NodeChunk) *[]GridNode { return &c.Nodes }),
	))
)

// Outbound channels.
var (
	ReadyChannel            = network.NewOutChannel(ChannelReady, TextCodec)
	InstructionChunkChannel = network.NewOutChannel(ChannelTechniteInstructionChunk, InstructionChunkCodec)
	ColorChunkChannel       = network.NewOutChannel(ChannelTechniteColorChunk, ColorChunkCodec)
	RequestNextRoundChannel = network.SignalChannel{ID: ChannelRequestNextRound}
)
