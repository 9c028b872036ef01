package network

import "github.com/czx-lab/aquinas/wire"

type (
	// OutChannel sends values of T on one channel.
	OutChannel[T any] struct {
		ID    ChannelID
		Codec *wire.Codec[T]
	}

	// SignalChannel sends payload-free frames on one channel.
	SignalChannel struct {
		ID ChannelID
	}
)

func NewOutChannel[T any](id ChannelID, codec *wire.Codec[T]) OutChannel[T] {
	return OutChannel[T]{ID: id, Codec: codec}
}

// Send writes one framed packet carrying v.
func (c OutChannel[T]) Send(s Sender, v T) error {
	return s.Transfer(func(b *wire.ByteBuffer) error {
		c.Codec.EncodePacket(uint32(c.ID), v, b)
		return nil
	})
}

// Send writes one frame with an empty payload.
func (c SignalChannel) Send(s Sender) error {
	return s.Transfer(func(b *wire.ByteBuffer) error {
		b.AppendU32(uint32(c.ID))
		b.AppendU32(0)
		return nil
	})
}
