package wire

import (
	"fmt"
	"math/rand/v2"
)

// HeaderSize is the size of a frame header: channel id and payload size, both u32 little-endian.
const HeaderSize = 8

// Codec is a compiled schema. It is immutable and safe for concurrent use.
type Codec[T any] struct {
	item  item[T]
	shape *shape
}

// Compile builds the serialization plan for s once.
// The top-level value may derive its length from the payload size.
func Compile[T any](s Schema[T]) (*Codec[T], error) {
	sh := s.shape()
	if err := sh.validate(); err != nil {
		return nil, err
	}

	return &Codec[T]{
		item:  s.compile(true),
		shape: sh,
	}, nil
}

// MustCompile is like Compile but panics if the schema is invalid.
func MustCompile[T any](s Schema[T]) *Codec[T] {
	c, err := Compile(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Decode reads one value that must span the whole payload.
func (c *Codec[T]) Decode(payload []byte) (T, error) {
	offset := 0
	v, err := c.item.decode(payload, &offset, len(payload))
	if err != nil {
		return v, fmt.Errorf("decode %s: %w", c.shape, err)
	}
	if offset != len(payload) {
		return v, fmt.Errorf("decode %s: %w: consumed %d of %d bytes", c.shape, ErrTrailingBytes, offset, len(payload))
	}
	return v, nil
}

// Encode appends the encoding of v to b.
func (c *Codec[T]) Encode(v T, b *ByteBuffer) {
	c.item.encode(v, b)
}

// EncodePacket clears b and writes a complete frame for v on channel.
func (c *Codec[T]) EncodePacket(channel uint32, v T, b *ByteBuffer) {
	b.Clear()
	b.AppendU32(channel)
	b.AppendU32(0)
	c.item.encode(v, b)
	b.SetU32(4, uint32(b.Len()-HeaderSize))
}

// Random returns a generated value of T.
func (c *Codec[T]) Random(r *rand.Rand) T {
	return c.item.random(r)
}

// HasConstantSize reports whether every value of T encodes to ConstantSize bytes.
func (c *Codec[T]) HasConstantSize() bool {
	return c.shape.hasConstantSize()
}

// ConstantSize returns the encoded width of T, or -1 if it varies.
func (c *Codec[T]) ConstantSize() int {
	return c.shape.constantSize()
}

// Describe returns the compiled plan, marking the derived field and its offset from the end.
func (c *Codec[T]) Describe() string {
	return c.item.describe()
}

func (c *Codec[T]) String() string {
	return c.shape.String()
}

// DecodeFrom reads one value from data[*offset:limit] and advances offset.
// Unlike Decode it leaves any bytes after the value to the caller.
func (c *Codec[T]) DecodeFrom(data []byte, offset *int, limit int) (T, error) {
	return c.item.decode(data, offset, limit)
}
