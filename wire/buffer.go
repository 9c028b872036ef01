package wire

import (
	"fmt"
	"math"
)

const defaultBufferSize = 256

// ByteBuffer is an append-only byte sink used to assemble outbound frames.
// Multi-byte integers are written little-endian.
type ByteBuffer struct {
	data []byte
}

// NewByteBuffer returns a buffer with the given initial capacity.
func NewByteBuffer(capacity int) *ByteBuffer {
	if capacity <= 0 {
		capacity = defaultBufferSize
	}

	return &ByteBuffer{
		data: make([]byte, 0, capacity),
	}
}

// Len returns the number of bytes written since the last Clear.
func (b *ByteBuffer) Len() int {
	return len(b.data)
}

// Cap returns the current capacity.
func (b *ByteBuffer) Cap() int {
	return cap(b.data)
}

// Bytes returns the written bytes. The slice is valid until the next write or Clear.
func (b *ByteBuffer) Bytes() []byte {
	return b.data
}

// Clear resets the length to zero and keeps the capacity.
func (b *ByteBuffer) Clear() {
	b.data = b.data[:0]
}

// require grows the backing array by doubling until n more bytes fit.
func (b *ByteBuffer) require(n int) {
	need := len(b.data) + n
	if need <= cap(b.data) {
		return
	}

	size := cap(b.data)
	if size <= 0 {
		size = 4
	}
	for size < need {
		size *= 2
	}

	data := make([]byte, len(b.data), size)
	copy(data, b.data)
	b.data = data
}

func (b *ByteBuffer) AppendU8(v uint8) {
	b.require(1)
	b.data = append(b.data, v)
}

func (b *ByteBuffer) AppendBool(v bool) {
	if v {
		b.AppendU8(1)
		return
	}
	b.AppendU8(0)
}

func (b *ByteBuffer) AppendU16(v uint16) {
	b.require(2)
	b.data = append(b.data, byte(v), byte(v>>8))
}

func (b *ByteBuffer) AppendU32(v uint32) {
	b.require(4)
	b.data = append(b.data, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (b *ByteBuffer) AppendU64(v uint64) {
	b.require(8)
	b.data = append(b.data,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

func (b *ByteBuffer) AppendF32(v float32) {
	b.AppendU32(math.Float32bits(v))
}

func (b *ByteBuffer) AppendF64(v float64) {
	b.AppendU64(math.Float64bits(v))
}

// Append copies p into the buffer.
func (b *ByteBuffer) Append(p []byte) {
	b.require(len(p))
	b.data = append(b.data, p...)
}

// WriteSize appends n as a VarSize.
func (b *ByteBuffer) WriteSize(n int) {
	b.require(SizeLen(n))
	b.data = AppendSize(b.data, n)
}

// SetU32 overwrites four already written bytes at address.
// Patching past the written length is a programming error and panics.
func (b *ByteBuffer) SetU32(address int, v uint32) {
	if address < 0 || address+4 > len(b.data) {
		panic(fmt.Sprintf("wire: SetU32 at %d outside written length %d", address, len(b.data)))
	}

	b.data[address] = byte(v)
	b.data[address+1] = byte(v >> 8)
	b.data[address+2] = byte(v >> 16)
	b.data[address+3] = byte(v >> 24)
}
