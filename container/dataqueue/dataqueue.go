package dataqueue

import (
	"encoding/binary"
	"fmt"
)

const (
	// defaultCapacity is the initial capacity of the queue
	defaultCapacity = 4096
	// HeaderSize is the number of bytes read by PeekHeader and GetHeader.
	HeaderSize = 8
)

// DataQueue accumulates bytes received from a stream until whole frames can be popped.
// Reads past Len panic: callers check Len first.
// A DataQueue is owned by a single reader and is not safe for concurrent use.
type DataQueue struct {
	buf  []byte
	init int
	r    int // read index
	n    int // buffered bytes
}

func New(capacity int) *DataQueue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	return &DataQueue{
		buf:  make([]byte, capacity),
		init: capacity,
	}
}

// Len returns the number of buffered unread bytes.
func (q *DataQueue) Len() int {
	return q.n
}

// Cap returns the current capacity of the queue.
func (q *DataQueue) Cap() int {
	return len(q.buf)
}

// Append copies data to the end of the queue, growing it when full.
func (q *DataQueue) Append(data []byte) {
	if q.n+len(data) > len(q.buf) {
		q.grow(q.n + len(data))
	}

	w := (q.r + q.n) % len(q.buf)
	c := copy(q.buf[w:], data)
	copy(q.buf, data[c:])
	q.n += len(data)
}

// grow reallocates the queue to hold at least need bytes and moves the unread bytes to the front.
func (q *DataQueue) grow(need int) {
	size := len(q.buf)
	for size < need {
		if size < 1<<20 {
			size *= 2
		} else {
			size += size / 4
		}
	}

	buf := make([]byte, size)
	q.peek(buf[:q.n])
	q.buf = buf
	q.r = 0
}

func (q *DataQueue) require(n int) {
	if n < 0 || n > q.n {
		panic(fmt.Sprintf("dataqueue: read of %d bytes with %d buffered", n, q.n))
	}
}

// peek copies len(out) bytes from the read index without consuming them.
func (q *DataQueue) peek(out []byte) {
	c := copy(out, q.buf[q.r:min(q.r+len(out), len(q.buf))])
	copy(out[c:], q.buf)
}

// Skip discards n bytes.
func (q *DataQueue) Skip(n int) {
	q.require(n)

	q.r = (q.r + n) % len(q.buf)
	q.n -= n
	if q.n == 0 {
		q.r = 0
	}
}

// PeekData copies the next len(out) bytes without consuming them.
func (q *DataQueue) PeekData(out []byte) {
	q.require(len(out))
	q.peek(out)
}

// PopData copies and consumes the next len(out) bytes.
func (q *DataQueue) PopData(out []byte) {
	q.PeekData(out)
	q.Skip(len(out))
}

// PeekUint32 returns the next little-endian u32 without consuming it.
func (q *DataQueue) PeekUint32() uint32 {
	var b [4]byte
	q.PeekData(b[:])
	return binary.LittleEndian.Uint32(b[:])
}

// PopUint32 consumes the next little-endian u32.
func (q *DataQueue) PopUint32() uint32 {
	v := q.PeekUint32()
	q.Skip(4)
	return v
}

// PeekHeader returns the next frame header without consuming it.
func (q *DataQueue) PeekHeader() (channel, size uint32) {
	var b [HeaderSize]byte
	q.PeekData(b[:])
	return binary.LittleEndian.Uint32(b[:4]), binary.LittleEndian.Uint32(b[4:])
}

// GetHeader consumes the next frame header.
func (q *DataQueue) GetHeader() (channel, size uint32) {
	channel, size = q.PeekHeader()
	q.Skip(HeaderSize)
	return
}

// Reset drops all buffered bytes and restores the initial capacity.
func (q *DataQueue) Reset() {
	q.r = 0
	q.n = 0
	if len(q.buf) != q.init {
		q.buf = make([]byte, q.init)
	}
}
