package wire

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
)

// scalar handles every fixed-width primitive. It is its own compiled item.
type scalar[T any] struct {
	kind  Kind
	width int
	get   func(p []byte) T
	put   func(b *ByteBuffer, v T)
	rnd   func(r *rand.Rand) T
}

func (s *scalar[T]) shape() *shape {
	return &shape{kind: s.kind, width: s.width}
}

func (s *scalar[T]) compile(bool) item[T] {
	return s
}

func (s *scalar[T]) decode(data []byte, offset *int, limit int) (T, error) {
	if remaining := limit - *offset; remaining < s.width {
		var zero T
		return zero, underrun(s.kind.String(), s.width, remaining)
	}

	v := s.get(data[*offset:])
	*offset += s.width
	return v, nil
}

func (s *scalar[T]) encode(v T, b *ByteBuffer) {
	s.put(b, v)
}

func (s *scalar[T]) random(r *rand.Rand) T {
	return s.rnd(r)
}

func (s *scalar[T]) describe() string {
	return s.kind.String()
}

var (
	uint8Schema = &scalar[uint8]{
		kind: KindUint8, width: 1,
		get: func(p []byte) uint8 { return p[0] },
		put: (*ByteBuffer).AppendU8,
		rnd: func(r *rand.Rand) uint8 { return uint8(r.Uint32()) },
	}
	int8Schema = &scalar[int8]{
		kind: KindInt8, width: 1,
		get: func(p []byte) int8 { return int8(p[0]) },
		put: func(b *ByteBuffer, v int8) { b.AppendU8(uint8(v)) },
		rnd: func(r *rand.Rand) int8 { return int8(r.Uint32()) },
	}
	boolSchema = &scalar[bool]{
		kind: KindBool, width: 1,
		get: func(p []byte) bool { return p[0] != 0 },
		put: (*ByteBuffer).AppendBool,
		rnd: func(r *rand.Rand) bool { return r.IntN(2) == 1 },
	}
	uint16Schema = &scalar[uint16]{
		kind: KindUint16, width: 2,
		get: binary.LittleEndian.Uint16,
		put: (*ByteBuffer).AppendU16,
		rnd: func(r *rand.Rand) uint16 { return uint16(r.Uint32()) },
	}
	int16Schema = &scalar[int16]{
		kind: KindInt16, width: 2,
		get: func(p []byte) int16 { return int16(binary.LittleEndian.Uint16(p)) },
		put: func(b *ByteBuffer, v int16) { b.AppendU16(uint16(v)) },
		rnd: func(r *rand.Rand) int16 { return int16(r.Uint32()) },
	}
	uint32Schema = &scalar[uint32]{
		kind: KindUint32, width: 4,
		get: binary.LittleEndian.Uint32,
		put: (*ByteBuffer).AppendU32,
		rnd: func(r *rand.Rand) uint32 { return r.Uint32() },
	}
	int32Schema = &scalar[int32]{
		kind: KindInt32, width: 4,
		get: func(p []byte) int32 { return int32(binary.LittleEndian.Uint32(p)) },
		put: func(b *ByteBuffer, v int32) { b.AppendU32(uint32(v)) },
		rnd: func(r *rand.Rand) int32 { return int32(r.Uint32()) },
	}
	uint64Schema = &scalar[uint64]{
		kind: KindUint64, width: 8,
		get: binary.LittleEndian.Uint64,
		put: (*ByteBuffer).AppendU64,
		rnd: func(r *rand.Rand) uint64 { return r.Uint64() },
	}
	int64Schema = &scalar[int64]{
		kind: KindInt64, width: 8,
		get: func(p []byte) int64 { return int64(binary.LittleEndian.Uint64(p)) },
		put: func(b *ByteBuffer, v int64) { b.AppendU64(uint64(v)) },
		rnd: func(r *rand.Rand) int64 { return int64(r.Uint64()) },
	}
	// Random floats stay finite so generated values compare equal after a round trip.
	float32Schema = &scalar[float32]{
		kind: KindFloat32, width: 4,
		get: func(p []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(p)) },
		put: (*ByteBuffer).AppendF32,
		rnd: func(r *rand.Rand) float32 { return float32(r.NormFloat64() * 1e3) },
	}
	float64Schema = &scalar[float64]{
		kind: KindFloat64, width: 8,
		get: func(p []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(p)) },
		put: (*ByteBuffer).AppendF64,
		rnd: func(r *rand.Rand) float64 { return r.NormFloat64() * 1e6 },
	}
)

func Uint8() Schema[uint8]     { return uint8Schema }
func Int8() Schema[int8]       { return int8Schema }
func Bool() Schema[bool]       { return boolSchema }
func Uint16() Schema[uint16]   { return uint16Schema }
func Int16() Schema[int16]     { return int16Schema }
func Uint32() Schema[uint32]   { return uint32Schema }
func Int32() Schema[int32]     { return int32Schema }
func Uint64() Schema[uint64]   { return uint64Schema }
func Int64() Schema[int64]     { return int64Schema }
func Float32() Schema[float32] { return float32Schema }
func Float64() Schema[float64] { return float64Schema }
