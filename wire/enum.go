package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
)

// Integer is the set of underlying types an enum may use.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32
}

type enumSchema[E Integer] struct {
	name   string
	values []E
	width  int
}

// Enum returns the schema of an enum with the given declared values.
// Its width is the smallest of 1, 2 or 4 bytes that holds every value as a signed integer.
func Enum[E Integer](name string, values ...E) Schema[E] {
	return &enumSchema[E]{
		name:   name,
		values: values,
		width:  enumWidth(values),
	}
}

func enumWidth[E Integer](values []E) int {
	width := 1
	for _, v := range values {
		n := int64(v)
		switch {
		case n > math.MaxInt16 || n < math.MinInt16:
			return 4
		case n > math.MaxInt8 || n < math.MinInt8:
			width = 2
		}
	}
	return width
}

func (e *enumSchema[E]) shape() *shape {
	return &shape{kind: KindEnum, name: e.name, width: e.width}
}

func (e *enumSchema[E]) compile(bool) item[E] {
	return e
}

func (e *enumSchema[E]) decode(data []byte, offset *int, limit int) (E, error) {
	if remaining := limit - *offset; remaining < e.width {
		return 0, underrun(e.name, e.width, remaining)
	}

	p := data[*offset:]
	*offset += e.width
	switch e.width {
	case 1:
		return E(int8(p[0])), nil
	case 2:
		return E(int16(binary.LittleEndian.Uint16(p))), nil
	}
	return E(int32(binary.LittleEndian.Uint32(p))), nil
}

func (e *enumSchema[E]) encode(v E, b *ByteBuffer) {
	switch e.width {
	case 1:
		b.AppendU8(uint8(v))
	case 2:
		b.AppendU16(uint16(v))
	default:
		b.AppendU32(uint32(v))
	}
}

func (e *enumSchema[E]) random(r *rand.Rand) E {
	if len(e.values) == 0 {
		return 0
	}
	return e.values[r.IntN(len(e.values))]
}

func (e *enumSchema[E]) describe() string {
	return fmt.Sprintf("%s(enum%d)", e.name, e.width*8)
}
