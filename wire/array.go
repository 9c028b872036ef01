package wire

import (
	"fmt"
	"math/rand/v2"
)

type arraySchema[E any] struct {
	elem Schema[E]
}

// Array returns the schema of a variable-length array of elem.
func Array[E any](elem Schema[E]) Schema[[]E] {
	return &arraySchema[E]{elem: elem}
}

func (a *arraySchema[E]) shape() *shape {
	return &shape{kind: KindArray, elem: a.elem.shape()}
}

func (a *arraySchema[E]) compile(derived bool) item[[]E] {
	es := a.elem.shape()
	// elements never derive their own length
	elem := a.elem.compile(false)
	if derived && es.hasConstantSize() {
		return &derivedArray[E]{elem: elem, width: es.constantSize()}
	}

	// every element takes at least one byte, which bounds the count before allocating
	width := 1
	if es.hasConstantSize() {
		width = es.constantSize()
	}
	return &embeddedArray[E]{elem: elem, minWidth: width}
}

// embeddedArray writes a VarSize element count before the elements.
type embeddedArray[E any] struct {
	elem     item[E]
	minWidth int
}

func (a *embeddedArray[E]) decode(data []byte, offset *int, limit int) ([]E, error) {
	n, err := ReadSize(data, offset, limit)
	if err != nil {
		return nil, err
	}
	if remaining := limit - *offset; n > remaining/a.minWidth {
		return nil, underrun(a.describe(), n*a.minWidth, remaining)
	}

	out := make([]E, n)
	for i := range out {
		if out[i], err = a.elem.decode(data, offset, limit); err != nil {
			return nil, fmt.Errorf("[%d/%d]: %w", i, n, err)
		}
	}
	return out, nil
}

func (a *embeddedArray[E]) encode(v []E, b *ByteBuffer) {
	b.WriteSize(len(v))
	for i := range v {
		a.elem.encode(v[i], b)
	}
}

func (a *embeddedArray[E]) random(r *rand.Rand) []E {
	return randomArray(a.elem, r)
}

func (a *embeddedArray[E]) describe() string {
	return "[]" + a.elem.describe()
}

// derivedArray has no count prefix: it consumes constant-size elements up to the limit.
type derivedArray[E any] struct {
	elem  item[E]
	width int
}

func (a *derivedArray[E]) decode(data []byte, offset *int, limit int) ([]E, error) {
	available := limit - *offset
	if available < 0 {
		return nil, underrun(a.describe(), 0, available)
	}

	n := available / a.width
	out := make([]E, n)
	var err error
	for i := range out {
		if out[i], err = a.elem.decode(data, offset, limit); err != nil {
			return nil, fmt.Errorf("[%d/%d]: %w", i, n, err)
		}
	}
	return out, nil
}

func (a *derivedArray[E]) encode(v []E, b *ByteBuffer) {
	for i := range v {
		a.elem.encode(v[i], b)
	}
}

func (a *derivedArray[E]) random(r *rand.Rand) []E {
	return randomArray(a.elem, r)
}

func (a *derivedArray[E]) describe() string {
	return "[]" + a.elem.describe() + "(derived)"
}

func randomArray[E any](elem item[E], r *rand.Rand) []E {
	out := make([]E, randomLength(r))
	for i := range out {
		out[i] = elem.random(r)
	}
	return out
}
