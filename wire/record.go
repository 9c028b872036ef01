package wire

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// FieldSpec is one field of a record of type T.
type FieldSpec[T any] interface {
	Name() string
	shape() *shape
	compile(derived bool, offsetFromEnd int) fieldItem[T]
}

// fieldItem is a compiled field bound to its accessor.
type fieldItem[T any] interface {
	decode(dst *T, data []byte, offset *int, limit int) error
	encode(src *T, b *ByteBuffer)
	random(dst *T, r *rand.Rand)
	describe() string
}

type field[T, F any] struct {
	name   string
	schema Schema[F]
	ref    func(*T) *F
}

// Field declares a record field. ref returns the address of the field inside a record,
// which lets the codec read and write it without reflection.
func Field[T, F any](name string, schema Schema[F], ref func(*T) *F) FieldSpec[T] {
	return &field[T, F]{name: name, schema: schema, ref: ref}
}

func (f *field[T, F]) Name() string {
	return f.name
}

func (f *field[T, F]) shape() *shape {
	return f.schema.shape()
}

func (f *field[T, F]) compile(derived bool, offsetFromEnd int) fieldItem[T] {
	return &boundField[T, F]{
		name:          f.name,
		ref:           f.ref,
		item:          f.schema.compile(derived),
		derived:       derived,
		offsetFromEnd: offsetFromEnd,
	}
}

type boundField[T, F any] struct {
	name string
	ref  func(*T) *F
	item item[F]
	// the derived field stops offsetFromEnd bytes before the record limit,
	// leaving room for the constant-size fields declared after it
	derived       bool
	offsetFromEnd int
}

func (f *boundField[T, F]) decode(dst *T, data []byte, offset *int, limit int) error {
	v, err := f.item.decode(data, offset, limit-f.offsetFromEnd)
	if err != nil {
		return fmt.Errorf("%s: %w", f.name, err)
	}

	*f.ref(dst) = v
	return nil
}

func (f *boundField[T, F]) encode(src *T, b *ByteBuffer) {
	f.item.encode(*f.ref(src), b)
}

func (f *boundField[T, F]) random(dst *T, r *rand.Rand) {
	*f.ref(dst) = f.item.random(r)
}

func (f *boundField[T, F]) describe() string {
	if f.derived {
		return fmt.Sprintf("%s:%s@-%d", f.name, f.item.describe(), f.offsetFromEnd)
	}
	return f.name + ":" + f.item.describe()
}

type recordSchema[T any] struct {
	name   string
	fields []FieldSpec[T]
}

// Record returns the schema of a record whose fields are encoded in declaration order.
// A record without fields fails at Compile.
func Record[T any](name string, fields ...FieldSpec[T]) Schema[T] {
	return &recordSchema[T]{name: name, fields: fields}
}

func (s *recordSchema[T]) shape() *shape {
	sh := &shape{
		kind:   KindRecord,
		name:   s.name,
		fields: make([]*shape, len(s.fields)),
	}
	for i, f := range s.fields {
		sh.fields[i] = f.shape()
	}
	return sh
}

func (s *recordSchema[T]) compile(derived bool) item[T] {
	rec := &recordItem[T]{
		name:   s.name,
		fields: make([]fieldItem[T], len(s.fields)),
	}

	at, offsetFromEnd, ok := -1, 0, false
	if derived {
		at, offsetFromEnd, ok = s.shape().derivedField()
	}
	for i, f := range s.fields {
		if ok && i == at {
			rec.fields[i] = f.compile(true, offsetFromEnd)
			continue
		}
		rec.fields[i] = f.compile(false, 0)
	}
	return rec
}

type recordItem[T any] struct {
	name   string
	fields []fieldItem[T]
}

func (r *recordItem[T]) decode(data []byte, offset *int, limit int) (T, error) {
	var v T
	for _, f := range r.fields {
		if err := f.decode(&v, data, offset, limit); err != nil {
			return v, err
		}
	}
	return v, nil
}

func (r *recordItem[T]) encode(v T, b *ByteBuffer) {
	for _, f := range r.fields {
		f.encode(&v, b)
	}
}

func (r *recordItem[T]) random(rng *rand.Rand) T {
	var v T
	for _, f := range r.fields {
		f.random(&v, rng)
	}
	return v
}

func (r *recordItem[T]) describe() string {
	parts := make([]string, len(r.fields))
	for i, f := range r.fields {
		parts[i] = f.describe()
	}
	return r.name + "{" + strings.Join(parts, ", ") + "}"
}
