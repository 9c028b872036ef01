package wire

import "math/rand/v2"

// Schema describes how values of T are laid out on the wire.
// Schemas are built from the constructors in this package and turned into
// a reusable Codec with Compile.
type Schema[T any] interface {
	shape() *shape
	// compile returns the serializer for T. derived allows the serializer to
	// infer its length from the limit passed to decode instead of a VarSize prefix.
	compile(derived bool) item[T]
}

// item is a compiled serializer for values of T.
type item[T any] interface {
	// decode reads a value from data[*offset:limit] and advances offset.
	decode(data []byte, offset *int, limit int) (T, error)
	encode(v T, b *ByteBuffer)
	random(r *rand.Rand) T
	describe() string
}

// randomLength mirrors the distribution used for generated arrays and strings:
// 30% empty, otherwise below maxRandomLength.
func randomLength(r *rand.Rand) int {
	if r.IntN(100) < 30 {
		return 0
	}
	return r.IntN(maxRandomLength)
}

const maxRandomLength = 1000
