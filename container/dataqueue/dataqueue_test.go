package dataqueue

import (
	"bytes"
	"math/rand/v2"
	"testing"
)

func TestDataQueue(t *testing.T) {
	t.Run("Header", func(t *testing.T) {
		q := New(4)
		q.Append([]byte{5, 0, 0, 0, 7, 0, 0, 0, 0xAA})
		if q.Len() != 9 {
			t.Fatalf("Len = %d, want 9", q.Len())
		}

		if ch, size := q.PeekHeader(); ch != 5 || size != 7 {
			t.Fatalf("PeekHeader = %d, %d", ch, size)
		}
		if q.Len() != 9 {
			t.Fatalf("PeekHeader consumed bytes")
		}
		if ch, size := q.GetHeader(); ch != 5 || size != 7 {
			t.Fatalf("GetHeader = %d, %d", ch, size)
		}
		if q.Len() != 1 {
			t.Fatalf("Len = %d, want 1", q.Len())
		}
	})

	t.Run("Wraparound", func(t *testing.T) {
		q := New(8)
		q.Append([]byte{1, 2, 3, 4, 5, 6})
		q.Skip(5)
		q.Append([]byte{7, 8, 9, 10, 11})
		if q.Cap() != 8 {
			t.Fatalf("Cap = %d, grew without need", q.Cap())
		}

		out := make([]byte, 6)
		q.PopData(out)
		if !bytes.Equal(out, []byte{6, 7, 8, 9, 10, 11}) {
			t.Fatalf("PopData = %v", out)
		}
		if q.Len() != 0 {
			t.Fatalf("Len = %d, want 0", q.Len())
		}
	})

	t.Run("GrowKeepsOrder", func(t *testing.T) {
		q := New(4)
		q.Append([]byte{1, 2, 3})
		q.Skip(2)
		q.Append([]byte{4, 5, 6, 7, 8, 9})

		if v := q.PopUint32(); v != 0x06050403 {
			t.Fatalf("PopUint32 = %#x", v)
		}
		out := make([]byte, 3)
		q.PopData(out)
		if !bytes.Equal(out, []byte{7, 8, 9}) {
			t.Fatalf("PopData = %v", out)
		}
	})

	t.Run("UnderReadPanics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()
		q := New(0)
		q.Append([]byte{1, 2, 3})
		q.GetHeader()
	})

	t.Run("RandomChunks", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(3, 5))
		q := New(16)

		var in, out []byte
		next := byte(0)
		for range 2000 {
			if n := rng.IntN(40); rng.IntN(2) == 0 {
				chunk := make([]byte, n)
				for i := range chunk {
					chunk[i] = next
					next++
				}
				q.Append(chunk)
				in = append(in, chunk...)
			} else {
				n = min(n, q.Len())
				chunk := make([]byte, n)
				q.PopData(chunk)
				out = append(out, chunk...)
			}
		}
		rest := make([]byte, q.Len())
		q.PopData(rest)
		out = append(out, rest...)

		if !bytes.Equal(in, out) {
			t.Fatalf("popped %d bytes differing from the %d appended", len(out), len(in))
		}
	})
}
