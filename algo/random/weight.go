package random

import (
	"math/rand/v2"
	"sort"
)

type (
	// Weight is the set of types a weight may have.
	Weight interface {
		~int | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32
	}

	// WeightItem is a weighted option.
	WeightItem[T any, W Weight] struct {
		Value  T
		Weight W
	}

	// WeightPool picks options with a probability proportional to their weight.
	// Options with a weight of zero or less are never picked.
	WeightPool[T any, W Weight] struct {
		items      []WeightItem[T, W]
		prefixSums []int64
		total      int64
	}
)

func NewWeightPool[T any, W Weight](capacity int) *WeightPool[T, W] {
	return &WeightPool[T, W]{
		items:      make([]WeightItem[T, W], 0, capacity),
		prefixSums: make([]int64, 0, capacity),
	}
}

// Add appends an option. Non-positive weights are dropped.
func (p *WeightPool[T, W]) Add(v T, w W) {
	if int64(w) <= 0 {
		return
	}
	p.total += int64(w)
	p.items = append(p.items, WeightItem[T, W]{Value: v, Weight: w})
	p.prefixSums = append(p.prefixSums, p.total)
}

func (p *WeightPool[T, W]) Len() int {
	return len(p.items)
}

// Reset empties the pool and keeps its storage.
func (p *WeightPool[T, W]) Reset() {
	p.items = p.items[:0]
	p.prefixSums = p.prefixSums[:0]
	p.total = 0
}

// Pick draws one option from r. ok is false if the pool is empty.
func (p *WeightPool[T, W]) Pick(r *rand.Rand) (v T, ok bool) {
	switch len(p.items) {
	case 0:
		return v, false
	case 1:
		return p.items[0].Value, true
	}

	n := r.Int64N(p.total)
	// first prefix sum above n
	index := sort.Search(len(p.prefixSums), func(i int) bool {
		return p.prefixSums[i] > n
	})
	return p.items[index].Value, true
}
