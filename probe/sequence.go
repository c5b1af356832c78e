package probe

import (
	"iter"

	"github.com/dot5enko/simple-hash-db/schema"
)

const (
	InitialMemoryCapacity = 19
	InitialFileCapacity   = 911

	// size >= LoadFactor * capacity triggers a rehash
	LoadFactor = 0.8
)

// Sequence yields at most capacity slot indices for key: base first,
// then base+1, base-4, base+9, base-16, ... reduced modulo capacity.
func Sequence(key schema.Value, capacity int) iter.Seq[int] {
	return func(yield func(int) bool) {
		if capacity <= 0 {
			return
		}

		base := int64(Base(key, capacity))
		index := int(base)

		for i := int64(0); i < int64(capacity); i++ {
			if !yield(index) {
				return
			}

			offset := (i + 1) * (i + 1)
			if i%2 == 1 {
				offset = -offset
			}
			index = floorMod(base+offset, capacity)
		}
	}
}

// NextCapacity is the first probe-friendly number above twice the
// current capacity: odd, 3 mod 4, not divisible by 3 or 5.
func NextCapacity(current int) int {
	val := current*2 + 1
	for !probeFriendly(val) {
		val++
	}
	return val
}

func probeFriendly(val int) bool {
	return val%2 != 0 && val%4 == 3 && val%3 != 0 && val%5 != 0
}

// NeedsRehash applies the load factor rule after an insert.
func NeedsRehash(size, capacity int) bool {
	return float64(size) >= float64(capacity)*LoadFactor
}
