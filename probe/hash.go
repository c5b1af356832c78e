// Package probe is the open-addressing algorithm shared by the in-memory
// and the file-backed table: key hashing, the quadratic probe sequence,
// growth capacities and the slot walks for lookup and placement.
//
// Both engines must produce the same slot order for the same key and
// capacity, so nothing in here may depend on how slots are stored.
package probe

import (
	"unicode/utf16"

	"github.com/dot5enko/simple-hash-db/schema"
)

const stringHashFactor = 67

const (
	booleanHashTrue  = 1231
	booleanHashFalse = 1237
)

// Hash is the raw 32-bit hash of a key before reduction.
// Strings sum their UTF-16 code units times 67 with 32-bit wrap-around,
// integers hash to themselves.
func Hash(key schema.Value) int32 {
	switch key.Type {
	case schema.StringFieldType:
		var h int32
		for _, unit := range utf16.Encode([]rune(key.S)) {
			h += int32(unit) * stringHashFactor
		}
		return h
	case schema.IntegerFieldType:
		return key.I
	case schema.BooleanFieldType:
		if key.B {
			return booleanHashTrue
		}
		return booleanHashFalse
	}
	return 0
}

// Base is the first slot probed for key.
func Base(key schema.Value, capacity int) int {
	return floorMod(int64(Hash(key)), capacity)
}

func floorMod(x int64, m int) int {
	r := x % int64(m)
	if r < 0 {
		r += int64(m)
	}
	return int(r)
}
