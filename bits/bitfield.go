package bits

import "math/bits"

// Mask is the 16-bit presence word at the start of every record.
// 0x0000 and 0xFFFF are reserved for the empty and tombstone markers,
// any other value has bit i set when column i holds a value.
type Mask uint16

const (
	MaskEmpty     Mask = 0x0000
	MaskTombstone Mask = 0xFFFF
)

func (b *Mask) Set(bit int) {
	*b |= 1 << bit
}

func (b *Mask) Clear(bit int) {
	*b &^= 1 << bit
}

func (b Mask) Get(bit int) bool {
	return (b>>bit)&1 == 1
}

func (b Mask) Count() int {
	return bits.OnesCount16(uint16(b))
}

func (b Mask) IsEmpty() bool {
	return b == MaskEmpty
}

func (b Mask) IsTombstone() bool {
	return b == MaskTombstone
}

// IsOccupied means the slot holds a live record.
func (b Mask) IsOccupied() bool {
	return b != MaskEmpty && b != MaskTombstone
}

// Fits reports whether no bit at or above columns is set.
func (b Mask) Fits(columns int) bool {
	return uint16(b)>>columns == 0
}
