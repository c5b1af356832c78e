package probe

import (
	"fmt"

	"github.com/dot5enko/simple-hash-db/dberr"
	"github.com/dot5enko/simple-hash-db/schema"
)

type SlotState uint8

const (
	Empty SlotState = iota
	Tombstone
	Occupied
)

func (s SlotState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Tombstone:
		return "tombstone"
	case Occupied:
		return "occupied"
	}
	return "unknown"
}

// Slots is the storage a walk runs against: an array of rows for the
// in-memory table, a mapped record region for the file table.
type Slots interface {
	Capacity() int
	State(index int) (SlotState, error)

	// KeyAt is only called for occupied slots.
	KeyAt(index int) (schema.Value, error)
}

// Lookup returns the index of the live slot holding key, or -1.
// An empty slot ends the walk, tombstones are stepped over.
func Lookup(slots Slots, key schema.Value) (int, error) {

	for index := range Sequence(key, slots.Capacity()) {

		state, err := slots.State(index)
		if err != nil {
			return -1, err
		}

		switch state {
		case Empty:
			return -1, nil
		case Occupied:
			match, matchErr := keyMatches(slots, index, key)
			if matchErr != nil {
				return -1, matchErr
			}
			if match {
				return index, nil
			}
		}
	}

	return -1, nil
}

// Placement tells an engine where a put writes.
type Placement struct {
	// slot that receives the row
	Index int

	// Index was a tombstone and is being reused
	Reclaimed bool

	// a live row with the same key exists
	Replace bool

	// live slot of the replaced row that must become a tombstone because
	// the row moves to an earlier reclaimed slot, -1 otherwise
	Vacate int
}

// Place walks the sequence for key remembering the first tombstone.
// It stops at the first empty slot or at the live slot holding key.
// A walk that sees no empty, matching or tombstone slot is reported as
// dberr.ErrCapacityExhausted.
func Place(slots Slots, key schema.Value) (Placement, error) {

	reclaim := -1

	for index := range Sequence(key, slots.Capacity()) {

		state, err := slots.State(index)
		if err != nil {
			return Placement{}, err
		}

		switch state {
		case Tombstone:
			if reclaim == -1 {
				reclaim = index
			}

		case Empty:
			if reclaim != -1 {
				return Placement{Index: reclaim, Reclaimed: true, Vacate: -1}, nil
			}
			return Placement{Index: index, Vacate: -1}, nil

		case Occupied:
			match, matchErr := keyMatches(slots, index, key)
			if matchErr != nil {
				return Placement{}, matchErr
			}
			if !match {
				continue
			}
			if reclaim != -1 {
				return Placement{Index: reclaim, Reclaimed: true, Replace: true, Vacate: index}, nil
			}
			return Placement{Index: index, Replace: true, Vacate: -1}, nil
		}
	}

	// the whole sequence was walked without a match, so key is absent
	// and the first tombstone is as good as an empty slot
	if reclaim != -1 {
		return Placement{Index: reclaim, Reclaimed: true, Vacate: -1}, nil
	}

	return Placement{}, fmt.Errorf("%w: no slot for key %s in %d slots", dberr.ErrCapacityExhausted, key, slots.Capacity())
}

func keyMatches(slots Slots, index int, key schema.Value) (bool, error) {
	stored, err := slots.KeyAt(index)
	if err != nil {
		return false, err
	}
	return stored.Equal(key), nil
}
