package table

import (
	"errors"
	"iter"

	"github.com/dot5enko/simple-hash-db/dberr"
	"github.com/dot5enko/simple-hash-db/probe"
	"github.com/dot5enko/simple-hash-db/schema"
)

type memorySlot struct {
	state probe.SlotState
	row   schema.Row
}

// memorySlots is the probe.Slots view over the slot array.
type memorySlots struct {
	slots        []memorySlot
	primaryIndex int
}

func (m memorySlots) Capacity() int {
	return len(m.slots)
}

func (m memorySlots) State(index int) (probe.SlotState, error) {
	return m.slots[index].state, nil
}

func (m memorySlots) KeyAt(index int) (schema.Value, error) {
	return m.slots[index].row[m.primaryIndex], nil
}

// MemoryTable is the array-backed engine.
type MemoryTable struct {
	name   string
	schema *schema.Schema

	slots      []memorySlot
	size       int
	tombstones int
}

var _ Table = (*MemoryTable)(nil)

func NewMemoryTable(name string, s *schema.Schema) *MemoryTable {
	return &MemoryTable{
		name:   name,
		schema: s,
		slots:  make([]memorySlot, probe.InitialMemoryCapacity),
	}
}

func (t *MemoryTable) Name() string           { return t.name }
func (t *MemoryTable) Schema() *schema.Schema { return t.schema }
func (t *MemoryTable) Kind() EngineKind       { return MemoryEngine }
func (t *MemoryTable) Size() int              { return t.size }
func (t *MemoryTable) Capacity() int          { return len(t.slots) }

func (t *MemoryTable) view() memorySlots {
	return memorySlots{slots: t.slots, primaryIndex: t.schema.PrimaryIndex}
}

func (t *MemoryTable) Put(row schema.Row) (bool, error) {
	if err := t.schema.CheckRow(row); err != nil {
		return false, err
	}

	row = row.Clone()

	key := row[t.schema.PrimaryIndex]

	placement, err := probe.Place(t.view(), key)
	if errors.Is(err, dberr.ErrCapacityExhausted) {
		// the sequence missed every free slot, grow once and retry
		t.rehash()
		placement, err = probe.Place(t.view(), key)
	}
	if err != nil {
		return false, err
	}

	t.slots[placement.Index] = memorySlot{state: probe.Occupied, row: row}

	if placement.Replace {
		if placement.Vacate != -1 {
			t.slots[placement.Vacate] = memorySlot{state: probe.Tombstone}
		}
		return true, nil
	}

	t.size++
	if placement.Reclaimed {
		t.tombstones--
	}

	if probe.NeedsRehash(t.size, len(t.slots)) {
		t.rehash()
	}

	return false, nil
}

func (t *MemoryTable) Get(key schema.Value) (schema.Row, bool, error) {
	if err := t.schema.CheckKey(key); err != nil {
		return nil, false, err
	}

	index, err := probe.Lookup(t.view(), key)
	if err != nil || index == -1 {
		return nil, false, err
	}

	return t.slots[index].row.Clone(), true, nil
}

func (t *MemoryTable) Remove(key schema.Value) (bool, error) {
	if err := t.schema.CheckKey(key); err != nil {
		return false, err
	}

	index, err := probe.Lookup(t.view(), key)
	if err != nil || index == -1 {
		return false, err
	}

	t.slots[index] = memorySlot{state: probe.Tombstone}
	t.size--
	t.tombstones++

	return true, nil
}

func (t *MemoryTable) Clear() error {
	clear(t.slots)
	t.size = 0
	t.tombstones = 0
	return nil
}

func (t *MemoryTable) Rows() iter.Seq2[schema.Row, error] {
	return func(yield func(schema.Row, error) bool) {
		for idx := 0; idx < len(t.slots); idx++ {
			slot := t.slots[idx]
			if slot.state != probe.Occupied {
				continue
			}
			if !yield(slot.row.Clone(), nil) {
				return
			}
		}
	}
}

func (t *MemoryTable) Close() error {
	return nil
}

// rehash fills a fresh slot array and swaps it in only when every live
// row has been placed, the old array is never written to. A capacity whose
// probe sequences cannot place every row is skipped for the next one.
func (t *MemoryTable) rehash() {
	capacity := len(t.slots)

	for {
		capacity = probe.NextCapacity(capacity)

		if next, ok := t.refill(capacity); ok {
			t.slots = next
			t.tombstones = 0
			return
		}
	}
}

func (t *MemoryTable) refill(capacity int) ([]memorySlot, bool) {
	next := make([]memorySlot, capacity)
	nextView := memorySlots{slots: next, primaryIndex: t.schema.PrimaryIndex}

	for _, slot := range t.slots {
		if slot.state != probe.Occupied {
			continue
		}

		placement, err := probe.Place(nextView, slot.row[t.schema.PrimaryIndex])
		if err != nil {
			return nil, false
		}
		next[placement.Index] = slot
	}

	return next, true
}
