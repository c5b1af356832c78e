// Package table holds the two storage engines behind one contract:
// MemoryTable keeps slots in a Go slice, FileTable keeps the same slots
// in a memory-mapped file that survives restarts.
//
// Neither engine locks. A table instance must be used from one goroutine
// at a time.
package table

import (
	"fmt"
	"iter"

	"github.com/dot5enko/simple-hash-db/dberr"
	"github.com/dot5enko/simple-hash-db/schema"
)

type EngineKind uint8

const (
	MemoryEngine EngineKind = iota
	FileEngine
)

func (k EngineKind) String() string {
	switch k {
	case MemoryEngine:
		return "memory"
	case FileEngine:
		return "file"
	}
	return ""
}

type Table interface {
	Name() string
	Schema() *schema.Schema
	Kind() EngineKind

	// Put inserts or overwrites by primary key. replaced is true when a
	// row with the same key already existed.
	Put(row schema.Row) (replaced bool, err error)
	Get(key schema.Value) (row schema.Row, found bool, err error)
	Remove(key schema.Value) (removed bool, err error)

	// live rows only
	Size() int
	// allocated slots
	Capacity() int

	// Clear drops every row, keeping schema and capacity.
	Clear() error

	// Rows walks live rows in slot order. Every call starts a new walk.
	Rows() iter.Seq2[schema.Row, error]

	Close() error
}

// Insert is the strict variant of Put, an existing key is a conflict.
func Insert(t Table, row schema.Row) error {
	if err := t.Schema().CheckRow(row); err != nil {
		return err
	}

	key := row[t.Schema().PrimaryIndex]

	_, found, err := t.Get(key)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("%w: key %s already exists in `%s`", dberr.ErrKeyConflict, key, t.Name())
	}

	_, err = t.Put(row)
	return err
}

// CollectRows drains Rows into a slice.
func CollectRows(t Table) ([]schema.Row, error) {
	out := make([]schema.Row, 0, t.Size())
	for row, err := range t.Rows() {
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}
