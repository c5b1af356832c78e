package table

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/dot5enko/simple-hash-db/bits"
	"github.com/dot5enko/simple-hash-db/dberr"
	dbio "github.com/dot5enko/simple-hash-db/io"
	"github.com/dot5enko/simple-hash-db/probe"
	"github.com/dot5enko/simple-hash-db/schema"
	"github.com/google/uuid"
)

const (
	FileExtension = ".bin"
	// suffix of the temporary file a rehash builds next to the table file
	RehashSuffix = ".rehash"
)

// FilePath is where the table called name lives inside dir.
func FilePath(dir, name string) string {
	return filepath.Join(dir, name+FileExtension)
}

// FileTable is the persistent engine: header and record regions of one
// memory-mapped file.
//
// Counters in the header are rewritten after every mutation but not
// atomically with the record bytes, a crash between the two leaves size
// or tombstones out of step with the slots. Rehash is the exception: it
// builds a complete new file and renames it over the old one.
type FileTable struct {
	name   string
	path   string
	schema *schema.Schema
	layout recordLayout

	file   *dbio.MappedFile
	header fileHeader
}

var _ Table = (*FileTable)(nil)

// CreateFileTable writes a new empty table file in dir.
func CreateFileTable(dir, name string, s *schema.Schema) (*FileTable, error) {

	if err := checkFileSchema(name, s); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create storage folder: %w", err)
	}

	t, err := createFileTableAt(FilePath(dir, name), name, s, probe.InitialFileCapacity)
	if errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("%w: table file for `%s` already exists", dberr.ErrKeyConflict, name)
	}
	return t, err
}

func createFileTableAt(path, name string, s *schema.Schema, capacity int) (*FileTable, error) {
	layout := newRecordLayout(s)

	file, err := dbio.CreateMapped(path, HeaderWidth+capacity*layout.width)
	if err != nil {
		return nil, err
	}

	t := &FileTable{
		name:   name,
		path:   path,
		schema: s,
		layout: layout,
		file:   file,
		header: fileHeader{
			Name:         name,
			PrimaryIndex: int32(s.PrimaryIndex),
			Capacity:     int32(capacity),
			Columns:      s.Columns,
		},
	}

	if headerErr := t.header.WriteTo(file.Bytes()); headerErr != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: %s", dberr.ErrInvalidSchema, headerErr.Error())
	}

	return t, nil
}

// OpenFileTable maps an existing table file and rebuilds schema, capacity
// and counters from its header. No record is rewritten.
func OpenFileTable(dir, name string) (*FileTable, error) {
	path := FilePath(dir, name)

	file, err := dbio.OpenMapped(path, HeaderWidth)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("%w: no table file for `%s`", dberr.ErrNotFound, name)
	case errors.Is(err, dbio.ErrFileTooSmall):
		return nil, fmt.Errorf("%w: %s", dberr.ErrStorageCorruption, err.Error())
	case err != nil:
		return nil, err
	}

	t, loadErr := loadFileTable(file, name)
	if loadErr != nil {
		file.Close()
		return nil, loadErr
	}

	return t, nil
}

func loadFileTable(file *dbio.MappedFile, name string) (*FileTable, error) {

	var header fileHeader
	if err := header.FromBytes(file.Bytes()); err != nil {
		return nil, err
	}

	if header.Name != name {
		return nil, fmt.Errorf("%w: file for `%s` holds table `%s`", dberr.ErrStorageCorruption, name, header.Name)
	}

	s, schemaErr := schema.New(header.Columns, int(header.PrimaryIndex))
	if schemaErr != nil {
		return nil, fmt.Errorf("%w: %s", dberr.ErrStorageCorruption, schemaErr.Error())
	}

	if header.Capacity <= 0 || header.Size < 0 || header.Tombstones < 0 || int64(header.Size)+int64(header.Tombstones) > int64(header.Capacity) {
		return nil, fmt.Errorf("%w: capacity %d, size %d, tombstones %d", dberr.ErrStorageCorruption, header.Capacity, header.Size, header.Tombstones)
	}

	layout := newRecordLayout(s)

	need := HeaderWidth + int(header.Capacity)*layout.width
	if file.Size() < need {
		return nil, fmt.Errorf("%w: %d bytes for %d records of %d bytes", dberr.ErrStorageCorruption, file.Size(), header.Capacity, layout.width)
	}

	return &FileTable{
		name:   name,
		path:   file.Path(),
		schema: s,
		layout: layout,
		file:   file,
		header: header,
	}, nil
}

func (t *FileTable) Name() string           { return t.name }
func (t *FileTable) Schema() *schema.Schema { return t.schema }
func (t *FileTable) Kind() EngineKind       { return FileEngine }
func (t *FileTable) Size() int              { return int(t.header.Size) }
func (t *FileTable) Capacity() int          { return int(t.header.Capacity) }
func (t *FileTable) Path() string           { return t.path }

// RecordWidth is the byte width of one slot.
func (t *FileTable) RecordWidth() int { return t.layout.width }

func (t *FileTable) record(index int) []byte {
	start := HeaderWidth + index*t.layout.width
	return t.file.Bytes()[start : start+t.layout.width]
}

// fileSlots is the probe.Slots view over the record region.
type fileSlots struct {
	t *FileTable
}

func (f fileSlots) Capacity() int {
	return f.t.Capacity()
}

func (f fileSlots) State(index int) (probe.SlotState, error) {
	mask := f.t.layout.Mask(f.t.record(index))
	switch {
	case mask.IsEmpty():
		return probe.Empty, nil
	case mask.IsTombstone():
		return probe.Tombstone, nil
	}
	return probe.Occupied, nil
}

func (f fileSlots) KeyAt(index int) (schema.Value, error) {
	return f.t.layout.DecodeKey(f.t.record(index))
}

func (t *FileTable) syncCounters() {
	t.header.WriteCounters(t.file.Bytes())
}

// Put stores row, growing the file once the load factor is reached. A
// failed growth after an insert still leaves the row stored and counted,
// the error is returned so the caller learns the file did not grow.
func (t *FileTable) Put(row schema.Row) (bool, error) {
	if err := t.schema.CheckRow(row); err != nil {
		return false, err
	}

	key := row[t.schema.PrimaryIndex]

	placement, err := probe.Place(fileSlots{t}, key)
	if errors.Is(err, dberr.ErrCapacityExhausted) {
		if rehashErr := t.rehash(); rehashErr != nil {
			return false, rehashErr
		}
		placement, err = probe.Place(fileSlots{t}, key)
	}
	if err != nil {
		return false, err
	}

	if encodeErr := t.layout.Encode(t.record(placement.Index), row); encodeErr != nil {
		return false, encodeErr
	}

	if placement.Replace {
		if placement.Vacate != -1 {
			t.layout.SetMask(t.record(placement.Vacate), bits.MaskTombstone)
		}
		t.syncCounters()
		return true, nil
	}

	t.header.Size++
	if placement.Reclaimed {
		t.header.Tombstones--
	}
	t.syncCounters()

	if probe.NeedsRehash(t.Size(), t.Capacity()) {
		if rehashErr := t.rehash(); rehashErr != nil {
			return false, fmt.Errorf("row stored, growing `%s` failed: %w", t.name, rehashErr)
		}
	}

	return false, nil
}

func (t *FileTable) Get(key schema.Value) (schema.Row, bool, error) {
	if err := t.schema.CheckKey(key); err != nil {
		return nil, false, err
	}

	index, err := probe.Lookup(fileSlots{t}, key)
	if err != nil || index == -1 {
		return nil, false, err
	}

	row, decodeErr := t.layout.Decode(t.record(index))
	if decodeErr != nil {
		return nil, false, decodeErr
	}

	return row, true, nil
}

func (t *FileTable) Remove(key schema.Value) (bool, error) {
	if err := t.schema.CheckKey(key); err != nil {
		return false, err
	}

	index, err := probe.Lookup(fileSlots{t}, key)
	if err != nil || index == -1 {
		return false, err
	}

	t.layout.SetMask(t.record(index), bits.MaskTombstone)
	t.header.Size--
	t.header.Tombstones++
	t.syncCounters()

	return true, nil
}

// Clear marks every slot empty. Field bytes stay until overwritten.
func (t *FileTable) Clear() error {
	for index := 0; index < t.Capacity(); index++ {
		t.layout.SetMask(t.record(index), bits.MaskEmpty)
	}

	t.header.Size = 0
	t.header.Tombstones = 0
	t.syncCounters()

	return nil
}

func (t *FileTable) Rows() iter.Seq2[schema.Row, error] {
	return func(yield func(schema.Row, error) bool) {
		for index := 0; index < t.Capacity(); index++ {
			record := t.record(index)
			if !t.layout.Mask(record).IsOccupied() {
				continue
			}

			row, err := t.layout.Decode(record)
			if !yield(row, err) || err != nil {
				return
			}
		}
	}
}

// Sync flushes the mapping to disk.
func (t *FileTable) Sync() error {
	return t.file.Sync()
}

func (t *FileTable) Close() error {
	return t.file.Close()
}

// rehash writes every live record into a new file with a larger capacity,
// then renames it over the current one. Until the rename the current file
// is only read.
func (t *FileTable) rehash() error {
	capacity := t.Capacity()

	for {
		capacity = probe.NextCapacity(capacity)

		next, err := t.refill(capacity)
		if errors.Is(err, dberr.ErrCapacityExhausted) {
			continue
		}
		if err != nil {
			return err
		}

		if renameErr := next.file.Rename(t.path); renameErr != nil {
			next.file.Close()
			os.Remove(next.path)
			return fmt.Errorf("unable to replace %s after rehash: %w", t.path, renameErr)
		}

		old := t.file
		t.file = next.file
		t.header = next.header

		return old.Close()
	}
}

func (t *FileTable) refill(capacity int) (*FileTable, error) {
	tmpPath := fmt.Sprintf("%s.%s%s", t.path, uuid.NewString(), RehashSuffix)

	next, err := createFileTableAt(tmpPath, t.name, t.schema, capacity)
	if err != nil {
		return nil, err
	}

	discard := func(cause error) (*FileTable, error) {
		next.file.Close()
		os.Remove(tmpPath)
		return nil, cause
	}

	for index := 0; index < t.Capacity(); index++ {
		record := t.record(index)
		if !t.layout.Mask(record).IsOccupied() {
			continue
		}

		key, keyErr := t.layout.DecodeKey(record)
		if keyErr != nil {
			return discard(keyErr)
		}

		placement, placeErr := probe.Place(fileSlots{next}, key)
		if placeErr != nil {
			return discard(placeErr)
		}

		copy(next.record(placement.Index), record)
		next.header.Size++
	}

	next.syncCounters()

	if syncErr := next.file.Sync(); syncErr != nil {
		return discard(syncErr)
	}

	return next, nil
}
