package table

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dot5enko/simple-hash-db/bits"
	"github.com/dot5enko/simple-hash-db/dberr"
	"github.com/dot5enko/simple-hash-db/schema"
)

// File layout, big-endian throughout.
//
// *------------------------------------------------*
// | table name     1 length byte + 127 bytes        |
// | primary index  int32                            |
// | capacity       int32                            |
// | size           int32                            |
// | tombstones     int32                            |
// | column count   int32                            |
// | 15 x column    1 length byte + 15 bytes + tag   |
// *------------------------------------------------*  HeaderWidth
// | capacity x record                               |
// |   mask uint16, then one fixed field per column  |
// *------------------------------------------------*

const (
	MaxTableNameBytes  = 127
	MaxColumnNameBytes = 15

	tableNameFieldSize  = 1 + MaxTableNameBytes
	columnNameFieldSize = 1 + MaxColumnNameBytes
	typeTagSize         = 1
	columnEntrySize     = columnNameFieldSize + typeTagSize

	countersOffset  = tableNameFieldSize
	sizeOffset      = countersOffset + 8
	columnsOffset   = countersOffset + 5*4
	HeaderWidth     = columnsOffset + schema.MaxColumns*columnEntrySize
	recordMaskBytes = 2
)

var fileByteOrder = binary.BigEndian

type fileHeader struct {
	Name         string
	PrimaryIndex int32
	Capacity     int32
	Size         int32
	Tombstones   int32
	Columns      []schema.SchemaColumn
}

func checkFileSchema(name string, s *schema.Schema) error {
	if len(name) == 0 || len(name) > MaxTableNameBytes {
		return fmt.Errorf("%w: table name must be 1..%d bytes", dberr.ErrInvalidSchema, MaxTableNameBytes)
	}
	for _, col := range s.Columns {
		if len(col.Name) > MaxColumnNameBytes {
			return fmt.Errorf("%w: column name `%s` longer than %d bytes", dberr.ErrInvalidSchema, col.Name, MaxColumnNameBytes)
		}
	}
	return nil
}

func (h *fileHeader) WriteTo(buffer []byte) error {
	bw := bits.NewEncodeBuffer(buffer[:HeaderWidth], fileByteOrder)

	if err := bw.PutPaddedString(h.Name, MaxTableNameBytes); err != nil {
		return fmt.Errorf("table name: %w", err)
	}

	bw.PutInt32(h.PrimaryIndex)
	bw.PutInt32(h.Capacity)
	bw.PutInt32(h.Size)
	bw.PutInt32(h.Tombstones)
	bw.PutInt32(int32(len(h.Columns)))

	for i := 0; i < schema.MaxColumns; i++ {
		if i >= len(h.Columns) {
			bw.ZeroBytes(columnEntrySize)
			continue
		}

		if err := bw.PutPaddedString(h.Columns[i].Name, MaxColumnNameBytes); err != nil {
			return fmt.Errorf("column %d name: %w", i, err)
		}
		bw.PutU8(uint8(h.Columns[i].Type))
	}

	return nil
}

// WriteCounters rewrites only size and tombstones.
func (h *fileHeader) WriteCounters(buffer []byte) {
	bw := bits.NewEncodeBuffer(buffer[:HeaderWidth], fileByteOrder)
	bw.Seek(sizeOffset)
	bw.PutInt32(h.Size)
	bw.PutInt32(h.Tombstones)
}

func (h *fileHeader) FromBytes(input []byte) (topErr error) {

	if len(input) < HeaderWidth {
		return fmt.Errorf("%w: header has %d bytes, need %d", dberr.ErrStorageCorruption, len(input), HeaderWidth)
	}

	reader := bits.NewReader(bytes.NewReader(input[:HeaderWidth]), fileByteOrder)

	corrupt := func(what string, err error) error {
		return fmt.Errorf("%w: unable to decode %s: %s", dberr.ErrStorageCorruption, what, err.Error())
	}

	h.Name, topErr = reader.ReadPaddedString(MaxTableNameBytes)
	if topErr != nil {
		return corrupt("table name", topErr)
	}

	counters := []*int32{&h.PrimaryIndex, &h.Capacity, &h.Size, &h.Tombstones}
	for _, c := range counters {
		if *c, topErr = reader.ReadI32(); topErr != nil {
			return corrupt("counters", topErr)
		}
	}

	columnCount, topErr := reader.ReadI32()
	if topErr != nil {
		return corrupt("column count", topErr)
	}
	if columnCount < 1 || columnCount > schema.MaxColumns {
		return fmt.Errorf("%w: column count %d", dberr.ErrStorageCorruption, columnCount)
	}

	h.Columns = make([]schema.SchemaColumn, columnCount)

	for i := range h.Columns {
		name, nameErr := reader.ReadPaddedString(MaxColumnNameBytes)
		if nameErr != nil {
			return corrupt(fmt.Sprintf("column %d name", i), nameErr)
		}

		tag, tagErr := reader.ReadU8()
		if tagErr != nil {
			return corrupt(fmt.Sprintf("column %d type", i), tagErr)
		}

		h.Columns[i] = schema.SchemaColumn{Name: name, Type: schema.FieldType(tag)}
	}

	return nil
}

// recordLayout is the fixed byte shape of one slot, derived from the schema.
type recordLayout struct {
	width   int
	offsets []int
	types   []schema.FieldType
	primary int
}

func newRecordLayout(s *schema.Schema) recordLayout {
	layout := recordLayout{
		offsets: make([]int, len(s.Columns)),
		types:   make([]schema.FieldType, len(s.Columns)),
		primary: s.PrimaryIndex,
	}

	pos := recordMaskBytes
	for idx, col := range s.Columns {
		layout.offsets[idx] = pos
		layout.types[idx] = col.Type
		pos += col.Type.Size()
	}
	layout.width = pos

	return layout
}

func (l recordLayout) Mask(record []byte) bits.Mask {
	return bits.Mask(fileByteOrder.Uint16(record[:recordMaskBytes]))
}

func (l recordLayout) SetMask(record []byte, m bits.Mask) {
	fileByteOrder.PutUint16(record[:recordMaskBytes], uint16(m))
}

// Encode writes row into record. Row must already match the schema,
// string lengths are checked before any byte is touched.
func (l recordLayout) Encode(record []byte, row schema.Row) error {

	var mask bits.Mask

	for idx, cell := range row {
		if cell.IsNull() {
			continue
		}
		if cell.Type == schema.StringFieldType && len(cell.S) > schema.MaxStringBytes {
			return fmt.Errorf("%w: string of %d bytes in column %d, max %d", dberr.ErrMalformedRow, len(cell.S), idx, schema.MaxStringBytes)
		}
		mask.Set(idx)
	}

	bw := bits.NewEncodeBuffer(record[:l.width], fileByteOrder)
	bw.PutUint16(uint16(mask))

	for idx, cell := range row {
		if cell.IsNull() {
			bw.ZeroBytes(l.types[idx].Size())
			continue
		}

		switch l.types[idx] {
		case schema.StringFieldType:
			if err := bw.PutPaddedString(cell.S, schema.MaxStringBytes); err != nil {
				return err
			}
		case schema.IntegerFieldType:
			bw.PutInt32(cell.I)
		case schema.BooleanFieldType:
			bw.PutBool(cell.B)
		}
	}

	return nil
}

func (l recordLayout) Decode(record []byte) (schema.Row, error) {
	mask := l.Mask(record)

	if err := l.checkMask(mask); err != nil {
		return nil, err
	}

	row := make(schema.Row, len(l.types))
	for idx := range l.types {
		if !mask.Get(idx) {
			continue
		}

		v, err := l.decodeField(record, idx)
		if err != nil {
			return nil, err
		}
		row[idx] = v
	}

	return row, nil
}

func (l recordLayout) DecodeKey(record []byte) (schema.Value, error) {
	if err := l.checkMask(l.Mask(record)); err != nil {
		return schema.Null, err
	}
	return l.decodeField(record, l.primary)
}

func (l recordLayout) checkMask(mask bits.Mask) error {
	if !mask.IsOccupied() {
		return fmt.Errorf("%w: decoding a slot with mask %#04x", dberr.ErrStorageCorruption, uint16(mask))
	}
	if !mask.Fits(len(l.types)) {
		return fmt.Errorf("%w: mask %#04x has bits beyond %d columns", dberr.ErrStorageCorruption, uint16(mask), len(l.types))
	}
	if !mask.Get(l.primary) {
		return fmt.Errorf("%w: mask %#04x has a null primary column", dberr.ErrStorageCorruption, uint16(mask))
	}
	return nil
}

func (l recordLayout) decodeField(record []byte, idx int) (schema.Value, error) {
	typ := l.types[idx]
	start := l.offsets[idx]
	field := record[start : start+typ.Size()]

	reader := bits.NewReader(bytes.NewReader(field), fileByteOrder)

	switch typ {
	case schema.StringFieldType:
		s, err := reader.ReadPaddedString(schema.MaxStringBytes)
		if err != nil {
			return schema.Null, fmt.Errorf("%w: column %d: %s", dberr.ErrStorageCorruption, idx, err.Error())
		}
		return schema.String(s), nil

	case schema.IntegerFieldType:
		i, err := reader.ReadI32()
		if err != nil {
			return schema.Null, fmt.Errorf("%w: column %d: %s", dberr.ErrStorageCorruption, idx, err.Error())
		}
		return schema.Integer(i), nil

	case schema.BooleanFieldType:
		b, err := reader.ReadU8()
		if err != nil || b > 1 {
			return schema.Null, fmt.Errorf("%w: column %d holds boolean byte %d", dberr.ErrStorageCorruption, idx, b)
		}
		return schema.Boolean(b == 1), nil
	}

	return schema.Null, fmt.Errorf("%w: column %d has type %d", dberr.ErrStorageCorruption, idx, typ)
}
