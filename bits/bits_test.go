package bits

import (
	"bytes"
	"encoding/binary"
	"testing"

	"gotest.tools/v3/assert"
)

func TestPaddedString(t *testing.T) {
	buf := make([]byte, 1+15+4)
	bw := NewEncodeBuffer(buf, binary.BigEndian)

	assert.NilError(t, bw.PutPaddedString("order", 15))
	bw.PutInt32(-2)
	assert.Equal(t, bw.Position(), len(buf))

	assert.DeepEqual(t, buf[:7], []byte{5, 'o', 'r', 'd', 'e', 'r', 0})
	assert.DeepEqual(t, buf[16:], []byte{0xff, 0xff, 0xff, 0xfe})

	reader := NewReader(bytes.NewReader(buf), binary.BigEndian)

	s, err := reader.ReadPaddedString(15)
	assert.NilError(t, err)
	assert.Equal(t, s, "order")

	i, err := reader.ReadI32()
	assert.NilError(t, err)
	assert.Equal(t, i, int32(-2))

	_, err = reader.ReadU8()
	assert.Assert(t, err != nil)
}

func TestPaddedStringTooLong(t *testing.T) {
	bw := NewEncodeBuffer(make([]byte, 16), binary.BigEndian)

	err := bw.PutPaddedString("a_very_long_column", 15)
	assert.ErrorIs(t, err, ErrStringTooLong)
	assert.Equal(t, bw.Position(), 0)
}

func TestBadLengthPrefix(t *testing.T) {
	buf := make([]byte, 16)
	buf[0] = 20

	_, err := NewReader(bytes.NewReader(buf), binary.BigEndian).ReadPaddedString(15)
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestSingleBytes(t *testing.T) {
	buf := make([]byte, 4)
	bw := NewEncodeBuffer(buf, binary.BigEndian)

	bw.PutU8(7)
	bw.PutBool(true)
	bw.PutBool(false)
	assert.Equal(t, bw.Position(), 3)
	assert.DeepEqual(t, buf, []byte{7, 1, 0, 0})

	reader := NewReader(bytes.NewReader(buf), binary.BigEndian)
	for _, want := range []uint8{7, 1, 0} {
		got, err := reader.ReadU8()
		assert.NilError(t, err)
		assert.Equal(t, got, want)
	}
}

func TestWriterOverflowPanics(t *testing.T) {
	bw := NewEncodeBuffer(make([]byte, 3), binary.BigEndian)

	defer func() {
		assert.Assert(t, recover() != nil)
	}()
	bw.PutInt32(1)
}

func TestMask(t *testing.T) {
	var m Mask
	assert.Assert(t, m.IsEmpty())
	assert.Assert(t, !m.IsOccupied())

	m.Set(0)
	m.Set(2)
	assert.Assert(t, m.IsOccupied())
	assert.Assert(t, m.Get(2))
	assert.Assert(t, !m.Get(1))
	assert.Equal(t, m.Count(), 2)
	assert.Assert(t, m.Fits(3))
	assert.Assert(t, !m.Fits(2))

	m.Clear(2)
	assert.Equal(t, m, Mask(1))

	assert.Assert(t, MaskTombstone.IsTombstone())
	assert.Assert(t, !MaskTombstone.IsOccupied())
}
