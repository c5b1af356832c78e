package bits

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrStringTooLong = errors.New("string does not fit its field")

// BitWriter encodes into a fixed slice, typically a window of a mapped file.
// Writing past the end of the slice is a layout bug and panics.
type BitWriter struct {
	pos   int
	data  []byte
	size  int
	order binary.ByteOrder
}

func NewEncodeBuffer(buf []byte, order binary.ByteOrder) BitWriter {

	result := BitWriter{}

	result.data = buf
	result.pos = 0
	result.size = len(buf)
	result.order = order

	return result
}

func (this BitWriter) Position() int {
	return this.pos
}

func (this *BitWriter) Seek(pos int) {
	if pos < 0 || pos > this.size {
		panic(fmt.Sprintf("bit writer seek to %d outside of %d bytes", pos, this.size))
	}
	this.pos = pos
}

func (this *BitWriter) ensure(n int) {
	if (this.pos + n) > this.size {
		panic(fmt.Sprintf("bit writer overflow on pos : %d, writing %d, size : %d", this.pos, n, this.size))
	}
}

// ZeroBytes overwrites the next i bytes with zeroes.
func (this *BitWriter) ZeroBytes(i int) {
	this.ensure(i)
	clear(this.data[this.pos : this.pos+i])
	this.pos += i
}

func (this *BitWriter) PutInt32(v int32) {
	this.ensure(4)
	this.order.PutUint32(this.data[this.pos:], uint32(v))
	this.pos += 4
}

func (this *BitWriter) PutUint16(v uint16) {
	this.ensure(2)
	this.order.PutUint16(this.data[this.pos:], v)
	this.pos += 2
}

func (this *BitWriter) PutU8(u uint8) {
	this.ensure(1)
	this.data[this.pos] = u
	this.pos++
}

func (this *BitWriter) PutBool(b bool) {
	if b {
		this.PutU8(1)
	} else {
		this.PutU8(0)
	}
}

// PutPaddedString writes a one byte length, the payload and zero padding
// up to maxLen payload bytes, 1+maxLen bytes in total.
func (this *BitWriter) PutPaddedString(s string, maxLen int) error {
	if len(s) > maxLen || len(s) > 255 {
		return fmt.Errorf("%w: %d bytes, max %d", ErrStringTooLong, len(s), maxLen)
	}

	this.ensure(1 + maxLen)

	this.PutU8(uint8(len(s)))
	copy(this.data[this.pos:], s)
	this.pos += len(s)
	this.ZeroBytes(maxLen - len(s))

	return nil
}
