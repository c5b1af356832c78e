package bits

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	ErrEOF          = errors.New("end of file")
	ErrReadMismatch = errors.New("read size mismatch")
	ErrBadLength    = errors.New("length prefix exceeds field")
)

const MaxBinReaderBufferSize = 256

type BitsReader struct {
	readBuffer [MaxBinReaderBufferSize]byte

	buf   io.Reader
	order binary.ByteOrder
}

func NewReader(buf io.Reader, order binary.ByteOrder) *BitsReader {
	return &BitsReader{buf: buf, order: order}
}

func (r *BitsReader) readNextBytesIntoReadBuffer(size int) error {
	readBytes, err := io.ReadFull(r.buf, r.readBuffer[:size])

	if errors.Is(err, io.EOF) {
		return ErrEOF
	}

	if readBytes != size {
		return ErrReadMismatch
	}

	return err
}

func (r *BitsReader) ReadU8() (uint8, error) {
	err := r.readNextBytesIntoReadBuffer(1)

	if err != nil {
		return 0, err
	}

	return r.readBuffer[0], err
}

func (r *BitsReader) ReadU32() (uint32, error) {
	readErr := r.readNextBytesIntoReadBuffer(4)
	if readErr != nil {
		return 0, readErr
	}
	v := r.order.Uint32(r.readBuffer[:4])
	return v, nil
}

func (r *BitsReader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadPaddedString is the counterpart of BitWriter.PutPaddedString,
// it always consumes 1+maxLen bytes.
func (r *BitsReader) ReadPaddedString(maxLen int) (string, error) {
	length, err := r.ReadU8()
	if err != nil {
		return "", err
	}

	if int(length) > maxLen {
		return "", fmt.Errorf("%w: %d > %d", ErrBadLength, length, maxLen)
	}

	if readErr := r.readNextBytesIntoReadBuffer(maxLen); readErr != nil {
		return "", readErr
	}

	return string(r.readBuffer[:length]), nil
}
