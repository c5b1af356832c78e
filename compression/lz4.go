package compression

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"
)

const Lz4Extension = ".lz4"

func CompressLz4(src []byte, output *bytes.Buffer) error {
	zw := lz4.NewWriter(output)

	if _, writeErr := zw.Write(src); writeErr != nil {
		return writeErr
	}

	flushErr := zw.Flush()

	if flushErr != nil {
		return flushErr
	}

	return zw.Close()
}

func DecompressLz4(input io.Reader) ([]byte, error) {
	zr := lz4.NewReader(input)

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("unable to decompress lz4 stream: %w", err)
	}
	return out, nil
}

// IsCompressed reports whether path names an lz4 file.
func IsCompressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), Lz4Extension)
}

// TrimExtension drops a trailing .lz4 so the inner format can be read off
// the remaining extension.
func TrimExtension(path string) string {
	if IsCompressed(path) {
		return path[:len(path)-len(Lz4Extension)]
	}
	return path
}

// WriteNewFile writes data to a file that must not exist yet, compressing
// it when path ends in .lz4.
func WriteNewFile(path string, data []byte) error {

	payload := data

	if IsCompressed(path) {
		var compressed bytes.Buffer
		if err := CompressLz4(data, &compressed); err != nil {
			return err
		}
		payload = compressed.Bytes()
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}

	if _, writeErr := f.Write(payload); writeErr != nil {
		f.Close()
		return writeErr
	}

	return f.Close()
}

// ReadFile is the counterpart of WriteNewFile.
func ReadFile(path string) ([]byte, error) {
	if !IsCompressed(path) {
		return os.ReadFile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecompressLz4(f)
}
