package compression

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

func TestCompressedFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	payload := bytes.Repeat([]byte(`{"letter":"alpha","order":1}`), 200)

	path := filepath.Join(dir, "letters.json.lz4")
	assert.NilError(t, WriteNewFile(path, payload))

	raw, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Assert(t, len(raw) < len(payload))

	got, err := ReadFile(path)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, payload)

	// never overwrites
	err = WriteNewFile(path, payload)
	assert.Assert(t, os.IsExist(err))
}

func TestPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "letters.xml")
	assert.NilError(t, WriteNewFile(path, []byte("<table/>")))

	got, err := ReadFile(path)
	assert.NilError(t, err)
	assert.Equal(t, string(got), "<table/>")
}

func TestTrimExtension(t *testing.T) {
	assert.Equal(t, TrimExtension("a.json.LZ4"), "a.json")
	assert.Equal(t, TrimExtension("a.xml"), "a.xml")
	assert.Assert(t, !IsCompressed("a.json"))
}
