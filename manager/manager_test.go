package manager

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/dot5enko/simple-hash-db/dberr"
	"github.com/dot5enko/simple-hash-db/schema"
	"github.com/dot5enko/simple-hash-db/table"
	"gotest.tools/v3/assert"
)

func newTestManager(t *testing.T, dir string) *Manager {
	m := New(ManagerConfig{
		PathToStorage: dir,
		Persistent:    true,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(func() { m.Close() })
	return m
}

func lettersSchema(t *testing.T) *schema.Schema {
	s, err := schema.New([]schema.SchemaColumn{
		{Name: "letter", Type: schema.StringFieldType},
		{Name: "order", Type: schema.IntegerFieldType},
	}, 0)
	assert.NilError(t, err)
	return s
}

func TestCreateFindDrop(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir)

	assert.Equal(t, m.DefaultKind(), table.FileEngine)

	created, err := m.CreateTable("letters", lettersSchema(t), table.FileEngine)
	assert.NilError(t, err)
	_, err = created.Put(schema.Row{schema.String("alpha"), schema.Integer(1)})
	assert.NilError(t, err)

	_, err = m.CreateTable("letters", lettersSchema(t), table.MemoryEngine)
	assert.ErrorIs(t, err, dberr.ErrKeyConflict)

	found, ok := m.Find("letters")
	assert.Assert(t, ok)
	assert.Equal(t, found, created)
	assert.Assert(t, m.Exists("letters"))

	_, err = os.Stat(table.FilePath(dir, "letters"))
	assert.NilError(t, err)

	rows, err := m.Drop("letters")
	assert.NilError(t, err)
	assert.Equal(t, rows, 1)
	assert.Assert(t, !m.Exists("letters"))

	_, err = os.Stat(table.FilePath(dir, "letters"))
	assert.Assert(t, os.IsNotExist(err))

	_, err = m.Drop("letters")
	assert.ErrorIs(t, err, dberr.ErrNotFound)

	_, err = m.MustFind("letters")
	assert.ErrorIs(t, err, dberr.ErrNotFound)
}

func TestTablesAreSorted(t *testing.T) {
	m := newTestManager(t, t.TempDir())

	for _, name := range []string{"gamma", "alpha", "beta"} {
		_, err := m.CreateTable(name, lettersSchema(t), table.MemoryEngine)
		assert.NilError(t, err)
	}

	var names []string
	for _, tbl := range m.Tables() {
		names = append(names, tbl.Name())
	}
	assert.DeepEqual(t, names, []string{"alpha", "beta", "gamma"})
}

func TestFreeName(t *testing.T) {
	m := newTestManager(t, t.TempDir())

	assert.Equal(t, m.FreeName("letters"), "letters")

	for _, name := range []string{"letters", "letters_1"} {
		_, err := m.CreateTable(name, lettersSchema(t), table.MemoryEngine)
		assert.NilError(t, err)
	}

	assert.Equal(t, m.FreeName("letters"), "letters_2")
}

func TestLoadTablesFromDisk(t *testing.T) {
	dir := t.TempDir()

	first := newTestManager(t, dir)
	created, err := first.CreateTable("letters", lettersSchema(t), table.FileEngine)
	assert.NilError(t, err)
	_, err = created.Put(schema.Row{schema.String("alpha"), schema.Integer(1)})
	assert.NilError(t, err)

	_, err = first.CreateTable("scratch", lettersSchema(t), table.MemoryEngine)
	assert.NilError(t, err)
	assert.NilError(t, first.Close())

	// junk next to the table files is skipped
	assert.NilError(t, os.WriteFile(table.FilePath(dir, "broken"), []byte("nope"), 0644))

	second := newTestManager(t, dir)
	assert.NilError(t, second.LoadTablesFromDisk())

	assert.Assert(t, !second.Exists("scratch"))
	assert.Assert(t, !second.Exists("broken"))

	loaded, ok := second.Find("letters")
	assert.Assert(t, ok)
	assert.Equal(t, loaded.Kind(), table.FileEngine)

	row, found, err := loaded.Get(schema.String("alpha"))
	assert.NilError(t, err)
	assert.Assert(t, found)
	assert.Equal(t, row[1].I, int32(1))
}

func TestLoadRemovesRehashLeftovers(t *testing.T) {
	dir := t.TempDir()

	first := newTestManager(t, dir)
	_, err := first.CreateTable("letters", lettersSchema(t), table.FileEngine)
	assert.NilError(t, err)
	assert.NilError(t, first.Close())

	leftover := table.FilePath(dir, "letters") + ".0b7e1c3a" + table.RehashSuffix
	assert.NilError(t, os.WriteFile(leftover, []byte("half written"), 0644))

	second := newTestManager(t, dir)
	assert.NilError(t, second.LoadTablesFromDisk())

	_, err = os.Stat(leftover)
	assert.Assert(t, os.IsNotExist(err))
	assert.Assert(t, second.Exists("letters"))
}

func TestSync(t *testing.T) {
	m := newTestManager(t, t.TempDir())

	stored, err := m.CreateTable("letters", lettersSchema(t), table.FileEngine)
	assert.NilError(t, err)
	_, err = stored.Put(schema.Row{schema.String("alpha"), schema.Integer(1)})
	assert.NilError(t, err)
	assert.NilError(t, m.Sync("letters"))

	_, err = m.CreateTable("scratch", lettersSchema(t), table.MemoryEngine)
	assert.NilError(t, err)
	assert.NilError(t, m.Sync("scratch"))

	assert.ErrorIs(t, m.Sync("missing"), dberr.ErrNotFound)
}

func TestLoadFromMissingFolder(t *testing.T) {
	m := newTestManager(t, t.TempDir()+"/missing")
	assert.NilError(t, m.LoadTablesFromDisk())
	assert.Equal(t, len(m.Tables()), 0)
}

func TestConcurrentOpenMapsOnce(t *testing.T) {
	dir := t.TempDir()

	first := newTestManager(t, dir)
	_, err := first.CreateTable("letters", lettersSchema(t), table.FileEngine)
	assert.NilError(t, err)
	assert.NilError(t, first.Close())

	m := newTestManager(t, dir)

	var wg sync.WaitGroup
	opened := make([]table.Table, 8)
	errs := make([]error, 8)

	for i := range opened {
		wg.Add(1)
		go func() {
			defer wg.Done()
			opened[i], errs[i] = m.Open("letters")
		}()
	}
	wg.Wait()

	for i := range opened {
		assert.NilError(t, errs[i])
		assert.Equal(t, opened[i], opened[0])
	}
}
