package query

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dot5enko/simple-hash-db/dberr"
	"github.com/dot5enko/simple-hash-db/manager"
	"github.com/dot5enko/simple-hash-db/schema"
	"github.com/dot5enko/simple-hash-db/table"
	"gotest.tools/v3/assert"
)

func newTestDB(t *testing.T) *manager.Manager {
	dir := t.TempDir()

	db := manager.New(manager.ManagerConfig{
		PathToStorage: filepath.Join(dir, "storage"),
		ExportPath:    filepath.Join(dir, "exported"),
		Persistent:    true,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(func() { db.Close() })

	return db
}

func run(t *testing.T, db *manager.Manager, queries ...string) *Result {
	t.Helper()

	var res *Result
	for _, q := range queries {
		var err error
		res, err = Interpret(db, q)
		assert.NilError(t, err, q)
	}
	return res
}

func rowsOf(t *testing.T, tbl table.Table) map[string]schema.Row {
	t.Helper()

	out := map[string]schema.Row{}
	for row, err := range tbl.Rows() {
		assert.NilError(t, err)
		out[row[tbl.Schema().PrimaryIndex].String()] = row
	}
	return out
}

func TestCreateInsertSelect(t *testing.T) {
	db := newTestDB(t)

	res := run(t, db,
		`CREATE TABLE letters (letter string PRIMARY, order integer, vowel boolean)`,
		`INSERT INTO letters VALUES ("alpha", 1, true)`,
		`INSERT INTO letters (vowel, letter) VALUES (false, "beta")`,
		`REPLACE INTO letters VALUES ("gamma", 3, false)`,
		`SELECT letter AS l, order FROM letters WHERE order >= 1`,
	)

	assert.Equal(t, res.Table.Name(), "_select")
	assert.DeepEqual(t, res.Table.Schema().ColumnNames(), []string{"l", "order"})

	rows := rowsOf(t, res.Table)
	assert.Equal(t, len(rows), 2)
	assert.DeepEqual(t, rows[`"alpha"`], schema.Row{schema.String("alpha"), schema.Integer(1)})
	assert.DeepEqual(t, rows[`"gamma"`], schema.Row{schema.String("gamma"), schema.Integer(3)})

	letters, ok := db.Find("letters")
	assert.Assert(t, ok)
	assert.Equal(t, letters.Kind(), table.FileEngine)

	beta, found, err := letters.Get(schema.String("beta"))
	assert.NilError(t, err)
	assert.Assert(t, found)
	assert.Assert(t, beta[1].IsNull())
}

func TestCreateErrors(t *testing.T) {
	db := newTestDB(t)

	run(t, db, `CREATE TEMPORARY TABLE letters (letter string PRIMARY)`)

	cases := []struct {
		query string
		want  error
	}{
		{`CREATE TABLE letters (letter string PRIMARY)`, dberr.ErrKeyConflict},
		{`CREATE TABLE nokey (letter string)`, dberr.ErrInvalidSchema},
		{`CREATE TABLE twokeys (a string PRIMARY, b integer PRIMARY)`, dberr.ErrInvalidSchema},
		{`CREATE TABLE dup (a string PRIMARY, a integer)`, dberr.ErrInvalidSchema},
		{`CREATE TABLE badtype (a float PRIMARY)`, dberr.ErrInvalidSchema},
		{`CREATE TABLE a_very_long_name_x (a string PRIMARY)`, dberr.ErrInvalidSchema},
		{`CREATE TABLE cols (a string PRIMARY, b string UNIQUE)`, ErrSyntax},
		{`CREATE TABLE wide (a integer PRIMARY, b integer, c integer, d integer, e integer, f integer, g integer, h integer, i integer, j integer, k integer, l integer, m integer, n integer, o integer, p integer)`, dberr.ErrInvalidSchema},
	}

	for _, c := range cases {
		_, err := Interpret(db, c.query)
		assert.ErrorIs(t, err, c.want, c.query)
	}

	letters, _ := db.Find("letters")
	assert.Equal(t, letters.Kind(), table.MemoryEngine)
}

func TestInsertErrors(t *testing.T) {
	db := newTestDB(t)
	run(t, db,
		`CREATE TABLE letters (letter string PRIMARY, order integer, vowel boolean)`,
		`INSERT INTO letters VALUES ("alpha", 1, true)`,
	)

	cases := []struct {
		query string
		want  error
	}{
		{`INSERT INTO letters VALUES ("alpha", 2, true)`, dberr.ErrKeyConflict},
		{`INSERT INTO missing VALUES ("alpha", 2, true)`, dberr.ErrNotFound},
		{`INSERT INTO letters VALUES ("beta", 2)`, dberr.ErrMalformedRow},
		{`INSERT INTO letters VALUES (null, 2, true)`, dberr.ErrMalformedRow},
		{`INSERT INTO letters VALUES ("beta", true, true)`, dberr.ErrMalformedRow},
		{`INSERT INTO letters VALUES ("beta", 02, true)`, dberr.ErrMalformedRow},
		{`INSERT INTO letters VALUES ("beta", 9999999999, true)`, dberr.ErrMalformedRow},
		{`INSERT INTO letters (order) VALUES (2)`, dberr.ErrMalformedRow},
		{`INSERT INTO letters (letter, nope) VALUES ("b", 2)`, dberr.ErrMalformedRow},
		{`INSERT INTO letters VALUES ("beta", 2, maybe)`, ErrSyntax},
	}

	for _, c := range cases {
		_, err := Interpret(db, c.query)
		assert.ErrorIs(t, err, c.want, c.query)
	}

	res := run(t, db, `REPLACE INTO letters VALUES ("alpha", 5, false)`)
	assert.Equal(t, res.Affected, 1)

	letters, _ := db.Find("letters")
	assert.Equal(t, letters.Size(), 1)
	row, _, err := letters.Get(schema.String("alpha"))
	assert.NilError(t, err)
	assert.Equal(t, row[1].I, int32(5))
}

func TestStringsWithCommas(t *testing.T) {
	db := newTestDB(t)
	run(t, db,
		`CREATE TABLE notes (id integer PRIMARY, body string)`,
		`INSERT INTO notes VALUES (-7, "one, two")`,
	)

	notes, _ := db.Find("notes")
	row, found, err := notes.Get(schema.Integer(-7))
	assert.NilError(t, err)
	assert.Assert(t, found)
	assert.Equal(t, row[1].S, "one, two")
}

func TestSelectWhere(t *testing.T) {
	db := newTestDB(t)
	run(t, db, `MACRO 1`)

	count := func(q string) int {
		res := run(t, db, q)
		return res.Table.Size()
	}

	assert.Equal(t, count(`SELECT * FROM macro_1`), 7)
	assert.Equal(t, count(`SELECT * FROM macro_1 WHERE order < 4`), 3)
	assert.Equal(t, count(`SELECT * FROM macro_1 WHERE order <> 19`), 5)
	assert.Equal(t, count(`SELECT * FROM macro_1 WHERE vowel = true`), 1)
	assert.Equal(t, count(`SELECT * FROM macro_1 WHERE letter > "o"`), 3)
	assert.Equal(t, count(`SELECT * FROM macro_1 WHERE letter = null`), 0)
	assert.Equal(t, count(`SELECT * FROM macro_1 WHERE order = "one"`), 0)

	_, err := Interpret(db, `SELECT order FROM macro_1`)
	assert.ErrorIs(t, err, dberr.ErrInvalidSchema)

	_, err = Interpret(db, `SELECT letter, order AS letter FROM macro_1`)
	assert.ErrorIs(t, err, dberr.ErrInvalidSchema)

	_, err = Interpret(db, `SELECT letter, nope FROM macro_1`)
	assert.ErrorIs(t, err, dberr.ErrNotFound)

	_, err = Interpret(db, `SELECT * FROM nothing`)
	assert.ErrorIs(t, err, dberr.ErrNotFound)
}

func TestShowAndDrop(t *testing.T) {
	db := newTestDB(t)
	run(t, db,
		`MACRO 1`,
		`CREATE TABLE empty (id integer PRIMARY, label string)`,
	)

	res := run(t, db, `show tables`)
	assert.Equal(t, res.Table.Name(), "_tables")

	rows := rowsOf(t, res.Table)
	assert.DeepEqual(t, rows[`"macro_1"`], schema.Row{schema.String("macro_1"), schema.Integer(3), schema.Integer(7)})
	assert.DeepEqual(t, rows[`"empty"`], schema.Row{schema.String("empty"), schema.Integer(2), schema.Integer(0)})

	res = run(t, db, `DROP TABLE macro_1`)
	assert.Equal(t, res.Affected, 7)
	assert.Assert(t, !db.Exists("macro_1"))

	_, err := Interpret(db, `DROP TABLE macro_1`)
	assert.ErrorIs(t, err, dberr.ErrNotFound)

	_, err = Interpret(db, `MACRO 9`)
	assert.ErrorIs(t, err, dberr.ErrNotFound)
}

func TestUnrecognized(t *testing.T) {
	db := newTestDB(t)

	_, err := Interpret(db, `FLY TO THE MOON`)
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestExportImport(t *testing.T) {
	for _, name := range []string{"macro_1.json", "macro_1.xml", "macro_1.json.lz4", "macro_1.xml.lz4"} {
		t.Run(name, func(t *testing.T) {
			db := newTestDB(t)
			run(t, db, `MACRO 1`)

			res := run(t, db, `EXPORT macro_1 TO `+name)
			assert.Equal(t, res.Affected, 7)
			assert.Equal(t, res.Path, filepath.Join(db.Config().ExportPath, name))

			res = run(t, db, `IMPORT `+name)
			assert.Equal(t, res.Table.Name(), "macro_1_1")
			assert.Equal(t, res.Table.Kind(), table.FileEngine)

			source, _ := db.Find("macro_1")
			assert.Assert(t, res.Table.Schema().Equal(source.Schema()))
			assert.DeepEqual(t, rowsOf(t, res.Table), rowsOf(t, source))

			omega := rowsOf(t, res.Table)[`"omega"`]
			assert.Assert(t, omega[1].IsNull())
			assert.Assert(t, omega[2].IsNull())

			res = run(t, db, `IMPORT `+name+` TO copied`)
			assert.Equal(t, res.Table.Name(), "copied")
			assert.Equal(t, res.Table.Size(), 7)
		})
	}
}

func TestExportNeverOverwrites(t *testing.T) {
	db := newTestDB(t)
	run(t, db, `MACRO 1`)

	first := run(t, db, `EXPORT macro_1 AS JSON`)
	second := run(t, db, `EXPORT macro_1 AS json`)
	third := run(t, db, `EXPORT macro_1 TO macro_1.json`)

	dir := db.Config().ExportPath
	assert.Equal(t, first.Path, filepath.Join(dir, "macro_1.json"))
	assert.Equal(t, second.Path, filepath.Join(dir, "macro_1_1.json"))
	assert.Equal(t, third.Path, filepath.Join(dir, "macro_1_2.json"))
}

func TestImportErrors(t *testing.T) {
	db := newTestDB(t)

	_, err := Interpret(db, `IMPORT missing.json`)
	assert.ErrorIs(t, err, dberr.ErrNotFound)

	dir := db.Config().ExportPath
	assert.NilError(t, os.MkdirAll(dir, 0755))

	broken := `{"schema":{"table_name":"b","column_names":["id"],"column_types":["integer"],"primary_index":0},"state":[["x"]]}`
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(broken), 0644))

	_, err = Interpret(db, `IMPORT broken.json`)
	assert.ErrorIs(t, err, dberr.ErrMalformedRow)
	assert.Assert(t, !db.Exists("b"))

	noKey := `{"schema":{"table_name":"b","column_names":["id"],"column_types":["integer"],"primary_index":3},"state":[]}`
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "nokey.json"), []byte(noKey), 0644))

	_, err = Interpret(db, `IMPORT nokey.json`)
	assert.ErrorIs(t, err, dberr.ErrInvalidSchema)
}

func TestParseLiteral(t *testing.T) {
	cases := map[string]schema.Value{
		`"alpha"`: schema.String("alpha"),
		`""`:      schema.String(""),
		`42`:      schema.Integer(42),
		`-42`:     schema.Integer(-42),
		`0`:       schema.Integer(0),
		`TRUE`:    schema.Boolean(true),
		`false`:   schema.Boolean(false),
		`Null`:    schema.Null,
	}

	for text, want := range cases {
		got, err := parseLiteral(text)
		assert.NilError(t, err, text)
		assert.Equal(t, got, want, text)
	}
}

func TestSplitList(t *testing.T) {
	assert.DeepEqual(t, splitList(` a , "b, c" ,d`), []string{"a", `"b, c"`, "d"})
	assert.DeepEqual(t, splitList(`x`), []string{"x"})
}
