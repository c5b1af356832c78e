package query

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dot5enko/simple-hash-db/compression"
	"github.com/dot5enko/simple-hash-db/dberr"
	"github.com/dot5enko/simple-hash-db/manager"
)

const fileName = `[a-z0-9_][a-z0-9_]*\.(?:json|xml)(?:\.lz4)?`

var (
	exportPattern = regexp.MustCompile(`(?i)^EXPORT\s+(` + identifier + `)\s+(?:TO\s+(` + fileName + `)|AS\s+(JSON|XML))$`)
	importPattern = regexp.MustCompile(`(?i)^IMPORT\s+(` + fileName + `)(?:\s+TO\s+(` + identifier + `))?$`)
)

func formatOf(name string) (fileFormat, error) {
	switch strings.ToLower(filepath.Ext(compression.TrimExtension(name))) {
	case ".json":
		return jsonFormat, nil
	case ".xml":
		return xmlFormat, nil
	}
	return 0, fmt.Errorf("%w: unknown file type `%s`", ErrSyntax, name)
}

// numbered puts _n before the first dot: letters.json.lz4 -> letters_2.json.lz4
func numbered(name string, n int) string {
	base, ext, _ := strings.Cut(name, ".")
	return fmt.Sprintf("%s_%d.%s", base, n, ext)
}

// EXPORT name AS JSON|XML, EXPORT name TO file
//
// An existing file is never overwritten, the name gets _1, _2, ... instead.
func exportTable(groups []string, db *manager.Manager) (*Result, error) {

	t, err := db.MustFind(groups[1])
	if err != nil {
		return nil, err
	}

	name := groups[2]
	if name == "" {
		name = t.Name() + "." + strings.ToLower(groups[3])
	}

	format, err := formatOf(name)
	if err != nil {
		return nil, err
	}

	snap, err := takeSnapshot(t)
	if err != nil {
		return nil, err
	}

	data, err := snap.encode(format)
	if err != nil {
		return nil, err
	}

	dir := db.Config().ExportPath
	if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
		return nil, fmt.Errorf("unable to create export folder: %w", mkErr)
	}

	path := filepath.Join(dir, name)
	for n := 1; ; n++ {
		writeErr := compression.WriteNewFile(path, data)
		if writeErr == nil {
			break
		}
		if !errors.Is(writeErr, os.ErrExist) {
			return nil, writeErr
		}
		path = filepath.Join(dir, numbered(name, n))
	}

	return &Result{Affected: len(snap.rows), Path: path}, nil
}

// IMPORT file [TO name]
//
// The table is created with the default engine. A taken name gets _1,
// _2, ... instead.
func importTable(groups []string, db *manager.Manager) (*Result, error) {

	format, err := formatOf(groups[1])
	if err != nil {
		return nil, err
	}

	data, err := compression.ReadFile(filepath.Join(db.Config().ExportPath, groups[1]))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: file `%s`", dberr.ErrNotFound, groups[1])
	}
	if err != nil {
		return nil, err
	}

	snap, err := decodeSnapshot(format, data)
	if err != nil {
		return nil, err
	}

	name := snap.name
	if groups[2] != "" {
		name = groups[2]
	}
	if !identOnly.MatchString(name) {
		return nil, fmt.Errorf("%w: bad table name `%s`", dberr.ErrInvalidSchema, name)
	}

	created, err := db.CreateTable(db.FreeName(name), snap.schema, db.DefaultKind())
	if err != nil {
		return nil, err
	}

	for _, row := range snap.rows {
		if _, putErr := created.Put(row); putErr != nil {
			_, dropErr := db.Drop(created.Name())
			return nil, errors.Join(putErr, dropErr)
		}
	}

	if err := db.Sync(created.Name()); err != nil {
		return nil, err
	}

	return &Result{Table: created, Affected: len(snap.rows)}, nil
}
