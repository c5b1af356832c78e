package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dot5enko/simple-hash-db/dberr"
	"github.com/dot5enko/simple-hash-db/manager"
	"github.com/dot5enko/simple-hash-db/schema"
	"github.com/dot5enko/simple-hash-db/table"
)

// longest name CREATE TABLE accepts
const MaxTableName = 15

var (
	showTablesPattern  = regexp.MustCompile(`(?i)^SHOW\s+TABLES$`)
	dropTablePattern   = regexp.MustCompile(`(?i)^DROP\s+TABLE\s+(` + identifier + `)$`)
	createTablePattern = regexp.MustCompile(`(?is)^CREATE\s+(TEMPORARY\s+)?TABLE\s+(` + identifier + `)\s*\((.*)\)$`)
)

var tablesSchema = mustSchema([]schema.SchemaColumn{
	{Name: "table_name", Type: schema.StringFieldType},
	{Name: "column_count", Type: schema.IntegerFieldType},
	{Name: "row_count", Type: schema.IntegerFieldType},
}, 0)

func mustSchema(columns []schema.SchemaColumn, primary int) *schema.Schema {
	s, err := schema.New(columns, primary)
	if err != nil {
		panic(err)
	}
	return s
}

// SHOW TABLES
func showTables(_ []string, db *manager.Manager) (*Result, error) {
	resultSet := table.NewMemoryTable("_tables", tablesSchema)

	for _, t := range db.Tables() {
		row := schema.Row{
			schema.String(t.Name()),
			schema.Integer(int32(len(t.Schema().Columns))),
			schema.Integer(int32(t.Size())),
		}
		if _, err := resultSet.Put(row); err != nil {
			return nil, err
		}
	}

	return &Result{Table: resultSet}, nil
}

// DROP TABLE name
func dropTable(groups []string, db *manager.Manager) (*Result, error) {
	rows, err := db.Drop(groups[1])
	if err != nil {
		return nil, err
	}
	return &Result{Affected: rows}, nil
}

// CREATE [TEMPORARY] TABLE name (column type [PRIMARY], ...)
func createTable(groups []string, db *manager.Manager) (*Result, error) {

	temporary := groups[1] != ""
	name := groups[2]

	if len(name) > MaxTableName {
		return nil, fmt.Errorf("%w: table name `%s` longer than %d", dberr.ErrInvalidSchema, name, MaxTableName)
	}
	if db.Exists(name) {
		return nil, fmt.Errorf("%w: table `%s` already exists", dberr.ErrKeyConflict, name)
	}

	defs := splitList(groups[3])
	if len(defs) > schema.MaxColumns {
		return nil, fmt.Errorf("%w: %d columns, max %d", dberr.ErrInvalidSchema, len(defs), schema.MaxColumns)
	}

	columns := make([]schema.SchemaColumn, 0, len(defs))
	primary := -1

	for idx, def := range defs {
		parts := strings.Fields(def)
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("%w: column definition `%s`", ErrSyntax, def)
		}

		if !identOnly.MatchString(parts[0]) {
			return nil, fmt.Errorf("%w: bad column name `%s`", ErrSyntax, parts[0])
		}

		typ, typErr := schema.ParseFieldType(parts[1])
		if typErr != nil {
			return nil, fmt.Errorf("%w: %s", dberr.ErrInvalidSchema, typErr.Error())
		}

		if len(parts) == 3 {
			if !strings.EqualFold(parts[2], "PRIMARY") {
				return nil, fmt.Errorf("%w: unexpected `%s` after column `%s`", ErrSyntax, parts[2], parts[0])
			}
			if primary != -1 {
				return nil, fmt.Errorf("%w: more than one primary column", dberr.ErrInvalidSchema)
			}
			primary = idx
		}

		columns = append(columns, schema.SchemaColumn{Name: parts[0], Type: typ})
	}

	if primary == -1 {
		return nil, fmt.Errorf("%w: no primary column", dberr.ErrInvalidSchema)
	}

	s, err := schema.New(columns, primary)
	if err != nil {
		return nil, err
	}

	kind := db.DefaultKind()
	if temporary {
		kind = table.MemoryEngine
	}

	created, err := db.CreateTable(name, s, kind)
	if err != nil {
		return nil, err
	}

	return &Result{Table: created}, nil
}
