package query

import (
	"fmt"
	"regexp"

	"github.com/dot5enko/simple-hash-db/dberr"
	"github.com/dot5enko/simple-hash-db/manager"
	"github.com/dot5enko/simple-hash-db/schema"
	"github.com/dot5enko/simple-hash-db/table"
)

var macroPattern = regexp.MustCompile(`(?i)^MACRO\s+(\w+)$`)

var macroLetters = []schema.SchemaColumn{
	{Name: "letter", Type: schema.StringFieldType},
	{Name: "order", Type: schema.IntegerFieldType},
	{Name: "vowel", Type: schema.BooleanFieldType},
}

// MACRO 1 registers macro_1, seven rows of sample data in memory.
func runMacro(groups []string, db *manager.Manager) (*Result, error) {

	if groups[1] != "1" {
		return nil, fmt.Errorf("%w: macro `%s` is undefined", dberr.ErrNotFound, groups[1])
	}

	s, err := schema.New(macroLetters, 0)
	if err != nil {
		return nil, err
	}

	created, err := db.CreateTable("macro_1", s, table.MemoryEngine)
	if err != nil {
		return nil, err
	}

	rows := []schema.Row{
		{schema.String("alpha"), schema.Integer(1), schema.Boolean(true)},
		{schema.String("beta"), schema.Integer(2), schema.Boolean(false)},
		{schema.String("gamma"), schema.Integer(3), schema.Boolean(false)},
		{schema.String("delta"), schema.Integer(4), schema.Boolean(false)},
		{schema.String("tau"), schema.Integer(19), schema.Boolean(false)},
		{schema.String("pi"), schema.Integer(16), schema.Boolean(false)},
		{schema.String("omega"), schema.Null, schema.Null},
	}

	for _, row := range rows {
		if _, putErr := created.Put(row); putErr != nil {
			return nil, putErr
		}
	}

	return &Result{Table: created}, nil
}
