// Package query turns text statements into registry and table calls.
//
// Each statement kind is a driver holding a case-insensitive pattern.
// Interpret tries the drivers in order and runs the first one whose
// pattern matches the whole statement.
package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dot5enko/simple-hash-db/manager"
	"github.com/dot5enko/simple-hash-db/table"
)

var (
	ErrUnrecognized = errors.New("unrecognized query")
	ErrSyntax       = errors.New("syntax error")
)

const identifier = `[a-z][a-z0-9_]*`

// Result is what a statement hands back to the console.
type Result struct {
	// result set, or the table the statement created
	Table table.Table

	// rows touched by statements without a result set
	Affected int

	// file written by EXPORT
	Path string
}

type driver struct {
	name    string
	pattern *regexp.Regexp
	run     func(groups []string, db *manager.Manager) (*Result, error)
}

var drivers = []driver{
	{"show tables", showTablesPattern, showTables},
	{"drop table", dropTablePattern, dropTable},
	{"create table", createTablePattern, createTable},
	{"insert", insertRowPattern, insertRow},
	{"select", selectPattern, selectRows},
	{"export", exportPattern, exportTable},
	{"import", importPattern, importTable},
	{"macro", macroPattern, runMacro},
}

func Interpret(db *manager.Manager, query string) (*Result, error) {

	query = strings.TrimSpace(query)

	for _, d := range drivers {
		groups := d.pattern.FindStringSubmatch(query)
		if groups == nil {
			continue
		}

		res, err := d.run(groups, db)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.name, err)
		}
		return res, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnrecognized, query)
}
