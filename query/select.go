package query

import (
	"fmt"
	"regexp"

	"github.com/dot5enko/simple-hash-db/dberr"
	"github.com/dot5enko/simple-hash-db/manager"
	"github.com/dot5enko/simple-hash-db/schema"
	"github.com/dot5enko/simple-hash-db/table"
)

var (
	selectPattern = regexp.MustCompile(`(?is)^SELECT\s+(.+?)\s+FROM\s+(` + identifier + `)(?:\s+WHERE\s+(` + identifier + `)\s*(<>|<=|>=|=|<|>)\s*(.+?))?$`)
	selectItem    = regexp.MustCompile(`(?i)^(` + identifier + `)(?:\s+AS\s+(` + identifier + `))?$`)
)

type condition struct {
	column   int
	operator string
	value    schema.Value
}

func (c condition) match(row schema.Row) bool {
	cell := row[c.column]
	if cell.IsNull() {
		return false
	}

	cmp := cell.Compare(c.value)

	switch c.operator {
	case "=":
		return cmp == 0
	case "<>":
		return cmp != 0
	case "<":
		return cmp < 0
	case ">":
		return cmp > 0
	case "<=":
		return cmp <= 0
	case ">=":
		return cmp >= 0
	}
	return false
}

// SELECT * | column [AS alias], ... FROM name [WHERE column op literal]
//
// The result set is a memory table called _select. The source primary
// column must be among the selected ones.
func selectRows(groups []string, db *manager.Manager) (*Result, error) {

	t, err := db.MustFind(groups[2])
	if err != nil {
		return nil, err
	}
	source := t.Schema()

	sources, resultSchema, err := projection(source, groups[1])
	if err != nil {
		return nil, err
	}

	resultSet := table.NewMemoryTable("_select", resultSchema)

	var where *condition
	if groups[3] != "" {
		where, err = parseCondition(source, groups[3], groups[4], groups[5])
		if err != nil {
			return nil, err
		}
		// null and mistyped literals match nothing
		if where == nil {
			return &Result{Table: resultSet}, nil
		}
	}

	for row, rowErr := range t.Rows() {
		if rowErr != nil {
			return nil, rowErr
		}

		if where != nil && !where.match(row) {
			continue
		}

		projected := make(schema.Row, len(sources))
		for i, src := range sources {
			projected[i] = row[src]
		}

		if _, putErr := resultSet.Put(projected); putErr != nil {
			return nil, putErr
		}
	}

	return &Result{Table: resultSet}, nil
}

func projection(source *schema.Schema, list string) ([]int, *schema.Schema, error) {

	if list == "*" {
		sources := make([]int, len(source.Columns))
		for i := range sources {
			sources[i] = i
		}
		s, err := schema.New(source.Columns, source.PrimaryIndex)
		return sources, s, err
	}

	var (
		sources []int
		columns []schema.SchemaColumn
		primary = -1
		names   = map[string]bool{}
	)

	for _, item := range splitList(list) {
		parts := selectItem.FindStringSubmatch(item)
		if parts == nil {
			return nil, nil, fmt.Errorf("%w: select item `%s`", ErrSyntax, item)
		}

		idx := source.ColumnIndex(parts[1])
		if idx == -1 {
			return nil, nil, fmt.Errorf("%w: column `%s` does not exist", dberr.ErrNotFound, parts[1])
		}

		name := parts[1]
		if parts[2] != "" {
			name = parts[2]
		}
		if names[name] {
			return nil, nil, fmt.Errorf("%w: result column `%s` is ambiguous", dberr.ErrInvalidSchema, name)
		}
		names[name] = true

		if idx == source.PrimaryIndex && primary == -1 {
			primary = len(columns)
		}

		sources = append(sources, idx)
		columns = append(columns, schema.SchemaColumn{Name: name, Type: source.Columns[idx].Type})
	}

	if primary == -1 {
		return nil, nil, fmt.Errorf("%w: primary column `%s` must be selected", dberr.ErrInvalidSchema, source.Primary().Name)
	}

	s, err := schema.New(columns, primary)
	return sources, s, err
}

// parseCondition returns nil without error when the literal can never
// match the column.
func parseCondition(source *schema.Schema, column, operator, literal string) (*condition, error) {

	idx := source.ColumnIndex(column)
	if idx == -1 {
		return nil, fmt.Errorf("%w: column `%s` does not exist", dberr.ErrNotFound, column)
	}

	v, err := parseLiteral(literal)
	if err != nil {
		return nil, err
	}

	if v.IsNull() || v.Type != source.Columns[idx].Type {
		return nil, nil
	}

	return &condition{column: idx, operator: operator, value: v}, nil
}
