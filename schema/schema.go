package schema

import (
	"fmt"

	"github.com/dot5enko/simple-hash-db/dberr"
)

const MaxColumns = 15

// Schema is fixed for the lifetime of a table.
type Schema struct {
	Columns      []SchemaColumn `json:"columns"`
	PrimaryIndex int            `json:"primary_index"`
}

func New(columns []SchemaColumn, primaryIndex int) (*Schema, error) {

	if len(columns) < 1 || len(columns) > MaxColumns {
		return nil, fmt.Errorf("%w: %d columns, expected 1..%d", dberr.ErrInvalidSchema, len(columns), MaxColumns)
	}

	seen := make(map[string]struct{}, len(columns))

	for idx, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("%w: column %d has no name", dberr.ErrInvalidSchema, idx)
		}
		if _, dup := seen[col.Name]; dup {
			return nil, fmt.Errorf("%w: column `%s` declared twice", dberr.ErrInvalidSchema, col.Name)
		}
		seen[col.Name] = struct{}{}

		if !col.Type.Valid() {
			return nil, fmt.Errorf("%w: column `%s` has unsupported type %d", dberr.ErrInvalidSchema, col.Name, col.Type)
		}
	}

	if primaryIndex < 0 || primaryIndex >= len(columns) {
		return nil, fmt.Errorf("%w: primary index %d out of range", dberr.ErrInvalidSchema, primaryIndex)
	}

	cols := make([]SchemaColumn, len(columns))
	copy(cols, columns)

	return &Schema{Columns: cols, PrimaryIndex: primaryIndex}, nil
}

func (s *Schema) Primary() SchemaColumn {
	return s.Columns[s.PrimaryIndex]
}

// ColumnIndex returns -1 when there is no such column.
func (s *Schema) ColumnIndex(name string) int {
	for idx, col := range s.Columns {
		if col.Name == name {
			return idx
		}
	}
	return -1
}

func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for idx, col := range s.Columns {
		names[idx] = col.Name
	}
	return names
}

func (s *Schema) Equal(other *Schema) bool {
	if s.PrimaryIndex != other.PrimaryIndex || len(s.Columns) != len(other.Columns) {
		return false
	}
	for idx := range s.Columns {
		if s.Columns[idx] != other.Columns[idx] {
			return false
		}
	}
	return true
}

// CheckKey validates a lookup key against the primary column.
func (s *Schema) CheckKey(key Value) error {
	primary := s.Primary()

	if key.IsNull() {
		return fmt.Errorf("%w: primary column `%s` cannot be null", dberr.ErrMalformedRow, primary.Name)
	}
	if key.Type != primary.Type {
		return fmt.Errorf("%w: key %s is not of type %s", dberr.ErrMalformedRow, key, primary.Type)
	}
	return nil
}

// CheckRow validates arity, the primary value, every cell type and string
// lengths.
func (s *Schema) CheckRow(row Row) error {

	if len(row) != len(s.Columns) {
		return fmt.Errorf("%w: %d values for %d columns", dberr.ErrMalformedRow, len(row), len(s.Columns))
	}

	for idx, col := range s.Columns {
		cell := row[idx]

		if cell.IsNull() {
			if idx == s.PrimaryIndex {
				return fmt.Errorf("%w: primary column `%s` cannot be null", dberr.ErrMalformedRow, col.Name)
			}
			continue
		}

		if cell.Type != col.Type {
			return fmt.Errorf("%w: column `%s` expects %s, got %s", dberr.ErrMalformedRow, col.Name, col.Type, cell.Type)
		}

		if cell.Type == StringFieldType && len(cell.S) > MaxStringBytes {
			return fmt.Errorf("%w: string of %d bytes in column `%s`, max %d", dberr.ErrMalformedRow, len(cell.S), col.Name, MaxStringBytes)
		}
	}

	return nil
}
