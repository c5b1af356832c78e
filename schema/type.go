package schema

import (
	"fmt"
	"strings"
)

// FieldType values double as the on-disk type tag of a column.
type FieldType uint8

const (
	NullFieldType FieldType = iota

	StringFieldType
	IntegerFieldType
	BooleanFieldType
)

const (
	// payload bytes of a string field, the length prefix is extra
	MaxStringBytes = 127

	StringFieldSize  = 1 + MaxStringBytes
	IntegerFieldSize = 4
	BooleanFieldSize = 1
)

func (f FieldType) String() string {
	switch f {
	case NullFieldType:
		return "null"
	case StringFieldType:
		return "string"
	case IntegerFieldType:
		return "integer"
	case BooleanFieldType:
		return "boolean"
	default:
		return ""
	}
}

// Size is the fixed width of a field of this type inside a record.
func (f FieldType) Size() int {
	switch f {
	case StringFieldType:
		return StringFieldSize
	case IntegerFieldType:
		return IntegerFieldSize
	case BooleanFieldType:
		return BooleanFieldSize
	default:
		panic("unknown field type " + f.String())
	}
}

func (f FieldType) Valid() bool {
	return f == StringFieldType || f == IntegerFieldType || f == BooleanFieldType
}

// ParseFieldType accepts the type names used by CREATE TABLE, case-insensitive.
func ParseFieldType(name string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string":
		return StringFieldType, nil
	case "integer":
		return IntegerFieldType, nil
	case "boolean":
		return BooleanFieldType, nil
	}
	return NullFieldType, fmt.Errorf("unknown field type `%s`", name)
}
