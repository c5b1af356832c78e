package schema

import (
	"strconv"
	"strings"
)

// Value is one cell. Only the field matching Type is meaningful,
// NullFieldType marks an explicit null.
type Value struct {
	Type FieldType

	S string
	I int32
	B bool
}

var Null = Value{}

func String(s string) Value { return Value{Type: StringFieldType, S: s} }
func Integer(i int32) Value { return Value{Type: IntegerFieldType, I: i} }
func Boolean(b bool) Value  { return Value{Type: BooleanFieldType, B: b} }

func (v Value) IsNull() bool {
	return v.Type == NullFieldType
}

func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case StringFieldType:
		return v.S == other.S
	case IntegerFieldType:
		return v.I == other.I
	case BooleanFieldType:
		return v.B == other.B
	}
	return true
}

// Compare orders two values of the same type, false sorts before true.
func (v Value) Compare(other Value) int {
	switch v.Type {
	case StringFieldType:
		return strings.Compare(v.S, other.S)
	case IntegerFieldType:
		switch {
		case v.I < other.I:
			return -1
		case v.I > other.I:
			return 1
		}
		return 0
	case BooleanFieldType:
		switch {
		case v.B == other.B:
			return 0
		case !v.B:
			return -1
		}
		return 1
	}
	return 0
}

// Any converts to the plain Go value, nil for null.
func (v Value) Any() any {
	switch v.Type {
	case StringFieldType:
		return v.S
	case IntegerFieldType:
		return v.I
	case BooleanFieldType:
		return v.B
	}
	return nil
}

func (v Value) String() string {
	switch v.Type {
	case StringFieldType:
		return strconv.Quote(v.S)
	case IntegerFieldType:
		return strconv.FormatInt(int64(v.I), 10)
	case BooleanFieldType:
		return strconv.FormatBool(v.B)
	}
	return "null"
}

type Row []Value

func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for idx := range r {
		if !r[idx].Equal(other[idx]) {
			return false
		}
	}
	return true
}

func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

func (r Row) String() string {
	parts := make([]string, len(r))
	for idx, v := range r {
		parts[idx] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
