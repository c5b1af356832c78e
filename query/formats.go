package query

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/dot5enko/simple-hash-db/dberr"
	"github.com/dot5enko/simple-hash-db/schema"
	"github.com/dot5enko/simple-hash-db/table"
)

type fileFormat uint8

const (
	jsonFormat fileFormat = iota
	xmlFormat
)

// a table dumped to a file: name, schema, live rows
type snapshot struct {
	name   string
	schema *schema.Schema
	rows   []schema.Row
}

func takeSnapshot(t table.Table) (snapshot, error) {
	rows, err := table.CollectRows(t)
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{name: t.Name(), schema: t.Schema(), rows: rows}, nil
}

func (s snapshot) encode(format fileFormat) ([]byte, error) {
	if format == xmlFormat {
		return s.encodeXML()
	}
	return s.encodeJSON()
}

func decodeSnapshot(format fileFormat, data []byte) (snapshot, error) {
	if format == xmlFormat {
		return decodeXML(data)
	}
	return decodeJSON(data)
}

func columnsFromNames(names, types []string) ([]schema.SchemaColumn, error) {
	if len(names) != len(types) {
		return nil, fmt.Errorf("%w: %d column names for %d types", dberr.ErrInvalidSchema, len(names), len(types))
	}

	columns := make([]schema.SchemaColumn, len(names))
	for i := range names {
		typ, err := schema.ParseFieldType(types[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", dberr.ErrInvalidSchema, err.Error())
		}
		columns[i] = schema.SchemaColumn{Name: names[i], Type: typ}
	}
	return columns, nil
}

type jsonSchema struct {
	TableName    string   `json:"table_name"`
	ColumnNames  []string `json:"column_names"`
	ColumnTypes  []string `json:"column_types"`
	PrimaryIndex int      `json:"primary_index"`
}

type jsonDocument struct {
	Schema jsonSchema `json:"schema"`
	State  [][]any    `json:"state"`
}

func (s snapshot) encodeJSON() ([]byte, error) {
	doc := jsonDocument{
		Schema: jsonSchema{
			TableName:    s.name,
			PrimaryIndex: s.schema.PrimaryIndex,
		},
		State: make([][]any, 0, len(s.rows)),
	}

	for _, col := range s.schema.Columns {
		doc.Schema.ColumnNames = append(doc.Schema.ColumnNames, col.Name)
		doc.Schema.ColumnTypes = append(doc.Schema.ColumnTypes, col.Type.String())
	}

	for _, row := range s.rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v.Any()
		}
		doc.State = append(doc.State, cells)
	}

	return json.MarshalIndent(doc, "", "  ")
}

func decodeJSON(data []byte) (snapshot, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var doc jsonDocument
	if err := decoder.Decode(&doc); err != nil {
		return snapshot{}, fmt.Errorf("%w: %s", ErrSyntax, err.Error())
	}

	columns, err := columnsFromNames(doc.Schema.ColumnNames, doc.Schema.ColumnTypes)
	if err != nil {
		return snapshot{}, err
	}

	s, err := schema.New(columns, doc.Schema.PrimaryIndex)
	if err != nil {
		return snapshot{}, err
	}

	out := snapshot{name: doc.Schema.TableName, schema: s, rows: make([]schema.Row, 0, len(doc.State))}

	for rowIdx, cells := range doc.State {
		if len(cells) != len(columns) {
			return snapshot{}, fmt.Errorf("%w: row %d has %d fields", dberr.ErrMalformedRow, rowIdx, len(cells))
		}

		row := make(schema.Row, len(cells))
		for i, cell := range cells {
			v, cellErr := jsonCell(columns[i].Type, cell)
			if cellErr != nil {
				return snapshot{}, fmt.Errorf("row %d column `%s`: %w", rowIdx, columns[i].Name, cellErr)
			}
			row[i] = v
		}
		out.rows = append(out.rows, row)
	}

	return out, nil
}

func jsonCell(typ schema.FieldType, cell any) (schema.Value, error) {
	if cell == nil {
		return schema.Null, nil
	}

	switch v := cell.(type) {
	case string:
		if typ == schema.StringFieldType {
			return schema.String(v), nil
		}
	case json.Number:
		if typ == schema.IntegerFieldType {
			i, err := strconv.ParseInt(v.String(), 10, 32)
			if err != nil {
				return schema.Null, fmt.Errorf("%w: integer %s", dberr.ErrMalformedRow, v)
			}
			return schema.Integer(int32(i)), nil
		}
	case bool:
		if typ == schema.BooleanFieldType {
			return schema.Boolean(v), nil
		}
	}

	return schema.Null, fmt.Errorf("%w: %v is not %s", dberr.ErrMalformedRow, cell, typ)
}

type xmlTable struct {
	XMLName xml.Name   `xml:"table"`
	Name    string     `xml:"name,attr"`
	Columns xmlColumns `xml:"schema>columns"`
	Rows    []xmlRow   `xml:"state>row"`
}

type xmlColumns struct {
	Primary int         `xml:"primary,attr"`
	Column  []xmlColumn `xml:"column"`
}

type xmlColumn struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
}

type xmlRow struct {
	Fields []xmlField `xml:"field"`
}

type xmlField struct {
	Null  string `xml:"null,attr,omitempty"`
	Value string `xml:",chardata"`
}

func (s snapshot) encodeXML() ([]byte, error) {
	doc := xmlTable{
		Name:    s.name,
		Columns: xmlColumns{Primary: s.schema.PrimaryIndex},
		Rows:    make([]xmlRow, 0, len(s.rows)),
	}

	for _, col := range s.schema.Columns {
		doc.Columns.Column = append(doc.Columns.Column, xmlColumn{Name: col.Name, Type: col.Type.String()})
	}

	for _, row := range s.rows {
		fields := make([]xmlField, len(row))
		for i, v := range row {
			switch v.Type {
			case schema.NullFieldType:
				fields[i] = xmlField{Null: "yes"}
			case schema.StringFieldType:
				fields[i] = xmlField{Value: v.S}
			default:
				fields[i] = xmlField{Value: v.String()}
			}
		}
		doc.Rows = append(doc.Rows, xmlRow{Fields: fields})
	}

	return xml.MarshalIndent(doc, "", "  ")
}

func decodeXML(data []byte) (snapshot, error) {
	var doc xmlTable
	if err := xml.Unmarshal(data, &doc); err != nil {
		return snapshot{}, fmt.Errorf("%w: %s", ErrSyntax, err.Error())
	}

	names := make([]string, len(doc.Columns.Column))
	types := make([]string, len(doc.Columns.Column))
	for i, col := range doc.Columns.Column {
		names[i] = col.Name
		types[i] = col.Type
	}

	columns, err := columnsFromNames(names, types)
	if err != nil {
		return snapshot{}, err
	}

	s, err := schema.New(columns, doc.Columns.Primary)
	if err != nil {
		return snapshot{}, err
	}

	out := snapshot{name: doc.Name, schema: s, rows: make([]schema.Row, 0, len(doc.Rows))}

	for rowIdx, xr := range doc.Rows {
		if len(xr.Fields) != len(columns) {
			return snapshot{}, fmt.Errorf("%w: row %d has %d fields", dberr.ErrMalformedRow, rowIdx, len(xr.Fields))
		}

		row := make(schema.Row, len(columns))
		for i, field := range xr.Fields {
			v, cellErr := xmlCell(columns[i].Type, field)
			if cellErr != nil {
				return snapshot{}, fmt.Errorf("row %d column `%s`: %w", rowIdx, columns[i].Name, cellErr)
			}
			row[i] = v
		}
		out.rows = append(out.rows, row)
	}

	return out, nil
}

func xmlCell(typ schema.FieldType, field xmlField) (schema.Value, error) {
	if field.Null != "" {
		return schema.Null, nil
	}

	switch typ {
	case schema.StringFieldType:
		return schema.String(field.Value), nil

	case schema.IntegerFieldType:
		i, err := strconv.ParseInt(strings.TrimSpace(field.Value), 10, 32)
		if err != nil {
			return schema.Null, fmt.Errorf("%w: integer `%s`", dberr.ErrMalformedRow, field.Value)
		}
		return schema.Integer(int32(i)), nil

	case schema.BooleanFieldType:
		switch strings.ToLower(strings.TrimSpace(field.Value)) {
		case "true":
			return schema.Boolean(true), nil
		case "false":
			return schema.Boolean(false), nil
		}
		return schema.Null, fmt.Errorf("%w: boolean `%s`", dberr.ErrMalformedRow, field.Value)
	}

	return schema.Null, fmt.Errorf("%w: column type %d", dberr.ErrInvalidSchema, typ)
}
