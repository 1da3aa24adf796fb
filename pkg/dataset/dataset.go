// Package dataset provides the in-memory tabular data model for Ballast.
// A Dataset is an ordered sequence of named, typed columns of equal length.
// Row order is insertion order and is preserved through any round trip where
// the target format supports ordering.
package dataset

import (
	"github.com/ballastio/ballast/pkg/errors"
)

// FieldType represents the data type of a field
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeInt       FieldType = "int"
	FieldTypeFloat     FieldType = "float"
	FieldTypeBool      FieldType = "bool"
	FieldTypeTimestamp FieldType = "timestamp"
	FieldTypeDate      FieldType = "date"
)

// TypeCategory is the logical category of a field type. Two field types are
// compatible for verification purposes when they share a category.
type TypeCategory string

const (
	CategoryText     TypeCategory = "text"
	CategoryNumeric  TypeCategory = "numeric"
	CategoryBoolean  TypeCategory = "boolean"
	CategoryTemporal TypeCategory = "temporal"
	CategoryUnknown  TypeCategory = "unknown"
)

// Category returns the logical category of the field type
func (t FieldType) Category() TypeCategory {
	switch t {
	case FieldTypeString:
		return CategoryText
	case FieldTypeInt, FieldTypeFloat:
		return CategoryNumeric
	case FieldTypeBool:
		return CategoryBoolean
	case FieldTypeTimestamp, FieldTypeDate:
		return CategoryTemporal
	default:
		return CategoryUnknown
	}
}

// Field represents a field in the schema
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Nullable bool      `json:"nullable"`
}

// Schema describes the column structure of a dataset
type Schema struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Names returns the column names in declaration order
func (s *Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the field with the given name
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// NameSet returns the column names as a set
func (s *Schema) NameSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		set[f.Name] = struct{}{}
	}
	return set
}

// Column holds the values of a single named, typed column
type Column struct {
	Field
	Values []interface{}
}

// Dataset is an ordered collection of equal-length columns
type Dataset struct {
	Name    string
	columns []Column
	index   map[string]int
}

// New creates an empty dataset with the given schema fields.
// Column names must be unique.
func New(name string, fields []Field) (*Dataset, error) {
	d := &Dataset{
		Name:    name,
		columns: make([]Column, len(fields)),
		index:   make(map[string]int, len(fields)),
	}

	for i, f := range fields {
		if f.Name == "" {
			return nil, errors.New(errors.ErrorTypeValidation, "column name must not be empty")
		}
		if _, exists := d.index[f.Name]; exists {
			return nil, errors.Newf(errors.ErrorTypeValidation, "duplicate column name %q", f.Name)
		}
		d.columns[i] = Column{Field: f}
		d.index[f.Name] = i
	}

	return d, nil
}

// AppendRow appends one row of values, one per column in schema order
func (d *Dataset) AppendRow(values ...interface{}) error {
	if len(values) != len(d.columns) {
		return errors.Newf(errors.ErrorTypeData,
			"row has %d values, dataset has %d columns", len(values), len(d.columns))
	}
	for i := range d.columns {
		d.columns[i].Values = append(d.columns[i].Values, values[i])
	}
	return nil
}

// NumRows returns the record count
func (d *Dataset) NumRows() int {
	if len(d.columns) == 0 {
		return 0
	}
	return len(d.columns[0].Values)
}

// NumCols returns the column count
func (d *Dataset) NumCols() int {
	return len(d.columns)
}

// Schema returns the dataset schema
func (d *Dataset) Schema() *Schema {
	fields := make([]Field, len(d.columns))
	for i, c := range d.columns {
		fields[i] = c.Field
	}
	return &Schema{Name: d.Name, Fields: fields}
}

// Column returns the column with the given name
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return &d.columns[i], true
}

// ColumnAt returns the column at the given position
func (d *Dataset) ColumnAt(i int) *Column {
	return &d.columns[i]
}

// Value returns the value at the given row for the named column.
// Returns nil when the column does not exist.
func (d *Dataset) Value(row int, name string) interface{} {
	i, ok := d.index[name]
	if !ok {
		return nil
	}
	return d.columns[i].Values[row]
}

// Row returns one row of values in schema order
func (d *Dataset) Row(i int) []interface{} {
	row := make([]interface{}, len(d.columns))
	for c := range d.columns {
		row[c] = d.columns[c].Values[i]
	}
	return row
}

// Validate checks the dataset invariants: all columns must have equal length
func (d *Dataset) Validate() error {
	if len(d.columns) == 0 {
		return nil
	}
	want := len(d.columns[0].Values)
	for _, c := range d.columns[1:] {
		if len(c.Values) != want {
			return errors.Newf(errors.ErrorTypeData,
				"ragged dataset: column %q has %d values, expected %d",
				c.Name, len(c.Values), want).
				WithDetail("dataset", d.Name).
				WithDetail("column", c.Name)
		}
	}
	return nil
}
