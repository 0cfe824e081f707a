package models

import (
	"sort"
	"strconv"
	"strings"
)

// ValueKind identifies the runtime kind of a dataset cell.
type ValueKind string

const (
	KindMissing ValueKind = "missing"
	KindString  ValueKind = "string"
	KindNumber  ValueKind = "number"
)

// Value is a single cell in a dataset: a string, a number, or missing.
// The zero value is missing.
type Value struct {
	kind ValueKind
	str  string
	num  float64
}

// Missing returns the missing value.
func Missing() Value {
	return Value{kind: KindMissing}
}

// String creates a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number creates a numeric value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Kind returns the value kind. The zero Value reports KindMissing.
func (v Value) Kind() ValueKind {
	if v.kind == "" {
		return KindMissing
	}
	return v.kind
}

// IsMissing reports whether the value is missing.
func (v Value) IsMissing() bool {
	return v.Kind() == KindMissing
}

// Text returns the value rendered as a string. Numbers use the shortest
// representation that round-trips; missing renders as the empty string.
func (v Value) Text() string {
	switch v.Kind() {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Float returns the numeric interpretation of the value. String values are
// parsed; ok is false for missing values and unparseable strings.
func (v Value) Float() (float64, bool) {
	switch v.Kind() {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IsNumeric reports whether the value parses as a number.
func (v Value) IsNumeric() bool {
	_, ok := v.Float()
	return ok
}

// Equal reports whether two values are identical in kind and content.
func (v Value) Equal(other Value) bool {
	if v.Kind() != other.Kind() {
		return false
	}
	switch v.Kind() {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	default:
		return true
	}
}

// Row maps column names to cell values.
type Row map[string]Value

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for col, val := range r {
		out[col] = val
	}
	return out
}

// Dataset is an ordered collection of rows over a fixed column ordering.
// Values are scalars; no schema is enforced beyond column presence.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewDataset creates an empty dataset with the given column ordering.
func NewDataset(columns ...string) *Dataset {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Dataset{Columns: cols, Rows: []Row{}}
}

// AppendRow adds a row to the dataset. Columns absent from the row are
// stored as missing so every row covers the full column set.
func (d *Dataset) AppendRow(row Row) {
	stored := make(Row, len(d.Columns))
	for _, col := range d.Columns {
		if val, ok := row[col]; ok {
			stored[col] = val
		} else {
			stored[col] = Missing()
		}
	}
	d.Rows = append(d.Rows, stored)
}

// Clone returns a deep copy. Transformations operate on clones so callers
// holding the original dataset never observe aliasing.
func (d *Dataset) Clone() *Dataset {
	out := NewDataset(d.Columns...)
	out.Rows = make([]Row, len(d.Rows))
	for i, row := range d.Rows {
		out.Rows[i] = row.Clone()
	}
	return out
}

// RowCount returns the number of rows.
func (d *Dataset) RowCount() int {
	return len(d.Rows)
}

// ColumnCount returns the number of columns.
func (d *Dataset) ColumnCount() int {
	return len(d.Columns)
}

// HasColumn reports whether the dataset declares the given column.
func (d *Dataset) HasColumn(name string) bool {
	for _, col := range d.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// Column returns the values of one column in row order. The second return
// is false when the column is not declared.
func (d *Dataset) Column(name string) ([]Value, bool) {
	if !d.HasColumn(name) {
		return nil, false
	}
	values := make([]Value, len(d.Rows))
	for i, row := range d.Rows {
		values[i] = row[name]
	}
	return values, true
}

// MissingCount returns the number of missing cells in one column.
func (d *Dataset) MissingCount(column string) int {
	count := 0
	for _, row := range d.Rows {
		if row[column].IsMissing() {
			count++
		}
	}
	return count
}

// TotalMissing returns the number of missing cells across the dataset.
func (d *Dataset) TotalMissing() int {
	total := 0
	for _, col := range d.Columns {
		total += d.MissingCount(col)
	}
	return total
}

// AddColumn declares a new column, filling existing rows with the given
// value. Adding an already declared column is a no-op.
func (d *Dataset) AddColumn(name string, fill Value) {
	if d.HasColumn(name) {
		return
	}
	d.Columns = append(d.Columns, name)
	for _, row := range d.Rows {
		row[name] = fill
	}
}

// RowKey builds a canonical identity string for a row over the given key
// columns. An empty key set means the full row, in column order.
func (d *Dataset) RowKey(row Row, keyColumns []string) string {
	cols := keyColumns
	if len(cols) == 0 {
		cols = d.Columns
	}
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		val := row[col]
		parts = append(parts, string(val.Kind())+"="+val.Text())
	}
	return strings.Join(parts, "\x1f")
}

// DistinctValues returns the distinct non-missing values of a column as
// rendered strings, sorted for stable output.
func (d *Dataset) DistinctValues(column string) []string {
	seen := make(map[string]struct{})
	for _, row := range d.Rows {
		val := row[column]
		if val.IsMissing() {
			continue
		}
		seen[val.Text()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
