// Package dataset holds the in-memory survey table the analyses operate on.
//
// A Dataset is an ordered set of equal-length named columns. Every column has a
// declared storage type; numeric columns mark missing cells with NaN, text and
// categorical columns with the empty string.
package dataset

import (
	"fmt"
	"math"
	"strconv"

	"surveylens/domain/core"
)

// ColumnType is the declared storage type of a column
type ColumnType int

const (
	TypeNumeric ColumnType = iota
	TypeText
	TypeCategorical
)

func (t ColumnType) String() string {
	switch t {
	case TypeNumeric:
		return "numeric"
	case TypeText:
		return "text"
	case TypeCategorical:
		return "categorical"
	}
	return "unknown"
}

// ParseFunc converts a raw cell to a number, reporting false for non-numeric tokens
type ParseFunc func(raw string) (float64, bool)

// Column is a single named column of survey responses
type Column struct {
	Name    string
	Type    ColumnType
	numbers []float64
	texts   []string
}

// NewNumericColumn copies values into a numeric column; NaN marks a missing cell.
func NewNumericColumn(name string, values []float64) *Column {
	numbers := make([]float64, len(values))
	copy(numbers, values)
	return &Column{Name: name, Type: TypeNumeric, numbers: numbers}
}

// NewTextColumn copies values into a text column; "" marks a missing cell.
func NewTextColumn(name string, values []string) *Column {
	texts := make([]string, len(values))
	copy(texts, values)
	return &Column{Name: name, Type: TypeText, texts: texts}
}

// NewCategoricalColumn is a text column explicitly declared categorical.
func NewCategoricalColumn(name string, values []string) *Column {
	c := NewTextColumn(name, values)
	c.Type = TypeCategorical
	return c
}

// Len returns the number of cells
func (c *Column) Len() int {
	if c.Type == TypeNumeric {
		return len(c.numbers)
	}
	return len(c.texts)
}

// IsNumeric reports whether the column is stored as numbers
func (c *Column) IsNumeric() bool {
	return c.Type == TypeNumeric
}

// IsMissing reports whether cell i holds no value
func (c *Column) IsMissing(i int) bool {
	if c.Type == TypeNumeric {
		return math.IsNaN(c.numbers[i])
	}
	return c.texts[i] == ""
}

// Float returns cell i of a numeric column; ok is false for missing cells and text columns.
func (c *Column) Float(i int) (float64, bool) {
	if c.Type != TypeNumeric || math.IsNaN(c.numbers[i]) {
		return math.NaN(), false
	}
	return c.numbers[i], true
}

// Value returns cell i rendered as a string ("" when missing).
func (c *Column) Value(i int) string {
	if c.Type == TypeNumeric {
		if math.IsNaN(c.numbers[i]) {
			return ""
		}
		return FormatNumber(c.numbers[i])
	}
	return c.texts[i]
}

// Floats returns a copy of the numeric storage (nil for non-numeric columns)
func (c *Column) Floats() []float64 {
	if c.Type != TypeNumeric {
		return nil
	}
	out := make([]float64, len(c.numbers))
	copy(out, c.numbers)
	return out
}

// NonMissingFloats returns the present values of a numeric column in row order
func (c *Column) NonMissingFloats() []float64 {
	if c.Type != TypeNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.numbers))
	for _, v := range c.numbers {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// NonMissingValues returns the present cells rendered as strings in row order
func (c *Column) NonMissingValues() []string {
	out := make([]string, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if !c.IsMissing(i) {
			out = append(out, c.Value(i))
		}
	}
	return out
}

// Count returns the number of non-missing cells
func (c *Column) Count() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if !c.IsMissing(i) {
			n++
		}
	}
	return n
}

// Distinct returns the distinct non-missing values in order of first appearance
func (c *Column) Distinct() []string {
	seen := make(map[string]bool)
	var out []string
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		v := c.Value(i)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func (c *Column) clone() *Column {
	out := &Column{Name: c.Name, Type: c.Type}
	if c.numbers != nil {
		out.numbers = make([]float64, len(c.numbers))
		copy(out.numbers, c.numbers)
	}
	if c.texts != nil {
		out.texts = make([]string, len(c.texts))
		copy(out.texts, c.texts)
	}
	return out
}

func (c *Column) subset(rows []int) *Column {
	out := &Column{Name: c.Name, Type: c.Type}
	if c.Type == TypeNumeric {
		out.numbers = make([]float64, len(rows))
		for i, r := range rows {
			out.numbers[i] = c.numbers[r]
		}
		return out
	}
	out.texts = make([]string, len(rows))
	for i, r := range rows {
		out.texts[i] = c.texts[r]
	}
	return out
}

// FormatNumber renders a float the shortest way that round-trips
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Dataset is an ordered collection of equal-length named columns
type Dataset struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a dataset from columns, rejecting duplicate names and ragged lengths
func New(columns ...*Column) (*Dataset, error) {
	d := &Dataset{index: make(map[string]int)}
	for _, c := range columns {
		if err := d.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// MustNew is New for fixtures; it panics on invalid input.
func MustNew(columns ...*Column) *Dataset {
	d, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return d
}

// Rows returns the number of rows
func (d *Dataset) Rows() int {
	return d.rows
}

// Columns returns the columns in order. The slice is a copy; the columns are shared.
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// ColumnNames returns the column names in order
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

// Has reports whether a column exists
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// AddColumn appends a column
func (d *Dataset) AddColumn(c *Column) error {
	if _, exists := d.index[c.Name]; exists {
		return fmt.Errorf("%w: %q", core.ErrDuplicateColumn, c.Name)
	}
	if len(d.columns) > 0 && c.Len() != d.rows {
		return fmt.Errorf("%w: %q has %d rows, dataset has %d", core.ErrLengthMismatch, c.Name, c.Len(), d.rows)
	}
	if len(d.columns) == 0 {
		d.rows = c.Len()
	}
	d.index[c.Name] = len(d.columns)
	d.columns = append(d.columns, c)
	return nil
}

// SetColumn replaces the column with the same name in place, or appends it
func (d *Dataset) SetColumn(c *Column) error {
	i, exists := d.index[c.Name]
	if !exists {
		return d.AddColumn(c)
	}
	if c.Len() != d.rows {
		return fmt.Errorf("%w: %q has %d rows, dataset has %d", core.ErrLengthMismatch, c.Name, c.Len(), d.rows)
	}
	d.columns[i] = c
	return nil
}

// ConvertToNumeric rewrites a column as numeric in place. Cells parse rejects become NaN.
// Numeric columns are left untouched.
func (d *Dataset) ConvertToNumeric(name string, parse ParseFunc) error {
	c, ok := d.Column(name)
	if !ok {
		return core.NewColumnNotFoundError(name)
	}
	if c.IsNumeric() {
		return nil
	}
	numbers := make([]float64, len(c.texts))
	for i, raw := range c.texts {
		if v, ok := parse(raw); ok {
			numbers[i] = v
		} else {
			numbers[i] = math.NaN()
		}
	}
	c.Type = TypeNumeric
	c.numbers = numbers
	c.texts = nil
	return nil
}

// DeclareCategorical marks a text column as categorical
func (d *Dataset) DeclareCategorical(name string) error {
	c, ok := d.Column(name)
	if !ok {
		return core.NewColumnNotFoundError(name)
	}
	if c.IsNumeric() {
		return fmt.Errorf("column %q is numeric and cannot be declared categorical", name)
	}
	c.Type = TypeCategorical
	return nil
}

// Clone returns a deep copy
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{index: make(map[string]int, len(d.columns)), rows: d.rows}
	for i, c := range d.columns {
		out.columns = append(out.columns, c.clone())
		out.index[c.Name] = i
	}
	return out
}

// Filter returns a new dataset with the rows whose value in column name is one of keep.
// An empty keep list selects every row.
func (d *Dataset) Filter(name string, keep []string) (*Dataset, error) {
	c, ok := d.Column(name)
	if !ok {
		return nil, core.NewColumnNotFoundError(name)
	}
	if len(keep) == 0 {
		return d.Clone(), nil
	}
	allowed := make(map[string]bool, len(keep))
	for _, k := range keep {
		allowed[k] = true
	}
	var rows []int
	for i := 0; i < c.Len(); i++ {
		if !c.IsMissing(i) && allowed[c.Value(i)] {
			rows = append(rows, i)
		}
	}
	return d.subset(rows), nil
}

// SelectRows returns a new dataset holding the given row positions in order
func (d *Dataset) SelectRows(rows []int) *Dataset {
	return d.subset(rows)
}

func (d *Dataset) subset(rows []int) *Dataset {
	out := &Dataset{index: make(map[string]int, len(d.columns)), rows: len(rows)}
	for i, c := range d.columns {
		out.columns = append(out.columns, c.subset(rows))
		out.index[c.Name] = i
	}
	return out
}

// UniqueValues returns the distinct non-missing values of a column in first-appearance order
func (d *Dataset) UniqueValues(name string) ([]string, error) {
	c, ok := d.Column(name)
	if !ok {
		return nil, core.NewColumnNotFoundError(name)
	}
	return c.Distinct(), nil
}

// Schema fingerprints the column names and declared types
func (d *Dataset) Schema() core.Hash {
	names := make([]string, len(d.columns))
	types := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
		types[i] = c.Type.String()
	}
	return core.SchemaHash(names, types)
}

// MaxFilterValues bounds the distinct values a column may have to be offered as a row filter
const MaxFilterValues = 30

// FilterableColumns returns the columns with at most MaxFilterValues distinct values
func (d *Dataset) FilterableColumns() []string {
	var out []string
	for _, c := range d.columns {
		if n := len(c.Distinct()); n > 0 && n <= MaxFilterValues {
			out = append(out, c.Name)
		}
	}
	return out
}
