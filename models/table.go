package models

import (
	"fmt"
	"strings"
)

// Column names shared by the raw city tables and the summary tables.
const (
	ColPrice            = "PRICE"
	ColPriceCleaned     = "PRICE_CLEANED"
	ColAreaCleaned      = "AREA_CLEANED"
	ColPricePerUnitArea = "PRICE_PER_UNIT_AREA"

	ColSuperBuiltUpSqft = "SUPERBUILTUP_SQFT"
	ColArea             = "AREA"
	ColMaxAreaSqft      = "MAX_AREA_SQFT"
	ColMinAreaSqft      = "MIN_AREA_SQFT"

	ColFacing       = "FACING"
	ColAge          = "AGE"
	ColPropertyType = "PROPERTY_TYPE__U"
	ColBathroomNum  = "BATHROOM_NUM"
	ColBedroomNum   = "BEDROOM_NUM"
	ColFloorNum     = "FLOOR_NUM"
	ColTotalFloor   = "TOTAL_FLOOR"
	ColOwnType      = "OWNTYPE"
)

// Column is a named, ordered run of cells.
type Column struct {
	Name   string
	Values []Value
}

// Table is a columnar listing table. Columns are optional and ordered; every
// column holds exactly Len() cells. Row identity is the row's position.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable creates an empty table with the given column names.
func NewTable(names ...string) *Table {
	t := &Table{index: make(map[string]int, len(names))}
	for _, n := range names {
		t.index[n] = len(t.columns)
		t.columns = append(t.columns, &Column{Name: n})
	}
	return t
}

// AppendRow adds one row. The row must have one cell per column.
func (t *Table) AppendRow(row []Value) error {
	if len(row) != len(t.columns) {
		return fmt.Errorf("table: row has %d cells, table has %d columns", len(row), len(t.columns))
	}
	for i, c := range t.columns {
		c.Values = append(c.Values, row[i])
	}
	t.rows++
	return nil
}

func (t *Table) Len() int { return t.rows }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column, or nil when the table does not have it.
func (t *Table) Column(name string) *Column {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.columns[i]
}

// SetColumn replaces the named column in place, or appends it when absent.
func (t *Table) SetColumn(name string, values []Value) error {
	if len(t.columns) > 0 && len(values) != t.rows {
		return fmt.Errorf("table: column %q has %d cells, table has %d rows", name, len(values), t.rows)
	}
	if i, ok := t.index[name]; ok {
		t.columns[i] = &Column{Name: name, Values: values}
		return nil
	}
	if len(t.columns) == 0 {
		t.rows = len(values)
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, &Column{Name: name, Values: values})
	return nil
}

// Row returns a copy of the cells at position i.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Values[i]
	}
	return row
}

// Clone returns a copy whose columns can be replaced without touching t.
func (t *Table) Clone() *Table {
	out := &Table{index: make(map[string]int, len(t.columns)), rows: t.rows}
	for i, c := range t.columns {
		vals := make([]Value, len(c.Values))
		copy(vals, c.Values)
		out.columns = append(out.columns, &Column{Name: c.Name, Values: vals})
		out.index[c.Name] = i
	}
	return out
}

// Filter keeps the rows for which keep returns true, in order, and returns
// how many were removed.
func (t *Table) Filter(keep func(i int) bool) int {
	kept := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			kept = append(kept, i)
		}
	}
	removed := t.rows - len(kept)
	if removed == 0 {
		return 0
	}
	for _, c := range t.columns {
		vals := make([]Value, len(kept))
		for j, i := range kept {
			vals[j] = c.Values[i]
		}
		c.Values = vals
	}
	t.rows = len(kept)
	return removed
}

// DropDuplicates removes rows whose every cell equals an earlier row, keeping
// the first occurrence, and returns how many were removed.
func (t *Table) DropDuplicates() int {
	seen := make(map[string]struct{}, t.rows)
	return t.Filter(func(i int) bool {
		k := t.rowKey(i)
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
		return true
	})
}

func (t *Table) rowKey(i int) string {
	var b strings.Builder
	for _, c := range t.columns {
		v := c.Values[i]
		switch {
		case v.IsNull():
			b.WriteString("n")
		case v.IsNumeric():
			k, _ := v.Key()
			b.WriteString("d")
			b.WriteString(k)
		default:
			s, _ := v.Text()
			fmt.Fprintf(&b, "t%d:%s", len(s), s)
		}
		b.WriteByte(0x1f)
	}
	return b.String()
}
