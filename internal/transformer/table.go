package transformer

import (
	"slices"

	jsonparser "regatta/internal/parser/json"
	"regatta/internal/transformer/builtin"
)

// Table is the export in memory: the fixed header plus one row per included
// competitor, each exactly NumColumns wide.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// AnyRows returns the data rows as []any slices for database sinks.
func (t Table) AnyRows() [][]any {
	out := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = v
		}
		out[i] = row
	}
	return out
}

// Stats counts what Build did with its input.
type Stats struct {
	Read    int
	Skipped int
}

// Filters is the chain every export runs before projection.
func Filters() Chain {
	return Chain{builtin.Require{Fields: []string{SailNoAttr}}}
}

// Build filters comps and projects the survivors onto the export columns.
// comps is not modified. Row order follows comps.
func Build(comps []jsonparser.Competitor) (Table, Stats) {
	kept := Filters().Apply(slices.Clone(comps))

	t := Table{
		Header: Headers(),
		Rows:   make([][]string, 0, len(kept)),
	}
	for _, c := range kept {
		t.Rows = append(t.Rows, Project(c))
	}
	return t, Stats{Read: len(comps), Skipped: len(comps) - len(kept)}
}

// Project reads the mapped attributes of c in column order. Absent attributes
// yield "".
func Project(c jsonparser.Competitor) []string {
	row := make([]string, NumColumns)
	for i, col := range columns {
		row[i] = c.Get(col.Source)
	}
	return row
}
