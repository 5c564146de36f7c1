// Package transformer turns decoded competitors into the fixed export table.
//
// Filtering is expressed as a Chain of Transformers over competitor records;
// projection onto the 12 output columns happens once the chain has run.
package transformer

import jsonparser "regatta/internal/parser/json"

// Transformer filters or rewrites a slice of competitors. Implementations may
// reuse the input's backing array.
type Transformer interface {
	Apply([]jsonparser.Competitor) []jsonparser.Competitor
}

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs each transformer on the output of the previous one.
func (c Chain) Apply(in []jsonparser.Competitor) []jsonparser.Competitor {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
