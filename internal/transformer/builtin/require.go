// Package builtin contains the reusable transformers applied to competitors.
package builtin

import jsonparser "regatta/internal/parser/json"

// Require removes any competitor missing a value for one of Fields. An
// attribute counts as missing when it is absent or renders to "".
type Require struct {
	Fields []string
}

// Apply filters in place and returns the surviving prefix of in. Relative
// order is preserved.
func (r Require) Apply(in []jsonparser.Competitor) []jsonparser.Competitor {
	out := in[:0]
	for _, c := range in {
		ok := true
		for _, f := range r.Fields {
			if c.Get(f) == "" {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, c)
		}
	}
	return out
}
