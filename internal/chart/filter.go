package chart

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tablechart-cli/internal/analysis"
	"github.com/KaramelBytes/tablechart-cli/internal/dataset"
)

// Op is a filter predicate operator.
type Op string

const (
	OpContains  Op = "contains"
	OpEquals    Op = "equals"
	OpNotEquals Op = "not_equals"
	OpGT        Op = "gt"
	OpGTE       Op = "gte"
	OpLT        Op = "lt"
	OpLTE       Op = "lte"
)

var ops = map[Op]bool{OpContains: true, OpEquals: true, OpNotEquals: true, OpGT: true, OpGTE: true, OpLT: true, OpLTE: true}

// Filter keeps records whose Column satisfies Op against Value. An empty Op means contains.
type Filter struct {
	Column string `json:"column"`
	Op     Op     `json:"op,omitempty"`
	Value  string `json:"value"`
}

// ParseFilter accepts "column:op:value" or "column=value" (contains).
func ParseFilter(s string) (Filter, error) {
	if parts := strings.SplitN(s, ":", 3); len(parts) == 3 && ops[Op(strings.ToLower(parts[1]))] {
		col := strings.TrimSpace(parts[0])
		if col == "" {
			return Filter{}, fmt.Errorf("filter %q: empty column", s)
		}
		return Filter{Column: col, Op: Op(strings.ToLower(parts[1])), Value: parts[2]}, nil
	}
	if i := strings.Index(s, "="); i > 0 {
		return Filter{Column: strings.TrimSpace(s[:i]), Op: OpContains, Value: s[i+1:]}, nil
	}
	return Filter{}, fmt.Errorf("filter %q: want column:op:value or column=value", s)
}

func (f Filter) op() Op {
	if f.Op == "" {
		return OpContains
	}
	return f.Op
}

// Match evaluates the filter against one record. Numeric operators fail on
// values that do not parse as numbers.
func (f Filter) Match(r dataset.Record) bool {
	cell := strings.TrimSpace(dataset.String(r[f.Column]))
	want := strings.TrimSpace(f.Value)
	switch f.op() {
	case OpContains:
		return want == "" || strings.Contains(strings.ToLower(cell), strings.ToLower(want))
	case OpEquals:
		return strings.EqualFold(cell, want)
	case OpNotEquals:
		return !strings.EqualFold(cell, want)
	}
	a, okA := analysis.ParseNumber(cell)
	b, okB := analysis.ParseNumber(want)
	if !okA || !okB {
		return false
	}
	switch f.op() {
	case OpGT:
		return a > b
	case OpGTE:
		return a >= b
	case OpLT:
		return a < b
	case OpLTE:
		return a <= b
	}
	return false
}

// ApplyFilters returns the records of d matching every filter whose column exists.
func ApplyFilters(d dataset.Dataset, filters []Filter) dataset.Dataset {
	var active []Filter
	for _, f := range filters {
		if d.HasColumn(f.Column) && ops[f.op()] {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		return d
	}
	out := dataset.Dataset{Columns: d.ColumnNames()}
	for _, r := range d.Records {
		keep := true
		for _, f := range active {
			if !f.Match(r) {
				keep = false
				break
			}
		}
		if keep {
			out.Records = append(out.Records, r)
		}
	}
	return out
}
