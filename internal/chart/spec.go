// Package chart validates chart specifications against a dataset and turns them
// into render-ready series.
package chart

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Type is the chart kind.
type Type string

const (
	Bar     Type = "bar"
	Line    Type = "line"
	Area    Type = "area"
	Pie     Type = "pie"
	Scatter Type = "scatter"
	Combo   Type = "combo"
)

var types = [...]Type{Bar, Line, Area, Pie, Scatter, Combo}

// Types lists every supported chart type in a fresh slice.
func Types() []Type {
	return append([]Type(nil), types[:]...)
}

// Valid reports whether t is a supported chart type.
func (t Type) Valid() bool {
	for _, v := range types {
		if t == v {
			return true
		}
	}
	return false
}

// ParseType normalizes s into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unsupported chart type %q (want one of bar, line, area, pie, scatter, combo)", s)
	}
	return t, nil
}

// Synthetic x-axis names that plot values against their 1-based row position.
const (
	RowIndex = "row_index"
	Index    = "Index"
)

// IsSyntheticIndex reports whether name requests a materialized row index.
func IsSyntheticIndex(name string) bool { return name == RowIndex || name == Index }

// Spec declares what to plot.
type Spec struct {
	ID        string   `json:"id,omitempty"`
	Type      Type     `json:"type"`
	XAxis     string   `json:"xAxis"`
	YAxis     string   `json:"yAxis"`
	GroupBy   string   `json:"groupBy,omitempty"`
	Title     string   `json:"title,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
	Filters   []Filter `json:"filters,omitempty"`
}

var specNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/KaramelBytes/tablechart-cli/chart-spec"))

// WithID returns s with a deterministic ID derived from its type and bindings.
// An existing ID is kept.
func (s Spec) WithID() Spec {
	if s.ID != "" {
		return s
	}
	key := strings.Join([]string{string(s.Type), s.XAxis, s.YAxis, s.GroupBy}, "\x00")
	s.ID = uuid.NewSHA1(specNamespace, []byte(key)).String()
	return s
}

// MinRows returns the minimum dataset size the chart type can be drawn from.
func (t Type) MinRows() int {
	if t == Pie {
		return 2
	}
	return 1
}

// ValidationResult is a judgment on a (dataset, spec) pair.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
