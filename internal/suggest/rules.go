// Package suggest produces chart recommendations and narrative insights from a
// dataset using only local heuristics. It is the fallback whenever the remote
// analysis service is disabled or fails.
package suggest

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/KaramelBytes/tablechart-cli/internal/analysis"
	"github.com/KaramelBytes/tablechart-cli/internal/chart"
	"github.com/KaramelBytes/tablechart-cli/internal/dataset"
)

// MaxSuggestions caps the output of Suggest.
const MaxSuggestions = 4

// Rule pairs a predicate over the column classification with the chart it yields.
type Rule struct {
	Name    string
	Applies func(c analysis.Classification) bool
	Build   func(c analysis.Classification) chart.Spec
}

// Rules returns the suggestion rules in evaluation order; earlier rules win
// when the cap is reached. The slice is a fresh copy.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

var rules = []Rule{
	{
		Name: "time-series",
		Applies: func(c analysis.Classification) bool {
			return len(c.Temporal) > 0 && len(c.Numeric) > 0
		},
		Build: func(c analysis.Classification) chart.Spec {
			return chart.Spec{
				Type:      chart.Line,
				XAxis:     c.Temporal[0],
				YAxis:     c.Numeric[0],
				GroupBy:   at(c.Categorical, 0),
				Title:     fmt.Sprintf("%s Trend Over Time", displayName(c.Numeric[0])),
				Reasoning: "Time series analysis shows trends and patterns over time",
			}
		},
	},
	{
		Name: "secondary-trend",
		Applies: func(c analysis.Classification) bool {
			return len(c.Numeric) >= 2 && len(c.Temporal) > 0
		},
		Build: func(c analysis.Classification) chart.Spec {
			return chart.Spec{
				Type:      chart.Area,
				XAxis:     c.Temporal[0],
				YAxis:     c.Numeric[1],
				Title:     fmt.Sprintf("%s Performance Over Time", displayName(c.Numeric[1])),
				Reasoning: "Area chart shows volume and growth patterns",
			}
		},
	},
	{
		Name: "category-share",
		Applies: func(c analysis.Classification) bool {
			return len(c.Categorical) > 0 && len(c.Numeric) > 0
		},
		Build: func(c analysis.Classification) chart.Spec {
			return chart.Spec{
				Type:      chart.Pie,
				XAxis:     c.Categorical[0],
				YAxis:     c.Numeric[0],
				Title:     fmt.Sprintf("%s Distribution by %s", displayName(c.Numeric[0]), displayName(c.Categorical[0])),
				Reasoning: "Shows proportional breakdown of values by category",
			}
		},
	},
	{
		Name: "category-comparison",
		Applies: func(c analysis.Classification) bool {
			return len(c.Categorical) > 0 && len(c.Numeric) > 0
		},
		Build: func(c analysis.Classification) chart.Spec {
			return chart.Spec{
				Type:      chart.Bar,
				XAxis:     c.Categorical[0],
				YAxis:     c.Numeric[0],
				GroupBy:   at(c.Categorical, 1),
				Title:     fmt.Sprintf("%s Comparison by %s", displayName(c.Numeric[0]), displayName(c.Categorical[0])),
				Reasoning: "Compare values across different categories",
			}
		},
	},
	{
		Name: "row-progression",
		Applies: func(c analysis.Classification) bool {
			return len(c.Numeric) >= 2 && len(c.Categorical) == 0
		},
		Build: func(c analysis.Classification) chart.Spec {
			return chart.Spec{
				Type:      chart.Line,
				XAxis:     chart.RowIndex,
				YAxis:     c.Numeric[0],
				Title:     fmt.Sprintf("%s Values", displayName(c.Numeric[0])),
				Reasoning: "Shows progression of values across data points",
			}
		},
	},
}

// Suggest cleans and classifies d, then applies the rules.
func Suggest(d dataset.Dataset) []chart.Spec {
	return SuggestFrom(analysis.Classify(dataset.Clean(d)))
}

// SuggestFrom applies the rules to an existing classification in a single pass.
func SuggestFrom(c analysis.Classification) []chart.Spec {
	var out []chart.Spec
	for _, r := range rules {
		if len(out) >= MaxSuggestions {
			break
		}
		if !r.Applies(c) {
			continue
		}
		out = append(out, r.Build(c).WithID())
	}
	return out
}

func at(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return ""
}

// displayName turns a column name such as "unit_price" into "Unit Price".
// Casers keep state, so each call builds its own.
func displayName(column string) string {
	s := strings.Join(strings.FieldsFunc(column, func(r rune) bool { return r == '_' || r == '-' }), " ")
	if s == "" {
		return column
	}
	return cases.Title(language.Und, cases.NoLower).String(s)
}
