package chart

import (
	"fmt"

	"github.com/KaramelBytes/tablechart-cli/internal/analysis"
	"github.com/KaramelBytes/tablechart-cli/internal/dataset"
)

// PieWarnRows is the raw row count above which a pie chart draws a warning.
const PieWarnRows = 20

// Validate checks that s can be drawn from d. Errors make the spec unusable;
// warnings flag degraded but drawable output.
func Validate(d dataset.Dataset, s Spec) ValidationResult {
	var res ValidationResult
	if d.Empty() {
		res.Errors = append(res.Errors, "No data available")
		return res
	}
	if !s.Type.Valid() {
		res.Errors = append(res.Errors, fmt.Sprintf("Unsupported chart type %q", s.Type))
	}
	checkAxis(&res, d, "X-axis", s.XAxis)
	if checkAxis(&res, d, "Y-axis", s.YAxis) && s.Type != Pie {
		if countNumeric(d, s.YAxis) == 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("Y-axis column %q has no numeric values", s.YAxis))
		} else if analysis.ClassifyColumn(d, s.YAxis) != analysis.Numeric {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Y-axis column %q is not numeric; unparseable values count as 0", s.YAxis))
		}
	}
	if need := s.Type.MinRows(); d.Len() < need {
		res.Errors = append(res.Errors, fmt.Sprintf("Insufficient data points for %s chart: need at least %d, got %d", s.Type, need, d.Len()))
	}
	if s.XAxis != "" && s.XAxis == s.YAxis {
		res.Errors = append(res.Errors, fmt.Sprintf("X-axis and Y-axis must be different columns, both are %q", s.XAxis))
	}
	switch {
	case s.GroupBy == "":
	case !d.HasColumn(s.GroupBy):
		res.Errors = append(res.Errors, fmt.Sprintf("Group by column %q not found in data", s.GroupBy))
	case !groupsBy(s):
		res.Warnings = append(res.Warnings, fmt.Sprintf("Group by column %q is also an axis; grouping ignored", s.GroupBy))
	}
	if s.Type == Pie && d.Len() > PieWarnRows {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Pie chart with %d rows may be hard to read; small slices are grouped into %q", d.Len(), OthersLabel))
	}
	for _, f := range s.Filters {
		if !ops[f.op()] {
			res.Errors = append(res.Errors, fmt.Sprintf("Unsupported filter operator %q", f.Op))
			continue
		}
		if !d.HasColumn(f.Column) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Filter column %q not found in data; filter ignored", f.Column))
		}
	}
	res.Valid = len(res.Errors) == 0
	return res
}

// Prepare returns d ready to be checked against s: when s plots against a
// synthetic row index that d lacks, the index column is added.
func Prepare(d dataset.Dataset, s Spec) dataset.Dataset {
	if IsSyntheticIndex(s.XAxis) && !d.HasColumn(s.XAxis) {
		return d.WithIndex(s.XAxis)
	}
	return d
}

// ValidateSpec is Validate on Prepare(d, s).
func ValidateSpec(d dataset.Dataset, s Spec) ValidationResult {
	return Validate(Prepare(d, s), s)
}

// groupsBy reports whether s splits its series by a column other than its axes.
func groupsBy(s Spec) bool {
	return s.GroupBy != "" && s.GroupBy != s.XAxis && s.GroupBy != s.YAxis
}

func checkAxis(res *ValidationResult, d dataset.Dataset, label, column string) bool {
	switch {
	case column == "":
		res.Errors = append(res.Errors, fmt.Sprintf("%s column is required", label))
	case !d.HasColumn(column):
		res.Errors = append(res.Errors, fmt.Sprintf("%s column %q not found in data", label, column))
	case countNonNull(d, column) == 0:
		res.Errors = append(res.Errors, fmt.Sprintf("%s column %q has no valid values", label, column))
	default:
		return true
	}
	return false
}

func countNonNull(d dataset.Dataset, column string) int {
	n := 0
	for _, r := range d.Records {
		if !dataset.IsNull(r[column]) {
			n++
		}
	}
	return n
}

func countNumeric(d dataset.Dataset, column string) int {
	n := 0
	for _, r := range d.Records {
		if _, ok := analysis.ParseNumber(r[column]); ok {
			n++
		}
	}
	return n
}
