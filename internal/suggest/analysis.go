package suggest

import (
	"fmt"

	"github.com/KaramelBytes/tablechart-cli/internal/analysis"
	"github.com/KaramelBytes/tablechart-cli/internal/chart"
	"github.com/KaramelBytes/tablechart-cli/internal/dataset"
)

// Where an Analysis came from.
const (
	SourceService   = "service"
	SourceHeuristic = "heuristic"
)

// MaxRecommendedFilters caps Analysis.RecommendedFilters.
const MaxRecommendedFilters = 3

// Analysis is the dataset-level recommendation payload. Its JSON shape is the
// one requested from the remote analysis service.
type Analysis struct {
	DatasetSummary     string                  `json:"datasetSummary"`
	ColumnAnalysis     analysis.Classification `json:"columnAnalysis"`
	SuggestedCharts    []chart.Spec            `json:"suggestedCharts"`
	KeyInsights        []string                `json:"keyInsights"`
	RecommendedFilters []string                `json:"recommendedFilters,omitempty"`
	DataQualityNotes   []string                `json:"dataQualityNotes,omitempty"`
	Source             string                  `json:"source,omitempty"`
	FallbackReason     string                  `json:"fallbackReason,omitempty"`
}

// Analyze builds the heuristic analysis of d. name labels the source file.
func Analyze(d dataset.Dataset, name string) *Analysis {
	rep := analysis.Profile(d, name, analysis.DefaultOptions())
	cls := rep.Classification
	out := &Analysis{
		DatasetSummary:  summaryLine(rep),
		ColumnAnalysis:  cls,
		SuggestedCharts: SuggestFrom(cls),
		KeyInsights:     keyInsights(rep),
		Source:          SourceHeuristic,
	}
	for i, c := range cls.Categorical {
		if i >= MaxRecommendedFilters {
			break
		}
		out.RecommendedFilters = append(out.RecommendedFilters, c)
	}
	out.DataQualityNotes = qualityNotes(rep)
	return out
}

func summaryLine(rep *analysis.Report) string {
	if rep.Name == "" {
		return fmt.Sprintf("Dataset with %d rows and %d columns", rep.Rows, len(rep.Cols))
	}
	return fmt.Sprintf("Dataset with %d rows and %d columns from %s", rep.Rows, len(rep.Cols), rep.Name)
}

func keyInsights(rep *analysis.Report) []string {
	cls := rep.Classification
	out := []string{
		fmt.Sprintf("Dataset contains %d records", rep.Rows),
		fmt.Sprintf("Found %d numeric columns for analysis", len(cls.Numeric)),
		fmt.Sprintf("%d categorical columns available for grouping", len(cls.Categorical)),
	}
	if len(cls.Temporal) > 0 {
		out = append(out, fmt.Sprintf("%d temporal column(s) support trend analysis, starting with %s", len(cls.Temporal), cls.Temporal[0]))
	}
	for _, col := range cls.Numeric {
		if s, ok := rep.Column(col); ok && s.Stats != nil {
			out = append(out, fmt.Sprintf("%s ranges from %.4g to %.4g with mean %.4g", col, s.Stats.Min, s.Stats.Max, s.Stats.Mean))
			break
		}
	}
	for _, col := range cls.Categorical {
		if s, ok := rep.Column(col); ok && len(s.TopValues) > 0 {
			top := s.TopValues[0]
			out = append(out, fmt.Sprintf("%q is the most frequent %s value (%d of %d rows)", top.Value, col, top.Count, s.TotalCount))
			break
		}
	}
	return out
}

func qualityNotes(rep *analysis.Report) []string {
	var out []string
	for _, c := range rep.Cols {
		if c.NullCount > 0 {
			out = append(out, fmt.Sprintf("%s is %.0f%% complete (%d missing)", c.Name, c.Completeness*100, c.NullCount))
		}
	}
	for _, o := range rep.Outliers {
		if o.Count > 0 {
			out = append(out, fmt.Sprintf("%s has %d outlier(s) outside [%.4g, %.4g]", o.Column, o.Count, o.Bounds.Lower, o.Bounds.Upper))
		}
	}
	out = append(out, rep.Warnings...)
	if len(out) == 0 {
		out = append(out, "No missing values or outliers detected", "Data structure appears consistent")
	}
	return out
}
