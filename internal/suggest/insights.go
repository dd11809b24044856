package suggest

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/tablechart-cli/internal/analysis"
	"github.com/KaramelBytes/tablechart-cli/internal/chart"
	"github.com/KaramelBytes/tablechart-cli/internal/dataset"
)

// InsightReport is the narrative summary of a dataset and its charts.
type InsightReport struct {
	ExecutiveSummary   string   `json:"executiveSummary"`
	Trends             []string `json:"trends"`
	Anomalies          []string `json:"anomalies"`
	Recommendations    []string `json:"recommendations"`
	PredictiveInsights []string `json:"predictiveInsights"`
	Source             string   `json:"source,omitempty"`
	FallbackReason     string   `json:"fallbackReason,omitempty"`
}

// trend is the first-to-last movement of one line or area series.
type trend struct {
	spec        chart.Spec
	first, last float64
	slope       float64
	points      int
}

// Insights derives trends, anomalies and recommendations for specs over d
// from the series each spec produces. Invalid specs are skipped.
func Insights(d dataset.Dataset, specs []chart.Spec) *InsightReport {
	rep := analysis.Profile(d, "", analysis.DefaultOptions())
	out := &InsightReport{Source: SourceHeuristic}

	var trends []trend
	var leaders []string
	for _, s := range specs {
		ungrouped := s
		ungrouped.GroupBy = ""
		series, res := chart.BuildSeries(d, ungrouped)
		if !res.Valid || len(series) == 0 {
			continue
		}
		switch s.Type {
		case chart.Line, chart.Area:
			tr := trendOf(s, series)
			trends = append(trends, tr)
			out.Trends = append(out.Trends, describeTrend(tr))
		case chart.Bar, chart.Pie:
			if line, ok := leaderOf(s, series); ok {
				out.Trends = append(out.Trends, line)
				leaders = append(leaders, fmt.Sprintf("Focus on %q, the largest contributor to %s", dataset.String(series[0][s.XAxis]), s.YAxis))
			}
		}
	}
	if len(out.Trends) == 0 {
		out.Trends = []string{"No chart produced enough data points to describe a trend"}
	}

	outlierTotal := 0
	for _, o := range rep.Outliers {
		if o.Count == 0 {
			continue
		}
		outlierTotal += o.Count
		out.Anomalies = append(out.Anomalies, fmt.Sprintf("%d outlier(s) in %s outside [%.4g, %.4g]", o.Count, o.Column, o.Bounds.Lower, o.Bounds.Upper))
	}
	if len(out.Anomalies) == 0 {
		out.Anomalies = []string{"No IQR outliers detected in numeric columns"}
	}

	out.Recommendations = append(out.Recommendations, leaders...)
	if outlierTotal > 0 {
		out.Recommendations = append(out.Recommendations, fmt.Sprintf("Investigate the %d unusual value(s) before drawing conclusions", outlierTotal))
	}
	for _, c := range rep.Cols {
		if c.TotalCount > 0 && c.Completeness < 0.9 {
			out.Recommendations = append(out.Recommendations, fmt.Sprintf("Improve completeness of %s (%.0f%% filled)", c.Name, c.Completeness*100))
		}
	}
	if len(trends) > 0 {
		out.Recommendations = append(out.Recommendations, fmt.Sprintf("Track %s regularly to confirm the observed direction", trends[0].spec.YAxis))
	}
	if len(out.Recommendations) == 0 {
		out.Recommendations = []string{"Add a time or category column to enable comparative analysis"}
	}

	for _, tr := range trends {
		if tr.points < 3 {
			continue
		}
		next := tr.last + tr.slope
		out.PredictiveInsights = append(out.PredictiveInsights,
			fmt.Sprintf("If the current trend in %s continues, the next point would be about %.4g", tr.spec.YAxis, next))
	}
	if len(out.PredictiveInsights) == 0 {
		out.PredictiveInsights = []string{"Not enough sequential data to project future values"}
	}

	out.ExecutiveSummary = fmt.Sprintf("Analysis of %d records across %d visualizations: %s.", rep.Rows, len(specs), out.Trends[0])
	return out
}

func trendOf(s chart.Spec, series chart.Series) trend {
	ys := make([]float64, len(series))
	for i, r := range series {
		ys[i], _ = r[s.YAxis].(float64)
	}
	tr := trend{spec: s, first: ys[0], last: ys[len(ys)-1], points: len(ys)}
	tr.slope = slope(ys)
	return tr
}

// slope is the least-squares slope of ys against their position.
func slope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}
	var sx, sy, sxx, sxy float64
	for i, y := range ys {
		x := float64(i)
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}

func describeTrend(tr trend) string {
	dir := "stayed flat"
	switch {
	case tr.last > tr.first:
		dir = "rose"
	case tr.last < tr.first:
		dir = "fell"
	}
	if tr.first != 0 && dir != "stayed flat" {
		pct := (tr.last - tr.first) / math.Abs(tr.first) * 100
		return fmt.Sprintf("%s %s from %.4g to %.4g (%+.1f%%) across %s", tr.spec.YAxis, dir, tr.first, tr.last, pct, tr.spec.XAxis)
	}
	return fmt.Sprintf("%s %s from %.4g to %.4g across %s", tr.spec.YAxis, dir, tr.first, tr.last, tr.spec.XAxis)
}

func leaderOf(s chart.Spec, series chart.Series) (string, bool) {
	var total float64
	for _, r := range series {
		v, _ := r[s.YAxis].(float64)
		total += v
	}
	top, _ := series[0][s.YAxis].(float64)
	if total <= 0 || top <= 0 {
		return "", false
	}
	return fmt.Sprintf("%s leads %s with %.4g (%.1f%% of the charted total)", dataset.String(series[0][s.XAxis]), s.YAxis, top, top/total*100), true
}
