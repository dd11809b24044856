package suggest

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/KaramelBytes/tablechart-cli/internal/analysis"
	"github.com/KaramelBytes/tablechart-cli/internal/chart"
	"github.com/KaramelBytes/tablechart-cli/internal/dataset"
)

func TestSuggestFromRuleOrderAndCap(t *testing.T) {
	cls := analysis.Classification{
		Temporal:    []string{"order_date"},
		Numeric:     []string{"revenue", "units"},
		Categorical: []string{"region", "channel"},
	}
	got := SuggestFrom(cls)
	want := []chart.Spec{
		{Type: chart.Line, XAxis: "order_date", YAxis: "revenue", GroupBy: "region", Title: "Revenue Trend Over Time"},
		{Type: chart.Area, XAxis: "order_date", YAxis: "units", Title: "Units Performance Over Time"},
		{Type: chart.Pie, XAxis: "region", YAxis: "revenue", Title: "Revenue Distribution by Region"},
		{Type: chart.Bar, XAxis: "region", YAxis: "revenue", GroupBy: "channel", Title: "Revenue Comparison by Region"},
	}
	ignore := cmpopts.IgnoreFields(chart.Spec{}, "ID", "Reasoning")
	if diff := cmp.Diff(want, got, ignore); diff != "" {
		t.Fatalf("suggestions mismatch (-want +got):\n%s", diff)
	}
	for _, s := range got {
		if strings.TrimSpace(s.Reasoning) == "" {
			t.Fatalf("suggestion %q has no reasoning", s.Title)
		}
		if s.ID == "" {
			t.Fatalf("suggestion %q has no id", s.Title)
		}
	}
	again := SuggestFrom(cls)
	if diff := cmp.Diff(got, again); diff != "" {
		t.Fatalf("suggestions not deterministic:\n%s", diff)
	}
}

func TestSuggestFromNumericOnlyUsesRowIndex(t *testing.T) {
	got := SuggestFrom(analysis.Classification{Numeric: []string{"unit_price", "qty"}})
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %d: %+v", len(got), got)
	}
	if got[0].XAxis != chart.RowIndex || got[0].Type != chart.Line || got[0].Title != "Unit Price Values" {
		t.Fatalf("unexpected suggestion: %+v", got[0])
	}
}

func TestSuggestFromNothingApplicable(t *testing.T) {
	if got := SuggestFrom(analysis.Classification{Categorical: []string{"a"}}); len(got) != 0 {
		t.Fatalf("expected no suggestions, got %+v", got)
	}
}

func TestRulesReturnsCopy(t *testing.T) {
	got := Rules()
	if len(got) == 0 {
		t.Fatalf("no rules")
	}
	first := got[0].Name
	got[0] = Rule{Name: "changed"}
	if Rules()[0].Name != first {
		t.Fatalf("mutating the returned slice changed the rule set")
	}
}

func TestEveryRuleHasReasoning(t *testing.T) {
	full := analysis.Classification{
		Temporal: []string{"t"}, Numeric: []string{"a", "b"}, Categorical: []string{"c", "d"},
	}
	noCats := analysis.Classification{Temporal: []string{"t"}, Numeric: []string{"a", "b"}}
	for _, r := range Rules() {
		cls := full
		if !r.Applies(cls) {
			cls = noCats
		}
		if !r.Applies(cls) {
			t.Fatalf("rule %s applies to neither fixture", r.Name)
		}
		if s := r.Build(cls); s.Reasoning == "" || s.Title == "" {
			t.Fatalf("rule %s built a spec without reasoning or title: %+v", r.Name, s)
		}
	}
}

func salesData() dataset.Dataset {
	return dataset.New([]string{"month", "region", "sales", "notes"}, []dataset.Record{
		{"month": "Jan", "region": "East", "sales": "100", "notes": ""},
		{"month": "Feb", "region": "West", "sales": "120", "notes": "promo"},
		{"month": "Mar", "region": "East", "sales": "130", "notes": ""},
		{"month": "Apr", "region": "East", "sales": "150", "notes": ""},
		{"month": "May", "region": "West", "sales": "900", "notes": ""},
	})
}

func TestAnalyzeHeuristic(t *testing.T) {
	a := Analyze(salesData(), "sales.csv")
	if a.Source != SourceHeuristic {
		t.Fatalf("expected heuristic source, got %q", a.Source)
	}
	if a.DatasetSummary != "Dataset with 5 rows and 4 columns from sales.csv" {
		t.Fatalf("unexpected summary: %q", a.DatasetSummary)
	}
	if diff := cmp.Diff([]string{"region", "notes"}, a.RecommendedFilters); diff != "" {
		t.Fatalf("filters mismatch (-want +got):\n%s", diff)
	}
	if len(a.SuggestedCharts) == 0 || len(a.KeyInsights) < 3 {
		t.Fatalf("expected charts and insights: %+v", a)
	}
	joined := strings.Join(a.DataQualityNotes, "\n")
	for _, want := range []string{"notes is 20% complete (4 missing)", "sales has 1 outlier(s)"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in quality notes:\n%s", want, joined)
		}
	}
}

func TestSuggestFallbackHasChartWithNumericAndCategorical(t *testing.T) {
	d := dataset.New([]string{"team", "score"}, []dataset.Record{
		{"team": "red", "score": "3"},
		{"team": "blue", "score": "5"},
		{"team": "green", "score": "4"},
	})
	got := Suggest(d)
	if len(got) == 0 {
		t.Fatalf("expected at least one suggestion")
	}
}

func TestInsightsFromSeries(t *testing.T) {
	d := salesData()
	specs := []chart.Spec{
		{Type: chart.Line, XAxis: "month", YAxis: "sales"},
		{Type: chart.Bar, XAxis: "region", YAxis: "sales"},
		{Type: chart.Bar, XAxis: "nope", YAxis: "sales"},
	}
	rep := Insights(d, specs)
	if rep.Source != SourceHeuristic {
		t.Fatalf("unexpected source %q", rep.Source)
	}
	if len(rep.Trends) != 2 || !strings.HasPrefix(rep.Trends[0], "sales rose from 100 to 900") {
		t.Fatalf("unexpected trends: %v", rep.Trends)
	}
	if !strings.HasPrefix(rep.Trends[1], "West leads sales with 510") {
		t.Fatalf("unexpected leader line: %q", rep.Trends[1])
	}
	if len(rep.Anomalies) != 1 || !strings.Contains(rep.Anomalies[0], "1 outlier(s) in sales") {
		t.Fatalf("unexpected anomalies: %v", rep.Anomalies)
	}
	if len(rep.PredictiveInsights) != 1 || !strings.Contains(rep.PredictiveInsights[0], "trend in sales") {
		t.Fatalf("unexpected predictions: %v", rep.PredictiveInsights)
	}
	if !strings.HasPrefix(rep.ExecutiveSummary, "Analysis of 5 records across 3 visualizations") {
		t.Fatalf("unexpected summary: %q", rep.ExecutiveSummary)
	}
}
