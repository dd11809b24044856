package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/KaramelBytes/tablechart-cli/internal/dataset"
)

func rows(cols []string, vals ...[]any) dataset.Dataset {
	recs := make([]dataset.Record, 0, len(vals))
	for _, v := range vals {
		r := dataset.Record{}
		for i, c := range cols {
			if i < len(v) {
				r[c] = v[i]
			}
		}
		recs = append(recs, r)
	}
	return dataset.New(cols, recs)
}

func TestClassifyPartitionsEveryColumnOnce(t *testing.T) {
	d := rows([]string{"order_date", "region", "units", "paid", "notes", "empty"},
		[]any{"2024-01-03", "East", "10", "yes", "rush", ""},
		[]any{"2024-01-04", "West", "12.5", "no", "", nil},
		[]any{"2024-01-05", "East", "1,200", "yes", "gift", "n/a"},
		[]any{"2024-01-06", "North", "7", "no", "rush", ""},
	)
	got := Classify(d)
	want := Classification{
		Numeric:     []string{"units"},
		Categorical: []string{"region", "notes", "empty"},
		Temporal:    []string{"order_date"},
		Boolean:     []string{"paid"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("classification mismatch (-want +got):\n%s", diff)
	}
	if got.Len() != len(d.Columns) {
		t.Fatalf("expected %d classified columns, got %d", len(d.Columns), got.Len())
	}
	seen := map[string]int{}
	for _, b := range [][]string{got.Numeric, got.Categorical, got.Temporal, got.Boolean} {
		for _, c := range b {
			seen[c]++
		}
	}
	for _, c := range d.Columns {
		if seen[c] != 1 {
			t.Fatalf("column %q appears in %d buckets", c, seen[c])
		}
	}
	again := Classify(d)
	if diff := cmp.Diff(got, again); diff != "" {
		t.Fatalf("classification not deterministic:\n%s", diff)
	}
}

func TestYearNameWinsOverNumericContent(t *testing.T) {
	d := rows([]string{"year", "revenue"},
		[]any{"2020", "1"}, []any{"2021", "2"}, []any{"2022", "3"}, []any{"2023", "4"}, []any{"2024", "5"})
	if got := ClassifyColumn(d, "year"); got != Temporal {
		t.Fatalf("year: expected temporal, got %s", got)
	}
	if got := ClassifyColumn(d, "revenue"); got != Numeric {
		t.Fatalf("revenue: expected numeric, got %s", got)
	}
}

func TestClassifyContentRules(t *testing.T) {
	cases := []struct {
		name string
		vals []any
		want ColumnType
	}{
		{"when", []any{"Jan", "Feb", "Mar"}, Temporal},
		{"stamp", []any{"03/15/2024", "03/16/2024", "x"}, Temporal},
		{"flag", []any{"1", "0", "1", "1"}, Boolean},
		{"state", []any{"Active", "inactive", "ACTIVE"}, Boolean},
		{"one_value", []any{"yes", "yes"}, Categorical},
		{"mostly_num", []any{"1", "2", "3", "4", "x"}, Numeric},
		{"half_num", []any{"1", "2", "a", "b"}, Categorical},
		{"native", []any{1.5, 2, int64(3)}, Numeric},
		{"nulls", []any{nil, "", "NULL"}, Categorical},
	}
	for _, c := range cases {
		var recs []dataset.Record
		for _, v := range c.vals {
			recs = append(recs, dataset.Record{c.name: v})
		}
		got := ClassifyColumn(dataset.New([]string{c.name}, recs), c.name)
		if got != c.want {
			t.Fatalf("%s: expected %s, got %s", c.name, c.want, got)
		}
	}
}

func TestClassifyUsesFirstHundredSamples(t *testing.T) {
	var recs []dataset.Record
	for i := 0; i < 100; i++ {
		recs = append(recs, dataset.Record{"v": "label"})
	}
	for i := 0; i < 500; i++ {
		recs = append(recs, dataset.Record{"v": "42"})
	}
	if got := ClassifyColumn(dataset.New([]string{"v"}, recs), "v"); got != Categorical {
		t.Fatalf("expected categorical from the first 100 samples, got %s", got)
	}
}

func TestParseNumber(t *testing.T) {
	ok := map[string]float64{
		"42":        42,
		" -3.5 ":    -3.5,
		"1,234,567": 1234567,
		"12.5%":     12.5,
		"$1,000.25": 1000.25,
		"1e3":       1000,
	}
	for in, want := range ok {
		got, good := ParseNumber(in)
		if !good || got != want {
			t.Fatalf("ParseNumber(%q) = %v,%v want %v", in, got, good, want)
		}
	}
	for _, in := range []any{"", "abc", "12abc", "1,23", "NaN", "Inf", nil, true, math.NaN()} {
		if _, good := ParseNumber(in); good {
			t.Fatalf("ParseNumber(%#v) unexpectedly succeeded", in)
		}
	}
}

func TestParseDateOrdersMonthNames(t *testing.T) {
	jan, ok1 := ParseDate("Jan")
	feb, ok2 := ParseDate("february")
	if !ok1 || !ok2 {
		t.Fatalf("expected month names to parse")
	}
	if !jan.Before(feb) {
		t.Fatalf("expected Jan before February")
	}
	a, _ := ParseDate("2024-03-01")
	b, _ := ParseDate("03/02/2024")
	if !a.Before(b) {
		t.Fatalf("expected ISO and US dates to compare chronologically")
	}
	if _, ok := ParseDate("not a date"); ok {
		t.Fatalf("expected garbage to fail")
	}
}

func TestDetectOutliersIQR(t *testing.T) {
	var recs []dataset.Record
	for _, v := range []string{"1", "2", "3", "4", "5", "6", "100"} {
		recs = append(recs, dataset.Record{"v": v})
	}
	got := DetectOutliers(dataset.New([]string{"v"}, recs), "v")
	if diff := cmp.Diff([]dataset.Record{{"v": "100"}}, got); diff != "" {
		t.Fatalf("outliers mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectOutliersNeedsFourValues(t *testing.T) {
	d := rows([]string{"v"}, []any{"1"}, []any{"2"}, []any{"1000"}, []any{"x"})
	if got := DetectOutliers(d, "v"); len(got) != 0 {
		t.Fatalf("expected no outliers with 3 numeric values, got %v", got)
	}
}

func TestSummarizeNumericAndCategorical(t *testing.T) {
	d := rows([]string{"score", "team"},
		[]any{"2", "red"}, []any{"4", "blue"}, []any{"4", "red"}, []any{"", "red"}, []any{"5", ""})
	s, ok := Summarize(d, "score")
	if !ok {
		t.Fatalf("expected summary")
	}
	if s.Type != Numeric || s.TotalCount != 5 || s.NonNullCount != 4 || s.NullCount != 1 || s.UniqueCount != 3 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.Completeness != 0.8 || s.Cardinality != 0.6 {
		t.Fatalf("unexpected ratios: completeness %v cardinality %v", s.Completeness, s.Cardinality)
	}
	want := &Stats{Count: 4, Sum: 15, Mean: 3.75, Median: 4, Min: 2, Max: 5, StdDev: math.Sqrt(1.1875)}
	if diff := cmp.Diff(want, s.Stats); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
	c, _ := Summarize(d, "team")
	if c.Type != Categorical || c.Stats != nil {
		t.Fatalf("expected categorical without stats: %+v", c)
	}
	if diff := cmp.Diff([]CategoryCount{{Value: "red", Count: 3}, {Value: "blue", Count: 1}}, c.TopValues); diff != "" {
		t.Fatalf("top values mismatch (-want +got):\n%s", diff)
	}
	if _, ok := Summarize(dataset.Dataset{}, "x"); ok {
		t.Fatalf("expected no summary for empty dataset")
	}
}

func TestProfileMarkdown(t *testing.T) {
	d := rows([]string{"month", "region", "sales"},
		[]any{"Jan", "East", "100"},
		[]any{"Jan", "West", "50"},
		[]any{"Feb", "East", "80"},
		[]any{"Mar", "West", "90"},
		[]any{"Apr", "East", "9000"},
		[]any{"", "", ""},
	)
	rep := Profile(d, "sales.csv", DefaultOptions())
	if rep.Rows != 5 {
		t.Fatalf("expected 5 rows after cleaning, got %d", rep.Rows)
	}
	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: sales.csv",
		"- month: temporal",
		"- region: categorical",
		"- sales: numeric",
		"[OUTLIERS]",
		"- sales: 1 outside",
		"[HEAD AND SAMPLE ROWS]",
		"| month | region | sales |",
		"dropped 1 empty row(s)",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in markdown:\n%s", want, md)
		}
	}
	if _, ok := rep.Column("sales"); !ok {
		t.Fatalf("expected sales column summary")
	}
}
