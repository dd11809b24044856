package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/tablechart-cli/internal/dataset"
)

// TopValuesLimit caps ColumnSummary.TopValues.
const TopValuesLimit = 5

// ColumnSummary is a read-only snapshot of one column.
type ColumnSummary struct {
	Name         string          `json:"name"`
	Type         ColumnType      `json:"type"`
	TotalCount   int             `json:"totalCount"`
	NonNullCount int             `json:"nonNullCount"`
	NullCount    int             `json:"nullCount"`
	UniqueCount  int             `json:"uniqueCount"`
	Completeness float64         `json:"completeness"`
	Cardinality  float64         `json:"cardinality"`
	Stats        *Stats          `json:"stats,omitempty"`
	TopValues    []CategoryCount `json:"topValues,omitempty"`
}

// Stats holds numeric column statistics. StdDev is the population deviation.
type Stats struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stdDev"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Summarize computes the summary of column. ok is false for an empty dataset.
func Summarize(d dataset.Dataset, column string) (ColumnSummary, bool) {
	if d.Empty() {
		return ColumnSummary{}, false
	}
	return summarizeAs(d, column, ClassifyColumn(d, column)), true
}

func summarizeAs(d dataset.Dataset, column string, typ ColumnType) ColumnSummary {
	s := ColumnSummary{Name: column, Type: typ, TotalCount: d.Len()}
	counts := map[string]int{}
	var nums []float64
	for _, r := range d.Records {
		v := r[column]
		if dataset.IsNull(v) {
			continue
		}
		s.NonNullCount++
		key := strings.TrimSpace(dataset.String(v))
		counts[key]++
		if x, ok := ParseNumber(v); ok {
			nums = append(nums, x)
		}
	}
	s.NullCount = s.TotalCount - s.NonNullCount
	s.UniqueCount = len(counts)
	if s.TotalCount > 0 {
		s.Completeness = float64(s.NonNullCount) / float64(s.TotalCount)
		s.Cardinality = float64(s.UniqueCount) / float64(s.TotalCount)
	}
	switch typ {
	case Numeric:
		s.Stats = computeStats(nums)
	case Categorical:
		s.TopValues = topValues(counts, TopValuesLimit)
	}
	return s
}

// computeStats returns nil for an empty input. Median is sorted[n/2].
func computeStats(vals []float64) *Stats {
	if len(vals) == 0 {
		return nil
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	st := &Stats{Count: len(sorted), Min: sorted[0], Max: sorted[len(sorted)-1], Median: sorted[len(sorted)/2]}
	for _, v := range sorted {
		st.Sum += v
	}
	st.Mean = st.Sum / float64(st.Count)
	var ss float64
	for _, v := range sorted {
		d := v - st.Mean
		ss += d * d
	}
	st.StdDev = math.Sqrt(ss / float64(st.Count))
	return st
}

func topValues(counts map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// Bounds are the IQR fences of a numeric column.
type Bounds struct {
	Q1    float64 `json:"q1"`
	Q3    float64 `json:"q3"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// MinOutlierValues is the smallest numeric sample for which outliers are computed.
const MinOutlierValues = 4

// IQRBounds computes the fences from index-based quartiles (no interpolation).
func IQRBounds(d dataset.Dataset, column string) (Bounds, bool) {
	var vals []float64
	for _, r := range d.Records {
		if x, ok := ParseNumber(r[column]); ok {
			vals = append(vals, x)
		}
	}
	if len(vals) < MinOutlierValues {
		return Bounds{}, false
	}
	sort.Float64s(vals)
	n := len(vals)
	q1 := vals[int(math.Floor(float64(n)*0.25))]
	q3 := vals[int(math.Floor(float64(n)*0.75))]
	iqr := q3 - q1
	return Bounds{Q1: q1, Q3: q3, Lower: q1 - 1.5*iqr, Upper: q3 + 1.5*iqr}, true
}

// DetectOutliers returns, in dataset order, the records whose numeric value of
// column lies outside the IQR fences.
func DetectOutliers(d dataset.Dataset, column string) []dataset.Record {
	b, ok := IQRBounds(d, column)
	if !ok {
		return nil
	}
	var out []dataset.Record
	for _, r := range d.Records {
		x, ok := ParseNumber(r[column])
		if !ok {
			continue
		}
		if x < b.Lower || x > b.Upper {
			out = append(out, r.Clone())
		}
	}
	return out
}
