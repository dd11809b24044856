package chart

import (
	"math"
	"sort"
	"time"

	"github.com/KaramelBytes/tablechart-cli/internal/analysis"
	"github.com/KaramelBytes/tablechart-cli/internal/dataset"
)

// Aggregation selects how repeated x values (or x/group pairs) collapse.
type Aggregation string

const (
	// AggregateMean sums the contributing values and divides by their count
	// when more than one row contributed. Pie charts always sum.
	AggregateMean Aggregation = "mean"
	// AggregateSum keeps the plain sum.
	AggregateSum Aggregation = "sum"
)

// ParseAggregation normalizes s; empty means AggregateMean.
func ParseAggregation(s string) (Aggregation, bool) {
	switch Aggregation(s) {
	case "", AggregateMean:
		return AggregateMean, true
	case AggregateSum:
		return AggregateSum, true
	}
	return "", false
}

// OthersLabel names the slice that collects pie categories beyond the cap.
const OthersLabel = "Others"

// PercentageField is the extra field carried by pie series records.
const PercentageField = "percentage"

// Options tunes BuildSeries.
type Options struct {
	Aggregation Aggregation
	// MaxPoints is the size above which non-pie series are down-sampled.
	MaxPoints int
	// SampleTarget is the number of points kept by down-sampling.
	SampleTarget int
	// MaxPieSlices caps pie output, "Others" included.
	MaxPieSlices int
}

// DefaultOptions returns the stock series limits.
func DefaultOptions() Options {
	return Options{Aggregation: AggregateMean, MaxPoints: 100, SampleTarget: 75, MaxPieSlices: 12}
}

// Option mutates Options.
type Option func(*Options)

func WithAggregation(a Aggregation) Option { return func(o *Options) { o.Aggregation = a } }
func WithMaxPoints(n int) Option           { return func(o *Options) { o.MaxPoints = n } }
func WithSampleTarget(n int) Option        { return func(o *Options) { o.SampleTarget = n } }
func WithMaxPieSlices(n int) Option        { return func(o *Options) { o.MaxPieSlices = n } }

// Series is an ordered sequence of flat records ready for plotting.
type Series []dataset.Record

// point is one aggregated (x, group) cell.
type point struct {
	x     string
	group string
	y     float64
	count int
}

// BuildSeries validates s against d and, when valid, cleans, filters,
// aggregates, sorts and down-samples d into a series. An invalid spec yields
// an empty series together with the validation errors.
func BuildSeries(d dataset.Dataset, s Spec, opts ...Option) (Series, ValidationResult) {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	d = Prepare(d, s)
	res := Validate(d, s)
	if !res.Valid {
		return Series{}, res
	}

	cd := dataset.Clean(d)
	temporal := !IsSyntheticIndex(s.XAxis) && analysis.ClassifyColumn(cd, s.XAxis) == analysis.Temporal
	cd = ApplyFilters(cd, s.Filters)
	grouped := groupsBy(s) && cd.HasColumn(s.GroupBy)

	rows := make([]point, 0, cd.Len())
	for _, r := range cd.Records {
		p := point{x: dataset.String(r[s.XAxis]), y: coerce(r[s.YAxis]), count: 1}
		if grouped {
			p.group = dataset.String(r[s.GroupBy])
		}
		rows = append(rows, p)
	}

	var pts []point
	switch s.Type {
	case Pie:
		return pieSeries(rows, s, o), res
	case Line, Area:
		if temporal {
			sortByDate(rows)
		}
		pts = aggregate(rows, o.Aggregation)
		sortData(pts, s.Type, temporal)
	case Bar:
		pts = aggregate(rows, o.Aggregation)
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].y > pts[j].y })
	default:
		pts = aggregate(rows, o.Aggregation)
		sortData(pts, s.Type, temporal)
	}
	pts = downsample(pts, o.MaxPoints, o.SampleTarget)

	out := make(Series, 0, len(pts))
	for _, p := range pts {
		rec := dataset.Record{s.XAxis: p.x, s.YAxis: p.y}
		if grouped {
			rec[s.GroupBy] = p.group
		}
		out = append(out, rec)
	}
	return out, res
}

// coerce parses v as a number; anything unparseable is 0.
func coerce(v any) float64 {
	f, _ := analysis.ParseNumber(v)
	return f
}

// aggregate collapses rows sharing (x, group) in first-appearance order.
func aggregate(rows []point, mode Aggregation) []point {
	type key struct{ x, group string }
	idx := map[key]int{}
	var out []point
	for _, r := range rows {
		k := key{r.x, r.group}
		if i, ok := idx[k]; ok {
			out[i].y += r.y
			out[i].count++
			continue
		}
		idx[k] = len(out)
		out = append(out, point{x: r.x, group: r.group, y: r.y, count: 1})
	}
	if mode != AggregateSum {
		for i := range out {
			if out[i].count > 1 {
				out[i].y /= float64(out[i].count)
			}
		}
	}
	return out
}

func pieSeries(rows []point, s Spec, o Options) Series {
	rows = dropGroups(rows)
	slices := aggregate(rows, AggregateSum)
	kept := slices[:0]
	for _, p := range slices {
		if p.y > 0 {
			kept = append(kept, p)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].y > kept[j].y })
	if o.MaxPieSlices > 1 && len(kept) > o.MaxPieSlices {
		var rest float64
		for _, p := range kept[o.MaxPieSlices-1:] {
			rest += p.y
		}
		kept = append(kept[:o.MaxPieSlices-1:o.MaxPieSlices-1], point{x: OthersLabel, y: rest})
	}
	var total float64
	for _, p := range kept {
		total += p.y
	}
	out := make(Series, 0, len(kept))
	for _, p := range kept {
		pct := 0.0
		if total > 0 {
			pct = p.y / total * 100
		}
		out = append(out, dataset.Record{s.XAxis: p.x, s.YAxis: p.y, PercentageField: pct})
	}
	return out
}

func dropGroups(rows []point) []point {
	out := make([]point, len(rows))
	for i, r := range rows {
		r.group = ""
		out[i] = r
	}
	return out
}

// sortData is the generic ordering: temporal x by date, all-numeric x
// numerically, pie by value descending, anything else lexicographically.
func sortData(pts []point, typ Type, temporal bool) {
	switch {
	case temporal:
		sortByDate(pts)
	case allNumericX(pts):
		sort.SliceStable(pts, func(i, j int) bool { return coerce(pts[i].x) < coerce(pts[j].x) })
	case typ == Pie:
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].y > pts[j].y })
	default:
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].x < pts[j].x })
	}
}

// sortByDate orders parseable dates ascending and keeps unparseable x values
// after them in their original order.
func sortByDate(pts []point) {
	type keyed struct {
		p  point
		ok bool
		t  time.Time
	}
	ks := make([]keyed, len(pts))
	for i, p := range pts {
		t, ok := analysis.ParseDate(p.x)
		ks[i] = keyed{p: p, ok: ok, t: t}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].ok != ks[j].ok {
			return ks[i].ok
		}
		return ks[i].ok && ks[i].t.Before(ks[j].t)
	})
	for i := range ks {
		pts[i] = ks[i].p
	}
}

func allNumericX(pts []point) bool {
	if len(pts) == 0 {
		return false
	}
	for _, p := range pts {
		if _, ok := analysis.ParseNumber(p.x); !ok {
			return false
		}
	}
	return true
}

// downsample keeps exactly target evenly spaced points, first and last included,
// when the series is longer than max. target never exceeds max.
func downsample(pts []point, max, target int) []point {
	n := len(pts)
	if max <= 0 || n <= max {
		return pts
	}
	if target > max {
		target = max
	}
	if target < 2 {
		return pts
	}
	out := make([]point, 0, target)
	for k := 0; k < target; k++ {
		i := int(math.Round(float64(k) * float64(n-1) / float64(target-1)))
		out = append(out, pts[i])
	}
	return out
}
