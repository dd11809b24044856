// Package analysis infers column types from loosely typed rows and computes the
// per-column statistics, outliers and Markdown profile used across the CLI.
package analysis

import (
	"strings"

	"github.com/KaramelBytes/tablechart-cli/internal/dataset"
)

// ColumnType is the semantic type inferred for a column.
type ColumnType string

const (
	Numeric     ColumnType = "numeric"
	Categorical ColumnType = "categorical"
	Temporal    ColumnType = "temporal"
	Boolean     ColumnType = "boolean"
)

const (
	// MaxClassifySamples bounds how many non-empty values are inspected per column.
	MaxClassifySamples = 100
	temporalRatio      = 0.5
	numericRatio       = 0.8
)

var temporalKeywords = []string{"date", "time", "month", "year", "day", "timestamp", "created", "updated"}

var booleanSets = [][2]string{
	{"true", "false"},
	{"yes", "no"},
	{"1", "0"},
	{"y", "n"},
	{"on", "off"},
	{"active", "inactive"},
}

// Classification partitions the dataset columns into exactly one bucket each.
// Buckets keep the dataset column order.
type Classification struct {
	Numeric     []string `json:"numeric"`
	Categorical []string `json:"categorical"`
	Temporal    []string `json:"temporal"`
	Boolean     []string `json:"boolean"`
}

// Classify infers the type of every column of d.
func Classify(d dataset.Dataset) Classification {
	var c Classification
	for _, col := range d.ColumnNames() {
		switch ClassifyColumn(d, col) {
		case Temporal:
			c.Temporal = append(c.Temporal, col)
		case Boolean:
			c.Boolean = append(c.Boolean, col)
		case Numeric:
			c.Numeric = append(c.Numeric, col)
		default:
			c.Categorical = append(c.Categorical, col)
		}
	}
	return c
}

// ClassifyColumn infers the type of a single column. Name-based temporal
// detection takes priority over every content rule.
func ClassifyColumn(d dataset.Dataset, column string) ColumnType {
	samples := sampleValues(d, column, MaxClassifySamples)
	if len(samples) == 0 {
		return Categorical
	}
	if IsTemporalName(column) {
		return Temporal
	}
	dates, nums := 0, 0
	for _, s := range samples {
		if LooksLikeDate(s) {
			dates++
		}
		if _, ok := ParseNumber(s); ok {
			nums++
		}
	}
	n := float64(len(samples))
	if float64(dates)/n >= temporalRatio {
		return Temporal
	}
	if isBooleanSample(samples) {
		return Boolean
	}
	if float64(nums)/n >= numericRatio {
		return Numeric
	}
	return Categorical
}

// IsTemporalName reports whether the column name contains a temporal keyword.
func IsTemporalName(column string) bool {
	lc := strings.ToLower(column)
	for _, k := range temporalKeywords {
		if strings.Contains(lc, k) {
			return true
		}
	}
	return false
}

func isBooleanSample(samples []string) bool {
	uniq := map[string]bool{}
	for _, s := range samples {
		uniq[strings.ToLower(s)] = true
		if len(uniq) > 2 {
			return false
		}
	}
	if len(uniq) != 2 {
		return false
	}
	for _, set := range booleanSets {
		if uniq[set[0]] && uniq[set[1]] {
			return true
		}
	}
	return false
}

// sampleValues returns up to limit trimmed, non-null values of column in record order.
func sampleValues(d dataset.Dataset, column string, limit int) []string {
	var out []string
	for _, r := range d.Records {
		v := r[column]
		if dataset.IsNull(v) {
			continue
		}
		out = append(out, strings.TrimSpace(dataset.String(v)))
		if len(out) >= limit {
			break
		}
	}
	return out
}

// TypeOf returns the bucket holding column, or "" when the column is unknown.
func (c Classification) TypeOf(column string) ColumnType {
	for _, b := range c.buckets() {
		for _, name := range b.cols {
			if name == column {
				return b.typ
			}
		}
	}
	return ""
}

// Schema maps every classified column to its type.
func (c Classification) Schema() map[string]ColumnType {
	out := map[string]ColumnType{}
	for _, b := range c.buckets() {
		for _, name := range b.cols {
			out[name] = b.typ
		}
	}
	return out
}

// Len is the number of classified columns.
func (c Classification) Len() int {
	return len(c.Numeric) + len(c.Categorical) + len(c.Temporal) + len(c.Boolean)
}

type bucket struct {
	typ  ColumnType
	cols []string
}

func (c Classification) buckets() []bucket {
	return []bucket{
		{Temporal, c.Temporal},
		{Boolean, c.Boolean},
		{Numeric, c.Numeric},
		{Categorical, c.Categorical},
	}
}
