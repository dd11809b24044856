package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tablechart-cli/internal/dataset"
)

// Options controls profiling.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// Outliers computes IQR fences and counts for numeric columns.
	Outliers bool
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{SampleRows: 5, Outliers: true}
}

// Report is a markdown-friendly profile of a dataset.
type Report struct {
	Name           string           `json:"name,omitempty"`
	Rows           int              `json:"rows"`
	Classification Classification   `json:"classification"`
	Cols           []ColumnSummary  `json:"columns"`
	Outliers       []OutlierSummary `json:"outliers,omitempty"`
	Samples        []dataset.Record `json:"samples,omitempty"`
	Warnings       []string         `json:"warnings,omitempty"`
}

// OutlierSummary counts IQR outliers of one numeric column.
type OutlierSummary struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Bounds Bounds `json:"bounds"`
}

// Profile classifies d and summarizes every column. The dataset is cleaned first.
func Profile(d dataset.Dataset, name string, opt Options) *Report {
	cd := dataset.Clean(d)
	cls := Classify(cd)
	schema := cls.Schema()
	rep := &Report{Name: name, Rows: cd.Len(), Classification: cls}
	if dropped := d.Len() - cd.Len(); dropped > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("dropped %d empty row(s) during cleaning", dropped))
	}
	for _, col := range cd.ColumnNames() {
		s := summarizeAs(cd, col, schema[col])
		rep.Cols = append(rep.Cols, s)
		if s.NonNullCount == 0 && s.TotalCount > 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %q has no values", col))
		}
	}
	if opt.Outliers {
		for _, col := range cls.Numeric {
			b, ok := IQRBounds(cd, col)
			if !ok {
				continue
			}
			rep.Outliers = append(rep.Outliers, OutlierSummary{Column: col, Count: len(DetectOutliers(cd, col)), Bounds: b})
		}
	}
	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 5
	}
	rep.Samples = cd.Head(sampleRows).Records
	return rep
}

// Column returns the summary of name.
func (r *Report) Column(name string) (ColumnSummary, bool) {
	for _, c := range r.Cols {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

// Markdown renders a compact report suitable for prompts or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d (numeric %d, categorical %d, temporal %d, boolean %d)\n\n",
		len(r.Cols), len(r.Classification.Numeric), len(r.Classification.Categorical),
		len(r.Classification.Temporal), len(r.Classification.Boolean)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%, unique %d)",
			safeName(c.Name), c.Type, c.NonNullCount, (1-c.Completeness)*100, c.UniqueCount))
		switch {
		case c.Stats != nil:
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, median %.4g, std %.4g",
				c.Stats.Min, c.Stats.Max, c.Stats.Mean, c.Stats.Median, c.Stats.StdDev))
		case len(c.TopValues) > 0:
			b.WriteString(" — top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		}
		b.WriteString("\n")
	}

	if len(r.Outliers) > 0 {
		b.WriteString("\n[OUTLIERS]\n")
		for _, o := range r.Outliers {
			b.WriteString(fmt.Sprintf("- %s: %d outside [%.4g, %.4g] (Q1 %.4g, Q3 %.4g)\n",
				safeName(o.Column), o.Count, o.Bounds.Lower, o.Bounds.Upper, o.Bounds.Q1, o.Bounds.Q3))
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i, c := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := dataset.String(row[c.Name])
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
