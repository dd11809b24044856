// Package dataset holds the in-memory table model shared by every stage of the
// chart pipeline: ordered records keyed by column name plus the ordered column list.
package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record maps a column name to a raw scalar (string, number, bool or nil).
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an ordered sequence of records sharing one column set.
type Dataset struct {
	Columns []string
	Records []Record
}

// New builds a dataset without copying the inputs.
func New(columns []string, records []Record) Dataset {
	return Dataset{Columns: columns, Records: records}
}

// Len reports the number of records.
func (d Dataset) Len() int { return len(d.Records) }

// Empty reports whether the dataset has no records.
func (d Dataset) Empty() bool { return len(d.Records) == 0 }

// ColumnNames returns the declared columns, or when none were declared the union
// of record keys in first-appearance order (keys within one record sorted).
func (d Dataset) ColumnNames() []string {
	if len(d.Columns) > 0 {
		out := make([]string, len(d.Columns))
		copy(out, d.Columns)
		return out
	}
	seen := map[string]bool{}
	var out []string
	for _, r := range d.Records {
		keys := make([]string, 0, len(r))
		for k := range r {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// HasColumn reports whether name is a declared column or a key of any record.
func (d Dataset) HasColumn(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	for _, r := range d.Records {
		if _, ok := r[name]; ok {
			return true
		}
	}
	return false
}

// Values returns the raw values of column in record order. Missing keys yield nil.
func (d Dataset) Values(column string) []any {
	out := make([]any, len(d.Records))
	for i, r := range d.Records {
		out[i] = r[column]
	}
	return out
}

// WithIndex returns a copy of the dataset with a 1-based row index stored under name.
func (d Dataset) WithIndex(name string) Dataset {
	recs := make([]Record, len(d.Records))
	for i, r := range d.Records {
		c := r.Clone()
		c[name] = i + 1
		recs[i] = c
	}
	cols := d.ColumnNames()
	found := false
	for _, c := range cols {
		if c == name {
			found = true
			break
		}
	}
	if !found {
		cols = append(cols, name)
	}
	return Dataset{Columns: cols, Records: recs}
}

// Head returns a copy holding at most n leading records.
func (d Dataset) Head(n int) Dataset {
	if n < 0 || n > len(d.Records) {
		n = len(d.Records)
	}
	recs := make([]Record, n)
	for i := 0; i < n; i++ {
		recs[i] = d.Records[i].Clone()
	}
	return Dataset{Columns: d.ColumnNames(), Records: recs}
}

// String renders a scalar the way it would appear in a text cell.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case []byte:
		return string(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// IsBlank reports whether v is nil or an all-whitespace string.
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

var nullSpellings = map[string]bool{
	"null":      true,
	"undefined": true,
	"n/a":       true,
	"na":        true,
	"#n/a":      true,
}

// IsNull reports whether v is blank or one of the common textual null spellings.
func IsNull(v any) bool {
	if IsBlank(v) {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	return nullSpellings[strings.ToLower(strings.TrimSpace(s))]
}
