package dataset

import "strings"

// Clean returns a normalized copy of d. Every value becomes its trimmed string
// form, null spellings (null, undefined, n/a, na, #n/a) become "", and records
// left with no non-empty field are dropped. The input is never modified.
func Clean(d Dataset) Dataset {
	out := Dataset{Columns: d.ColumnNames()}
	for _, r := range d.Records {
		cleaned := make(Record, len(r))
		keep := false
		for k, v := range r {
			s := ""
			if !IsNull(v) {
				s = strings.TrimSpace(String(v))
			}
			if s != "" {
				keep = true
			}
			cleaned[k] = s
		}
		if keep {
			out.Records = append(out.Records, cleaned)
		}
	}
	return out
}
