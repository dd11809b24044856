package analysis

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/tablechart-cli/internal/dataset"
)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), // ISO date
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`), // MM/DD/YYYY
	regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`), // MM-DD-YYYY
	regexp.MustCompile(`(?i)^(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`),
	regexp.MustCompile(`^\d{4}$`), // bare year
}

// dateLayouts is tried in order; US month-first forms win over day-first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"02/01/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2006",
	"January 2006",
	"Jan-2006",
	"Jan-06",
	"2006-01",
	"January",
	"Jan",
	"2006",
}

// ParseDate parses s against a fixed list of common layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LooksLikeDate reports whether s matches a date-like pattern or parses as a date.
func LooksLikeDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, p := range datePatterns {
		if p.MatchString(s) {
			return true
		}
	}
	_, ok := ParseDate(s)
	return ok
}

var groupedThousands = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseNumber converts a scalar into a finite float64. Strings may carry a
// leading currency sign, a trailing percent sign and comma thousands groups.
func ParseNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case nil, bool:
		return 0, false
	case float64:
		return x, finite(x)
	case float32:
		return float64(x), finite(float64(x))
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	raw := strings.TrimSpace(dataset.String(v))
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.TrimLeft(raw, "$€£")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if strings.Contains(raw, ",") {
		if !groupedThousands.MatchString(raw) {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, ",", "")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
