package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCleanNormalizesAndDropsEmptyRows(t *testing.T) {
	in := New([]string{"name", "score"}, []Record{
		{"name": "  alice ", "score": 10.5},
		{"name": "", "score": nil},
		{"name": "N/A", "score": "null"},
		{"name": "bob", "score": "#N/A"},
		{"name": "   ", "score": "undefined"},
	})
	got := Clean(in)
	want := Dataset{
		Columns: []string{"name", "score"},
		Records: []Record{
			{"name": "alice", "score": "10.5"},
			{"name": "bob", "score": ""},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("clean mismatch (-want +got):\n%s", diff)
	}
	// input untouched
	if in.Records[0]["name"] != "  alice " || in.Records[0]["score"] != 10.5 {
		t.Fatalf("input record mutated: %#v", in.Records[0])
	}
}

func TestCleanIdempotent(t *testing.T) {
	in := New(nil, []Record{
		{"a": " x ", "b": 3, "c": true},
		{"a": "NA", "b": " ", "c": nil},
		{"a": "na ", "b": "", "c": "Null"},
		{"a": "y", "b": 2.25, "c": "  n/a"},
	})
	once := Clean(in)
	twice := Clean(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("clean not idempotent (-once +twice):\n%s", diff)
	}
	if once.Len() != 2 {
		t.Fatalf("expected 2 records after clean, got %d", once.Len())
	}
}

func TestCleanEmptyDataset(t *testing.T) {
	got := Clean(Dataset{})
	if !got.Empty() {
		t.Fatalf("expected empty dataset, got %d records", got.Len())
	}
}

func TestColumnNamesDerivedFromRecords(t *testing.T) {
	d := New(nil, []Record{
		{"b": 1, "a": 2},
		{"c": 3, "a": 4},
	})
	if diff := cmp.Diff([]string{"a", "b", "c"}, d.ColumnNames()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if !d.HasColumn("c") || d.HasColumn("z") || d.HasColumn("") {
		t.Fatalf("unexpected HasColumn results")
	}
}

func TestWithIndexIsOneBasedAndCopies(t *testing.T) {
	d := New([]string{"v"}, []Record{{"v": "a"}, {"v": "b"}})
	got := d.WithIndex("row_index")
	if diff := cmp.Diff([]string{"v", "row_index"}, got.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if got.Records[0]["row_index"] != 1 || got.Records[1]["row_index"] != 2 {
		t.Fatalf("unexpected index values: %#v", got.Records)
	}
	if _, ok := d.Records[0]["row_index"]; ok {
		t.Fatalf("WithIndex mutated the source dataset")
	}
}

func TestStringAndNullHelpers(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{3.5, "3.5"},
		{float64(100), "100"},
		{42, "42"},
		{int64(-7), "-7"},
		{true, "true"},
	}
	for _, c := range cases {
		if got := String(c.in); got != c.want {
			t.Fatalf("String(%#v) = %q, want %q", c.in, got, c.want)
		}
	}
	for _, v := range []any{nil, "", "  ", "NULL", "Undefined", "#n/a", " na "} {
		if !IsNull(v) {
			t.Fatalf("expected %#v to be null-like", v)
		}
	}
	for _, v := range []any{0, "0", "nan", "none", false} {
		if IsNull(v) {
			t.Fatalf("expected %#v to be a value", v)
		}
	}
}
