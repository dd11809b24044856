// Package ingest loads tabular files (CSV, TSV, XLSX, JSON record arrays) into
// a dataset.Dataset.
package ingest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tablechart-cli/internal/dataset"
)

// ErrUnsupported is returned for file extensions no reader handles.
var ErrUnsupported = errors.New("unsupported file type")

// Options tune how a file is read.
type Options struct {
	// Delimiter for CSV. If 0, .tsv means tab and other files are sniffed
	// among ',', ';' and '\t' from the header line.
	Delimiter rune
	// MaxRows bounds the data rows read; <= 0 reads everything.
	MaxRows int
	// Sheet selects an XLSX sheet by name; SheetIndex (1-based) is used when empty.
	Sheet      string
	SheetIndex int
}

// Result is a loaded table.
type Result struct {
	Dataset dataset.Dataset
	// Name is the base file name.
	Name string
	// Truncated is set when MaxRows stopped the read early.
	Truncated bool
}

// Extensions lists the file types Load accepts.
var Extensions = []string{".csv", ".tsv", ".txt", ".xlsx", ".json"}

// Load reads path according to its extension.
func Load(path string, opt Options) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var (
		header []string
		rows   [][]string
		trunc  bool
		err    error
	)
	switch ext {
	case ".csv", ".tsv", ".txt":
		header, rows, trunc, err = readCSV(path, opt)
	case ".xlsx":
		header, rows, trunc, err = readXLSX(path, opt)
	case ".json":
		return loadJSON(path, opt)
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupported, ext, strings.Join(Extensions, ", "))
	}
	if err != nil {
		return nil, err
	}
	return &Result{Dataset: build(header, rows), Name: filepath.Base(path), Truncated: trunc}, nil
}

func readCSV(path string, opt Options) ([]string, [][]string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, false, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	br := bufio.NewReader(f)
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path, br)
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, false, nil
		}
		return nil, nil, false, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, false, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			return header, rows, true, nil
		}
		rows = append(rows, rec)
	}
	return header, rows, false, nil
}

// sniffDelimiter picks tab for .tsv, otherwise the most frequent of ',', ';'
// and '\t' in the first line (comma on ties or when nothing is found).
func sniffDelimiter(path string, br *bufio.Reader) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	peek, _ := br.Peek(4096)
	line := string(peek)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestN := ',', strings.Count(line, ",")
	for _, c := range []rune{';', '\t'} {
		if n := strings.Count(line, string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

// build turns a header and string rows into a dataset. Blank header cells are
// named column_N, duplicates get a numeric suffix, and short rows are padded.
func build(header []string, rows [][]string) dataset.Dataset {
	cols := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		base := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if base == "" {
			base = fmt.Sprintf("column_%d", i+1)
		}
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		used[name] = true
		cols[i] = name
	}
	recs := make([]dataset.Record, 0, len(rows))
	for _, row := range rows {
		rec := make(dataset.Record, len(cols))
		for i, c := range cols {
			if i < len(row) {
				rec[c] = row[i]
			} else {
				rec[c] = ""
			}
		}
		recs = append(recs, rec)
	}
	return dataset.New(cols, recs)
}

// loadJSON reads an array of flat objects. Nested values are kept as their
// JSON text so every cell stays a scalar.
func loadJSON(path string, opt Options) (*Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode json: expected an array of objects: %w", err)
	}
	res := &Result{Name: filepath.Base(path)}
	if opt.MaxRows > 0 && len(raw) > opt.MaxRows {
		raw = raw[:opt.MaxRows]
		res.Truncated = true
	}
	recs := make([]dataset.Record, 0, len(raw))
	for _, obj := range raw {
		rec := make(dataset.Record, len(obj))
		for k, v := range obj {
			rec[k] = scalar(v)
		}
		recs = append(recs, rec)
	}
	res.Dataset = dataset.New(nil, recs)
	res.Dataset.Columns = res.Dataset.ColumnNames()
	return res, nil
}

func scalar(v json.RawMessage) any {
	var x any
	if err := json.Unmarshal(v, &x); err != nil {
		return string(v)
	}
	switch x.(type) {
	case map[string]any, []any:
		return string(v)
	}
	return x
}
