package ingest

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

type xlsxSheet struct {
	Name    string
	SheetID int
	RID     string
}

// xlsxCell is one <c> element. Inline strings and rich text runs are both
// collected so shared and inline text read the same way.
type xlsxCell struct {
	Ref    string `xml:"r,attr"`
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline struct {
		T string   `xml:"t"`
		R []string `xml:"r>t"`
	} `xml:"is"`
}

type xlsxRow struct {
	Cells []xlsxCell `xml:"c"`
}

type xlsxSST struct {
	Items []struct {
		T string   `xml:"t"`
		R []string `xml:"r>t"`
	} `xml:"si"`
}

// readXLSX returns the header and data rows of the selected sheet. The first
// non-empty row is the header.
func readXLSX(file string, opt Options) ([]string, [][]string, bool, error) {
	zr, err := zip.OpenReader(file)
	if err != nil {
		return nil, nil, false, fmt.Errorf("open xlsx: %w", err)
	}
	defer zr.Close()
	files := map[string]*zip.File{}
	for _, f := range zr.File {
		files[f.Name] = f
	}

	sheets, err := workbookSheets(files)
	if err != nil {
		return nil, nil, false, err
	}
	rels, err := workbookRels(files)
	if err != nil {
		return nil, nil, false, err
	}
	target, err := sheetTarget(sheets, rels, opt)
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w in workbook %q", err, filepath.Base(file))
	}
	shared, err := sharedStrings(files)
	if err != nil {
		return nil, nil, false, err
	}
	sf, ok := files[target]
	if !ok {
		return nil, nil, false, fmt.Errorf("open xlsx: sheet part %s missing", target)
	}
	rc, err := sf.Open()
	if err != nil {
		return nil, nil, false, fmt.Errorf("open sheet: %w", err)
	}
	defer rc.Close()

	var header []string
	var rows [][]string
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, false, fmt.Errorf("read sheet: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "row" {
			continue
		}
		var xr xlsxRow
		if err := dec.DecodeElement(&xr, &se); err != nil {
			return nil, nil, false, fmt.Errorf("read sheet row: %w", err)
		}
		vals := rowValues(xr, shared)
		if header == nil {
			if !blankRow(vals) {
				header = vals
			}
			continue
		}
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			return header, rows, true, nil
		}
		rows = append(rows, vals)
	}
	return header, rows, false, nil
}

func sheetTarget(sheets []xlsxSheet, rels map[string]string, opt Options) (string, error) {
	if opt.Sheet != "" {
		names := make([]string, len(sheets))
		for i, s := range sheets {
			names[i] = s.Name
			if strings.EqualFold(s.Name, opt.Sheet) {
				if rel, ok := rels[s.RID]; ok {
					return normalizeRelPath(rel), nil
				}
			}
		}
		return "", fmt.Errorf("sheet %q not found (available: %s)", opt.Sheet, strings.Join(names, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	for _, s := range sheets {
		if s.SheetID == idx {
			if rel, ok := rels[s.RID]; ok {
				return normalizeRelPath(rel), nil
			}
		}
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", idx), nil
}

func rowValues(xr xlsxRow, shared []string) []string {
	var out []string
	for i, c := range xr.Cells {
		col := i
		if c.Ref != "" {
			col = colIndex(c.Ref)
		}
		if col < 0 {
			continue
		}
		for len(out) <= col {
			out = append(out, "")
		}
		out[col] = cellText(c, shared)
	}
	return out
}

func cellText(c xlsxCell, shared []string) string {
	switch c.Type {
	case "s":
		i, err := strconv.Atoi(strings.TrimSpace(c.Value))
		if err != nil || i < 0 || i >= len(shared) {
			return ""
		}
		return shared[i]
	case "inlineStr":
		if len(c.Inline.R) > 0 {
			return strings.Join(c.Inline.R, "")
		}
		return c.Inline.T
	case "b":
		if c.Value == "1" {
			return "true"
		}
		return "false"
	}
	return c.Value
}

func blankRow(vals []string) bool {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func workbookSheets(files map[string]*zip.File) ([]xlsxSheet, error) {
	var out []xlsxSheet
	err := eachElement(files, "xl/workbook.xml", "sheet", func(attrs map[string]string) {
		id, _ := strconv.Atoi(attrs["sheetId"])
		out = append(out, xlsxSheet{Name: attrs["name"], SheetID: id, RID: attrs["id"]})
	})
	return out, err
}

func workbookRels(files map[string]*zip.File) (map[string]string, error) {
	out := map[string]string{}
	err := eachElement(files, "xl/_rels/workbook.xml.rels", "Relationship", func(attrs map[string]string) {
		if attrs["Id"] != "" && attrs["Target"] != "" {
			out[attrs["Id"]] = attrs["Target"]
		}
	})
	return out, err
}

// eachElement calls fn with the attributes (keyed by local name) of every
// element named local in the given part. A missing part is not an error.
func eachElement(files map[string]*zip.File, part, local string, fn func(map[string]string)) error {
	f, ok := files[part]
	if !ok {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", part, err)
	}
	defer rc.Close()
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse %s: %w", part, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != local {
			continue
		}
		attrs := make(map[string]string, len(se.Attr))
		for _, a := range se.Attr {
			attrs[a.Name.Local] = a.Value
		}
		fn(attrs)
	}
}

func sharedStrings(files map[string]*zip.File) ([]string, error) {
	f, ok := files["xl/sharedStrings.xml"]
	if !ok {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open shared strings: %w", err)
	}
	defer rc.Close()
	var sst xlsxSST
	if err := xml.NewDecoder(rc).Decode(&sst); err != nil {
		return nil, fmt.Errorf("parse shared strings: %w", err)
	}
	out := make([]string, len(sst.Items))
	for i, si := range sst.Items {
		if len(si.R) > 0 {
			out[i] = strings.Join(si.R, "")
		} else {
			out[i] = si.T
		}
	}
	return out, nil
}

// colIndex converts a cell reference such as "C12" to a 0-based column index.
func colIndex(ref string) int {
	idx := 0
	for _, c := range strings.ToUpper(ref) {
		if c < 'A' || c > 'Z' {
			break
		}
		idx = idx*26 + int(c-'A'+1)
	}
	return idx - 1
}

// normalizeRelPath converts a relationship Target to a zip entry name.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return path.Clean(rel)
	}
	return path.Join("xl", rel)
}
