package matrix

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Reader loads an executor result as sparse cells.
type Reader interface {
	Read(path string) (Cells, error)
}

// Result formats accepted by ReaderFor.
const (
	FormatText   = "text"
	FormatMarket = "mm"
	FormatScalar = "scalar"
)

// Formats lists the accepted result formats.
var Formats = []string{FormatText, FormatMarket, FormatScalar}

// ReaderFor returns the reader for a configured result format.
func ReaderFor(format string) (Reader, error) {
	switch format {
	case FormatText:
		return CellTextReader{}, nil
	case FormatMarket:
		return MarketReader{}, nil
	case FormatScalar:
		return ScalarReader{}, nil
	default:
		return nil, fmt.Errorf("unknown result format %q: must be one of %v", format, Formats)
	}
}

// ParseError reports malformed result data.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse %s: %s", e.Path, e.Message)
}

// CellTextReader reads "row col value" lines.
//
// The path may be a single file or a directory of part files, the layout a
// distributed job leaves behind. Hidden files, files starting with "_" and
// .mtd sidecars are ignored.
type CellTextReader struct{}

// Read implements Reader.
func (CellTextReader) Read(path string) (Cells, error) {
	files, err := partFiles(path)
	if err != nil {
		return nil, err
	}

	cells := make(Cells)
	for _, name := range files {
		if err := readCellFile(name, cells); err != nil {
			return nil, err
		}
	}
	return cells, nil
}

func partFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read result dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || strings.HasSuffix(name, ".mtd") {
			continue
		}
		files = append(files, filepath.Join(path, name))
	}
	sort.Strings(files)
	return files, nil
}

func readCellFile(path string, cells Cells) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read result: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		idx, v, err := parseCell(strings.Fields(text))
		if err != nil {
			return &ParseError{Path: path, Line: line, Message: err.Error()}
		}
		if _, dup := cells[idx]; dup {
			return &ParseError{Path: path, Line: line, Message: fmt.Sprintf("duplicate cell %s", idx)}
		}
		cells[idx] = v
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read result: %w", err)
	}
	return nil
}

func parseCell(fields []string) (Index, float64, error) {
	if len(fields) != 3 {
		return Index{}, 0, fmt.Errorf("want \"row col value\", got %d fields", len(fields))
	}
	row, err := parseIndex(fields[0])
	if err != nil {
		return Index{}, 0, err
	}
	col, err := parseIndex(fields[1])
	if err != nil {
		return Index{}, 0, err
	}
	v, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Index{}, 0, fmt.Errorf("bad value %q", fields[2])
	}
	return Index{Row: row, Col: col}, v, nil
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("bad index %q: must be a positive integer", s)
	}
	return n, nil
}

// MarketReader reads Matrix Market files in coordinate or array layout.
// Only general real and integer matrices are accepted.
type MarketReader struct{}

// Read implements Reader.
func (MarketReader) Read(path string) (Cells, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	defer f.Close()
	return readMarket(path, f)
}

func readMarket(path string, r io.Reader) (Cells, error) {
	scanner := bufio.NewScanner(r)
	line := 0
	fail := func(format string, a ...any) error {
		return &ParseError{Path: path, Line: line, Message: fmt.Sprintf(format, a...)}
	}

	if !scanner.Scan() {
		return nil, fail("empty file")
	}
	line++
	header := strings.Fields(strings.ToLower(scanner.Text()))
	if len(header) != 5 || header[0] != "%%matrixmarket" || header[1] != "matrix" {
		return nil, fail("missing %%%%MatrixMarket matrix header")
	}
	layout, field, symmetry := header[2], header[3], header[4]
	if layout != "coordinate" && layout != "array" {
		return nil, fail("unsupported layout %q", layout)
	}
	if field != "real" && field != "integer" && field != "double" {
		return nil, fail("unsupported field %q", field)
	}
	if symmetry != "general" {
		return nil, fail("unsupported symmetry %q", symmetry)
	}

	var rows, cols, nnz int
	sized := false
	cells := make(Cells)
	pos := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		fields := strings.Fields(text)

		if !sized {
			want := 3
			if layout == "array" {
				want = 2
			}
			if len(fields) != want {
				return nil, fail("bad size line %q", text)
			}
			var err error
			if rows, err = strconv.Atoi(fields[0]); err != nil {
				return nil, fail("bad row count %q", fields[0])
			}
			if cols, err = strconv.Atoi(fields[1]); err != nil {
				return nil, fail("bad column count %q", fields[1])
			}
			if layout == "coordinate" {
				if nnz, err = strconv.Atoi(fields[2]); err != nil {
					return nil, fail("bad entry count %q", fields[2])
				}
			} else {
				nnz = rows * cols
			}
			if rows < 0 || cols < 0 || nnz < 0 {
				return nil, fail("negative size %q", text)
			}
			sized = true
			continue
		}

		if pos >= nnz {
			return nil, fail("more than %d entries", nnz)
		}

		if layout == "coordinate" {
			idx, v, err := parseCell(fields)
			if err != nil {
				return nil, fail("%v", err)
			}
			if idx.Row > rows || idx.Col > cols {
				return nil, fail("cell %s outside %dx%d", idx, rows, cols)
			}
			if _, dup := cells[idx]; dup {
				return nil, fail("duplicate cell %s", idx)
			}
			cells[idx] = v
		} else {
			if len(fields) != 1 {
				return nil, fail("want one value per line, got %d", len(fields))
			}
			v, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return nil, fail("bad value %q", fields[0])
			}
			// Array layout is column-major.
			if v != 0 {
				cells[Index{Row: pos%rows + 1, Col: pos/rows + 1}] = v
			}
		}
		pos++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	if !sized {
		return nil, fail("missing size line")
	}
	if pos != nnz {
		return nil, fail("expected %d entries, found %d", nnz, pos)
	}
	return cells, nil
}

// ScalarReader reads a file holding a single number and returns it as
// cell (1,1).
type ScalarReader struct{}

// Read implements Reader.
func (ScalarReader) Read(path string) (Cells, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, &ParseError{Path: path, Message: "empty scalar"}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, &ParseError{Path: path, Message: fmt.Sprintf("bad scalar %q", text)}
	}
	return Scalar(v), nil
}
