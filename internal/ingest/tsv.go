package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/TobiSchelling/secat/internal/sec"
)

// table is a header-addressed tab-separated file.
type table struct {
	name   string
	cols   map[string]int
	reader *csv.Reader
	line   int
}

func openTable(name string, r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &sec.InputError{Table: name, Message: "empty file"}
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", name, err)
	}

	t := &table{name: name, cols: make(map[string]int), reader: cr, line: 1}
	for i, h := range header {
		t.cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range required {
		if _, ok := t.cols[c]; !ok {
			return nil, &sec.InputError{Table: name, Message: fmt.Sprintf("missing column %q", c)}
		}
	}
	return t, nil
}

// next returns the next record, or nil at end of file.
func (t *table) next() ([]string, error) {
	rec, err := t.reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", t.name, err)
	}
	t.line++
	return rec, nil
}

func (t *table) has(col string) bool {
	_, ok := t.cols[col]
	return ok
}

func (t *table) str(rec []string, col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (t *table) errorf(format string, args ...any) error {
	return &sec.InputError{Table: t.name, Message: fmt.Sprintf("line %d: ", t.line) + fmt.Sprintf(format, args...)}
}

func (t *table) id(rec []string, col string) (string, error) {
	v := t.str(rec, col)
	if v == "" {
		return "", t.errorf("empty %s", col)
	}
	return v, nil
}

func (t *table) number(rec []string, col string) (float64, error) {
	v, err := strconv.ParseFloat(t.str(rec, col), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, t.errorf("invalid %s %q", col, t.str(rec, col))
	}
	return v, nil
}

func (t *table) integer(rec []string, col string) (int, error) {
	v, err := strconv.Atoi(t.str(rec, col))
	if err != nil {
		return 0, t.errorf("invalid %s %q", col, t.str(rec, col))
	}
	return v, nil
}

func (t *table) flag(rec []string, col string) (bool, error) {
	switch strings.ToLower(t.str(rec, col)) {
	case "", "0", "false", "no":
		return false, nil
	case "1", "true", "yes":
		return true, nil
	}
	return false, t.errorf("invalid %s %q", col, t.str(rec, col))
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}
