// Package output writes a converted table as a CSV file.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Sternrassler/logistics-converter/pkg/table"
	jsoniter "github.com/json-iterator/go"
)

// nested values are rendered as compact JSON with sorted keys so reruns
// produce identical files.
var cellJSON = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
	UseNumber:   true,
}.Froze()

// WriteCSV writes a header row of column names followed by one row per
// record. Missing and absent values become empty cells. It returns the
// number of data rows written.
func WriteCSV(w io.Writer, t *table.Table) (int, error) {
	columns := t.Columns()
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(columns))
	written := 0
	for i, rec := range t.Rows() {
		for j, col := range columns {
			v, _ := rec.Get(col)
			cell, err := FormatValue(v)
			if err != nil {
				return written, fmt.Errorf("row %d column %q: %w", i, col, err)
			}
			row[j] = cell
		}
		if err := cw.Write(row); err != nil {
			return written, fmt.Errorf("write row %d: %w", i, err)
		}
		written++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, fmt.Errorf("flush csv: %w", err)
	}
	return written, nil
}

// FormatValue renders one cell.
func FormatValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		if val {
			return "True", nil
		}
		return "False", nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	default:
		data, err := cellJSON.Marshal(val)
		if err != nil {
			return "", fmt.Errorf("encode value: %w", err)
		}
		return string(data), nil
	}
}

// CSVSink writes tables to a file path.
type CSVSink struct {
	Path string
}

// NewCSVSink creates a sink for the given path.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{Path: path}
}

// Write stores the table at Path. The file is written under a temporary
// name in the same directory and renamed into place, so a failed write
// leaves any previous file untouched.
func (s *CSVSink) Write(t *table.Table) (int, error) {
	if s.Path == "" {
		return 0, fmt.Errorf("output path is required")
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := WriteCSV(tmp, t)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return 0, fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return 0, fmt.Errorf("rename output: %w", err)
	}

	return n, nil
}

// String returns the output path.
func (s *CSVSink) String() string {
	return s.Path
}
