// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ErrSerialization marks failures to render a cell value, as opposed to
// filesystem failures. Callers can distinguish the two with errors.Is.
var ErrSerialization = errors.New("serialization failed")

// Writer serializes result sets to CSV files.
type Writer struct {
	logger *zap.Logger
}

// NewWriter creates a CSV writer.
func NewWriter(logger *zap.Logger) *Writer {
	return &Writer{logger: logger}
}

// Write serializes a result set to the given path. An empty result set writes
// nothing and is not an error. The header is the union of columns encountered
// across all rows, in first-seen order; cells for columns a row does not carry
// are left empty. Identical rows always produce identical bytes.
func (w *Writer) Write(rs ResultSet, path string) error {
	if rs.Empty() {
		w.logger.Info("Result set is empty, skipping file",
			zap.String("label", rs.Label),
			zap.String("path", path))
		return nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	header := unionColumns(rs.Rows)

	records := make([][]string, 0, len(rs.Rows))
	for i := range rs.Rows {
		record := make([]string, len(header))
		for j, col := range header {
			v, ok := rs.Rows[i].Value(col)
			if !ok {
				continue
			}
			cell, err := formatValue(v)
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", i, col, err)
			}
			record[j] = cell
		}
		records = append(records, record)
	}

	// Write to a temp file and rename so a failed write never leaves a
	// partial report behind.
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	cw := csv.NewWriter(file)
	if err := cw.Write(header); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	// Re-read the size so the confirmation line reflects what is on disk.
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat written file: %w", err)
	}

	w.logger.Info("Result set exported",
		zap.String("label", rs.Label),
		zap.String("path", path),
		zap.Int("rows", len(rs.Rows)),
		zap.Int("columns", len(header)),
		zap.Int64("bytes", info.Size()))

	return nil
}

// unionColumns returns the union of all row columns in first-seen order.
func unionColumns(rows []Row) []string {
	var union []string
	seen := make(map[string]struct{})
	for i := range rows {
		for _, col := range rows[i].Columns() {
			if _, ok := seen[col]; ok {
				continue
			}
			seen[col] = struct{}{}
			union = append(union, col)
		}
	}
	return union
}

// formatValue renders a cell value. Scalars use their canonical text form,
// timestamps the MySQL-style layout, and nested objects compact JSON.
func formatValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case time.Time:
		return val.Format("2006-01-02 15:04:05"), nil
	case json.Number:
		return val.String(), nil
	default:
		// Nested objects and arrays from the API keep their structure as JSON.
		data, err := json.Marshal(val)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		return string(data), nil
	}
}
