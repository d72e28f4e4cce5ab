package burst

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// table is a whitespace-separated numeric table with named columns.
type table struct {
	names []string
	cols  map[string][]float64
}

// readTable parses a table from r. The first non-comment line is the
// header with column names; every following line must carry one value
// per column. Lines starting with '#' are skipped.
func readTable(r io.Reader) (*table, error) {
	t := &table{cols: make(map[string][]float64)}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if t.names == nil {
			t.names = fields
			for _, name := range t.names {
				t.cols[name] = nil
			}
			continue
		}
		if len(fields) != len(t.names) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", lineNo, len(t.names), len(fields))
		}
		for i, f := range fields {
			x, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %v", lineNo, t.names[i], err)
			}
			t.cols[t.names[i]] = append(t.cols[t.names[i]], x)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if t.names == nil {
		return nil, fmt.Errorf("empty table")
	}
	if t.length() == 0 {
		return nil, fmt.Errorf("table has no data rows")
	}
	return t, nil
}

// column returns a named column.
func (t *table) column(name string) ([]float64, error) {
	col, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("missing column %s", name)
	}
	return col, nil
}

// length returns the number of rows.
func (t *table) length() int {
	if len(t.names) == 0 {
		return 0
	}
	return len(t.cols[t.names[0]])
}

// findRow returns the index of the first row where the key column
// equals key.
func (t *table) findRow(keyColumn string, key float64) (int, error) {
	col, err := t.column(keyColumn)
	if err != nil {
		return 0, err
	}
	for i, v := range col {
		if v == key {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no row with %s=%v", keyColumn, key)
}
