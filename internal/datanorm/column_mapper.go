package datanorm

import (
	"fmt"
	"strings"
)

// ColumnMapping maps canonical column names to their index in a CSV header.
type ColumnMapping struct {
	index map[string]int
}

// MapColumns resolves every required column in header. Header names are
// matched case-insensitively after trimming; extra columns are ignored so
// that a leading dataframe index column does not break the import.
func MapColumns(header, required []string) (*ColumnMapping, error) {
	seen := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := seen[key]; !dup {
			seen[key] = i
		}
	}

	m := &ColumnMapping{index: make(map[string]int, len(required))}
	var missing []string
	for _, col := range required {
		i, ok := seen[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		m.index[col] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrSnapshotFormat, strings.Join(missing, ", "))
	}
	return m, nil
}

// Get returns the value of col in row, or "" when the row is short.
func (m *ColumnMapping) Get(row []string, col string) string {
	i, ok := m.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
