package datanorm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the timestamp format written to snapshot files.
const TimeLayout = time.RFC3339Nano

// timeLayouts are accepted when reading snapshots. The space-separated forms
// are what Python's str(datetime) produces in older exports.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(TimeLayout)
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// isAbsent treats the empty string and Python's None/NaN spellings as a
// missing value.
func isAbsent(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "None", "NaN", "nan", "NaT":
		return true
	}
	return false
}

func parseTime(s string) (*time.Time, error) {
	if isAbsent(s) {
		return nil, nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unparseable timestamp %q", s)
}

func parseInt(s string) (*int64, error) {
	if isAbsent(s) {
		return nil, nil
	}
	s = strings.TrimSpace(s)
	// Exports that went through a dataframe render integer ids as "3.0".
	s = strings.TrimSuffix(s, ".0")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return &v, nil
}

func parseFloat(s string) (*float64, error) {
	if isAbsent(s) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return &v, nil
}

func parseOptionalString(s string) *string {
	if isAbsent(s) {
		return nil
	}
	return &s
}

// parseBool accepts true/false in any case plus 1/0. An empty value is false.
func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(strings.ToLower(s))
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", s)
	}
	return v, nil
}
