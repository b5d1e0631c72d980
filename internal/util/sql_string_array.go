package util

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// StringsAsCSV is stored as a comma-separated TEXT column but used as a
// []string. Entries are trimmed on read, blank entries are dropped.
type StringsAsCSV []string

func (t StringsAsCSV) Value() (driver.Value, error) {
	return driver.Value(strings.Join(t, ",")), nil
}

func (t StringsAsCSV) Slice() []string {
	return []string(t)
}

func (t *StringsAsCSV) Scan(src interface{}) error {
	var str string
	switch src := src.(type) {
	case []byte:
		str = string(src)
	case string:
		str = src
	default:
		return fmt.Errorf("expected []byte or string, got %T", src)
	}

	if strings.TrimSpace(str) == "" {
		*t = nil
		return nil
	}

	parts := strings.Split(str, ",")
	out := make([]string, 0, len(parts))
	for _, v := range parts {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}

	*t = out

	return nil
}
