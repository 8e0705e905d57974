package db

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one result row keyed by column name. Keys are stored lower-case so
// lookups do not depend on how each engine reports identifier case.
type Row map[string]any

func newRow(cols []string, vals []any) Row {
	r := make(Row, len(cols))
	for i, c := range cols {
		r[strings.ToLower(c)] = vals[i]
	}
	return r
}

func normalizeRow(m map[string]any) Row {
	r := make(Row, len(m))
	for k, v := range m {
		r[strings.ToLower(k)] = v
	}
	return r
}

func (r Row) value(col string) any {
	return r[strings.ToLower(col)]
}

// Has reports whether the row carries the column (even if NULL).
func (r Row) Has(col string) bool {
	_, ok := r[strings.ToLower(col)]
	return ok
}

// IsNull reports whether the column is missing or NULL.
func (r Row) IsNull(col string) bool {
	return r.value(col) == nil
}

// String returns the column as text. NULL becomes "".
func (r Row) String(col string) string {
	switch v := r.value(col).(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// NullString returns nil for NULL, otherwise a pointer to the text value.
func (r Row) NullString(col string) *string {
	if r.IsNull(col) {
		return nil
	}
	s := r.String(col)
	return &s
}

// Int64 returns the column as an integer.
func (r Row) Int64(col string) (int64, error) {
	switch v := r.value(col).(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			return 0, err
		}
		return Row{strings.ToLower(col): dv}.Int64(col)
	case nil:
		return 0, fmt.Errorf("column %s is NULL", col)
	default:
		return 0, fmt.Errorf("column %s: cannot convert %T to int64", col, v)
	}
}

// Decimal returns the column as an exact decimal.
func (r Row) Decimal(col string) (decimal.Decimal, error) {
	switch v := r.value(col).(type) {
	case decimal.Decimal:
		return v, nil
	case []byte:
		return decimal.NewFromString(strings.TrimSpace(string(v)))
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case int64:
		return decimal.NewFromInt(v), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case driver.Valuer:
		// pgtype.Numeric and friends
		dv, err := v.Value()
		if err != nil {
			return decimal.Zero, err
		}
		if dv == nil {
			return decimal.Zero, fmt.Errorf("column %s is NULL", col)
		}
		return Row{strings.ToLower(col): dv}.Decimal(col)
	case nil:
		return decimal.Zero, fmt.Errorf("column %s is NULL", col)
	default:
		return decimal.Zero, fmt.Errorf("column %s: cannot convert %T to decimal", col, v)
	}
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses the date and timestamp formats the supported drivers emit.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time value %q", s)
}

// Time returns the column as a time.
func (r Row) Time(col string) (time.Time, error) {
	switch v := r.value(col).(type) {
	case time.Time:
		return v, nil
	case []byte:
		return ParseTime(string(v))
	case string:
		return ParseTime(v)
	case nil:
		return time.Time{}, fmt.Errorf("column %s is NULL", col)
	default:
		return time.Time{}, fmt.Errorf("column %s: cannot convert %T to time", col, v)
	}
}

// NullTime returns nil for NULL, otherwise the parsed time.
func (r Row) NullTime(col string) (*time.Time, error) {
	if r.IsNull(col) {
		return nil, nil
	}
	t, err := r.Time(col)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Bool returns the column as a boolean. Integer columns are true when non-zero.
func (r Row) Bool(col string) (bool, error) {
	switch v := r.value(col).(type) {
	case bool:
		return v, nil
	case []byte:
		return strconv.ParseBool(strings.TrimSpace(string(v)))
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	case nil:
		return false, fmt.Errorf("column %s is NULL", col)
	default:
		n, err := r.Int64(col)
		if err != nil {
			return false, err
		}
		return n != 0, nil
	}
}
