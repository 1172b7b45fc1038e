package database

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// PgVector is a float64 vector stored in a PostgreSQL pgvector column.
// It reads and writes the text form "[1,2,3]".
type PgVector struct {
	values []float64
}

// NewPgVector copies values into a PgVector.
func NewPgVector(values []float64) PgVector {
	return PgVector{values: append([]float64(nil), values...)}
}

// Floats returns a copy of the vector, or nil when it was scanned from NULL.
func (v PgVector) Floats() []float64 {
	if v.values == nil {
		return nil
	}
	return append([]float64(nil), v.values...)
}

// Dimension returns the vector length.
func (v PgVector) Dimension() int {
	return len(v.values)
}

// Scan implements sql.Scanner.
func (v *PgVector) Scan(value any) error {
	var raw string
	switch val := value.(type) {
	case nil:
		v.values = nil
		return nil
	case string:
		raw = val
	case []byte:
		raw = string(val)
	default:
		return fmt.Errorf("cannot scan %T into PgVector", value)
	}

	raw = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(raw), "["), "]")
	if strings.TrimSpace(raw) == "" {
		v.values = []float64{}
		return nil
	}

	parts := strings.Split(raw, ",")
	values := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("parse vector element %d: %w", i, err)
		}
		values[i] = f
	}
	v.values = values
	return nil
}

// Value implements driver.Valuer.
func (v PgVector) Value() (driver.Value, error) {
	return v.String(), nil
}

// String returns the pgvector literal.
func (v PgVector) String() string {
	var b strings.Builder
	b.Grow(len(v.values)*12 + 2)
	b.WriteByte('[')
	for i, f := range v.values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
