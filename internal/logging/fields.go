package logging

import (
	"time"
)

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value.
// This is a shorthand for creating Field{Key: k, Value: v}.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Common field constructors for frequently used fields.

// WindowKey creates a window key field.
func WindowKey(key string) Field {
	return F("window", key)
}

// Method creates a calibration method field.
func Method(m string) Field {
	return F("method", m)
}

// Status creates a model status field.
func Status(s string) Field {
	return F("status", s)
}

// Confidence creates a confidence field.
func Confidence(c float64) Field {
	return F("confidence", c)
}

// Offset creates an offset field.
func Offset(o float64) Field {
	return F("offset", o)
}

// Percent creates a percentage field (0-100 scale).
func Percent(p float64) Field {
	return F("pct", p)
}

// Value creates a fraction-of-limit field (0-1 scale).
func Value(name string, v float64) Field {
	return F(name, v)
}

// Limit creates a learned rate limit field (tokens per minute).
func Limit(name string, tpm int) Field {
	return F(name, tpm)
}

// Tokens creates a token count field.
func Tokens(count int64) Field {
	return F("tokens", count)
}

// Samples creates a sample count field.
func Samples(n int) Field {
	return F("samples", n)
}

// Duration creates a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return F("duration_ms", d.Milliseconds())
}

// DurationSince creates a duration field from a start time.
func DurationSince(start time.Time) Field {
	return Duration(time.Since(start))
}

// Expires creates an expiry time field.
func Expires(t time.Time) Field {
	return F("expires_at", t.Format(time.RFC3339))
}

// Path creates a file path field.
func Path(p string) Field {
	return F("path", p)
}

// Error creates an error field.
func Error(err error) Field {
	if err == nil {
		return F("error", nil)
	}
	return F("error", err.Error())
}

// Count creates a count field.
func Count(n int) Field {
	return F("count", n)
}

// Reason creates a reason field.
func Reason(r string) Field {
	return F("reason", r)
}

// fieldsToMap converts a slice of Fields to a map.
func fieldsToMap(fields []Field) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}
