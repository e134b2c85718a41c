package tableapi

import (
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var fieldvalidate = validator.New()

// ValidateField coerces a raw request value against the column schema.
// Pure - no side effects. An empty value succeeds as nil for nullable
// columns and fails otherwise; everything else is type-checked and coerced
// per the semantic type.
func ValidateField(col ColumnSchema, raw string) (interface{}, error) {
	if raw == "" {
		if col.Nullable {
			return nil, nil
		}
		return nil, &ValidationError{Reason: "value must not be empty"}
	}

	switch col.Type {
	case TypeNumber:
		return validateNumber(raw)
	case TypeEmail:
		if err := fieldvalidate.Var(raw, "email"); err != nil {
			return nil, &ValidationError{Reason: "not a valid email address"}
		}
		return raw, nil
	case TypeDate:
		return validateDatePattern(raw, "2006-01-02", "not a valid date (YYYY-MM-DD)")
	case TypeDatetime:
		return validateDatePattern(raw, "2006-01-02T15:04", "not a valid datetime (YYYY-MM-DDTHH:MM)")
	case TypeBoolean:
		if isTruthy(raw) {
			return 1, nil
		}
		return 0, nil
	default: // text, select, textarea
		return html.EscapeString(strings.TrimSpace(raw)), nil
	}
}

// validateNumber keeps the apparent representation: integral input stays an
// integer, anything with a fraction becomes a float.
func validateNumber(raw string) (interface{}, error) {
	if intval, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return intval, nil
	}
	if floatval, err := strconv.ParseFloat(raw, 64); err == nil {
		return floatval, nil
	}
	return nil, &ValidationError{Reason: "not a number"}
}

// validateDatePattern accepts only values that parse and round-trip exactly,
// rejecting things like 2024-02-31 that time.Parse would normalize.
func validateDatePattern(raw string, layout string, reason string) (interface{}, error) {
	parsed, err := time.Parse(layout, raw)
	if err != nil || parsed.Format(layout) != raw {
		return nil, &ValidationError{Reason: reason}
	}
	return raw, nil
}

func isTruthy(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
