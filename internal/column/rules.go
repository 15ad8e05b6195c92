package column

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// Rule is a named predicate over a cell value. The name keys the message in
// ColumnEditConfig.Errors.
type Rule struct {
	Name  string
	Valid func(value any) bool
}

// Rule names used by the built-in rules.
const (
	RuleRequired  = "required"
	RuleMin       = "min"
	RuleMax       = "max"
	RuleMinLength = "minLength"
	RuleMaxLength = "maxLength"
	RulePattern   = "pattern"
	RuleMinDate   = "minDate"
	RuleMaxDate   = "maxDate"
	RuleOneOf     = "oneOf"
)

// DateLayout is the layout used for date values held as strings.
const DateLayout = "2006-01-02"

// Required fails on nil, empty strings and blank strings.
func Required() Rule {
	return Rule{Name: RuleRequired, Valid: func(v any) bool { return !IsEmpty(v) }}
}

// Min fails when the numeric value is below min.
func Min(min decimal.Decimal) Rule {
	return Rule{Name: RuleMin, Valid: func(v any) bool {
		if IsEmpty(v) {
			return true
		}
		d, err := ToDecimal(v)
		return err == nil && d.GreaterThanOrEqual(min)
	}}
}

// Max fails when the numeric value is above max.
func Max(max decimal.Decimal) Rule {
	return Rule{Name: RuleMax, Valid: func(v any) bool {
		if IsEmpty(v) {
			return true
		}
		d, err := ToDecimal(v)
		return err == nil && d.LessThanOrEqual(max)
	}}
}

// MinLength fails when a string has fewer than n runes.
func MinLength(n int) Rule {
	return Rule{Name: RuleMinLength, Valid: func(v any) bool {
		if IsEmpty(v) {
			return true
		}
		return utf8.RuneCountInString(fmt.Sprint(v)) >= n
	}}
}

// MaxLength fails when a string has more than n runes.
func MaxLength(n int) Rule {
	return Rule{Name: RuleMaxLength, Valid: func(v any) bool {
		if IsEmpty(v) {
			return true
		}
		return utf8.RuneCountInString(fmt.Sprint(v)) <= n
	}}
}

// Pattern fails when the formatted value does not match re.
func Pattern(re *regexp.Regexp) Rule {
	return Rule{Name: RulePattern, Valid: func(v any) bool {
		if IsEmpty(v) {
			return true
		}
		return re.MatchString(fmt.Sprint(v))
	}}
}

// MinDate fails when the date is before min.
func MinDate(min time.Time) Rule {
	return Rule{Name: RuleMinDate, Valid: func(v any) bool {
		if IsEmpty(v) {
			return true
		}
		t, err := ToTime(v)
		return err == nil && !t.Before(min)
	}}
}

// MaxDate fails when the date is after max.
func MaxDate(max time.Time) Rule {
	return Rule{Name: RuleMaxDate, Valid: func(v any) bool {
		if IsEmpty(v) {
			return true
		}
		t, err := ToTime(v)
		return err == nil && !t.After(max)
	}}
}

// OneOf fails when the value matches no option key. String keys compare
// case-insensitively.
func OneOf(options func() []Option) Rule {
	fold := cases.Fold()
	return Rule{Name: RuleOneOf, Valid: func(v any) bool {
		if IsEmpty(v) {
			return true
		}
		want := fold.String(fmt.Sprint(v))
		for _, o := range options() {
			if fold.String(fmt.Sprint(o.Key)) == want {
				return true
			}
		}
		return false
	}}
}

// IsEmpty reports whether v counts as "no value".
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case *decimal.Decimal:
		return val == nil
	case *time.Time:
		return val == nil
	}
	return false
}

// ToDecimal converts a numeric cell value to a decimal.
func ToDecimal(v any) (decimal.Decimal, error) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, nil
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero, fmt.Errorf("nil decimal")
		}
		return *val, nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int32:
		return decimal.NewFromInt32(val), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case float32:
		return decimal.NewFromFloat32(val), nil
	case float64:
		return decimal.NewFromFloat(val), nil
	case json.Number:
		return decimal.NewFromString(val.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(val))
	default:
		return decimal.Zero, fmt.Errorf("not a number: %T", v)
	}
}

// ToTime converts a date cell value to a time.
func ToTime(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case *time.Time:
		if val == nil {
			return time.Time{}, fmt.Errorf("nil time")
		}
		return *val, nil
	case string:
		if t, err := time.Parse(DateLayout, val); err == nil {
			return t, nil
		}
		return time.Parse(time.RFC3339, val)
	default:
		return time.Time{}, fmt.Errorf("not a date: %T", v)
	}
}
