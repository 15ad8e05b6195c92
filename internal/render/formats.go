package render

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/roach88/editgrid/internal/column"
)

// DefaultPrecision is used by numeric and percent cells without a column
// precision.
const DefaultPrecision = 2

// Boolean translation keys.
const (
	KeyYes = "YES"
	KeyNo  = "NO"
)

func precisionOf(col *column.ColumnConfig) int32 {
	if col.Precision > 0 {
		return int32(col.Precision)
	}
	return DefaultPrecision
}

func numericFactory(col *column.ColumnConfig, _ Translator) Renderer {
	places := precisionOf(col)
	return func(v any) string {
		d, ok := toDecimal(v)
		if !ok {
			return plain(v)
		}
		return groupThousands(d.StringFixed(places))
	}
}

func integerFactory(*column.ColumnConfig, Translator) Renderer {
	return func(v any) string {
		d, ok := toDecimal(v)
		if !ok {
			return plain(v)
		}
		return groupThousands(d.Round(0).StringFixed(0))
	}
}

// percentFactory renders values already expressed in percent.
func percentFactory(col *column.ColumnConfig, _ Translator) Renderer {
	places := precisionOf(col)
	return func(v any) string {
		d, ok := toDecimal(v)
		if !ok {
			return plain(v)
		}
		return d.StringFixed(places) + " %"
	}
}

// moneyFactory formats with the currency's own template. Unknown currencies
// fall back to a fixed-point amount followed by the code.
func moneyFactory(col *column.ColumnConfig, _ Translator) Renderer {
	code := strings.ToUpper(col.Currency)
	cur := money.GetCurrency(code)
	places := precisionOf(col)
	return func(v any) string {
		d, ok := toDecimal(v)
		if !ok {
			return plain(v)
		}
		if cur == nil {
			out := groupThousands(d.StringFixed(places))
			if code != "" {
				out += " " + code
			}
			return out
		}
		minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
		return money.New(minor, code).Display()
	}
}

func dateFactory(*column.ColumnConfig, Translator) Renderer {
	return func(v any) string {
		if column.IsEmpty(v) {
			return ""
		}
		t, err := column.ToTime(v)
		if err != nil {
			return plain(v)
		}
		return t.Format(column.DateLayout)
	}
}

func booleanFactory(_ *column.ColumnConfig, tr Translator) Renderer {
	yes, no := tr.Translate(KeyYes), tr.Translate(KeyNo)
	return func(v any) string {
		switch val := v.(type) {
		case bool:
			if val {
				return yes
			}
			return no
		case *bool:
			if val == nil {
				return ""
			}
			if *val {
				return yes
			}
			return no
		default:
			return plain(v)
		}
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	if column.IsEmpty(v) {
		return decimal.Zero, false
	}
	d, err := column.ToDecimal(v)
	return d, err == nil
}

// groupThousands inserts "," between groups of three integer digits of a
// plain decimal string.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(intPart) <= 3 {
		return sign + s
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
