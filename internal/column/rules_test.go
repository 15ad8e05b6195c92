package column

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		rule  Rule
		value any
		want  bool
	}{
		{"required nil", Required(), nil, false},
		{"required blank", Required(), "   ", false},
		{"required zero", Required(), 0, true},
		{"required text", Required(), "x", true},
		{"min below", Min(decimal.RequireFromString("0.1")), 0.05, false},
		{"min equal", Min(decimal.RequireFromString("0.1")), 0.1, true},
		{"min string", Min(decimal.NewFromInt(5)), "7", true},
		{"min garbage", Min(decimal.NewFromInt(5)), "abc", false},
		{"min empty passes", Min(decimal.NewFromInt(5)), nil, true},
		{"max above", Max(decimal.NewFromInt(100)), 150, false},
		{"max decimal", Max(decimal.NewFromInt(100)), decimal.RequireFromString("99.99"), true},
		{"minLength short", MinLength(3), "ab", false},
		{"maxLength unicode", MaxLength(3), "äöü", true},
		{"pattern match", Pattern(regexp.MustCompile(`^[A-Z]{3}$`)), "EUR", true},
		{"pattern miss", Pattern(regexp.MustCompile(`^[A-Z]{3}$`)), "euro", false},
		{"minDate before", MinDate(jan), "2023-12-31", false},
		{"minDate same", MinDate(jan), "2024-01-01", true},
		{"maxDate after", MaxDate(dec), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"maxDate bad", MaxDate(dec), "not a date", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Valid(tt.value))
		})
	}
}

func TestOneOf_CaseInsensitive(t *testing.T) {
	rule := OneOf(func() []Option {
		return []Option{{Key: "NYSE", Value: "New York"}, {Key: 7, Value: "seven"}}
	})

	assert.True(t, rule.Valid("nyse"))
	assert.True(t, rule.Valid(7))
	assert.False(t, rule.Valid("XETRA"))
	assert.True(t, rule.Valid(""), "empty values pass")
}

func TestCheck_FirstFailureWins(t *testing.T) {
	col := &ColumnConfig{
		Field:    "percentage",
		DataType: DataTypeNumeric,
		Edit: &ColumnEditConfig{
			Required: true,
			Min:      decimalPtr("0.1"),
			Max:      decimalPtr("100"),
			Errors:   map[string]string{RuleMax: "at most 100"},
		},
	}

	err := Check(col, nil)
	require.NotNil(t, err)
	assert.Equal(t, RuleRequired, err.Rule)
	assert.Equal(t, DefaultErrorMessage, err.Message, "no message configured for required")

	err = Check(col, 150)
	require.NotNil(t, err)
	assert.Equal(t, RuleMax, err.Rule)
	assert.Equal(t, "at most 100", err.Message)
	assert.Equal(t, "percentage", err.Field)

	assert.Nil(t, Check(col, 50))
}

func TestCheck_ExplicitRulesBeforeBounds(t *testing.T) {
	always := Rule{Name: "never", Valid: func(any) bool { return false }}
	col := &ColumnConfig{
		Field: "amount",
		Edit:  &ColumnEditConfig{Validation: []Rule{always}, Max: decimalPtr("1")},
	}

	err := Check(col, 5)
	require.NotNil(t, err)
	assert.Equal(t, "never", err.Rule)
}

func TestCheck_ReadOnlyColumn(t *testing.T) {
	assert.Nil(t, Check(&ColumnConfig{Field: "id"}, nil))
}

func TestToDecimal(t *testing.T) {
	d, err := ToDecimal("12.50")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("12.5")))

	_, err = ToDecimal(struct{}{})
	assert.Error(t, err)
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
