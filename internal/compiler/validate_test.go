package compiler

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/editgrid/internal/column"
)

func validSpec() *TableSpec {
	return &TableSpec{
		Name:        "Dividend",
		DataKey:     "id",
		Permissions: []string{"Allow_Create"},
		Columns: []ColumnSpec{
			{Field: "security", Type: "string", Visible: true, Options: []column.Option{{Key: "AAPL", Value: "Apple"}}},
			{Field: "amount", Type: "numeric", Visible: true, Edit: &EditSpec{}},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(i int) *int { return &i }

func TestValidateValid(t *testing.T) {
	assert.Empty(t, Validate(validSpec()))
	assert.Empty(t, Validate(*validSpec()), "value form is accepted")
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate("nope")
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedType, errs[0].Code)
}

func TestValidateTable(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TableSpec)
		want   []string
	}{
		{
			name:   "missing data key",
			mutate: func(s *TableSpec) { s.DataKey = "  " },
			want:   []string{ErrMissingDataKey},
		},
		{
			name:   "no columns",
			mutate: func(s *TableSpec) { s.Columns = nil },
			want:   []string{ErrNoColumns},
		},
		{
			name:   "unknown permission",
			mutate: func(s *TableSpec) { s.Permissions = append(s.Permissions, "Allow_Fly") },
			want:   []string{ErrUnknownPermission},
		},
		{
			name:   "unknown data type",
			mutate: func(s *TableSpec) { s.Columns[1].Type = "float" },
			want:   []string{ErrInvalidDataType},
		},
		{
			name:   "unknown translate mode",
			mutate: func(s *TableSpec) { s.Columns[0].Translate = "lower" },
			want:   []string{ErrInvalidTranslation},
		},
		{
			name: "editable data key",
			mutate: func(s *TableSpec) {
				s.Columns = append(s.Columns, ColumnSpec{Field: "id", Type: "integer", Edit: &EditSpec{}})
			},
			want: []string{ErrEditableDataKey},
		},
		{
			name:   "read-only data key",
			mutate: func(s *TableSpec) { s.Columns = append(s.Columns, ColumnSpec{Field: "id", Type: "integer"}) },
			want:   []string{},
		},
		{
			name:   "unknown input type",
			mutate: func(s *TableSpec) { s.Columns[1].Edit.Input = "slider" },
			want:   []string{ErrInvalidInputType},
		},
		{
			name:   "unknown dependsOn",
			mutate: func(s *TableSpec) { s.Columns[1].Edit.DependsOn = "nothing" },
			want:   []string{ErrUnknownDependsOn},
		},
		{
			name:   "select without options",
			mutate: func(s *TableSpec) { s.Columns[1].Edit.Input = "select" },
			want:   []string{ErrSelectNoOptions},
		},
		{
			name: "optionsMap without dependsOn",
			mutate: func(s *TableSpec) {
				s.Columns[1].Edit.OptionsMap = map[string][]column.Option{"A": {{Key: "x"}}}
			},
			want: []string{ErrSelectNoOptions},
		},
		{
			name: "min greater than max",
			mutate: func(s *TableSpec) {
				s.Columns[1].Edit.Min = dec("10")
				s.Columns[1].Edit.Max = dec("1")
			},
			want: []string{ErrBoundsInverted},
		},
		{
			name: "minLength greater than maxLength",
			mutate: func(s *TableSpec) {
				s.Columns[1].Edit.MinLength = intPtr(5)
				s.Columns[1].Edit.MaxLength = intPtr(2)
			},
			want: []string{ErrBoundsInverted},
		},
		{
			name:   "bad date",
			mutate: func(s *TableSpec) { s.Columns[1].Edit.MinDate = "01/02/2024" },
			want:   []string{ErrInvalidDateBound},
		},
		{
			name: "inverted dates",
			mutate: func(s *TableSpec) {
				s.Columns[1].Edit.MinDate = "2024-02-01"
				s.Columns[1].Edit.MaxDate = "2024-01-01"
			},
			want: []string{ErrInvalidDateBound},
		},
		{
			name:   "bad pattern",
			mutate: func(s *TableSpec) { s.Columns[1].Edit.Pattern = "([" },
			want:   []string{ErrInvalidPattern},
		},
		{
			name:   "strict without options",
			mutate: func(s *TableSpec) { s.Columns[1].Edit.Strict = true },
			want:   []string{ErrStrictNoOptions},
		},
		{
			name:   "self dependency",
			mutate: func(s *TableSpec) { s.Columns[1].Edit.DependsOn = "amount" },
			want:   []string{ErrDependencyCycle},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(spec)
			assert.Equal(t, tt.want, codes(Validate(spec)))
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	spec := validSpec()
	spec.DataKey = ""
	spec.Permissions = []string{"Allow_Everything"}
	spec.Columns[1].Type = "money"
	spec.Columns[1].Edit.Input = "slider"

	errs := Validate(spec)
	assert.Equal(t, []string{ErrMissingDataKey, ErrUnknownPermission, ErrInvalidDataType, ErrInvalidInputType}, codes(errs))
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "columns.a.type", Message: "bad", Code: ErrInvalidDataType, Line: 7}
	assert.Equal(t, "[E109] line 7: columns.a.type: bad", err.Error())

	err.Line = 0
	assert.Equal(t, "[E109] columns.a.type: bad", err.Error())
}

func TestValidateErrorCarriesColumnLine(t *testing.T) {
	spec := validSpec()
	spec.Columns[1].Line = 12
	spec.Columns[1].Type = "float"

	errs := Validate(spec)
	require.Len(t, errs, 1)
	assert.Equal(t, 12, errs[0].Line)
	assert.Equal(t, "columns.amount.type", errs[0].Field)
}
