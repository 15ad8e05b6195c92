package compiler

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/roach88/editgrid/internal/column"
	"github.com/roach88/editgrid/internal/crud"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported value passed to Validate

	// TableSpec errors (E101-E114)
	ErrMissingDataKey     = "E101" // dataKey is required
	ErrNoColumns          = "E102" // at least one column required
	ErrUnknownDependsOn   = "E103" // dependsOn names no column
	ErrDependencyCycle    = "E104" // dependsOn chain loops
	ErrBoundsInverted     = "E105" // min > max or minLength > maxLength
	ErrInvalidInputType   = "E106" // unknown edit input type
	ErrSelectNoOptions    = "E107" // select input without an options source
	ErrUnknownPermission  = "E108" // permission not in the CRUD vocabulary
	ErrInvalidDataType    = "E109" // unknown column data type
	ErrInvalidDateBound   = "E110" // unparsable or inverted date bound
	ErrInvalidPattern     = "E111" // pattern does not compile
	ErrStrictNoOptions    = "E112" // strict without static options
	ErrInvalidTranslation = "E113" // unknown translate mode
	ErrEditableDataKey    = "E114" // dataKey column declares edit
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates a compiled table against schema rules.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *TableSpec:
		return validateTable(spec)
	case TableSpec:
		return validateTable(&spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateTable(spec *TableSpec) []ValidationError {
	var errs []ValidationError

	// E101: dataKey is required
	if strings.TrimSpace(spec.DataKey) == "" {
		errs = append(errs, ValidationError{
			Field:   "dataKey",
			Message: "dataKey is required and must be non-empty",
			Code:    ErrMissingDataKey,
			Line:    spec.Line,
		})
	}

	// E102: at least one column
	if len(spec.Columns) == 0 {
		errs = append(errs, ValidationError{
			Field:   "columns",
			Message: "at least one column is required",
			Code:    ErrNoColumns,
			Line:    spec.Line,
		})
	}

	// E108: permissions
	_, unknown := crud.ParsePermissions(spec.Permissions)
	for _, p := range unknown {
		errs = append(errs, ValidationError{
			Field:   "permissions",
			Message: fmt.Sprintf("unknown permission %q", p),
			Code:    ErrUnknownPermission,
			Line:    spec.Line,
		})
	}

	fields := make(map[string]bool, len(spec.Columns))
	for _, c := range spec.Columns {
		fields[c.Field] = true
	}

	for _, c := range spec.Columns {
		errs = append(errs, validateColumn(c, fields, spec.DataKey)...)
	}

	// E104: dependsOn cycles
	for _, cyc := range AnalyzeDependencies(spec) {
		errs = append(errs, ValidationError{
			Field:   "columns." + cyc.Path[0] + ".edit.dependsOn",
			Message: cyc.Message,
			Code:    ErrDependencyCycle,
			Line:    spec.Line,
		})
	}

	return errs
}

func validateColumn(c ColumnSpec, fields map[string]bool, dataKey string) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   "columns." + c.Field + field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
			Line:    c.Line,
		})
	}

	// E109: data type
	if !slices.Contains(column.ValidDataTypes, column.DataType(c.Type)) {
		add(".type", ErrInvalidDataType, "invalid data type %q", c.Type)
	}

	// E113: translate mode
	switch column.TranslateMode(c.Translate) {
	case column.TranslateNone, column.TranslateNormal, column.TranslateUpperCase:
	default:
		add(".translate", ErrInvalidTranslation, "invalid translate mode %q, must be \"normal\" or \"uppercase\"", c.Translate)
	}

	e := c.Edit
	if e == nil {
		return errs
	}

	// E114: rows are tracked by their key, so it cannot change mid-edit
	if c.Field == dataKey {
		add(".edit", ErrEditableDataKey, "dataKey column %q cannot be editable", c.Field)
	}

	// E106: input type
	if e.Input != "" && !slices.Contains(column.ValidInputTypes, column.InputType(e.Input)) {
		add(".edit.input", ErrInvalidInputType, "invalid input type %q", e.Input)
	}

	// E103: dependsOn target
	if e.DependsOn != "" && !fields[e.DependsOn] {
		add(".edit.dependsOn", ErrUnknownDependsOn, "dependsOn references unknown column %q", e.DependsOn)
	}

	// E107: select needs an options source. Dynamic providers are bound by
	// the host after compilation, so an explicit select with nothing
	// declared is only reported when no dependsOn is set either.
	hasSource := len(c.Options) > 0 || len(e.OptionsMap) > 0 || e.DependsOn != ""
	if column.InputType(e.Input) == column.InputSelect && !hasSource {
		add(".edit.input", ErrSelectNoOptions, "select input requires options, optionsMap or dependsOn")
	}
	if len(e.OptionsMap) > 0 && e.DependsOn == "" {
		add(".edit.optionsMap", ErrSelectNoOptions, "optionsMap requires dependsOn")
	}

	// E105: inverted bounds
	if e.Min != nil && e.Max != nil && e.Min.GreaterThan(*e.Max) {
		add(".edit.min", ErrBoundsInverted, "min %s is greater than max %s", e.Min, e.Max)
	}
	if e.MinLength != nil && e.MaxLength != nil && *e.MinLength > *e.MaxLength {
		add(".edit.minLength", ErrBoundsInverted, "minLength %d is greater than maxLength %d", *e.MinLength, *e.MaxLength)
	}
	if e.MinLength != nil && *e.MinLength < 0 {
		add(".edit.minLength", ErrBoundsInverted, "minLength must not be negative")
	}

	// E110: date bounds
	minDate, minErr := parseDate(e.MinDate)
	if minErr != nil {
		add(".edit.minDate", ErrInvalidDateBound, "invalid date %q, expected YYYY-MM-DD", e.MinDate)
	}
	maxDate, maxErr := parseDate(e.MaxDate)
	if maxErr != nil {
		add(".edit.maxDate", ErrInvalidDateBound, "invalid date %q, expected YYYY-MM-DD", e.MaxDate)
	}
	if minDate != nil && maxDate != nil && minDate.After(*maxDate) {
		add(".edit.minDate", ErrInvalidDateBound, "minDate %s is after maxDate %s",
			minDate.Format(time.DateOnly), maxDate.Format(time.DateOnly))
	}

	// E111: pattern
	if e.Pattern != "" {
		if _, err := regexp.Compile(e.Pattern); err != nil {
			add(".edit.pattern", ErrInvalidPattern, "invalid pattern: %v", err)
		}
	}

	// E112: strict needs static options
	if e.Strict && len(c.Options) == 0 {
		add(".edit.strict", ErrStrictNoOptions, "strict requires static options")
	}

	return errs
}
